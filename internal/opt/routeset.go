package opt

import "feedernet/internal/graph"

// RouteSet maps each origin station to its route, remembering the order in
// which origins were added.
type RouteSet struct {
	origins []graph.Station
	routes  map[graph.Station]*graph.StopGraph
}

func NewRouteSet() *RouteSet {
	return &RouteSet{routes: map[graph.Station]*graph.StopGraph{}}
}

// Put stores the route for origin. Replacing an existing origin keeps its
// original position.
func (rs *RouteSet) Put(origin graph.Station, route *graph.StopGraph) {
	if _, ok := rs.routes[origin]; !ok {
		rs.origins = append(rs.origins, origin)
	}
	rs.routes[origin] = route
}

func (rs *RouteSet) Route(origin graph.Station) (*graph.StopGraph, bool) {
	r, ok := rs.routes[origin]
	return r, ok
}

func (rs *RouteSet) Origins() []graph.Station {
	return append([]graph.Station(nil), rs.origins...)
}

func (rs *RouteSet) Len() int { return len(rs.origins) }

// Each visits routes in origin order.
func (rs *RouteSet) Each(fn func(origin graph.Station, route *graph.StopGraph)) {
	for _, o := range rs.origins {
		fn(o, rs.routes[o])
	}
}

// Path returns the stations of a chain route starting at origin.
func Path(route *graph.StopGraph, origin graph.Station) []graph.Station {
	path := []graph.Station{origin}
	seen := map[graph.Station]bool{origin: true}
	cur := origin
	for {
		out := route.Outgoing(cur)
		if len(out) == 0 || seen[out[0].Target] {
			return path
		}
		cur = out[0].Target
		seen[cur] = true
		path = append(path, cur)
	}
}
