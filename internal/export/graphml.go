// Package export writes stop graphs as GraphML and plans as JSON.
package export

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"feedernet/internal/graph"
	"feedernet/internal/model"
	"feedernet/internal/opt"
)

const graphMLNS = "http://graphml.graphdrawing.org/xmlns"

type graphML struct {
	XMLName xml.Name `xml:"graphml"`
	XMLNS   string   `xml:"xmlns,attr"`
	Keys    []gmlKey `xml:"key"`
	Graph   gmlGraph `xml:"graph"`
}

type gmlKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
	AttrType string `xml:"attr.type,attr"`
}

type gmlGraph struct {
	EdgeDefault string    `xml:"edgedefault,attr"`
	Nodes       []gmlNode `xml:"node"`
	Edges       []gmlEdge `xml:"edge"`
}

type gmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

type gmlNode struct {
	ID   string    `xml:"id,attr"`
	Data []gmlData `xml:"data"`
}

type gmlEdge struct {
	ID     string    `xml:"id,attr"`
	Source string    `xml:"source,attr"`
	Target string    `xml:"target,attr"`
	Data   []gmlData `xml:"data"`
}

// VertexID names a station the way route files identify it.
func VertexID(s graph.Station) string {
	if s.Metro {
		return s.Name + " Metro"
	}
	return s.Name + " Bus Stop"
}

// WriteGraphML writes g as a directed GraphML document with a Demand vertex
// attribute and a weight edge attribute.
func WriteGraphML(w io.Writer, g *graph.StopGraph) error {
	doc := graphML{
		XMLNS: graphMLNS,
		Keys: []gmlKey{
			{ID: "demand", For: "node", AttrName: "Demand", AttrType: "string"},
			{ID: "weight", For: "edge", AttrName: "weight", AttrType: "double"},
		},
		Graph: gmlGraph{EdgeDefault: "directed"},
	}
	for _, s := range g.Stations() {
		doc.Graph.Nodes = append(doc.Graph.Nodes, gmlNode{
			ID:   VertexID(s),
			Data: []gmlData{{Key: "demand", Value: strconv.Itoa(s.Demand)}},
		})
	}
	for i, c := range g.Connections() {
		doc.Graph.Edges = append(doc.Graph.Edges, gmlEdge{
			ID:     "e" + strconv.Itoa(i+1),
			Source: VertexID(c.Source),
			Target: VertexID(c.Target),
			Data:   []gmlData{{Key: "weight", Value: strconv.FormatFloat(c.Weight, 'f', -1, 64)}},
		})
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteGraphMLFile writes g to path, creating parent directories.
func WriteGraphMLFile(path string, g *graph.StopGraph) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error { return WriteGraphML(w, g) })
}

// FileName is the route file of origin inside a route directory.
func FileName(origin graph.Station) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(origin.Name) + ".graphml"
}

// WriteRoutes writes one GraphML file per route into dir and returns the
// paths in route order.
func WriteRoutes(dir string, routes *opt.RouteSet) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var paths []string
	var err error
	routes.Each(func(origin graph.Station, route *graph.StopGraph) {
		if err != nil {
			return
		}
		path := filepath.Join(dir, FileName(origin))
		if err = writeFile(path, func(w io.Writer) error { return WriteGraphML(w, route) }); err != nil {
			err = fmt.Errorf("route %s: %w", origin.Name, err)
			return
		}
		paths = append(paths, path)
	})
	return paths, err
}

// WritePlanJSON writes the plan as indented JSON.
func WritePlanJSON(w io.Writer, plan model.Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}

// WritePlanFile writes the plan to path.
func WritePlanFile(path string, plan model.Plan) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error { return WritePlanJSON(w, plan) })
}

func writeFile(path string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(f)
}
