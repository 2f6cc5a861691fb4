package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedernet/internal/graph"
	"feedernet/internal/matrix"
)

func demandSheet() matrix.Table {
	return matrix.Table{
		Name:    "Demand at each node",
		Columns: []string{"Demand"},
		Rows: []matrix.Row{
			{Name: "Ameerpet m", Cells: []matrix.Cell{matrix.Num(12)}},
			{Name: "SR Nagar b", Cells: []matrix.Cell{matrix.Num(4)}},
		},
	}
}

func TestStation(t *testing.T) {
	d := demandSheet()
	assert.Equal(t, graph.Station{Name: "Ameerpet", Metro: true, Demand: 12}, Station("Ameerpet m", d))
	assert.Equal(t, graph.Station{Name: "SR Nagar", Demand: 4}, Station("SR Nagar b", d))
	assert.Equal(t, graph.Station{Name: "Begumpet", Demand: 0}, Station("Begumpet b", d), "missing demand row")
}

func TestBuild(t *testing.T) {
	od := matrix.Table{
		Name:    "Matrix",
		Columns: []string{"Ameerpet m", "SR Nagar b", "Begumpet b"},
		Rows: []matrix.Row{
			{Name: "Ameerpet m", Cells: []matrix.Cell{matrix.Num(0), matrix.Num(1.8), matrix.BlankCell()}},
			{Name: "SR Nagar b", Cells: []matrix.Cell{matrix.Num(1.9), matrix.Num(0), matrix.Num(2.2)}},
			{Name: "Punjagutta m", Cells: []matrix.Cell{matrix.Num(3.1)}},
		},
	}
	g, err := Build(od, demandSheet())
	require.NoError(t, err)

	ameerpet := graph.Station{Name: "Ameerpet", Metro: true, Demand: 12}
	srNagar := graph.Station{Name: "SR Nagar", Demand: 4}
	begumpet := graph.Station{Name: "Begumpet"}
	punjagutta := graph.Station{Name: "Punjagutta", Metro: true}

	assert.Equal(t, []graph.Station{ameerpet, srNagar, begumpet, punjagutta}, g.Stations())
	assert.Equal(t, 4, g.Size())

	assert.Equal(t, []graph.Connection{
		{Source: ameerpet, Target: srNagar, Weight: 1.9},
		{Source: ameerpet, Target: punjagutta, Weight: 3.1},
	}, g.Outgoing(ameerpet), "edges run column to row")
	assert.Equal(t, []graph.Connection{{Source: srNagar, Target: ameerpet, Weight: 1.8}}, g.Outgoing(srNagar))
	assert.Equal(t, []graph.Connection{{Source: begumpet, Target: srNagar, Weight: 2.2}}, g.Outgoing(begumpet))
}

func TestBuildRejectsNegativeDistance(t *testing.T) {
	od := matrix.Table{
		Columns: []string{"A m"},
		Rows:    []matrix.Row{{Name: "B b", Cells: []matrix.Cell{matrix.Num(-1)}}},
	}
	_, err := Build(od, matrix.Table{})
	assert.ErrorIs(t, err, graph.ErrNegativeWeight)
}
