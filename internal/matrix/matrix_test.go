package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCell(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Cell
		integer bool
		wantErr bool
	}{
		{name: "blank", raw: "  ", want: BlankCell()},
		{name: "integer", raw: "12", want: Num(12), integer: true},
		{name: "integer written as float", raw: "3.0", want: Num(3), integer: true},
		{name: "fraction", raw: "2.75", want: Num(2.75)},
		{name: "text", raw: "n/a", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCell(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadCell)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.integer, got.Integer())
		})
	}
}

func TestStripSuffix(t *testing.T) {
	assert.Equal(t, "Ameerpet", StripSuffix("Ameerpet m", 2))
	assert.Equal(t, "", StripSuffix("ab", 2))
	assert.Equal(t, "", StripSuffix("a", 2))
	assert.Equal(t, "keep", StripSuffix("keep", 0))
}

func TestTableNamesAndLookup(t *testing.T) {
	tbl := Table{
		Columns: []string{"A m", "B b", ""},
		Rows: []Row{
			{Name: "B b", Cells: []Cell{Num(1), Num(0), BlankCell()}},
			{Name: "C b", Cells: []Cell{Num(7)}},
		},
	}
	assert.Equal(t, []string{"A m", "B b", "C b"}, tbl.Names())

	c, ok := tbl.Lookup("C b")
	require.True(t, ok)
	assert.Equal(t, Num(7), c)

	_, ok = tbl.Lookup("missing")
	assert.False(t, ok)

	assert.True(t, tbl.Cell(1, 2).Blank, "short rows read as blank")
	assert.True(t, tbl.Cell(5, 0).Blank)
}

func TestPairIndex(t *testing.T) {
	tbl := Table{
		Columns: []string{"A m", "B b", "C b"},
		Rows: []Row{
			{Name: "A m", Cells: []Cell{BlankCell(), Num(4), Num(2.5)}},
			{Name: "B b", Cells: []Cell{Num(3), BlankCell(), Num(0)}},
		},
	}
	idx := NewPairIndex(tbl, 2)

	assert.Equal(t, []int{4}, idx.Values("A", "B"))
	assert.Equal(t, []int{3}, idx.Values("B", "A"))
	assert.Equal(t, []int{0}, idx.Values("B", "C"), "zero is a real value")
	assert.Nil(t, idx.Values("A", "C"), "fractional cells are not indexed")
	assert.Nil(t, idx.Values("A", "A"), "blank cells are not indexed")
	assert.Equal(t, 3, idx.Len())
}

func TestPairIndexKeepsDuplicateHeaders(t *testing.T) {
	tbl := Table{
		Columns: []string{"B b", "B m"},
		Rows: []Row{
			{Name: "A m", Cells: []Cell{Num(1), Num(2)}},
		},
	}
	idx := NewPairIndex(tbl, 2)
	assert.Equal(t, []int{1, 2}, idx.Values("A", "B"))
}
