// Package matrix models a named two dimensional sheet: a header row of
// column names and rows that start with a row name.
package matrix

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrBadCell = errors.New("bad cell")

// Cell is one value of a sheet. Blank cells carry no value.
type Cell struct {
	Value float64
	Blank bool
}

// Integer reports whether the cell holds a whole number.
func (c Cell) Integer() bool {
	return !c.Blank && !math.IsInf(c.Value, 0) && c.Value == math.Trunc(c.Value)
}

func Num(v float64) Cell { return Cell{Value: v} }

func BlankCell() Cell { return Cell{Blank: true} }

// ParseCell reads a spreadsheet cell rendered as text.
func ParseCell(raw string) (Cell, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return BlankCell(), nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Cell{}, fmt.Errorf("%q: %w", raw, ErrBadCell)
	}
	return Num(v), nil
}

type Row struct {
	Name  string
	Cells []Cell
}

// Table is a sheet. Columns holds the header names without the corner cell,
// so Rows[i].Cells[j] belongs to Columns[j].
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// Cell returns the cell at row i, column j; out of range cells are blank.
func (t Table) Cell(i, j int) Cell {
	if i < 0 || i >= len(t.Rows) || j < 0 || j >= len(t.Rows[i].Cells) {
		return BlankCell()
	}
	return t.Rows[i].Cells[j]
}

// Names returns column headers then row names, each name once, in first-seen
// order. Empty names are skipped.
func (t Table) Names() []string {
	seen := map[string]bool{}
	var out []string
	add := func(n string) {
		if n == "" || seen[n] {
			return
		}
		seen[n] = true
		out = append(out, n)
	}
	for _, c := range t.Columns {
		add(c)
	}
	for _, r := range t.Rows {
		add(r.Name)
	}
	return out
}

// Lookup returns the first cell of the row whose name is name.
func (t Table) Lookup(name string) (Cell, bool) {
	for _, r := range t.Rows {
		if r.Name == name {
			if len(r.Cells) == 0 {
				return BlankCell(), true
			}
			return r.Cells[0], true
		}
	}
	return Cell{}, false
}

// StripSuffix drops the last n characters of a header name, the sheet's kind
// marker such as " b" or " m". Names no longer than n become empty.
func StripSuffix(name string, n int) string {
	if n <= 0 {
		return name
	}
	r := []rune(name)
	if len(r) <= n {
		return ""
	}
	return string(r[:len(r)-n])
}

type pair struct{ from, to string }

// PairIndex answers (source, destination) lookups over a table whose headers
// carry a fixed-length suffix. Only whole-number cells are indexed.
type PairIndex struct {
	cells map[pair][]int
}

// NewPairIndex indexes t with headers stripped of suffixLen characters. When
// several headers strip to the same name every matching cell is kept, column
// by column, in sheet order.
func NewPairIndex(t Table, suffixLen int) *PairIndex {
	idx := &PairIndex{cells: map[pair][]int{}}
	for j, col := range t.Columns {
		to := StripSuffix(col, suffixLen)
		for i, row := range t.Rows {
			c := t.Cell(i, j)
			if !c.Integer() {
				continue
			}
			k := pair{from: StripSuffix(row.Name, suffixLen), to: to}
			idx.cells[k] = append(idx.cells[k], int(c.Value))
		}
	}
	return idx
}

// Values returns the indexed cells for from -> to, nil when none matched.
func (p *PairIndex) Values(from, to string) []int {
	return p.cells[pair{from: from, to: to}]
}

func (p *PairIndex) Len() int { return len(p.cells) }
