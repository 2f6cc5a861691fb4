// Package csvdir reads input sheets exported as CSV files, one file per
// sheet.
package csvdir

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"feedernet/internal/matrix"
)

// Source reads <Dir>/<sheet>.csv.
type Source struct {
	Dir string
}

func (s Source) Name() string { return "csv:" + s.Dir }

func (s Source) FetchSheet(ctx context.Context, sheet string) (matrix.Table, error) {
	if err := ctx.Err(); err != nil {
		return matrix.Table{}, err
	}
	f, err := os.Open(filepath.Join(s.Dir, sheet+".csv"))
	if err != nil {
		return matrix.Table{}, err
	}
	defer f.Close()
	t, err := Parse(f)
	if err != nil {
		return matrix.Table{}, err
	}
	t.Name = sheet
	return t, nil
}

// Parse reads a sheet. The first record is the header row and its first
// field the corner cell; every later record starts with its row name. Rows
// may be ragged.
func Parse(r io.Reader) (matrix.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var t matrix.Table
	header, err := cr.Read()
	if err == io.EOF {
		return t, nil
	}
	if err != nil {
		return t, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
		t.Columns = trimAll(header[1:])
	}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return t, nil
		}
		if err != nil {
			return t, err
		}
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		row := matrix.Row{Name: strings.TrimSpace(rec[0])}
		for col, raw := range rec[1:] {
			c, err := matrix.ParseCell(raw)
			if err != nil {
				return t, fmt.Errorf("line %d column %d: %w", line, col+2, err)
			}
			row.Cells = append(row.Cells, c)
		}
		t.Rows = append(t.Rows, row)
	}
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}
