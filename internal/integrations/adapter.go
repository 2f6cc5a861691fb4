// Package integrations defines where planner input sheets come from.
package integrations

import (
	"context"
	"fmt"

	"feedernet/internal/matrix"
)

// SheetSource fetches named sheets of the input workbook.
type SheetSource interface {
	Name() string
	FetchSheet(ctx context.Context, sheet string) (matrix.Table, error)
}

// Sheets are the three inputs of one planning run.
type Sheets struct {
	OD           matrix.Table // distances between stations, km
	Demand       matrix.Table // station name, demand
	TravelDemand matrix.Table // passengers between stations
}

// SheetNames maps each input to its sheet name in the source.
type SheetNames struct {
	OD           string
	Demand       string
	TravelDemand string
}

func DefaultSheetNames() SheetNames {
	return SheetNames{OD: "Matrix", Demand: "Demand at each node", TravelDemand: "Travel Demand Matrix"}
}

// FetchAll reads the three sheets from src. Errors name the sheet.
func FetchAll(ctx context.Context, src SheetSource, names SheetNames) (Sheets, error) {
	var out Sheets
	for _, s := range []struct {
		name string
		dst  *matrix.Table
	}{
		{names.OD, &out.OD},
		{names.Demand, &out.Demand},
		{names.TravelDemand, &out.TravelDemand},
	} {
		t, err := src.FetchSheet(ctx, s.name)
		if err != nil {
			return Sheets{}, fmt.Errorf("fetch sheet %q from %s: %w", s.name, src.Name(), err)
		}
		*s.dst = t
	}
	return out, nil
}
