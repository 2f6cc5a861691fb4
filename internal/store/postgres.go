package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"feedernet/internal/logging"
	"feedernet/internal/model"
)

// uniqueViolation is the Postgres error code for a duplicate key.
const uniqueViolation = "23505"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS feeder_plans (
		id uuid PRIMARY KEY,
		network text NOT NULL,
		created_at timestamptz NOT NULL,
		route_count integer NOT NULL,
		total_fleet integer NOT NULL,
		unmatched_lookups integer NOT NULL,
		over_fleet_limit boolean NOT NULL,
		doc jsonb NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS feeder_plans_network_created_idx ON feeder_plans (network, created_at, id)`,
	`CREATE TABLE IF NOT EXISTS feeder_plan_routes (
		id uuid PRIMARY KEY,
		plan_id uuid NOT NULL REFERENCES feeder_plans(id) ON DELETE CASCADE,
		seq integer NOT NULL,
		origin text NOT NULL,
		stops text[],
		length_km double precision NOT NULL,
		headway_h double precision,
		fleet_size integer,
		adjusted_fleet_size integer
	)`,
	`CREATE INDEX IF NOT EXISTS feeder_plan_routes_plan_idx ON feeder_plan_routes (plan_id, seq)`,
}

type Postgres struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgres(dsn string, logger *slog.Logger) (*Postgres, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		logging.SafeCloseWithLogging(db, logger, "postgres ping")
		return nil, err
	}
	return &Postgres{db: db, logger: logger}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

// Migrate creates the plan tables when they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SavePlan stores the plan document and one row per route in a single
// transaction.
func (p *Postgres) SavePlan(ctx context.Context, plan model.Plan) error {
	doc, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer logging.SafeRollbackWithLogging(tx, p.logger, "save plan")

	_, err = tx.ExecContext(ctx, `INSERT INTO feeder_plans (id, network, created_at, route_count, total_fleet, unmatched_lookups, over_fleet_limit, doc) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		plan.ID, plan.Network, plan.CreatedAt, len(plan.Routes), plan.TotalFleet, plan.UnmatchedLookups, plan.OverFleetLimit, doc)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return err
	}
	for _, r := range routeRows(plan) {
		_, err = tx.ExecContext(ctx, `INSERT INTO feeder_plan_routes (id, plan_id, seq, origin, stops, length_km, headway_h, fleet_size, adjusted_fleet_size) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			r.id, plan.ID, r.seq, r.origin, pqStringArray(r.stops), r.lengthKm, r.headway, r.fleet, r.adjustedFleet)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (p *Postgres) GetPlan(ctx context.Context, id string) (model.Plan, error) {
	var doc []byte
	err := p.db.QueryRowContext(ctx, `SELECT doc FROM feeder_plans WHERE id::text=$1`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Plan{}, ErrNotFound
	}
	if err != nil {
		return model.Plan{}, err
	}
	var plan model.Plan
	if err := json.Unmarshal(doc, &plan); err != nil {
		return model.Plan{}, err
	}
	return plan, nil
}

func (p *Postgres) ListPlans(ctx context.Context, network, cursor string, limit int) ([]model.Summary, string, error) {
	limit = clampLimit(limit)
	query, args := listQuery(network, cursor, limit)
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", err
	}
	defer logging.SafeCloseWithLogging(rows, p.logger, "list plans")

	out := []model.Summary{}
	var last string
	for rows.Next() {
		var s model.Summary
		if err := rows.Scan(&s.ID, &s.Network, &s.CreatedAt, &s.Routes, &s.TotalFleet); err != nil {
			return nil, "", err
		}
		out = append(out, s)
		last = s.ID
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	var next string
	if len(out) == limit {
		next = last
	}
	return out, next, nil
}

// listQuery pages by (created_at, id) after the cursor plan.
func listQuery(network, cursor string, limit int) (string, []any) {
	var where []string
	var args []any
	if network != "" {
		args = append(args, network)
		where = append(where, fmt.Sprintf("network=$%d", len(args)))
	}
	if cursor != "" {
		args = append(args, cursor)
		where = append(where, fmt.Sprintf("(created_at, id) > (SELECT created_at, id FROM feeder_plans WHERE id::text=$%d)", len(args)))
	}
	q := `SELECT id::text, network, created_at, route_count, total_fleet FROM feeder_plans`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY created_at, id LIMIT $%d", len(args))
	return q, args
}

type routeRow struct {
	id            string
	seq           int
	origin        string
	stops         []string
	lengthKm      float64
	headway       any
	fleet         any
	adjustedFleet any
}

// routeRows flattens the routes of plan. Sizing columns are NULL for routes
// without a fleet.
func routeRows(plan model.Plan) []routeRow {
	out := make([]routeRow, 0, len(plan.Routes))
	for i, r := range plan.Routes {
		row := routeRow{id: r.ID, seq: i, origin: r.Origin.Name, lengthKm: r.LengthKm}
		for _, s := range r.Stops {
			row.stops = append(row.stops, s.Name)
		}
		if r.Sizing != nil {
			row.headway = r.Sizing.Headway
			row.fleet = r.Sizing.FleetSize
			row.adjustedFleet = r.Sizing.AdjustedFleetSize
		}
		out = append(out, row)
	}
	return out
}

func pqStringArray(v []string) any {
	if len(v) == 0 {
		return nil
	}
	return v
}
