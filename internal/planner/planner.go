// Package planner runs one planning pass: read the sheets, build the stop
// graph, generate routes, size fleets, then export and announce the plan.
package planner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"feedernet/internal/config"
	"feedernet/internal/export"
	"feedernet/internal/fleet"
	"feedernet/internal/graph"
	"feedernet/internal/integrations"
	"feedernet/internal/integrations/csvdir"
	"feedernet/internal/logging"
	"feedernet/internal/metrics"
	"feedernet/internal/model"
	"feedernet/internal/network"
	"feedernet/internal/notify"
	"feedernet/internal/opt"
	"feedernet/internal/store"
)

type Planner struct {
	Config config.Config
	Source integrations.SheetSource
	Store  store.Store
	Broker notify.EventBroker
	Logger *slog.Logger

	now func() time.Time
}

// New wires a planner from cfg. Without a database URL plans are kept in
// memory; without a Redis URL events stay in process.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Planner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	metrics.RegisterDefault()
	var s store.Store
	if strings.TrimSpace(cfg.Store.DatabaseURL) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.Store.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Store.Migrate {
			if err := sp.Migrate(ctx); err != nil {
				logging.SafeCloseWithLogging(sp, logger, "postgres")
				return nil, err
			}
		}
		s = sp
	}

	var broker notify.EventBroker
	if cfg.Notify.RedisURL != "" {
		rb, err := notify.NewRedisBroker(cfg.Notify.RedisURL, logger)
		if err != nil {
			logging.LogError(logger, "redis broker unavailable, using in-process broker", err)
			broker = notify.NewBroker()
		} else {
			broker = rb
		}
	} else {
		broker = notify.NewBroker()
	}

	return &Planner{
		Config: cfg,
		Source: csvdir.Source{Dir: cfg.Input.Dir},
		Store:  s,
		Broker: broker,
		Logger: logger,
	}, nil
}

// Close releases the store and broker connections.
func (p *Planner) Close() error {
	var errs []error
	for _, v := range []any{p.Store, p.Broker} {
		if c, ok := v.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

// Result is everything one run produced.
type Result struct {
	Network      *graph.StopGraph
	Routes       *opt.RouteSet
	RouteMetrics opt.Metrics
	Fleet        *fleet.Plan
	Plan         model.Plan
	NetworkFile  string
	RouteFiles   []string
	PlanFile     string
}

// Run executes one planning pass. Export, store and broker see the plan only
// after both engines have finished.
func (p *Planner) Run(ctx context.Context) (*Result, error) {
	res, err := p.run(logging.WithLogger(ctx, p.Logger))
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.PlanRuns.WithLabelValues(status).Inc()
	if path := p.Config.Output.MetricsFile; path != "" {
		if werr := metrics.WriteTextfile(path); werr != nil {
			logging.LogError(p.Logger, "write metrics", werr, slog.String("path", path))
		}
	}
	return res, err
}

func (p *Planner) run(ctx context.Context) (*Result, error) {
	cfg := p.Config
	logger := logging.FromContext(ctx).With(slog.String("network", cfg.Network))
	res := &Result{}

	var sheets integrations.Sheets
	err := p.stage(logger, "ingest", func() (err error) {
		sheets, err = integrations.FetchAll(ctx, p.Source, integrations.SheetNames{
			OD:           cfg.Input.MatrixSheet,
			Demand:       cfg.Input.DemandSheet,
			TravelDemand: cfg.Input.TravelDemandSheet,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(logger, "build", func() (err error) {
		res.Network, err = network.Build(sheets.OD, sheets.Demand)
		if err == nil {
			logging.LogOperation(logger, "stop graph built",
				slog.Int("stations", res.Network.Order()),
				slog.Int("connections", res.Network.Size()))
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(logger, "generate", func() (err error) {
		gen := opt.NewGenerator(cfg.RouteConfig(), logger)
		res.Routes, res.RouteMetrics, err = gen.Generate(ctx, res.Network)
		if err == nil {
			metrics.ObserveRoutes(res.Routes, res.RouteMetrics)
			logging.LogOperation(logger, "routes generated", res.RouteMetrics.Attrs()...)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(logger, "fleet", func() (err error) {
		engine := fleet.NewEngine(cfg.FleetConfig(), sheets.TravelDemand, logger)
		engine.OnUnmatched(metrics.CountUnmatched)
		res.Fleet, err = engine.Compute(res.Routes)
		if err == nil {
			metrics.ObservePlan(res.Fleet)
			logging.LogOperation(logger, "fleet sized",
				slog.Int("routes", len(res.Fleet.Routes)),
				slog.Int("total_fleet", res.Fleet.TotalFleet),
				slog.Int("unmatched_lookups", res.Fleet.UnmatchedLookups))
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	now := time.Now
	if p.now != nil {
		now = p.now
	}
	res.Plan = model.NewPlan(cfg.Network, res.Routes, res.Fleet, now())

	if dir := cfg.Output.Dir; dir != "" {
		err = p.stage(logger, "export", func() (err error) {
			res.NetworkFile = filepath.Join(dir, "network.graphml")
			if err = export.WriteGraphMLFile(res.NetworkFile, res.Network); err != nil {
				return err
			}
			res.RouteFiles, err = export.WriteRoutes(filepath.Join(dir, "routes"), res.Routes)
			if err != nil {
				return err
			}
			res.PlanFile = filepath.Join(dir, "plan.json")
			return export.WritePlanFile(res.PlanFile, res.Plan)
		})
		if err != nil {
			return nil, err
		}
	}

	err = p.stage(logger, "store", func() error { return p.Store.SavePlan(ctx, res.Plan) })
	if err != nil {
		return nil, err
	}
	p.Broker.Publish(notify.PlanTopic(cfg.Network), notify.PlanCompleted(res.Plan.Summary()))

	logging.LogOperation(logger, "plan completed",
		slog.String("plan_id", res.Plan.ID),
		slog.Int("total_fleet", res.Plan.TotalFleet))
	return res, nil
}

// stage times fn and logs its failure with the stage name.
func (p *Planner) stage(logger *slog.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.ObserveStage(name, time.Since(start))
	if err != nil {
		logging.LogError(logger, "planning stage failed", err, slog.String("stage", name))
		return err
	}
	return nil
}
