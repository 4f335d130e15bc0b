package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"fleetops/internal/adapters/export"
	httpadapter "fleetops/internal/adapters/http"
	"fleetops/internal/adapters/llm"
	"fleetops/internal/adapters/objectstore"
	pg "fleetops/internal/adapters/postgres"
	"fleetops/internal/config"
	"fleetops/internal/logging"
	"fleetops/internal/ports"
	"fleetops/internal/services/auditlog"
	"fleetops/internal/services/compliance"
	"fleetops/internal/services/dashboard"
	"fleetops/internal/services/documents"
	"fleetops/internal/services/drones"
	"fleetops/internal/services/finance"
	"fleetops/internal/services/scheduler"
)

// app holds the wired process: config, logger, database and services.
type app struct {
	cfg config.Config
	log *zap.Logger
	db  *pg.DB
	svc httpadapter.Services
}

// newApp loads configuration and connects to Postgres. Services are wired
// only when withServices is set.
func newApp(ctx context.Context, withServices bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for Postgres adapters")
	}
	log, err := logging.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	db, err := pg.Connect(ctx, cfg.DatabaseURL, 0)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("db connect error: %w", err)
	}
	a := &app{cfg: cfg, log: log, db: db}
	if withServices {
		if err := a.wire(ctx); err != nil {
			a.close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	rules := scheduler.DefaultRules()
	if a.cfg.SchedulerRules != "" {
		r, err := scheduler.LoadRules(a.cfg.SchedulerRules)
		if err != nil {
			return err
		}
		rules = r
	}

	var assistant ports.Assistant = llm.Disabled{}
	if a.cfg.GeminiAPIKey != "" {
		g, err := llm.NewGemini(ctx, a.cfg.GeminiAPIKey, a.cfg.GeminiModel, a.log.Named("llm"))
		if err != nil {
			return err
		}
		assistant = g
	} else {
		a.log.Info("GEMINI_API_KEY not set, assistant features use heuristic fallbacks")
	}

	var store ports.ObjectStore = objectstore.Unconfigured{}
	if a.cfg.S3Bucket != "" {
		s3, err := objectstore.NewS3(ctx, objectstore.Options{
			Bucket:   a.cfg.S3Bucket,
			Region:   a.cfg.S3Region,
			Endpoint: a.cfg.S3Endpoint,
		})
		if err != nil {
			return err
		}
		store = s3
	} else {
		a.log.Warn("S3_BUCKET not set, document uploads are disabled")
	}

	audit := auditlog.New(a.db, a.log.Named("auditlog"))
	comp := compliance.New(a.db, a.db, a.db, assistant, audit, a.log.Named("compliance"), a.cfg.ExpiryWarnDays)
	dr := drones.New(a.db, audit, a.log.Named("drones"))
	fin := finance.New(a.db, audit, a.log.Named("finance"), export.CSV{}, export.PDF{Company: "Fleet Operations"})
	sched := scheduler.New(a.db, a.db, a.db, assistant, audit, a.log.Named("scheduler"), rules)

	a.svc = httpadapter.Services{
		Compliance: comp,
		Documents:  documents.New(a.db, store, audit, a.log.Named("documents"), a.cfg.PresignTTL),
		Drones:     dr,
		Finance:    fin,
		Scheduler:  sched,
		AuditLog:   audit,
		Dashboard:  dashboard.New(comp, dr, fin, sched, a.log.Named("dashboard"), a.cfg.ExpiryWarnDays),
	}
	return nil
}

func (a *app) close() {
	a.db.Close()
	_ = a.log.Sync()
}
