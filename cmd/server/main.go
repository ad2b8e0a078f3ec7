// Command server runs the fraud decision gateway: the real-time decision
// API, the analyst review surface, and the audit trail, wired per the
// process configuration. Business logic lives in the internal services.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"fraudshield/internal/agent"
	agentmetrics "fraudshield/internal/agent/metrics"
	"fraudshield/internal/analyst"
	analystmetrics "fraudshield/internal/analyst/metrics"
	"fraudshield/internal/audit"
	auditmetrics "fraudshield/internal/audit/metrics"
	"fraudshield/internal/knowledge"
	"fraudshield/internal/orchestrator"
	orchestratormetrics "fraudshield/internal/orchestrator/metrics"
	"fraudshield/internal/platform/config"
	"fraudshield/internal/platform/httpserver"
	"fraudshield/internal/platform/logger"
	"fraudshield/internal/platform/middleware"
	"fraudshield/internal/platform/redis"
	"fraudshield/internal/signal"
	signalmetrics "fraudshield/internal/signal/metrics"
	"fraudshield/internal/storage"
	httptransport "fraudshield/internal/transport/http"
	"fraudshield/internal/velocity"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("FRAUDSHIELD_CONFIG")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.New()

	snapshots := config.NewStore(cfg)
	runtime, err := orchestrator.NewRuntime(snapshots.Current())
	if err != nil {
		return fmt.Errorf("compile initial configuration: %w", err)
	}

	// Velocity tracker: redis when configured, in-process otherwise.
	var tracker velocity.Tracker = velocity.NewMemoryTracker()
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		tracker = velocity.NewRedisTracker(redisClient.Client)
		log.Info("velocity tracker using redis")
	}

	// Scoring collaborators: remote when configured, bundled local models
	// otherwise.
	var ensemble, anomaly signal.Scorer
	if cfg.Scoring.EnsembleURL != "" {
		ensemble = signal.NewHTTPScorer(cfg.Scoring.EnsembleURL)
	} else {
		ensemble = signal.NewLocalEnsembleScorer()
	}
	if cfg.Scoring.AnomalyURL != "" {
		anomaly = signal.NewHTTPScorer(cfg.Scoring.AnomalyURL)
	} else {
		anomaly = signal.NewLocalAnomalyScorer()
	}
	adapter := signal.NewAdapter(ensemble, anomaly, log, signalmetrics.New())

	auditStore, err := newAuditStore(cfg.Audit)
	if err != nil {
		return err
	}
	defer auditStore.Close()
	recorder := audit.NewRecorder(auditStore, log, auditmetrics.New(), audit.RecorderOptions{
		QueueSize:   cfg.Audit.QueueSize,
		BackoffBase: cfg.Audit.RetryBackoff,
	})

	agentM := agentmetrics.New()
	coordinator := agent.NewCoordinator(
		knowledge.NewStaticIndex(),
		[]agent.Agent{
			agent.NewExplanationAgent(agent.NewTemplateGenerator()),
			agent.NewAnalystAssistAgent(),
			agent.NewDriftMonitorAgent(agentM),
		},
		log,
		agentM,
	)

	decisions := storage.NewMemoryDecisionStore()
	explanations := storage.NewMemoryExplanationStore()
	actions := storage.NewMemoryAnalystActionStore()

	svc := orchestrator.NewService(
		runtime, tracker, adapter, coordinator,
		decisions, explanations, recorder,
		log, orchestratormetrics.New(),
	)
	analystSvc := analyst.NewService(decisions, actions, svc, log, analystmetrics.New())

	handler := httptransport.New(svc, analystSvc, explanations,
		middleware.NewHMACValidator(cfg.Server.JWTSigningKey), log)
	srv := httpserver.New(cfg.Server.Addr, httptransport.NewRouter(handler, log))

	ctx, stop := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := recorder.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		log.Info("server starting", "addr", cfg.Server.Addr, "config_version", snapshots.Current().Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		reloadLoop(gctx, configPath, snapshots, svc, log)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		svc.Wait()
		return nil
	})

	return g.Wait()
}

// reloadLoop applies SIGHUP configuration reloads. A reload that fails to
// load or compile is rejected; the active runtime stays in place.
func reloadLoop(ctx context.Context, path string, snapshots *config.Store, svc *orchestrator.Service, log *slog.Logger) {
	hup := make(chan os.Signal, 1)
	ossignal.Notify(hup, syscall.SIGHUP)
	defer ossignal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			cfg, err := config.Load(path)
			if err != nil {
				log.Error("config reload rejected", "error", err)
				continue
			}
			snap := snapshots.Next(cfg)
			runtime, err := orchestrator.NewRuntime(snap)
			if err != nil {
				log.Error("config reload rejected", "error", err)
				continue
			}
			snapshots.Install(snap)
			svc.Swap(runtime)
			log.Info("config reloaded", "version", snap.Version,
				"rule_set", cfg.Policy.RuleSetVersion)
		}
	}
}

func newAuditStore(cfg config.Audit) (audit.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	switch cfg.Backend {
	case "postgres":
		return audit.NewPostgresStore(ctx, cfg.PostgresDSN)
	case "kafka":
		return audit.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
	default:
		return audit.NewMemoryStore(), nil
	}
}
