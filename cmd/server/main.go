package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"quorum/internal/platform/config"
	"quorum/internal/platform/httpserver"
	"quorum/internal/platform/logger"
	"quorum/internal/platform/metrics"
	"quorum/internal/registry/analysis"
	"quorum/internal/registry/certifier"
	"quorum/internal/registry/exporter"
	"quorum/internal/registry/resolver"
	entitystore "quorum/internal/registry/store/entity"
	envelopestore "quorum/internal/registry/store/envelope"
	ledgerstore "quorum/internal/registry/store/ledger"
	minutebookstore "quorum/internal/registry/store/minutebook"
	verifiedstore "quorum/internal/registry/store/verified"
	"quorum/internal/storage/object"
	httptransport "quorum/internal/transport/http"
	audit "quorum/pkg/platform/audit"
	auditpublisher "quorum/pkg/platform/audit/publisher"
	auditkafka "quorum/pkg/platform/audit/store/kafka"
	auditmemory "quorum/pkg/platform/audit/store/memory"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal/registry services.
func main() {
	cfg := config.FromEnv()
	log := logger.New(slog.LevelInfo)
	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	objects, err := object.NewS3Store(ctx, object.S3Config{
		Region:   cfg.StorageRegion,
		Endpoint: cfg.StorageEndpoint,
	})
	if err != nil {
		log.Error("init object store", "error", err)
		os.Exit(1)
	}

	// Audit sink: Kafka when brokers are configured, in-memory otherwise.
	var auditStore audit.Store = auditmemory.NewInMemoryStore()
	if len(cfg.KafkaBrokers) > 0 {
		kafkaStore, err := auditkafka.New(cfg.KafkaBrokers, cfg.KafkaAuditTopic, log)
		if err != nil {
			log.Error("init kafka audit store", "error", err)
			os.Exit(1)
		}
		defer kafkaStore.Close()
		auditStore = kafkaStore
	}
	publisher := auditpublisher.New(auditStore, auditpublisher.WithLogger(log))
	defer publisher.Close()

	ledgers := ledgerstore.NewPostgres(db)
	entities := entitystore.NewPostgres(db)
	envelopes := envelopestore.NewPostgres(db)
	minuteBook := minutebookstore.NewPostgres(db)
	verified := verifiedstore.NewPostgres(db)

	resolverSvc, err := resolver.New(ledgers, entities, envelopes, minuteBook, verified,
		resolver.WithLogger(log),
		resolver.WithAuditPublisher(publisher))
	if err != nil {
		log.Error("init resolver", "error", err)
		os.Exit(1)
	}

	certifierOpts := []certifier.Option{
		certifier.WithLogger(log),
		certifier.WithAuditPublisher(publisher),
	}
	if analyzer := analysis.NewClient(cfg.AnalysisEndpoint); analyzer != nil {
		certifierOpts = append(certifierOpts, certifier.WithAnalyzer(analyzer))
	}
	certifierSvc, err := certifier.New(ledgers, verified, objects, resolverSvc, certifierOpts...)
	if err != nil {
		log.Error("init certifier", "error", err)
		os.Exit(1)
	}

	exporterSvc, err := exporter.New(resolverSvc, objects,
		exporter.WithLogger(log),
		exporter.WithAuditPublisher(publisher))
	if err != nil {
		log.Error("init exporter", "error", err)
		os.Exit(1)
	}

	handler := httptransport.NewHandler(
		resolverSvc, certifierSvc, exporterSvc,
		metrics.New(), log, cfg.VerifyBaseURL)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	log.Info("starting quorum registry", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
