package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apiserver "github.com/formweave/extraction-planner/internal/api_server"
	"github.com/formweave/extraction-planner/internal/config"
	"github.com/formweave/extraction-planner/internal/extraction"
	"github.com/formweave/extraction-planner/internal/extraction/hazardreport"
	"github.com/formweave/extraction-planner/internal/llm"
	"github.com/formweave/extraction-planner/internal/service"
	"github.com/formweave/extraction-planner/internal/store"
	"github.com/formweave/extraction-planner/pkg/log"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the extraction api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			zap.S().Fatalw("reading configuration", "error", err)
		}

		logger := log.InitLog(cfg.Service.LogLevel)
		defer func() { _ = logger.Sync() }()

		zap.S().Info("Starting extraction API service")
		defer zap.S().Info("Extraction API service stopped")

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if err := s.InitialMigration(); err != nil {
			zap.S().Fatalw("running initial migration", "error", err)
		}

		client, err := llm.NewClient(llm.Options{
			Model:       cfg.LLM.Model,
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		})
		if err != nil {
			zap.S().Fatalw("creating llm client", "error", err)
		}

		registry := extraction.NewRegistry()
		if err := hazardreport.Register(registry, client); err != nil {
			zap.S().Fatalw("registering form executors", "error", err)
		}

		extractionSrv := service.NewExtractionService(registry)
		taskSrv, err := service.NewTaskService(s, extractionSrv, cfg.Service.QueueDepth, cfg.Service.TaskTTL)
		if err != nil {
			zap.S().Fatalw("creating task service", "error", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		if err := taskSrv.Start(ctx, cfg.Service.Workers); err != nil {
			zap.S().Fatalw("starting task workers", "error", err)
		}
		defer taskSrv.Stop()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			server := apiserver.New(cfg, extractionSrv, taskSrv, listener)
			if err := server.Run(ctx); err != nil {
				zap.S().Fatalw("running api server", "error", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				zap.S().Fatalw("creating metrics listener", "error", err)
			}

			metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener)
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Fatalw("running metrics server", "error", err)
			}
		}()

		<-ctx.Done()
		return nil
	},
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
