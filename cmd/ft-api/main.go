package main

import (
	"FlowTagger/internal/api"
	"FlowTagger/internal/config"
	"FlowTagger/internal/logger"
	"FlowTagger/internal/pipeline"
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var log = logger.MustGetLogger("ft-api")

func main() {
	var configPath string
	cmd := &cobra.Command{
		Use:          "ft-api",
		Short:        "Serve flow-log classification over HTTP",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to the YAML config file")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := logger.InitLog(cfg.Log); err != nil {
		return err
	}

	// Tables are loaded once and shared read-only by every request.
	tables, err := pipeline.LoadTables(cfg)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:    cfg.API.ListenAddr,
		Handler: api.NewRouter(api.NewHandler(tables, cfg)),
	}

	go func() {
		log.Infof("API server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", server.Addr, err)
		}
	}()

	if cfg.API.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.API.GRPCAddr)
		if err != nil {
			return err
		}
		grpcServer, _ := api.NewGRPCServer()
		go func() {
			log.Infof("gRPC health service starting on %s", cfg.API.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				log.Errorf("gRPC server stopped: %v", err)
			}
		}()
		defer grpcServer.GracefulStop()
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("API server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	log.Info("API server exited gracefully")
	return nil
}
