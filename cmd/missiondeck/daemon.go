package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/missiondeck/missiondeck/internal/config"
	"github.com/missiondeck/missiondeck/internal/controlplane"
	"github.com/missiondeck/missiondeck/internal/logging"
	"github.com/missiondeck/missiondeck/internal/simbackend"
	"github.com/missiondeck/missiondeck/internal/store"
)

var (
	listenAddr string
	dbPath     string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the missiondeck daemon",
	Long:  `Starts the missiondeck daemon: the simulation backend behind an HTTP and websocket API that remote consoles attach to.`,
	RunE:  runDaemon,
}

func init() {
	daemonCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address, overrides server config")
	daemonCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path, overrides database config")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithPath(configPath)
	if err != nil {
		return err
	}
	if listenAddr == "" {
		listenAddr = cfg.Server.Addr()
	}
	if dbPath == "" {
		dbPath = cfg.Database.Path
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("starting missiondeck daemon",
		zap.String("listen", listenAddr),
		zap.String("db", dbPath))

	st, err := store.New(dbPath)
	if err != nil {
		return err
	}

	backend := simbackend.New(st, logger.Named("sim"))
	server := controlplane.NewServer(backend, listenAddr, logger.Named("http"))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		err := server.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", zap.Stringer("signal", sig))
	case err := <-serverErr:
		if err != nil {
			logger.Error("server error", zap.Error(err))
			st.Close()
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}
	if err := st.Close(); err != nil {
		logger.Error("database close error", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}
