package main

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/missiondeck/missiondeck/internal/canvas"
	"github.com/missiondeck/missiondeck/internal/config"
	"github.com/missiondeck/missiondeck/internal/logging"
	"github.com/missiondeck/missiondeck/internal/mediator"
	"github.com/missiondeck/missiondeck/internal/orchestrator"
	"github.com/missiondeck/missiondeck/internal/remote"
	"github.com/missiondeck/missiondeck/internal/simbackend"
	"github.com/missiondeck/missiondeck/internal/store"
	"github.com/missiondeck/missiondeck/internal/tui"
)

var useRemote bool

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive console",
	Long:  `Launches the console against an in-process simulation, or against a running daemon with --remote.`,
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().BoolVar(&useRemote, "remote", false, "Attach to the daemon instead of running a local simulation")
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithPath(configPath)
	if err != nil {
		return err
	}

	// The alternate screen owns the terminal; anything zap writes to stderr
	// would tear it. Log to a file instead.
	logCfg := cfg.Logging
	if logCfg.OutputPath == "" || logCfg.OutputPath == "stderr" || logCfg.OutputPath == "stdout" {
		logCfg.OutputPath = "missiondeck.log"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var med mediator.Mediator
	if useRemote {
		if !isDaemonRunning(apiAddr) {
			fmt.Println("Daemon not running. Starting background service...")
			if err := startDaemon(); err != nil {
				return fmt.Errorf("failed to start daemon: %w", err)
			}
		}
		client := remote.New(apiAddr, logger.Named("remote"))
		defer client.Close()
		med = client
	} else {
		st, err := store.New(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		med = simbackend.New(st, logger.Named("sim"))
	}

	app := tui.New(med, orchestrator.Config{
		RefreshInterval: cfg.UI.RefreshInterval(),
		StepInterval:    cfg.UI.StepInterval(),
	}, canvas.ZoomRange{Min: cfg.UI.ZoomMin, Max: cfg.UI.ZoomMax})
	if err := app.Run(); err != nil {
		return fmt.Errorf("console error: %w", err)
	}
	return nil
}

func isDaemonRunning(addr string) bool {
	client := http.Client{Timeout: 500 * time.Millisecond}
	resp, err := client.Get(addr + "/health")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func startDaemon() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}

	cmd := exec.Command(exe, "daemon")
	// Detach so the daemon survives console exit.
	configureDaemonProc(cmd)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return err
	}

	fmt.Print("   Waiting for daemon...")
	for i := 0; i < 20; i++ {
		if isDaemonRunning(apiAddr) {
			fmt.Println(" done.")
			return nil
		}
		time.Sleep(250 * time.Millisecond)
		fmt.Print(".")
	}
	fmt.Println(" timeout.")
	return fmt.Errorf("daemon started but API not reachable at %s", apiAddr)
}
