package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daikurogo/ipywidgets/api"
	"github.com/daikurogo/ipywidgets/api/defaults"
	"github.com/daikurogo/ipywidgets/api/models"
	"github.com/daikurogo/ipywidgets/notify"
	"github.com/daikurogo/ipywidgets/tool"
	"github.com/daikurogo/ipywidgets/widget"
)

// DefaultControlID is the id of the control created at startup.
const DefaultControlID = "default"

func main() {
	cfg := tool.SetFlags()

	// initialize logger
	tool.InitLogger()
	tool.SetLogMode(cfg.Log)

	appCfg, err := tool.LoadConfig(cfg.UseConfigPath)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	tool.ApplyFlagOverrides(&appCfg, cfg)
	tool.CurrentConfig = appCfg

	if cfg.SkipNotify {
		notify.SetUseNotify(false)
	}
	if appCfg.NotifySocket != "" {
		notify.DefaultUnixSocketPath = appCfg.NotifySocket
	}

	if appCfg.PickDir != "" {
		if err := os.MkdirAll(appCfg.PickDir, 0o755); err != nil {
			tool.DefaultLogger.Warnf("Failed to create pick directory %s: %v", appCfg.PickDir, err)
		}
	}

	models.OnRegister(defaults.Install)
	fu, err := widget.NewFileUploadFromConfig(DefaultControlID, appCfg, widget.WithMetrics(widget.DefaultMetrics()))
	if err != nil {
		tool.DefaultLogger.Fatalf("Failed to create upload control: %v", err)
	}
	models.RegisterControl(fu)

	apiServer := api.NewServer(appCfg.Port, appCfg.Protocol)
	go func() {
		if err := apiServer.Start(); err != nil {
			tool.DefaultLogger.Fatalf("API server startup failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	tool.DefaultLogger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		tool.DefaultLogger.Errorf("API server shutdown failed: %v", err)
	}
	models.ResetControls()
}
