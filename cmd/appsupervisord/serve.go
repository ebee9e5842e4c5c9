package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/oxideapps/appsupervisor/internal/audit"
	"github.com/oxideapps/appsupervisor/internal/cgroupfreezer"
	"github.com/oxideapps/appsupervisor/internal/config"
	"github.com/oxideapps/appsupervisor/internal/logger"
	"github.com/oxideapps/appsupervisor/internal/mac"
	"github.com/oxideapps/appsupervisor/internal/metrics"
	"github.com/oxideapps/appsupervisor/internal/reslimit"
	"github.com/oxideapps/appsupervisor/internal/runner"
	"github.com/oxideapps/appsupervisor/internal/sandbox"
	"github.com/oxideapps/appsupervisor/internal/signals"
	"github.com/oxideapps/appsupervisor/internal/supervisor"
	"github.com/oxideapps/appsupervisor/internal/timer"
	"github.com/oxideapps/appsupervisor/internal/tracing"
	"github.com/oxideapps/appsupervisor/internal/userprovision"
	"github.com/oxideapps/appsupervisor/internal/watchdog"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the supervisor daemon",
	Long:  `Load the daemon config and apps tree, then supervise every declared app until a shutdown signal arrives.`,
	Run:   runServe,
}

const defaultCgroupRoot = "/sys/fs/cgroup/legato"

func runServe(cmd *cobra.Command, args []string) {
	if cfgFile != "" {
		os.Setenv(config.DaemonConfigEnv, cfgFile)
	}

	cfg, err := config.LoadDaemonConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load daemon config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	log.Info("appsupervisord starting", "pid", os.Getpid(), "apps_config", cfg.AppsConfigPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracingProvider, err := tracing.NewProvider(ctx, tracing.TracerConfig{
		Enabled:     cfg.Tracing.Enabled,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRate:  cfg.Tracing.SampleRate,
		ServiceName: "appsupervisord",
		Version:     version,
		UseTLS:      cfg.Tracing.UseTLS,
	}, log)
	if err != nil {
		log.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracing shutdown error", "error", err)
		}
	}()

	auditLogger := audit.NewLogger(log, cfg.Audit.Enabled)
	auditLogger.LogSystemStart(version)

	tree, err := config.LoadFile(cfg.AppsConfigPath)
	if err != nil {
		log.Error("failed to load apps config", "path", cfg.AppsConfigPath, "error", err)
		os.Exit(1)
	}
	txn := tree.OpenTxn()

	rn := runner.NewRunner(tree, &cfg.Logging, auditLogger, log)
	timers := timer.NewService()

	sup := supervisor.New(ctx, supervisor.Deps{
		Runner:          rn,
		Sandbox:         sandbox.NewBuilder(cfg.AppsInstallDir, log),
		Reslimit:        reslimit.NewLimiter(defaultCgroupRoot, log),
		MAC:             mac.NewTable(),
		Freezer:         cgroupfreezer.NewFreezer(defaultCgroupRoot),
		Users:           userprovision.NewProvisioner(),
		Timers:          timers,
		Logger:          log,
		RebootFaultPath: cfg.RebootFaultRecordPath,
	})
	sup.Init()

	wdog := watchdog.NewDispatcher(timers, log)

	appNames := txn.Children("apps")
	for _, name := range appNames {
		configPath := "apps/" + name
		app, err := sup.Create(configPath, txn)
		if err != nil {
			log.Error("failed to create app", "app", name, "error", err)
			continue
		}
		if err := sup.Start(app); err != nil {
			log.Error("failed to start app", "app", name, "error", err)
			continue
		}
		auditLogger.LogProcessStart(name, 0, 1)
		registerWatchdogs(wdog, sup, app, name, txn, configPath)
	}
	log.Info("apps started", "count", len(appNames))

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, cfg.Metrics.ACL, cfg.Metrics.TLS, log)
		if err := metricsServer.Start(ctx); err != nil {
			log.Warn("failed to start metrics server (continuing without metrics)", "error", err)
			metricsServer = nil
		} else {
			metrics.SetBuildInfo(version, "go1.24")
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	go signals.ReapAndDispatch(500*time.Millisecond, func(pid, exitStatus int) {
		app, hadApp := sup.AppForPID(pid)
		action := sup.DispatchChildExit(pid, exitStatus)
		enactFaultAction(sup, app, hadApp, action, log)
	})

	sig := <-sigChan
	log.Info("received shutdown signal, stopping apps", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	for _, name := range appNames {
		app, err := sup.Lookup(name)
		if err != nil {
			continue
		}
		sup.Stop(app)
	}

	if metricsServer != nil {
		if err := metricsServer.Stop(shutdownCtx); err != nil {
			log.Warn("metrics server shutdown error", "error", err)
		}
	}

	auditLogger.LogSystemShutdown(sig.String(), true)
	log.Info("appsupervisord shutdown complete")
}

// registerWatchdogs arms a watchdog timer for every process in app that
// declares a watchdogTimeout, so a missed kick escalates through
// Supervisor.WatchdogTimeout exactly like a real Legato app's processes
// calling le_wdog_Kick.
func registerWatchdogs(wdog *watchdog.Dispatcher, sup *supervisor.Supervisor, app *supervisor.App, appName string, txn supervisor.Txn, configPath string) {
	for _, procName := range txn.Children(configPath + "/procs") {
		procPath := configPath + "/procs/" + procName
		if !txn.Exists(procPath + "/watchdogTimeout") {
			continue
		}
		seconds := 0
		fmt.Sscanf(txn.GetString(procPath+"/watchdogTimeout", "0"), "%d", &seconds)
		if seconds <= 0 {
			continue
		}
		pid, ok := appProcPID(app, procName)
		if !ok {
			continue
		}
		wdog.Register(appName, pid, time.Duration(seconds)*time.Second, func() {
			sup.WatchdogTimeout(app, pid)
		})
	}
}

func appProcPID(app *supervisor.App, procName string) (int, bool) {
	pid := app.GetProcPID(procName)
	if pid == 0 {
		return 0, false
	}
	return pid, true
}

// enactFaultAction performs the app-wide action a fault decision handed
// back to the caller: the supervisor core decides, the daemon acts.
func enactFaultAction(sup *supervisor.Supervisor, app *supervisor.App, hadApp bool, action supervisor.FaultAction, log *slog.Logger) {
	if action == supervisor.FaultIgnore {
		return
	}
	log.Warn("enacting app-level fault action", "action", action.String())

	switch action {
	case supervisor.FaultReboot:
		triggerReboot(log)
	case supervisor.FaultStopApp:
		if hadApp {
			sup.Stop(app)
		}
	case supervisor.FaultRestartApp:
		if !hadApp {
			return
		}
		sup.RestartApp(app)
	}
}

func triggerReboot(log *slog.Logger) {
	log.Error("reboot fault action triggered, invoking system reboot")
	if err := exec.Command("reboot").Run(); err != nil {
		log.Error("reboot command failed", "error", err)
	}
}
