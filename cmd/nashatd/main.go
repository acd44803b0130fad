package main

import (
	"context"
	"flag"
	"fmt"
	"github.com/jypelle/nashat/internal/srv"
	"github.com/jypelle/nashat/internal/srv/config"
	"github.com/jypelle/nashat/internal/srv/fancontrol"
	"github.com/jypelle/nashat/internal/srv/telemetry"
	"github.com/jypelle/nashat/internal/version"
	"github.com/sirupsen/logrus"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
)

const configSuffix = version.AppName

func main() {

	// Logger
	logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true})

	mainCommand := filepath.Base(os.Args[0])

	// region Flags and Commands definition

	// Debug Mode
	debugMode := flag.Bool("d", false, "Enable debug mode")

	// Simulation Mode
	simulationMode := flag.Bool("s", false, "Enable simulation mode (no hardware access)")

	// User config dir
	defaultConfigDir := "./." + configSuffix
	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		defaultConfigDir = filepath.Join(userConfigDir, configSuffix)
	}
	configDir := flag.String("c", defaultConfigDir, "Location of "+version.AppName+" config folder")

	// Usage
	flag.Usage = func() {
		fmt.Printf("\nUsage: %s [OPTIONS] [COMMAND]\n", mainCommand)
		fmt.Printf("\nA dual-bay NAS front panel and fan controller\n")
		fmt.Printf("\nOptions:\n")
		flag.PrintDefaults()
		fmt.Printf("\nCommands:\n")
		fmt.Printf("  run       Run server\n")
		fmt.Printf("  curve     Show the fan curves\n")
		fmt.Printf("  history   Show the last fan control decisions\n")
		fmt.Printf("  version   Show the version number\n")
		fmt.Printf("\nRun '%s COMMAND --help' for more information on a command.\n", mainCommand)
	}

	// run command
	runCmd := flag.NewFlagSet("run", flag.ExitOnError)

	runCmd.Usage = func() {
		fmt.Printf("\nUsage: %s run\n", mainCommand)
		fmt.Printf("\nRun the server\n")
	}

	// curve command
	curveCmd := flag.NewFlagSet("curve", flag.ExitOnError)
	curveFrom := curveCmd.Float64("from", 30, "First temperature (°C)")
	curveTo := curveCmd.Float64("to", 90, "Last temperature (°C)")
	curveStep := curveCmd.Float64("step", 5, "Temperature step (°C)")

	curveCmd.Usage = func() {
		fmt.Printf("\nUsage: %s curve [OPTIONS]\n", mainCommand)
		fmt.Printf("\nShow fan speed and duty of the default and turbo curves\n")
		fmt.Printf("\nOptions:\n")
		curveCmd.PrintDefaults()
	}

	// history command
	historyCmd := flag.NewFlagSet("history", flag.ExitOnError)
	historyLimit := historyCmd.Int("n", 20, "Number of decisions to show")

	historyCmd.Usage = func() {
		fmt.Printf("\nUsage: %s history [OPTIONS]\n", mainCommand)
		fmt.Printf("\nShow the last fan control decisions recorded by the server\n")
		fmt.Printf("\nOptions:\n")
		historyCmd.PrintDefaults()
	}

	// version command
	versionCmd := flag.NewFlagSet("version", flag.ExitOnError)

	versionCmd.Usage = func() {
		fmt.Printf("\nUsage: %s version\n", mainCommand)
		fmt.Printf("\nShow the version information\n")
	}

	// endregion

	// region Flags and Commands Parsing
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	var selectedCmd *flag.FlagSet
	switch flag.Arg(0) {
	case "run":
		selectedCmd = runCmd
	case "curve":
		selectedCmd = curveCmd
	case "history":
		selectedCmd = historyCmd
	case "version":
		selectedCmd = versionCmd
	default:
		fmt.Printf("\n%s is not a %s command\n", flag.Args()[0], version.AppName)
		flag.Usage()
		os.Exit(1)
	}
	selectedCmd.Parse(flag.Args()[1:])
	if selectedCmd.NArg() > 0 {
		fmt.Printf("\n\"%s %s\" accepts no arguments\n", mainCommand, flag.Arg(0))
		selectedCmd.Usage()
		os.Exit(1)
	}
	// endregion

	if *debugMode {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true, TimestampFormat: time.RFC3339Nano})
		logrus.Printf("Debug mode activated")
	}

	switch {
	case versionCmd.Parsed():
		fmt.Printf("Version %s\n", version.AppVersion.String())
	case curveCmd.Parsed():
		os.Exit(showCurves(*configDir, *curveFrom, *curveTo, *curveStep))
	case historyCmd.Parsed():
		os.Exit(showHistory(*configDir, *historyLimit))
	case runCmd.Parsed():
		os.Exit(run(*configDir, *debugMode, *simulationMode))
	}
}

func run(configDir string, debugMode bool, simulationMode bool) int {
	// Create server
	serverApp, err := srv.NewServerApp(configDir, debugMode, simulationMode)
	if err != nil {
		logrus.WithError(err).Error("Unable to create server")
		return 1
	}
	defer serverApp.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Listen stop signal
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-ch
		logrus.Infof("Received signal: %v", sig)
		signal.Stop(ch)
		cancel()
	}()

	if err = serverApp.Run(ctx); err != nil {
		logrus.WithError(err).Error("Server failed")
		return 1
	}
	return 0
}

func showCurves(configDir string, from, to, step float64) int {
	if step <= 0 || to < from {
		fmt.Printf("Invalid temperature range\n")
		return 1
	}
	serverConfig, err := config.LoadServerConfig(configDir)
	if err != nil {
		logrus.WithError(err).Error("Unable to load configuration")
		return 1
	}
	settings := serverConfig.FanSettings()

	fmt.Printf("%8s  %14s  %14s\n", "temp", "default", "turbo")
	for t := from; t <= to; t += step {
		quiet := settings.Quiet.Speed(t)
		turbo := settings.Turbo.Speed(t)
		fmt.Printf("%6.1f°C  %3d%% (duty %3d)  %3d%% (duty %3d)\n",
			t,
			quiet, fancontrol.Duty(quiet, settings.MinDuty),
			turbo, fancontrol.Duty(turbo, settings.MinDuty))
	}
	return 0
}

func showHistory(configDir string, limit int) int {
	serverConfig, err := config.LoadServerConfig(configDir)
	if err != nil {
		logrus.WithError(err).Error("Unable to load configuration")
		return 1
	}
	if !serverConfig.Telemetry.Enabled {
		fmt.Printf("Telemetry is disabled, set telemetry.enabled in %s\n", serverConfig.GetCompleteParamFilename())
		return 1
	}
	if _, err := os.Stat(serverConfig.Telemetry.DBPath); err != nil {
		fmt.Printf("No telemetry database at %s\n", serverConfig.Telemetry.DBPath)
		return 1
	}

	recorder, err := telemetry.NewRecorder(serverConfig.Telemetry)
	if err != nil {
		logrus.WithError(err).Error("Unable to open telemetry")
		return 1
	}
	defer recorder.Close()

	samples, err := recorder.History(context.Background(), limit)
	if err != nil {
		logrus.WithError(err).Error("Unable to read telemetry")
		return 1
	}
	for _, sample := range samples {
		mode := "default"
		if sample.Turbo {
			mode = "turbo"
		}
		held := ""
		if sample.Held {
			held = " (held)"
		}
		fmt.Printf("%s  ref %5.1f°C  cpu %5.1f°C  speed %3d%%  duty %3d%%  %s%s\n",
			sample.Timestamp.Format(time.RFC3339),
			sample.ReferenceTemperature,
			sample.CPUTemperature,
			sample.Speed,
			sample.Duty,
			mode,
			held)
	}
	return 0
}
