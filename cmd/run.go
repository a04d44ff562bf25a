package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fumble/fumble/internal/capture"
	"github.com/fumble/fumble/internal/config"
	fumblelog "github.com/fumble/fumble/internal/log"
	"github.com/fumble/fumble/internal/metrics"
	"github.com/fumble/fumble/internal/pipeline"
	"github.com/fumble/fumble/internal/pkt"
	"github.com/fumble/fumble/internal/shared"
	"github.com/fumble/fumble/internal/shutdown"
	"github.com/fumble/fumble/internal/stats"
	"github.com/fumble/fumble/internal/tui"
)

var (
	runFilter             string
	runDropProbability    string
	runDelayDurationMS    int64
	runThrottleProb       string
	runThrottleDurationMS int64
	runThrottleDrop       bool
	runReorderProb        string
	runReorderMaxDelayMS  int64
	runTamperProb         string
	runTamperAmount       string
	runTamperRecalc       bool
	runDuplicateProb      string
	runDuplicateCount     int
	runBandwidthLimit     int
	runCaptureType        string
	runCaptureInterface   string
	runNoTUI              bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the impairment pipeline against live traffic",
	Long: `run wires up the capture loop (T1), the impairment pipeline
driver (T2) and, unless --no-tui is set, the terminal front end (T3)
and starts processing packets matching --filter until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRun(cmd.Context())
	},
}

func init() {
	runCmd.Flags().StringVar(&runFilter, "filter", "", "filter expression applied to captured packets")
	runCmd.Flags().StringVar(&runDropProbability, "drop-probability", "", "enables Drop with this probability (0..1)")
	runCmd.Flags().Int64Var(&runDelayDurationMS, "delay-duration-ms", 0, "enables Delay with this fixed duration")
	runCmd.Flags().StringVar(&runThrottleProb, "throttle-probability", "", "enables Throttle with this probability (0..1)")
	runCmd.Flags().Int64Var(&runThrottleDurationMS, "throttle-duration-ms", 30, "throttle window length")
	runCmd.Flags().BoolVar(&runThrottleDrop, "throttle-drop", false, "drop instead of buffer inside a throttle window")
	runCmd.Flags().StringVar(&runReorderProb, "reorder-probability", "0", "per-packet chance of reordering")
	runCmd.Flags().Int64Var(&runReorderMaxDelayMS, "reorder-max-delay-ms", 100, "upper bound on reorder delay")
	runCmd.Flags().StringVar(&runTamperProb, "tamper-probability", "", "enables Tamper with this probability (0..1)")
	runCmd.Flags().StringVar(&runTamperAmount, "tamper-amount", "0.1", "fraction of payload bytes mutated")
	runCmd.Flags().BoolVar(&runTamperRecalc, "tamper-recalculate-checksums", true, "recompute IP/TCP/UDP checksums after tampering")
	runCmd.Flags().StringVar(&runDuplicateProb, "duplicate-probability", "", "enables Duplicate with this probability (0..1)")
	runCmd.Flags().IntVar(&runDuplicateCount, "duplicate-count", 1, "copies appended per trigger")
	runCmd.Flags().IntVar(&runBandwidthLimit, "bandwidth-limit-kbps", 0, "enables bandwidth shaping at this rate (0 disables)")
	runCmd.Flags().StringVar(&runCaptureType, "capture-type", "afpacket", "capture backend: afpacket or pcap")
	runCmd.Flags().StringVar(&runCaptureInterface, "interface", "", "network interface to capture on")
	runCmd.Flags().BoolVar(&runNoTUI, "no-tui", false, "disable the terminal front end even on an interactive TTY")

	rootCmd.AddCommand(runCmd)
}

// loadBaseConfig loads from configFile (with FUMBLE_ environment
// overrides) if set, otherwise returns the defaults without reading the
// environment; applyRunFlags then layers flag overrides on top, so
// flags win over both.
func loadBaseConfig() (*config.Configuration, error) {
	if configFile != "" {
		return config.Load(configFile)
	}
	return config.Default(), nil
}

func applyRunFlags(cmd *cobra.Command, cfg *config.Configuration) error {
	flags := cmd.Flags()

	if flags.Changed("filter") {
		cfg.Filter = runFilter
	}
	if flags.Changed("drop-probability") {
		p, err := probabilityFlag(runDropProbability)
		if err != nil {
			return fmt.Errorf("--drop-probability: %w", err)
		}
		cfg.Drop.Probability = p
	}
	if flags.Changed("delay-duration-ms") {
		cfg.Delay.DurationMS = &runDelayDurationMS
	}
	if flags.Changed("throttle-probability") {
		p, err := probabilityFlag(runThrottleProb)
		if err != nil {
			return fmt.Errorf("--throttle-probability: %w", err)
		}
		cfg.Throttle.Probability = p
	}
	if flags.Changed("throttle-duration-ms") {
		cfg.Throttle.DurationMS = runThrottleDurationMS
	}
	if flags.Changed("throttle-drop") {
		cfg.Throttle.Drop = runThrottleDrop
	}
	if flags.Changed("reorder-probability") {
		p, err := parseProbabilityValue(runReorderProb)
		if err != nil {
			return fmt.Errorf("--reorder-probability: %w", err)
		}
		cfg.Reorder.Probability = p
	}
	if flags.Changed("reorder-max-delay-ms") {
		cfg.Reorder.MaxDelayMS = runReorderMaxDelayMS
	}
	if flags.Changed("tamper-probability") {
		p, err := probabilityFlag(runTamperProb)
		if err != nil {
			return fmt.Errorf("--tamper-probability: %w", err)
		}
		cfg.Tamper.Probability = p
	}
	if flags.Changed("tamper-amount") {
		p, err := parseProbabilityValue(runTamperAmount)
		if err != nil {
			return fmt.Errorf("--tamper-amount: %w", err)
		}
		cfg.Tamper.Amount = p
	}
	if flags.Changed("tamper-recalculate-checksums") {
		cfg.Tamper.RecalculateChecksums = runTamperRecalc
	}
	if flags.Changed("duplicate-probability") {
		p, err := probabilityFlag(runDuplicateProb)
		if err != nil {
			return fmt.Errorf("--duplicate-probability: %w", err)
		}
		cfg.Duplicate.Probability = p
	}
	if flags.Changed("duplicate-count") {
		cfg.Duplicate.Count = runDuplicateCount
	}
	if flags.Changed("bandwidth-limit-kbps") {
		if runBandwidthLimit > 0 {
			cfg.Bandwidth.LimitKBps = &runBandwidthLimit
		} else {
			cfg.Bandwidth.LimitKBps = nil
		}
	}
	if flags.Changed("capture-type") {
		cfg.Capture.Type = runCaptureType
	}
	if flags.Changed("interface") {
		cfg.Capture.Interface = runCaptureInterface
	}

	return cfg.Validate()
}

func runRun(ctx context.Context) error {
	cfg, err := loadBaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := applyRunFlags(runCmd, cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := fumblelog.Init(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	runID := uuid.New().String()
	logger = logger.With("run_id", runID)
	slog.SetDefault(logger)

	coordinator := shutdown.New()
	coordinator.Watch()
	defer coordinator.Stop()

	cell := shared.NewConfigCell(*cfg)
	registry := stats.New()
	records := make(chan *pkt.Record, 4096)

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path, registry)
		if err := metricsServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer metricsServer.Stop(ctx)
	}

	capOpts := capture.DefaultOptions()
	capOpts.SnapLen = cfg.Capture.SnapLen
	capOpts.BufferSize = cfg.Capture.BufferSize
	capOpts.TimeoutMS = cfg.Capture.TimeoutMS
	capOpts.Promiscuous = cfg.Capture.Promiscuous
	capOpts.Filter = cfg.Filter

	loop := capture.NewLoop(capture.Type(cfg.Capture.Type), cfg.Capture.Interface, capOpts, cell, records, coordinator.Running())

	injectFactory := capture.NewFactory()
	injectHandle, err := injectFactory.CreateHandle(capture.Type(cfg.Capture.Type))
	if err != nil {
		return fmt.Errorf("failed to create inject handle: %w", err)
	}
	if err := injectHandle.Open(cfg.Capture.Interface, capOpts); err != nil {
		return fmt.Errorf("failed to open inject handle: %w", err)
	}
	defer injectHandle.Close()

	driver := pipeline.NewDriver(records, cell, registry, pipeline.InjectVia(injectHandle), coordinator.Running())

	var fatalErr error
	captureDone := make(chan error, 1)
	driverDone := make(chan error, 1)

	go func() { captureDone <- loop.Run() }()
	go func() { driverDone <- driver.Run() }()

	terminal := startTerminal(cell, registry, coordinator)
	if terminal != nil {
		defer terminal.Close()
	}

	logger.Info("fumble started", "filter", cfg.Filter, "capture_type", cfg.Capture.Type, "interface", cfg.Capture.Interface)

	select {
	case err := <-captureDone:
		if err != nil {
			logger.Error("capture loop exited with error", "error", err)
			fatalErr = err
		}
		coordinator.Running().Store(false)
		<-driverDone
	case err := <-driverDone:
		if err != nil {
			logger.Error("pipeline driver exited with error", "error", err)
			fatalErr = err
		}
		coordinator.Running().Store(false)
		<-captureDone
	}

	exitCode := coordinator.ExitCode(fatalErr)
	if exitCode != 0 {
		return fmt.Errorf("exiting with code %d", exitCode)
	}
	slog.Info("fumble shut down cleanly")
	return nil
}

// startTerminal launches the T3 render loop on stdout when stdin is an
// interactive TTY and --no-tui wasn't given. It returns nil otherwise,
// so the data-flow bridge still works headless (e.g. under systemd).
func startTerminal(cell *shared.ConfigCell, registry *stats.Registry, coordinator *shutdown.Coordinator) *tui.Terminal {
	if runNoTUI || !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	terminal, err := tui.NewTerminal(int(os.Stdin.Fd()), os.Stdout, os.Stdin, cell)
	if err != nil {
		slog.Warn("failed to start terminal front end, continuing headless", "error", err)
		return nil
	}
	go terminal.Run(registry, coordinator.Running())
	return terminal
}
