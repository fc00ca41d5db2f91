package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logLevel string // Log verbosity level

	// run flags
	configPath   string // Experiment YAML file
	replications int    // Number of replications
	length       float64
	warmUp       float64
	mode         string
	workers      int
	seed         []uint // 6 MRG32k3a seed components
	output       string // text | json
	traceLevel   string
	servers      int

	// streams flags
	streamNumber int
	substream    int
	count        int
	antithetic   bool
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "simkernel",
	Short: "Discrete-event simulation kernel with reproducible MRG32k3a random streams",
}

// setLogLevel applies --log or exits.
func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// runCmd runs replications of the built-in queue model
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run replications of the built-in queue model",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		cfg, err := LoadExperimentConfig(configPath, nil)
		if err != nil {
			logrus.Fatalf("Unable to load experiment config: %v", err)
		}
		applyRunFlags(cmd, &cfg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		startTime := time.Now()
		report, err := RunExperiment(ctx, cfg)
		if err != nil {
			logrus.Fatalf("Experiment failed: %v", err)
		}
		if err := WriteReport(os.Stdout, report, cfg.Output); err != nil {
			logrus.Fatalf("Unable to write report: %v", err)
		}
		logrus.Infof("Experiment complete in %s.", time.Since(startTime))
	},
}

// applyRunFlags overrides cfg with every flag set explicitly on the command line.
func applyRunFlags(cmd *cobra.Command, cfg *ExperimentConfig) {
	flags := cmd.Flags()
	if flags.Changed("replications") {
		cfg.Replications = replications
	}
	if flags.Changed("length") {
		cfg.Length = length
	}
	if flags.Changed("warm-up") {
		cfg.WarmUp = warmUp
	}
	if flags.Changed("mode") {
		cfg.Mode = mode
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("seed") {
		cfg.Seed = toUint64s(seed)
	}
	if flags.Changed("output") {
		cfg.Output = output
	}
	if flags.Changed("trace-level") {
		cfg.TraceLevel = traceLevel
	}
	if flags.Changed("servers") {
		cfg.Model.Servers = servers
	}
}

func toUint64s(vs []uint) []uint64 {
	out := make([]uint64, len(vs))
	for i, v := range vs {
		out[i] = uint64(v)
	}
	return out
}

// streamsCmd prints raw uniforms of one stream position
var streamsCmd = &cobra.Command{
	Use:   "streams",
	Short: "Print the first uniforms of a stream, sub-stream and antithetic setting",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		draws, err := DrawStream(StreamsRequest{
			Stream:     streamNumber,
			Substream:  substream,
			Count:      count,
			Antithetic: antithetic,
			Seed:       toUint64s(seed),
		})
		if err != nil {
			logrus.Fatalf("Unable to draw stream: %v", err)
		}
		if err := WriteDraws(os.Stdout, draws, output); err != nil {
			logrus.Fatalf("Unable to write draws: %v", err)
		}
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	defaults := DefaultExperimentConfig()
	runCmd.Flags().StringVar(&configPath, "config", "", "Experiment YAML file (SIMKERNEL_* environment variables and flags override it)")
	runCmd.Flags().IntVar(&replications, "replications", defaults.Replications, "Number of replications")
	runCmd.Flags().Float64Var(&length, "length", defaults.Length, "Replication length in simulated time (+Inf runs until the calendar empties)")
	runCmd.Flags().Float64Var(&warmUp, "warm-up", defaults.WarmUp, "Warm-up length; statistics are reset when it ends")
	runCmd.Flags().StringVar(&mode, "mode", defaults.Mode, "Stream positioning: independent, crn, antithetic")
	runCmd.Flags().IntVar(&workers, "workers", 0, "Concurrent replications (0 or 1 runs sequentially)")
	runCmd.Flags().UintSliceVar(&seed, "seed", nil, "Comma-separated MRG32k3a base seed (6 components, default 12345 x6)")
	runCmd.Flags().StringVar(&output, "output", defaults.Output, "Output format: text or json")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", defaults.TraceLevel, "Event trace level: none, events, all")
	runCmd.Flags().IntVar(&servers, "servers", defaults.Model.Servers, "Number of servers in the queue model")

	streamsCmd.Flags().IntVar(&streamNumber, "stream", 1, "Stream number (1-based)")
	streamsCmd.Flags().IntVar(&substream, "substream", 1, "Sub-stream index (1-based)")
	streamsCmd.Flags().IntVar(&count, "count", 10, "Number of uniforms to print")
	streamsCmd.Flags().BoolVar(&antithetic, "antithetic", false, "Print 1-u instead of u")
	streamsCmd.Flags().UintSliceVar(&seed, "seed", nil, "Comma-separated MRG32k3a base seed (6 components)")
	streamsCmd.Flags().StringVar(&output, "output", "text", "Output format: text or json")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(streamsCmd)
}
