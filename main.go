package main

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/analyzer"
	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/export"
	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/models"
	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/renderer"
	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/scanner"
	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/telemetry"
	"github.com/charlesoliviercouture01-cpu/boat-analyzerV3.5/pkg/web"
)

var (
	verbose    bool
	configPath string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "boat-analyzer",
	Short: "Classifies boat engine test logs for sustained cheat conditions",
	Long: `boat-analyzer ingests a CSV log from an engine test run and checks for a
sustained out-of-bounds condition under high throttle: air-fuel ratio, fuel
pressure, and intake/coolant temperatures relative to ambient, debounced
over real log time so single-sample spikes never trigger a verdict.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web analyzer",
	Long: `Starts the upload form on the configured port. Each uploaded log is
analyzed immediately; the annotated CSV is stored in the results directory
and offered for download.`,
	RunE: runServe,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [log.csv]",
	Short: "Analyze a log file offline",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

var channelsCmd = &cobra.Command{
	Use:   "channels [log.csv]",
	Short: "Profile the channels of a log file",
	Long: `Lists every column of a log with its value range and the count of
unparsable cells, and checks for the required channels and at least one
lambda channel. Useful before analysis when the logger layout is in doubt.`,
	Args: cobra.ExactArgs(1),
	RunE: runChannels,
}

var (
	servePort      int
	serveResults   string
	analyzeTemp    float64
	analyzeOutput  string
	analyzePreview int
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file with threshold overrides")

	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	serveCmd.Flags().StringVar(&serveResults, "results-dir", "", "directory for annotated result files (overrides config)")

	analyzeCmd.Flags().Float64Var(&analyzeTemp, "ambient", 0, "ambient temperature in °C (required)")
	analyzeCmd.Flags().StringVar(&analyzeOutput, "out", "", "write the annotated CSV to this path")
	analyzeCmd.Flags().IntVar(&analyzePreview, "preview", 0, "print the first N annotated rows")
	_ = analyzeCmd.MarkFlagRequired("ambient")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(channelsCmd)
}

func loadConfig() (models.ServerConfig, error) {
	if configPath == "" {
		return models.DefaultServerConfig(), nil
	}
	return models.LoadServerConfig(configPath)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}
	if serveResults != "" {
		cfg.ResultsDir = serveResults
	}

	store, err := export.NewStore(cfg.ResultsDir)
	if err != nil {
		return err
	}

	server, err := web.NewServer(cfg, store, logger)
	if err != nil {
		return err
	}
	return server.Start()
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	table, err := telemetry.ParseCSV(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	res, err := analyzer.Analyze(table, analyzeTemp, cfg.Thresholds)
	if err != nil {
		return err
	}

	renderer.RenderSummary(table, res)
	if analyzePreview > 0 {
		renderer.RenderPreview(table, res, analyzePreview)
	}

	if analyzeOutput != "" {
		out, err := os.Create(analyzeOutput)
		if err != nil {
			return err
		}
		defer out.Close()
		if err := export.WriteAnnotatedCSV(out, table, res); err != nil {
			return err
		}
		pterm.Info.Printf("Annotated CSV written to %s\n", analyzeOutput)
	}

	return nil
}

func runChannels(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	table, err := telemetry.ParseCSV(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	reports := scanner.ScanChannels(table)
	scanner.DisplayReports(table, reports)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
