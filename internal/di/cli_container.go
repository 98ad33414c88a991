package di

import (
	"flag"
	"io"
	"os"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phishing-scanner/internal/adapters/filter"
	"github.com/mikey/phishing-scanner/internal/config"
	"github.com/mikey/phishing-scanner/internal/core"
	"github.com/mikey/phishing-scanner/internal/logging"
	"github.com/mikey/phishing-scanner/internal/ports"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Input flags
	Kind      string
	Content   string
	InputFile string

	// Analysis flags
	Delay time.Duration
	Seed  uint64

	// Output flags
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	return ParseFlagSet(flag.CommandLine, os.Args[1:])
}

// ParseFlagSet registers the CLI flags on fs and parses args
func ParseFlagSet(fs *flag.FlagSet, args []string) *CLIFlags {
	flags := &CLIFlags{}

	// Input flags
	fs.StringVar(&flags.Kind, "kind", "email", "Content type to analyze (email, url)")
	fs.StringVar(&flags.Content, "content", "", "Content to analyze (read from -file or stdin if not specified)")
	fs.StringVar(&flags.InputFile, "file", "", "Input file (use stdin if not specified)")

	// Analysis flags
	fs.DurationVar(&flags.Delay, "delay", 0, "Simulated analysis latency")
	fs.Uint64Var(&flags.Seed, "seed", 0, "Seed for confidence draws (0 seeds from the clock)")

	// Output flags
	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	_ = fs.Parse(args)
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags, out io.Writer) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	if err := provideCore(container); err != nil {
		return nil, err
	}

	// Register CLI filter
	if err := container.Provide(func(
		session *core.AnalysisSession,
		logger *zap.Logger,
		flags *CLIFlags,
	) (ports.ContentFilter, error) {
		return filter.NewCliFilter(session, logger, out, flags.Verbose)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// Set some cli specific settings
	v.Set("server.filter_type", "cli")
	v.Set("cli.verbose", flags.Verbose)

	v.Set("analysis.delay", flags.Delay.String())
	v.Set("classifier.seed", flags.Seed)

	return config.NewFromViper(v)
}
