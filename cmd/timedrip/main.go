package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nkov/timedrip/internal/config"
	"github.com/nkov/timedrip/internal/core"
	"github.com/nkov/timedrip/internal/input"
	"github.com/nkov/timedrip/internal/networking"
	"github.com/nkov/timedrip/internal/output"
	"github.com/nkov/timedrip/internal/report"
	"github.com/nkov/timedrip/internal/utils"
)

const version = "0.3.1"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := config.GetDefaultConfig()
	var configFile string

	cmd := &cobra.Command{
		Use:     "timedrip [flags] <target-url>",
		Short:   "Extract secrets through HTTP timing side channels",
		Version: version,
		Long: `timedrip discovers an unknown secret string from a remote search endpoint by
exploiting a timing side channel: candidates whose prefix matches more of the
secret take measurably longer to answer. It extends a known prefix one
character at a time, accepting the first charset character whose average
latency crosses the configured threshold.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, configFile, args)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "Config file (default: ./timedrip.yaml if present)")
	flags.StringP("url", "u", defaults.TargetURL, "Target URL of the timing-vulnerable endpoint")
	flags.StringP("param", "p", defaults.ParamName, "Query parameter carrying the candidate string")
	flags.String("charset", defaults.Charset, "Characters tried at each position, in tie-break order")
	flags.String("charset-file", defaults.CharsetFile, "File with charset characters (overrides --charset)")
	flags.StringP("seed", "s", defaults.Seed, "Known prefix to resume from")
	flags.Duration("threshold", defaults.Threshold, "Average latency above which a candidate is accepted")
	flags.IntP("attempts", "a", defaults.Attempts, "Requests per candidate (their aggregate is the measurement)")
	flags.Duration("timeout", defaults.RequestTimeout, "Per-request timeout; failed trials count as this ceiling")
	flags.Duration("delay", defaults.TrialDelay, "Pacing delay between consecutive trials")
	flags.Int("max-length", defaults.MaxSecretLength, "Maximum secret length before the probe gives up")
	flags.Int("top", defaults.TopSlowest, "Slowest candidates listed when a position stalls")
	flags.String("aggregation", string(defaults.Aggregation), "Latency aggregation policy: mean, median or trimmed")
	flags.Bool("check-reflection", defaults.CheckReflection, "Parse response bodies and flag candidate reflection")
	flags.String("user-agent", defaults.UserAgent, "User-Agent header")
	flags.String("proxy", defaults.ProxyURL, "Proxy URL, e.g. http://127.0.0.1:8080")
	flags.StringSliceP("header", "H", defaults.CustomHeaders, "Custom header added to every request (Name: Value)")
	flags.BoolP("insecure", "k", defaults.Insecure, "Skip TLS certificate verification")
	flags.StringP("output", "o", defaults.OutputFile, "Report file (default: stdout)")
	flags.String("format", defaults.OutputFormat, "Report format: text or json")
	flags.String("loglevel", defaults.Verbosity, "Log level (debug, info, warn, error)")
	flags.Bool("no-color", defaults.NoColor, "Disable colored output")
	flags.Bool("silent", defaults.Silent, "Suppress logs and per-candidate lines; print only decisions and the report")

	return cmd
}

// resolveConfig merges flag, env and config-file values into a validated
// Config. Precedence is Viper's usual: explicit flags, then env
// (TIMEDRIP_*), then the config file, then defaults.
func resolveConfig(cmd *cobra.Command, configFile string, args []string) (*config.Config, error) {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}
	v.SetEnvPrefix("TIMEDRIP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("timedrip")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := config.GetDefaultConfig()
	cfg.TargetURL = v.GetString("url")
	cfg.ParamName = v.GetString("param")
	cfg.Charset = v.GetString("charset")
	cfg.CharsetFile = v.GetString("charset-file")
	cfg.Seed = v.GetString("seed")
	cfg.Threshold = v.GetDuration("threshold")
	cfg.Attempts = v.GetInt("attempts")
	cfg.RequestTimeout = v.GetDuration("timeout")
	cfg.TrialDelay = v.GetDuration("delay")
	cfg.MaxSecretLength = v.GetInt("max-length")
	cfg.TopSlowest = v.GetInt("top")
	cfg.CheckReflection = v.GetBool("check-reflection")
	cfg.UserAgent = v.GetString("user-agent")
	cfg.ProxyURL = v.GetString("proxy")
	cfg.CustomHeaders = v.GetStringSlice("header")
	cfg.Insecure = v.GetBool("insecure")
	cfg.OutputFile = v.GetString("output")
	cfg.OutputFormat = v.GetString("format")
	cfg.Verbosity = v.GetString("loglevel")
	cfg.NoColor = v.GetBool("no-color")
	cfg.Silent = v.GetBool("silent")

	aggregation, err := config.ParseAggregation(v.GetString("aggregation"))
	if err != nil {
		return nil, err
	}
	cfg.Aggregation = aggregation

	// A positional argument wins over --url; matches how the pipe-oriented
	// tools in this space are usually invoked.
	if len(args) == 1 {
		cfg.TargetURL = args[0]
	}

	if cfg.CharsetFile != "" {
		charset, err := input.NewReader().ReadCharsetFromFile(cfg.CharsetFile)
		if err != nil {
			return nil, err
		}
		cfg.Charset = charset
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cfg *config.Config) error {
	logger := utils.NewDefaultLogger(utils.StringToLogLevel(cfg.Verbosity), cfg.NoColor, cfg.Silent)

	logger.Infof("timedrip %s starting.", version)
	logger.Debugf("Config: %s", cfg)

	client, err := networking.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}
	pacer := networking.NewPacer(cfg, logger)

	oracle, err := core.NewNetworkOracle(cfg, client, pacer, logger)
	if err != nil {
		return fmt.Errorf("failed to set up the timing oracle: %w", err)
	}

	sink := output.NewTrialWriter(os.Stdout, cfg.NoColor, cfg.Silent)
	prober := core.NewProber(cfg, oracle, logger, sink)

	// SIGINT/SIGTERM cancel the run; the partial prefix is still reported.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	state := prober.Run(ctx)
	elapsed := time.Since(start)

	switch state.StopReason {
	case core.StopThreshold:
		logger.Infof("Probe stalled after '%s'. A stall is the normal end of a run once the secret is exhausted.", state.Known)
	case core.StopLengthLimit:
		logger.Warnf("Probe hit the configured length limit; the secret may be longer than %d characters.", cfg.MaxSecretLength)
	case core.StopCanceled:
		logger.Warnf("Probe canceled; reporting the partial prefix '%s'.", state.Known)
	}

	rep := report.BuildRunReport(cfg.TargetURL, cfg.ParamName, state, elapsed)
	if err := report.NewReporter().Generate(rep, cfg.OutputFile, cfg.OutputFormat); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	// Both discovery and stall are normal termination paths; exit code 0.
	return nil
}
