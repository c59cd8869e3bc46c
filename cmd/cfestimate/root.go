package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-cfest/internal/config"
	"github.com/cwbudde/algo-cfest/internal/logging"
)

const envPrefix = "CFESTIMATE"

var configFile string

var rootCmd = &cobra.Command{
	Use:   "cfestimate",
	Short: "Burst center-frequency estimation and correction",
	Long: `cfestimate measures the carrier of detected signal bursts.

For every burst it builds a Gaussian-windowed power spectrum, estimates the
center frequency (coerce, rms or half_power), derives RMS bandwidth and SNR,
and rotates the samples so the signal sits at 0 Hz.

Configuration is read from a YAML file (--config), then overridden by
CFESTIMATE_* environment variables (CFESTIMATE_ESTIMATOR_METHOD=half_power)
and finally by command-line flags.`,
	SilenceUsage: true,
}

var loggingBindings = map[string]string{
	"logging.level":  "log-level",
	"logging.format": "log-format",
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console",
		"log format (console, json)")
}

// initConfig sets up environment variable lookups.
func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

// bindFlags binds each named flag of cmd to its viper key. Only flags given
// on the command line take precedence over the environment and the file.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, name := range keys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			return fmt.Errorf("unknown flag %q for key %s", name, key)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// loadConfig reads the config file, if any, and applies environment and flag
// overrides on top.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := applyOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config) error {
	str := func(key string, dst *string) {
		if viper.IsSet(key) {
			*dst = viper.GetString(key)
		}
	}
	num := func(key string, dst *float64) {
		if viper.IsSet(key) {
			*dst = viper.GetFloat64(key)
		}
	}
	integer := func(key string, dst *int) {
		if viper.IsSet(key) {
			*dst = viper.GetInt(key)
		}
	}

	str("estimator.method", &cfg.Estimator.Method)
	str("estimator.fft_backend", &cfg.Estimator.FFTBackend)
	num("estimator.snr_ceiling_db", &cfg.Estimator.SNRCeilingDB)
	num("estimator.gauss_sigma", &cfg.Estimator.GaussSigma)
	integer("estimator.max_fft_size", &cfg.Estimator.MaxFFTSize)
	if viper.IsSet("estimator.channel_freqs") {
		freqs, err := parseFrequencies(viper.GetString("estimator.channel_freqs"))
		if err != nil {
			return fmt.Errorf("estimator.channel_freqs: %w", err)
		}
		cfg.Estimator.ChannelFreqs = freqs
	}

	str("logging.level", &cfg.Logging.Level)
	str("logging.format", &cfg.Logging.Format)

	if viper.IsSet("metrics.enabled") {
		cfg.Metrics.Enabled = viper.GetBool("metrics.enabled")
	}
	str("metrics.listen", &cfg.Metrics.Listen)

	str("mqtt.broker", &cfg.MQTT.Broker)
	str("mqtt.client_id", &cfg.MQTT.ClientID)
	str("mqtt.username", &cfg.MQTT.Username)
	str("mqtt.password", &cfg.MQTT.Password)
	str("mqtt.input_topic", &cfg.MQTT.InputTopic)
	str("mqtt.output_topic", &cfg.MQTT.OutputTopic)
	str("mqtt.debug_topic", &cfg.MQTT.DebugTopic)
	integer("mqtt.qos", &cfg.MQTT.QoS)
	integer("mqtt.queue_size", &cfg.MQTT.QueueSize)

	return nil
}

// parseFrequencies parses a comma or space separated list such as
// "902.2e6, 902.6e6".
func parseFrequencies(s string) ([]float64, error) {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })

	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid frequency %q: %w", f, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// prepare binds the command's flags, loads the configuration and builds the
// logger.
func prepare(cmd *cobra.Command, bindings ...map[string]string) (*config.Config, *zap.Logger, error) {
	if err := bindFlags(cmd, mergeBindings(append(bindings, loggingBindings)...)); err != nil {
		return nil, nil, err
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// estimatorFlags adds the flags shared by commands that run the estimator.
func estimatorFlags(fs *pflag.FlagSet) {
	fs.String("method", "rms", "estimation method (coerce, rms, half_power)")
	fs.String("channels", "", "channel center frequencies in Hz for coerce, comma separated")
	fs.String("fft-backend", "algofft", "FFT backend (algofft, gonum)")
	fs.Float64("gauss-sigma", 0.3, "Gaussian window sigma relative to the half window")
	fs.Float64("snr-ceiling", 100, "SNR in dB reported when no noise estimate exists")
	fs.Int("max-fft-size", 1<<20, "largest burst length accepted")
}

var estimatorBindings = map[string]string{
	"estimator.method":         "method",
	"estimator.channel_freqs":  "channels",
	"estimator.fft_backend":    "fft-backend",
	"estimator.gauss_sigma":    "gauss-sigma",
	"estimator.snr_ceiling_db": "snr-ceiling",
	"estimator.max_fft_size":   "max-fft-size",
}

func mergeBindings(maps ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
