// Package config loads the cfestimate YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-cfest/burst"
	"github.com/cwbudde/algo-cfest/dsp/fft"
	"github.com/cwbudde/algo-cfest/measure/cfest"
)

// Config is the complete cfestimate configuration.
type Config struct {
	Estimator EstimatorConfig `yaml:"estimator"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
}

// EstimatorConfig configures the burst handler.
type EstimatorConfig struct {
	Method       string    `yaml:"method"`
	ChannelFreqs []float64 `yaml:"channel_freqs"`
	SNRCeilingDB float64   `yaml:"snr_ceiling_db"`
	GaussSigma   float64   `yaml:"gauss_sigma"`
	FFTBackend   string    `yaml:"fft_backend"`
	MinFFTSize   int       `yaml:"min_fft_size"`
	MaxFFTSize   int       `yaml:"max_fft_size"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// MQTTConfig configures the MQTT burst transport.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	InputTopic  string `yaml:"input_topic"`
	OutputTopic string `yaml:"output_topic"`
	DebugTopic  string `yaml:"debug_topic"`
	QoS         int    `yaml:"qos"`
	QueueSize   int    `yaml:"queue_size"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Estimator: EstimatorConfig{
			Method:       cfest.MethodRMS.String(),
			SNRCeilingDB: cfest.DefaultSNRCeilingDB,
			GaussSigma:   fft.DefaultSigma,
			FFTBackend:   fft.BackendAlgoFFT,
			MinFFTSize:   16,
			MaxFFTSize:   1 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Listen: ":9109",
		},
		MQTT: MQTTConfig{
			ClientID:    "cfestimate",
			InputTopic:  "cfestimate/bursts/in",
			OutputTopic: "cfestimate/bursts/out",
			QoS:         0,
			QueueSize:   64,
		},
	}
}

// Load reads the YAML file at path on top of [Default] and validates the
// result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML data on top of [Default] and validates the result.
// Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error

	e := c.Estimator
	if _, err := cfest.ParseMethod(e.Method); err != nil {
		errs = append(errs, fmt.Errorf("estimator.method: %w", err))
	}
	if _, err := fft.PlannerByName(e.FFTBackend); err != nil {
		errs = append(errs, fmt.Errorf("estimator.fft_backend: %w", err))
	}
	if !(e.GaussSigma > 0) || math.IsInf(e.GaussSigma, 0) {
		errs = append(errs, fmt.Errorf("estimator.gauss_sigma must be > 0: %v", e.GaussSigma))
	}
	if math.IsNaN(e.SNRCeilingDB) || math.IsInf(e.SNRCeilingDB, 0) {
		errs = append(errs, fmt.Errorf("estimator.snr_ceiling_db must be finite: %v", e.SNRCeilingDB))
	}
	if e.MinFFTSize <= 0 || e.MaxFFTSize <= 0 || e.MinFFTSize > e.MaxFFTSize {
		errs = append(errs, fmt.Errorf("estimator fft size limits invalid: min=%d max=%d", e.MinFFTSize, e.MaxFFTSize))
	}
	for i, f := range e.ChannelFreqs {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			errs = append(errs, fmt.Errorf("estimator.channel_freqs[%d] must be finite", i))
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be debug, info, warn or error: %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console: %q", c.Logging.Format))
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		errs = append(errs, errors.New("metrics.listen is required when metrics are enabled"))
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2: %d", c.MQTT.QoS))
	}
	if c.MQTT.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("mqtt.queue_size must be > 0: %d", c.MQTT.QueueSize))
	}

	return errors.Join(errs...)
}

// ValidateMQTT checks the fields needed to run the MQTT stage.
func (c *Config) ValidateMQTT() error {
	var errs []error
	if c.MQTT.Broker == "" {
		errs = append(errs, errors.New("mqtt.broker is required"))
	}
	if c.MQTT.InputTopic == "" {
		errs = append(errs, errors.New("mqtt.input_topic is required"))
	}
	if c.MQTT.OutputTopic == "" {
		errs = append(errs, errors.New("mqtt.output_topic is required"))
	}
	return errors.Join(errs...)
}

// HandlerOptions converts the estimator section into burst handler options.
// The configuration must be valid.
func (c *Config) HandlerOptions() ([]burst.Option, error) {
	e := c.Estimator

	method, err := cfest.ParseMethod(e.Method)
	if err != nil {
		return nil, err
	}
	planner, err := fft.PlannerByName(e.FFTBackend)
	if err != nil {
		return nil, err
	}

	return []burst.Option{
		burst.WithMethod(method),
		burst.WithChannelFreqs(e.ChannelFreqs),
		burst.WithSNRCeiling(e.SNRCeilingDB),
		burst.WithFFTOptions(
			fft.WithPlanner(planner),
			fft.WithSigma(e.GaussSigma),
			fft.WithSizeLimits(e.MinFFTSize, e.MaxFFTSize),
		),
	}, nil
}
