package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-cfest/burst"
	"github.com/cwbudde/algo-cfest/internal/metrics"
	"github.com/cwbudde/algo-cfest/internal/mqttlink"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Process bursts arriving over MQTT",
	Long: `Subscribe to the input topic, process each burst message in arrival
order and publish the corrected burst to the output topic. When a debug topic
is set, the power spectrum and estimates of every burst are published there.
With --metrics a Prometheus endpoint is served on --metrics-listen.`,
	RunE: runServe,
}

var serveBindings = map[string]string{
	"mqtt.broker":       "broker",
	"mqtt.client_id":    "client-id",
	"mqtt.input_topic":  "input-topic",
	"mqtt.output_topic": "output-topic",
	"mqtt.debug_topic":  "debug-topic",
	"mqtt.qos":          "qos",
	"mqtt.queue_size":   "queue-size",
	"metrics.enabled":   "metrics",
	"metrics.listen":    "metrics-listen",
}

func init() {
	rootCmd.AddCommand(serveCmd)

	fs := serveCmd.Flags()
	fs.String("broker", "", "MQTT broker URL, e.g. tcp://localhost:1883")
	fs.String("client-id", "cfestimate", "MQTT client id")
	fs.String("input-topic", "cfestimate/bursts/in", "topic carrying incoming bursts")
	fs.String("output-topic", "cfestimate/bursts/out", "topic for corrected bursts")
	fs.String("debug-topic", "", "topic for per-burst spectra and estimates")
	fs.Int("qos", 0, "MQTT QoS for subscribe and publish")
	fs.Int("queue-size", 64, "bursts buffered before incoming messages are dropped")
	fs.Bool("metrics", false, "serve Prometheus metrics")
	fs.String("metrics-listen", ":9109", "metrics listen address")
	estimatorFlags(fs)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := prepare(cmd, estimatorBindings, serveBindings)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.ValidateMQTT(); err != nil {
		return err
	}

	opts, err := cfg.HandlerOptions()
	if err != nil {
		return err
	}
	opts = append(opts, burst.WithLogger(logger))

	var (
		h         *burst.Handler
		link      *mqttlink.Link
		collector *metrics.Collector
	)

	if cfg.Metrics.Enabled {
		collector = metrics.New(func() int { return len(h.CachedFFTSizes()) })
		opts = append(opts, burst.WithObserver(collector))
	}
	if cfg.MQTT.DebugTopic != "" {
		opts = append(opts, burst.WithDebugSink(burst.DebugSinkFunc(func(rec burst.DebugRecord) {
			link.Debug(rec)
		})))
	}

	h, err = burst.NewHandler(opts...)
	if err != nil {
		return err
	}
	defer h.Close()

	link, err = mqttlink.New(mqttlink.Config{
		Broker:      cfg.MQTT.Broker,
		ClientID:    cfg.MQTT.ClientID,
		Username:    cfg.MQTT.Username,
		Password:    cfg.MQTT.Password,
		InputTopic:  cfg.MQTT.InputTopic,
		OutputTopic: cfg.MQTT.OutputTopic,
		DebugTopic:  cfg.MQTT.DebugTopic,
		QoS:         byte(cfg.MQTT.QoS),
		QueueSize:   cfg.MQTT.QueueSize,
	}, h, mqttlink.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var srv *http.Server
	if collector != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.HTTPHandler())
		srv = &http.Server{
			Addr:              cfg.Metrics.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info("metrics endpoint listening", zap.String("listen", cfg.Metrics.Listen))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics endpoint failed", zap.Error(err))
				stop()
			}
		}()
	}

	runErr := link.Run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics endpoint shutdown", zap.Error(err))
		}
	}

	st := link.Stats()
	logger.Info("serve stopped",
		zap.Uint64("received", st.Received),
		zap.Uint64("published", st.Published),
		zap.Uint64("failed", st.Failed),
		zap.Uint64("queue_drops", st.QueueDrops),
	)

	return runErr
}
