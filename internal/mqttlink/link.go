package mqttlink

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-cfest/burst"
)

const publishTimeout = 5 * time.Second

// Processor turns an incoming burst into the burst to publish.
type Processor interface {
	Process(b *burst.Burst) (*burst.Burst, error)
}

// Config describes the broker connection and topics.
type Config struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	InputTopic  string
	OutputTopic string
	DebugTopic  string // empty disables debug publishing
	QoS         byte
	QueueSize   int
}

// Option configures a [Link].
type Option func(*Link)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(link *Link) {
		if l != nil {
			link.logger = l
		}
	}
}

// WithClient uses c instead of a client built from the config.
func WithClient(c mqtt.Client) Option {
	return func(link *Link) { link.client = c }
}

// Link subscribes to the input topic and feeds bursts to a processor.
//
// Incoming messages are queued without blocking the MQTT client; a full queue
// drops the message. A single worker drains the queue, so bursts are
// processed strictly one after another.
type Link struct {
	cfg    Config
	proc   Processor
	client mqtt.Client
	logger *zap.Logger
	queue  chan []byte

	started    atomic.Bool
	received   atomic.Uint64
	queueDrops atomic.Uint64
	published  atomic.Uint64
	failed     atomic.Uint64
}

// Stats are cumulative link counters.
type Stats struct {
	Received   uint64
	QueueDrops uint64
	Published  uint64
	Failed     uint64
}

// New creates a link. It does not connect until [Link.Run].
func New(cfg Config, proc Processor, opts ...Option) (*Link, error) {
	if proc == nil {
		return nil, errors.New("mqttlink: processor must not be nil")
	}
	if cfg.InputTopic == "" || cfg.OutputTopic == "" {
		return nil, errors.New("mqttlink: input and output topics are required")
	}
	if cfg.QoS > 2 {
		return nil, fmt.Errorf("mqttlink: qos must be 0, 1 or 2: %d", cfg.QoS)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}

	l := &Link{
		cfg:    cfg,
		proc:   proc,
		logger: zap.NewNop(),
		queue:  make(chan []byte, cfg.QueueSize),
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.client == nil {
		if cfg.Broker == "" {
			return nil, errors.New("mqttlink: broker is required")
		}
		l.client = mqtt.NewClient(l.clientOptions())
	}

	return l, nil
}

func (l *Link) clientOptions() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(l.cfg.Broker)
	opts.SetClientID(l.cfg.ClientID)

	if l.cfg.Username != "" {
		opts.SetUsername(l.cfg.Username)
	}
	if l.cfg.Password != "" {
		opts.SetPassword(l.cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(c mqtt.Client) {
		l.logger.Info("mqtt connected", zap.String("broker", l.cfg.Broker))
		// The first subscription is made by Run; later connects are reconnects.
		if l.started.Load() {
			if err := l.subscribe(); err != nil {
				l.logger.Error("mqtt resubscribe failed", zap.Error(err))
			}
		}
	})
	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		l.logger.Warn("mqtt connection lost", zap.Error(err))
	})
	opts.SetReconnectingHandler(func(c mqtt.Client, o *mqtt.ClientOptions) {
		l.logger.Info("mqtt reconnecting")
	})

	return opts
}

// Run connects, subscribes and processes bursts until ctx is done.
func (l *Link) Run(ctx context.Context) error {
	if tok := l.client.Connect(); tok.Wait() && tok.Error() != nil {
		return fmt.Errorf("mqttlink: connect: %w", tok.Error())
	}
	defer l.client.Disconnect(250)

	if err := l.subscribe(); err != nil {
		return err
	}
	l.started.Store(true)

	l.logger.Info("mqtt link running",
		zap.String("input_topic", l.cfg.InputTopic),
		zap.String("output_topic", l.cfg.OutputTopic),
		zap.String("debug_topic", l.cfg.DebugTopic),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload := <-l.queue:
			l.handle(payload)
		}
	}
}

func (l *Link) subscribe() error {
	tok := l.client.Subscribe(l.cfg.InputTopic, l.cfg.QoS, func(_ mqtt.Client, m mqtt.Message) {
		l.Enqueue(m.Payload())
	})
	if tok.Wait() && tok.Error() != nil {
		return fmt.Errorf("mqttlink: subscribe %s: %w", l.cfg.InputTopic, tok.Error())
	}
	return nil
}

// Enqueue queues a raw burst message. It reports false when the queue is
// full and the message was dropped.
func (l *Link) Enqueue(payload []byte) bool {
	l.received.Add(1)

	select {
	case l.queue <- payload:
		return true
	default:
		l.queueDrops.Add(1)
		l.logger.Warn("burst queue full, dropping message", zap.Int("queue_size", cap(l.queue)))
		return false
	}
}

func (l *Link) handle(payload []byte) {
	in, err := Decode(payload)
	if err != nil {
		l.failed.Add(1)
		l.logger.Warn("undecodable burst message", zap.Error(err), zap.Int("bytes", len(payload)))
		return
	}

	out, err := l.proc.Process(in)
	if err != nil {
		// The processor reports its own diagnostics.
		l.failed.Add(1)
		return
	}

	data, err := Encode(out)
	if err != nil {
		l.failed.Add(1)
		l.logger.Error("encode corrected burst", zap.Error(err))
		return
	}

	if err := l.publish(l.cfg.OutputTopic, data); err != nil {
		l.failed.Add(1)
		l.logger.Error("publish corrected burst", zap.Error(err))
		return
	}
	l.published.Add(1)
}

func (l *Link) publish(topic string, payload []byte) error {
	tok := l.client.Publish(topic, l.cfg.QoS, false, payload)
	if !tok.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqttlink: publish to %s timed out", topic)
	}
	return tok.Error()
}

// Debug implements [burst.DebugSink] by publishing rec to the debug topic.
// It does nothing when no debug topic is configured.
func (l *Link) Debug(rec burst.DebugRecord) {
	if l.cfg.DebugTopic == "" {
		return
	}

	data, err := EncodeDebug(rec)
	if err != nil {
		l.logger.Error("encode debug record", zap.Error(err))
		return
	}
	if err := l.publish(l.cfg.DebugTopic, data); err != nil {
		l.logger.Warn("publish debug record", zap.Error(err))
	}
}

// Stats returns the link counters.
func (l *Link) Stats() Stats {
	return Stats{
		Received:   l.received.Load(),
		QueueDrops: l.queueDrops.Load(),
		Published:  l.published.Load(),
		Failed:     l.failed.Load(),
	}
}
