package kafka

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"

	"AltCredit/pkg/logger"
)

// MessageHandler handles messages from one topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// ErrPermanent marks handler errors that retrying cannot fix, such as
// undecodable payloads. They go straight to the DLQ.
var ErrPermanent = errors.New("permanent failure")

type permanentError struct{ err error }

func (e *permanentError) Error() string        { return e.err.Error() }
func (e *permanentError) Unwrap() error        { return e.err }
func (e *permanentError) Is(target error) bool { return target == ErrPermanent }

// Permanent wraps err so the consumer skips retries.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool { return errors.Is(err, ErrPermanent) }

// Consumer fans messages from one reader per topic out to a worker pool.
// Every (topic, partition) is pinned to one worker queue, so a partition's
// messages are handled and committed in fetch order. A message that fails
// without reaching the DLQ holds its partition until it succeeds or the
// consumer stops, so no later offset is committed past it.
type Consumer struct {
	cfg      *ConsumerConfig
	log      *logger.Logger
	hook     ConsumerHook
	metrics  *consumerMetrics
	handlers map[string]MessageHandler
	readers  map[string]*kafka.Reader
	dlq      *kafka.Writer
	queues   []chan delivery

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

type delivery struct {
	topic string
	km    kafka.Message
}

func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := defaultConsumerConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Consumer{
		cfg:      cfg,
		log:      cfg.Logger,
		hook:     cfg.Hook,
		metrics:  defaultConsumerMetrics(),
		handlers: make(map[string]MessageHandler),
		readers:  make(map[string]*kafka.Reader),
		queues:   make([]chan delivery, cfg.WorkerCount),
		ctx:      ctx,
		cancel:   cancel,
	}
	for i := range c.queues {
		c.queues[i] = make(chan delivery, cfg.BufferSize)
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Topic: cfg.DLQTopic, Balancer: &kafka.Hash{}}
	}
	return c, nil
}

// RegisterHandler must be called before Start. A second handler for the same
// topic is ignored.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	topic := h.Topic()
	if _, ok := c.handlers[topic]; ok {
		c.log.Warn("kafka consumer: handler already registered", logger.String("topic", topic))
		return
	}
	c.handlers[topic] = h
}

// Start opens the readers and returns immediately.
func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return fmt.Errorf("no handlers registered")
	}

	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.cfg.Brokers,
			Topic:    topic,
			GroupID:  c.cfg.GroupID,
			MinBytes: c.cfg.MinBytes,
			MaxBytes: c.cfg.MaxBytes,
		})
	}
	c.startWorkers()
	for topic, r := range c.readers {
		c.wg.Add(1)
		go c.fetch(topic, r)
	}

	c.log.Info("kafka consumer: started",
		logger.Int("workers", c.cfg.WorkerCount),
		logger.Int("topics", len(c.readers)),
		logger.String("group", c.cfg.GroupID),
	)
	return nil
}

// Stop cancels fetching, waits for in-flight handlers up to ctx and closes
// the readers.
func (c *Consumer) Stop(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		c.cancel()

		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
		}

		for topic, r := range c.readers {
			if cerr := r.Close(); cerr != nil {
				c.log.Error("kafka consumer: close reader", logger.String("topic", topic), logger.Error(cerr))
			}
		}
		if c.dlq != nil {
			if cerr := c.dlq.Close(); cerr != nil {
				c.log.Error("kafka consumer: close dlq writer", logger.Error(cerr))
			}
		}
	})
	return err
}

func (c *Consumer) fetch(topic string, r *kafka.Reader) {
	defer c.wg.Done()
	for {
		km, err := r.FetchMessage(c.ctx)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.log.Error("kafka consumer: fetch", logger.String("topic", topic), logger.Error(err))
			if !sleepCtx(c.ctx, c.cfg.BackoffMax) {
				return
			}
			continue
		}

		if !c.dispatch(delivery{topic: topic, km: km}) {
			return
		}
	}
}

// dispatch blocks under backpressure instead of dropping. It returns false
// once the consumer is stopping.
func (c *Consumer) dispatch(d delivery) bool {
	q := c.queues[c.workerFor(d.topic, d.km.Partition)]
	select {
	case q <- d:
		c.metrics.queueDepth.WithLabelValues(d.topic).Set(float64(len(q)))
		return true
	case <-c.ctx.Done():
		return false
	}
}

func (c *Consumer) workerFor(topic string, partition int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(topic))
	_, _ = h.Write([]byte{byte(partition >> 24), byte(partition >> 16), byte(partition >> 8), byte(partition)})
	return int(h.Sum32() % uint32(len(c.queues)))
}

func (c *Consumer) startWorkers() {
	for _, q := range c.queues {
		c.wg.Add(1)
		go c.work(q)
	}
}

func (c *Consumer) work(q <-chan delivery) {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			return
		case d := <-q:
			c.process(d)
		}
	}
}

// process handles d until it is committed or the consumer stops. Success,
// a DLQ write and a permanent failure without DLQ all commit. A transient
// failure without DLQ is retried at the maximum backoff and never committed.
func (c *Consumer) process(d delivery) {
	h, ok := c.handlers[d.topic]
	if !ok {
		return
	}

	for {
		start := time.Now()
		attempts, err := c.handle(h, d)
		c.metrics.handleSeconds.WithLabelValues(d.topic).Observe(time.Since(start).Seconds())
		if err == nil {
			c.metrics.handled.WithLabelValues(d.topic, "ok").Inc()
			c.commit(d)
			return
		}
		if errors.Is(err, context.Canceled) && c.ctx.Err() != nil {
			return
		}

		c.hook.OnError(c.ctx, &Delivery{Topic: d.topic, Message: d.km, Data: d.km.Value}, err)
		c.log.Error("kafka consumer: handle failed",
			logger.String("topic", d.topic),
			logger.Int("partition", d.km.Partition),
			logger.Int64("offset", d.km.Offset),
			logger.Int("attempts", attempts),
			logger.Error(err),
		)

		switch {
		case c.deadLetter(d, attempts, err):
			c.metrics.handled.WithLabelValues(d.topic, "dlq").Inc()
			c.commit(d)
			return
		case unretryable(err):
			c.metrics.handled.WithLabelValues(d.topic, "dropped").Inc()
			c.commit(d)
			return
		}

		c.metrics.handled.WithLabelValues(d.topic, "failed").Inc()
		if !sleepCtx(c.ctx, c.cfg.BackoffMax) {
			return
		}
	}
}

func unretryable(err error) bool {
	var he *HookError
	return IsPermanent(err) || errors.As(err, &he)
}

// handle runs hooks and the handler with retries. Panics count as
// permanent failures.
func (c *Consumer) handle(h MessageHandler, d delivery) (attempts int, err error) {
	for {
		attempts++
		err = c.attempt(h, d)
		if err == nil || attempts > c.cfg.RetryMax || unretryable(err) {
			return attempts, err
		}
		if !sleepCtx(c.ctx, backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempts)) {
			return attempts, context.Canceled
		}
	}
}

func (c *Consumer) attempt(h MessageHandler, d delivery) (err error) {
	dd := &Delivery{Topic: d.topic, Message: d.km, Data: d.km.Value}
	defer func() {
		if r := recover(); r != nil {
			err = Permanent(fmt.Errorf("handler panic: %v", r))
		}
	}()

	ctx, err := c.hook.BeforeHandle(c.ctx, dd)
	if err != nil {
		return err
	}
	err = h.Handle(ctx, dd.Data)
	c.hook.AfterHandle(ctx, dd, err)
	return err
}

func (c *Consumer) deadLetter(d delivery, attempts int, cause error) bool {
	if c.dlq == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := c.dlq.WriteMessages(ctx, kafka.Message{
		Key:   d.km.Key,
		Value: d.km.Value,
		Headers: append(d.km.Headers,
			kafka.Header{Key: "source_topic", Value: []byte(d.topic)},
			kafka.Header{Key: "source_offset", Value: []byte(strconv.FormatInt(d.km.Offset, 10))},
			kafka.Header{Key: "attempts", Value: []byte(strconv.Itoa(attempts))},
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
		),
	})
	if err != nil {
		c.log.Error("kafka consumer: dlq write", logger.String("dlq", c.cfg.DLQTopic), logger.Error(err))
		return false
	}
	return true
}

func (c *Consumer) commit(d delivery) {
	r := c.readers[d.topic]
	if r == nil {
		return
	}
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = r.CommitMessages(ctx, d.km)
		cancel()
		if err == nil {
			return
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.log.Error("kafka consumer: commit failed",
		logger.String("topic", d.topic),
		logger.Int64("offset", d.km.Offset),
		logger.Error(err),
	)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// backoffWithJitter doubles from min per attempt, caps at max and removes up
// to half of the delay at random.
func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	if attempt < 1 {
		attempt = 1
	}
	d := max
	if attempt < 32 {
		if exp := min << uint(attempt-1); exp > 0 && exp < max {
			d = exp
		}
	}
	half := int64(d) / 2
	if half <= 0 {
		return d
	}
	return d - time.Duration(rand.Int64N(half))
}

type consumerMetrics struct {
	queueDepth    *prometheus.GaugeVec
	handleSeconds *prometheus.HistogramVec
	handled       *prometheus.CounterVec
}

var (
	consumerMetricsOnce sync.Once
	consumerM           *consumerMetrics
)

func defaultConsumerMetrics() *consumerMetrics {
	consumerMetricsOnce.Do(func() { consumerM = newConsumerMetrics(prometheus.DefaultRegisterer) })
	return consumerM
}

func newConsumerMetrics(reg prometheus.Registerer) *consumerMetrics {
	f := promauto.With(reg)
	return &consumerMetrics{
		queueDepth: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "altcredit_kafka_consumer_queue_depth",
			Help: "Messages fetched but not yet picked up by a worker",
		}, []string{"topic"}),
		handleSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "altcredit_kafka_consumer_handle_seconds",
			Help:    "Handling time per message including retries",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"}),
		handled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "altcredit_kafka_consumer_messages_total",
			Help: "Handling outcomes (ok, dlq, dropped, failed attempt rounds)",
		}, []string{"topic", "result"}),
	}
}
