package kafka

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"

	"SetupScanner/pkg/logger"
)

// MessageHandler consumes the payloads of one topic. A returned error triggers retries.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// Consumer reads registered topics through one kafka.Reader each and fans messages out to a
// worker pool. Every partition is pinned to one worker queue, so a partition's messages are
// handled and committed in offset order whatever the worker count. Offsets are committed only
// after a message is handled or dead-lettered.
type Consumer struct {
	cfg      *ConsumerConfig
	log      *logger.Logger
	metrics  *consumerMetrics
	hook     ConsumerHook
	handlers map[string]MessageHandler
	readers  map[string]*kafka.Reader
	dlq      *kafka.Writer

	queues   []chan *message
	stop     chan struct{}
	stopOnce sync.Once
	readWg   sync.WaitGroup
	workWg   sync.WaitGroup
}

type message struct {
	topic string
	data  []byte
	km    kafka.Message
}

func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "setupscanner",
		WorkerCount: 1,
		BufferSize:  10,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6,
		Logger:      logger.Nop(),
		Registerer:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka consumer: brokers are required")
	}

	c := &Consumer{
		cfg:      cfg,
		log:      cfg.Logger,
		metrics:  newConsumerMetrics(cfg.Registerer),
		hook:     NewHookChain(),
		handlers: make(map[string]MessageHandler),
		readers:  make(map[string]*kafka.Reader),
		queues:   make([]chan *message, cfg.WorkerCount),
		stop:     make(chan struct{}),
	}
	for i := range c.queues {
		c.queues[i] = make(chan *message, cfg.BufferSize)
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Topic: cfg.DLQTopic, Balancer: &kafka.LeastBytes{}}
	}
	return c, nil
}

// RegisterHandler binds h to its topic. The first handler registered for a topic wins.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	topic := h.Topic()
	if _, dup := c.handlers[topic]; dup {
		c.log.Warn("kafka consumer: duplicate handler ignored", logger.String("topic", topic))
		return
	}
	c.handlers[topic] = h
}

// WithConsumerHook replaces the lifecycle hook. Nil is ignored.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Start opens a reader per registered topic and launches the workers. New consumer groups
// start from the latest offset; requests published while no group existed are not replayed.
func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return errors.New("kafka consumer: no handlers registered")
	}

	for _, q := range c.queues {
		c.workWg.Add(1)
		go c.work(q)
	}
	for topic := range c.handlers {
		r := kafka.NewReader(kafka.ReaderConfig{
			Brokers:     c.cfg.Brokers,
			Topic:       topic,
			GroupID:     c.cfg.GroupID,
			MinBytes:    c.cfg.MinBytes,
			MaxBytes:    c.cfg.MaxBytes,
			StartOffset: kafka.LastOffset,
		})
		c.readers[topic] = r
		c.readWg.Add(1)
		go c.read(topic, r)
	}

	c.log.Info("kafka consumer started",
		logger.String("group_id", c.cfg.GroupID),
		logger.Int("topics", len(c.readers)),
		logger.Int("workers", c.cfg.WorkerCount),
	)
	return nil
}

// Stop halts the readers, drains queued messages through the workers and closes connections.
func (c *Consumer) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stop)

		// readers must exit before the queues close
		if err = wait(ctx, &c.readWg); err == nil {
			for _, q := range c.queues {
				close(q)
			}
			err = wait(ctx, &c.workWg)
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
		c.log.Info("kafka consumer stopped")
	})
	return err
}

func wait(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("kafka consumer: stop: %w", ctx.Err())
	}
}

// read fetches without auto-commit and blocks on a full queue rather than dropping.
func (c *Consumer) read(topic string, r *kafka.Reader) {
	defer c.readWg.Done()

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		km, err := r.FetchMessage(ctx)
		cancel()
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				c.log.Error("kafka consumer: fetch", logger.String("topic", topic), logger.Error(err))
			}
			continue
		}
		if !c.enqueue(&message{topic: topic, data: km.Value, km: km}) {
			return
		}
	}
}

func (c *Consumer) enqueue(m *message) bool {
	q := c.queueFor(m.topic, m.km.Partition)
	fullness := c.metrics.queueFullness.WithLabelValues(m.topic)
	fullness.Set(float64(len(q)) / float64(cap(q)))

	select {
	case q <- m:
		c.metrics.queueDepth.WithLabelValues(m.topic).Set(float64(len(q)))
		return true
	case <-c.stop:
		return false
	}
}

// queueFor pins a topic partition to one worker. Consecutive partitions of a topic land on
// different workers.
func (c *Consumer) queueFor(topic string, partition int) chan *message {
	h := fnv.New32a()
	_, _ = h.Write([]byte(topic))
	return c.queues[(h.Sum32()+uint32(partition))%uint32(len(c.queues))]
}

func (c *Consumer) work(q <-chan *message) {
	defer c.workWg.Done()
	for m := range q {
		c.process(m)
	}
}

// process runs the topic handler through the hook with bounded retries, then dead-letters
// a message that still fails. A handler panic is recorded and the offset left uncommitted.
func (c *Consumer) process(m *message) {
	h, ok := c.handlers[m.topic]
	if !ok {
		return
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("kafka consumer: handler panic", logger.String("topic", m.topic), logger.Any("panic", r))
			c.metrics.handled.WithLabelValues(m.topic, "panic").Inc()
		}
	}()

	attempts, err := c.handle(h, m)
	if err != nil && errors.Is(err, errStopped) {
		return
	}

	result := "ok"
	commit := err == nil
	if err != nil {
		result = "error"
		c.hook.OnError(context.Background(), m.topic, m.km, m.data, err)
		c.log.Error("kafka consumer: handler failed",
			logger.String("topic", m.topic),
			logger.Int("attempts", attempts),
			logger.Error(err),
		)
		if c.deadLetter(m) {
			result = "dead_lettered"
			commit = true
		}
	}
	c.metrics.handled.WithLabelValues(m.topic, result).Inc()
	c.metrics.handleLatency.WithLabelValues(m.topic).Observe(time.Since(start).Seconds())

	if commit {
		if r := c.readers[m.topic]; r != nil {
			_ = c.commit(r, m.km)
		}
	}
}

var errStopped = errors.New("consumer stopped")

// handle makes up to RetryMax+1 attempts. Intermediate failures go to the hook's OnError.
func (c *Consumer) handle(h MessageHandler, m *message) (int, error) {
	var err error
	for attempt := 1; ; attempt++ {
		ctx, km, data, berr := c.hook.BeforeHandle(context.Background(), m.topic, m.km, m.data)
		if berr != nil {
			return attempt, berr
		}
		err = h.Handle(ctx, data)
		c.hook.AfterHandle(ctx, m.topic, km, data, err)
		if err == nil || attempt > c.cfg.RetryMax {
			return attempt, err
		}
		c.hook.OnError(ctx, m.topic, km, data, err)

		select {
		case <-time.After(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempt)):
		case <-c.stop:
			return attempt, errStopped
		}
	}
}

func (c *Consumer) deadLetter(m *message) bool {
	if c.dlq == nil {
		return false
	}
	err := c.dlq.WriteMessages(context.Background(), kafka.Message{
		Key:     m.km.Key,
		Value:   m.data,
		Time:    time.Now(),
		Headers: append(m.km.Headers, kafka.Header{Key: "source_topic", Value: []byte(m.topic)}),
	})
	if err != nil {
		c.log.Error("kafka consumer: dead-letter write", logger.String("dlq_topic", c.cfg.DLQTopic), logger.Error(err))
		return false
	}
	return true
}

// commit retries the offset commit three times before giving up; the message may then be redelivered.
func (c *Consumer) commit(r *kafka.Reader, km kafka.Message) error {
	const attempts = 3
	var err error
	for i := 1; i <= attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = r.CommitMessages(ctx, km)
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, i))
	}
	c.log.Error("kafka consumer: commit failed", logger.Int64("offset", km.Offset), logger.Error(err))
	return err
}

// backoffWithJitter doubles min per attempt up to max, then subtracts up to half as jitter.
// Durations too short to halve are returned as is.
func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	d := max
	if attempt < 32 {
		if exp := min << uint(attempt-1); exp > 0 && exp < max {
			d = exp
		}
	}
	if half := int64(d) / 2; half > 0 {
		d -= time.Duration(rand.Int63n(half))
	}
	return d
}
