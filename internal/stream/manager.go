package stream

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/benbjohnson/clock"

	"SetupScanner/internal/domain/models"
	"SetupScanner/internal/domain/repository"
	"SetupScanner/pkg/logger"
	"SetupScanner/pkg/util"
)

var (
	ErrInvalidSymbol   = errors.New("invalid symbol")
	ErrInvalidInterval = errors.New("invalid interval")
	ErrNilListener     = errors.New("listener is required")
	ErrManagerClosed   = errors.New("stream manager is shut down")
)

// Manager keeps one live kline stream per symbol, reconnecting with backoff and
// force-closing connections that go silent.
type Manager struct {
	dialer  repository.Dialer
	decode  repository.KlineDecoder
	log     *logger.Logger
	metrics repository.Metrics
	opts    options

	mu     sync.Mutex
	active map[string]*entry
	// latest is the newest entry ever created per symbol, live or retiring.
	// A new entry waits on it so connections for one symbol never overlap.
	latest map[string]*entry
	closed bool
	wg     sync.WaitGroup
}

func NewManager(dialer repository.Dialer, decode repository.KlineDecoder, log *logger.Logger, metrics repository.Metrics, opts ...Option) *Manager {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{
		dialer:  dialer,
		decode:  decode,
		log:     log,
		metrics: metrics,
		opts:    o,
		active:  make(map[string]*entry),
		latest:  make(map[string]*entry),
	}
}

// Handle is returned by Subscribe. Close ends that subscription only if it was not replaced since.
type Handle struct {
	Symbol   string
	Interval string

	m *Manager
	e *entry
}

func (h *Handle) Close() {
	if h == nil || h.m == nil {
		return
	}
	h.m.remove(h.e)
}

type entry struct {
	symbol   string
	interval string
	listener Listener
	prev     *entry

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	state     models.ConnectionState
	attempts  int
	transport repository.Transport
	timer     *clock.Timer
}

// Subscribe opens the stream for symbol. An existing subscription for the same symbol is replaced.
func (m *Manager) Subscribe(symbol, interval string, l Listener) (*Handle, error) {
	symbol = util.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}
	if !util.ValidInterval(interval) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidInterval, interval)
	}
	if l == nil {
		return nil, ErrNilListener
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &entry{
		symbol:   symbol,
		interval: interval,
		listener: l,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		state:    models.StateDisconnected,
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		return nil, ErrManagerClosed
	}
	old := m.active[symbol]
	e.prev = m.latest[symbol]
	m.active[symbol] = e
	m.latest[symbol] = e
	m.wg.Add(1)
	m.mu.Unlock()

	if old != nil {
		if err := old.stop(); err != nil {
			m.log.Warn("Closing replaced stream", logger.String("symbol", symbol), logger.Error(err))
		}
	}

	m.log.Info("Subscribing to stream", logger.String("symbol", symbol), logger.String("interval", interval))
	go m.run(e)

	return &Handle{Symbol: symbol, Interval: interval, m: m, e: e}, nil
}

// Unsubscribe stops the symbol's stream. Unknown symbols are a no-op. Safe to call from a Listener.
func (m *Manager) Unsubscribe(symbol string) {
	symbol = util.NormalizeSymbol(symbol)
	m.mu.Lock()
	e := m.active[symbol]
	m.mu.Unlock()
	if e != nil {
		m.remove(e)
	}
}

func (m *Manager) remove(e *entry) {
	m.mu.Lock()
	if m.active[e.symbol] != e {
		m.mu.Unlock()
		return
	}
	delete(m.active, e.symbol)
	m.mu.Unlock()

	if err := e.stop(); err != nil {
		m.log.Warn("Closing stream", logger.String("symbol", e.symbol), logger.Error(err))
	}
	m.log.Info("Unsubscribed from stream", logger.String("symbol", e.symbol))
}

// GetConnectionStatus reports the symbol's state; untracked symbols are disconnected.
func (m *Manager) GetConnectionStatus(symbol string) models.ConnectionState {
	symbol = util.NormalizeSymbol(symbol)
	m.mu.Lock()
	e := m.active[symbol]
	m.mu.Unlock()
	if e == nil {
		return models.StateDisconnected
	}
	state, _ := e.snapshot()
	return state
}

// Statuses lists every tracked subscription, sorted by symbol.
func (m *Manager) Statuses() []models.StreamStatus {
	m.mu.Lock()
	entries := make([]*entry, 0, len(m.active))
	for _, e := range m.active {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	out := make([]models.StreamStatus, 0, len(entries))
	for _, e := range entries {
		state, attempts := e.snapshot()
		out = append(out, models.StreamStatus{
			Symbol:   e.symbol,
			Interval: e.interval,
			State:    state,
			Attempts: attempts,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// CloseAll stops every subscription. Close errors are logged and do not stop the sweep.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	entries := m.active
	m.active = make(map[string]*entry)
	m.mu.Unlock()

	for symbol, e := range entries {
		if err := e.stop(); err != nil {
			m.log.Warn("Closing stream", logger.String("symbol", symbol), logger.Error(err))
		}
	}
	m.log.Info("All streams closed", logger.Int("count", len(entries)))
}

// Shutdown rejects new subscriptions, closes all streams and waits for their goroutines.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.CloseAll()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) run(e *entry) {
	defer m.wg.Done()
	defer m.retire(e)

	if e.prev != nil {
		<-e.prev.done
		e.prev = nil
	}

	log := m.log.With(logger.String("symbol", e.symbol), logger.String("interval", e.interval))

	for {
		if e.ctx.Err() != nil {
			return
		}

		m.setState(e, models.StateConnecting)
		t, err := m.dialer.Dial(e.ctx, e.symbol, e.interval)
		switch {
		case err != nil:
			if e.ctx.Err() != nil {
				return
			}
			log.Warn("Stream dial failed", logger.Error(err))
			m.metrics.RecordError("dial")
			m.setState(e, models.StateError)
		case !e.attach(t):
			_ = t.Close()
			return
		default:
			m.pump(e, t, log)
			e.detach(t)
		}

		if e.ctx.Err() != nil {
			return
		}

		attempts := e.attemptCount()
		if attempts >= m.opts.maxAttempts {
			log.Error("Stream failed, reconnect attempts exhausted", logger.Int("attempts", attempts))
			m.setState(e, models.StateFailed)
			return
		}

		delay := Backoff(attempts, m.opts.baseDelay, m.opts.maxDelay)
		timer := m.opts.clock.Timer(delay)
		if !e.arm(timer) {
			timer.Stop()
			return
		}
		e.incAttempts()
		m.metrics.RecordReconnect(e.symbol)
		log.Info("Reconnecting stream", logger.Int("attempt", attempts+1), logger.Duration("delay_ms", delay))
		m.setState(e, models.StateReconnecting)

		select {
		case <-timer.C:
			e.disarm(timer)
		case <-e.ctx.Done():
			timer.Stop()
			return
		}
	}
}

// pump delivers messages from one connection until it ends.
func (m *Manager) pump(e *entry, t repository.Transport, log *logger.Logger) {
	msgs := make(chan []byte)
	errs := make(chan error, 1)
	quit := make(chan struct{})
	defer close(quit)

	go func() {
		for {
			b, err := t.ReadMessage()
			if err != nil {
				errs <- err
				return
			}
			select {
			case msgs <- b:
			case <-quit:
				return
			}
		}
	}()

	clk := m.opts.clock
	heartbeat := clk.Ticker(m.opts.heartbeatInterval)
	defer heartbeat.Stop()
	beats := heartbeat.C

	lastMsg := clk.Now()
	forced := false

	e.resetAttempts()
	m.setState(e, models.StateConnected)
	log.Info("Stream connected")

	for {
		select {
		case <-e.ctx.Done():
			return

		case b := <-msgs:
			lastMsg = clk.Now()
			m.metrics.RecordStreamMessage(e.symbol)
			candle, closed, err := m.decode(b)
			if err != nil {
				log.Warn("Dropping unparseable stream message", logger.Error(err))
				m.metrics.RecordError("parse")
				continue
			}
			if e.ctx.Err() != nil {
				return
			}
			m.metrics.RecordLastPrice(e.symbol, candle.Close)
			e.listener.OnUpdate(e.symbol, candle, closed)

		case <-beats:
			if silent := clk.Since(lastMsg); silent > m.opts.heartbeatTimeout {
				log.Warn("Stream silent, forcing reconnect", logger.Duration("silent_ms", silent))
				m.metrics.RecordError("heartbeat")
				forced = true
				heartbeat.Stop()
				beats = nil
				_ = t.Close()
			}

		case err := <-errs:
			if forced || e.ctx.Err() != nil {
				return
			}
			if errors.Is(err, repository.ErrStreamClosed) {
				log.Info("Stream closed by peer")
				return
			}
			log.Error("Stream read failed", logger.Error(err))
			m.metrics.RecordError("transport")
			m.setState(e, models.StateError)
			return
		}
	}
}

// setState records a transition and notifies the listener unless the entry was stopped.
func (m *Manager) setState(e *entry, s models.ConnectionState) {
	e.mu.Lock()
	if e.state == s {
		e.mu.Unlock()
		return
	}
	e.state = s
	e.mu.Unlock()

	m.metrics.RecordStateChange(e.symbol, s)
	if e.ctx.Err() != nil {
		return
	}
	e.listener.OnStateChange(e.symbol, s)
}

func (m *Manager) retire(e *entry) {
	m.mu.Lock()
	if m.latest[e.symbol] == e {
		delete(m.latest, e.symbol)
	}
	m.mu.Unlock()
	close(e.done)
}

// stop cancels the entry, its pending reconnect timer and then its transport.
func (e *entry) stop() error {
	e.cancel()

	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	t := e.transport
	e.transport = nil
	e.mu.Unlock()

	if t != nil {
		return t.Close()
	}
	return nil
}

func (e *entry) attach(t repository.Transport) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx.Err() != nil {
		return false
	}
	e.transport = t
	return true
}

func (e *entry) detach(t repository.Transport) {
	e.mu.Lock()
	owned := e.transport == t
	if owned {
		e.transport = nil
	}
	e.mu.Unlock()
	if owned {
		_ = t.Close()
	}
}

func (e *entry) arm(timer *clock.Timer) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx.Err() != nil {
		return false
	}
	e.timer = timer
	return true
}

func (e *entry) disarm(timer *clock.Timer) {
	e.mu.Lock()
	if e.timer == timer {
		e.timer = nil
	}
	e.mu.Unlock()
}

func (e *entry) snapshot() (models.ConnectionState, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, e.attempts
}

func (e *entry) attemptCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.attempts
}

func (e *entry) incAttempts() {
	e.mu.Lock()
	e.attempts++
	e.mu.Unlock()
}

func (e *entry) resetAttempts() {
	e.mu.Lock()
	e.attempts = 0
	e.mu.Unlock()
}
