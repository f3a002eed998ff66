package binance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"SetupScanner/internal/domain/repository"
)

const DefaultWSURL = "wss://stream.binance.com:9443/ws"

// WSDialer opens one raw kline stream per symbol.
type WSDialer struct {
	baseURL          string
	handshakeTimeout time.Duration
	pingInterval     time.Duration
}

func NewWSDialer(baseURL string, pingInterval time.Duration) *WSDialer {
	if baseURL == "" {
		baseURL = DefaultWSURL
	}
	return &WSDialer{
		baseURL:          strings.TrimRight(baseURL, "/"),
		handshakeTimeout: 10 * time.Second,
		pingInterval:     pingInterval,
	}
}

// StreamURL is <base>/<symbol>@kline_<interval> with the symbol lower-cased.
func (d *WSDialer) StreamURL(symbol, interval string) string {
	return fmt.Sprintf("%s/%s@kline_%s", d.baseURL, strings.ToLower(symbol), interval)
}

func (d *WSDialer) Dial(ctx context.Context, symbol, interval string) (repository.Transport, error) {
	dialer := websocket.Dialer{HandshakeTimeout: d.handshakeTimeout}
	u := d.StreamURL(symbol, interval)
	conn, _, err := dialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("binance ws connect %s: %w", u, err)
	}

	t := &wsTransport{conn: conn, done: make(chan struct{})}
	if d.pingInterval > 0 {
		go t.pingLoop(d.pingInterval)
	}
	return t, nil
}

type wsTransport struct {
	conn *websocket.Conn
	wmu  sync.Mutex
	done chan struct{}
	once sync.Once
}

// ReadMessage returns the next data frame. A normal closure surfaces as repository.ErrStreamClosed.
func (t *wsTransport) ReadMessage() ([]byte, error) {
	for {
		kind, b, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, fmt.Errorf("%w: %v", repository.ErrStreamClosed, err)
			}
			return nil, err
		}
		if kind == websocket.TextMessage || kind == websocket.BinaryMessage {
			return b, nil
		}
	}
}

func (t *wsTransport) pingLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.wmu.Lock()
			err := t.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			t.wmu.Unlock()
			if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				return
			}
		}
	}
}

// Close sends a close frame when possible and releases the socket. Safe to call twice.
func (t *wsTransport) Close() error {
	var err error
	t.once.Do(func() {
		close(t.done)
		t.wmu.Lock()
		_ = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		t.wmu.Unlock()
		err = t.conn.Close()
	})
	return err
}
