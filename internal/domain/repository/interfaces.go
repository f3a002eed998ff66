package repository

import (
	"context"
	"errors"

	"SetupScanner/internal/domain/models"
)

// ErrStreamClosed is returned by Transport.ReadMessage when the peer closed the stream cleanly.
var ErrStreamClosed = errors.New("stream closed")

// CandleSource provides historical candles, oldest first.
type CandleSource interface {
	GetLatestNCandles(ctx context.Context, symbol, interval string, n int) ([]models.Candle, error)
}

// Transport is one live stream connection.
type Transport interface {
	ReadMessage() ([]byte, error)
	Close() error
}

// Dialer opens the stream for a (symbol, interval) pair.
type Dialer interface {
	Dial(ctx context.Context, symbol, interval string) (Transport, error)
}

// KlineDecoder turns one stream message into a candle and its closed flag.
type KlineDecoder func(msg []byte) (models.Candle, bool, error)

// ResultPublisher ships scan results downstream.
type ResultPublisher interface {
	PublishResult(ctx context.Context, r *models.ScanResult) error
	Close() error
}

type Metrics interface {
	RecordStreamMessage(symbol string)
	RecordStateChange(symbol string, state models.ConnectionState)
	RecordReconnect(symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordScan(symbol, grade string)
}
