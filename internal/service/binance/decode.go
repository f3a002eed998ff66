package binance

import (
	"encoding/json"
	"fmt"

	gobinance "github.com/adshao/go-binance/v2"

	"SetupScanner/internal/domain/models"
)

// DecodeKline parses a raw kline stream payload into the candle and its closed flag.
// It satisfies repository.KlineDecoder.
func DecodeKline(msg []byte) (models.Candle, bool, error) {
	var ev gobinance.WsKlineEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		return models.Candle{}, false, fmt.Errorf("decode kline event: %w", err)
	}
	if ev.Event != "kline" {
		return models.Candle{}, false, fmt.Errorf("decode kline event: unexpected event %q", ev.Event)
	}
	k := ev.Kline
	c, err := parseOHLCV(k.StartTime, k.Open, k.High, k.Low, k.Close, k.Volume)
	if err != nil {
		return models.Candle{}, false, fmt.Errorf("decode kline event: %w", err)
	}
	return c, k.IsFinal, nil
}
