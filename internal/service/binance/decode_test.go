package binance

import (
	"fmt"
	"testing"
	"time"
)

const klinePayload = `{"e":"kline","E":1700000060123,"s":"BTCUSDT","k":{"t":1700000040000,"T":1700000099999,"s":"BTCUSDT","i":"1m","f":100,"L":200,"o":"37000.10","c":"37010.50","h":"37020.00","l":"36990.00","v":"12.5","n":100,"x":%s,"q":"462600.1","V":"6.1","Q":"225000.0","B":"0"}}`

func payload(final string) []byte {
	return []byte(fmt.Sprintf(klinePayload, final))
}

func TestDecodeKline(t *testing.T) {
	c, closed, err := DecodeKline(payload("true"))
	if err != nil {
		t.Fatalf("DecodeKline: %v", err)
	}
	if !closed {
		t.Fatal("expected closed candle")
	}
	if !c.Time.Equal(time.UnixMilli(1700000040000)) {
		t.Fatalf("time = %v", c.Time)
	}
	if c.Open != 37000.10 || c.High != 37020 || c.Low != 36990 || c.Close != 37010.50 || c.Volume != 12.5 {
		t.Fatalf("candle = %+v", c)
	}

	if _, closed, err := DecodeKline(payload("false")); err != nil || closed {
		t.Fatalf("open candle: closed=%v err=%v", closed, err)
	}
}

func TestDecodeKlineRejects(t *testing.T) {
	cases := map[string]string{
		"not json":      `{"e":`,
		"other event":   `{"e":"trade","s":"BTCUSDT"}`,
		"bad price":     `{"e":"kline","k":{"t":1,"o":"abc","c":"1","h":"1","l":"1","v":"1"}}`,
		"empty payload": ``,
	}
	for name, msg := range cases {
		if _, _, err := DecodeKline([]byte(msg)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
