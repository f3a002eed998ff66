package kafka

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
)

func TestEncodeValue(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
	}{
		{[]byte("raw"), "raw"},
		{"text", "text"},
		{map[string]int{"a": 1}, `{"a":1}`},
	}
	for _, tc := range cases {
		got, err := encodeValue(tc.in)
		if err != nil || string(got) != tc.want {
			t.Fatalf("encodeValue(%v) = %q, %v", tc.in, got, err)
		}
	}
	if _, err := encodeValue(make(chan int)); err == nil {
		t.Fatal("channels cannot be encoded")
	}
}

func TestNewProducerHashBalancer(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithHashByKey(true), WithProducerRegisterer(reg))
	if err != nil {
		t.Fatalf("NewProducer: %v", err)
	}
	defer p.Close()
	if _, ok := p.writer.Balancer.(*kafka.Hash); !ok {
		t.Fatalf("balancer = %T, want *kafka.Hash", p.writer.Balancer)
	}

	// a second producer on the same registry reuses the collectors
	p2, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithProducerRegisterer(reg))
	if err != nil {
		t.Fatalf("second NewProducer: %v", err)
	}
	defer p2.Close()
	if p2.metrics.msgsTotal != p.metrics.msgsTotal {
		t.Fatal("collectors should be shared on one registry")
	}
}

func TestCompressionCodec(t *testing.T) {
	if compressionCodec("zstd") != kafka.Zstd || compressionCodec("bogus") != kafka.Gzip {
		t.Fatal("unexpected compression mapping")
	}
}

func TestToHeaders(t *testing.T) {
	if toHeaders(nil) != nil {
		t.Fatal("empty map should give no headers")
	}
	hs := toHeaders(map[string]string{TraceHeader: "abc"})
	if len(hs) != 1 || hs[0].Key != TraceHeader || string(hs[0].Value) != "abc" {
		t.Fatalf("headers = %+v", hs)
	}
}

func TestPublishEncodeFailureSendsNothing(t *testing.T) {
	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithProducerRegisterer(prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("NewProducer: %v", err)
	}
	defer p.Close()
	if err := p.Publish(context.Background(), "scan.results", Message{Value: make(chan int)}); err == nil {
		t.Fatal("expected encode error")
	}
	if err := p.Publish(context.Background(), "scan.results"); err != nil {
		t.Fatalf("empty publish: %v", err)
	}
}

func TestProducerCloseTwice(t *testing.T) {
	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithProducerRegisterer(prometheus.NewRegistry()))
	if err != nil {
		t.Fatalf("NewProducer: %v", err)
	}
	first := p.Close()
	if second := p.Close(); second != first {
		t.Fatalf("second Close = %v, first = %v", second, first)
	}
}
