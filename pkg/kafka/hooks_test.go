package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestHookChainOrderAndThreading(t *testing.T) {
	var order []string
	mk := func(name string) ConsumerHook {
		return HookFuncs{
			Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
				order = append(order, "before:"+name)
				return ctx, km, append(data, name...), nil
			},
			After: func(context.Context, string, kafka.Message, []byte, error) {
				order = append(order, "after:"+name)
			},
		}
	}
	chain := NewHookChain(mk("a"), nil, mk("b"))

	_, _, data, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, []byte("x"))
	if err != nil {
		t.Fatalf("BeforeHandle: %v", err)
	}
	if string(data) != "xab" {
		t.Fatalf("data = %q, want xab", data)
	}
	chain.AfterHandle(context.Background(), "t", kafka.Message{}, data, nil)

	want := []string{"before:a", "before:b", "after:b", "after:a"}
	if len(order) != len(want) {
		t.Fatalf("order = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestHookChainPanicBecomesError(t *testing.T) {
	var notified int
	panicky := HookFuncs{
		Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
			panic("boom")
		},
	}
	counter := HookFuncs{
		Err: func(context.Context, string, kafka.Message, []byte, error) { notified++ },
	}
	chain := NewHookChain(panicky, counter)

	_, _, _, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	var he *HookError
	if !errors.As(err, &he) || he.Code != "ERR_PANIC" {
		t.Fatalf("err = %v, want HookError ERR_PANIC", err)
	}
	if notified != 1 {
		t.Fatalf("OnError calls = %d, want 1", notified)
	}
}

func TestExtractTraceID(t *testing.T) {
	km := kafka.Message{Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}}}
	if got := ExtractTraceID(km); got != "abc" {
		t.Fatalf("trace id = %q", got)
	}
	if got := ExtractTraceID(kafka.Message{}); got != "" {
		t.Fatalf("trace id = %q, want empty", got)
	}
}

func TestTraceHookFallsBackToOffset(t *testing.T) {
	h := TraceHook()
	ctx, _, _, err := h.BeforeHandle(context.Background(), "scan.requests", kafka.Message{Partition: 2, Offset: 41}, nil)
	if err != nil || TraceID(ctx) != "scan.requests/2/41" {
		t.Fatalf("trace id = %q err = %v", TraceID(ctx), err)
	}

	km := kafka.Message{Headers: []kafka.Header{{Key: TraceHeader, Value: []byte("req-7")}}}
	ctx, _, _, _ = h.BeforeHandle(context.Background(), "scan.requests", km, nil)
	if TraceID(ctx) != "req-7" {
		t.Fatalf("trace id = %q", TraceID(ctx))
	}
}
