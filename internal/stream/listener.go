package stream

import "SetupScanner/internal/domain/models"

// Listener receives a subscription's events. Calls for one symbol come from a single goroutine,
// in arrival order for updates and transition order for states. A failed dial reports error
// then reconnecting; once attempts run out the sequence ends connecting, error, failed and no
// further events follow.
type Listener interface {
	OnUpdate(symbol string, candle models.Candle, closed bool)
	OnStateChange(symbol string, state models.ConnectionState)
}

// ListenerFuncs adapts plain functions to Listener. Nil functions are skipped.
type ListenerFuncs struct {
	Update func(symbol string, candle models.Candle, closed bool)
	State  func(symbol string, state models.ConnectionState)
}

func (l ListenerFuncs) OnUpdate(symbol string, candle models.Candle, closed bool) {
	if l.Update != nil {
		l.Update(symbol, candle, closed)
	}
}

func (l ListenerFuncs) OnStateChange(symbol string, state models.ConnectionState) {
	if l.State != nil {
		l.State(symbol, state)
	}
}
