package models

import (
	"fmt"
	"strings"
)

type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// ParseDirection accepts LONG/SHORT and the BULLISH/BEARISH aliases, case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LONG", "BULLISH", "BUY":
		return Long, nil
	case "SHORT", "BEARISH", "SELL":
		return Short, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// Opposite returns the other side; unknown directions stay unknown.
func (d Direction) Opposite() Direction {
	switch d {
	case Long:
		return Short
	case Short:
		return Long
	}
	return d
}

func (d Direction) Valid() bool { return d == Long || d == Short }

// UnmarshalText folds aliases onto LONG/SHORT. Unknown values are kept upper-cased so validation can reject them.
func (d *Direction) UnmarshalText(b []byte) error {
	if p, err := ParseDirection(string(b)); err == nil {
		*d = p
		return nil
	}
	*d = Direction(strings.ToUpper(strings.TrimSpace(string(b))))
	return nil
}
