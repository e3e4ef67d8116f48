package game

import (
	"fmt"
	"log/slog"
)

// Outcome is the result of a single Turn.
type Outcome uint8

const (
	Continues Outcome = iota
	Terminated
)

func (o Outcome) String() string {
	if o == Terminated {
		return "terminated"
	}
	return "continues"
}

// Cause records why a game terminated.
type Cause uint8

const (
	CauseNone Cause = iota
	CauseWall
	CauseSelf
	CauseBoardFull
)

var causeNames = [...]string{"none", "wall", "self", "board_full"}

func (c Cause) String() string {
	if int(c) < len(causeNames) {
		return causeNames[c]
	}
	return "unknown"
}

func (c Cause) LogValue() slog.Value {
	return slog.StringValue(c.String())
}

// MarshalText lets causes appear by name in JSON frames.
func (c Cause) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Cause) UnmarshalText(b []byte) error {
	v, err := ParseCause(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseCause is the inverse of Cause.String.
func ParseCause(s string) (Cause, error) {
	for i, name := range causeNames {
		if name == s {
			return Cause(i), nil
		}
	}
	return CauseNone, fmt.Errorf("unknown cause %q", s)
}
