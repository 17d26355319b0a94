package main

import (
	"fmt"

	"github.com/sirkon/qualcheck/internal/engine"
	"github.com/sirkon/qualcheck/internal/signedness"
)

// CheckerKind describes varieties of bundled checkers.
type CheckerKind int

const (
	CheckerKindInvalid CheckerKind = iota

	// CheckerKindSignedness tells signed values from unsigned ones.
	CheckerKindSignedness
)

var checkerKindValueMap = map[CheckerKind]string{
	CheckerKindSignedness: signedness.Name,
}

func (k CheckerKind) String() string {
	v, ok := checkerKindValueMap[k]
	if !ok {
		return fmt.Sprintf("invalid(%d)", k)
	}

	return v
}

// UnmarshalText for setting values with configs, CLI, etc.
func (k *CheckerKind) UnmarshalText(rawtext []byte) error {
	text := string(rawtext)
	for key, v := range checkerKindValueMap {
		if v == text {
			*k = key
			return nil
		}
	}

	return fmt.Errorf("unknown checker %q", text)
}

// MarshalText to have config values printed the way they are read.
func (k CheckerKind) MarshalText() ([]byte, error) {
	if _, ok := checkerKindValueMap[k]; !ok {
		return nil, fmt.Errorf("invalid checker kind %d", k)
	}

	return []byte(k.String()), nil
}

// newChecker builds a checker of the kind.
func (k CheckerKind) newChecker() (engine.Checker, error) {
	switch k {
	case CheckerKindSignedness:
		c, err := signedness.New()
		if err != nil {
			return nil, fmt.Errorf("setup %s checker: %w", k, err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported checker %s", k)
	}
}
