package entity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// FrameType is the picture type ffprobe reports for a decoded frame.
type FrameType string

const (
	FrameTypeI FrameType = "I"
	FrameTypeP FrameType = "P"
	FrameTypeB FrameType = "B"
)

var ErrUnknownFrameType = errors.New("unknown frame type")

// AllFrameTypes returns I, P and B in that order.
func AllFrameTypes() []FrameType {
	return []FrameType{FrameTypeI, FrameTypeP, FrameTypeB}
}

func ParseFrameType(s string) (FrameType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "I":
		return FrameTypeI, nil
	case "P":
		return FrameTypeP, nil
	case "B":
		return FrameTypeB, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFrameType, s)
}

func (t FrameType) String() string {
	return string(t)
}

// DirName is the conventional extraction directory for frames of this type.
func (t FrameType) DirName() string {
	return string(t) + "_frames"
}

// Rational is a frame rate as ffprobe reports it, e.g. 30000/1001.
type Rational struct {
	Num int64
	Den int64
}

var ErrInvalidRational = errors.New("invalid rational")

// ParseRational reads "num/den" or a bare integer. Both sides must be
// base-10 integers and the denominator must be non-zero.
func ParseRational(s string) (Rational, error) {
	s = strings.TrimSpace(s)
	numStr, denStr, hasDen := strings.Cut(s, "/")
	if !hasDen {
		denStr = "1"
	}

	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("%w %q: numerator: %v", ErrInvalidRational, s, err)
	}
	den, err := strconv.ParseInt(strings.TrimSpace(denStr), 10, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("%w %q: denominator: %v", ErrInvalidRational, s, err)
	}
	if den == 0 {
		return Rational{}, fmt.Errorf("%w %q: zero denominator", ErrInvalidRational, s)
	}
	if den < 0 {
		num, den = -num, -den
	}
	return Rational{Num: num, Den: den}, nil
}

func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

func (r Rational) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Rational) UnmarshalText(b []byte) error {
	parsed, err := ParseRational(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// StreamInfo describes the first video stream of a probed file.
type StreamInfo struct {
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Duration   float64  `json:"duration_seconds"`
	FrameRate  Rational `json:"frame_rate"`
	FrameCount int      `json:"frame_count"`
}

func (s StreamInfo) Validate() error {
	switch {
	case s.Width <= 0:
		return fmt.Errorf("width must be positive, got %d", s.Width)
	case s.Height <= 0:
		return fmt.Errorf("height must be positive, got %d", s.Height)
	case s.Duration <= 0:
		return fmt.Errorf("duration must be positive, got %g", s.Duration)
	case s.FrameRate.Num <= 0 || s.FrameRate.Den <= 0:
		return fmt.Errorf("frame rate must be positive, got %s", s.FrameRate)
	case s.FrameCount < 0:
		return fmt.Errorf("frame count must not be negative, got %d", s.FrameCount)
	}
	return nil
}
