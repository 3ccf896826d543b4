// Package color converts between Rime's byte-swapped BGR color literals
// (0xBBGGRR, or 0xAABBGGRR with alpha) and channel-ordered display colors.
package color

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidLiteral reports a literal that is not a 6 or 8 digit hex color.
	ErrInvalidLiteral = errors.New("color: invalid literal")
	// ErrInvalidDisplay reports a display string that is not #RRGGBB.
	ErrInvalidDisplay = errors.New("color: invalid display color")
)

// Channels holds a color in channel order. HasAlpha selects the 8 digit form.
type Channels struct {
	Red      uint8
	Green    uint8
	Blue     uint8
	Alpha    uint8
	HasAlpha bool
}

// Opaque returns channels without alpha.
func Opaque(red, green, blue uint8) Channels {
	return Channels{Red: red, Green: green, Blue: blue}
}

// WithAlpha returns channels with an alpha byte.
func WithAlpha(red, green, blue, alpha uint8) Channels {
	return Channels{Red: red, Green: green, Blue: blue, Alpha: alpha, HasAlpha: true}
}

// Decode parses a BGR literal. Text literals may carry a 0x prefix; their
// digit count (6 or 8) decides whether an alpha byte is present. Integers are
// accepted too, in which case alpha is present when the value needs more
// than 24 bits.
func Decode(literal any) (Channels, error) {
	switch typed := literal.(type) {
	case string:
		return decodeText(typed)
	case int:
		return decodeInt(int64(typed))
	case int32:
		return decodeInt(int64(typed))
	case int64:
		return decodeInt(typed)
	case uint32:
		return decodeInt(int64(typed))
	case uint64:
		if typed > math.MaxUint32 {
			return Channels{}, fmt.Errorf("%w: %d exceeds 32 bits", ErrInvalidLiteral, typed)
		}
		return decodeInt(int64(typed))
	case float64:
		if typed != math.Trunc(typed) {
			return Channels{}, fmt.Errorf("%w: %v is not an integer", ErrInvalidLiteral, typed)
		}
		return decodeInt(int64(typed))
	default:
		return Channels{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidLiteral, literal)
	}
}

func decodeText(text string) (Channels, error) {
	digits := strings.TrimSpace(text)
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		digits = digits[2:]
	}
	if len(digits) != 6 && len(digits) != 8 {
		return Channels{}, fmt.Errorf("%w: %q", ErrInvalidLiteral, text)
	}
	value, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return Channels{}, fmt.Errorf("%w: %q", ErrInvalidLiteral, text)
	}
	return fromBits(uint32(value), len(digits) == 8), nil
}

func decodeInt(value int64) (Channels, error) {
	if value < 0 || value > math.MaxUint32 {
		return Channels{}, fmt.Errorf("%w: %d out of range", ErrInvalidLiteral, value)
	}
	return fromBits(uint32(value), value > 0xFFFFFF), nil
}

func fromBits(bits uint32, hasAlpha bool) Channels {
	c := Channels{
		Blue:  uint8(bits >> 16),
		Green: uint8(bits >> 8),
		Red:   uint8(bits),
	}
	if hasAlpha {
		c.Alpha = uint8(bits >> 24)
		c.HasAlpha = true
	}
	return c
}

// Bits returns the BGR integer for c.
func (c Channels) Bits() uint32 {
	bits := uint32(c.Blue)<<16 | uint32(c.Green)<<8 | uint32(c.Red)
	if c.HasAlpha {
		bits |= uint32(c.Alpha) << 24
	}
	return bits
}

// Encode renders c as an uppercase, zero padded BGR literal with a 0x prefix.
func Encode(c Channels) string {
	if c.HasAlpha {
		return fmt.Sprintf("0x%08X", c.Bits())
	}
	return fmt.Sprintf("0x%06X", c.Bits())
}

// EncodeInt renders an integer parsed out of a document, inferring the width
// from its magnitude.
func EncodeInt(value int64) (string, error) {
	c, err := decodeInt(value)
	if err != nil {
		return "", err
	}
	return Encode(c), nil
}

// Normalize re-renders a literal in canonical form.
func Normalize(literal any) (string, error) {
	c, err := Decode(literal)
	if err != nil {
		return "", err
	}
	return Encode(c), nil
}

// IsLiteral reports whether s is a 6 or 8 digit hex literal with a 0x prefix.
func IsLiteral(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return false
	}
	_, err := decodeText(s)
	return err == nil
}

// Display renders c as #rrggbb, or rgba(r, g, b, a) with alpha in [0,1]
// rounded to two decimals.
func (c Channels) Display() string {
	if c.HasAlpha {
		return fmt.Sprintf("rgba(%d, %d, %d, %.2f)", c.Red, c.Green, c.Blue, float64(c.Alpha)/255)
	}
	return fmt.Sprintf("#%02x%02x%02x", c.Red, c.Green, c.Blue)
}

// ToDisplay converts a stored literal into a display color.
func ToDisplay(literal any) (string, error) {
	c, err := Decode(literal)
	if err != nil {
		return "", err
	}
	return c.Display(), nil
}

// ParseDisplay parses #RRGGBB (the leading # is optional) into opaque
// channels.
func ParseDisplay(display string) (Channels, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(display), "#")
	if len(hex) != 6 {
		return Channels{}, fmt.Errorf("%w: %q", ErrInvalidDisplay, display)
	}
	value, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Channels{}, fmt.Errorf("%w: %q", ErrInvalidDisplay, display)
	}
	return Opaque(uint8(value>>16), uint8(value>>8), uint8(value)), nil
}

// ToStored converts a #RRGGBB display color into a 0xBBGGRR literal. Alpha
// is not supported in this direction.
func ToStored(display string) (string, error) {
	c, err := ParseDisplay(display)
	if err != nil {
		return "", err
	}
	return Encode(c), nil
}
