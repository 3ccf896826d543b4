package color

import (
	"errors"
	"fmt"
	"testing"
)

func TestDecodeSwapsChannels(t *testing.T) {
	got, err := Decode("0xFF8800")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := Opaque(0x00, 0x88, 0xFF)
	if got != want {
		t.Fatalf("Decode(0xFF8800) = %+v, want %+v", got, want)
	}
	if enc := Encode(want); enc != "0xFF8800" {
		t.Fatalf("Encode = %q, want 0xFF8800", enc)
	}
}

func TestDecodeAlphaLiteral(t *testing.T) {
	got, err := Decode("0xCC112233")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := WithAlpha(0x33, 0x22, 0x11, 0xCC)
	if got != want {
		t.Fatalf("Decode(0xCC112233) = %+v, want %+v", got, want)
	}
}

func TestDecodeAcceptsVariants(t *testing.T) {
	cases := []struct {
		in   any
		want Channels
	}{
		{"FF8800", Opaque(0x00, 0x88, 0xFF)},
		{"0xff8800", Opaque(0x00, 0x88, 0xFF)},
		{"0X00FF8800", WithAlpha(0x00, 0x88, 0xFF, 0x00)},
		{16746496, Opaque(0x00, 0x88, 0xFF)},
		{int64(0xFF), Opaque(0xFF, 0x00, 0x00)},
		{uint32(0x80FFFFFF), WithAlpha(0xFF, 0xFF, 0xFF, 0x80)},
		{float64(0x808080), Opaque(0x80, 0x80, 0x80)},
	}
	for _, tc := range cases {
		got, err := Decode(tc.in)
		if err != nil {
			t.Fatalf("Decode(%v): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("Decode(%v) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestDecodeRejectsInvalid(t *testing.T) {
	for _, in := range []any{"0xFFF", "0xGG0000", "", "0x123456789", -1, int64(1) << 33, 1.5, true} {
		if _, err := Decode(in); !errors.Is(err, ErrInvalidLiteral) {
			t.Fatalf("Decode(%v) error = %v, want ErrInvalidLiteral", in, err)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	literals := []string{"0x000000", "0xFFFFFF", "0x0A0B0C", "0xFF8800", "0x00000000", "0xFFFFFFFF", "0x7F102030", "0x01ABCDEF"}
	for _, literal := range literals {
		c, err := Decode(literal)
		if err != nil {
			t.Fatalf("Decode(%q): %v", literal, err)
		}
		if got := Encode(c); got != literal {
			t.Fatalf("Encode(Decode(%q)) = %q", literal, got)
		}
	}

	for i := 0; i < 256; i += 17 {
		c := Opaque(uint8(i), uint8(255-i), uint8(i/2))
		back, err := Decode(Encode(c))
		if err != nil || back != c {
			t.Fatalf("Decode(Encode(%+v)) = %+v, %v", c, back, err)
		}
		ca := WithAlpha(uint8(i), uint8(255-i), uint8(i/2), uint8(i))
		back, err = Decode(Encode(ca))
		if err != nil || back != ca {
			t.Fatalf("Decode(Encode(%+v)) = %+v, %v", ca, back, err)
		}
	}
}

func TestNormalizeUppercasesAndPads(t *testing.T) {
	got, err := Normalize("0xff")
	if err == nil {
		t.Fatalf("expected short literal to be rejected, got %q", got)
	}
	got, err = Normalize("0xabcdef")
	if err != nil || got != "0xABCDEF" {
		t.Fatalf("Normalize = %q, %v", got, err)
	}
	got, err = EncodeInt(0xFF)
	if err != nil || got != "0x0000FF" {
		t.Fatalf("EncodeInt(0xFF) = %q, %v", got, err)
	}
	got, err = EncodeInt(0x1000000)
	if err != nil || got != "0x01000000" {
		t.Fatalf("EncodeInt(0x1000000) = %q, %v", got, err)
	}
}

func TestToDisplay(t *testing.T) {
	cases := map[string]string{
		"0xFF8800":   "#0088ff",
		"0x000000":   "#000000",
		"0x80FF8800": "rgba(0, 136, 255, 0.50)",
		"0xFF0000FF": "rgba(255, 0, 0, 1.00)",
		"0x00FFFFFF": "rgba(255, 255, 255, 0.00)",
	}
	for in, want := range cases {
		got, err := ToDisplay(in)
		if err != nil {
			t.Fatalf("ToDisplay(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ToDisplay(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToStored(t *testing.T) {
	cases := map[string]string{
		"#0088ff": "0xFF8800",
		"#FFFFFF": "0xFFFFFF",
		"123456":  "0x563412",
	}
	for in, want := range cases {
		got, err := ToStored(in)
		if err != nil {
			t.Fatalf("ToStored(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ToStored(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ToStored("#fff"); !errors.Is(err, ErrInvalidDisplay) {
		t.Fatalf("expected short display color to be rejected, got %v", err)
	}
}

func TestDisplayStoredRoundTrip(t *testing.T) {
	for _, literal := range []string{"0xFF8800", "0x123456", "0x000000"} {
		display, err := ToDisplay(literal)
		if err != nil {
			t.Fatalf("ToDisplay(%q): %v", literal, err)
		}
		back, err := ToStored(display)
		if err != nil || back != literal {
			t.Fatalf("ToStored(ToDisplay(%q)) = %q, %v", literal, back, err)
		}
	}
}

func TestIsLiteral(t *testing.T) {
	for in, want := range map[string]bool{
		"0xFF8800":   true,
		"0xCC112233": true,
		"FF8800":     false,
		"0xFF88":     false,
		"Helvetica":  false,
	} {
		if got := IsLiteral(in); got != want {
			t.Fatalf("IsLiteral(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsColorKey(t *testing.T) {
	if !IsColorKey("back_color") || !IsColorKey("hilited_candidate_label_color") {
		t.Fatalf("expected known color keys")
	}
	if IsColorKey("font_point") || IsColorKey("color_scheme") {
		t.Fatalf("unexpected color key match")
	}
	if got := len(Keys()); got != 14 {
		t.Fatalf("expected 14 color keys, got %d", got)
	}
}

func ExampleDecode() {
	c, _ := Decode("0xFF8800")
	fmt.Println(c.Red, c.Green, c.Blue, Encode(c), c.Display())
	// Output: 0 136 255 0xFF8800 #0088ff
}
