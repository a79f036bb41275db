package timeout

import (
	"errors"
	"testing"
	"time"
)

func TestParseValid(t *testing.T) {
	cases := map[string]time.Duration{
		"0":    0,
		"1":    time.Second,
		"007":  7 * time.Second,
		"3600": time.Hour,
	}
	for text, want := range cases {
		got, err := Parse(text)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", text, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestParseInvalidFormat(t *testing.T) {
	for _, text := range []string{"", "abc", "-1", "+1", "1.5", " 1", "1s", "0x10"} {
		_, err := Parse(text)
		var invalid *InvalidFormatError
		if !errors.As(err, &invalid) {
			t.Fatalf("Parse(%q): expected InvalidFormatError, got %v", text, err)
		}
	}
}

func TestInvalidFormatMessage(t *testing.T) {
	_, err := Parse("abc")
	want := "'abc' is not a valid timeout value.\nPlease specify an integer of value 0 or greater."
	if err == nil || err.Error() != want {
		t.Fatalf("expected %q, got %v", want, err)
	}
}

func TestParseOutOfRange(t *testing.T) {
	for _, text := range []string{
		"9223372036854775808",
		"18446744073709551616",
		"99999999999999999999999999",
		"9223372037",
	} {
		_, err := Parse(text)
		if !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("Parse(%q): expected ErrOutOfRange, got %v", text, err)
		}
	}
	if ErrOutOfRange.Error() != "The timeout value you provided is not in the representable range." {
		t.Fatalf("unexpected message %q", ErrOutOfRange.Error())
	}
}

func TestParseLargestRepresentable(t *testing.T) {
	got, err := Parse("9223372036")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 9223372036*time.Second {
		t.Fatalf("unexpected duration %v", got)
	}
}

func TestDeadline(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if !Deadline(now, 0).IsZero() {
		t.Fatalf("expected zero deadline for zero timeout")
	}
	if got := Deadline(now, 2*time.Second); !got.Equal(now.Add(2 * time.Second)) {
		t.Fatalf("unexpected deadline %v", got)
	}
}
