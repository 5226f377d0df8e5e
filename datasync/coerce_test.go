package datasync

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAsString(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"abc", "abc"},
		{float64(42), "42"},
		{float64(42.5), "42.5"},
		{json.Number("7"), "7"},
		{true, "true"},
		{int64(9), "9"},
	}
	for _, c := range cases {
		if got := asString(c.in); got != c.want {
			t.Errorf("asString(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestAsFloat(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{nil, 0},
		{float64(3.5), 3.5},
		{"  12.25 ", 12.25},
		{"not a number", 0},
		{json.Number("100"), 100},
		{true, 1},
		{false, 0},
		{map[string]any{}, 0},
	}
	for _, c := range cases {
		if got := asFloat(c.in); got != c.want {
			t.Errorf("asFloat(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestAsInt(t *testing.T) {
	if got := asInt(float64(30.9)); got != 30 {
		t.Errorf("asInt(30.9) = %d, want 30", got)
	}
	if got := asInt("15"); got != 15 {
		t.Errorf("asInt(\"15\") = %d, want 15", got)
	}
	if got := asInt(nil); got != 0 {
		t.Errorf("asInt(nil) = %d, want 0", got)
	}
}

func TestAsBool(t *testing.T) {
	if !asBool(true) || asBool(false) {
		t.Error("asBool should pass through bools")
	}
	if !asBool(float64(1)) || asBool(float64(0)) {
		t.Error("asBool number truthiness wrong")
	}
	if !asBool("x") || asBool("") {
		t.Error("asBool string truthiness wrong")
	}
	if asBool(nil) || asBool([]any{}) {
		t.Error("asBool should default to false")
	}
}

func TestAsDecimal(t *testing.T) {
	if got := asDecimal("45000.50"); !got.Equal(decimal.RequireFromString("45000.50")) {
		t.Errorf("asDecimal string = %s", got)
	}
	if got := asDecimal("garbage"); !got.IsZero() {
		t.Errorf("asDecimal garbage = %s, want 0", got)
	}
	if got := asDecimal(float64(12.5)); !got.Equal(decimal.NewFromFloat(12.5)) {
		t.Errorf("asDecimal float = %s", got)
	}
	if got := asDecimal(nil); !got.IsZero() {
		t.Errorf("asDecimal nil = %s, want 0", got)
	}
}

func TestAsMapAsSlice(t *testing.T) {
	if asMap("x") != nil || asMap(nil) != nil {
		t.Error("asMap should return nil for non-maps")
	}
	if got := asMap(map[string]any{"a": 1}); got["a"] != 1 {
		t.Error("asMap should pass through maps")
	}
	if asSlice("x") != nil || asSlice(nil) != nil {
		t.Error("asSlice should return nil for non-slices")
	}
	if got := asSlice([]any{"a"}); len(got) != 1 {
		t.Error("asSlice should pass through slices")
	}
}
