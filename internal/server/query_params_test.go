package server

import (
	"testing"
	"time"
)

func TestParseOptionalBool(t *testing.T) {
	if value, err := parseOptionalBool("  "); err != nil || value != nil {
		t.Errorf("blank input: value = %v, err = %v", value, err)
	}
	value, err := parseOptionalBool("true")
	if err != nil || value == nil || !*value {
		t.Errorf("true input: value = %v, err = %v", value, err)
	}
	if _, err := parseOptionalBool("maybe"); err == nil {
		t.Error("expected an error for garbage input")
	}
}

func TestParseOptionalSnowflakeID(t *testing.T) {
	if value, err := parseOptionalSnowflakeID(""); err != nil || value != nil {
		t.Errorf("blank input: value = %v, err = %v", value, err)
	}
	value, err := parseOptionalSnowflakeID(" 1234567890 ")
	if err != nil || value == nil || value.Int64() != 1234567890 {
		t.Errorf("value = %v, err = %v", value, err)
	}
	for _, input := range []string{"0", "abc"} {
		if _, err := parseOptionalSnowflakeID(input); err == nil {
			t.Errorf("expected an error for %q", input)
		}
	}
}

func TestParseOptionalTime(t *testing.T) {
	if value, err := parseOptionalTime("", false); err != nil || value != nil {
		t.Errorf("blank input: value = %v, err = %v", value, err)
	}

	value, err := parseOptionalTime("2026-04-02T18:30:00Z", false)
	if err != nil || value == nil || !value.Equal(time.Date(2026, 4, 2, 18, 30, 0, 0, time.UTC)) {
		t.Errorf("rfc3339 input: value = %v, err = %v", value, err)
	}

	value, err = parseOptionalTime("2026-04-02", false)
	if err != nil || value == nil || !value.Equal(time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date input: value = %v, err = %v", value, err)
	}

	value, err = parseOptionalTime("2026-04-02", true)
	if err != nil || value == nil {
		t.Fatalf("end of day input: value = %v, err = %v", value, err)
	}
	if value.Hour() != 23 || value.Minute() != 59 || value.Second() != 59 {
		t.Errorf("end of day = %v", value)
	}

	if _, err := parseOptionalTime("April 2nd", false); err == nil {
		t.Error("expected an error for garbage input")
	}
}
