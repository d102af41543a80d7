package datefmt

import (
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	ts := time.Date(2024, 3, 9, 7, 5, 3, 0, time.UTC)
	if got := Format(ts, "%Y-%m-%d %H:%M", ""); got != "2024-03-09 07:05" {
		t.Errorf("Format = %q", got)
	}
	if got := Format(ts, "", DefaultTitleFormat); got != "2024-03-09 07-05-03" {
		t.Errorf("fallback Format = %q", got)
	}
	if got := Format(time.Time{}, "%Y", ""); got != "" {
		t.Errorf("zero time = %q", got)
	}
}

func TestParseAny(t *testing.T) {
	cases := map[string]string{
		"2024-03-09T07:05:03Z":      "2024-03-09",
		"2024-03-09T07:05:03.123Z":  "2024-03-09",
		"2024-03-09T07:05:03+0000":  "2024-03-09",
		"2024-03-09":                "2024-03-09",
		"March 9, 2024":             "2024-03-09",
		"1709967903":                "2024-03-09",
	}
	for in, want := range cases {
		got := ParseAny(in)
		if got.IsZero() {
			t.Errorf("ParseAny(%q) failed", in)
			continue
		}
		if d := got.Format("2006-01-02"); d != want {
			t.Errorf("ParseAny(%q) = %s, want %s", in, d, want)
		}
	}
	if !ParseAny("not a date").IsZero() {
		t.Error("garbage should parse to zero time")
	}
}

func TestReformat_KeepsUnparseable(t *testing.T) {
	if got := Reformat("yesterday", "%Y", ""); got != "yesterday" {
		t.Errorf("Reformat = %q", got)
	}
	if got := Reformat("2024-01-02", "%d/%m/%Y", ""); got != "02/01/2024" {
		t.Errorf("Reformat = %q", got)
	}
}

func TestDuration(t *testing.T) {
	cases := map[int]string{0: "", 59: "0:59", 61: "1:01", 3725: "1:02:05"}
	for in, want := range cases {
		if got := Duration(in); got != want {
			t.Errorf("Duration(%d) = %q, want %q", in, got, want)
		}
	}
}
