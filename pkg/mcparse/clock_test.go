package mcparse

import "testing"

func TestParseTimeQuery(t *testing.T) {
	if ticks, ok := ParseTimeQuery("The time is 13000"); !ok || ticks != 13000 {
		t.Fatalf("daytime = %d %v", ticks, ok)
	}
	if _, ok := ParseTimeQuery("Unknown or incomplete command"); ok {
		t.Fatalf("expected failure on unrelated text")
	}
	if _, ok := ParseTimeQuery("The time is soon"); ok {
		t.Fatalf("expected failure on non-numeric time")
	}
}

func TestFormatMinecraftTime(t *testing.T) {
	cases := map[int64]string{
		0:     "06:00",
		6000:  "12:00",
		18000: "00:00",
		23999: "05:59",
		24500: "06:30",
		1250:  "07:15",
		-1000: "05:00",
	}
	for ticks, want := range cases {
		if got := FormatMinecraftTime(ticks); got != want {
			t.Fatalf("FormatMinecraftTime(%d) = %q, want %q", ticks, got, want)
		}
	}
}

func TestFormatUptime(t *testing.T) {
	cases := map[int64]string{
		0:     "00:00:00",
		59:    "00:00:59",
		3661:  "01:01:01",
		90061: "25:01:01",
	}
	for secs, want := range cases {
		if got := FormatUptime(secs); got != want {
			t.Fatalf("FormatUptime(%d) = %q, want %q", secs, got, want)
		}
	}
}
