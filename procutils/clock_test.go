package procutils

import (
	"encoding/binary"
	"testing"
	"time"
)

func TestClockConversions(t *testing.T) {
	bootTime := time.Unix(1700000000, 0)
	clock := &Clock{bootTime: bootTime, ticks: 100}

	tests := []struct {
		name     string
		ticks    uint64
		wantSec  float64
		wantWall time.Time
	}{
		{
			name:     "zero ticks",
			ticks:    0,
			wantSec:  0,
			wantWall: bootTime,
		},
		{
			name:     "one second",
			ticks:    100,
			wantSec:  1,
			wantWall: bootTime.Add(1 * time.Second),
		},
		{
			name:     "fractional",
			ticks:    150,
			wantSec:  1.5,
			wantWall: bootTime.Add(1500 * time.Millisecond),
		},
		{
			name:     "one hour",
			ticks:    360000,
			wantSec:  3600,
			wantWall: bootTime.Add(1 * time.Hour),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clock.TicksToSeconds(tt.ticks); got != tt.wantSec {
				t.Errorf("TicksToSeconds(%d) = %v, want %v", tt.ticks, got, tt.wantSec)
			}
			if got := clock.TicksToWallClock(tt.ticks); !got.Equal(tt.wantWall) {
				t.Errorf("TicksToWallClock(%d) = %v, want %v", tt.ticks, got, tt.wantWall)
			}
		})
	}
}

func TestParseAuxvClockTicks(t *testing.T) {
	buf := make([]byte, 0, 6*8)
	appendPair := func(tag, value uint64) {
		buf = binary.NativeEndian.AppendUint64(buf, tag)
		buf = binary.NativeEndian.AppendUint64(buf, value)
	}
	appendPair(6, 4096) // AT_PAGESZ
	appendPair(atCLKTCK, 100)
	appendPair(0, 0) // AT_NULL

	ticks, err := parseAuxvClockTicks(buf)
	if err != nil {
		t.Fatalf("parseAuxvClockTicks() error = %v", err)
	}
	if ticks != 100 {
		t.Errorf("parseAuxvClockTicks() = %d, want 100", ticks)
	}
}

func TestParseAuxvClockTicks_Missing(t *testing.T) {
	buf := make([]byte, 0, 2*8)
	buf = binary.NativeEndian.AppendUint64(buf, 0)
	buf = binary.NativeEndian.AppendUint64(buf, 0)

	if _, err := parseAuxvClockTicks(buf); err == nil {
		t.Error("parseAuxvClockTicks() expected error, got nil")
	}
}

func TestNewClock(t *testing.T) {
	clock, err := NewClock()
	if err != nil {
		t.Fatalf("NewClock() error = %v", err)
	}

	if clock.TicksPerSecond() <= 0 {
		t.Errorf("TicksPerSecond() = %d, want > 0", clock.TicksPerSecond())
	}

	bootTime := clock.BootTime()
	if bootTime.IsZero() {
		t.Error("BootTime() is zero")
	}
	if bootTime.After(time.Now()) {
		t.Error("BootTime() is in the future")
	}
}
