package corereel

import (
	"testing"

	"github.com/fenwick-av/corereel/internal/libav"
)

func TestRescale(t *testing.T) {
	cases := []struct {
		v        int64
		from, to libav.Rational
		want     int64
	}{
		{30, libav.Rational{Num: 1, Den: 30}, nsTimebase, 1_000_000_000},
		{1, libav.Rational{Num: 1, Den: 1}, nsTimebase, 1_000_000_000},
		{0, libav.Rational{Num: 1, Den: 30}, nsTimebase, 0},
	}
	for _, c := range cases {
		got := rescale(c.v, c.from, c.to)
		if got != c.want {
			t.Errorf("rescale(%d, %+v, %+v) = %d, want %d", c.v, c.from, c.to, got, c.want)
		}
	}
}

func TestHostTimestamp(t *testing.T) {
	m := &Media{baseTS: 1000, startTS: 200, playSysTS: 5000}
	engineEpochSysTS = 100

	got := m.hostTimestamp(300)
	want := int64(1000) + 300 - 200 + 5000 - 100
	if got != want {
		t.Fatalf("hostTimestamp = %d, want %d", got, want)
	}
}

func TestAdvanceTimingClampsImplausibleDelta(t *testing.T) {
	m := &Media{nextPtsNS: 0}
	m.video = newTestDecoder(&fakeStreamDecoder{}, false)
	m.video.frameReady = true
	m.video.framePTS = int64(maxWakeDelta) + 1 // implausibly large gap

	m.advanceTiming()

	if m.nextNS != 0 {
		t.Fatalf("expected delta clamp to 0, got nextNS=%d", m.nextNS)
	}
	if m.nextPtsNS != m.video.framePTS {
		t.Fatalf("expected nextPtsNS to track the new anchor regardless of clamp, got %d", m.nextPtsNS)
	}
}

func TestAdvanceTimingNoReadyStreamsHoldsAnchor(t *testing.T) {
	m := &Media{nextPtsNS: 42}
	m.video = newTestDecoder(&fakeStreamDecoder{}, false)
	m.video.frameReady = false

	m.advanceTiming()

	if m.nextNS != 0 {
		t.Fatalf("expected no wake advance when nothing is ready, got %d", m.nextNS)
	}
	if m.nextPtsNS != 42 {
		t.Fatalf("expected next_pts_ns to hold at its current value, got %d", m.nextPtsNS)
	}
}
