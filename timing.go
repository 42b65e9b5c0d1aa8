package corereel

import (
	"sync"
	"time"

	"github.com/fenwick-av/corereel/internal/libav"
)

// nsTimebase is the host timebase every presentation decision is made in.
var nsTimebase = libav.Rational{Num: 1, Den: 1_000_000_000}

// rescale converts v from one rational timebase to another, mirroring
// av_rescale_q.
func rescale(v int64, from, to libav.Rational) int64 {
	if from.Den == 0 || to.Num == 0 {
		return 0
	}
	return v * int64(from.Num) * int64(to.Den) / (int64(from.Den) * int64(to.Num))
}

// engineEpochSysTS is the process-wide constant captured at the first ever
// Media Init, per spec §4.6 / §9's "globally shared process-wide epoch"
// note.
var (
	engineEpochOnce  sync.Once
	engineEpochSysTS int64
)

func ensureEngineEpoch() {
	engineEpochOnce.Do(func() {
		engineEpochSysTS = time.Now().UnixNano()
	})
}

// hostTimestamp implements spec §4.4's host-exposed timestamp formula.
func (m *Media) hostTimestamp(framePTS int64) int64 {
	m.mu.Lock()
	playSysTS := m.playSysTS // written by Play on the controller goroutine
	m.mu.Unlock()
	return m.baseTS + framePTS - m.startTS + playSysTS - engineEpochSysTS
}

// maxWakeDelta is the implausibly-large clamp from spec §4.4's wake-pacing
// rule (network gaps, paused-then-resumed inputs, and similar).
const maxWakeDelta = 3 * time.Second

// advanceTiming implements spec §4.4's wake-pacing step: find the smallest
// frame_pts among still-ready streams (falling back to the current
// next_pts_ns when none are ready) and fold the delta into next_ns.
func (m *Media) advanceTiming() {
	minNext := m.nextPtsNS
	found := false
	if m.video != nil && m.video.frameReady && (!found || m.video.framePTS < minNext) {
		minNext = m.video.framePTS
		found = true
	}
	if m.audio != nil && m.audio.frameReady && (!found || m.audio.framePTS < minNext) {
		minNext = m.audio.framePTS
		found = true
	}

	delta := minNext - m.nextPtsNS
	if delta < 0 || delta > int64(maxWakeDelta) {
		delta = 0
	}
	m.nextNS += delta
	m.nextPtsNS = minNext
}
