package corereel

import (
	"context"
	"testing"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/fenwick-av/corereel/internal/libav"
)

// newLifecycleTestMedia builds a *Media that bypasses Init's cgo-backed
// openLibavDemuxer/newLibavStreamDecoder calls, wiring a fakeDemuxer and a
// single fake video decoder instead, so Play/Stop/Free and the scheduler
// loop can be exercised without a real FFmpeg install.
func newLifecycleTestMedia(stopped func()) (*Media, *fakeDemuxer, *fakeStreamDecoder) {
	dx := &fakeDemuxer{
		packets:     []enginePacket{{StreamIndex: 0, Data: []byte{0xAA}}},
		hasDuration: true,
	}
	codec := &fakeStreamDecoder{frames: []*libav.DecodedFrame{videoFrame(0)}}
	video := newTestDecoder(codec, false)

	m := &Media{
		logger:    defaultLogger,
		sem:       semaphore.NewWeighted(1),
		reader:    &formatReader{dx: dx},
		video:     video,
		done:      make(chan struct{}),
		callbacks: Callbacks{Stopped: stopped},
	}
	_ = m.sem.Acquire(context.Background(), 1)
	return m, dx, codec
}

func TestStopOnInactiveMediaIsNoOp(t *testing.T) {
	m := &Media{sem: semaphore.NewWeighted(1)}
	_ = m.sem.Acquire(context.Background(), 1) // mirror Init's fully-acquired start state

	m.Stop()

	if m.sem.TryAcquire(1) {
		t.Fatal("Stop on an inactive Media must not release the wake semaphore")
	}
}

func TestPlayReleasesWakeExactlyOnce(t *testing.T) {
	m := &Media{sem: semaphore.NewWeighted(1)}
	_ = m.sem.Acquire(context.Background(), 1)

	m.Play(false)

	if !m.sem.TryAcquire(1) {
		t.Fatal("expected Play to release the wake semaphore once")
	}
	if m.sem.TryAcquire(1) {
		t.Fatal("expected only one outstanding wake token after a single Play call")
	}
}

func TestFreeIsNilSafe(t *testing.T) {
	var m *Media
	m.Free() // must not panic
}

func TestPlayStopFreeLifecycle(t *testing.T) {
	stoppedCh := make(chan struct{})
	m, _, codec := newLifecycleTestMedia(func() { close(stoppedCh) })

	go m.schedulerLoop()

	m.Play(false)

	select {
	case <-stoppedCh:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for Stopped callback after a non-looping drain")
	}

	m.Free()

	if !codec.closed {
		t.Error("expected Free to close the video codec")
	}
	m.Free() // idempotent: must not block or panic the second time
}
