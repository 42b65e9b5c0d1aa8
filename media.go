package corereel

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/fenwick-av/corereel/internal/libav"
)

// flags is the single mutex-guarded word shared between the controller and
// scheduler goroutines, per spec §5. Besides it, only Media.playSysTS
// crosses goroutines: Play writes it and hostTimestamp reads it, both
// under the same mutex.
type flags struct {
	active      bool
	reset       bool
	stopping    bool
	looping     bool
	killed      bool
	wakePending bool // guards against over-releasing the wake semaphore
}

// Media is the top-level aggregate from spec §3. The scheduler goroutine
// owns everything except the mu-guarded flags word and playSysTS for the
// Media's entire lifetime; the controller goroutine (Play/Stop/Free) only
// ever touches those two (under mu) and the wake semaphore, until Free has
// joined the scheduler and releases the remaining resources.
type Media struct {
	mu sync.Mutex
	f  flags
	// sem is the idiomatic-Go substitute for the source's payload-free
	// os_sem_t wake signal, per SPEC_FULL.md §5.
	sem *semaphore.Weighted

	cfg       Config
	callbacks Callbacks
	logger    Logger

	isNetwork bool
	mediaEOF  bool

	reader *formatReader
	video  *decoder
	audio  *decoder
	scaler *videoScaler

	baseTS    int64
	startTS   int64
	nextPtsNS int64
	nextNS    int64
	playSysTS int64

	done chan struct{}
}

// Init opens path, discovers and opens its audio/video decoders, and spawns
// the scheduler goroutine, per spec §4.6. On any failure the partially
// built Media is torn down and a non-nil *InitError is returned.
func Init(cfg Config, cb Callbacks) (*Media, error) {
	ensureEngineEpoch()

	m := &Media{
		cfg:       cfg,
		callbacks: cb,
		logger:    defaultLogger,
		sem:       semaphore.NewWeighted(1),
		isNetwork: strings.Contains(cfg.Path, "://"),
	}
	// Fully acquire so the scheduler's first Acquire call blocks until a
	// Play/Stop/Free call releases a token.
	_ = m.sem.Acquire(context.Background(), 1)

	reader := &formatReader{}
	if err := reader.open(cfg.Path, cfg.FormatHint); err != nil {
		m.Free()
		return nil, newInitError("open input", CauseOpenFailed, err)
	}
	m.reader = reader

	if stream, ok := reader.dx.BestStream(libav.MediaVideo); ok {
		dec, err := openDecoderStream(stream, false, cfg.HardwareDecoding)
		if err != nil {
			m.logger.Printf("video decoder unavailable: %v", err)
		} else {
			m.video = dec
		}
	}
	if stream, ok := reader.dx.BestStream(libav.MediaAudio); ok {
		dec, err := openDecoderStream(stream, true, cfg.HardwareDecoding)
		if err != nil {
			m.logger.Printf("audio decoder unavailable: %v", err)
		} else {
			m.audio = dec
		}
	}

	if m.video == nil && m.audio == nil {
		err := newInitError("select stream", CauseNoStream, ErrNoMedia)
		m.Free()
		return nil, err
	}

	m.done = make(chan struct{})
	go m.schedulerLoop()

	return m, nil
}

func openDecoderStream(stream libav.StreamInfo, isAudio, hwDecoding bool) (*decoder, error) {
	sd, err := newLibavStreamDecoder(stream, isAudio, hwDecoding)
	if err != nil {
		return nil, newInitError("open decoder", CauseDecoderOpen, err)
	}
	return newDecoder(stream, sd, isAudio), nil
}

// HasVideo reports whether a video decoder was successfully opened.
func (m *Media) HasVideo() bool { return m != nil && m.video != nil }

// HasAudio reports whether an audio decoder was successfully opened.
func (m *Media) HasAudio() bool { return m != nil && m.audio != nil }

// markWakeLocked must be called while m.mu is held. It returns true exactly
// once per outstanding wake signal, so the caller releases the semaphore at
// most once per actual state change — calling Release without a matching
// prior Acquire panics, so this guard is load-bearing, not cosmetic.
func (m *Media) markWakeLocked() bool {
	if m.f.wakePending {
		return false
	}
	m.f.wakePending = true
	return true
}

// Play starts (or, if already active, schedules a reset of) playback, per
// spec §4.6.
func (m *Media) Play(loop bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	if m.f.active {
		m.f.reset = true
	} else {
		m.playSysTS = time.Now().UnixNano()
	}
	m.f.looping = loop
	m.f.active = true
	needRelease := m.markWakeLocked()
	m.mu.Unlock()
	if needRelease {
		m.sem.Release(1)
	}
}

// Stop requests a transition to the stopped state, per spec §4.6. A no-op
// if already stopped.
func (m *Media) Stop() {
	if m == nil {
		return
	}
	m.mu.Lock()
	active := m.f.active
	var needRelease bool
	if active {
		m.f.reset = true
		m.f.active = false
		m.f.stopping = true
		needRelease = m.markWakeLocked()
	}
	m.mu.Unlock()
	if needRelease {
		m.sem.Release(1)
	}
}

// Free tears the Media down: stops it, kills the scheduler, waits for it to
// exit, then releases every owned resource. Safe to call on a nil Media or
// to call more than once.
func (m *Media) Free() {
	if m == nil {
		return
	}
	m.Stop()

	m.mu.Lock()
	m.f.killed = true
	needRelease := m.markWakeLocked()
	m.mu.Unlock()
	if needRelease {
		m.sem.Release(1)
	}

	if m.done != nil {
		<-m.done
		m.done = nil
	}

	if m.reader != nil && m.reader.dx != nil {
		_ = m.reader.dx.Close()
		m.reader.dx = nil
	}
	if m.video != nil {
		_ = m.video.teardown()
		m.video = nil
	}
	if m.audio != nil {
		_ = m.audio.teardown()
		m.audio = nil
	}
	if m.scaler != nil {
		_ = m.scaler.conv.Close()
		m.scaler = nil
	}
}
