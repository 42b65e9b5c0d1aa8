package corereel

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/fenwick-av/corereel/internal/libav"
)

// schedulerLoop is the single playback thread from spec §4.5. It owns the
// demuxer, decoders, scaler, and all timing state for the Media's entire
// lifetime; the only things it shares with the controller goroutine are the
// mutex-guarded flags word and playSysTS.
func (m *Media) schedulerLoop() {
	defer close(m.done)

	m.resetSession()

	for {
		m.mu.Lock()
		active := m.f.active
		deadline := m.nextNS
		m.mu.Unlock()

		var ctx context.Context
		var cancel context.CancelFunc
		if active {
			if deadline == 0 {
				deadline = time.Now().UnixNano()
				m.nextNS = deadline
			}
			ctx, cancel = context.WithDeadline(context.Background(), time.Unix(0, deadline))
		} else {
			ctx, cancel = context.Background(), func() {}
		}

		err := m.sem.Acquire(ctx, 1)
		cancel()

		m.mu.Lock()
		if err == nil {
			// The token we just consumed matches the one a Play/
			// Stop/Free call produced; future calls may post again.
			m.f.wakePending = false
		}
		killed := m.f.killed
		resetReq := m.f.reset
		m.f.reset = false
		m.f.killed = false
		m.mu.Unlock()

		if killed {
			return
		}
		if resetReq {
			m.resetSession()
			continue
		}

		m.emitFrames()

		if err := m.prepareFrames(); err != nil {
			m.logger.Printf("playback scheduler stopping: %v", err)
			return
		}

		if m.drained() {
			// End-of-media always triggers a reset, looping or not;
			// resetSession's own stopping-latch fires the Stopped
			// callback when the loop is not continuing.
			m.mu.Lock()
			if !m.f.looping {
				m.f.active = false
				m.f.stopping = true
			}
			m.mu.Unlock()
			m.resetSession()
			continue
		}

		m.advanceTiming()
	}
}

// drained reports whether every enabled stream has nothing left ready to
// emit, i.e. playback has reached end-of-media.
func (m *Media) drained() bool {
	if m.video != nil && m.video.frameReady {
		return false
	}
	if m.audio != nil && m.audio.frameReady {
		return false
	}
	return true
}

// readyToStart is the "ready-to-start" barrier from spec §9: every enabled
// stream either has a frame buffered or has reached EOF.
func (m *Media) readyToStart() bool {
	if m.video != nil && !m.video.frameReady && !m.video.eof {
		return false
	}
	if m.audio != nil && !m.audio.frameReady && !m.audio.eof {
		return false
	}
	return true
}

// emitFrames is the scheduler's emit phase (spec §4.5 step 5): dispatch
// every stream whose buffered frame's deadline has arrived.
func (m *Media) emitFrames() {
	if m.video != nil && m.video.frameReady && m.video.framePTS <= m.nextPtsNS {
		m.emitVideo(m.video.frame, m.video.framePTS, m.callbacks.Video)
		m.video.frameReady = false
	}
	if m.audio != nil && m.audio.frameReady && m.audio.framePTS <= m.nextPtsNS {
		m.emitAudio(m.audio.frame, m.audio.framePTS)
		m.audio.frameReady = false
	}
}

func (m *Media) emitVideo(f *libav.DecodedFrame, framePTS int64, cb VideoCallback) {
	if cb == nil {
		return
	}
	planes, linesize, pixFmt, err := m.convertVideoFrame(f)
	if err != nil {
		m.logger.Printf("video scale failed: %v", err)
		return
	}
	// full_range is computed unconditionally for every emitted frame,
	// mirroring ff2_media_next_video's frame->full_range assignment —
	// independent of whether the Scaler is active for this frame.
	fullRange := effectiveColorRange(m.cfg.ForceRange, f.ColorRange) == libav.ColorRangeJPEG
	cb(VideoFrame{
		Planes:      planes,
		Linesize:    linesize,
		Width:       f.Width,
		Height:      f.Height,
		PixelFormat: pixFmt,
		FullRange:   fullRange,
		PTS:         m.hostTimestamp(framePTS),
	})
}

func (m *Media) emitAudio(f *libav.DecodedFrame, framePTS int64) {
	if m.callbacks.Audio == nil {
		return
	}
	m.callbacks.Audio(AudioFrame{
		Planes:       f.Planes,
		SampleFormat: f.SampleFormat,
		Channels:     f.Channels,
		SampleRate:   f.SampleRate,
		NbSamples:    f.NbSamples,
		PTS:          m.hostTimestamp(framePTS),
	})
}

// prepareFrames is the scheduler's prepare phase (spec §4.5 step 6): pull
// packets from the Format Reader until ready-to-start holds, continuing to
// drain decoders past demuxer EOF.
func (m *Media) prepareFrames() error {
	for !m.readyToStart() {
		if !m.mediaEOF {
			pkt, err := m.reader.dx.ReadPacket()
			switch {
			case err == nil:
				m.reader.route(pkt, m.audio, m.video)
			case errors.Is(err, io.EOF):
				m.mediaEOF = true
			default:
				return &IoError{Op: "read packet", Err: err}
			}
		}

		if m.video != nil && !m.video.frameReady && !m.video.eof {
			if err := m.video.pull(m.mediaEOF); err != nil {
				return err
			}
			if m.video.frameReady && m.scaler == nil && !isAcceptedPixelFormat(m.video.frame.PixelFormat) {
				if err := m.initScaler(m.video.frame); err != nil {
					return err
				}
			}
		}
		if m.audio != nil && !m.audio.frameReady && !m.audio.eof {
			if err := m.audio.pull(m.mediaEOF); err != nil {
				return err
			}
		}
	}
	return nil
}

// resetSession implements spec §4.5.1: seek both streams back to the
// start, re-anchor timing while preserving host-timestamp monotonicity
// across the cut, and optionally fire the preload/stopped callbacks.
func (m *Media) resetSession() {
	var maxNext int64
	hasNext := false
	if m.video != nil {
		maxNext, hasNext = m.video.nextPTS, true
	}
	if m.audio != nil && (!hasNext || m.audio.nextPTS > maxNext) {
		maxNext = m.audio.nextPTS
		hasNext = true
	}
	if hasNext {
		m.baseTS += maxNext
	}

	if !m.isNetwork && m.reader != nil {
		_, hasDuration := m.reader.dx.Duration()
		target := m.reader.dx.StartTime()
		backward := hasDuration
		if !hasDuration {
			target = 0
		}
		if m.video != nil {
			if err := m.reader.seekAndReset(m.video, target, backward); err != nil {
				m.logger.Printf("reset: %v", err)
			}
		}
		if m.audio != nil {
			if err := m.reader.seekAndReset(m.audio, target, backward); err != nil {
				m.logger.Printf("reset: %v", err)
			}
		}
	}

	m.mediaEOF = false

	if err := m.prepareFrames(); err != nil {
		m.logger.Printf("reset: prepare frames failed: %v", err)
	}

	var minFrame int64
	hasMin := false
	if m.video != nil && m.video.frameReady {
		minFrame, hasMin = m.video.framePTS, true
	}
	if m.audio != nil && m.audio.frameReady && (!hasMin || m.audio.framePTS < minFrame) {
		minFrame = m.audio.framePTS
		hasMin = true
	}
	m.startTS = minFrame
	m.nextPtsNS = minFrame
	m.nextNS = 0

	m.mu.Lock()
	stopping := m.f.stopping
	active := m.f.active
	m.f.stopping = false
	m.mu.Unlock()

	if !active && !m.isNetwork && m.callbacks.VideoPreload != nil &&
		m.video != nil && m.video.frameReady {
		m.emitVideo(m.video.frame, m.video.framePTS, VideoCallback(m.callbacks.VideoPreload))
		// the preload emission does not clear frameReady
	}
	if stopping && m.callbacks.Stopped != nil {
		m.callbacks.Stopped()
	}
}
