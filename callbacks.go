package corereel

import "github.com/fenwick-av/corereel/internal/libav"

// VideoFrame is valid only for the duration of the callback it is passed
// to; it points at buffers owned by a decoder or the lazily-constructed
// scaler.
type VideoFrame struct {
	Planes      [][]byte
	Linesize    []int
	Width       int
	Height      int
	PixelFormat libav.PixelFormat
	// FullRange reports the frame's effective color range after
	// Config.ForceRange is applied: true for full/PC range, false for
	// limited/TV range. Computed for every emitted frame, not only when
	// the Scaler is active.
	FullRange bool
	PTS       int64 // host nanoseconds
}

// AudioFrame is valid only for the duration of the callback it is passed
// to.
type AudioFrame struct {
	Planes       [][]byte
	SampleFormat libav.SampleFormat
	Channels     int
	SampleRate   int
	NbSamples    int
	PTS          int64 // host nanoseconds
}

// VideoCallback is invoked from the scheduler thread only, once per ready
// video frame whose deadline has arrived.
type VideoCallback func(VideoFrame)

// AudioCallback is invoked from the scheduler thread only, once per ready
// audio frame whose deadline has arrived.
type AudioCallback func(AudioFrame)

// VideoPreloadCallback fires at most once per reset, only for non-network
// inputs while playback is inactive.
type VideoPreloadCallback func(VideoFrame)

// StoppedCallback fires once per transition into the stopped state: either
// end-of-media with looping disabled, or an explicit Stop.
type StoppedCallback func()

// Callbacks bundles the host's four hooks. Any of them may be nil.
type Callbacks struct {
	Video        VideoCallback
	Audio        AudioCallback
	VideoPreload VideoPreloadCallback
	Stopped      StoppedCallback
}
