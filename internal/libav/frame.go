package libav

// DecodedFrame is a self-contained, GC-owned copy of one decoded AVFrame.
// Unlike the AVFrame it was copied from, a DecodedFrame's lifetime is not
// tied to the next decode call — it is plain Go data.
type DecodedFrame struct {
	IsAudio bool

	// PTS is the frame's best-effort presentation timestamp, in the
	// owning stream's time base.
	PTS int64

	// PacketDurationRaw is the frame's own packet duration, in the
	// owning stream's time base, when the decoder reported one.
	PacketDurationRaw int64
	HasPacketDuration bool

	// video fields
	Width, Height int
	PixelFormat   PixelFormat
	ColorSpace    ColorSpace
	ColorRange    ColorRange

	// audio fields
	SampleRate   int
	Channels     int
	NbSamples    int
	SampleFormat SampleFormat

	// Planes holds one []byte per data plane (1 for packed formats, more
	// for planar ones), each of length Linesize[i]*Height for video, or
	// tightly packed/planar sample buffers for audio.
	Planes   [][]byte
	Linesize []int
}
