package corereel

// ForceRange overrides the color range a decoded video frame is treated as
// carrying, regardless of what the stream itself signals.
type ForceRange int

const (
	// RangeDefault defers entirely to the stream's own signaled range.
	RangeDefault ForceRange = iota
	RangePartial
	RangeFull
)

// Config is the resolved configuration a host hands to Init. The core never
// reads flags, environment variables, or files itself — resolving those
// into a Config is the host's job (see cmd/reelplay for an example).
type Config struct {
	// Path is the input: a local file path or a "scheme://" network URL.
	Path string

	// FormatHint, if non-empty, forces a specific demuxer by short name
	// instead of relying on probing.
	FormatHint string

	// HardwareDecoding prefers each stream's NVDEC-accelerated decoder
	// ("<codec>_cuvid") when one is registered, falling back to software
	// decode otherwise. A core-recognized option, not a host-only flag.
	HardwareDecoding bool

	// ForceRange overrides the color range applied at scaler construction
	// time and reported in VideoFrame.FullRange of every emitted frame.
	// RangeDefault leaves the stream's own signaled range in effect.
	ForceRange ForceRange

	// ClearOnMediaEnd and RestartOnActivate are host-behavior flags; the
	// core does not interpret them, it only carries them through to
	// whatever host logic consults Config after Init.
	ClearOnMediaEnd   bool
	RestartOnActivate bool
}
