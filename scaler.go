package corereel

import "github.com/fenwick-av/corereel/internal/libav"

// acceptedPixelFormats is the host-acceptable format set from spec §4.3:
// {I420, NV12, YUY2, UYVY, RGBA, BGRA, BGRX}.
var acceptedPixelFormats = map[libav.PixelFormat]bool{
	libav.PixFmtYUV420P: true, // I420
	libav.PixFmtNV12:    true,
	libav.PixFmtYUYV422: true, // YUY2
	libav.PixFmtUYVY422: true,
	libav.PixFmtRGBA:    true,
	libav.PixFmtBGRA:    true,
	libav.PixFmtBGR0:    true, // BGRX
}

func isAcceptedPixelFormat(f libav.PixelFormat) bool { return acceptedPixelFormats[f] }

// nearestAcceptedFormat maps an unsupported source pixel format to the
// closest one the host accepts. RGBA is the universal fallback target: any
// source format swscale understands can be converted to it losslessly for
// the formats this engine cares about.
func nearestAcceptedFormat(src libav.PixelFormat) libav.PixelFormat {
	if isAcceptedPixelFormat(src) {
		return src
	}
	return libav.PixFmtRGBA
}

// effectiveColorRange applies Config.ForceRange over a stream's own
// signaled range: spec's supplemented "force color range override" nuance
// (SPEC_FULL.md's Supplemented features section) — RangeDefault always
// defers to streamRange. Used both by initScaler (to configure sws's
// range flag) and by emitVideo (to set VideoFrame.FullRange on every
// emitted frame, scaled or not).
func effectiveColorRange(force ForceRange, streamRange libav.ColorRange) libav.ColorRange {
	switch force {
	case RangeFull:
		return libav.ColorRangeJPEG
	case RangePartial:
		return libav.ColorRangeMPEG
	default:
		return streamRange
	}
}

// videoScaler is the lazily-constructed converter from spec §4.3. It owns
// its destination plane buffers for the lifetime of the Media that created
// it.
type videoScaler struct {
	conv      pixelConverter
	srcFormat libav.PixelFormat
	dstFormat libav.PixelFormat
	width     int
	height    int
}

func (s *videoScaler) convert(src *libav.DecodedFrame) ([][]byte, []int, error) {
	return s.conv.Convert(src)
}

// initScaler builds m.scaler from f, the first decoded video frame whose
// pixel format is outside acceptedPixelFormats. Colorspace is taken from
// the frame; range is overridden by Config.ForceRange when it is not
// RangeDefault (spec's supplemented "force color range override" nuance).
func (m *Media) initScaler(f *libav.DecodedFrame) error {
	dst := nearestAcceptedFormat(f.PixelFormat)
	effRange := effectiveColorRange(m.cfg.ForceRange, f.ColorRange)

	conv, err := newLibavScaler(f.Width, f.Height, f.PixelFormat, dst, f.ColorSpace, effRange)
	if err != nil {
		return &InitError{Op: "init scaler", Cause: CauseScalerInit, Err: err}
	}

	m.scaler = &videoScaler{conv: conv, srcFormat: f.PixelFormat, dstFormat: dst, width: f.Width, height: f.Height}
	return nil
}

// convertVideoFrame returns ready-to-emit planes for f, lazily constructing
// the scaler on first use if f's format is not directly acceptable.
func (m *Media) convertVideoFrame(f *libav.DecodedFrame) ([][]byte, []int, libav.PixelFormat, error) {
	if isAcceptedPixelFormat(f.PixelFormat) {
		return f.Planes, f.Linesize, f.PixelFormat, nil
	}
	if m.scaler == nil {
		if err := m.initScaler(f); err != nil {
			return nil, nil, 0, err
		}
	}
	planes, linesize, err := m.scaler.convert(f)
	return planes, linesize, m.scaler.dstFormat, err
}
