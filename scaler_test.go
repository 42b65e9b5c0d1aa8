package corereel

import (
	"testing"

	"github.com/fenwick-av/corereel/internal/libav"
)

func TestIsAcceptedPixelFormat(t *testing.T) {
	accepted := []libav.PixelFormat{
		libav.PixFmtYUV420P, libav.PixFmtNV12, libav.PixFmtYUYV422,
		libav.PixFmtUYVY422, libav.PixFmtRGBA, libav.PixFmtBGRA, libav.PixFmtBGR0,
	}
	for _, f := range accepted {
		if !isAcceptedPixelFormat(f) {
			t.Errorf("expected %v to be accepted", f)
		}
	}
	if isAcceptedPixelFormat(libav.PixFmtOther) {
		t.Error("expected PixFmtOther to not be in the accepted set")
	}
}

func TestNearestAcceptedFormat(t *testing.T) {
	if got := nearestAcceptedFormat(libav.PixFmtYUV420P); got != libav.PixFmtYUV420P {
		t.Errorf("expected an already-accepted format to pass through unchanged, got %v", got)
	}
	if got := nearestAcceptedFormat(libav.PixFmtOther); got != libav.PixFmtRGBA {
		t.Errorf("expected unsupported format to fall back to RGBA, got %v", got)
	}
}

func TestEffectiveColorRange(t *testing.T) {
	cases := []struct {
		name   string
		force  ForceRange
		stream libav.ColorRange
		want   libav.ColorRange
	}{
		{"default defers to stream mpeg", RangeDefault, libav.ColorRangeMPEG, libav.ColorRangeMPEG},
		{"default defers to stream jpeg", RangeDefault, libav.ColorRangeJPEG, libav.ColorRangeJPEG},
		{"forced full overrides mpeg stream", RangeFull, libav.ColorRangeMPEG, libav.ColorRangeJPEG},
		{"forced partial overrides jpeg stream", RangePartial, libav.ColorRangeJPEG, libav.ColorRangeMPEG},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := effectiveColorRange(c.force, c.stream); got != c.want {
				t.Errorf("effectiveColorRange(%v, %v) = %v, want %v", c.force, c.stream, got, c.want)
			}
		})
	}
}

// fakePixelConverter is a no-op converter used to exercise the scaler's
// lazy-construction path without cgo.
type fakePixelConverter struct {
	converted int
	closed    bool
}

func (c *fakePixelConverter) Convert(f *libav.DecodedFrame) ([][]byte, []int, error) {
	c.converted++
	return [][]byte{make([]byte, f.Width*f.Height*4)}, []int{f.Width * 4}, nil
}
func (c *fakePixelConverter) Close() error { c.closed = true; return nil }

func TestConvertVideoFramePassesThroughAcceptedFormat(t *testing.T) {
	m := &Media{}
	f := &libav.DecodedFrame{
		Width: 4, Height: 4, PixelFormat: libav.PixFmtYUV420P,
		Planes: [][]byte{{1, 2, 3}}, Linesize: []int{4},
	}
	planes, linesize, format, err := m.convertVideoFrame(f)
	if err != nil {
		t.Fatalf("convertVideoFrame: %v", err)
	}
	if format != libav.PixFmtYUV420P {
		t.Errorf("expected pass-through format, got %v", format)
	}
	if len(planes) != 1 || len(linesize) != 1 {
		t.Errorf("expected the original frame's planes/linesize untouched")
	}
	if m.scaler != nil {
		t.Error("expected no scaler to be constructed for an accepted format")
	}
}
