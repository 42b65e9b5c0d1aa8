package corereel

import (
	"errors"
	"testing"

	"github.com/fenwick-av/corereel/internal/libav"
)

// fakeStreamDecoder replays a canned sequence of frames, one per Decode
// call (flush calls included), then reports drain-complete (0, false, nil)
// forever after.
type fakeStreamDecoder struct {
	frames  []*libav.DecodedFrame
	i       int
	cur     *libav.DecodedFrame
	tb      libav.Rational
	flushes int
	closed  bool
}

func (d *fakeStreamDecoder) Decode(data []byte) (int, bool, error) {
	if d.i >= len(d.frames) {
		return 0, false, nil
	}
	d.cur = d.frames[d.i]
	d.i++
	return len(data), true, nil
}
func (d *fakeStreamDecoder) Frame() *libav.DecodedFrame { return d.cur }
func (d *fakeStreamDecoder) Flush()                     { d.flushes++ }
func (d *fakeStreamDecoder) TimeBase() libav.Rational   { return d.tb }
func (d *fakeStreamDecoder) Close() error               { d.closed = true; return nil }

func videoFrame(pts int64) *libav.DecodedFrame {
	return &libav.DecodedFrame{
		PTS: pts, Width: 4, Height: 4, PixelFormat: libav.PixFmtYUV420P,
	}
}

func newTestDecoder(codec streamDecoder, isAudio bool) *decoder {
	return newDecoder(libav.StreamInfo{Index: 0, TimeBase: libav.Rational{Num: 1, Den: 30}}, codec, isAudio)
}

func TestDecoderPullEmptyQueueNotEOF(t *testing.T) {
	d := newTestDecoder(&fakeStreamDecoder{}, false)
	if err := d.pull(false); err != nil {
		t.Fatalf("pull returned error: %v", err)
	}
	if d.frameReady {
		t.Fatal("expected frameReady=false on empty, non-EOF queue")
	}
}

func TestDecoderPushPullRoundTrip(t *testing.T) {
	codec := &fakeStreamDecoder{frames: []*libav.DecodedFrame{
		videoFrame(0), videoFrame(1), videoFrame(2),
	}}
	d := newTestDecoder(codec, false)

	var gotPTS []int64
	for i := 0; i < 3; i++ {
		d.push([]byte{0xAA})
		if err := d.pull(false); err != nil {
			t.Fatalf("pull %d: %v", i, err)
		}
		if !d.frameReady {
			t.Fatalf("pull %d: expected frameReady=true", i)
		}
		gotPTS = append(gotPTS, d.framePTS)
	}

	// stream timebase is 1/30s; rescale(0,1,2,... -> ns) should be strictly
	// increasing.
	for i := 1; i < len(gotPTS); i++ {
		if gotPTS[i] <= gotPTS[i-1] {
			t.Fatalf("expected strictly increasing frame_pts, got %v", gotPTS)
		}
	}
}

func TestDecoderPushThenClear(t *testing.T) {
	d := newTestDecoder(&fakeStreamDecoder{}, false)
	d.push([]byte{1, 2, 3})
	d.push([]byte{4, 5})
	d.pendingData = []byte{1}
	d.packetPending = true

	d.clear()

	if len(d.queue) != 0 {
		t.Fatalf("expected empty queue after clear, got %d items", len(d.queue))
	}
	if d.packetPending {
		t.Fatal("expected packetPending=false after clear")
	}
}

func TestDecoderDrainsAtEOF(t *testing.T) {
	codec := &fakeStreamDecoder{frames: []*libav.DecodedFrame{videoFrame(0)}}
	d := newTestDecoder(codec, false)

	d.push([]byte{0xAA})
	if err := d.pull(true); err != nil {
		t.Fatalf("pull: %v", err)
	}
	if !d.frameReady {
		t.Fatal("expected first pull to produce a frame")
	}

	// no more queued packets and no more frames behind the codec: the next
	// pull with eofHint=true must drain to completion.
	d.frameReady = false
	if err := d.pull(true); err != nil {
		t.Fatalf("drain pull: %v", err)
	}
	if d.frameReady {
		t.Fatal("expected frameReady=false once fully drained")
	}
	if !d.eof {
		t.Fatal("expected decoder.eof=true once fully drained")
	}
}

func TestDecoderDecodeErrorSurfaces(t *testing.T) {
	d := newTestDecoder(&erroringDecoder{}, false)
	d.push([]byte{1})
	err := d.pull(false)
	if err == nil {
		t.Fatal("expected a DecodeError")
	}
	var de *DecodeError
	if !asDecodeError(err, &de) {
		t.Fatalf("expected *DecodeError, got %T: %v", err, err)
	}
}

type erroringDecoder struct{}

func (erroringDecoder) Decode(data []byte) (int, bool, error) {
	return 0, false, errDecodeFixture
}
func (erroringDecoder) Frame() *libav.DecodedFrame { return nil }
func (erroringDecoder) Flush()                     {}
func (erroringDecoder) TimeBase() libav.Rational   { return libav.Rational{Num: 1, Den: 1} }
func (erroringDecoder) Close() error               { return nil }

var errDecodeFixture = errors.New("fixture decode failure")

func asDecodeError(err error, target **DecodeError) bool {
	de, ok := err.(*DecodeError)
	if !ok {
		return false
	}
	*target = de
	return true
}
