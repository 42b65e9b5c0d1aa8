package corereel

import (
	"io"
	"testing"

	"github.com/fenwick-av/corereel/internal/libav"
)

func TestFormatReaderRouteStrictStreamIndex(t *testing.T) {
	video := newTestDecoder(&fakeStreamDecoder{}, false)
	video.streamIndex = 0
	audio := newTestDecoder(&fakeStreamDecoder{}, true)
	audio.streamIndex = 1

	fr := &formatReader{}

	fr.route(enginePacket{StreamIndex: 0, Data: []byte{1}}, audio, video)
	fr.route(enginePacket{StreamIndex: 1, Data: []byte{2}}, audio, video)
	// stream index 2 matches neither and must be dropped silently.
	fr.route(enginePacket{StreamIndex: 2, Data: []byte{3}}, audio, video)

	if len(video.queue) != 1 {
		t.Fatalf("expected 1 packet routed to video, got %d", len(video.queue))
	}
	if len(audio.queue) != 1 {
		t.Fatalf("expected 1 packet routed to audio, got %d", len(audio.queue))
	}
}

func TestFormatReaderSeekAndReset(t *testing.T) {
	fake := &fakeDemuxer{}
	fr := &formatReader{dx: fake}

	codec := &fakeStreamDecoder{}
	d := newTestDecoder(codec, false)
	d.push([]byte{1, 2})
	d.frameReady = true
	d.framePTS = 1234
	d.eof = true

	if err := fr.seekAndReset(d, 99, true); err != nil {
		t.Fatalf("seekAndReset: %v", err)
	}

	if len(fake.seeks) != 1 || fake.seeks[0].target != 99 || !fake.seeks[0].backward {
		t.Fatalf("unexpected seek call: %+v", fake.seeks)
	}
	if codec.flushes != 1 {
		t.Fatalf("expected codec.Flush to be called once, got %d", codec.flushes)
	}
	if len(d.queue) != 0 {
		t.Fatal("expected queue cleared after seekAndReset")
	}
	if d.frameReady || d.framePTS != 0 || d.eof {
		t.Fatalf("expected frameReady/framePTS/eof reset, got %+v", d)
	}
}

func TestFormatReaderSeekFailureSurfacesSeekError(t *testing.T) {
	fake := &fakeDemuxer{seekErr: errDecodeFixture}
	fr := &formatReader{dx: fake}
	d := newTestDecoder(&fakeStreamDecoder{}, false)

	err := fr.seekAndReset(d, 0, false)
	if _, ok := err.(*SeekError); !ok {
		t.Fatalf("expected *SeekError, got %T: %v", err, err)
	}
}

type seekCall struct {
	streamIndex int
	target      int64
	backward    bool
}

// fakeDemuxer is the test double for the demuxer interface; it replays a
// canned packet sequence and records seek calls.
type fakeDemuxer struct {
	packets     []enginePacket
	idx         int
	duration    int64
	hasDuration bool
	startTime   int64
	network     bool
	streams     []libav.StreamInfo
	seeks       []seekCall
	seekErr     error
}

func (f *fakeDemuxer) ReadPacket() (enginePacket, error) {
	if f.idx >= len(f.packets) {
		return enginePacket{}, io.EOF
	}
	p := f.packets[f.idx]
	f.idx++
	return p, nil
}

func (f *fakeDemuxer) SeekStream(streamIndex int, target int64, backward bool) error {
	f.seeks = append(f.seeks, seekCall{streamIndex, target, backward})
	f.idx = 0
	return f.seekErr
}
func (f *fakeDemuxer) Streams() []libav.StreamInfo { return f.streams }
func (f *fakeDemuxer) BestStream(t libav.MediaType) (libav.StreamInfo, bool) {
	for _, s := range f.streams {
		if s.Type == t {
			return s, true
		}
	}
	return libav.StreamInfo{}, false
}
func (f *fakeDemuxer) Duration() (int64, bool) { return f.duration, f.hasDuration }
func (f *fakeDemuxer) StartTime() int64        { return f.startTime }
func (f *fakeDemuxer) IsNetwork() bool         { return f.network }
func (f *fakeDemuxer) Close() error            { return nil }
