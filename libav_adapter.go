package corereel

import (
	"errors"
	"io"

	"github.com/fenwick-av/corereel/internal/libav"
)

// libavDemuxer adapts internal/libav.Demuxer to the demuxer interface,
// draining each AVPacket into a plain []byte immediately so the cgo-owned
// memory never escapes this file.
type libavDemuxer struct {
	d *libav.Demuxer
}

func openLibavDemuxer(path, formatHint string) (*libavDemuxer, error) {
	d, err := libav.Open(path, formatHint)
	if err != nil {
		return nil, err
	}
	return &libavDemuxer{d: d}, nil
}

func (m *libavDemuxer) ReadPacket() (enginePacket, error) {
	pkt, err := m.d.ReadPacket()
	if err != nil {
		if errors.Is(err, libav.ErrEOF) {
			return enginePacket{}, io.EOF
		}
		return enginePacket{}, err
	}
	defer pkt.Release()
	return enginePacket{StreamIndex: pkt.StreamIndex(), Data: pkt.Bytes()}, nil
}

func (m *libavDemuxer) SeekStream(streamIndex int, target int64, backward bool) error {
	return m.d.SeekStream(streamIndex, target, backward)
}
func (m *libavDemuxer) Streams() []libav.StreamInfo { return m.d.Streams() }
func (m *libavDemuxer) BestStream(t libav.MediaType) (libav.StreamInfo, bool) {
	return m.d.BestStream(t)
}
func (m *libavDemuxer) Duration() (int64, bool) { return m.d.Duration() }
func (m *libavDemuxer) StartTime() int64        { return m.d.StartTime() }
func (m *libavDemuxer) IsNetwork() bool         { return m.d.IsNetwork() }
func (m *libavDemuxer) Close() error            { return m.d.Close() }

// libavStreamDecoder adapts internal/libav.CodecContext to streamDecoder.
type libavStreamDecoder struct {
	c       *libav.CodecContext
	isAudio bool
}

func newLibavStreamDecoder(stream libav.StreamInfo, isAudio, hwDecoding bool) (*libavStreamDecoder, error) {
	c, err := libav.NewDecoderContext(stream, isAudio, hwDecoding)
	if err != nil {
		return nil, err
	}
	return &libavStreamDecoder{c: c, isAudio: isAudio}, nil
}

func (s *libavStreamDecoder) Decode(data []byte) (int, bool, error) {
	if s.isAudio {
		return s.c.DecodeAudio(data)
	}
	return s.c.DecodeVideo(data)
}
func (s *libavStreamDecoder) Frame() *libav.DecodedFrame  { return s.c.Frame() }
func (s *libavStreamDecoder) Flush()                      { s.c.Flush() }
func (s *libavStreamDecoder) TimeBase() libav.Rational    { return s.c.TimeBase() }
func (s *libavStreamDecoder) Close() error                { return s.c.Close() }

// libavPixelConverter adapts internal/libav.Scaler to pixelConverter.
type libavPixelConverter struct {
	s *libav.Scaler
}

func newLibavScaler(width, height int, srcFormat, dstFormat libav.PixelFormat, space libav.ColorSpace, colorRange libav.ColorRange) (*libavPixelConverter, error) {
	s, err := libav.NewScaler(width, height, srcFormat, dstFormat, space, colorRange)
	if err != nil {
		return nil, err
	}
	return &libavPixelConverter{s: s}, nil
}

func (p *libavPixelConverter) Convert(src *libav.DecodedFrame) ([][]byte, []int, error) {
	return p.s.Convert(src)
}
func (p *libavPixelConverter) Close() error { return p.s.Close() }
