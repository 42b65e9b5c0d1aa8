package corereel

import "github.com/fenwick-av/corereel/internal/libav"

// enginePacket is the demuxer/decoder boundary's plain-data packet: a
// payload copied out of whatever container format the demuxer speaks,
// tagged with the stream it came from. Unlike internal/libav.Packet it
// carries no cgo-owned memory, which is what lets a test fake construct one
// directly.
type enginePacket struct {
	StreamIndex int
	Data        []byte
}

// demuxer is the capability set the Format Reader needs from a container
// parser. The production implementation is libavDemuxer; tests substitute
// a fake that replays a canned packet sequence.
type demuxer interface {
	ReadPacket() (enginePacket, error) // returns io.EOF at end of stream
	SeekStream(streamIndex int, target int64, backward bool) error
	Streams() []libav.StreamInfo
	BestStream(t libav.MediaType) (libav.StreamInfo, bool)
	Duration() (int64, bool)
	StartTime() int64
	IsNetwork() bool
	Close() error
}

// streamDecoder is the capability set a Decoder needs from a codec. The
// production implementation is libavStreamDecoder; tests substitute a fake
// that reports canned (consumed, gotFrame) pairs and synthetic frames.
type streamDecoder interface {
	// Decode mirrors avcodec_decode_video2/avcodec_decode_audio4's
	// (bytes_consumed, got_frame) contract. A nil or empty data is the
	// zero-size flush packet.
	Decode(data []byte) (consumed int, gotFrame bool, err error)
	Frame() *libav.DecodedFrame
	Flush()
	TimeBase() libav.Rational
	Close() error
}

// pixelConverter is the capability set the Scaler needs from a pixel-format
// converter.
type pixelConverter interface {
	Convert(src *libav.DecodedFrame) ([][]byte, []int, error)
	Close() error
}
