package libav

// #include <libavformat/avformat.h>
// #include <stdlib.h>
import "C"

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unsafe"
)

// ErrEOF is returned by Demuxer.ReadPacket when the container has no more
// packets.
var ErrEOF = io.EOF

// StreamInfo describes one elementary stream discovered while probing a
// container.
type StreamInfo struct {
	Index     int
	Type      MediaType
	CodecID   CodecID
	TimeBase  Rational
	codecpar  *C.AVCodecParameters
	avStream  *C.AVStream
}

// Demuxer wraps an opened AVFormatContext.
type Demuxer struct {
	ctx       *C.AVFormatContext
	streams   []StreamInfo
	isNetwork bool
}

// Open opens path (a local path or a network URL) and probes its stream
// info. formatHint, if non-empty, forces a specific demuxer by short name
// (e.g. "mpegts").
func Open(path, formatHint string) (*Demuxer, error) {
	d := &Demuxer{isNetwork: isNetworkPath(path)}

	var fmtPtr *C.AVInputFormat
	if formatHint != "" {
		cName := C.CString(formatHint)
		defer C.free(unsafe.Pointer(cName))
		fmtPtr = C.av_find_input_format(cName)
	}

	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	if ret := C.avformat_open_input(&d.ctx, cPath, fmtPtr, nil); ret < 0 {
		return nil, fmt.Errorf("avformat_open_input(%q): libav error %d", path, int(ret))
	}

	if ret := C.avformat_find_stream_info(d.ctx, nil); ret < 0 {
		C.avformat_close_input(&d.ctx)
		return nil, fmt.Errorf("avformat_find_stream_info(%q): libav error %d", path, int(ret))
	}

	n := int(d.ctx.nb_streams)
	cStreams := unsafe.Slice(d.ctx.streams, n)
	d.streams = make([]StreamInfo, n)
	for i, s := range cStreams {
		info := StreamInfo{
			Index:    i,
			TimeBase: Rational{Num: int(s.time_base.num), Den: int(s.time_base.den)},
			codecpar: s.codecpar,
			avStream: s,
		}
		switch s.codecpar.codec_type {
		case C.AVMEDIA_TYPE_VIDEO:
			info.Type = MediaVideo
		case C.AVMEDIA_TYPE_AUDIO:
			info.Type = MediaAudio
		default:
			info.Type = MediaUnknown
		}
		info.CodecID = codecIDFromAV(s.codecpar.codec_id)
		d.streams[i] = info
	}

	return d, nil
}

// IsNetwork reports whether path looked like a network URL rather than a
// local file path, mirroring the original's strstr(path, "://") check.
func (d *Demuxer) IsNetwork() bool { return d.isNetwork }

func isNetworkPath(path string) bool { return strings.Contains(path, "://") }

// Streams returns every probed elementary stream, in container order.
func (d *Demuxer) Streams() []StreamInfo {
	out := make([]StreamInfo, len(d.streams))
	copy(out, d.streams)
	return out
}

// BestStream picks the demuxer's preferred stream of the given type,
// mirroring av_find_best_stream(fmt, type, -1, -1, NULL, 0).
func (d *Demuxer) BestStream(t MediaType) (StreamInfo, bool) {
	var avType C.enum_AVMediaType
	switch t {
	case MediaVideo:
		avType = C.AVMEDIA_TYPE_VIDEO
	case MediaAudio:
		avType = C.AVMEDIA_TYPE_AUDIO
	default:
		return StreamInfo{}, false
	}

	ret := C.av_find_best_stream(d.ctx, avType, -1, -1, nil, 0)
	if ret < 0 {
		return StreamInfo{}, false
	}
	return d.streams[int(ret)], true
}

// Duration returns the container's declared duration in AV_TIME_BASE units
// (microseconds), and whether one was signaled at all.
func (d *Demuxer) Duration() (int64, bool) {
	if d.ctx.duration == C.AV_NOPTS_VALUE {
		return 0, false
	}
	return int64(d.ctx.duration), true
}

// StartTime returns the container's declared start_time in AV_TIME_BASE
// units.
func (d *Demuxer) StartTime() int64 {
	if d.ctx.start_time == C.AV_NOPTS_VALUE {
		return 0
	}
	return int64(d.ctx.start_time)
}

// ReadPacket reads and returns the next demuxed packet. It returns ErrEOF
// (which is io.EOF) once the container is exhausted.
func (d *Demuxer) ReadPacket() (*Packet, error) {
	pkt := C.av_packet_alloc()
	if pkt == nil {
		return nil, errors.New("av_packet_alloc failed")
	}

	ret := C.av_read_frame(d.ctx, pkt)
	if ret < 0 {
		C.av_packet_free(&pkt)
		if ret == C.AVERROR_EOF {
			return nil, ErrEOF
		}
		return nil, fmt.Errorf("av_read_frame: libav error %d", int(ret))
	}

	return &Packet{ptr: pkt, streamIndex: int(pkt.stream_index)}, nil
}

// SeekStream requests a seek on streamIndex's timeline. backward selects
// AVSEEK_FLAG_BACKWARD (snap to keyframe at/before target); otherwise
// AVSEEK_FLAG_FRAME is used, matching ff2_media_seek_stream's two modes.
func (d *Demuxer) SeekStream(streamIndex int, target int64, backward bool) error {
	flags := C.int(C.AVSEEK_FLAG_FRAME)
	seekTarget := C.int64_t(target)
	if backward {
		flags = C.AVSEEK_FLAG_BACKWARD
		tb := d.streams[streamIndex].TimeBase
		seekTarget = C.int64_t(rescale(target, Rational{1, 1_000_000}, tb))
	}

	if ret := C.av_seek_frame(d.ctx, C.int(streamIndex), seekTarget, flags); ret < 0 {
		return fmt.Errorf("av_seek_frame(stream=%d): libav error %d", streamIndex, int(ret))
	}
	return nil
}

// Close releases the demuxer and all probed stream references.
func (d *Demuxer) Close() error {
	if d.ctx != nil {
		C.avformat_close_input(&d.ctx)
		d.ctx = nil
	}
	return nil
}

func rescale(v int64, from, to Rational) int64 {
	if from.Den == 0 || to.Num == 0 {
		return 0
	}
	return v * int64(from.Num) * int64(to.Den) / (int64(from.Den) * int64(to.Num))
}

func codecIDFromAV(id C.enum_AVCodecID) CodecID {
	switch id {
	case C.AV_CODEC_ID_VP8:
		return CodecVP8
	case C.AV_CODEC_ID_VP9:
		return CodecVP9
	case C.AV_CODEC_ID_PNG:
		return CodecPNG
	case C.AV_CODEC_ID_TIFF:
		return CodecTIFF
	case C.AV_CODEC_ID_JPEG2000:
		return CodecJPEG2000
	case C.AV_CODEC_ID_MPEG4:
		return CodecMPEG4
	case C.AV_CODEC_ID_WEBP:
		return CodecWEBP
	default:
		return CodecUnknown
	}
}
