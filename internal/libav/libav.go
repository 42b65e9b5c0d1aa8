// Package libav is a narrow cgo binding over FFmpeg's libavformat,
// libavcodec and libswscale. It exposes exactly the control surface the
// corereel engine needs: per-call (bytes consumed, frame produced) decode
// semantics, raw pixel/sample formats, and an explicit scaler — the things
// higher-level Go wrappers around FFmpeg (reisen included) tend to hide
// behind a single "give me an image" call.
//
// The exported types that hold a C pointer (Demuxer, CodecContext, Packet,
// Scaler) are thin, directly-owned wrappers around it. Callers are
// responsible for calling Close/Release in the same places the equivalent
// libav teardown call would happen; nothing is finalized by the garbage
// collector. The value types (DecodedFrame, Rational, StreamInfo and the
// enums) are plain Go data.
package libav

// #cgo pkg-config: libavformat libavcodec libavutil libswscale
// #include <libavformat/avformat.h>
// #include <libavcodec/avcodec.h>
// #include <libavutil/avutil.h>
// #include <libavutil/channel_layout.h>
// #include <libswscale/swscale.h>
import "C"

// Rational mirrors AVRational: a num/den pair used for stream and codec
// timebases.
type Rational struct {
	Num int
	Den int
}

// RescaleToNanos rescales v, expressed in r units, into nanoseconds. It
// mirrors av_rescale_q(v, r, {1, 1000000000}) without the intermediate
// 64-bit-overflow protections libav itself adds, since the values flowing
// through here are always bounded presentation timestamps.
func RescaleToNanos(v int64, r Rational) int64 {
	if r.Num == 0 || r.Den == 0 {
		return 0
	}
	return v * int64(r.Num) * int64(1_000_000_000) / int64(r.Den)
}

// MediaType distinguishes the elementary stream kinds this package cares
// about.
type MediaType int

const (
	MediaUnknown MediaType = iota
	MediaVideo
	MediaAudio
)

// PixelFormat mirrors a subset of AVPixelFormat, named the same way the
// original decoder's convert_pixel_format table does.
type PixelFormat int

const (
	PixFmtNone PixelFormat = iota
	PixFmtYUV420P
	PixFmtNV12
	PixFmtYUYV422
	PixFmtUYVY422
	PixFmtRGBA
	PixFmtBGRA
	PixFmtBGR0
	PixFmtOther
)

// SampleFormat mirrors a subset of AVSampleFormat.
type SampleFormat int

const (
	SampleFmtNone SampleFormat = iota
	SampleFmtU8
	SampleFmtS16
	SampleFmtS32
	SampleFmtFlt
	SampleFmtU8P
	SampleFmtS16P
	SampleFmtS32P
	SampleFmtFltP
)

// ColorSpace mirrors AVColorSpace, reduced to the cases the scaler's
// coefficient table distinguishes.
type ColorSpace int

const (
	ColorSpaceDefault ColorSpace = iota // ITU-601, also the unknown fallback
	ColorSpaceBT709
	ColorSpaceFCC
	ColorSpaceSMPTE170M
	ColorSpaceSMPTE240M
	ColorSpaceBT2020
)

// ColorRange mirrors AVColorRange.
type ColorRange int

const (
	ColorRangeUnspecified ColorRange = iota
	ColorRangeMPEG                   // limited/tv range
	ColorRangeJPEG                   // full/pc range
)

// CodecID identifies a handful of codecs this package needs to special-case
// (thread-count pinning, named-decoder preference). It is not a complete
// enumeration of AVCodecID.
type CodecID int

const (
	CodecUnknown CodecID = iota
	CodecVP8
	CodecVP9
	CodecPNG
	CodecTIFF
	CodecJPEG2000
	CodecMPEG4
	CodecWEBP
)

// singleThreadedCodecs mirrors the decoder-init thread_count pinning table
// from the original source (decode.c's init path folded into media.c's
// enumerated codec list in spec.md §4.1): these codecs misbehave or gain
// nothing from frame/slice threading in libavcodec, so they're forced to a
// single thread.
var singleThreadedCodecs = map[CodecID]bool{
	CodecPNG:      true,
	CodecTIFF:     true,
	CodecJPEG2000: true,
	CodecMPEG4:    true,
	CodecWEBP:     true,
}

// RequiresSingleThread reports whether id must be decoded with
// thread_count == 1.
func RequiresSingleThread(id CodecID) bool {
	return singleThreadedCodecs[id]
}
