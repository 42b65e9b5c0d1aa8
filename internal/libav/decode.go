package libav

// #include <libavcodec/avcodec.h>
// #include <libavutil/frame.h>
// #include <stdlib.h>
import "C"

import (
	"errors"
	"fmt"
	"unsafe"
)

// CodecContext wraps an opened AVCodecContext plus the single reusable
// AVFrame slot a Decoder pulls into. It intentionally exposes the legacy
// avcodec_decode_video2/avcodec_decode_audio4 partial-consumption contract
// (bytes consumed, frame produced) rather than the modern send/receive
// API, because the pull algorithm this binds into (corereel's Decoder)
// is specified in those exact terms — see decode.c in the original
// sources this was distilled from.
type CodecContext struct {
	ctx       *C.AVCodecContext
	frame     *C.AVFrame
	isAudio   bool
	timeBase  Rational // codec context's own time_base, used as a last-resort duration estimate
}

// NewDecoderContext allocates and opens a decoder for stream. When
// hwDecoding is set it first tries the codec's NVDEC ("_cuvid")
// hardware-accelerated decoder, falling back to a named decoder for
// VP8/VP9 when one is registered (libvpx tends to be more robust than the
// built-in decoder for those codecs), and finally to whatever decoder
// matches the codec id. Thread count is left at 0 (auto) except for the
// codecs RequiresSingleThread flags, which are pinned to 1.
func NewDecoderContext(stream StreamInfo, isAudio bool, hwDecoding bool) (*CodecContext, error) {
	codec := findPreferredDecoder(stream.codecpar.codec_id, stream.CodecID, hwDecoding)
	if codec == nil {
		return nil, errors.New("no matching decoder found")
	}

	ctx := C.avcodec_alloc_context3(codec)
	if ctx == nil {
		return nil, errors.New("avcodec_alloc_context3 failed")
	}

	if ret := C.avcodec_parameters_to_context(ctx, stream.codecpar); ret < 0 {
		C.avcodec_free_context(&ctx)
		return nil, fmt.Errorf("avcodec_parameters_to_context: libav error %d", int(ret))
	}

	if RequiresSingleThread(stream.CodecID) {
		ctx.thread_count = 1
	} else {
		ctx.thread_count = 0
	}

	if ret := C.avcodec_open2(ctx, codec, nil); ret < 0 {
		C.avcodec_free_context(&ctx)
		return nil, fmt.Errorf("avcodec_open2: libav error %d", int(ret))
	}

	frame := C.av_frame_alloc()
	if frame == nil {
		C.avcodec_free_context(&ctx)
		return nil, errors.New("av_frame_alloc failed")
	}

	return &CodecContext{
		ctx:      ctx,
		frame:    frame,
		isAudio:  isAudio,
		timeBase: Rational{Num: int(ctx.time_base.num), Den: int(ctx.time_base.den)},
	}, nil
}

func findPreferredDecoder(id C.enum_AVCodecID, mapped CodecID, hwDecoding bool) *C.AVCodec {
	if hwDecoding {
		if c := findDecoderByName(hwDecoderName(id)); c != nil {
			return c
		}
	}
	if mapped == CodecVP8 {
		if c := findDecoderByName("libvpx"); c != nil {
			return c
		}
	}
	if mapped == CodecVP9 {
		if c := findDecoderByName("libvpx-vp9"); c != nil {
			return c
		}
	}
	return C.avcodec_find_decoder(id)
}

// hwDecoderName builds the NVDEC decoder name FFmpeg registers for id when
// built with cuvid support, e.g. "h264_cuvid". findDecoderByName safely
// returns nil when no such decoder is registered, the same fallback path
// findPreferredDecoder already relies on for the VP8/VP9 named decoders.
func hwDecoderName(id C.enum_AVCodecID) string {
	return C.GoString(C.avcodec_get_name(id)) + "_cuvid"
}

func findDecoderByName(name string) *C.AVCodec {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	return C.avcodec_find_decoder_by_name(cName)
}

// TimeBase returns the codec context's own time_base, the last-resort
// duration estimate source in the Decoder's pull algorithm.
func (c *CodecContext) TimeBase() Rational { return c.timeBase }

// DecodeVideo feeds data into the video decode path, mirroring
// avcodec_decode_video2's (bytes_consumed, got_frame) contract. A nil or
// empty data is the zero-size drain packet the pull algorithm feeds a
// decoder once EOF is reached and no more demuxed packets remain.
func (c *CodecContext) DecodeVideo(data []byte) (int, bool, error) {
	return c.decode(data, false)
}

// DecodeAudio feeds data into the audio decode path, mirroring
// avcodec_decode_audio4's (bytes_consumed, got_frame) contract.
func (c *CodecContext) DecodeAudio(data []byte) (int, bool, error) {
	return c.decode(data, true)
}

func (c *CodecContext) decode(data []byte, audio bool) (int, bool, error) {
	var cPkt C.AVPacket
	if len(data) > 0 {
		cPkt.data = (*C.uint8_t)(unsafe.Pointer(&data[0]))
		cPkt.size = C.int(len(data))
	}
	// flush/zero-length data keeps cPkt's zero value: data=NULL, size=0.

	var gotFrame C.int
	var ret C.int
	if audio {
		ret = C.avcodec_decode_audio4(c.ctx, c.frame, &gotFrame, &cPkt)
	} else {
		ret = C.avcodec_decode_video2(c.ctx, c.frame, &gotFrame, &cPkt)
	}
	if ret < 0 {
		return 0, false, fmt.Errorf("decode failed: libav error %d", int(ret))
	}
	return int(ret), gotFrame != 0, nil
}

// Frame copies the most recently decoded AVFrame into a self-contained,
// GC-owned DecodedFrame. It must be called only right after a DecodeVideo
// or DecodeAudio call reported gotFrame == true.
func (c *CodecContext) Frame() *DecodedFrame {
	f := c.frame
	out := &DecodedFrame{IsAudio: c.isAudio}

	pts := int64(f.pts)
	if bestEffort := int64(C.av_frame_get_best_effort_timestamp(f)); bestEffort != int64(C.AV_NOPTS_VALUE) {
		pts = bestEffort
	}
	out.PTS = pts

	if dur := int64(f.pkt_duration); dur > 0 {
		out.PacketDurationRaw = dur
		out.HasPacketDuration = true
	}

	if c.isAudio {
		out.SampleRate = int(f.sample_rate)
		out.Channels = int(f.channels)
		out.NbSamples = int(f.nb_samples)
		out.SampleFormat = sampleFormatFromAV(int32(f.format))
		out.Planes, out.Linesize = copyPlanes(f, int(out.SampleFormat), out.Channels)
	} else {
		out.Width = int(f.width)
		out.Height = int(f.height)
		out.PixelFormat = pixelFormatFromAV(int32(f.format))
		out.ColorSpace = colorSpaceFromAV(f.colorspace)
		out.ColorRange = colorRangeFromAV(f.color_range)
		out.Planes, out.Linesize = copyPlanes(f, int(out.PixelFormat), 0)
	}

	return out
}

// Flush discards any buffered decode state, mirroring
// avcodec_flush_buffers.
func (c *CodecContext) Flush() {
	C.avcodec_flush_buffers(c.ctx)
}

// Close releases the codec context and frame.
func (c *CodecContext) Close() error {
	if c.frame != nil {
		C.av_frame_free(&c.frame)
	}
	if c.ctx != nil {
		C.avcodec_close(c.ctx)
		C.avcodec_free_context(&c.ctx)
	}
	return nil
}

func copyPlanes(f *C.AVFrame, format int, audioChannels int) ([][]byte, []int) {
	const maxPlanes = 8
	var planes [][]byte
	var linesizes []int

	for i := 0; i < maxPlanes; i++ {
		data := f.data[i]
		if data == nil {
			break
		}
		linesize := int(f.linesize[i])
		if audioChannels > 0 {
			// libav sets only linesize[0] for audio; every plane has that size.
			linesize = int(f.linesize[0])
		}
		if linesize <= 0 {
			break
		}
		rows := int(f.height)
		if rows <= 0 {
			rows = 1
		}
		size := linesize * rows
		buf := C.GoBytes(unsafe.Pointer(data), C.int(size))
		planes = append(planes, buf)
		linesizes = append(linesizes, linesize)
	}
	return planes, linesizes
}

func pixelFormatFromAV(f int32) PixelFormat {
	switch f {
	case C.AV_PIX_FMT_YUV420P:
		return PixFmtYUV420P
	case C.AV_PIX_FMT_NV12:
		return PixFmtNV12
	case C.AV_PIX_FMT_YUYV422:
		return PixFmtYUYV422
	case C.AV_PIX_FMT_UYVY422:
		return PixFmtUYVY422
	case C.AV_PIX_FMT_RGBA:
		return PixFmtRGBA
	case C.AV_PIX_FMT_BGRA:
		return PixFmtBGRA
	case C.AV_PIX_FMT_BGR0:
		return PixFmtBGR0
	case C.AV_PIX_FMT_NONE:
		return PixFmtNone
	default:
		return PixFmtOther
	}
}

func sampleFormatFromAV(f int32) SampleFormat {
	switch f {
	case C.AV_SAMPLE_FMT_U8:
		return SampleFmtU8
	case C.AV_SAMPLE_FMT_S16:
		return SampleFmtS16
	case C.AV_SAMPLE_FMT_S32:
		return SampleFmtS32
	case C.AV_SAMPLE_FMT_FLT:
		return SampleFmtFlt
	case C.AV_SAMPLE_FMT_U8P:
		return SampleFmtU8P
	case C.AV_SAMPLE_FMT_S16P:
		return SampleFmtS16P
	case C.AV_SAMPLE_FMT_S32P:
		return SampleFmtS32P
	case C.AV_SAMPLE_FMT_FLTP:
		return SampleFmtFltP
	default:
		return SampleFmtNone
	}
}

func colorSpaceFromAV(cs C.enum_AVColorSpace) ColorSpace {
	switch cs {
	case C.AVCOL_SPC_BT709:
		return ColorSpaceBT709
	case C.AVCOL_SPC_FCC:
		return ColorSpaceFCC
	case C.AVCOL_SPC_SMPTE170M:
		return ColorSpaceSMPTE170M
	case C.AVCOL_SPC_SMPTE240M:
		return ColorSpaceSMPTE240M
	case C.AVCOL_SPC_BT2020_NCL, C.AVCOL_SPC_BT2020_CL:
		return ColorSpaceBT2020
	default:
		return ColorSpaceDefault
	}
}

func colorRangeFromAV(r C.enum_AVColorRange) ColorRange {
	if r == C.AVCOL_RANGE_JPEG {
		return ColorRangeJPEG
	}
	return ColorRangeMPEG
}
