package libav

// #include <libswscale/swscale.h>
// #include <libavutil/pixfmt.h>
import "C"

import (
	"errors"
	"fmt"
	"unsafe"
)

// fixedOne is SWS's fixed-point representation of 1.0, used for the
// brightness/contrast/saturation triad sws_setColorspaceDetails expects.
const fixedOne = 1 << 16

// Scaler wraps a cached SwsContext plus the destination plane buffers it
// owns for its lifetime, mirroring ff2_media_init_scaling /
// ff2_media_next_video's sws_scale usage.
type Scaler struct {
	ctx           *C.struct_SwsContext
	width, height int
	dstFormat     PixelFormat
	dstPic        [4]*C.uint8_t
	dstLinesize   [4]C.int
}

// NewScaler builds a converter from srcFormat to dstFormat at the given
// (identical source/destination) geometry, deriving SWS color coefficients
// and range from space/colorRange the way get_sws_colorspace /
// get_sws_range do.
func NewScaler(width, height int, srcFormat, dstFormat PixelFormat, space ColorSpace, colorRange ColorRange) (*Scaler, error) {
	srcAV := pixelFormatToAV(srcFormat)
	dstAV := pixelFormatToAV(dstFormat)

	ctx := C.sws_getCachedContext(nil,
		C.int(width), C.int(height), srcAV,
		C.int(width), C.int(height), dstAV,
		C.SWS_FAST_BILINEAR, nil, nil, nil)
	if ctx == nil {
		return nil, errors.New("sws_getCachedContext failed")
	}

	coeff := C.sws_getCoefficients(swsColorspace(space))
	rangeFlag := C.int(0)
	if colorRange == ColorRangeJPEG {
		rangeFlag = 1
	}
	C.sws_setColorspaceDetails(ctx, coeff, rangeFlag, coeff, rangeFlag, 0, fixedOne, fixedOne)

	s := &Scaler{ctx: ctx, width: width, height: height, dstFormat: dstFormat}
	ret := C.av_image_alloc(&s.dstPic[0], &s.dstLinesize[0], C.int(width), C.int(height), dstAV, 1)
	if ret < 0 {
		C.sws_freeContext(ctx)
		return nil, fmt.Errorf("av_image_alloc: libav error %d", int(ret))
	}

	return s, nil
}

// Convert scales src's planes into the scaler's destination buffers and
// returns Go-owned copies of them; the returned slices stay valid after
// later Convert calls and after Close.
func (s *Scaler) Convert(src *DecodedFrame) ([][]byte, []int, error) {
	var srcData [8]*C.uint8_t
	var srcLinesize [8]C.int
	for i, plane := range src.Planes {
		srcData[i] = (*C.uint8_t)(unsafe.Pointer(&plane[0]))
		srcLinesize[i] = C.int(src.Linesize[i])
	}

	ret := C.sws_scale(s.ctx,
		(**C.uint8_t)(unsafe.Pointer(&srcData[0])), (*C.int)(unsafe.Pointer(&srcLinesize[0])),
		0, C.int(s.height),
		(**C.uint8_t)(unsafe.Pointer(&s.dstPic[0])), (*C.int)(unsafe.Pointer(&s.dstLinesize[0])))
	if ret < 0 {
		return nil, nil, fmt.Errorf("sws_scale: libav error %d", int(ret))
	}

	planes := make([][]byte, 0, 4)
	linesizes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		if s.dstPic[i] == nil {
			break
		}
		ls := int(s.dstLinesize[i])
		planes = append(planes, C.GoBytes(unsafe.Pointer(s.dstPic[i]), C.int(ls*s.height)))
		linesizes = append(linesizes, ls)
	}
	return planes, linesizes, nil
}

// Close releases the scaler context and destination buffers.
func (s *Scaler) Close() error {
	if s.dstPic[0] != nil {
		C.av_freep(unsafe.Pointer(&s.dstPic[0]))
	}
	if s.ctx != nil {
		C.sws_freeContext(s.ctx)
		s.ctx = nil
	}
	return nil
}

func swsColorspace(cs ColorSpace) C.int {
	switch cs {
	case ColorSpaceBT709:
		return C.SWS_CS_ITU709
	case ColorSpaceFCC:
		return C.SWS_CS_FCC
	case ColorSpaceSMPTE170M:
		return C.SWS_CS_SMPTE170M
	case ColorSpaceSMPTE240M:
		return C.SWS_CS_SMPTE240M
	case ColorSpaceBT2020:
		return C.SWS_CS_BT2020
	default:
		return C.SWS_CS_ITU601
	}
}

func pixelFormatToAV(f PixelFormat) C.enum_AVPixelFormat {
	switch f {
	case PixFmtYUV420P:
		return C.AV_PIX_FMT_YUV420P
	case PixFmtNV12:
		return C.AV_PIX_FMT_NV12
	case PixFmtYUYV422:
		return C.AV_PIX_FMT_YUYV422
	case PixFmtUYVY422:
		return C.AV_PIX_FMT_UYVY422
	case PixFmtRGBA:
		return C.AV_PIX_FMT_RGBA
	case PixFmtBGRA:
		return C.AV_PIX_FMT_BGRA
	case PixFmtBGR0:
		return C.AV_PIX_FMT_BGR0
	default:
		return C.AV_PIX_FMT_NONE
	}
}
