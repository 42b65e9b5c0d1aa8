package libav

// #include <libavcodec/avcodec.h>
import "C"

import "unsafe"

// Packet wraps a just-read AVPacket reference. It is meant to be drained via
// Bytes and released immediately; the byte-cursor bookkeeping the original
// pull algorithm does directly on the AVPacket (decode.c's
// `d->pkt.data += ret; d->pkt.size -= ret`) is instead done by the caller on
// the plain []byte Bytes returns, keeping the partial-consumption cursor out
// of cgo-owned memory.
type Packet struct {
	ptr         *C.AVPacket
	streamIndex int
}

// StreamIndex is the demuxer stream this packet belongs to.
func (p *Packet) StreamIndex() int { return p.streamIndex }

// Bytes copies out the packet's payload. The returned slice is independent
// of the underlying AVPacket and remains valid after Release.
func (p *Packet) Bytes() []byte {
	if p.ptr == nil || p.ptr.size <= 0 {
		return nil
	}
	return C.GoBytes(unsafe.Pointer(p.ptr.data), p.ptr.size)
}

// Release frees the packet's underlying buffer reference.
func (p *Packet) Release() {
	if p.ptr == nil {
		return
	}
	C.av_packet_unref(p.ptr)
	C.av_packet_free(&p.ptr)
	p.ptr = nil
}
