package corereel

import "github.com/fenwick-av/corereel/internal/libav"

// decoder is the per-stream unit described in spec §4.1: a packet queue, a
// codec context (behind the streamDecoder interface), and a reusable frame
// slot. Only the scheduler goroutine ever touches a decoder.
type decoder struct {
	streamIndex int
	isAudio     bool
	timeBase    libav.Rational
	codec       streamDecoder

	queue         [][]byte
	pendingData   []byte
	packetPending bool

	frame      *libav.DecodedFrame
	frameReady bool
	eof        bool

	framePTS        int64
	hasPrevPTS      bool
	prevPTS         int64
	nextPTS         int64
	lastDuration    int64
	hasLastDuration bool
}

func newDecoder(stream libav.StreamInfo, codec streamDecoder, isAudio bool) *decoder {
	return &decoder{
		streamIndex: stream.Index,
		isAudio:     isAudio,
		timeBase:    stream.TimeBase,
		codec:       codec,
	}
}

// push appends packet to the tail of the queue. Always succeeds.
func (d *decoder) push(data []byte) {
	d.queue = append(d.queue, data)
}

// clear releases the pending packet (if any) and drains the queue.
// frameReady is left as-is.
func (d *decoder) clear() {
	d.pendingData = nil
	d.packetPending = false
	d.queue = nil
}

// teardown releases every owned resource and zeroes the decoder.
func (d *decoder) teardown() error {
	d.clear()
	var err error
	if d.codec != nil {
		err = d.codec.Close()
	}
	*d = decoder{}
	return err
}

// pull is the frame pump described in spec §4.1. On entry frameReady is
// cleared; it returns non-nil only for a DecodeError, matching the pull
// contract's "success with frameReady=false" cases.
func (d *decoder) pull(eofHint bool) error {
	d.frameReady = false
	if !eofHint && len(d.queue) == 0 {
		return nil
	}

	for {
		var feed []byte
		switch {
		case d.packetPending:
			feed = d.pendingData
		case len(d.queue) > 0:
			feed = d.queue[0]
			d.queue = d.queue[1:]
			d.pendingData = feed
			d.packetPending = true
		case d.eof || eofHint:
			feed = nil // the zero-size flush packet
		default:
			return nil
		}

		consumed, gotFrame, err := d.codec.Decode(feed)
		if err != nil {
			return &DecodeError{Op: "decode", Err: err}
		}

		if !gotFrame && consumed == 0 {
			d.eof = true
			d.frameReady = false
			return nil
		}

		d.frameReady = gotFrame
		if d.packetPending {
			if consumed > len(d.pendingData) {
				consumed = len(d.pendingData)
			}
			d.pendingData = d.pendingData[consumed:]
			if len(d.pendingData) == 0 {
				d.packetPending = false
				d.pendingData = nil
			}
		}

		if d.frameReady {
			break
		}
	}

	d.finishFrame()
	return nil
}

// finishFrame computes frame_pts and duration for the just-decoded frame,
// per spec §4.1's duration-estimation fallback chain.
func (d *decoder) finishFrame() {
	f := d.codec.Frame()
	d.frame = f

	d.framePTS = rescale(f.PTS, d.timeBase, nsTimebase)

	var duration int64
	switch {
	case f.HasPacketDuration:
		// Rescaled through the stream timebase even though packet
		// duration is already expressed in it — preserved exactly as
		// the source computes it (see spec §9's open question).
		duration = rescale(f.PacketDurationRaw, d.timeBase, nsTimebase)
	case d.hasPrevPTS:
		duration = d.framePTS - d.prevPTS
	case d.isAudio && f.SampleRate > 0:
		duration = int64(f.NbSamples) * 1_000_000_000 / int64(f.SampleRate)
	case d.hasLastDuration:
		duration = d.lastDuration
	default:
		codecTB := d.codec.TimeBase()
		unitNS := rescale(1, codecTB, nsTimebase)
		duration = int64(codecTB.Num) * unitNS
	}

	d.lastDuration = duration
	d.hasLastDuration = true
	d.prevPTS = d.framePTS
	d.hasPrevPTS = true
	d.nextPTS = d.framePTS + duration
}
