// Command reelplay is an example host for corereel: it resolves a Config
// from flags/.env, opens a Media, and drives an SDL2 window plus an
// ebitengine audio player from the core's callbacks. None of this wiring
// is part of the core — it is host territory, exactly the way
// corereel.Config's OUT-OF-SCOPE note describes it.
package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/fenwick-av/corereel"
	"github.com/fenwick-av/corereel/internal/libav"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "reelplay: .env: %v\n", err)
	}

	cfg, loop, sampleRate := resolveConfig()

	win, err := newWindow("reelplay")
	if err != nil {
		fmt.Fprintf(os.Stderr, "reelplay: %v\n", err)
		os.Exit(1)
	}
	defer win.close()

	sink := newAudioSink(sampleRate)

	media, err := corereel.Init(cfg, corereel.Callbacks{
		Video:   win.onVideoFrame,
		Audio:   sink.onAudioFrame,
		Stopped: win.onStopped,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "reelplay: init failed: %v\n", err)
		os.Exit(1)
	}
	defer media.Free()

	media.Play(loop)

	win.runEventLoop()
}

// resolveConfig turns flags/env into a corereel.Config; looping and the
// audio sample rate live outside Config per SPEC_FULL.md's EXTERNAL
// INTERFACES note (Looping is a Play argument, not a Config field).
func resolveConfig() (corereel.Config, bool, int) {
	path := flag.StringP("input", "i", os.Getenv("REELPLAY_INPUT"), "input file or network URL")
	formatHint := flag.String("format", os.Getenv("REELPLAY_FORMAT"), "force a specific demuxer by name")
	hw := flag.Bool("hwdecode", false, "prefer hardware decoding")
	loop := flag.BoolP("loop", "l", false, "loop playback")
	forceRange := flag.String("color-range", "default", "default|partial|full")
	sampleRate := flag.Int("sample-rate", 48000, "audio output sample rate")
	flag.Parse()

	var fr corereel.ForceRange
	switch *forceRange {
	case "partial":
		fr = corereel.RangePartial
	case "full":
		fr = corereel.RangeFull
	default:
		fr = corereel.RangeDefault
	}

	if *path == "" && flag.NArg() > 0 {
		*path = flag.Arg(0)
	}

	return corereel.Config{
		Path:             *path,
		FormatHint:       *formatHint,
		HardwareDecoding: *hw,
		ForceRange:       fr,
	}, *loop, *sampleRate
}

// window owns the SDL2 surface corereel's video callback paints into,
// grounded in the SDL2 render-target usage of
// _examples/Luminate-Inc-flow-frame/screens/videoPlayer/game.go.
type window struct {
	mu       sync.Mutex
	win      *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	texW     int
	texH     int
	quit     bool
}

func newWindow(title string) (*window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("sdl init: %w", err)
	}
	win, err := sdl.CreateWindow(title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		960, 540, sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return nil, fmt.Errorf("sdl create window: %w", err)
	}
	renderer, err := sdl.CreateRenderer(win, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		win.Destroy()
		return nil, fmt.Errorf("sdl create renderer: %w", err)
	}
	return &window{win: win, renderer: renderer}, nil
}

func (w *window) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.texture != nil {
		w.texture.Destroy()
	}
	w.renderer.Destroy()
	w.win.Destroy()
	sdl.Quit()
}

// onVideoFrame is invoked from corereel's scheduler goroutine; SDL2 calls
// must happen on the main thread, so the frame is copied and repainted by
// runEventLoop instead of rendered here directly.
func (w *window) onVideoFrame(f corereel.VideoFrame) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.texture == nil || w.texW != f.Width || w.texH != f.Height {
		if w.texture != nil {
			w.texture.Destroy()
		}
		tex, err := w.renderer.CreateTexture(sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING,
			int32(f.Width), int32(f.Height))
		if err != nil {
			return
		}
		w.texture = tex
		w.texW, w.texH = f.Width, f.Height
	}

	if f.PixelFormat != libav.PixFmtRGBA || len(f.Planes) == 0 {
		return
	}
	_ = w.texture.Update(nil, f.Planes[0], f.Linesize[0])
}

func (w *window) onStopped() {
	w.mu.Lock()
	w.quit = true
	w.mu.Unlock()
}

func (w *window) runEventLoop() {
	for {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch event.(type) {
			case *sdl.QuitEvent:
				return
			}
		}

		w.mu.Lock()
		quit := w.quit
		w.renderer.Clear()
		if w.texture != nil {
			w.renderer.Copy(w.texture, nil, nil)
		}
		w.mu.Unlock()

		w.renderer.Present()
		if quit {
			return
		}
		sdl.Delay(16)
	}
}

// audioSink feeds decoded audio into an ebitengine audio.Player the way
// _examples/erparts-go-avebi/controller_yes_audio.go buffers leftover
// sample bytes between reads.
type audioSink struct {
	mu       sync.Mutex
	buf      []byte
	player   *audio.Player
	lastFeed time.Time
}

func newAudioSink(sampleRate int) *audioSink {
	ctx := audio.NewContext(sampleRate)
	s := &audioSink{}
	p, err := ctx.NewPlayer(s)
	if err == nil {
		s.player = p
		p.Play()
	}
	return s
}

// Read satisfies io.Reader for audio.Player, draining buffered PCM bytes
// or emitting silence when the decoder has fallen behind.
func (s *audioSink) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.buf) == 0 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	if n < len(p) {
		for i := n; i < len(p); i++ {
			p[i] = 0
		}
	}
	return len(p), nil
}

func (s *audioSink) onAudioFrame(f corereel.AudioFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, plane := range f.Planes {
		s.buf = append(s.buf, plane...)
	}
	s.lastFeed = time.Now()
}
