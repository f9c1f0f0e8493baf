package audio

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ebitengine/oto/v3"

	domain "github.com/oshokin/alarm-clock/internal/domain/alarm"
	"github.com/oshokin/alarm-clock/internal/logger"
)

// errFormatMismatch is returned when a sound does not match the running context.
var errFormatMismatch = errors.New("sound format differs from the audio device format")

// Player plays looping alarm sounds at a fixed volume.
type Player struct {
	// volume is applied to every playback.
	volume float64
	// format is the format the context was created with.
	format *wavFormat
	// context is the process-wide oto context.
	context *oto.Context
	// ready is closed once the audio device can play.
	ready <-chan struct{}
	// contextErr is the context creation error, if any.
	contextErr error
	// once guards context creation.
	once sync.Once
}

// NewPlayer creates a player with the given volume in the range 0..1.
func NewPlayer(volume float64) *Player {
	return &Player{
		volume: volume,
	}
}

// ResolvePath converts a sound reference into a file path. File URLs and
// plain paths are accepted.
func ResolvePath(ref string) (string, error) {
	ref = domain.NormalizeSoundRef(ref)
	if ref == "" {
		return "", fmt.Errorf("empty sound reference: %w", domain.ErrPlaybackFailure)
	}

	if !strings.Contains(ref, "://") {
		return filepath.Clean(ref), nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse sound reference %q: %w", ref, domain.ErrPlaybackFailure)
	}

	if u.Scheme != "file" {
		return "", fmt.Errorf("sound scheme %q is not supported: %w", u.Scheme, domain.ErrPlaybackFailure)
	}

	return filepath.Clean(u.Path), nil
}

// Play starts looping the sound at ref. The returned Playback must be stopped
// by the caller. Every failure wraps domain.ErrPlaybackFailure.
func (p *Player) Play(ctx context.Context, ref string) (*Playback, error) {
	path, err := ResolvePath(ref)
	if err != nil {
		return nil, err
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sound %s: %w: %w", path, domain.ErrPlaybackFailure, err)
	}

	format, samples, err := parseWAV(contents)
	if err != nil {
		return nil, fmt.Errorf("decode sound %s: %w: %w", path, domain.ErrPlaybackFailure, err)
	}

	audioContext, err := p.ensureContext(ctx, format)
	if err != nil {
		return nil, err
	}

	player := audioContext.NewPlayer(&loopReader{data: samples})
	player.SetVolume(p.volume)
	player.Play()

	logger.InfoKV(ctx, "Alarm sound started", "path", path, "sample_rate", format.SampleRate)

	return &Playback{player: player}, nil
}

// ensureContext creates the oto context once, waits for the device and checks
// the sound matches it. A wait cut short by ctx can be retried later.
func (p *Player) ensureContext(ctx context.Context, format *wavFormat) (*oto.Context, error) {
	p.once.Do(func() {
		options := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
		}

		audioContext, ready, err := oto.NewContext(options)
		if err != nil {
			p.contextErr = fmt.Errorf("open audio device: %w: %w", domain.ErrPlaybackFailure, err)

			return
		}

		p.context = audioContext
		p.ready = ready
		p.format = format

		logger.DebugKV(ctx, "Audio context created", "sample_rate", format.SampleRate, "channels", format.Channels)
	})

	if p.contextErr != nil {
		return nil, p.contextErr
	}

	// Wait for the hardware audio devices to be ready.
	select {
	case <-p.ready:
	case <-ctx.Done():
		return nil, fmt.Errorf("open audio device: %w: %w", domain.ErrPlaybackFailure, ctx.Err())
	}

	if *p.format != *format {
		return nil, fmt.Errorf("%w: %w", errFormatMismatch, domain.ErrPlaybackFailure)
	}

	return p.context, nil
}

// Playback is a running sound loop.
type Playback struct {
	player *oto.Player
	once   sync.Once
	err    error
}

// Stop silences and releases the loop. Calling it more than once is safe.
func (pb *Playback) Stop() error {
	pb.once.Do(func() {
		pb.player.Pause()

		if err := pb.player.Close(); err != nil {
			pb.err = fmt.Errorf("close audio player: %w", err)
		}
	})

	return pb.err
}
