package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/petems/secretary/internal/audio"
	"github.com/petems/secretary/internal/config"
)

// fftSize is the spectrum window used for the dominant frequency estimate.
const fftSize = 4096

type Config struct {
	Name        string
	Model       string
	Behavior    string
	ListenFor   time.Duration
	ReportEvery time.Duration
	Tone        config.ToneConfig

	Open    Opener
	Devices DeviceLister
	Logger  zerolog.Logger
}

// Secretary listens to or plays back system audio through a duplex session.
type Secretary struct {
	name        string
	model       string
	behavior    string
	listenFor   time.Duration
	reportEvery time.Duration
	tone        config.ToneConfig

	open    Opener
	devices DeviceLister
	log     zerolog.Logger
}

func NewSecretary(cfg Config) *Secretary {
	return &Secretary{
		name:        cfg.Name,
		model:       cfg.Model,
		behavior:    cfg.Behavior,
		listenFor:   cfg.ListenFor,
		reportEvery: cfg.ReportEvery,
		tone:        cfg.Tone,
		open:        cfg.Open,
		devices:     cfg.Devices,
		log:         cfg.Logger.With().Str("agent", cfg.Name).Logger(),
	}
}

func (s *Secretary) Name() string  { return s.name }
func (s *Secretary) Model() string { return s.model }

func (s *Secretary) Run(ctx context.Context) (err error) {
	switch s.behavior {
	case config.BehaviorListen, config.BehaviorPlayTone:
	default:
		return fmt.Errorf("unknown behavior %q", s.behavior)
	}

	s.log.Info().Str("model", s.model).Str("behavior", s.behavior).Msg("Agent starting")

	// The catalog holds its own subsystem handle, so list before opening.
	if s.devices != nil {
		devices, err := s.devices()
		if err != nil {
			return fmt.Errorf("list devices: %w", err)
		}
		for _, d := range devices {
			s.log.Info().
				Int("index", d.Index).
				Str("device", d.Name).
				Int("in", d.MaxInputChannels).
				Int("out", d.MaxOutputChannels).
				Int("rate", d.DefaultSampleRate).
				Msg("Audio device")
		}
	}

	sess, err := s.open()
	if err != nil {
		return fmt.Errorf("open audio session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			s.log.Error().Err(cerr).Msg("Failed to close audio session")
			if err == nil {
				err = cerr
			}
		}
	}()

	if s.behavior == config.BehaviorPlayTone {
		return s.playTone(ctx, sess)
	}
	return s.listen(ctx, sess)
}

func (s *Secretary) listen(ctx context.Context, sess Session) error {
	if s.listenFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.listenFor)
		defer cancel()
	}

	in := sess.Devices().Input
	meter := NewLevelMeter(in.DefaultSampleRate, sess.InputChannels(), fftSize)
	reportFrames := int(s.reportEvery.Seconds() * float64(in.DefaultSampleRate))

	// Bounded hand-off between the capture and analysis workers.
	blocks := make(chan []int16, 8)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(blocks)
		for gctx.Err() == nil {
			samples, err := sess.ReadSamples(sess.BufferSize())
			if err != nil {
				var ioe *audio.StreamIOError
				if errors.As(err, &ioe) && ioe.Xrun() {
					s.log.Warn().Int("code", ioe.Code).Msg("Input overflow, frames dropped")
					continue
				}
				return fmt.Errorf("capture: %w", err)
			}
			select {
			case blocks <- samples:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})
	g.Go(func() error {
		pending := 0
		for samples := range blocks {
			meter.Process(samples)
			pending += len(samples) / sess.InputChannels()
			if reportFrames > 0 && pending >= reportFrames {
				s.report(meter.Levels())
				meter.Reset()
				pending = 0
			}
		}
		return nil
	})

	err := g.Wait()
	if l := meter.Levels(); l.Frames > 0 {
		s.report(l)
	}
	s.log.Info().Msg("Agent stopped listening")
	return err
}

func (s *Secretary) report(l Levels) {
	s.log.Info().
		Int("frames", l.Frames).
		Float64("rms_db", l.RMSDB).
		Float64("peak_db", l.PeakDB).
		Float64("dominant_hz", l.DominantHz).
		Int("clipped", l.Clipped).
		Msg("Audio levels")
}

func (s *Secretary) playTone(ctx context.Context, sess Session) error {
	out := sess.Devices().Output
	gen := NewToneGenerator(s.tone.FrequencyHz, s.tone.Amplitude, out.DefaultSampleRate, sess.OutputChannels())
	total := int(s.tone.Duration.Std().Seconds() * float64(out.DefaultSampleRate))

	s.log.Info().
		Float64("frequency_hz", s.tone.FrequencyHz).
		Dur("duration", s.tone.Duration.Std()).
		Int("rate", out.DefaultSampleRate).
		Msg("Playing tone")

	for written := 0; written < total; {
		if ctx.Err() != nil {
			s.log.Info().Int("frames", written).Msg("Tone interrupted")
			return nil
		}
		n := min(sess.BufferSize(), total-written)
		if err := sess.WriteSamples(gen.Next(n)); err != nil {
			var ioe *audio.StreamIOError
			if !errors.As(err, &ioe) || !ioe.Xrun() {
				return fmt.Errorf("playback: %w", err)
			}
			s.log.Warn().Int("code", ioe.Code).Msg("Output underflow")
		}
		written += n
	}
	return nil
}
