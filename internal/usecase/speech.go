package usecase

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/voxprep/interview-evaluator/internal/adapter/cache"
	"github.com/voxprep/interview-evaluator/internal/domain"
)

// AudioCache is the cache surface the speech service needs.
type AudioCache interface {
	Get(ctx domain.Context, key string) ([]byte, error)
	Set(ctx domain.Context, key string, audio []byte) error
}

// SpeechService synthesizes question audio with a read-through cache, so a
// question read twice costs one synthesis call.
type SpeechService struct {
	Synth domain.SpeechSynthesizer
	Cache AudioCache
	Voice string
}

// NewSpeechService constructs a SpeechService.
func NewSpeechService(synth domain.SpeechSynthesizer, c AudioCache, voice string) SpeechService {
	return SpeechService{Synth: synth, Cache: c, Voice: voice}
}

// Speak returns MP3 audio for the text, serving from cache when possible.
func (s SpeechService) Speak(ctx domain.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrInvalidArgument)
	}

	key := cache.Key(text, s.Voice)
	if s.Cache != nil {
		audio, err := s.Cache.Get(ctx, key)
		if err == nil {
			return audio, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("audio cache read failed", slog.Any("error", err))
		}
	}

	audio, err := s.Synth.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, key, audio); err != nil {
			slog.Warn("audio cache write failed", slog.Any("error", err))
		}
	}
	return audio, nil
}
