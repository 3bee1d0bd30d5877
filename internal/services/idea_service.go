// Package services – IdeaService
//
// This file implements IdeaService, which owns the shared "idea of the day"
// lifecycle: serving the cached daily idea while it is fresh, regenerating it
// through the configured Generator when it ages out (or when a refresh is
// explicitly forced), and producing one-off reports that are never cached.
//
// Observability: public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/upstarthq/idealab-backend/internal/domain"
	"github.com/upstarthq/idealab-backend/internal/genai"
	"github.com/upstarthq/idealab-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Generator produces one idea report. Implemented by genai.Client; faked in
// tests.
type Generator interface {
	Generate(ctx context.Context) (*genai.IdeaReport, []byte, error)
}

// IdeaService coordinates generation and caching of daily ideas.
type IdeaService struct {
	DB        *gorm.DB
	Generator Generator

	// FreshFor is how long a generated idea stays the "idea of the day".
	FreshFor time.Duration
}

// NewIdeaService constructs an IdeaService with the default 24h freshness
// window.
func NewIdeaService(db *gorm.DB, gen Generator) *IdeaService {
	return &IdeaService{
		DB:        db,
		Generator: gen,
		FreshFor:  24 * time.Hour,
	}
}

// Generate produces a one-off idea report without touching the daily cache.
// The raw report JSON is returned for the handler to serve verbatim.
func (s *IdeaService) Generate(ctx context.Context) ([]byte, error) {
	tr := otel.Tracer("services/IdeaService")
	ctx, span := tr.Start(ctx, "Generate")
	defer span.End()

	_, raw, err := s.Generator.Generate(ctx)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Daily returns the current idea of the day, generating and persisting a new
// one when the newest available idea is stale, sold, or absent, or when
// forceNew is set. The second return value reports whether this call actually
// generated (false means the cached idea was served).
//
// Sold ideas never count as the cached idea regardless of age: the day's idea
// disappearing into a buyer's collection immediately frees the slot for a
// fresh one.
func (s *IdeaService) Daily(ctx context.Context, forceNew bool) (*domain.DailyIdea, bool, error) {
	tr := otel.Tracer("services/IdeaService")
	ctx, span := tr.Start(ctx, "Daily",
		trace.WithAttributes(attribute.Bool("force_new", forceNew)),
	)
	defer span.End()

	if !forceNew {
		latest, err := repo.LatestAvailableIdea(ctx, s.DB)
		switch {
		case err == nil:
			if time.Since(latest.GeneratedAt) < s.freshFor() {
				span.SetAttributes(attribute.Bool("cache_hit", true))
				return latest, false, nil
			}
		case errors.Is(err, repo.ErrNotFound):
			// fall through to generation
		default:
			return nil, false, err
		}
	}

	_, raw, err := s.Generator.Generate(ctx)
	if err != nil {
		return nil, false, err
	}
	idea, err := repo.CreateDailyIdea(ctx, s.DB, raw)
	if err != nil {
		return nil, false, err
	}
	return idea, true, nil
}

// Get returns a daily idea by id, or ErrIdeaNotFound.
func (s *IdeaService) Get(ctx context.Context, id string) (*domain.DailyIdea, error) {
	idea, err := repo.GetDailyIdea(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrIdeaNotFound
	}
	return idea, err
}

func (s *IdeaService) freshFor() time.Duration {
	if s.FreshFor > 0 {
		return s.FreshFor
	}
	return 24 * time.Hour
}
