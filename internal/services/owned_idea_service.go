// Package services – OwnedIdeaService
//
// This file implements OwnedIdeaService, which manages a user's saved idea
// collection: explicit saves (with an optional founder-fit score), paginated
// listing, retrieval, deletion, and lexical search over the saved reports.
// When a save arrives without a title, a concise one is derived from the
// problem statement.
//
// Observability: public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/upstarthq/idealab-backend/internal/domain"
	"github.com/upstarthq/idealab-backend/internal/repo"
	"github.com/upstarthq/idealab-backend/internal/search"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SaveIdeaInput carries one idea report to be saved into a user's collection.
type SaveIdeaInput struct {
	IdeaTitle string
	Problem   string
	Solution  string
	Market    string

	Analysis      json.RawMessage
	TrendData     json.RawMessage
	GoToMarket    json.RawMessage
	Attributes    json.RawMessage
	HealthMetrics json.RawMessage
	ValueLadder   json.RawMessage

	// FitScore is the founder-fit quiz result (0-100), when the user took
	// the quiz before saving.
	FitScore *int
}

// OwnedIdeaService provides operations over a user's saved ideas.
type OwnedIdeaService struct {
	DB *gorm.DB

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
	// TitleLocale selects the casing rules for derived titles.
	TitleLocale language.Tag
}

// NewOwnedIdeaService constructs an OwnedIdeaService with sane defaults for
// title handling.
func NewOwnedIdeaService(db *gorm.DB) *OwnedIdeaService {
	return &OwnedIdeaService{
		DB:          db,
		TitleMaxLen: 120,
		TitleLocale: language.Und,
	}
}

// Save validates and persists one idea into the user's collection.
func (s *OwnedIdeaService) Save(ctx context.Context, userID string, in SaveIdeaInput) (*domain.OwnedIdea, error) {
	tr := otel.Tracer("services/OwnedIdeaService")
	ctx, span := tr.Start(ctx, "Save",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	if in.FitScore != nil && (*in.FitScore < 0 || *in.FitScore > 100) {
		return nil, ErrInvalidFitScore
	}

	title := normalizeTitle(in.IdeaTitle)
	if title == "" {
		title = s.deriveTitle(in.Problem)
	}
	if title == "" {
		return nil, ErrEmptyIdea
	}

	return repo.CreateOwnedIdea(ctx, s.DB, &domain.OwnedIdea{
		UserID:        userID,
		IdeaTitle:     s.clip(title),
		Problem:       strings.TrimSpace(in.Problem),
		Solution:      strings.TrimSpace(in.Solution),
		Market:        strings.TrimSpace(in.Market),
		Analysis:      datatypesJSON(in.Analysis),
		TrendData:     datatypesJSON(in.TrendData),
		GoToMarket:    datatypesJSON(in.GoToMarket),
		Attributes:    datatypesJSON(in.Attributes),
		HealthMetrics: datatypesJSON(in.HealthMetrics),
		ValueLadder:   datatypesJSON(in.ValueLadder),
		FitScore:      in.FitScore,
	})
}

// ListPage returns a page of the user's ideas (newest first) plus the total
// count. It applies defaults for invalid page/pageSize.
func (s *OwnedIdeaService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.OwnedIdea, int64, error) {
	tr := otel.Tracer("services/OwnedIdeaService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountOwnedIdeas(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.OwnedIdea{}, 0, nil
	}

	items, err := repo.ListOwnedIdeasPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Get returns one of the user's ideas, or ErrIdeaNotFound.
func (s *OwnedIdeaService) Get(ctx context.Context, userID, id string) (*domain.OwnedIdea, error) {
	idea, err := repo.GetOwnedIdea(ctx, s.DB, id, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrIdeaNotFound
	}
	return idea, err
}

// Delete removes one of the user's ideas, or returns ErrIdeaNotFound.
func (s *OwnedIdeaService) Delete(ctx context.Context, userID, id string) error {
	err := repo.DeleteOwnedIdea(ctx, s.DB, id, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrIdeaNotFound
	}
	return err
}

// Search ranks the user's ideas against a free-text query and returns up to
// limit matches, best first. The index is rebuilt per call; collections are
// per-user and small, so this stays cheap and always fresh.
func (s *OwnedIdeaService) Search(ctx context.Context, userID, query string, limit int) ([]domain.OwnedIdea, error) {
	tr := otel.Tracer("services/OwnedIdeaService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("query", query),
		),
	)
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return []domain.OwnedIdea{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	all, err := repo.ListOwnedIdeas(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return []domain.OwnedIdea{}, nil
	}

	byID := make(map[string]domain.OwnedIdea, len(all))
	docs := make([]search.Doc, 0, len(all))
	for _, idea := range all {
		byID[idea.ID] = idea
		docs = append(docs, search.Doc{
			ID: idea.ID,
			Text: search.FlattenIdea(
				idea.IdeaTitle, idea.Problem, idea.Solution, idea.Market,
				idea.Analysis, idea.TrendData, idea.GoToMarket,
			),
		})
	}

	results := search.NewIndex(docs).TopK(query, limit)
	out := make([]domain.OwnedIdea, 0, len(results))
	for _, r := range results {
		if idea, ok := byID[r.ID]; ok {
			out = append(out, idea)
		}
	}
	return out, nil
}

// deriveTitle builds a concise title from the problem statement.
func (s *OwnedIdeaService) deriveTitle(problem string) string {
	problem = strings.TrimSpace(problem)
	if problem == "" {
		return ""
	}
	toks := titleWordRE.FindAllString(strings.ToLower(problem), -1)
	if len(toks) == 0 {
		return ""
	}

	titleCaser := cases.Title(s.titleLocaleOrDefault())
	out := make([]string, 0, 8)
	for _, w := range toks {
		if _, skip := titleStopWords[w]; skip {
			continue
		}
		out = append(out, titleCaser.String(w))
		if len(out) >= 8 {
			break
		}
	}
	return strings.Join(out, " ")
}

// clip truncates a title to the configured maximum rune length.
func (s *OwnedIdeaService) clip(title string) string {
	if s.TitleMaxLen > 0 && utf8.RuneCountInString(title) > s.TitleMaxLen {
		return string([]rune(title)[:s.TitleMaxLen])
	}
	return title
}

func (s *OwnedIdeaService) titleLocaleOrDefault() language.Tag {
	if s.TitleLocale == language.Und {
		return language.English
	}
	return s.TitleLocale
}

// datatypesJSON passes raw JSON through, mapping empty input to nil so the
// column stays NULL instead of storing "".
func datatypesJSON(raw json.RawMessage) []byte {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}

// normalizeTitle trims whitespace and collapses multiple spaces to one.
func normalizeTitle(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)

// titleWordRE extracts Unicode letters with optional trailing numbers.
var titleWordRE = regexp.MustCompile(`[\p{L}]+[\p{N}]*`)

// titleStopWords is a minimal English stop-words set for compact titles.
var titleStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"is": {}, "are": {}, "for": {}, "on": {}, "with": {}, "by": {}, "from": {},
	"at": {}, "as": {}, "that": {}, "this": {}, "it": {}, "be": {}, "was": {}, "were": {},
}
