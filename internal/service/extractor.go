package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"hs-compliance/internal/models"
	"hs-compliance/pkg/normalize"

	"go.uber.org/zap"
)

// minTermLen is the exclusive lower bound, in runes, for sub-terms split
// out of a description. Full descriptions are indexed regardless of length.
const minTermLen = 3

var termSeparators = regexp.MustCompile(`[,;/]`)

// PatternExtractor finds "code description policy" triples with a regular
// expression built from the known policy keywords.
type PatternExtractor struct {
	pattern *regexp.Regexp
	logger  *zap.Logger
}

func NewPatternExtractor(keywords []string, logger *zap.Logger) (*PatternExtractor, error) {
	if len(keywords) == 0 {
		return nil, errors.New("at least one policy keyword is required")
	}

	alternatives := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		words := strings.Fields(kw)
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		alternatives = append(alternatives, strings.Join(words, `\s+`))
	}
	// RE2 alternation is leftmost-first, so "Not Permitted" must be tried
	// before any keyword it contains.
	sort.SliceStable(alternatives, func(i, j int) bool {
		return len(alternatives[i]) > len(alternatives[j])
	})

	pattern, err := regexp.Compile(`(?i)\b(\d{8,10})\s+(.+?)\s+(` + strings.Join(alternatives, "|") + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("failed to compile extraction pattern: %w", err)
	}

	return &PatternExtractor{pattern: pattern, logger: logger}, nil
}

func (e *PatternExtractor) Extract(_ context.Context, text string) (*models.Registry, *models.TermIndex, error) {
	registry := models.NewRegistry()
	terms := models.NewTermIndex()

	for _, m := range e.pattern.FindAllStringSubmatch(text, -1) {
		record := models.ClassificationCode{
			Code:        m[1],
			Description: strings.TrimSpace(m[2]),
			Policy:      strings.Join(strings.Fields(m[3]), " "),
		}
		registry.Upsert(record)
		IndexTerms(terms, record)
	}

	if registry.Len() == 0 {
		return nil, nil, ErrNoStructuralMatches
	}

	e.logger.Info("Pattern extraction completed",
		zap.Int("codes", registry.Len()),
		zap.Int("terms", terms.Len()),
	)
	return registry, terms, nil
}

// IndexTerms adds the sub-terms and the full normalized description of c
// to terms, overwriting any code previously stored under the same term.
func IndexTerms(terms *models.TermIndex, c models.ClassificationCode) {
	full := normalize.Term(c.Description)
	if full == "" {
		return
	}

	for _, part := range termSeparators.Split(full, -1) {
		part = strings.TrimSpace(part)
		if utf8.RuneCountInString(part) > minTermLen {
			terms.Put(part, c.Code)
		}
	}
	terms.Put(full, c.Code)
}

// FallbackExtractor runs primary and, only when primary finds no structural
// matches at all, fallback.
type FallbackExtractor struct {
	primary  CodeExtractor
	fallback CodeExtractor
	logger   *zap.Logger
}

func NewFallbackExtractor(primary, fallback CodeExtractor, logger *zap.Logger) *FallbackExtractor {
	return &FallbackExtractor{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (e *FallbackExtractor) Extract(ctx context.Context, text string) (*models.Registry, *models.TermIndex, error) {
	registry, terms, err := e.primary.Extract(ctx, text)
	if err == nil {
		return registry, terms, nil
	}
	if !errors.Is(err, ErrNoStructuralMatches) || e.fallback == nil {
		return nil, nil, err
	}

	e.logger.Warn("No structural matches, falling back to model-assisted extraction")
	return e.fallback.Extract(ctx, text)
}
