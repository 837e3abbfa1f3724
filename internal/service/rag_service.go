package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"hs-compliance/internal/models"
	"hs-compliance/pkg/normalize"

	"go.uber.org/zap"
)

const answerPromptTemplate = `Answer the question using only the tariff schedule excerpts below.
If the excerpts do not contain the answer, say so.

Return ONLY valid JSON in this shape, without markdown:
{"answer": "your answer", "codes": ["8471300000"]}
"codes" lists the HS/HTS codes your answer refers to, digits only; use [] when there are none.

%s

Question: %s`

const (
	noContextText  = "No relevant excerpts were found in the tariff schedule."
	fallbackAnswer = "The answer service is unavailable right now. " +
		"The excerpts listed in sources are the parts of the tariff schedule most relevant to your question."
)

type RAGService struct {
	knowledge SnapshotProvider
	embedder  Embedder
	completer TextCompleter
	topK      int
	logger    *zap.Logger
}

func NewRAGService(knowledge SnapshotProvider, embedder Embedder, completer TextCompleter, topK int, logger *zap.Logger) *RAGService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &RAGService{
		knowledge: knowledge,
		embedder:  embedder,
		completer: completer,
		topK:      topK,
		logger:    logger,
	}
}

// Search returns the passages nearest to query. topK <= 0 uses the
// configured default.
func (s *RAGService) Search(ctx context.Context, query string, topK int) ([]models.ScoredPassage, error) {
	if topK <= 0 {
		topK = s.topK
	}

	passages := s.knowledge.Snapshot().Passages
	if len(passages) == 0 {
		return nil, ErrKnowledgeNotReady
	}

	results, err := Retrieve(ctx, query, passages, s.embedder, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search knowledge base: %w", err)
	}

	s.logger.Info("Knowledge search completed",
		zap.String("query", query),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// BuildContext builds a context string from knowledge base results
func (s *RAGService) BuildContext(results []models.ScoredPassage) string {
	if len(results) == 0 {
		return noContextText
	}

	var builder strings.Builder
	builder.WriteString("Tariff schedule excerpts:\n\n")
	for i, result := range results {
		fmt.Fprintf(&builder, "%d. [passage %d, score %.3f]\n", i+1, result.ID, result.Score)
		fmt.Fprintf(&builder, "%s\n\n", result.Content)
	}
	return builder.String()
}

// Ask answers question from the nearest passages. It always produces an
// answer: retrieval or model failures degrade to a fixed reply carrying
// whatever sources were found.
func (s *RAGService) Ask(ctx context.Context, question string, topK int) *models.Answer {
	results, err := s.Search(ctx, question, topK)
	if err != nil {
		s.logger.Warn("Retrieval failed, answering without context", zap.Error(err))
		results = []models.ScoredPassage{}
	}

	prompt := fmt.Sprintf(answerPromptTemplate, s.BuildContext(results), question)
	content, err := s.completer.Complete(ctx, prompt)
	if err != nil || strings.TrimSpace(content) == "" {
		s.logger.Warn("Answer generation failed, using fallback", zap.Error(err))
		return &models.Answer{Answer: fallbackAnswer, Sources: results, Fallback: true}
	}

	answer := parseAnswer(content)
	answer.Sources = results
	return answer
}

// parseAnswer reads the {"answer","codes"} payload. Replies that are not
// valid JSON are returned verbatim as the answer.
func parseAnswer(content string) *models.Answer {
	content = strings.TrimSpace(content)

	raw, err := jsonObject(content)
	if err != nil {
		return &models.Answer{Answer: content}
	}

	var payload struct {
		Answer string   `json:"answer"`
		Codes  []string `json:"codes"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil || strings.TrimSpace(payload.Answer) == "" {
		return &models.Answer{Answer: content}
	}

	codes := make([]string, 0, len(payload.Codes))
	for _, c := range payload.Codes {
		if code := normalize.Code(c); code != "" {
			codes = append(codes, code)
		}
	}
	return &models.Answer{Answer: strings.TrimSpace(payload.Answer), Codes: codes}
}
