package service

import (
	"context"
	"errors"
	"testing"

	"hs-compliance/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ragKnowledge() staticKnowledge {
	snapshot := models.NewEmptySnapshot()
	snapshot.Passages = []models.Passage{
		{ID: 0, Content: "Live horses, asses, mules", Embedding: []float32{0, 1, 0}},
		{ID: 1, Content: "Laptops are allowed without licence", Embedding: []float32{1, 0, 0}},
		{ID: 2, Content: "Firearms are prohibited", Embedding: []float32{0, 0, 1}},
	}
	return staticKnowledge{snapshot: snapshot}
}

func newRAGService(knowledge SnapshotProvider, completer TextCompleter) *RAGService {
	return NewRAGService(knowledge, keywordEmbedder("laptop", "horse", "firearm"), completer, 2, zap.NewNop())
}

func TestRAGService_Search(t *testing.T) {
	results, err := newRAGService(ragKnowledge(), &fakeCompleter{}).Search(context.Background(), "can I import a laptop", 0)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestRAGService_SearchNotReady(t *testing.T) {
	_, err := newRAGService(staticKnowledge{snapshot: models.NewEmptySnapshot()}, &fakeCompleter{}).
		Search(context.Background(), "laptop", 3)
	assert.ErrorIs(t, err, ErrKnowledgeNotReady)
}

func TestRAGService_BuildContext(t *testing.T) {
	s := newRAGService(ragKnowledge(), &fakeCompleter{})
	assert.Equal(t, noContextText, s.BuildContext(nil))

	ctx := s.BuildContext([]models.ScoredPassage{{Passage: models.Passage{ID: 4, Content: "Firearms are prohibited"}, Score: 0.5}})
	assert.Contains(t, ctx, "1. [passage 4, score 0.500]")
	assert.Contains(t, ctx, "Firearms are prohibited")
}

func TestRAGService_AskParsesJSON(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"```json\n{\"answer\": \"Yes, laptops are allowed.\", \"codes\": [\"8471.30.00.00\", \"\"]}\n```"}}

	answer := newRAGService(ragKnowledge(), completer).Ask(context.Background(), "Can I import a laptop?", 1)

	assert.Equal(t, "Yes, laptops are allowed.", answer.Answer)
	assert.Equal(t, []string{"8471300000"}, answer.Codes)
	assert.False(t, answer.Fallback)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, 1, answer.Sources[0].ID)

	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "Laptops are allowed without licence")
	assert.Contains(t, completer.prompts[0], "Question: Can I import a laptop?")
}

func TestRAGService_AskRawTextOnParseFailure(t *testing.T) {
	completer := &fakeCompleter{responses: []string{"  Laptops are allowed.  "}}

	answer := newRAGService(ragKnowledge(), completer).Ask(context.Background(), "laptop?", 1)
	assert.Equal(t, "Laptops are allowed.", answer.Answer)
	assert.Empty(t, answer.Codes)
	assert.False(t, answer.Fallback)
}

func TestRAGService_AskFallsBackWhenCompleterFails(t *testing.T) {
	answer := newRAGService(ragKnowledge(), &fakeCompleter{err: errors.New("timeout")}).
		Ask(context.Background(), "firearms?", 1)

	assert.True(t, answer.Fallback)
	assert.Equal(t, fallbackAnswer, answer.Answer)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, 2, answer.Sources[0].ID)
}

func TestRAGService_AskWithoutIndex(t *testing.T) {
	completer := &fakeCompleter{responses: []string{`{"answer": "The schedule does not say.", "codes": []}`}}

	answer := newRAGService(staticKnowledge{snapshot: models.NewEmptySnapshot()}, completer).
		Ask(context.Background(), "anything?", 0)
	assert.Equal(t, "The schedule does not say.", answer.Answer)
	assert.Empty(t, answer.Sources)
	assert.Contains(t, completer.prompts[0], noContextText)
}

func TestRAGService_UnavailableCompleter(t *testing.T) {
	answer := newRAGService(ragKnowledge(), UnavailableCompleter{}).Ask(context.Background(), "laptop", 1)
	assert.True(t, answer.Fallback)
}
