package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vitaldash/vitaldash/internal/ai"
	"github.com/vitaldash/vitaldash/internal/model"
	appErr "github.com/vitaldash/vitaldash/internal/pkg/errors"
	"github.com/vitaldash/vitaldash/internal/rag"
	"github.com/vitaldash/vitaldash/internal/service"
)

type emptyProfiles struct{}

func (emptyProfiles) GetByUser(ctx context.Context, userID string) (*model.HealthProfile, error) {
	return nil, appErr.ErrNotFound
}

type emptySummaries struct{}

func (emptySummaries) LatestSummaries(ctx context.Context, userID string) ([]model.ReportSummary, error) {
	return nil, nil
}

type countingGenerator struct {
	calls int
}

func (g *countingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls++
	return "generated answer", nil
}

type staticEmbedder struct{}

func (staticEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (staticEmbedder) ModelName() string {
	return "static-embed"
}

func newEmptyAssistant(t *testing.T) (*service.AssistantService, *countingGenerator) {
	t.Helper()
	gen := &countingGenerator{}
	manager := ai.NewManager(gen, staticEmbedder{}, ai.ManagerConfig{})
	builder := rag.NewDocumentBuilder(emptyProfiles{}, emptySummaries{})
	kb := rag.NewStore(t.TempDir(), builder, rag.NewChunker(750, 120), staticEmbedder{})
	return service.NewAssistantService(manager, kb, nil, 4, 4, time.Hour), gen
}

func TestAskEmptyKnowledgeBaseSkipsGeneration(t *testing.T) {
	assistant, gen := newEmptyAssistant(t)

	_, err := assistant.Ask(context.Background(), "u1", "is my glucose ok?")
	require.ErrorIs(t, err, service.ErrKnowledgeBaseEmpty)
	require.Equal(t, 0, gen.calls)
}

func TestAskBlankQuestionRejected(t *testing.T) {
	assistant, gen := newEmptyAssistant(t)

	_, err := assistant.Ask(context.Background(), "u1", "   ")
	require.ErrorIs(t, err, appErr.ErrInvalid)
	require.Equal(t, 0, gen.calls)
}
