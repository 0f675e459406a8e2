package rag_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitaldash/vitaldash/internal/model"
	"github.com/vitaldash/vitaldash/internal/rag"
)

// fakeEmbedder maps keyword presence onto fixed axes, so similarity is
// deterministic without a real model.
type fakeEmbedder struct {
	model string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	lower := strings.ToLower(text)
	vec := []float32{0, 0, 0, 0.25}
	if strings.Contains(lower, "glucose") {
		vec[0] = 1
	}
	if strings.Contains(lower, "cholesterol") {
		vec[1] = 1
	}
	if strings.Contains(lower, "weight") {
		vec[2] = 1
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec, nil
}

func (f *fakeEmbedder) ModelName() string {
	return f.model
}

func newTestStore(t *testing.T, profile *model.HealthProfile, summaries []model.ReportSummary) (*rag.Store, string) {
	t.Helper()
	dir := t.TempDir()
	builder := rag.NewDocumentBuilder(
		&fakeProfiles{profile: profile},
		&fakeSummaries{summaries: summaries},
	)
	chunker := rag.NewChunker(750, 120)
	store := rag.NewStore(dir, builder, chunker, &fakeEmbedder{model: "fake-embed-001"})
	return store, dir
}

func TestRebuildEmptySourcesLeavesNoIndex(t *testing.T) {
	store, dir := newTestStore(t, nil, nil)
	ctx := context.Background()

	_, err := store.Rebuild(ctx, "u1")
	require.ErrorIs(t, err, rag.ErrEmptyKnowledgeBase)

	state, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, rag.LoadAbsent, state)
	_, statErr := os.Stat(filepath.Join(dir, "user_u1"))
	require.True(t, os.IsNotExist(statErr))
}

func TestRebuildAndRetrieve(t *testing.T) {
	store, _ := newTestStore(t,
		&model.HealthProfile{Weight: 70},
		[]model.ReportSummary{{ReportType: "Blood Test", Summary: "Glucose slightly elevated."}},
	)
	ctx := context.Background()

	count, err := store.Rebuild(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	chunks, err := store.Retrieve(ctx, "u1", "glucose", 1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, rag.KindReports, chunks[0].Kind)
	require.Contains(t, chunks[0].Text, "Glucose")

	chunks, err = store.Retrieve(ctx, "u1", "weight", 1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, rag.KindProfile, chunks[0].Kind)
	require.Contains(t, chunks[0].Text, "Weight: 70")
}

func TestRetrieveRebuildsAbsentIndex(t *testing.T) {
	store, _ := newTestStore(t, &model.HealthProfile{Weight: 70}, nil)
	ctx := context.Background()

	chunks, err := store.Retrieve(ctx, "u1", "weight", 4)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Contains(t, chunks[0].Text, "Weight: 70")
}

func TestRetrieveClampsKToIndexSize(t *testing.T) {
	store, _ := newTestStore(t, &model.HealthProfile{Weight: 70}, nil)
	ctx := context.Background()

	_, err := store.Rebuild(ctx, "u1")
	require.NoError(t, err)

	chunks, err := store.Retrieve(ctx, "u1", "weight", 10)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
}

func TestRetrieveTieBreaksByInsertionOrder(t *testing.T) {
	store, _ := newTestStore(t, nil, nil)
	ctx := context.Background()

	_, err := store.Upsert(ctx, "u1", []string{"glucose alpha", "glucose beta"}, rag.KindNote)
	require.NoError(t, err)

	chunks, err := store.Retrieve(ctx, "u1", "glucose", 2)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	require.Equal(t, 0, chunks[0].Seq)
	require.Equal(t, 1, chunks[1].Seq)
}

func TestRetrieveEmptyUserHasNoKnowledgeBase(t *testing.T) {
	store, dir := newTestStore(t, nil, nil)
	ctx := context.Background()

	_, err := store.Retrieve(ctx, "u1", "glucose", 4)
	require.ErrorIs(t, err, rag.ErrEmptyKnowledgeBase)
	_, statErr := os.Stat(filepath.Join(dir, "user_u1"))
	require.True(t, os.IsNotExist(statErr))
}

func TestRetrieveTieBreakAcrossResultBoundary(t *testing.T) {
	store, _ := newTestStore(t, nil, nil)
	ctx := context.Background()

	_, err := store.Upsert(ctx, "u1",
		[]string{"glucose alpha", "glucose beta", "glucose gamma"}, rag.KindNote)
	require.NoError(t, err)

	chunks, err := store.Retrieve(ctx, "u1", "glucose", 2)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	require.Equal(t, 0, chunks[0].Seq)
	require.Equal(t, 1, chunks[1].Seq)
}

func TestMissingMetaTreatedAsCorrupt(t *testing.T) {
	store, dir := newTestStore(t, &model.HealthProfile{Weight: 70}, nil)
	ctx := context.Background()

	_, err := store.Rebuild(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "user_u1.meta.json")))

	state, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, rag.LoadCorrupt, state)

	chunks, err := store.Retrieve(ctx, "u1", "weight", 4)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
}

func TestUpsertBlankTextsOnAbsentIndex(t *testing.T) {
	store, _ := newTestStore(t, nil, nil)
	ctx := context.Background()

	_, err := store.Upsert(ctx, "u1", []string{"  ", ""}, rag.KindNote)
	require.ErrorIs(t, err, rag.ErrEmptyKnowledgeBase)

	state, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, rag.LoadAbsent, state)
}

func TestUpsertSeedsIndexFromTextsAlone(t *testing.T) {
	store, _ := newTestStore(t, nil, nil)
	ctx := context.Background()

	count, err := store.Upsert(ctx, "u1", []string{"Fasting glucose was 110 mg/dL."}, rag.KindNote)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	total, err := store.Count(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 1, total)

	chunks, err := store.Retrieve(ctx, "u1", "glucose", 4)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, rag.KindNote, chunks[0].Kind)
}

func TestUpsertAppendsToExistingIndex(t *testing.T) {
	store, _ := newTestStore(t,
		&model.HealthProfile{Weight: 70},
		[]model.ReportSummary{{ReportType: "Blood Test", Summary: "Glucose slightly elevated."}},
	)
	ctx := context.Background()

	_, err := store.Rebuild(ctx, "u1")
	require.NoError(t, err)

	added, err := store.Upsert(ctx, "u1", []string{"Cholesterol borderline high."}, rag.KindNote)
	require.NoError(t, err)
	require.Equal(t, 1, added)

	total, err := store.Count(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 3, total)

	chunks, err := store.Retrieve(ctx, "u1", "cholesterol", 1)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Contains(t, chunks[0].Text, "Cholesterol")
}

func TestCorruptIndexTreatedAsAbsent(t *testing.T) {
	store, dir := newTestStore(t, &model.HealthProfile{Weight: 70}, nil)
	ctx := context.Background()

	// An index directory with no collection inside is unreadable.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "user_u1"), 0o755))

	state, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, rag.LoadCorrupt, state)

	chunks, err := store.Retrieve(ctx, "u1", "weight", 4)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	state, err = store.Load(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, rag.LoadOK, state)
}

func TestEmbedderModelMismatch(t *testing.T) {
	dir := t.TempDir()
	builder := rag.NewDocumentBuilder(&fakeProfiles{profile: &model.HealthProfile{Weight: 70}}, &fakeSummaries{})
	chunker := rag.NewChunker(750, 120)

	first := rag.NewStore(dir, builder, chunker, &fakeEmbedder{model: "fake-embed-001"})
	_, err := first.Rebuild(context.Background(), "u1")
	require.NoError(t, err)

	second := rag.NewStore(dir, builder, chunker, &fakeEmbedder{model: "fake-embed-002"})
	_, err = second.Load(context.Background(), "u1")
	require.True(t, errors.Is(err, rag.ErrConfigMismatch))
}

func TestPerUserIsolation(t *testing.T) {
	store, _ := newTestStore(t, nil, nil)
	ctx := context.Background()

	_, err := store.Upsert(ctx, "alice", []string{"Glucose elevated after meals."}, rag.KindNote)
	require.NoError(t, err)
	_, err = store.Upsert(ctx, "bob", []string{"Cholesterol trending down."}, rag.KindNote)
	require.NoError(t, err)

	chunks, err := store.Retrieve(ctx, "bob", "glucose", 5)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	require.Equal(t, "bob", chunks[0].UserID)
	require.Contains(t, chunks[0].Text, "Cholesterol")
}
