package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niagahub/niagabot/internal/models"
)

type fakeEmbedder struct {
	vec  []float32
	err  error
	dims int
	// vecs, when set, is returned as-is regardless of input length
	vecs [][]float32
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.vecs != nil {
		return f.vecs, nil
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = f.vec
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int {
	if f.dims > 0 {
		return f.dims
	}
	return len(f.vec)
}

type fakeKnowledgeRepo struct {
	items    []models.KnowledgeItem
	upserted []models.KnowledgeItem
	listErr  error
	saveErr  error
}

func (f *fakeKnowledgeRepo) UpsertBatch(_ context.Context, items []models.KnowledgeItem) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.upserted = append(f.upserted, items...)
	return nil
}

func (f *fakeKnowledgeRepo) ListByTenant(_ context.Context, _ string, _ int) ([]models.KnowledgeItem, error) {
	return f.items, f.listErr
}

func (f *fakeKnowledgeRepo) ListWithEmbeddings(_ context.Context, _ string) ([]models.KnowledgeItem, error) {
	return f.items, f.listErr
}

func (f *fakeKnowledgeRepo) DeleteByTenant(_ context.Context, _ string) error { return nil }

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0, 1, 0}

	assert.InDelta(t, 1.0, CosineSimilarity(a, a), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity(a, b), 1e-9)
	assert.Equal(t, CosineSimilarity(a, b), CosineSimilarity(b, a))

	// guards
	assert.Zero(t, CosineSimilarity(nil, a))
	assert.Zero(t, CosineSimilarity(a, []float32{1, 2}))
	assert.Zero(t, CosineSimilarity([]float32{0, 0, 0}, a))
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	repo := &fakeKnowledgeRepo{items: []models.KnowledgeItem{
		{Content: "orthogonal", Embedding: pgvector.NewVector([]float32{0, 1, 0})},
		{Content: "exact", Embedding: pgvector.NewVector([]float32{1, 0, 0})},
		{Content: "close", Embedding: pgvector.NewVector([]float32{0.9, 0.1, 0})},
	}}
	eng := NewRetrievalEngine(&fakeEmbedder{vec: []float32{1, 0, 0}}, repo, EmbedFailureFail, nil)

	got := eng.Retrieve(context.Background(), "t1", []models.Message{{Role: "user", Content: "paket harga"}})

	require.Len(t, got, 3)
	assert.Equal(t, "exact", got[0])
	assert.Equal(t, "close", got[1])
	assert.Equal(t, "orthogonal", got[2])
}

func TestRetrieveCapsAtFive(t *testing.T) {
	repo := &fakeKnowledgeRepo{}
	for i := 0; i < 9; i++ {
		repo.items = append(repo.items, models.KnowledgeItem{
			Content:   fmt.Sprintf("snippet-%d", i),
			Embedding: pgvector.NewVector([]float32{1, float32(i) * 0.01, 0}),
		})
	}
	eng := NewRetrievalEngine(&fakeEmbedder{vec: []float32{1, 0, 0}}, repo, EmbedFailureFail, nil)

	got := eng.Retrieve(context.Background(), "t1", []models.Message{{Role: "user", Content: "apa saja paketnya"}})
	assert.Len(t, got, 5)
}

func TestRetrieveNeverErrors(t *testing.T) {
	// embedder down
	eng := NewRetrievalEngine(&fakeEmbedder{err: errors.New("quota")}, &fakeKnowledgeRepo{}, EmbedFailureFail, nil)
	assert.Empty(t, eng.Retrieve(context.Background(), "t1", []models.Message{{Role: "user", Content: "halo"}}))

	// store down
	eng = NewRetrievalEngine(&fakeEmbedder{vec: []float32{1}}, &fakeKnowledgeRepo{listErr: errors.New("pg down")}, EmbedFailureFail, nil)
	assert.Empty(t, eng.Retrieve(context.Background(), "t1", []models.Message{{Role: "user", Content: "halo"}}))

	// nothing to ask
	eng = NewRetrievalEngine(&fakeEmbedder{vec: []float32{1}}, &fakeKnowledgeRepo{}, EmbedFailureFail, nil)
	assert.Empty(t, eng.Retrieve(context.Background(), "t1", []models.Message{{Role: "assistant", Content: "halo"}}))
	assert.Empty(t, eng.Retrieve(context.Background(), "", []models.Message{{Role: "user", Content: "halo"}}))
}

func TestRetrieveSkipsUnembeddedItems(t *testing.T) {
	repo := &fakeKnowledgeRepo{items: []models.KnowledgeItem{
		{Content: "no vector"},
		{Content: "with vector", Embedding: pgvector.NewVector([]float32{1, 0, 0})},
	}}
	eng := NewRetrievalEngine(&fakeEmbedder{vec: []float32{1, 0, 0}}, repo, EmbedFailureFail, nil)

	got := eng.Retrieve(context.Background(), "t1", []models.Message{{Role: "user", Content: "halo"}})
	require.Len(t, got, 1)
	assert.Equal(t, "with vector", got[0])
}

func TestUpsertKnowledgeFailClosed(t *testing.T) {
	repo := &fakeKnowledgeRepo{}
	eng := NewRetrievalEngine(&fakeEmbedder{err: errors.New("quota")}, repo, EmbedFailureFail, nil)

	_, err := eng.UpsertKnowledge(context.Background(), "t1", []models.KnowledgeItem{{Content: "a"}})
	require.Error(t, err)
	assert.Empty(t, repo.upserted)
}

func TestUpsertKnowledgeZeroFallback(t *testing.T) {
	repo := &fakeKnowledgeRepo{}
	eng := NewRetrievalEngine(&fakeEmbedder{err: errors.New("quota"), dims: 3}, repo, EmbedFailureZero, nil)

	n, err := eng.UpsertKnowledge(context.Background(), "t1", []models.KnowledgeItem{{Content: "a"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, repo.upserted, 1)
	assert.Equal(t, []float32{0, 0, 0}, repo.upserted[0].Embedding.Slice())
}

func TestUpsertKnowledgeCountMismatch(t *testing.T) {
	eng := NewRetrievalEngine(&fakeEmbedder{vecs: [][]float32{{1}}}, &fakeKnowledgeRepo{}, EmbedFailureFail, nil)

	_, err := eng.UpsertKnowledge(context.Background(), "t1", []models.KnowledgeItem{{Content: "a"}, {Content: "b"}})
	require.Error(t, err)
}

func TestUpsertKnowledgeAssignsIdentity(t *testing.T) {
	repo := &fakeKnowledgeRepo{}
	eng := NewRetrievalEngine(&fakeEmbedder{vec: []float32{1, 0}}, repo, EmbedFailureFail, nil)

	n, err := eng.UpsertKnowledge(context.Background(), "t1", []models.KnowledgeItem{{Content: "a"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, repo.upserted, 1)
	assert.NotEmpty(t, repo.upserted[0].ID)
	assert.Equal(t, "t1", repo.upserted[0].TenantID)
	assert.False(t, repo.upserted[0].UpdatedAt.IsZero())
}

func TestUpsertKnowledgeRejectsEmptyContent(t *testing.T) {
	eng := NewRetrievalEngine(&fakeEmbedder{vec: []float32{1}}, &fakeKnowledgeRepo{}, EmbedFailureFail, nil)

	_, err := eng.UpsertKnowledge(context.Background(), "t1", []models.KnowledgeItem{{Title: "only title"}})
	require.Error(t, err)
}
