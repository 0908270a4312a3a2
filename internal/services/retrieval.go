package services

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"

	"github.com/niagahub/niagabot/internal/models"
	"github.com/niagahub/niagabot/internal/providers/embedding"
	pgrepo "github.com/niagahub/niagabot/internal/repositories/postgres"
	"github.com/niagahub/niagabot/internal/utils"
)

const maxRetrievedSnippets = 5

// EmbedFailureMode decides what an embedding-provider failure does to a
// knowledge upsert. FailClosed surfaces the error; ZeroFallback writes
// zero vectors and keeps the items findable only by listing. Zero fallback
// silently degrades ranking quality, so it is opt-in.
type EmbedFailureMode int

const (
	EmbedFailureFail EmbedFailureMode = iota
	EmbedFailureZero
)

type RetrievalEngine interface {
	UpsertKnowledge(ctx context.Context, tenantID string, items []models.KnowledgeItem) (int, error)
	// Retrieve ranks the tenant's embedded knowledge against the user side
	// of the conversation. It degrades to an empty slice on any failure;
	// context is an enhancement, not a gate on the chat turn.
	Retrieve(ctx context.Context, tenantID string, history []models.Message) []string
}

type retrievalEngine struct {
	embedder  embedding.Provider
	knowledge pgrepo.KnowledgeRepository
	onFailure EmbedFailureMode
	log       *logrus.Logger
}

func NewRetrievalEngine(embedder embedding.Provider, knowledge pgrepo.KnowledgeRepository, onFailure EmbedFailureMode, log *logrus.Logger) RetrievalEngine {
	if log == nil {
		log = logrus.New()
	}
	return &retrievalEngine{
		embedder:  embedder,
		knowledge: knowledge,
		onFailure: onFailure,
		log:       log,
	}
}

func (e *retrievalEngine) UpsertKnowledge(ctx context.Context, tenantID string, items []models.KnowledgeItem) (int, error) {
	const op = "RetrievalEngine.UpsertKnowledge"

	if tenantID == "" {
		return 0, utils.E(utils.CodeInvalidArgument, op, "tenant_id is required", nil)
	}
	if len(items) == 0 {
		return 0, nil
	}

	texts := make([]string, len(items))
	for i, it := range items {
		if it.Content == "" {
			return 0, utils.E(utils.CodeInvalidArgument, op, "item content must not be empty", nil)
		}
		texts[i] = it.Content
	}

	vectors, err := e.embedder.Embed(ctx, texts)
	if err != nil {
		if e.onFailure == EmbedFailureFail {
			return 0, utils.E(utils.CodeUnavailable, op, "embedding generation failed", err)
		}
		e.log.WithError(err).WithField("tenant_id", tenantID).
			Warn("embedding failed; writing zero vectors")
		vectors = make([][]float32, len(items))
		for i := range vectors {
			vectors[i] = make([]float32, e.embedder.Dimensions())
		}
	}
	if len(vectors) != len(items) {
		return 0, utils.E(utils.CodeBadGateway, op, "embedding count mismatch", nil)
	}

	now := time.Now().UTC()
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		items[i].TenantID = tenantID
		items[i].Embedding = pgvector.NewVector(vectors[i])
		items[i].UpdatedAt = now
	}

	if err := e.knowledge.UpsertBatch(ctx, items); err != nil {
		return 0, utils.E(utils.CodeInternal, op, "failed to upsert knowledge items", err)
	}
	return len(items), nil
}

func (e *retrievalEngine) Retrieve(ctx context.Context, tenantID string, history []models.Message) []string {
	var userTurns []string
	for _, m := range history {
		if m.Role == "user" && m.Content != "" {
			userTurns = append(userTurns, m.Content)
		}
	}
	query := strings.Join(userTurns, " ")
	if tenantID == "" || query == "" {
		return nil
	}

	vectors, err := e.embedder.Embed(ctx, []string{query})
	if err != nil || len(vectors) != 1 {
		e.log.WithError(err).WithField("tenant_id", tenantID).
			Warn("query embedding failed; returning empty context")
		return nil
	}
	queryVec := vectors[0]

	items, err := e.knowledge.ListWithEmbeddings(ctx, tenantID)
	if err != nil {
		e.log.WithError(err).WithField("tenant_id", tenantID).
			Warn("knowledge scan failed; returning empty context")
		return nil
	}

	type scored struct {
		content string
		score   float64
	}
	ranked := make([]scored, 0, len(items))
	for _, it := range items {
		vec := it.Embedding.Slice()
		if len(vec) == 0 {
			continue
		}
		ranked = append(ranked, scored{content: it.Content, score: CosineSimilarity(queryVec, vec)})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	n := len(ranked)
	if n > maxRetrievedSnippets {
		n = maxRetrievedSnippets
	}
	out := make([]string, 0, n)
	for _, s := range ranked[:n] {
		out = append(out, s.content)
	}
	return out
}

// CosineSimilarity is dot(a,b) / (|a| * |b|). Empty, mismatched, or
// zero-norm vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
