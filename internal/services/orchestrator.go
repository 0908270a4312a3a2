package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/niagahub/niagabot/internal/models"
	"github.com/niagahub/niagabot/internal/providers/llm"
)

// Orchestrator sequences one chat turn: retrieval, SOP update, prompt
// composition, generation, segmentation. Retrieval and SOP failures
// degrade (empty context / no hint); only a generation failure aborts the
// turn, and then without a partial response.
type Orchestrator interface {
	HandleChatTurn(ctx context.Context, req models.ChatRequest, settings models.TenantSettings) (*models.ChatResponse, error)
	// StreamChatTurn runs the same pipeline but forwards generation chunks
	// through onChunk as they arrive. The returned response carries the
	// segmented full text, same as HandleChatTurn.
	StreamChatTurn(ctx context.Context, req models.ChatRequest, settings models.TenantSettings, onChunk func(string) error) (*models.ChatResponse, error)
}

type orchestrator struct {
	llm       llm.Provider
	retrieval RetrievalEngine
	sopStates SopStateService // nil disables SOP tracking
	machine   *SopStateMachine
	composer  *PromptComposer
	segmenter *ResponseSegmenter
	log       *logrus.Logger
}

func NewOrchestrator(
	llmProvider llm.Provider,
	retrieval RetrievalEngine,
	sopStates SopStateService,
	machine *SopStateMachine,
	composer *PromptComposer,
	segmenter *ResponseSegmenter,
	log *logrus.Logger,
) Orchestrator {
	if log == nil {
		log = logrus.New()
	}
	return &orchestrator{
		llm:       llmProvider,
		retrieval: retrieval,
		sopStates: sopStates,
		machine:   machine,
		composer:  composer,
		segmenter: segmenter,
		log:       log,
	}
}

func (o *orchestrator) HandleChatTurn(ctx context.Context, req models.ChatRequest, settings models.TenantSettings) (*models.ChatResponse, error) {
	prompt, retrieved := o.prepare(ctx, req, settings)

	text, err := o.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return o.respond(req, text, retrieved), nil
}

func (o *orchestrator) StreamChatTurn(ctx context.Context, req models.ChatRequest, settings models.TenantSettings, onChunk func(string) error) (*models.ChatResponse, error) {
	prompt, retrieved := o.prepare(ctx, req, settings)

	chunks, errs := o.llm.StreamGenerate(ctx, prompt)
	var text strings.Builder
	for chunk := range chunks {
		text.WriteString(chunk)
		if onChunk != nil {
			if err := onChunk(chunk); err != nil {
				return nil, err
			}
		}
	}
	if err := <-errs; err != nil {
		return nil, err
	}

	return o.respond(req, text.String(), retrieved), nil
}

// prepare runs the degradable front half of the pipeline: retrieval, SOP
// update, prompt composition.
func (o *orchestrator) prepare(ctx context.Context, req models.ChatRequest, settings models.TenantSettings) (string, []string) {
	retrieved := o.retrieval.Retrieve(ctx, req.TenantID, req.Messages)

	sopHint := ""
	if o.sopStates != nil && len(settings.Sop.Steps) > 0 {
		var contactID *string
		if req.ContactID != "" {
			contactID = &req.ContactID
		}
		state, err := o.sopStates.UpdateFromHistory(ctx, req.TenantID, contactID, req.UserID, settings.Sop, req.Messages)
		if err != nil {
			o.log.WithError(err).WithFields(logrus.Fields{
				"tenant_id": req.TenantID,
				"user_id":   req.UserID,
			}).Warn("sop update failed; continuing without hint")
		} else {
			current := ""
			if state.CurrentStep != nil {
				current = *state.CurrentStep
			}
			sopHint = o.machine.Hint(settings.Sop, current)
		}
	}

	prompt := o.composer.Build(req.Messages, retrieved, settings, sopHint)
	o.log.WithFields(logrus.Fields{
		"tenant_id":    req.TenantID,
		"user_id":      req.UserID,
		"context_hits": len(retrieved),
		"prompt_len":   len(prompt),
	}).Debug("prompt built")

	return prompt, retrieved
}

func (o *orchestrator) respond(req models.ChatRequest, text string, retrieved []string) *models.ChatResponse {
	if retrieved == nil {
		retrieved = []string{}
	}
	return &models.ChatResponse{
		Bubbles:  o.segmenter.Split(text),
		FullText: text,
		Metadata: map[string]string{
			"channel": req.Channel,
			"locale":  req.Locale,
		},
		RetrievedContext: retrieved,
	}
}
