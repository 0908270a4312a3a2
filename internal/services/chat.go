package services

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/niagahub/niagabot/internal/models"
	"github.com/niagahub/niagabot/internal/providers/stt"
	"github.com/niagahub/niagabot/internal/utils"
)

const maxVoiceNoteBytes = 10 << 20

// ChatService is the request-path entry for one chat turn: it resolves
// voice notes to text, runs the orchestrator, and records both sides of the
// exchange in the message log.
type ChatService interface {
	HandleTurn(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
	// StreamTurn is HandleTurn with generation chunks forwarded through
	// onChunk as they arrive; used by the live chat tester.
	StreamTurn(ctx context.Context, req models.ChatRequest, onChunk func(string) error) (*models.ChatResponse, error)
}

type chatService struct {
	tenants      TenantService
	orchestrator Orchestrator
	contacts     ContactService
	transcriber  stt.Provider // nil disables voice-note transcription
	httpClient   *http.Client
	log          *logrus.Logger
}

func NewChatService(tenants TenantService, orch Orchestrator, contacts ContactService, transcriber stt.Provider, log *logrus.Logger) ChatService {
	if log == nil {
		log = logrus.New()
	}
	return &chatService{
		tenants:      tenants,
		orchestrator: orch,
		contacts:     contacts,
		transcriber:  transcriber,
		httpClient:   http.DefaultClient,
		log:          log,
	}
}

func (s *chatService) HandleTurn(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	return s.handle(ctx, req, nil)
}

func (s *chatService) StreamTurn(ctx context.Context, req models.ChatRequest, onChunk func(string) error) (*models.ChatResponse, error) {
	return s.handle(ctx, req, onChunk)
}

func (s *chatService) handle(ctx context.Context, req models.ChatRequest, onChunk func(string) error) (*models.ChatResponse, error) {
	const op = "ChatService.HandleTurn"

	if req.TenantID == "" || req.UserID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "tenant_id and user_id are required", nil)
	}
	if len(req.Messages) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "messages must not be empty", nil)
	}
	for _, m := range req.Messages {
		if m.Role != "user" && m.Role != "assistant" && m.Role != "system" {
			return nil, utils.E(utils.CodeInvalidArgument, op, "role must be user, assistant, or system", nil)
		}
	}

	settings, err := s.tenants.GetSettings(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}

	s.resolveVoiceNotes(ctx, &req, settings.Persona.Language)

	var resp *models.ChatResponse
	if onChunk != nil {
		resp, err = s.orchestrator.StreamChatTurn(ctx, req, *settings, onChunk)
	} else {
		resp, err = s.orchestrator.HandleChatTurn(ctx, req, *settings)
	}
	if err != nil {
		return nil, err
	}

	s.logTurn(ctx, req, resp)
	return resp, nil
}

// resolveVoiceNotes replaces empty audio turns with their transcripts.
// Transcription failure degrades to a placeholder annotation; the turn goes
// on with whatever text exists.
func (s *chatService) resolveVoiceNotes(ctx context.Context, req *models.ChatRequest, language string) {
	if s.transcriber == nil {
		return
	}
	lang := normalizeLanguage(language)

	for i := range req.Messages {
		m := &req.Messages[i]
		if m.MediaType != "audio" || m.MediaURL == "" || m.Content != "" {
			continue
		}

		audio, err := s.fetchAudio(ctx, m.MediaURL)
		if err != nil {
			s.log.WithError(err).WithField("tenant_id", req.TenantID).Warn("voice note fetch failed")
			m.Content = "[voice note]"
			continue
		}

		text, conf, err := s.transcriber.Transcribe(ctx, audio, lang)
		if err != nil || text == "" {
			s.log.WithError(err).WithField("tenant_id", req.TenantID).Warn("voice note transcription failed")
			m.Content = "[voice note]"
			continue
		}

		s.log.WithFields(logrus.Fields{
			"tenant_id":  req.TenantID,
			"confidence": conf,
		}).Debug("voice note transcribed")
		m.Content = text
	}
}

func (s *chatService) fetchAudio(ctx context.Context, url string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(io.LimitReader(resp.Body, maxVoiceNoteBytes))
}

// logTurn appends the latest inbound user turn and the assistant reply.
// Logging is best-effort; a logging failure never fails a delivered turn.
func (s *chatService) logTurn(ctx context.Context, req models.ChatRequest, resp *models.ChatResponse) {
	last := req.Messages[len(req.Messages)-1]
	if last.Role == "user" {
		if _, err := s.contacts.LogMessage(ctx, &models.ChatLog{
			TenantID:  req.TenantID,
			ContactID: req.ContactID,
			UserID:    req.UserID,
			Role:      last.Role,
			Content:   last.Content,
			MediaURL:  last.MediaURL,
			MediaType: last.MediaType,
			Metadata:  req.Metadata,
		}); err != nil {
			s.log.WithError(err).Warn("failed to log inbound message")
		}
	}

	if _, err := s.contacts.LogMessage(ctx, &models.ChatLog{
		TenantID:  req.TenantID,
		ContactID: req.ContactID,
		UserID:    req.UserID,
		Role:      "assistant",
		Content:   resp.FullText,
		Metadata:  resp.Metadata,
	}); err != nil {
		s.log.WithError(err).Warn("failed to log assistant reply")
	}
}

func normalizeLanguage(v string) string {
	switch strings.TrimSpace(v) {
	case "id", "id-ID":
		return "id-ID"
	case "en", "en-US":
		return "en-US"
	case "":
		return "id-ID"
	default:
		return v
	}
}
