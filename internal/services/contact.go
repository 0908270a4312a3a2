package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/niagahub/niagabot/internal/models"
	mongorepo "github.com/niagahub/niagabot/internal/repositories/mongo"
	pgrepo "github.com/niagahub/niagabot/internal/repositories/postgres"
	"github.com/niagahub/niagabot/internal/utils"
)

type ContactService interface {
	Upsert(ctx context.Context, c *models.Contact) (*models.Contact, error)
	Get(ctx context.Context, tenantID, id string) (*models.Contact, error)
	List(ctx context.Context, tenantID string, limit int) ([]models.Contact, error)
	// Delete removes the contact along with its SOP state and message log.
	Delete(ctx context.Context, tenantID, id string) error

	LogMessage(ctx context.Context, m *models.ChatLog) (*models.ChatLog, error)
	ListLogs(ctx context.Context, tenantID, contactID, userID string, limit int64) ([]models.ChatLog, error)
}

type contactService struct {
	contacts pgrepo.ContactRepository
	states   pgrepo.SopStateRepository
	messages mongorepo.MessageRepository
	log      *logrus.Logger
}

func NewContactService(contacts pgrepo.ContactRepository, states pgrepo.SopStateRepository, messages mongorepo.MessageRepository, log *logrus.Logger) ContactService {
	if log == nil {
		log = logrus.New()
	}
	return &contactService{contacts: contacts, states: states, messages: messages, log: log}
}

func (s *contactService) Upsert(ctx context.Context, c *models.Contact) (*models.Contact, error) {
	const op = "ContactService.Upsert"

	if c == nil || c.TenantID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "tenant_id is required", nil)
	}

	now := time.Now().UTC()
	if c.ID == "" {
		c.ID = uuid.NewString()
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	if err := s.contacts.Upsert(ctx, c); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to upsert contact", err)
	}
	return c, nil
}

func (s *contactService) Get(ctx context.Context, tenantID, id string) (*models.Contact, error) {
	const op = "ContactService.Get"

	if tenantID == "" || id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "tenant_id and contact id are required", nil)
	}

	c, err := s.contacts.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "contact not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get contact", err)
	}
	return c, nil
}

func (s *contactService) List(ctx context.Context, tenantID string, limit int) ([]models.Contact, error) {
	const op = "ContactService.List"

	if tenantID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "tenant_id is required", nil)
	}
	rows, err := s.contacts.ListByTenant(ctx, tenantID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list contacts", err)
	}
	return rows, nil
}

func (s *contactService) Delete(ctx context.Context, tenantID, id string) error {
	const op = "ContactService.Delete"

	if tenantID == "" || id == "" {
		return utils.E(utils.CodeInvalidArgument, op, "tenant_id and contact id are required", nil)
	}

	if err := s.states.DeleteByContact(ctx, tenantID, id); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to delete sop state", err)
	}
	deleted, err := s.messages.DeleteByContact(ctx, tenantID, id)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to delete message log", err)
	}
	if err := s.contacts.Delete(ctx, tenantID, id); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to delete contact", err)
	}

	s.log.WithFields(logrus.Fields{
		"tenant_id":  tenantID,
		"contact_id": id,
		"messages":   deleted,
	}).Info("contact deleted")
	return nil
}

func (s *contactService) LogMessage(ctx context.Context, m *models.ChatLog) (*models.ChatLog, error) {
	const op = "ContactService.LogMessage"

	if m == nil || m.TenantID == "" || m.Role == "" || m.Content == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "tenant_id, role, and content are required", nil)
	}
	if m.ContactID == "" && m.UserID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "contact_id or user_id is required", nil)
	}

	if err := s.messages.Append(ctx, m); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to append chat log", err)
	}
	return m, nil
}

func (s *contactService) ListLogs(ctx context.Context, tenantID, contactID, userID string, limit int64) ([]models.ChatLog, error) {
	const op = "ContactService.ListLogs"

	if tenantID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "tenant_id is required", nil)
	}
	if contactID == "" && userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "contact_id or user_id is required", nil)
	}

	rows, err := s.messages.ListRecent(ctx, tenantID, contactID, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list chat log", err)
	}
	return rows, nil
}
