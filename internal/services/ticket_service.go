package services

import (
	"context"
	"strings"

	"github.com/smipay/smipay-backend/internal/apperr"
	"github.com/smipay/smipay-backend/internal/auth"
	"github.com/smipay/smipay-backend/internal/models"
	"github.com/smipay/smipay-backend/internal/reference"
	repo "github.com/smipay/smipay-backend/internal/repository"
)

type TicketService struct {
	tickets repo.Tickets
	refs    *reference.Generator
}

func NewTicketService(tickets repo.Tickets, refs *reference.Generator) *TicketService {
	return &TicketService{tickets: tickets, refs: refs}
}

type CreateTicketRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (s *TicketService) Create(ctx context.Context, caller auth.Identity, req CreateTicketRequest) (models.SupportTicket, error) {
	t := models.SupportTicket{
		UserID:  caller.UserID,
		Subject: strings.TrimSpace(req.Subject),
		Message: strings.TrimSpace(req.Message),
		Status:  models.TicketStatusOpen,
	}
	if err := t.Validate(); err != nil {
		return models.SupportTicket{}, apperr.Validation(err.Error())
	}

	number, err := s.refs.TicketNumber(ctx)
	if err != nil {
		return models.SupportTicket{}, apperr.Internal(err)
	}
	t.Number = number

	created, err := s.tickets.Create(ctx, t)
	if err != nil {
		return models.SupportTicket{}, apperr.Internal(err)
	}
	return created, nil
}
