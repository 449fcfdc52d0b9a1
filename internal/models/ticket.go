package models

import (
	"errors"
	"strings"
	"time"
)

const (
	TicketStatusOpen   = "open"
	TicketStatusClosed = "closed"
)

type SupportTicket struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Number    string    `json:"number"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (t *SupportTicket) Validate() error {
	if strings.TrimSpace(t.Subject) == "" {
		return errors.New("subject required")
	}
	if strings.TrimSpace(t.Message) == "" {
		return errors.New("message required")
	}
	return nil
}
