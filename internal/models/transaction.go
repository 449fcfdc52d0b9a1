package models

import "time"

type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

const (
	TxnTypeTransfer = "transfer"
	TxnTypeData     = "data"
	TxnTypeAirtime  = "airtime"
)

const (
	TxnStatusSuccessful = "successful"
	TxnStatusFailed     = "failed"
)

const (
	CurrencyNGN            = "NGN"
	PaymentMethodSmipay    = "smipay"
	PaymentChannelTransfer = "transfer"
)

// TransactionHistory is one side of a money movement. Rows are immutable
// once committed; a transfer produces exactly two, sharing a session id,
// with the credit-side reference derived from the debit side by suffix.
type TransactionHistory struct {
	ID              string         `json:"id"`
	UserID          string         `json:"user_id"`
	Amount          int64          `json:"amount"`
	TransactionType string         `json:"transaction_type"`
	CreditDebit     Direction      `json:"credit_debit"`
	Description     string         `json:"description"`
	Status          string         `json:"status"`
	Currency        string         `json:"currency"`
	PaymentMethod   string         `json:"payment_method"`
	PaymentChannel  string         `json:"payment_channel"`
	Reference       string         `json:"reference"`
	BalanceBefore   int64          `json:"balance_before"`
	BalanceAfter    int64          `json:"balance_after"`
	SessionID       string         `json:"session_id"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// Metadata keys written by the transfer engine. The blob stays loosely
// typed because its schema varies by transaction type; every producer
// documents its keys here.
const (
	MetaCounterpartyID   = "counterparty_id"
	MetaCounterpartyTag  = "counterparty_tag"
	MetaCounterpartyName = "counterparty_name"
	MetaNarration        = "narration"
)
