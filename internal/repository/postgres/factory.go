package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	repo "github.com/smipay/smipay-backend/internal/repository"
)

type Repositories struct {
	Users        repo.Users
	Wallets      repo.Wallets
	Transactions repo.Transactions
	Tickets      repo.Tickets
	AuditLogs    repo.AuditLogs
	Store        repo.Store
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Users:        &usersRepo{pool},
		Wallets:      &walletsRepo{pool},
		Transactions: &transactionsRepo{pool},
		Tickets:      &ticketsRepo{pool},
		AuditLogs:    &auditLogsRepo{pool},
		Store:        &store{pool},
	}
}
