// internal/repository/store.go

// Package repository holds the per-entity data-access contracts and their
// gorm implementation. Services depend on Store only, so the backing database
// (PostgreSQL or SQLite) is a wiring decision.
package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/javajoker/b2b-marketplace/internal/database"
)

type Store interface {
	Users() UserRepository
	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	Messages() MessageRepository
	Notifications() NotificationRepository
	AuditLogs() AuditLogRepository

	// WithinTx runs fn against a Store bound to one transaction. Everything fn
	// does commits together or not at all. Nested calls join the outer
	// transaction.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db     *gorm.DB
	txOpts database.TxOptions
	inTx   bool
}

func NewStore(db *gorm.DB, txOpts database.TxOptions) Store {
	return &gormStore{db: db, txOpts: txOpts}
}

func (s *gormStore) Users() UserRepository                 { return &userRepo{db: s.db} }
func (s *gormStore) Products() ProductRepository           { return &productRepo{db: s.db} }
func (s *gormStore) Carts() CartRepository                 { return &cartRepo{db: s.db} }
func (s *gormStore) Orders() OrderRepository               { return &orderRepo{db: s.db} }
func (s *gormStore) Messages() MessageRepository           { return &messageRepo{db: s.db} }
func (s *gormStore) Notifications() NotificationRepository { return &notificationRepo{db: s.db} }
func (s *gormStore) AuditLogs() AuditLogRepository         { return &auditLogRepo{db: s.db} }

func (s *gormStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	return database.WithRetry(ctx, s.db, s.txOpts, func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx, txOpts: s.txOpts, inTx: true})
	})
}
