// internal/testutil/db.go

// Package testutil provides in-memory stores and fixtures for tests.
package testutil

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/b2b-marketplace/internal/database"
	"github.com/javajoker/b2b-marketplace/internal/models"
	"github.com/javajoker/b2b-marketplace/internal/repository"
)

// NewTestDB opens a private in-memory SQLite database with the full schema.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.RunMigrations(db))
	return db
}

func NewTestStore(t testing.TB) (repository.Store, *gorm.DB) {
	db := NewTestDB(t)
	return repository.NewStore(db, database.DefaultTxOptions()), db
}

func CreateUser(t testing.TB, store repository.Store, role models.Role, email string) *models.User {
	t.Helper()
	user := &models.User{
		Name:   "Test " + string(role),
		Email:  email,
		Role:   role,
		Status: models.UserStatusActive,
		Company: models.Company{
			Name: "Acme " + string(role),
		},
	}
	require.NoError(t, user.SetPassword("Password1!"))
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func CreateProduct(t testing.TB, store repository.Store, ownerID uuid.UUID, name, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		OwnerID:          ownerID,
		Name:             name,
		Description:      name + " description",
		Category:         "industrial",
		Price:            decimal.RequireFromString(price),
		Stock:            stock,
		MinOrderQuantity: 1,
		Unit:             "pcs",
		Images:           models.StringList{},
		Status:           models.ProductStatusActive,
	}
	require.NoError(t, store.Products().Create(context.Background(), product))
	return product
}

func AddToCart(t testing.TB, store repository.Store, userID, productID uuid.UUID, qty int) *models.CartLine {
	t.Helper()
	line := &models.CartLine{UserID: userID, ProductID: productID, Quantity: qty}
	require.NoError(t, store.Carts().Create(context.Background(), line))
	return line
}
