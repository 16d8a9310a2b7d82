// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/mattn/go-sqlite3"

	"github.com/wneessen/shopkeep/internal/domain/models"
	"github.com/wneessen/shopkeep/internal/storage"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Storage struct {
	db *sql.DB
}

// New opens the SQLite database at path and applies all pending migrations.
func New(ctx context.Context, path string) (*Storage, error) {
	const op = "storage.sqlite.New"

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrateUp(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveUser stores a new, unverified user and returns its ID.
func (s *Storage) SaveUser(ctx context.Context, email string, passHash []byte) (int64, error) {
	const op = "storage.sqlite.SaveUser"

	now := time.Now().UnixNano()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users(email, pass_hash, email_verified, created_at, updated_at) VALUES(?, ?, FALSE, ?, ?)",
		email, passHash, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// User returns the user with the given email address.
func (s *Storage) User(ctx context.Context, email string) (models.User, error) {
	const op = "storage.sqlite.User"

	var user models.User
	var createdAt, updatedAt int64
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, pass_hash, email_verified, created_at, updated_at FROM users WHERE email = ?",
		email)
	err := row.Scan(&user.ID, &user.Email, &user.PassHash, &user.EmailVerified, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}
	user.CreatedAt = time.Unix(0, createdAt)
	user.UpdatedAt = time.Unix(0, updatedAt)

	return user, nil
}

// MarkEmailVerified sets the email verified flag of a user and updates its
// modification time.
func (s *Storage) MarkEmailVerified(ctx context.Context, email string, at time.Time) error {
	const op = "storage.sqlite.MarkEmailVerified"

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET email_verified = TRUE, updated_at = ? WHERE email = ?",
		at.UnixNano(), email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return nil
}

// SaveProduct stores a new product and returns its ID.
func (s *Storage) SaveProduct(ctx context.Context, product models.Product) (int64, error) {
	const op = "storage.sqlite.SaveProduct"

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO products(sku, name, price_cents, currency, active) VALUES(?, ?, ?, ?, ?)",
		product.SKU, product.Name, product.PriceCents, product.Currency, product.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrProductExists)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// Products returns all active products ordered by name.
func (s *Storage) Products(ctx context.Context) ([]models.Product, error) {
	const op = "storage.sqlite.Products"

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, sku, name, price_cents, currency, active FROM products WHERE active = TRUE ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	products := make([]models.Product, 0)
	for rows.Next() {
		var product models.Product
		if err = rows.Scan(&product.ID, &product.SKU, &product.Name, &product.PriceCents, &product.Currency,
			&product.Active); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		products = append(products, product)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return products, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
