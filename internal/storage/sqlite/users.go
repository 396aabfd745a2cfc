package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/hongminglow/debt-ledger/internal/models"
	"github.com/hongminglow/debt-ledger/internal/storage"
)

const userColumns = `id, email, COALESCE(name, ''), password_hash, created_at, updated_at`

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	conn, err := s.take(ctx)
	if err != nil {
		return models.User{}, err
	}
	defer s.pool.Put(conn)

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := s.timestamp()
	err = sqlitex.Execute(conn, `
		INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		VALUES (?, ?, NULLIF(?, ''), ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{user.ID.String(), user.Email, user.Name, user.PasswordHash, now, now},
		})
	if err != nil {
		return models.User{}, translate(err)
	}
	return s.findUser(conn, `id = ?`, user.ID.String())
}

// FindUserByID fetches a user by primary key.
func (s *Store) FindUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	conn, err := s.take(ctx)
	if err != nil {
		return models.User{}, err
	}
	defer s.pool.Put(conn)
	return s.findUser(conn, `id = ?`, id.String())
}

// FindUserByEmail fetches a user by email address.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	conn, err := s.take(ctx)
	if err != nil {
		return models.User{}, err
	}
	defer s.pool.Put(conn)
	return s.findUser(conn, `email = ?`, email)
}

// ListUsers returns every user, oldest first.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	conn, err := s.take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	users := make([]models.User, 0, 16)
	err = sqlitex.Execute(conn, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			user, err := scanUser(stmt, 0)
			if err != nil {
				return err
			}
			users = append(users, user)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite store: list users: %w", err)
	}
	return users, nil
}

func (s *Store) findUser(conn *sqlite.Conn, where string, arg any) (models.User, error) {
	var (
		user  models.User
		found bool
	)
	err := sqlitex.Execute(conn, `SELECT `+userColumns+` FROM users WHERE `+where, &sqlitex.ExecOptions{
		Args: []any{arg},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			var err error
			user, err = scanUser(stmt, 0)
			found = true
			return err
		},
	})
	if err != nil {
		return models.User{}, err
	}
	if !found {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

// scanUser reads the userColumns projection starting at column offset.
func scanUser(stmt *sqlite.Stmt, offset int) (models.User, error) {
	var (
		user models.User
		err  error
	)
	if user.ID, err = uuid.Parse(stmt.ColumnText(offset)); err != nil {
		return models.User{}, fmt.Errorf("sqlite store: parse user id: %w", err)
	}
	user.Email = stmt.ColumnText(offset + 1)
	user.Name = stmt.ColumnText(offset + 2)
	user.PasswordHash = stmt.ColumnText(offset + 3)
	if user.CreatedAt, err = parseTime(stmt.ColumnText(offset + 4)); err != nil {
		return models.User{}, err
	}
	if user.UpdatedAt, err = parseTime(stmt.ColumnText(offset + 5)); err != nil {
		return models.User{}, err
	}
	return user, nil
}
