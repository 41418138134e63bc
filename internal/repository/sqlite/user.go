package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/journalize/internal/apperror"
	"github.com/sakif/journalize/internal/model"
)

const userColumns = `id, username, password_hash, github_id, created_at`

// CreateUser inserts a user. A duplicate username or GitHub id trips the
// UNIQUE index and comes back as apperror.ErrConflict.
func (db *DB) CreateUser(ctx context.Context, in model.UserInput) (*model.User, error) {
	u := &model.User{
		Username:     in.Username,
		PasswordHash: in.PasswordHash,
		GitHubID:     in.GitHubID,
		CreatedAt:    time.Now().UTC(),
	}

	err := db.inTx(ctx, func(tx *sql.Tx) error {
		id, err := nextID(ctx, tx)
		if err != nil {
			return err
		}
		u.ID = id

		_, err = tx.ExecContext(ctx,
			`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?)`,
			u.ID, u.Username, u.PasswordHash, nullableID(u.GitHubID), formatTime(u.CreatedAt),
		)
		if isUniqueViolation(err) {
			return apperror.Conflict("user", u.Username)
		}
		if err != nil {
			return fmt.Errorf("sqlite: inserting user %q: %w", u.Username, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return u, nil
}

func (db *DB) GetUser(ctx context.Context, id int64) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if isNoRows(err) {
		return nil, apperror.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return u, nil
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if isNoRows(err) {
		return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "user not found: " + username}
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user %q: %w", username, err)
	}
	return u, nil
}

func (db *DB) GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE github_id = ?`, githubID)
	u, err := scanUser(row)
	if isNoRows(err) {
		return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "no user linked to that GitHub account"}
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user by github id %d: %w", githubID, err)
	}
	return u, nil
}

func (db *DB) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("sqlite: updating password for user %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u        model.User
		githubID  sql.NullInt64
		createdAt string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &githubID, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	u.GitHubID = idFromNull(githubID)
	return &u, nil
}
