package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sakif/journalize/internal/apperror"
	"github.com/sakif/journalize/internal/model"
)

const journalColumns = `id, user_id, title, content, type, folder_id, tags, mood, date, created_at, updated_at`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (db *DB) CreateJournal(ctx context.Context, ownerID int64, in model.JournalInput) (*model.Journal, error) {
	var j model.Journal

	err := db.inTx(ctx, func(tx *sql.Tx) error {
		id, err := nextID(ctx, tx)
		if err != nil {
			return err
		}
		j = model.NewJournal(id, ownerID, in, time.Now())

		if err := insertJournal(ctx, tx, j); err != nil {
			return fmt.Errorf("sqlite: inserting journal: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &j, nil
}

func (db *DB) GetJournal(ctx context.Context, id int64) (*model.Journal, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+journalColumns+` FROM journals WHERE id = ?`, id)
	j, err := scanJournal(row)
	if isNoRows(err) {
		return nil, apperror.NotFound("journal", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting journal %d: %w", id, err)
	}
	return j, nil
}

// UpdateJournal reads, merges and writes back in one transaction, so two
// concurrent patches can't interleave and drop each other's fields.
func (db *DB) UpdateJournal(ctx context.Context, id int64, patch model.JournalPatch) (*model.Journal, error) {
	var merged model.Journal

	err := db.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+journalColumns+` FROM journals WHERE id = ?`, id)
		existing, err := scanJournal(row)
		if isNoRows(err) {
			return apperror.NotFound("journal", id)
		}
		if err != nil {
			return fmt.Errorf("sqlite: loading journal %d: %w", id, err)
		}

		merged = existing.Merge(patch, time.Now())

		tags, err := json.Marshal(merged.Tags)
		if err != nil {
			return fmt.Errorf("sqlite: encoding tags: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE journals
			 SET title = ?, content = ?, type = ?, folder_id = ?, tags = ?, mood = ?, date = ?, updated_at = ?
			 WHERE id = ?`,
			merged.Title, merged.Content, string(merged.Type), nullableID(merged.FolderID),
			string(tags), merged.Mood, formatTime(merged.Date), formatTime(merged.UpdatedAt), id,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating journal %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &merged, nil
}

func (db *DB) DeleteJournal(ctx context.Context, id int64) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM journals WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting journal %d: %w", id, err)
	}
	return nil
}

func (db *DB) GetUserJournals(ctx context.Context, ownerID int64) ([]model.Journal, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+journalColumns+` FROM journals WHERE user_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing journals for user %d: %w", ownerID, err)
	}
	defer rows.Close()

	journals := make([]model.Journal, 0)
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning journal row: %w", err)
		}
		journals = append(journals, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating journal rows: %w", err)
	}

	return journals, nil
}

func insertJournal(ctx context.Context, tx *sql.Tx, j model.Journal) error {
	tags, err := json.Marshal(j.Tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO journals (`+journalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.UserID, j.Title, j.Content, string(j.Type), nullableID(j.FolderID),
		string(tags), j.Mood, formatTime(j.Date), formatTime(j.CreatedAt), formatTime(j.UpdatedAt),
	)
	return err
}

func scanJournal(s scanner) (*model.Journal, error) {
	var (
		j        model.Journal
		typ      string
		folderID sql.NullInt64
		tags     string

		date, createdAt, updatedAt string
	)
	err := s.Scan(&j.ID, &j.UserID, &j.Title, &j.Content, &typ, &folderID,
		&tags, &j.Mood, &date, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if j.Date, err = parseTime(date); err != nil {
		return nil, err
	}
	if j.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if j.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	j.Type = model.JournalType(typ)
	j.FolderID = idFromNull(folderID)
	if err := json.Unmarshal([]byte(tags), &j.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags of journal %d: %w", j.ID, err)
	}
	if j.Tags == nil {
		j.Tags = []string{}
	}
	return &j, nil
}
