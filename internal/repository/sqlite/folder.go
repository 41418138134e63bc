package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/journalize/internal/apperror"
	"github.com/sakif/journalize/internal/model"
)

func (db *DB) CreateFolder(ctx context.Context, ownerID int64, in model.FolderInput) (*model.Folder, error) {
	f := &model.Folder{
		UserID:   ownerID,
		Name:     in.Name,
		ParentID: in.ParentID,
	}

	err := db.inTx(ctx, func(tx *sql.Tx) error {
		id, err := nextID(ctx, tx)
		if err != nil {
			return err
		}
		f.ID = id

		_, err = tx.ExecContext(ctx,
			`INSERT INTO folders (id, user_id, name, parent_id) VALUES (?, ?, ?, ?)`,
			f.ID, f.UserID, f.Name, nullableID(f.ParentID),
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting folder: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return f, nil
}

func (db *DB) GetFolder(ctx context.Context, id int64) (*model.Folder, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, name, parent_id FROM folders WHERE id = ?`, id)
	f, err := scanFolder(row)
	if isNoRows(err) {
		return nil, apperror.NotFound("folder", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting folder %d: %w", id, err)
	}
	return f, nil
}

func (db *DB) GetUserFolders(ctx context.Context, ownerID int64) ([]model.Folder, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, name, parent_id FROM folders WHERE user_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing folders for user %d: %w", ownerID, err)
	}
	defer rows.Close()

	folders := make([]model.Folder, 0)
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning folder row: %w", err)
		}
		folders = append(folders, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating folder rows: %w", err)
	}

	return folders, nil
}

func scanFolder(s scanner) (*model.Folder, error) {
	var (
		f        model.Folder
		parentID sql.NullInt64
	)
	if err := s.Scan(&f.ID, &f.UserID, &f.Name, &parentID); err != nil {
		return nil, err
	}
	f.ParentID = idFromNull(parentID)
	return &f, nil
}
