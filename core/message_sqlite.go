package core

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteMessageStore persists the room log in SQLite. Writes are synchronous:
// Append does not return until the row is committed.
type SQLiteMessageStore struct {
	db *sql.DB
}

func NewSQLiteMessageStore(db *sql.DB) *SQLiteMessageStore {
	return &SQLiteMessageStore{db: db}
}

func (s *SQLiteMessageStore) Append(ctx context.Context, content string, authorID int, authorUsername string, kind MessageKind) (*Message, error) {
	query := `INSERT INTO messages (content, author_id, author_username, kind, timestamp)
	          VALUES (@content, @author_id, @author_username, @kind, @timestamp)`
	now := time.Now()
	res, err := s.db.ExecContext(ctx, query,
		sql.Named("content", content),
		sql.Named("author_id", authorID),
		sql.Named("author_username", authorUsername),
		sql.Named("kind", string(kind)),
		sql.Named("timestamp", now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: ExecContext: %v", ErrStorageUnavailable, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: LastInsertId: %v", ErrStorageUnavailable, err)
	}
	return &Message{
		ID:             int(id),
		Content:        content,
		AuthorID:       authorID,
		AuthorUsername: authorUsername,
		Kind:           kind,
		Timestamp:      now,
	}, nil
}

func (s *SQLiteMessageStore) Recent(ctx context.Context, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	// Take the last limit rows by ID then flip them back to oldest first.
	query := `SELECT id, content, author_id, author_username, kind, timestamp FROM (
	            SELECT id, content, author_id, author_username, kind, timestamp
	            FROM messages ORDER BY id DESC LIMIT @limit
	          ) ORDER BY id ASC`
	rows, err := s.db.QueryContext(ctx, query, sql.Named("limit", limit))
	if err != nil {
		return nil, fmt.Errorf("%w: QueryContext: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		var kind string
		if err := rows.Scan(&msg.ID, &msg.Content, &msg.AuthorID, &msg.AuthorUsername, &kind, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: rows.Scan: %v", ErrStorageUnavailable, err)
		}
		msg.Kind = MessageKind(kind)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows.Err: %v", ErrStorageUnavailable, err)
	}
	return messages, nil
}
