package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteUserDirectory persists the user registry in SQLite. The username
// column carries a unique index; matching is exact (case-sensitive) on the
// normalized value.
type SQLiteUserDirectory struct {
	db *sql.DB
}

func NewSQLiteUserDirectory(db *sql.DB) *SQLiteUserDirectory {
	return &SQLiteUserDirectory{db: db}
}

func (d *SQLiteUserDirectory) FindOrCreate(ctx context.Context, username string) (*User, bool, error) {
	username, err := NormalizeUsername(username)
	if err != nil {
		return nil, false, err
	}

	row := d.db.QueryRowContext(ctx,
		`SELECT id, username, status, last_seen, created_at FROM users WHERE username = @username LIMIT 1`,
		sql.Named("username", username))
	user, err := scanUser(row)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("%w: scanning user: %v", ErrStorageUnavailable, err)
	}

	now := time.Now()
	res, err := d.db.ExecContext(ctx,
		`INSERT INTO users (username, status, last_seen, created_at)
		 VALUES (@username, @status, @last_seen, @created_at)`,
		sql.Named("username", username),
		sql.Named("status", string(StatusOnline)),
		sql.Named("last_seen", now),
		sql.Named("created_at", now),
	)
	if err != nil {
		return nil, false, fmt.Errorf("%w: ExecContext: %v", ErrStorageUnavailable, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("%w: LastInsertId: %v", ErrStorageUnavailable, err)
	}
	return &User{
		ID:        int(id),
		Username:  username,
		Status:    StatusOnline,
		LastSeen:  now,
		CreatedAt: now,
	}, true, nil
}

func (d *SQLiteUserDirectory) SetStatus(ctx context.Context, userID int, status UserStatus) (*User, error) {
	now := time.Now()
	res, err := d.db.ExecContext(ctx,
		`UPDATE users SET status = @status, last_seen = @last_seen WHERE id = @id`,
		sql.Named("status", string(status)),
		sql.Named("last_seen", now),
		sql.Named("id", userID),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: ExecContext: %v", ErrStorageUnavailable, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%w: RowsAffected: %v", ErrStorageUnavailable, err)
	}
	if affected == 0 {
		return nil, ErrUserNotFound
	}

	row := d.db.QueryRowContext(ctx,
		`SELECT id, username, status, last_seen, created_at FROM users WHERE id = @id LIMIT 1`,
		sql.Named("id", userID))
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: scanning user: %v", ErrStorageUnavailable, err)
	}
	return user, nil
}

func (d *SQLiteUserDirectory) All(ctx context.Context) ([]User, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, username, status, last_seen, created_at FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: QueryContext: %v", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		var status string
		if err := rows.Scan(&user.ID, &user.Username, &status, &user.LastSeen, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: rows.Scan: %v", ErrStorageUnavailable, err)
		}
		user.Status = UserStatus(status)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows.Err: %v", ErrStorageUnavailable, err)
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var user User
	var status string
	if err := row.Scan(&user.ID, &user.Username, &status, &user.LastSeen, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.Status = UserStatus(status)
	return &user, nil
}
