package core

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryUserDirectory keeps the user registry in process memory.
type MemoryUserDirectory struct {
	mu         sync.Mutex
	byID       map[int]*User
	byUsername map[string]*User
	nextID     int
}

func NewMemoryUserDirectory() *MemoryUserDirectory {
	return &MemoryUserDirectory{
		byID:       make(map[int]*User),
		byUsername: make(map[string]*User),
		nextID:     1,
	}
}

func (d *MemoryUserDirectory) FindOrCreate(ctx context.Context, username string) (*User, bool, error) {
	username, err := NormalizeUsername(username)
	if err != nil {
		return nil, false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if user, ok := d.byUsername[username]; ok {
		u := *user
		return &u, false, nil
	}
	now := time.Now()
	user := &User{
		ID:        d.nextID,
		Username:  username,
		Status:    StatusOnline,
		LastSeen:  now,
		CreatedAt: now,
	}
	d.nextID++
	d.byID[user.ID] = user
	d.byUsername[username] = user
	u := *user
	return &u, true, nil
}

func (d *MemoryUserDirectory) SetStatus(ctx context.Context, userID int, status UserStatus) (*User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	user, ok := d.byID[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	user.Status = status
	user.LastSeen = time.Now()
	u := *user
	return &u, nil
}

func (d *MemoryUserDirectory) All(ctx context.Context) ([]User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	users := make([]User, 0, len(d.byID))
	for _, user := range d.byID {
		users = append(users, *user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}
