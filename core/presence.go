package core

import (
	"sort"

	"github.com/samber/lo"
)

// Presence maps live connection IDs to the user each connection resolved to
// at join time. It is the source of truth for who is online right now.
//
// Presence is not safe for concurrent use on its own: it is owned by a Room,
// which serializes every access behind its own mutation path.
type Presence struct {
	conns map[string]*User
}

func NewPresence() *Presence {
	return &Presence{conns: make(map[string]*User)}
}

// Register associates a live connection with a resolved user.
func (p *Presence) Register(connID string, user *User) {
	u := *user
	p.conns[connID] = &u
}

// Unregister removes the connection and returns the user it resolved to.
// Unregistering an unknown connection returns false; callers treat that as
// a no-op, so duplicate disconnects never double-broadcast.
func (p *Presence) Unregister(connID string) (*User, bool) {
	user, ok := p.conns[connID]
	if !ok {
		return nil, false
	}
	delete(p.conns, connID)
	return user, true
}

// UserFor returns the user the connection resolved to at join time.
func (p *Presence) UserFor(connID string) (*User, bool) {
	user, ok := p.conns[connID]
	return user, ok
}

// UpdateUser refreshes the stored snapshot on every connection held by the
// user, so ListOnline reflects status changes.
func (p *Presence) UpdateUser(user *User) {
	for connID, u := range p.conns {
		if u.ID == user.ID {
			snapshot := *user
			p.conns[connID] = &snapshot
		}
	}
}

// ListOnline returns the online users deduplicated by user ID, ordered by
// ID. A user connected from two tabs appears once.
func (p *Presence) ListOnline() []User {
	users := lo.UniqBy(lo.Map(lo.Values(p.conns), func(u *User, _ int) User {
		return *u
	}), func(u User) int { return u.ID })
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

// ConnCount returns the number of live connections held by the user.
func (p *Presence) ConnCount(userID int) int {
	return lo.CountBy(lo.Values(p.conns), func(u *User) bool { return u.ID == userID })
}

// ConnIDs returns every live connection ID.
func (p *Presence) ConnIDs() []string {
	return lo.Keys(p.conns)
}

// ConnIDsExcept returns every live connection ID except the given one.
func (p *Presence) ConnIDsExcept(connID string) []string {
	return lo.Filter(lo.Keys(p.conns), func(id string, _ int) bool { return id != connID })
}
