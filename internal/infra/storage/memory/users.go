package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	domainauth "rentlona/internal/domain/auth"
	"rentlona/internal/domain/shared/events"
	domainuser "rentlona/internal/domain/user"
)

// UserRepository stores users in memory with a unique email index.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[domainuser.ID]*domainuser.User
	byEmail map[string]domainuser.ID
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[domainuser.ID]*domainuser.User),
		byEmail: make(map[string]domainuser.ID),
	}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if user, ok := r.byID[id]; ok {
		return cloneUser(user), nil
	}
	return nil, domainuser.ErrNotFound
}

func (r *UserRepository) ByIDs(ctx context.Context, ids []domainuser.ID) (map[domainuser.ID]*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[domainuser.ID]*domainuser.User, len(ids))
	for _, id := range ids {
		if user, ok := r.byID[id]; ok {
			out[id] = cloneUser(user)
		}
	}
	return out, nil
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[domainuser.NormalizeEmail(email)]
	if !ok {
		return nil, domainuser.ErrNotFound
	}
	if user, ok := r.byID[id]; ok {
		return cloneUser(user), nil
	}
	return nil, domainuser.ErrNotFound
}

func (r *UserRepository) Save(ctx context.Context, user *domainuser.User) error {
	if user == nil || strings.TrimSpace(string(user.ID)) == "" {
		return domainuser.ErrIDRequired
	}
	emailKey := domainuser.NormalizeEmail(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existingID, ok := r.byEmail[emailKey]; ok && existingID != user.ID {
		return domainuser.ErrEmailAlreadyUsed
	}
	if prev, ok := r.byID[user.ID]; ok {
		delete(r.byEmail, domainuser.NormalizeEmail(prev.Email))
	}
	r.byEmail[emailKey] = user.ID
	r.byID[user.ID] = cloneUser(user)
	return nil
}

// Delete removes a user. Only fixtures and tests call it; the API has no
// account deletion.
func (r *UserRepository) Delete(ctx context.Context, id domainuser.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byID[id]; ok {
		delete(r.byEmail, domainuser.NormalizeEmail(prev.Email))
		delete(r.byID, id)
	}
}

func cloneUser(u *domainuser.User) *domainuser.User {
	if u == nil {
		return nil
	}
	c := *u
	c.EventRecorder = events.EventRecorder{}
	c.Listings = append([]string(nil), u.Listings...)
	c.Favorites = append([]string(nil), u.Favorites...)
	return &c
}

// Denylist remembers revoked token ids in memory until they expire.
type Denylist struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewDenylist() *Denylist {
	return &Denylist{entries: make(map[string]time.Time), now: time.Now}
}

func (d *Denylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if tokenID == "" {
		return domainauth.ErrTokenRequired
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[tokenID] = until
	d.sweepLocked()
	return nil
}

func (d *Denylist) Revoked(ctx context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	until, ok := d.entries[tokenID]
	if !ok {
		return false, nil
	}
	if !until.After(d.now()) {
		delete(d.entries, tokenID)
		return false, nil
	}
	return true, nil
}

func (d *Denylist) sweepLocked() {
	now := d.now()
	for id, until := range d.entries {
		if !until.After(now) {
			delete(d.entries, id)
		}
	}
}

var _ domainuser.Repository = (*UserRepository)(nil)
var _ domainauth.Denylist = (*Denylist)(nil)
