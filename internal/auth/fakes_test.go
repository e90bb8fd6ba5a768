package auth

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/odyssey-erp/odyssey-rbac/internal/audit"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]User
	seq   int
	err   error
}

func newFakeUserRepo(users ...User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]User{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeUserRepo) List(context.Context) ([]User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeUserRepo) Create(_ context.Context, email, hash string) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return nil, ErrDuplicateEmail
		}
	}
	f.seq++
	u := User{
		ID:           fmt.Sprintf("user-%d", f.seq),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, f.seq, 0, time.UTC),
	}
	f.users[u.ID] = u
	return &u, nil
}

func (f *fakeUserRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = hash
	f.users[id] = u
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recordingAudit) Record(_ context.Context, e audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *recordingAudit) all() []audit.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Entry(nil), r.entries...)
}

type countingObserver struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (c *countingObserver) ObserveLogin(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.outcomes == nil {
		c.outcomes = map[string]int{}
	}
	c.outcomes[outcome]++
}

func (c *countingObserver) count(outcome string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcomes[outcome]
}

const (
	testAdminEmail    = "admin@rbac.it"
	testAdminPassword = "rbac@admin"
	testAdminID       = "admin"
	testSecret        = "unit-test-secret"
)
