// Package memory is an in-process implementation of billing.Store and projects.Store.
//
// A single mutex serialises every operation, which gives Mutate the same all-or-nothing
// semantics as the Postgres transaction. Records are deep-copied on the way in and out.
// It backs unit tests and `LAUNCHPAD_STORAGE=memory` local runs.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/platinummonkey/launchpad/pkg/billing"
	"github.com/platinummonkey/launchpad/pkg/catalog"
	"github.com/platinummonkey/launchpad/pkg/projects"
)

// Store keeps users, billing records and projects in maps
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	users    map[int64]billing.User
	billing  map[int64]*billing.BillingRecord
	projects map[int64]*projects.Project

	nextUserID    int64
	nextBillingID int64
	nextProjectID int64
}

// New creates an empty store
func New() *Store {
	return &Store{
		now:      time.Now,
		users:    make(map[int64]billing.User),
		billing:  make(map[int64]*billing.BillingRecord),
		projects: make(map[int64]*projects.Project),
	}
}

// AddUser registers a user, assigning the next ID when u.ID is zero
func (s *Store) AddUser(u billing.User) billing.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == 0 {
		s.nextUserID++
		u.ID = s.nextUserID
	} else if u.ID > s.nextUserID {
		s.nextUserID = u.ID
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now().UTC()
	}
	s.users[u.ID] = u
	return u
}

// GetProfile implements billing.Store
func (s *Store) GetProfile(ctx context.Context, userID int64) (*billing.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, billing.NewError(billing.KindNotFound, "user %d not found", userID)
	}
	return &billing.Profile{User: user, Billing: s.billing[userID].Clone()}, nil
}

// Mutate implements billing.Store
func (s *Store) Mutate(ctx context.Context, userID int64, opts billing.MutateOptions, fn billing.MutateFunc) (*billing.BillingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, billing.WrapError(billing.KindUnavailable, err, "request cancelled")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return nil, billing.NewError(billing.KindNotFound, "user %d not found", userID)
	}
	current := s.billing[userID]
	if current == nil && !opts.Create {
		return nil, billing.NewError(billing.KindNoBillingRecord, "user %d has no billing record", userID)
	}
	if opts.ProjectID != nil {
		if _, err := s.owned(userID, *opts.ProjectID); err != nil {
			return nil, err
		}
	}

	next, err := fn(current.Clone())
	if err != nil {
		return nil, err
	}
	next = next.Clone()
	next.UserID = userID
	if current == nil {
		s.nextBillingID++
		next.ID = s.nextBillingID
		next.Version = 1
	} else {
		next.ID = current.ID
		next.CreatedAt = current.CreatedAt
		next.Version = current.Version + 1
	}
	s.billing[userID] = next
	return next.Clone(), nil
}

// DeleteAccount implements billing.Store
func (s *Store) DeleteAccount(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return billing.NewError(billing.KindNotFound, "user %d not found", userID)
	}
	delete(s.billing, userID)
	for id, p := range s.projects {
		if p.UserID == userID {
			delete(s.projects, id)
		}
	}
	delete(s.users, userID)
	return nil
}

// CountByPlan implements billing.Store
func (s *Store) CountByPlan(ctx context.Context) (map[catalog.PlanID]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[catalog.PlanID]int64)
	for _, rec := range s.billing {
		counts[rec.SelectedPlan]++
	}
	return counts, nil
}

// Create implements projects.Store
func (s *Store) Create(ctx context.Context, p *projects.Project) (*projects.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[p.UserID]; !ok {
		return nil, billing.NewError(billing.KindNotFound, "user %d not found", p.UserID)
	}
	for _, existing := range s.projects {
		if existing.UserID == p.UserID && strings.EqualFold(existing.Name, p.Name) {
			return nil, billing.NewError(billing.KindConflict, "a project named %q already exists", p.Name)
		}
	}

	s.nextProjectID++
	stored := cloneProject(p)
	stored.ID = s.nextProjectID
	s.projects[stored.ID] = stored
	return cloneProject(stored), nil
}

// List implements projects.Store
func (s *Store) List(ctx context.Context, userID int64) ([]projects.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]projects.Project, 0)
	for _, p := range s.projects {
		if p.UserID == userID {
			out = append(out, *cloneProject(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Get implements projects.Store
func (s *Store) Get(ctx context.Context, userID, projectID int64) (*projects.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.owned(userID, projectID)
	if err != nil {
		return nil, err
	}
	return cloneProject(p), nil
}

// Update implements projects.Store
func (s *Store) Update(ctx context.Context, userID, projectID int64, name, description string, now time.Time) (*projects.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.owned(userID, projectID)
	if err != nil {
		return nil, err
	}
	for _, existing := range s.projects {
		if existing.ID != projectID && existing.UserID == userID && strings.EqualFold(existing.Name, name) {
			return nil, billing.NewError(billing.KindConflict, "a project named %q already exists", name)
		}
	}
	p.Name = name
	p.Description = &description
	p.UpdatedAt = now
	return cloneProject(p), nil
}

// Delete implements projects.Store
func (s *Store) Delete(ctx context.Context, userID, projectID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.owned(userID, projectID); err != nil {
		return err
	}
	delete(s.projects, projectID)
	return nil
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

func (s *Store) owned(userID, projectID int64) (*projects.Project, error) {
	p, ok := s.projects[projectID]
	if !ok || p.UserID != userID {
		return nil, billing.NewError(billing.KindNotFound, "project %d not found", projectID)
	}
	return p, nil
}

func cloneProject(p *projects.Project) *projects.Project {
	c := *p
	if p.Description != nil {
		d := *p.Description
		c.Description = &d
	}
	return &c
}
