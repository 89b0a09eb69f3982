package projects

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/launchpad/pkg/async"
	"github.com/platinummonkey/launchpad/pkg/audit"
	"github.com/platinummonkey/launchpad/pkg/billing"
	"github.com/platinummonkey/launchpad/pkg/catalog"
)

// ProfileReader resolves the owner's current plan
type ProfileReader interface {
	GetProfile(ctx context.Context, userID int64) (*billing.Profile, error)
}

// Service implements project operations for an authenticated user
type Service struct {
	store    Store
	profiles ProfileReader
	catalogs catalog.Source
	now      func() time.Time
	audit    audit.Logger
	runner   *async.Runner
}

// NewService creates a project service. auditLogger and runner may be nil.
func NewService(store Store, profiles ProfileReader, source catalog.Source, auditLogger audit.Logger, runner *async.Runner) *Service {
	if auditLogger == nil {
		auditLogger = audit.NoOp()
	}
	if runner == nil {
		runner = async.NewRunner(nil)
	}
	return &Service{
		store:    store,
		profiles: profiles,
		catalogs: source,
		now:      time.Now,
		audit:    auditLogger,
		runner:   runner,
	}
}

// Create validates req and stores a project whose document quota is the owner's current plan
// quota. Users without a billing record get the free plan quota.
func (s *Service) Create(ctx context.Context, userID int64, req CreateRequest) (*Project, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	cat := s.catalogs.Current()
	plan := cat.FreePlan()
	if profile.Billing != nil {
		if current, err := cat.Plan(profile.Billing.SelectedPlan); err == nil {
			plan = current
		}
	}

	var description *string
	if req.Description != nil {
		if trimmed := strings.TrimSpace(*req.Description); trimmed != "" {
			description = &trimmed
		}
	}

	now := s.now().UTC()
	project, err := s.store.Create(ctx, &Project{
		UserID:         userID,
		Name:           strings.TrimSpace(req.Name),
		Industry:       req.Industry,
		TeamSize:       req.TeamSize,
		Objective:      req.Objective,
		Timeline:       req.Timeline,
		BudgetRange:    req.BudgetRange,
		TechnicalLevel: req.TechnicalLevel,
		NeedCofounder:  req.NeedCofounder,
		TechStack:      req.TechStack,
		Description:    description,
		Status:         StatusActive,
		BaseDocuments:  plan.DocumentQuota(),
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, audit.EventTypeProjectCreate, project, map[string]interface{}{
		"plan":           string(plan.ID),
		"base_documents": project.BaseDocuments,
	})
	return project, nil
}

// List returns the user's projects, newest first
func (s *Service) List(ctx context.Context, userID int64) ([]Project, error) {
	return s.store.List(ctx, userID)
}

// Get returns one of the user's projects
func (s *Service) Get(ctx context.Context, userID, projectID int64) (*Project, error) {
	return s.store.Get(ctx, userID, projectID)
}

// Update renames a project and replaces its description
func (s *Service) Update(ctx context.Context, userID, projectID int64, req UpdateRequest) (*Project, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	project, err := s.store.Update(ctx, userID, projectID, req.Name, req.Description, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.emit(ctx, audit.EventTypeProjectUpdate, project, nil)
	return project, nil
}

// Delete removes one of the user's projects
func (s *Service) Delete(ctx context.Context, userID, projectID int64) error {
	if err := s.store.Delete(ctx, userID, projectID); err != nil {
		return err
	}
	s.emit(ctx, audit.EventTypeProjectDelete, &Project{ID: projectID, UserID: userID}, nil)
	return nil
}

func (s *Service) emit(ctx context.Context, eventType audit.EventType, p *Project, metadata map[string]interface{}) {
	event := audit.NewEvent(ctx, eventType, p.UserID, audit.ResourceTypeProject, strconv.FormatInt(p.ID, 10))
	event.Timestamp = s.now().UTC()
	event.Message = string(eventType)
	for k, v := range metadata {
		event.Metadata[k] = v
	}
	s.runner.Go(ctx, 5*time.Second, "audit "+string(eventType), func(ctx context.Context) error {
		return s.audit.Log(ctx, event)
	})
}
