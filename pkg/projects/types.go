package projects

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/platinummonkey/launchpad/pkg/billing"
)

// StatusActive is the only project status written by this service
const StatusActive = "active"

// Accepted values for the enumerated project fields
var (
	Industries      = []string{"saas", "ecommerce", "fintech", "healthtech", "edtech", "marketplace", "social", "enterprise", "gaming", "other"}
	TeamSizes       = []string{"solo", "2-5", "6-10", "11-25", "25+"}
	Objectives      = []string{"mvp", "funding", "scale", "cofounder", "validate"}
	Timelines       = []string{"1-3", "3-6", "6-12", "12+"}
	BudgetRanges    = []string{"0-5k", "5k-15k", "15k-50k", "50k+"}
	TechnicalLevels = []string{"non-technical", "some", "technical", "expert"}
	TechStacks      = []string{"react-node", "python-django", "mobile-first", "wordpress", "custom"}
)

const (
	minNameLength        = 2
	maxNameLength        = 100
	maxDescriptionLength = 500
)

// Project is a business-plan record owned by one user. BaseDocuments is the owner's document
// quota captured at creation; -1 means unlimited.
type Project struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Name           string    `json:"name"`
	Industry       string    `json:"industry"`
	TeamSize       string    `json:"team_size"`
	Objective      string    `json:"objective"`
	Timeline       string    `json:"timeline"`
	BudgetRange    string    `json:"budget_range"`
	TechnicalLevel string    `json:"technical_level"`
	NeedCofounder  bool      `json:"need_cofounder"`
	TechStack      string    `json:"tech_stack"`
	Description    *string   `json:"description"`
	Status         string    `json:"status"`
	BaseDocuments  int       `json:"base_documents"`
	UsedDocuments  int       `json:"used_documents"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateRequest is the input to Service.Create
type CreateRequest struct {
	Name           string  `json:"project_name"`
	Industry       string  `json:"industry"`
	TeamSize       string  `json:"team_size"`
	Objective      string  `json:"primary_objective"`
	Timeline       string  `json:"timeline"`
	BudgetRange    string  `json:"budget_range"`
	TechnicalLevel string  `json:"technical_level"`
	NeedCofounder  bool    `json:"need_cofounder"`
	TechStack      string  `json:"preferred_tech_stack"`
	Description    *string `json:"project_description"`
}

// Validate checks required fields and enumerations
func (r CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return billing.NewError(billing.KindInvalidInput, "project name cannot be empty")
	}
	checks := []struct {
		field   string
		value   string
		allowed []string
	}{
		{"industry", r.Industry, Industries},
		{"team size", r.TeamSize, TeamSizes},
		{"primary objective", r.Objective, Objectives},
		{"timeline", r.Timeline, Timelines},
		{"budget range", r.BudgetRange, BudgetRanges},
		{"technical level", r.TechnicalLevel, TechnicalLevels},
		{"tech stack", r.TechStack, TechStacks},
	}
	for _, c := range checks {
		if c.value == "" {
			return billing.NewError(billing.KindInvalidInput, "%s is required", c.field)
		}
		if !contains(c.allowed, c.value) {
			return billing.NewError(billing.KindInvalidInput, "invalid %s %q", c.field, c.value)
		}
	}
	if r.Description != nil && utf8.RuneCountInString(strings.TrimSpace(*r.Description)) > maxDescriptionLength {
		return billing.NewError(billing.KindInvalidInput, "project description must be at most %d characters", maxDescriptionLength)
	}
	return nil
}

// UpdateRequest is the input to Service.Update
type UpdateRequest struct {
	Name        string `json:"project_name"`
	Description string `json:"project_description"`
}

// Validate checks name and description bounds
func (r UpdateRequest) Validate() error {
	if r.Name == "" || r.Description == "" {
		return billing.NewError(billing.KindInvalidInput, "project name and description are required")
	}
	if n := utf8.RuneCountInString(r.Name); n < minNameLength || n > maxNameLength {
		return billing.NewError(billing.KindInvalidInput, "project name must be between %d and %d characters", minNameLength, maxNameLength)
	}
	if utf8.RuneCountInString(r.Description) > maxDescriptionLength {
		return billing.NewError(billing.KindInvalidInput, "project description must be at most %d characters", maxDescriptionLength)
	}
	return nil
}

// Store persists projects. Every method is scoped to the owning user; a project owned by
// someone else is reported as billing.KindNotFound.
type Store interface {
	// Create inserts p and returns it with ID and timestamps set. Fails with KindNotFound when
	// the user does not exist and KindConflict when the user already has a project of that name.
	Create(ctx context.Context, p *Project) (*Project, error)
	List(ctx context.Context, userID int64) ([]Project, error)
	Get(ctx context.Context, userID, projectID int64) (*Project, error)
	Update(ctx context.Context, userID, projectID int64, name, description string, now time.Time) (*Project, error)
	Delete(ctx context.Context, userID, projectID int64) error
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
