package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// PlanID identifies a subscription plan within a catalog
type PlanID string

// AddOnID identifies a purchasable add-on
type AddOnID string

// Cycle represents a billing cycle
type Cycle string

const (
	CycleMonthly Cycle = "monthly"
	CycleAnnual  Cycle = "annual"
)

// Pool represents a consumable credit pool
type Pool string

const (
	PoolImage    Pool = "image"
	PoolDocument Pool = "document"
)

// Well-known add-on identifiers shared by the built-in catalogs
const (
	AddOnCoder    AddOnID = "coder_package"
	AddOnDatabase AddOnID = "database_package"
)

// UnlimitedDocuments is the BaseDocuments value recorded for plans without a document quota
const UnlimitedDocuments = -1

var (
	ErrUnknownPlan  = errors.New("unknown plan")
	ErrUnknownCycle = errors.New("unknown billing cycle")
	ErrUnknownAddOn = errors.New("unknown add-on")
	ErrUnknownPool  = errors.New("unknown credit pool")
)

// Plan represents a subscription plan
type Plan struct {
	ID                 PlanID          `json:"id"`
	Name               string          `json:"name"`
	BasePrice          decimal.Decimal `json:"base_price"`
	Free               bool            `json:"free"`
	Includes           []AddOnID       `json:"includes,omitempty"`
	IncludesAllAddOns  bool            `json:"includes_all_add_ons"`
	UnlimitedDocuments bool            `json:"unlimited_documents"`
	BaseDocuments      int             `json:"base_documents"`
}

// Implies reports whether the plan already grants the add-on's capability
func (p Plan) Implies(id AddOnID) bool {
	if p.IncludesAllAddOns {
		return true
	}
	for _, included := range p.Includes {
		if included == id {
			return true
		}
	}
	return false
}

// DocumentQuota returns the per-project document quota granted by the plan
func (p Plan) DocumentQuota() int {
	if p.UnlimitedDocuments {
		return UnlimitedDocuments
	}
	return p.BaseDocuments
}

// AddOn represents a purchasable capability
type AddOn struct {
	ID    AddOnID         `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// CreditPack is the only purchasable unit of a credit pool
type CreditPack struct {
	ID        string          `json:"id"`
	Pool      Pool            `json:"pool"`
	Size      int             `json:"size"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Total returns the price of one pack
func (p CreditPack) Total() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Size)))
}

// Catalog is an immutable set of plans, add-ons and credit packs
type Catalog struct {
	Name   string       `json:"name"`
	Plans  []Plan       `json:"plans"`
	AddOns []AddOn      `json:"add_ons"`
	Packs  []CreditPack `json:"packs"`
}

// Plan looks up a plan by id
func (c *Catalog) Plan(id PlanID) (Plan, error) {
	for _, p := range c.Plans {
		if p.ID == id {
			return p, nil
		}
	}
	return Plan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, id)
}

// FreePlan returns the plan subscribers fall back to on cancellation
func (c *Catalog) FreePlan() Plan {
	for _, p := range c.Plans {
		if p.Free {
			return p
		}
	}
	// Validate guarantees a free plan; an unvalidated catalog gets the zero plan.
	return Plan{}
}

// AddOn looks up an add-on by id
func (c *Catalog) AddOn(id AddOnID) (AddOn, error) {
	for _, a := range c.AddOns {
		if a.ID == id {
			return a, nil
		}
	}
	return AddOn{}, fmt.Errorf("%w: %q", ErrUnknownAddOn, id)
}

// Pack returns the credit pack sold for a pool
func (c *Catalog) Pack(pool Pool) (CreditPack, error) {
	for _, p := range c.Packs {
		if p.Pool == pool {
			return p, nil
		}
	}
	return CreditPack{}, fmt.Errorf("%w: %q", ErrUnknownPool, pool)
}

// ParseCycle validates a billing cycle string
func ParseCycle(s string) (Cycle, error) {
	switch Cycle(s) {
	case CycleMonthly, CycleAnnual:
		return Cycle(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCycle, s)
	}
}

// ParsePool validates a credit pool string
func ParsePool(s string) (Pool, error) {
	switch Pool(s) {
	case PoolImage, PoolDocument:
		return Pool(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPool, s)
	}
}

// Validate checks catalog consistency
func (c *Catalog) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("catalog name is required")
	}
	if len(c.Plans) == 0 {
		return fmt.Errorf("catalog %s has no plans", c.Name)
	}

	addOns := make(map[AddOnID]bool, len(c.AddOns))
	for _, a := range c.AddOns {
		if a.ID == "" {
			return fmt.Errorf("add-on id is required")
		}
		if addOns[a.ID] {
			return fmt.Errorf("duplicate add-on %q", a.ID)
		}
		if a.Price.IsNegative() {
			return fmt.Errorf("add-on %q has a negative price", a.ID)
		}
		addOns[a.ID] = true
	}

	plans := make(map[PlanID]bool, len(c.Plans))
	freePlans := 0
	for _, p := range c.Plans {
		if p.ID == "" {
			return fmt.Errorf("plan id is required")
		}
		if plans[p.ID] {
			return fmt.Errorf("duplicate plan %q", p.ID)
		}
		plans[p.ID] = true

		if p.BasePrice.IsNegative() {
			return fmt.Errorf("plan %q has a negative price", p.ID)
		}
		if p.Free {
			freePlans++
			if !p.BasePrice.IsZero() {
				return fmt.Errorf("free plan %q must have a zero price", p.ID)
			}
		}
		if p.BaseDocuments < 0 {
			return fmt.Errorf("plan %q has negative base documents", p.ID)
		}
		for _, included := range p.Includes {
			if !addOns[included] {
				return fmt.Errorf("plan %q includes unknown add-on %q", p.ID, included)
			}
		}
	}
	if freePlans != 1 {
		return fmt.Errorf("catalog %s must have exactly one free plan, found %d", c.Name, freePlans)
	}

	for _, pool := range []Pool{PoolImage, PoolDocument} {
		found := 0
		for _, pack := range c.Packs {
			if pack.Pool != pool {
				continue
			}
			found++
			if pack.Size <= 0 {
				return fmt.Errorf("pack %q must have a positive size", pack.ID)
			}
			if pack.UnitPrice.IsNegative() {
				return fmt.Errorf("pack %q has a negative unit price", pack.ID)
			}
		}
		if found != 1 {
			return fmt.Errorf("catalog %s must sell exactly one %s pack, found %d", c.Name, pool, found)
		}
	}

	return nil
}
