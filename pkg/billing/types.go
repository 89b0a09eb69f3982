package billing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/platinummonkey/launchpad/pkg/catalog"
)

// Status represents the lifecycle state of a billing record
type Status string

const (
	StatusActive Status = "active"
)

// PaymentStatus represents the payment state of a billing record.
// Pending is a placeholder until a payment gateway captures the charge.
type PaymentStatus string

const (
	PaymentStatusActive  PaymentStatus = "active"
	PaymentStatusPending PaymentStatus = "pending"
)

// User represents the identity a billing record hangs off
type User struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone"`
	Company   *string   `json:"company"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is a user together with their billing record, if any
type Profile struct {
	User
	Billing *BillingRecord `json:"billing"`
}

// PurchaseRecord is an immutable entry in a credit pool's purchase history
type PurchaseRecord struct {
	ID          string          `json:"id"`
	Pool        catalog.Pool    `json:"pool"`
	PackType    string          `json:"pack_type"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	PurchasedAt time.Time       `json:"purchased_at"`
	ProjectID   *int64          `json:"project_id,omitempty"`
}

// BillingRecord is a user's plan, add-ons and credit ledgers
type BillingRecord struct {
	ID                      int64            `json:"id"`
	UserID                  int64            `json:"user_id"`
	SelectedPlan            catalog.PlanID   `json:"selected_plan"`
	BillingCycle            catalog.Cycle    `json:"billing_cycle"`
	PlanPrice               decimal.Decimal  `json:"plan_price"`
	AddOns                  AddOnSet         `json:"add_ons"`
	SubscriptionStartDate   time.Time        `json:"subscription_start_date"`
	SubscriptionEndDate     *time.Time       `json:"subscription_end_date"`
	NextBillingDate         *time.Time       `json:"next_billing_date"`
	Status                  Status           `json:"status"`
	PaymentStatus           PaymentStatus    `json:"payment_status"`
	ImageCredits            int              `json:"image_credits"`
	DocumentCredits         int              `json:"document_credits"`
	TotalImagePurchases     int              `json:"total_image_purchases"`
	TotalDocumentPurchases  int              `json:"total_document_purchases"`
	ImagePurchaseHistory    []PurchaseRecord `json:"image_purchase_history"`
	DocumentPurchaseHistory []PurchaseRecord `json:"document_purchase_history"`
	DiscountCode            *string          `json:"discount_code"`
	DiscountPercentage      decimal.Decimal  `json:"discount_percentage"`
	Version                 int64            `json:"-"`
	CreatedAt               time.Time        `json:"created_at"`
	UpdatedAt               time.Time        `json:"updated_at"`
}

// Clone returns a deep copy so a mutation can never alias stored state
func (b *BillingRecord) Clone() *BillingRecord {
	if b == nil {
		return nil
	}
	c := *b
	c.AddOns = b.AddOns.clone()
	c.SubscriptionEndDate = cloneTime(b.SubscriptionEndDate)
	c.NextBillingDate = cloneTime(b.NextBillingDate)
	c.ImagePurchaseHistory = cloneHistory(b.ImagePurchaseHistory)
	c.DocumentPurchaseHistory = cloneHistory(b.DocumentPurchaseHistory)
	if b.DiscountCode != nil {
		code := *b.DiscountCode
		c.DiscountCode = &code
	}
	return &c
}

// Credits returns the balance of a pool
func (b *BillingRecord) Credits(pool catalog.Pool) int {
	if pool == catalog.PoolDocument {
		return b.DocumentCredits
	}
	return b.ImageCredits
}

// History returns the purchase history of a pool
func (b *BillingRecord) History(pool catalog.Pool) []PurchaseRecord {
	if pool == catalog.PoolDocument {
		return b.DocumentPurchaseHistory
	}
	return b.ImagePurchaseHistory
}

// recordPurchase credits the pool, bumps its counter and appends the history entry together
func (b *BillingRecord) recordPurchase(rec PurchaseRecord) {
	switch rec.Pool {
	case catalog.PoolDocument:
		b.DocumentCredits += rec.Quantity
		b.TotalDocumentPurchases++
		b.DocumentPurchaseHistory = append(b.DocumentPurchaseHistory, rec)
	default:
		b.ImageCredits += rec.Quantity
		b.TotalImagePurchases++
		b.ImagePurchaseHistory = append(b.ImagePurchaseHistory, rec)
	}
}

// OnboardingRequest is the input to ApplyOnboarding
type OnboardingRequest struct {
	Plan   string   `json:"selectedPlan"`
	Cycle  string   `json:"billingCycle"`
	AddOns []string `json:"addOns"`
}

// CreditPurchase is the input to PurchaseCredits
type CreditPurchase struct {
	Pool      string `json:"pool"`
	Quantity  int    `json:"quantity"`
	ProjectID *int64 `json:"project_id,omitempty"`
}

// CreditReceipt is the outcome of a credit purchase
type CreditReceipt struct {
	PurchaseID string         `json:"purchase_id"`
	Pool       catalog.Pool   `json:"pool"`
	Balance    int            `json:"balance"`
	Purchase   PurchaseRecord `json:"purchase"`
	Billing    *BillingRecord `json:"billing"`
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneHistory(h []PurchaseRecord) []PurchaseRecord {
	if h == nil {
		return nil
	}
	out := make([]PurchaseRecord, len(h))
	for i, rec := range h {
		out[i] = rec
		if rec.ProjectID != nil {
			id := *rec.ProjectID
			out[i].ProjectID = &id
		}
	}
	return out
}
