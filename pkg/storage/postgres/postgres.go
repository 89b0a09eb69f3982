package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/platinummonkey/launchpad/pkg/billing"
	"github.com/platinummonkey/launchpad/pkg/catalog"
)

const billingColumns = `id, user_id, selected_plan, billing_cycle, plan_price, add_ons,
	subscription_start_date, subscription_end_date, next_billing_date, status, payment_status,
	image_credits, document_credits, total_image_purchases, total_document_purchases,
	image_purchase_history, document_purchase_history, discount_code, discount_percentage,
	version, created_at, updated_at`

// Store implements billing.Store and projects.Store on PostgreSQL. Writes and read-after-write
// reads go to the primary; only aggregate reporting queries use replicas.
type Store struct {
	conns *ConnectionManager
}

// NewStore creates a store over conns
func NewStore(conns *ConnectionManager) *Store {
	return &Store{conns: conns}
}

// DB returns the primary handle, shared with the audit logger and health checks
func (s *Store) DB() *sql.DB {
	return s.conns.Primary()
}

// Close closes every connection
func (s *Store) Close() error {
	return s.conns.Close()
}

// AddUser inserts a user row. Account registration lives outside this service; this backs
// seeding and integration tests.
func (s *Store) AddUser(ctx context.Context, u billing.User) (billing.User, error) {
	err := s.conns.Primary().QueryRowContext(ctx, `
		INSERT INTO users (first_name, last_name, email, phone, company)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, u.FirstName, u.LastName, u.Email, u.Phone, u.Company).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return billing.User{}, classify(err, "failed to create user")
	}
	return u, nil
}

// GetProfile implements billing.Store
func (s *Store) GetProfile(ctx context.Context, userID int64) (*billing.Profile, error) {
	db := s.conns.Primary()

	var profile billing.Profile
	var phone, company sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, email, phone, company, created_at
		FROM users
		WHERE id = $1
	`, userID).Scan(
		&profile.ID,
		&profile.FirstName,
		&profile.LastName,
		&profile.Email,
		&phone,
		&company,
		&profile.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, billing.NewError(billing.KindNotFound, "user %d not found", userID)
	} else if err != nil {
		return nil, classify(err, "failed to get user")
	}
	profile.Phone = stringPtr(phone)
	profile.Company = stringPtr(company)

	rec, err := scanBilling(db.QueryRowContext(ctx, `SELECT `+billingColumns+` FROM billing WHERE user_id = $1`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return &profile, nil
	} else if err != nil {
		return nil, classify(err, "failed to get billing record")
	}
	profile.Billing = rec
	return &profile, nil
}

// Mutate implements billing.Store. The user row is share-locked so a concurrent account
// deletion waits, and the billing row is locked for update. The write is additionally guarded
// by the row version; a lost race surfaces as KindConflict.
func (s *Store) Mutate(ctx context.Context, userID int64, opts billing.MutateOptions, fn billing.MutateFunc) (*billing.BillingRecord, error) {
	var result *billing.BillingRecord
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var locked int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR SHARE`, userID).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return billing.NewError(billing.KindNotFound, "user %d not found", userID)
		} else if err != nil {
			return classify(err, "failed to lock user")
		}

		current, err := scanBilling(tx.QueryRowContext(ctx, `SELECT `+billingColumns+` FROM billing WHERE user_id = $1 FOR UPDATE`, userID))
		if errors.Is(err, sql.ErrNoRows) {
			if !opts.Create {
				return billing.NewError(billing.KindNoBillingRecord, "user %d has no billing record", userID)
			}
			current = nil
		} else if err != nil {
			return classify(err, "failed to lock billing record")
		}

		if opts.ProjectID != nil {
			if err := lockProject(ctx, tx, userID, *opts.ProjectID); err != nil {
				return err
			}
		}

		next, err := fn(current.Clone())
		if err != nil {
			return err
		}
		next = next.Clone()
		next.UserID = userID
		normalizeTimes(next)

		if current == nil {
			err = insertBilling(ctx, tx, next)
		} else {
			next.ID = current.ID
			next.CreatedAt = current.CreatedAt
			next.Version = current.Version + 1
			err = updateBilling(ctx, tx, next, current.Version)
		}
		if err != nil {
			return err
		}
		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// lockProject share-locks the project so it cannot be deleted before the mutation commits
func lockProject(ctx context.Context, tx *sql.Tx, userID, projectID int64) error {
	var locked int64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM projects WHERE id = $1 AND user_id = $2 FOR SHARE`,
		projectID, userID,
	).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.NewError(billing.KindNotFound, "project %d not found", projectID)
	} else if err != nil {
		return classify(err, "failed to lock project")
	}
	return nil
}

// normalizeTimes truncates timestamps to the microsecond precision of TIMESTAMPTZ, in UTC, so
// the record Mutate returns is the record a later read scans back
func normalizeTimes(rec *billing.BillingRecord) {
	rec.SubscriptionStartDate = dbTime(rec.SubscriptionStartDate)
	rec.CreatedAt = dbTime(rec.CreatedAt)
	rec.UpdatedAt = dbTime(rec.UpdatedAt)
	if rec.SubscriptionEndDate != nil {
		t := dbTime(*rec.SubscriptionEndDate)
		rec.SubscriptionEndDate = &t
	}
	if rec.NextBillingDate != nil {
		t := dbTime(*rec.NextBillingDate)
		rec.NextBillingDate = &t
	}
}

func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func insertBilling(ctx context.Context, tx *sql.Tx, rec *billing.BillingRecord) error {
	args, err := billingArgs(rec)
	if err != nil {
		return err
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO billing (user_id, selected_plan, billing_cycle, plan_price, add_ons,
			subscription_start_date, subscription_end_date, next_billing_date, status, payment_status,
			image_credits, document_credits, total_image_purchases, total_document_purchases,
			image_purchase_history, document_purchase_history, discount_code, discount_percentage,
			created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, 1)
		RETURNING id, version
	`, append(args, rec.CreatedAt, rec.UpdatedAt)...).Scan(&rec.ID, &rec.Version)
	if err != nil {
		return classify(err, "failed to insert billing record")
	}
	return nil
}

func updateBilling(ctx context.Context, tx *sql.Tx, rec *billing.BillingRecord, expectedVersion int64) error {
	args, err := billingArgs(rec)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE billing SET
			selected_plan = $2, billing_cycle = $3, plan_price = $4, add_ons = $5,
			subscription_start_date = $6, subscription_end_date = $7, next_billing_date = $8,
			status = $9, payment_status = $10,
			image_credits = $11, document_credits = $12,
			total_image_purchases = $13, total_document_purchases = $14,
			image_purchase_history = $15, document_purchase_history = $16,
			discount_code = $17, discount_percentage = $18,
			updated_at = $19, version = version + 1
		WHERE user_id = $1 AND version = $20
	`, append(args, rec.UpdatedAt, expectedVersion)...)
	if err != nil {
		return classify(err, "failed to update billing record")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(err, "failed to update billing record")
	}
	if n == 0 {
		return billing.NewError(billing.KindConflict, "billing record for user %d was modified concurrently", rec.UserID)
	}
	return nil
}

// billingArgs returns $1..$18 shared by insert and update
func billingArgs(rec *billing.BillingRecord) ([]interface{}, error) {
	images, err := marshalHistory(rec.ImagePurchaseHistory)
	if err != nil {
		return nil, err
	}
	documents, err := marshalHistory(rec.DocumentPurchaseHistory)
	if err != nil {
		return nil, err
	}
	return []interface{}{
		rec.UserID,
		string(rec.SelectedPlan),
		string(rec.BillingCycle),
		rec.PlanPrice,
		pq.StringArray(rec.AddOns.Strings()),
		rec.SubscriptionStartDate,
		nullTime(rec.SubscriptionEndDate),
		nullTime(rec.NextBillingDate),
		string(rec.Status),
		string(rec.PaymentStatus),
		rec.ImageCredits,
		rec.DocumentCredits,
		rec.TotalImagePurchases,
		rec.TotalDocumentPurchases,
		images,
		documents,
		nullString(rec.DiscountCode),
		rec.DiscountPercentage,
	}, nil
}

// DeleteAccount implements billing.Store
func (s *Store) DeleteAccount(ctx context.Context, userID int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM billing WHERE user_id = $1`, userID); err != nil {
			return classify(err, "failed to delete billing record")
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE user_id = $1`, userID); err != nil {
			return classify(err, "failed to delete projects")
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
		if err != nil {
			return classify(err, "failed to delete user")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return classify(err, "failed to delete user")
		}
		if n == 0 {
			return billing.NewError(billing.KindNotFound, "user %d not found", userID)
		}
		return nil
	})
}

// CountByPlan implements billing.Store. It reads from a replica.
func (s *Store) CountByPlan(ctx context.Context) (map[catalog.PlanID]int64, error) {
	rows, err := s.conns.Replica().QueryContext(ctx, `SELECT selected_plan, COUNT(*) FROM billing GROUP BY selected_plan`)
	if err != nil {
		return nil, classify(err, "failed to count subscriptions")
	}
	defer rows.Close()

	counts := make(map[catalog.PlanID]int64)
	for rows.Next() {
		var plan string
		var n int64
		if err := rows.Scan(&plan, &n); err != nil {
			return nil, fmt.Errorf("failed to scan subscription count: %w", err)
		}
		counts[catalog.PlanID(plan)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "failed to count subscriptions")
	}
	return counts, nil
}

// inTx runs fn in a transaction, committing when it returns nil and rolling back otherwise
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.conns.Primary().BeginTx(ctx, nil)
	if err != nil {
		return classify(err, "failed to begin transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify(err, "failed to commit transaction")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBilling(row rowScanner) (*billing.BillingRecord, error) {
	var rec billing.BillingRecord
	var plan, cycle, status, paymentStatus string
	var addOns pq.StringArray
	var endDate, nextDate sql.NullTime
	var images, documents []byte
	var discountCode sql.NullString

	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&plan,
		&cycle,
		&rec.PlanPrice,
		&addOns,
		&rec.SubscriptionStartDate,
		&endDate,
		&nextDate,
		&status,
		&paymentStatus,
		&rec.ImageCredits,
		&rec.DocumentCredits,
		&rec.TotalImagePurchases,
		&rec.TotalDocumentPurchases,
		&images,
		&documents,
		&discountCode,
		&rec.DiscountPercentage,
		&rec.Version,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.SubscriptionStartDate = rec.SubscriptionStartDate.UTC()
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	rec.SelectedPlan = catalog.PlanID(plan)
	rec.BillingCycle = catalog.Cycle(cycle)
	rec.Status = billing.Status(status)
	rec.PaymentStatus = billing.PaymentStatus(paymentStatus)
	rec.AddOns = billing.AddOnSetFromStrings(addOns)
	rec.SubscriptionEndDate = timePtr(endDate)
	rec.NextBillingDate = timePtr(nextDate)
	rec.DiscountCode = stringPtr(discountCode)
	if rec.ImagePurchaseHistory, err = unmarshalHistory(images); err != nil {
		return nil, err
	}
	if rec.DocumentPurchaseHistory, err = unmarshalHistory(documents); err != nil {
		return nil, err
	}
	return &rec, nil
}

func marshalHistory(h []billing.PurchaseRecord) ([]byte, error) {
	if h == nil {
		h = []billing.PurchaseRecord{}
	}
	data, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal purchase history: %w", err)
	}
	return data, nil
}

func unmarshalHistory(data []byte) ([]billing.PurchaseRecord, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var h []billing.PurchaseRecord
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to unmarshal purchase history: %w", err)
	}
	if len(h) == 0 {
		return nil, nil
	}
	return h, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
