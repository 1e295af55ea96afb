package repository

import "context"

// StripeCustomerRepository caches the (user, connected account) -> customer
// mapping so repeated checkouts reuse the same Stripe customer.
type StripeCustomerRepository struct {
	db DBTX
}

func NewStripeCustomerRepository(db DBTX) *StripeCustomerRepository {
	return &StripeCustomerRepository{db: db}
}

func (r *StripeCustomerRepository) Get(ctx context.Context, userID string, accountID string) (string, error) {
	query := `SELECT customer_id FROM stripe_customers WHERE user_id = $1 AND account_id = $2`
	var customerID string
	if err := r.db.QueryRow(ctx, query, userID, accountID).Scan(&customerID); err != nil {
		return "", err
	}
	return customerID, nil
}

func (r *StripeCustomerRepository) Save(ctx context.Context, userID string, accountID string, customerID string) error {
	query := `
		INSERT INTO stripe_customers (user_id, account_id, customer_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, account_id) DO UPDATE SET customer_id = $3
	`
	_, err := r.db.Exec(ctx, query, userID, accountID, customerID)
	return err
}
