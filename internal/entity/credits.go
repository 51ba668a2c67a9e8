package entity

import (
	"time"
)

// CreditTransaction is one append-only ledger entry. Entries are never
// updated or deleted; corrections are written as opposite-sign entries.
type CreditTransaction struct {
	ID               string    `json:"id" db:"id"`
	UserID           int64     `json:"user_id" db:"user_id"`
	Delta            float64   `json:"delta" db:"delta"`
	Reason           string    `json:"reason" db:"reason"`
	ResultingBalance float64   `json:"resulting_balance" db:"resulting_balance"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// CreditPackage is a purchasable prepaid bundle: the user pays Price in
// the tenant's currency and receives Credits (plus BonusCredits) on the
// ledger. Packages are tenant-scoped operator configuration.
type CreditPackage struct {
	ID           int64     `json:"id" db:"id"`
	TenantID     int64     `json:"tenant_id" db:"tenant_id"`
	Name         string    `json:"name" db:"name"`
	Credits      float64   `json:"credits" db:"credits"`
	BonusCredits float64   `json:"bonus_credits" db:"bonus_credits"`
	Price        float64   `json:"price" db:"price"`
	Currency     string    `json:"currency" db:"currency"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// TotalCredits is what the buyer's balance gains.
func (p *CreditPackage) TotalCredits() float64 {
	return p.Credits + p.BonusCredits
}
