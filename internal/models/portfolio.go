package models

import "time"

// Portfolio groups a user's holdings.
type Portfolio struct {
	ID            string    `json:"id" gorm:"primaryKey;size:36"`
	UserID        string    `json:"user_id" gorm:"size:64;index;not null"`
	Name          string    `json:"name" gorm:"not null"`
	Description   string    `json:"description"`
	RiskTolerance string    `json:"risk_tolerance" gorm:"size:32;default:moderate"`
	Cash          float64   `json:"cash"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Stocks        []Stock   `json:"stocks" gorm:"foreignKey:PortfolioID;constraint:OnDelete:CASCADE"`
}

// Stock is a single holding inside a portfolio.
type Stock struct {
	ID            string    `json:"id" gorm:"primaryKey;size:36"`
	PortfolioID   string    `json:"portfolio_id" gorm:"size:36;index;not null"`
	Ticker        string    `json:"ticker" gorm:"size:16;not null"`
	Shares        float64   `json:"shares"`
	PurchasePrice float64   `json:"purchase_price"`
	PurchaseDate  time.Time `json:"purchase_date"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CostBasis is the amount paid for the holding.
func (s Stock) CostBasis() float64 {
	return s.Shares * s.PurchasePrice
}
