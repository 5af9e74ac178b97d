package models

import "time"

// FinancialPlan is a generated plan together with the inputs it was built from.
type FinancialPlan struct {
	ID        string         `json:"id" bson:"_id"`
	UserID    string         `json:"user_id" bson:"user_id"`
	Plan      map[string]any `json:"plan" bson:"plan_data"`
	Input     map[string]any `json:"input" bson:"input_data"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
}
