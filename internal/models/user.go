package models

import "time"

// User represents an application user record.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Sanitize returns a copy of the user without sensitive fields populated.
func (u User) Sanitize() User {
	u.PasswordHash = ""
	return u
}

// APIKeys holds the third-party credentials a user supplied for their own requests.
type APIKeys struct {
	UserID          string
	GoogleAPIKey    string
	AlphaVantageKey string
	RapidAPIKey     string
	UpdatedAt       time.Time
}

// Masked returns a copy with every key reduced to its last four characters.
func (k APIKeys) Masked() APIKeys {
	k.GoogleAPIKey = maskKey(k.GoogleAPIKey)
	k.AlphaVantageKey = maskKey(k.AlphaVantageKey)
	k.RapidAPIKey = maskKey(k.RapidAPIKey)
	return k
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
