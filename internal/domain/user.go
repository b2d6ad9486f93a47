package domain

import (
	"time"
)

// DefaultCurrency is assigned to profiles created without one.
const DefaultCurrency = "USD"

// UserProfile is the per-user settings document.
type UserProfile struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name"`
	MonthlyIncome float64   `json:"monthly_income"`
	Currency      string    `json:"currency"`
	FCMToken      string    `json:"fcm_token,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProfilePatch carries the fields a profile update may change.
// Nil fields are left untouched.
type ProfilePatch struct {
	DisplayName   *string  `json:"display_name,omitempty"`
	MonthlyIncome *float64 `json:"monthly_income,omitempty" validate:"omitempty,gte=0"`
	Currency      *string  `json:"currency,omitempty" validate:"omitempty,currency"`
	FCMToken      *string  `json:"fcm_token,omitempty"`
}

// Apply merges the patch into a copy of p.
func (p UserProfile) Apply(patch ProfilePatch) UserProfile {
	if patch.DisplayName != nil {
		p.DisplayName = *patch.DisplayName
	}
	if patch.MonthlyIncome != nil {
		p.MonthlyIncome = *patch.MonthlyIncome
	}
	if patch.Currency != nil {
		p.Currency = *patch.Currency
	}
	if patch.FCMToken != nil {
		p.FCMToken = *patch.FCMToken
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	return p
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CAD": "C$",
	"AUD": "A$",
	"INR": "₹",
}

// IsSupportedCurrency reports whether code has a known symbol.
func IsSupportedCurrency(code string) bool {
	_, ok := currencySymbols[code]
	return ok
}

// CurrencySymbol returns the display symbol for a currency code, "$" if unknown.
func CurrencySymbol(code string) string {
	if s, ok := currencySymbols[code]; ok {
		return s
	}
	return "$"
}
