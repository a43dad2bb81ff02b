package models

// PaymentInit is what a client needs to complete payment on its side.
type PaymentInit struct {
	Amount       int64  `json:"amount"`   // minor units
	Currency     string `json:"currency"` // ISO 4217, lower-case
	ClientSecret string `json:"clientSecret"`
}
