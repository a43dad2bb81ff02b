package payment

import "context"

// StatusSucceeded is the only intent status that counts as paid.
const StatusSucceeded = "succeeded"

// Gateway creates and inspects payment intents at an external provider.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
}

// IntentRequest describes a charge to be collected client-side.
type IntentRequest struct {
	Amount         int64 // minor units
	Currency       string
	MethodTypes    []string
	IdempotencyKey string
	Metadata       map[string]string
}

// Intent is the provider-agnostic view of a payment intent.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Succeeded reports whether the intent has been paid.
func (i *Intent) Succeeded() bool {
	return i != nil && i.Status == StatusSucceeded
}
