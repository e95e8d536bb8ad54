package domain

// PaymentMode selects between the premium subscription and a one-time
// credit top-up.
type PaymentMode string

const (
	PaymentModeSubscription PaymentMode = "subscription"
	PaymentModeTopUp        PaymentMode = "topup"
)

// PaymentResult reports a settled charge. CreditsGranted is set only for
// top-up payments.
type PaymentResult struct {
	Mode           PaymentMode `json:"mode"`
	CreditsGranted int         `json:"credits_granted,omitempty"`
	Reference      string      `json:"reference"`
}
