// Package payment defines the checkout capability the session controller
// drives. The shipped processor is a mock: it settles after a fixed delay
// and never talks to a real gateway.
package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"proai/internal/domain"
)

// TopUpPacks are the purchasable one-time credit bundles.
var TopUpPacks = []int{300, 550, 1000}

// Request describes a charge: the mode, and for top-ups the selected pack.
type Request struct {
	Mode        domain.PaymentMode
	PackCredits int
}

// Processor charges the user and reports the settled result. A failed
// charge returns an error and grants nothing.
type Processor interface {
	Charge(ctx context.Context, req Request) (*domain.PaymentResult, error)
}

// MockProcessor simulates a gateway. Decline forces every charge to fail,
// which exercises the no-grant-on-failure path in tests.
type MockProcessor struct {
	SettleDelay time.Duration
	Decline     bool
}

// NewMockProcessor returns a processor with the demo settle delay.
func NewMockProcessor() *MockProcessor {
	return &MockProcessor{SettleDelay: 2 * time.Second}
}

func (m *MockProcessor) Charge(ctx context.Context, req Request) (*domain.PaymentResult, error) {
	switch req.Mode {
	case domain.PaymentModeSubscription:
	case domain.PaymentModeTopUp:
		if !validPack(req.PackCredits) {
			return nil, fmt.Errorf("payment: unknown top-up pack %d", req.PackCredits)
		}
	default:
		return nil, fmt.Errorf("payment: unknown mode %q", req.Mode)
	}
	if m.SettleDelay > 0 {
		select {
		case <-time.After(m.SettleDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Decline {
		return nil, domain.ErrPaymentDeclined
	}
	result := &domain.PaymentResult{Mode: req.Mode, Reference: uuid.NewString()}
	if req.Mode == domain.PaymentModeTopUp {
		result.CreditsGranted = req.PackCredits
	}
	return result, nil
}

func validPack(credits int) bool {
	for _, pack := range TopUpPacks {
		if credits == pack {
			return true
		}
	}
	return false
}

var _ Processor = (*MockProcessor)(nil)
