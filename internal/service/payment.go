package service

import (
	"context"
	"log/slog"

	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/payment"
)

const genericPrefix = "pay_"

// PaymentService is the generic checkout used by pages that only need to
// take a payment and keep a record of it.
type PaymentService struct {
	checkout *Checkout
	logger   *slog.Logger
}

func NewPaymentService(checkout *Checkout, logger *slog.Logger) *PaymentService {
	return &PaymentService{checkout: checkout, logger: logger}
}

// Initialize opens a checkout for amount. userID may be empty.
func (s *PaymentService) Initialize(ctx context.Context, userID, email string, amount float64, metadata map[string]any) (*payment.Checkout, error) {
	if err := validEmail("email", email); err != nil {
		return nil, err
	}
	meta := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	if userID != "" {
		meta["user_id"] = userID
	}
	return s.checkout.start(ctx, model.FlowGeneric, genericPrefix, email, amount, meta)
}

// VerifyAndRecord verifies reference and stores it. The second return is
// false when the reference was already recorded.
func (s *PaymentService) VerifyAndRecord(ctx context.Context, reference string) (*model.PaymentRecord, bool, error) {
	st, err := s.checkout.settle(ctx, model.FlowGeneric, reference, "Payment", nil)
	if err != nil {
		return nil, false, err
	}
	if st.first {
		s.checkout.markApplied(ctx, st)
	}
	return st.record, st.first, nil
}
