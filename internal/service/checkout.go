package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/venturehub/internal/apperror"
	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/payment"
	"github.com/sakif/venturehub/internal/repository"
)

// PaymentObserver counts verification outcomes per flow.
type PaymentObserver interface {
	PaymentVerified(flow, outcome string)
}

// Verification outcomes reported to the PaymentObserver.
const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeDuplicate = "duplicate"
	OutcomeResumed   = "resumed"
	OutcomeError     = "error"
)

type nopPaymentObserver struct{}

func (nopPaymentObserver) PaymentVerified(string, string) {}

// Callback paths per flow, relative to the public base URL.
var callbackPaths = map[string]string{
	model.FlowMarketplace:  "/marketplace/callback",
	model.FlowSpace:        "/collaborative-spaces/callback",
	model.FlowService:      "/advisory-services/callback",
	model.FlowSubscription: "/subscription/callback",
	model.FlowGeneric:      "/payment/callback",
}

// Checkout starts and settles gateway transactions for every flow.
type Checkout struct {
	gateway  payment.Gateway
	records  repository.PaymentRepository
	observer PaymentObserver
	baseURL  string
	currency string
	logger   *slog.Logger
	now      func() time.Time
}

// NewCheckout creates a Checkout. observer may be nil.
func NewCheckout(gateway payment.Gateway, records repository.PaymentRepository, observer PaymentObserver, baseURL, currency string, logger *slog.Logger) *Checkout {
	if observer == nil {
		observer = nopPaymentObserver{}
	}
	return &Checkout{
		gateway:  gateway,
		records:  records,
		observer: observer,
		baseURL:  strings.TrimRight(baseURL, "/"),
		currency: currency,
		logger:   logger,
		now:      time.Now,
	}
}

// CallbackURL is the absolute callback for flow.
func (c *Checkout) CallbackURL(flow string) string {
	return c.baseURL + callbackPaths[flow]
}

// start opens a transaction for flow. meta always carries "flow".
func (c *Checkout) start(ctx context.Context, flow, prefix, email string, amount float64, meta map[string]any) (*payment.Checkout, error) {
	if amount <= 0 {
		return nil, apperror.ValidationFailed("amount", "The amount must be greater than zero.")
	}
	if meta == nil {
		meta = map[string]any{}
	}
	meta["flow"] = flow

	ref := payment.NewReference(prefix)
	out, err := c.gateway.Initialize(ctx, payment.InitRequest{
		Email:       email,
		Amount:      amount,
		Reference:   ref,
		CallbackURL: c.CallbackURL(flow),
		Currency:    c.currency,
		Metadata:    meta,
	})
	if err != nil {
		c.logger.Error("payment initialization failed",
			slog.String("flow", flow),
			slog.String("reference", ref),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Upstream(MsgPaymentStart, err)
	}

	c.logger.Info("payment initialized",
		slog.String("flow", flow),
		slog.String("reference", out.Reference),
		slog.Float64("amount", amount),
	)
	return out, nil
}

// settlement is a verified, recorded transaction.
type settlement struct {
	tx     *payment.Transaction
	record *model.PaymentRecord
	// first is false when the reference was already recorded and applied;
	// the caller then skips every side effect.
	first bool
	// resumed marks a recorded payment whose document change never went
	// through. The change may have landed without the record being marked.
	resumed bool
}

// settle verifies ref and records it as the idempotency point. target
// names the listing, booking or plan the payment is for. Once the flow's
// change succeeds the caller must call markApplied.
func (c *Checkout) settle(ctx context.Context, flow, ref, details string, target func(*payment.Transaction) string) (*settlement, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, apperror.ValidationFailed("reference", "The payment reference is missing.")
	}

	tx, err := c.gateway.Verify(ctx, ref)
	if err != nil {
		c.observer.PaymentVerified(flow, OutcomeError)
		return nil, apperror.Upstream(MsgPaymentFailed, err)
	}
	if !tx.Successful() {
		c.observer.PaymentVerified(flow, OutcomeFailed)
		c.logger.Warn("payment not successful",
			slog.String("flow", flow),
			slog.String("reference", ref),
			slog.String("status", tx.Status),
			slog.String("gateway_response", tx.GatewayResponse),
		)
		return nil, apperror.PaymentRequired(MsgPaymentFailed)
	}
	if got := tx.Meta("flow"); got != "" && got != flow {
		c.observer.PaymentVerified(flow, OutcomeFailed)
		return nil, apperror.ValidationFailed("reference", fmt.Sprintf("This payment belongs to another flow (%s).", got))
	}

	rec := &model.PaymentRecord{
		Reference:      tx.Reference,
		Flow:           flow,
		UserID:         tx.Meta("user_id"),
		Amount:         tx.AmountMajor(),
		Currency:       tx.Currency,
		CustomerEmail:  tx.CustomerEmail,
		CustomerName:   tx.CustomerName,
		PaymentDetails: details,
		Approved:       true,
		CreatedAt:      c.now().UTC(),
	}
	if rec.Reference == "" {
		rec.Reference = ref
	}
	if target != nil {
		rec.TargetID = target(tx)
	}

	if err := c.records.Record(ctx, rec); err != nil {
		if isConflict(err) {
			return c.resume(ctx, flow, rec, tx)
		}
		c.observer.PaymentVerified(flow, OutcomeError)
		return nil, fmt.Errorf("service/checkout: recording %s: %w", ref, err)
	}

	c.observer.PaymentVerified(flow, OutcomeSuccess)
	c.logger.Info("payment verified",
		slog.String("flow", flow),
		slog.String("reference", ref),
		slog.String("user_id", rec.UserID),
		slog.Float64("amount", rec.Amount),
	)
	return &settlement{tx: tx, record: rec, first: true}, nil
}

// resume handles a reference that is already recorded. An applied record
// is a duplicate; an unapplied one is handed back for the change to run
// again.
func (c *Checkout) resume(ctx context.Context, flow string, rec *model.PaymentRecord, tx *payment.Transaction) (*settlement, error) {
	stored, err := c.records.Get(ctx, rec.Reference)
	if err != nil {
		c.observer.PaymentVerified(flow, OutcomeError)
		return nil, fmt.Errorf("service/checkout: loading %s: %w", rec.Reference, err)
	}
	if stored.Applied {
		c.observer.PaymentVerified(flow, OutcomeDuplicate)
		c.logger.Info("payment already processed",
			slog.String("flow", flow),
			slog.String("reference", rec.Reference),
		)
		return &settlement{tx: tx, record: stored, first: false}, nil
	}

	c.observer.PaymentVerified(flow, OutcomeResumed)
	c.logger.Warn("resuming recorded payment that was never applied",
		slog.String("flow", flow),
		slog.String("reference", rec.Reference),
	)
	return &settlement{tx: tx, record: stored, first: true, resumed: true}, nil
}

// markApplied closes the settlement. A failure is only logged: the next
// callback for the reference resumes it and the flow changes are safe to
// repeat.
func (c *Checkout) markApplied(ctx context.Context, st *settlement) {
	if err := c.records.MarkApplied(ctx, st.record.Reference); err != nil {
		c.logger.Error("payment applied but not marked",
			slog.String("flow", st.record.Flow),
			slog.String("reference", st.record.Reference),
			slog.String("error", err.Error()),
		)
	}
}
