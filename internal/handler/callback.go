package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/venturehub/internal/apperror"
	"github.com/sakif/venturehub/internal/flash"
	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/service"
)

// Settlement interfaces, one per payment flow.
type (
	InvestmentSettler interface {
		CompleteInvestmentPayment(ctx context.Context, reference string) (*service.InvestmentReceipt, error)
	}
	BookingSettler interface {
		CompleteSpacePayment(ctx context.Context, reference string) (*service.BookingReceipt, error)
		CompleteServicePayment(ctx context.Context, reference string) (*service.BookingReceipt, error)
	}
	RenewalSettler interface {
		CompleteRenewal(ctx context.Context, reference string) (*service.RenewalResult, error)
	}
	PaymentRecorder interface {
		VerifyAndRecord(ctx context.Context, reference string) (*model.PaymentRecord, bool, error)
	}
)

const (
	msgAlreadyProcessed = "This payment has already been processed."
	msgPaymentFailed    = "Payment verification failed. Please contact support if you were charged."
	callbackLanding     = "/dashboard"
)

// CallbackHandler receives the browser redirect the gateway sends after
// checkout. Each route verifies the reference, applies the flow's effect
// once and lands on the dashboard with a flash message.
//
//   - GET /marketplace/callback
//   - GET /collaborative-spaces/callback
//   - GET /advisory-services/callback
//   - GET /subscription/callback
//   - GET /payment/callback
type CallbackHandler struct {
	investments InvestmentSettler
	bookings    BookingSettler
	renewals    RenewalSettler
	payments    PaymentRecorder
	logger      *slog.Logger
}

func NewCallbackHandler(investments InvestmentSettler, bookings BookingSettler, renewals RenewalSettler, payments PaymentRecorder, logger *slog.Logger) *CallbackHandler {
	return &CallbackHandler{
		investments: investments,
		bookings:    bookings,
		renewals:    renewals,
		payments:    payments,
		logger:      logger,
	}
}

// reference reads the gateway's reference, which arrives as "reference"
// and again as "trxref".
func reference(r *http.Request) string {
	q := r.URL.Query()
	if ref := q.Get("reference"); ref != "" {
		return ref
	}
	return q.Get("trxref")
}

func (h *CallbackHandler) fail(w http.ResponseWriter, r *http.Request, flow string, err error) {
	h.logger.Error("payment callback failed",
		slog.String("flow", flow),
		slog.String("reference", reference(r)),
		slog.String("error", err.Error()),
	)
	redirectWith(w, r, callbackLanding, flash.KindError, apperror.MessageOf(err, msgPaymentFailed))
}

func (h *CallbackHandler) succeed(w http.ResponseWriter, r *http.Request, duplicate bool, msg string) {
	if duplicate {
		msg = msgAlreadyProcessed
	}
	redirectWith(w, r, callbackLanding, flash.KindSuccess, msg)
}

// HandleMarketplace settles an investment.
func (h *CallbackHandler) HandleMarketplace(w http.ResponseWriter, r *http.Request) {
	rec, err := h.investments.CompleteInvestmentPayment(r.Context(), reference(r))
	if err != nil {
		h.fail(w, r, model.FlowMarketplace, err)
		return
	}
	h.succeed(w, r, rec.Duplicate,
		fmt.Sprintf("Payment successful! You now hold %.2f%% of %s.", rec.Equity, rec.Title))
}

// HandleSpace settles a collaborative space booking.
func (h *CallbackHandler) HandleSpace(w http.ResponseWriter, r *http.Request) {
	rec, err := h.bookings.CompleteSpacePayment(r.Context(), reference(r))
	if err != nil {
		h.fail(w, r, model.FlowSpace, err)
		return
	}
	h.succeed(w, r, rec.Duplicate, fmt.Sprintf("Payment successful! Your booking at %s is confirmed.", rec.Item))
}

// HandleService settles an advisory service booking.
func (h *CallbackHandler) HandleService(w http.ResponseWriter, r *http.Request) {
	rec, err := h.bookings.CompleteServicePayment(r.Context(), reference(r))
	if err != nil {
		h.fail(w, r, model.FlowService, err)
		return
	}
	h.succeed(w, r, rec.Duplicate, fmt.Sprintf("Payment successful! Your %s session is confirmed.", rec.Item))
}

// HandleSubscription settles a renewal.
func (h *CallbackHandler) HandleSubscription(w http.ResponseWriter, r *http.Request) {
	res, err := h.renewals.CompleteRenewal(r.Context(), reference(r))
	if err != nil {
		h.fail(w, r, model.FlowSubscription, err)
		return
	}
	h.succeed(w, r, res.Duplicate,
		fmt.Sprintf("Subscription renewed until %s.", res.Expiry.Format("Jan 02, 2006")))
}

// HandlePayment records a generic payment.
func (h *CallbackHandler) HandlePayment(w http.ResponseWriter, r *http.Request) {
	_, first, err := h.payments.VerifyAndRecord(r.Context(), reference(r))
	if err != nil {
		h.fail(w, r, model.FlowGeneric, err)
		return
	}
	h.succeed(w, r, !first, "Payment successful!")
}
