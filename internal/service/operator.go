package service

import "context"

// Operator groups the review actions shared by the /admin routes and the
// venturectl command.
type Operator struct {
	market *MarketplaceService
	apps   *ApplicationService
	subs   *SubscriptionService
}

func NewOperator(market *MarketplaceService, apps *ApplicationService, subs *SubscriptionService) *Operator {
	return &Operator{market: market, apps: apps, subs: subs}
}

func (o *Operator) VerifyListing(ctx context.Context, listingID string, verified bool) error {
	return o.market.VerifyListing(ctx, listingID, verified)
}

func (o *Operator) ApproveKYC(ctx context.Context, userID string, approved bool) error {
	return o.apps.ApproveKYC(ctx, userID, approved)
}

func (o *Operator) ApproveInvestor(ctx context.Context, userID string, approved bool) error {
	return o.apps.ApproveInvestor(ctx, userID, approved)
}

func (o *Operator) ApproveInvestee(ctx context.Context, userID string, approved bool) error {
	return o.apps.ApproveInvestee(ctx, userID, approved)
}

func (o *Operator) SweepExpiring(ctx context.Context) (int, error) {
	return o.subs.SweepExpiring(ctx)
}
