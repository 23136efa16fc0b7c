package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/repository"
)

// ApplicationStore covers both application collections. Documents are
// keyed by user id.
type ApplicationStore struct {
	investors *mongo.Collection
	investees *mongo.Collection
}

var _ repository.ApplicationRepository = (*ApplicationStore)(nil)

func (s *Store) Applications() *ApplicationStore {
	return &ApplicationStore{
		investors: s.db.Collection(colInvestors),
		investees: s.db.Collection(colInvestees),
	}
}

func (a *ApplicationStore) GetInvestor(ctx context.Context, userID string) (*model.InvestorApplication, error) {
	return findOne[model.InvestorApplication](ctx, a.investors, bson.M{"_id": userID}, "investor application", userID)
}

func (a *ApplicationStore) SaveInvestor(ctx context.Context, app *model.InvestorApplication) error {
	app.ID = app.UserID
	return replaceByID(ctx, a.investors, app.ID, app)
}

func (a *ApplicationStore) ListInvestors(ctx context.Context) ([]model.InvestorApplication, error) {
	return findAll[model.InvestorApplication](ctx, a.investors, bson.M{})
}

func (a *ApplicationStore) SetInvestorExpiry(ctx context.Context, userID string, expiry time.Time) error {
	return updateByID(ctx, a.investors, "investor application", userID,
		bson.M{"$set": bson.M{"subscriptionExpiry": expiry, "updatedAt": time.Now().UTC()}})
}

func (a *ApplicationStore) SetInvestorApproved(ctx context.Context, userID string, approved bool) error {
	return updateByID(ctx, a.investors, "investor application", userID,
		bson.M{"$set": bson.M{"approved": approved, "verified": approved, "updatedAt": time.Now().UTC()}})
}

func (a *ApplicationStore) GetInvestee(ctx context.Context, userID string) (*model.InvesteeApplication, error) {
	return findOne[model.InvesteeApplication](ctx, a.investees, bson.M{"_id": userID}, "investee application", userID)
}

func (a *ApplicationStore) SaveInvestee(ctx context.Context, app *model.InvesteeApplication) error {
	app.ID = app.UserID
	return replaceByID(ctx, a.investees, app.ID, app)
}

func (a *ApplicationStore) SetInvesteeApproved(ctx context.Context, userID string, approved bool) error {
	return updateByID(ctx, a.investees, "investee application", userID,
		bson.M{"$set": bson.M{"approved": approved, "verified": approved, "updatedAt": time.Now().UTC()}})
}
