package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/venturehub/internal/apperror"
	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/repository"
)

// ListingStore is the Marketplace collection. Every change to the
// investors, reviews and interest arrays is one UpdateOne so concurrent
// requests cannot overwrite each other.
type ListingStore struct {
	col *mongo.Collection
}

var _ repository.ListingRepository = (*ListingStore)(nil)

func (s *Store) Listings() *ListingStore {
	return &ListingStore{col: s.db.Collection(colListings)}
}

func (l *ListingStore) Get(ctx context.Context, id string) (*model.Listing, error) {
	return findOne[model.Listing](ctx, l.col, bson.M{"_id": id}, "listing", id)
}

func (l *ListingStore) Create(ctx context.Context, listing *model.Listing) error {
	// nil slices encode as null, and $push fails on a null field.
	if listing.Investors == nil {
		listing.Investors = []model.InvestorRequest{}
	}
	if listing.Reviews == nil {
		listing.Reviews = []model.Review{}
	}
	if listing.ShowedInterestUsers == nil {
		listing.ShowedInterestUsers = []string{}
	}
	if listing.ShowedDisinterestUsers == nil {
		listing.ShowedDisinterestUsers = []string{}
	}
	if listing.ImageURLs == nil {
		listing.ImageURLs = []string{}
	}
	return insert(ctx, l.col, "listing", listing.ID, listing)
}

func (l *ListingStore) Update(ctx context.Context, listing *model.Listing) error {
	return updateByID(ctx, l.col, "listing", listing.ID, bson.M{"$set": bson.M{
		"title":          listing.Title,
		"description":    listing.Description,
		"industry":       listing.Industry,
		"companyAsk":     listing.CompanyAsk,
		"amountInvested": listing.AmountInvested,
		"earnings":       listing.Earnings,
		"revenue":        listing.Revenue,
		"imageUrl":       listing.ImageURLs,
		"pitchDeck":      listing.PitchDeck,
		"moreInfo":       listing.MoreInfo,
	}})
}

func (l *ListingStore) ListVerified(ctx context.Context, limit int) ([]model.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return findAll[model.Listing](ctx, l.col, bson.M{"verified": true}, opts)
}

func (l *ListingStore) ListWithInvestor(ctx context.Context, investorID string) ([]model.Listing, error) {
	return findAll[model.Listing](ctx, l.col, bson.M{"investors.investorId": investorID})
}

// missOrConflict tells a missing listing apart from a filter that failed
// on its array condition.
func (l *ListingStore) missOrConflict(ctx context.Context, listingID string, conflict error) error {
	n, err := l.col.CountDocuments(ctx, bson.M{"_id": listingID})
	if err != nil {
		return fmt.Errorf("mongodb: counting listing %s: %w", listingID, err)
	}
	if n == 0 {
		return apperror.NotFound("listing", listingID)
	}
	return conflict
}

func (l *ListingStore) AddInvestor(ctx context.Context, listingID string, req model.InvestorRequest) error {
	res, err := l.col.UpdateOne(ctx,
		bson.M{"_id": listingID, "investors.investorId": bson.M{"$ne": req.InvestorID}},
		bson.M{"$push": bson.M{"investors": req}},
	)
	if err != nil {
		return fmt.Errorf("mongodb: adding investor to %s: %w", listingID, err)
	}
	if res.MatchedCount == 0 {
		return l.missOrConflict(ctx, listingID,
			apperror.ConflictMessage("You have already requested to invest in this listing."))
	}
	return nil
}

func (l *ListingStore) SetInvestorApproved(ctx context.Context, listingID, investorID string) error {
	res, err := l.col.UpdateOne(ctx,
		bson.M{"_id": listingID, "investors": bson.M{"$elemMatch": bson.M{
			"investorId": investorID,
			"approved":   false,
		}}},
		bson.M{"$set": bson.M{"investors.$.approved": true}},
	)
	if err != nil {
		return fmt.Errorf("mongodb: approving investor %s on %s: %w", investorID, listingID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("pending investment request", investorID)
	}
	return nil
}

func (l *ListingStore) RemoveInvestor(ctx context.Context, listingID, investorID string) error {
	return updateByID(ctx, l.col, "listing", listingID,
		bson.M{"$pull": bson.M{"investors": bson.M{"investorId": investorID}}})
}

func (l *ListingStore) CompleteInvestment(ctx context.Context, listingID, investorID string, amount float64) error {
	res, err := l.col.UpdateOne(ctx,
		bson.M{"_id": listingID, "investors": bson.M{"$elemMatch": bson.M{
			"investorId":         investorID,
			"approved":           true,
			"investmentComplete": false,
		}}},
		bson.M{
			"$set": bson.M{"investors.$.investmentComplete": true},
			"$inc": bson.M{"amountInvested": amount, "noOfInvestors": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("mongodb: completing investment %s on %s: %w", investorID, listingID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("approved investment request", investorID)
	}
	return nil
}

func (l *ListingStore) ToggleInterest(ctx context.Context, listingID, userID string, interested bool) (bool, error) {
	clicked, other := "showedInterestUsers", "showedDisinterestUsers"
	if !interested {
		clicked, other = other, clicked
	}

	res, err := l.col.UpdateOne(ctx,
		bson.M{"_id": listingID, clicked: userID},
		bson.M{"$pull": bson.M{clicked: userID}},
	)
	if err != nil {
		return false, fmt.Errorf("mongodb: toggling interest on %s: %w", listingID, err)
	}
	if res.MatchedCount == 1 {
		return false, nil
	}

	err = updateByID(ctx, l.col, "listing", listingID, bson.M{
		"$addToSet": bson.M{clicked: userID},
		"$pull":     bson.M{other: userID},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (l *ListingStore) AddReview(ctx context.Context, listingID string, review model.Review) error {
	res, err := l.col.UpdateOne(ctx,
		bson.M{"_id": listingID, "reviews.reviewerId": bson.M{"$ne": review.ReviewerID}},
		bson.M{"$push": bson.M{"reviews": review}},
	)
	if err != nil {
		return fmt.Errorf("mongodb: adding review to %s: %w", listingID, err)
	}
	if res.MatchedCount == 0 {
		return l.missOrConflict(ctx, listingID,
			apperror.ConflictMessage("You have already reviewed this listing."))
	}
	return nil
}

func (l *ListingStore) UpdateSubscriptionExpiry(ctx context.Context, id string, expiry time.Time) error {
	return updateByID(ctx, l.col, "listing", id, bson.M{"$set": bson.M{"subscriptionExpiry": expiry}})
}

func (l *ListingStore) SetVerified(ctx context.Context, id string, verified bool) error {
	return updateByID(ctx, l.col, "listing", id, bson.M{"$set": bson.M{"verified": verified}})
}
