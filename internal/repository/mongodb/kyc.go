package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/repository"
)

type KYCStore struct {
	col *mongo.Collection
}

var _ repository.KYCRepository = (*KYCStore)(nil)

func (s *Store) KYC() *KYCStore {
	return &KYCStore{col: s.db.Collection(colKYC)}
}

func (k *KYCStore) Get(ctx context.Context, userID string) (*model.KYC, error) {
	return findOne[model.KYC](ctx, k.col, bson.M{"_id": userID}, "kyc", userID)
}

func (k *KYCStore) Save(ctx context.Context, kyc *model.KYC) error {
	kyc.ID = kyc.UserID
	return replaceByID(ctx, k.col, kyc.ID, kyc)
}

func (k *KYCStore) SetApproved(ctx context.Context, userID string, approved bool) error {
	return updateByID(ctx, k.col, "kyc", userID, bson.M{"$set": bson.M{"approved": approved}})
}

type ProfileStore struct {
	col *mongo.Collection
}

var _ repository.ProfileRepository = (*ProfileStore)(nil)

func (s *Store) Profiles() *ProfileStore {
	return &ProfileStore{col: s.db.Collection(colProfiles)}
}

func (p *ProfileStore) Get(ctx context.Context, userID string) (*model.Profile, error) {
	return findOne[model.Profile](ctx, p.col, bson.M{"_id": userID}, "profile", userID)
}

func (p *ProfileStore) Save(ctx context.Context, profile *model.Profile) error {
	profile.ID = profile.UserID
	return replaceByID(ctx, p.col, profile.ID, profile)
}
