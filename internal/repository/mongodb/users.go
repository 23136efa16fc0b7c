package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/repository"
)

type UserStore struct {
	col *mongo.Collection
}

var _ repository.UserRepository = (*UserStore)(nil)

func (s *Store) Users() *UserStore {
	return &UserStore{col: s.db.Collection(colUsers)}
}

func (u *UserStore) Get(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, u.col, bson.M{"_id": id}, "user", id)
}

func (u *UserStore) Upsert(ctx context.Context, user *model.User) (*model.User, error) {
	set := bson.M{"email": user.Email}
	if user.Provider != "" {
		set["provider"] = user.Provider
	}
	if !user.LastLoginAt.IsZero() {
		set["lastLoginAt"] = user.LastLoginAt
	}
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"createdAt": createdAt, "welcomeEmailSent": false},
	}

	var out model.User
	err := u.col.FindOneAndUpdate(ctx, bson.M{"_id": user.ID}, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("mongodb: upserting user %s: %w", user.ID, err)
	}
	return &out, nil
}

func (u *UserStore) MarkWelcomeSent(ctx context.Context, id string) error {
	return updateByID(ctx, u.col, "user", id, bson.M{"$set": bson.M{"welcomeEmailSent": true}})
}
