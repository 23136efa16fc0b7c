// Package mongodb implements the repository interfaces on MongoDB. Each
// collection keeps the name and field layout of the existing data.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sakif/venturehub/internal/apperror"
)

// Collection names.
const (
	colUsers         = "Users"
	colInvestors     = "InvestorApplication"
	colInvestees     = "InvesteeApplication"
	colKYC           = "KYC"
	colProfiles      = "Profile"
	colListings      = "Marketplace"
	colSpaces        = "CollaborativeSpace"
	colSpaceBookings = "CollaborativeSpacePayments"
	colServices      = "AdvisoryServices"
	colServiceBooks  = "ServicePayments"
	colPayments      = "PaystackPayments"
	colSubscriptions = "Subscriptions"
	colCareers       = "Careers"
)

// Store owns the client and hands out one repository per collection group.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, pings the primary and makes sure indexes exist.
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("mongodb: connecting: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb: pinging: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping reports whether the primary is reachable. Used by /healthz.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colListings: {
			{Keys: bson.D{{Key: "verified", Value: 1}}},
			{Keys: bson.D{{Key: "investors.investorId", Value: 1}}},
		},
		colSpaceBookings: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
		colServiceBooks: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "serviceType", Value: 1}}},
		},
		colCareers: {
			{Keys: bson.D{{Key: "datePosted", Value: -1}}},
		},
	}
	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongodb: creating indexes on %s: %w", name, err)
		}
	}
	return nil
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter any, resource, id string) (*T, error) {
	var out T
	err := col.FindOne(ctx, filter).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.NotFound(resource, id)
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: finding %s %s: %w", resource, id, err)
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, col *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cur, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("mongodb: querying %s: %w", col.Name(), err)
	}
	defer cur.Close(ctx)

	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongodb: decoding %s: %w", col.Name(), err)
	}
	return out, nil
}

// replaceByID writes doc as the whole document with the given id,
// creating it when missing.
func replaceByID(ctx context.Context, col *mongo.Collection, id string, doc any) error {
	_, err := col.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongodb: saving %s %s: %w", col.Name(), id, err)
	}
	return nil
}

// updateByID applies update to an existing document.
func updateByID(ctx context.Context, col *mongo.Collection, resource, id string, update any) error {
	res, err := col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("mongodb: updating %s %s: %w", resource, id, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}

func insert(ctx context.Context, col *mongo.Collection, resource, id string, doc any) error {
	if _, err := col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.Conflict(resource, id)
		}
		return fmt.Errorf("mongodb: inserting %s %s: %w", resource, id, err)
	}
	return nil
}
