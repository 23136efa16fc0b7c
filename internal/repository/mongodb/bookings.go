package mongodb

import (
	"context"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/repository"
)

func decision(approve bool) string {
	if approve {
		return model.DecisionApproved
	}
	return model.DecisionRejected
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

type SpaceStore struct {
	spaces   *mongo.Collection
	bookings *mongo.Collection
}

var _ repository.SpaceRepository = (*SpaceStore)(nil)

func (s *Store) Spaces() *SpaceStore {
	return &SpaceStore{
		spaces:   s.db.Collection(colSpaces),
		bookings: s.db.Collection(colSpaceBookings),
	}
}

func (s *SpaceStore) GetSpace(ctx context.Context, id string) (*model.CollaborativeSpace, error) {
	return findOne[model.CollaborativeSpace](ctx, s.spaces, bson.M{"_id": id}, "collaborative space", id)
}

func (s *SpaceStore) ListSpaces(ctx context.Context) ([]model.CollaborativeSpace, error) {
	return findAll[model.CollaborativeSpace](ctx, s.spaces, bson.M{}, options.Find().SetSort(bson.D{{Key: "title", Value: 1}}))
}

func (s *SpaceStore) CreateBooking(ctx context.Context, b *model.SpaceBooking) error {
	if b.ID == "" {
		b.ID = xid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	return insert(ctx, s.bookings, "space booking", b.ID, b)
}

func (s *SpaceStore) GetBooking(ctx context.Context, id string) (*model.SpaceBooking, error) {
	return findOne[model.SpaceBooking](ctx, s.bookings, bson.M{"_id": id}, "space booking", id)
}

func (s *SpaceStore) BookingsByUser(ctx context.Context, userID string) ([]model.SpaceBooking, error) {
	return findAll[model.SpaceBooking](ctx, s.bookings, bson.M{"userId": userID}, newestFirst)
}

func (s *SpaceStore) DecideBooking(ctx context.Context, id string, approve bool) error {
	return updateByID(ctx, s.bookings, "space booking", id, bson.M{"$set": bson.M{
		"managerApproval": approve,
		"decision":        decision(approve),
	}})
}

func (s *SpaceStore) CompleteBooking(ctx context.Context, id string) error {
	return updateByID(ctx, s.bookings, "space booking", id, bson.M{"$set": bson.M{"complete": true}})
}

type AdvisoryStore struct {
	services *mongo.Collection
	bookings *mongo.Collection
}

var _ repository.AdvisoryRepository = (*AdvisoryStore)(nil)

func (s *Store) Advisory() *AdvisoryStore {
	return &AdvisoryStore{
		services: s.db.Collection(colServices),
		bookings: s.db.Collection(colServiceBooks),
	}
}

func (a *AdvisoryStore) GetService(ctx context.Context, id string) (*model.AdvisoryService, error) {
	return findOne[model.AdvisoryService](ctx, a.services, bson.M{"_id": id}, "advisory service", id)
}

func (a *AdvisoryStore) ListServices(ctx context.Context) ([]model.AdvisoryService, error) {
	return findAll[model.AdvisoryService](ctx, a.services, bson.M{}, options.Find().SetSort(bson.D{{Key: "title", Value: 1}}))
}

func (a *AdvisoryStore) CreateBooking(ctx context.Context, b *model.ServiceBooking) error {
	if b.ID == "" {
		b.ID = xid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	return insert(ctx, a.bookings, "service booking", b.ID, b)
}

func (a *AdvisoryStore) GetBooking(ctx context.Context, id string) (*model.ServiceBooking, error) {
	return findOne[model.ServiceBooking](ctx, a.bookings, bson.M{"_id": id}, "service booking", id)
}

func (a *AdvisoryStore) BookingsByUser(ctx context.Context, userID, serviceType string) ([]model.ServiceBooking, error) {
	filter := bson.M{"userId": userID}
	if serviceType != "" {
		filter["serviceType"] = serviceType
	}
	return findAll[model.ServiceBooking](ctx, a.bookings, filter, newestFirst)
}

func (a *AdvisoryStore) DecideBooking(ctx context.Context, id string, approve bool) error {
	return updateByID(ctx, a.bookings, "service booking", id, bson.M{"$set": bson.M{
		"serviceProviderApproval": approve,
		"decision":                decision(approve),
	}})
}

func (a *AdvisoryStore) CompleteBooking(ctx context.Context, id string) error {
	return updateByID(ctx, a.bookings, "service booking", id, bson.M{"$set": bson.M{
		"paymentComplete": true,
		"complete":        true,
	}})
}
