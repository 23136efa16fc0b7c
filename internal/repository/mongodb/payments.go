package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/venturehub/internal/apperror"
	"github.com/sakif/venturehub/internal/model"
	"github.com/sakif/venturehub/internal/repository"
)

type PaymentStore struct {
	col *mongo.Collection
}

var _ repository.PaymentRepository = (*PaymentStore)(nil)

func (s *Store) Payments() *PaymentStore {
	return &PaymentStore{col: s.db.Collection(colPayments)}
}

// Record relies on the _id unique index: the second insert of a reference
// fails with a duplicate key error.
func (p *PaymentStore) Record(ctx context.Context, rec *model.PaymentRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return insert(ctx, p.col, "payment", rec.Reference, rec)
}

func (p *PaymentStore) Get(ctx context.Context, reference string) (*model.PaymentRecord, error) {
	return findOne[model.PaymentRecord](ctx, p.col, bson.M{"_id": reference}, "payment", reference)
}

func (p *PaymentStore) MarkApplied(ctx context.Context, reference string) error {
	return updateByID(ctx, p.col, "payment", reference, bson.M{"$set": bson.M{"applied": true}})
}

type SubscriptionStore struct {
	col *mongo.Collection
}

var _ repository.SubscriptionRepository = (*SubscriptionStore)(nil)

func (s *Store) Subscriptions() *SubscriptionStore {
	return &SubscriptionStore{col: s.db.Collection(colSubscriptions)}
}

func (s *SubscriptionStore) Get(ctx context.Context, userID string) (*model.Subscription, error) {
	return findOne[model.Subscription](ctx, s.col, bson.M{"_id": userID}, "subscription", userID)
}

func (s *SubscriptionStore) SetExpiry(ctx context.Context, userID, plan string, expiry time.Time) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{
		"userId":     userID,
		"plan":       plan,
		"expiryDate": expiry,
		"updatedAt":  time.Now().UTC(),
	}}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongodb: setting subscription for %s: %w", userID, err)
	}
	return nil
}

type JobStore struct {
	col *mongo.Collection
}

var _ repository.JobRepository = (*JobStore)(nil)

func (s *Store) Jobs() *JobStore {
	return &JobStore{col: s.db.Collection(colCareers)}
}

func (j *JobStore) Create(ctx context.Context, job *model.Job) error {
	if job.ID == "" {
		job.ID = xid.New().String()
	}
	if job.DatePosted.IsZero() {
		job.DatePosted = time.Now().UTC()
	}
	return insert(ctx, j.col, "job", job.ID, job)
}

func (j *JobStore) Get(ctx context.Context, id string) (*model.Job, error) {
	return findOne[model.Job](ctx, j.col, bson.M{"_id": id}, "job", id)
}

func (j *JobStore) List(ctx context.Context, opts repository.ListOptions) ([]model.Job, error) {
	find := options.Find().SetSort(bson.D{{Key: "datePosted", Value: -1}})
	if opts.Limit > 0 {
		find.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		find.SetSkip(int64(opts.Offset))
	}
	return findAll[model.Job](ctx, j.col, bson.M{}, find)
}

func (j *JobStore) Update(ctx context.Context, job *model.Job) error {
	res, err := j.col.ReplaceOne(ctx, bson.M{"_id": job.ID}, job)
	if err != nil {
		return fmt.Errorf("mongodb: updating job %s: %w", job.ID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("job", job.ID)
	}
	return nil
}

func (j *JobStore) Delete(ctx context.Context, id string) error {
	res, err := j.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongodb: deleting job %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("job", id)
	}
	return nil
}
