package mongostore

import (
	"context"
	"time"

	"hirewheels/internal/shared/model"
	"hirewheels/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// HireStore
// ============================================================================

func (s *Store) CreateHire(ctx context.Context, hire *model.Hire) error {
	return insertOne(ctx, s.col(ColHires), hire)
}

func (s *Store) GetHire(ctx context.Context, id string) (*model.Hire, error) {
	return findOne[model.Hire](ctx, s.col(ColHires), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListHires(ctx context.Context, filter storage.HireFilter) ([]*model.Hire, error) {
	query := bson.D{}
	if filter.UserID != "" {
		query = append(query, bson.E{Key: "user_id", Value: filter.UserID})
	}
	if filter.VehicleID != "" {
		query = append(query, bson.E{Key: "vehicle_id", Value: filter.VehicleID})
	}
	if filter.Status != "" {
		query = append(query, bson.E{Key: "status", Value: filter.Status})
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Hire](ctx, s.col(ColHires), query, opts)
}

func (s *Store) UpdateHireStatus(ctx context.Context, id string, status model.HireStatus) error {
	return updateFields(ctx, s.col(ColHires), id, bson.D{
		{Key: "status", Value: status},
		{Key: "updated_at", Value: time.Now()},
	})
}

// ============================================================================
// PaymentStore
// ============================================================================

func (s *Store) CreatePayment(ctx context.Context, payment *model.Payment) error {
	return insertOne(ctx, s.col(ColPayments), payment)
}

func (s *Store) GetPayment(ctx context.Context, id string) (*model.Payment, error) {
	return findOne[model.Payment](ctx, s.col(ColPayments), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListPayments(ctx context.Context, filter storage.PaymentFilter) ([]*model.Payment, error) {
	query := bson.D{}
	if filter.UserID != "" {
		query = append(query, bson.E{Key: "user_id", Value: filter.UserID})
	}
	if filter.HireID != "" {
		query = append(query, bson.E{Key: "hire_id", Value: filter.HireID})
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Payment](ctx, s.col(ColPayments), query, opts)
}

func (s *Store) UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus) error {
	return updateFields(ctx, s.col(ColPayments), id, bson.D{
		{Key: "status", Value: status},
		{Key: "updated_at", Value: time.Now()},
	})
}
