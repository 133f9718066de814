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
// VehicleStore
// ============================================================================

func (s *Store) CreateVehicle(ctx context.Context, vehicle *model.Vehicle) error {
	return insertOne(ctx, s.col(ColVehicles), vehicle)
}

func (s *Store) GetVehicle(ctx context.Context, id string) (*model.Vehicle, error) {
	return findOne[model.Vehicle](ctx, s.col(ColVehicles), bson.D{{Key: "_id", Value: id}})
}

// ListVehicles 列出在架车辆（软删除的不返回）
func (s *Store) ListVehicles(ctx context.Context, filter storage.VehicleFilter) ([]*model.Vehicle, error) {
	query := bson.D{{Key: "active", Value: true}}
	if filter.Type != "" {
		query = append(query, bson.E{Key: "type", Value: filter.Type})
	}
	if filter.OnlyAvailable {
		query = append(query, bson.E{Key: "available", Value: true})
	}
	if filter.OwnerID != "" {
		query = append(query, bson.E{Key: "owner_id", Value: filter.OwnerID})
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Vehicle](ctx, s.col(ColVehicles), query, opts)
}

func (s *Store) UpdateVehicle(ctx context.Context, vehicle *model.Vehicle) error {
	return updateFields(ctx, s.col(ColVehicles), vehicle.ID, bson.D{
		{Key: "name", Value: vehicle.Name},
		{Key: "type", Value: vehicle.Type},
		{Key: "rate_per_hour", Value: vehicle.RatePerHour},
		{Key: "available", Value: vehicle.Available},
		{Key: "description", Value: vehicle.Description},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) SetVehicleAvailable(ctx context.Context, id string, available bool) error {
	return updateFields(ctx, s.col(ColVehicles), id, bson.D{
		{Key: "available", Value: available},
		{Key: "updated_at", Value: time.Now()},
	})
}

// DeactivateVehicle 下架车辆（软删除）
func (s *Store) DeactivateVehicle(ctx context.Context, id string) error {
	return updateFields(ctx, s.col(ColVehicles), id, bson.D{
		{Key: "active", Value: false},
		{Key: "available", Value: false},
		{Key: "updated_at", Value: time.Now()},
	})
}
