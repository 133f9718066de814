package mongostore

import (
	"context"
	"time"

	"hirewheels/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// LocationStore
// ============================================================================

// UpsertLocation 写入实体最新定位（每实体一个文档，_id 即 entity_id）
func (s *Store) UpsertLocation(ctx context.Context, loc *model.Location) error {
	opts := options.UpdateOne().SetUpsert(true)
	_, err := s.col(ColLocations).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: loc.EntityID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "entity_kind", Value: loc.EntityKind},
			{Key: "latitude", Value: loc.Latitude},
			{Key: "longitude", Value: loc.Longitude},
			{Key: "recorded_at", Value: loc.RecordedAt},
			{Key: "updated_at", Value: time.Now()},
		}}},
		opts)
	return wrapError(err)
}

func (s *Store) GetLocation(ctx context.Context, entityID string) (*model.Location, error) {
	return findOne[model.Location](ctx, s.col(ColLocations), bson.D{{Key: "_id", Value: entityID}})
}

// ============================================================================
// InteractionStore
// ============================================================================

func (s *Store) CreateInteraction(ctx context.Context, in *model.Interaction) error {
	return insertOne(ctx, s.col(ColInteractions), in)
}

func (s *Store) ListVehicleInteractions(ctx context.Context, vehicleID string) ([]*model.Interaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Interaction](ctx, s.col(ColInteractions), bson.D{{Key: "vehicle_id", Value: vehicleID}}, opts)
}
