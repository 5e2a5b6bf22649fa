package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hrportal/attendance-service/internal/persistence"
)

type mongoCounterRepository struct {
	coll *mongo.Collection
}

// NewMongoCounterRepository returns a document-store implementation.
func NewMongoCounterRepository(db *mongo.Database) CounterRepository {
	return &mongoCounterRepository{coll: db.Collection(persistence.CollectionCounters)}
}

// Next uses a pipeline update so a missing counter is seeded with start
// and incremented in the same atomic write.
func (r *mongoCounterRepository) Next(ctx context.Context, name string, start int64) (int64, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"seq": bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$seq", start}}, 1}},
		}}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc struct {
		Seq int64 `bson:"seq"`
	}
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": name}, update, opts).Decode(&doc); err != nil {
		return 0, translateMongoError(err)
	}
	return doc.Seq, nil
}

// NewMongoStore wires every document-store repository over one database.
func NewMongoStore(db *mongo.Database) Store {
	return Store{
		Users:      NewMongoUserRepository(db),
		Attendance: NewMongoAttendanceRepository(db),
		Mappings:   NewMongoManagerMappingRepository(db),
		Counters:   NewMongoCounterRepository(db),
	}
}
