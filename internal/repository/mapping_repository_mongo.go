package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hrportal/attendance-service/internal/domain"
	"github.com/hrportal/attendance-service/internal/persistence"
)

type mappingDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	EmployeeEmpID string             `bson:"employeeEmpId"`
	ManagerEmpID  string             `bson:"managerEmpId"`
	Role          string             `bson:"role"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (d *mappingDocument) toDomain() domain.ManagerMapping {
	return domain.ManagerMapping{
		ID:            d.ID.Hex(),
		EmployeeEmpID: d.EmployeeEmpID,
		ManagerEmpID:  d.ManagerEmpID,
		Role:          domain.Role(d.Role),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type mongoMappingRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoManagerMappingRepository returns a document-store implementation.
func NewMongoManagerMappingRepository(db *mongo.Database) ManagerMappingRepository {
	return &mongoMappingRepository{coll: db.Collection(persistence.CollectionManagerMappings), now: time.Now}
}

func (r *mongoMappingRepository) Upsert(ctx context.Context, mapping *domain.ManagerMapping) error {
	now := r.now().UTC()
	update := bson.M{
		"$set": bson.M{
			"managerEmpId": mapping.ManagerEmpID,
			"role":         string(mapping.Role),
			"updatedAt":    now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc mappingDocument
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"employeeEmpId": mapping.EmployeeEmpID}, update, opts).Decode(&doc)
	if err != nil {
		return translateMongoError(err)
	}
	*mapping = doc.toDomain()
	return nil
}

func (r *mongoMappingRepository) GetByEmployee(ctx context.Context, employeeEmpID string) (*domain.ManagerMapping, error) {
	var doc mappingDocument
	if err := r.coll.FindOne(ctx, bson.M{"employeeEmpId": employeeEmpID}).Decode(&doc); err != nil {
		return nil, translateMongoError(err)
	}
	mapping := doc.toDomain()
	return &mapping, nil
}

func (r *mongoMappingRepository) ListByManager(ctx context.Context, managerEmpID string) ([]domain.ManagerMapping, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"managerEmpId": managerEmpID}, opts)
	if err != nil {
		return nil, err
	}
	var docs []mappingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	result := make([]domain.ManagerMapping, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].toDomain())
	}
	return result, nil
}
