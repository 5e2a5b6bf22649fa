package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hrportal/attendance-service/internal/domain"
	"github.com/hrportal/attendance-service/internal/persistence"
)

type userDocument struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty"`
	FirstName        string              `bson:"firstName"`
	LastName         string              `bson:"lastName"`
	Email            string              `bson:"email"`
	Password         string              `bson:"password"`
	Role             string              `bson:"role"`
	EmployeeID       string              `bson:"employeeId,omitempty"`
	DOB              time.Time           `bson:"dob"`
	ManagerID        *primitive.ObjectID `bson:"managerId"`
	CreatedBy        *primitive.ObjectID `bson:"createdBy,omitempty"`
	Address          string              `bson:"address,omitempty"`
	Mobile           string              `bson:"mobile,omitempty"`
	EmergencyContact string              `bson:"emergencyContact,omitempty"`
	Resume           string              `bson:"resume"`
	PhotoID          string              `bson:"photoId"`
	IsDeleted        bool                `bson:"isDeleted"`
	CreatedAt        time.Time           `bson:"createdAt"`
	UpdatedAt        time.Time           `bson:"updatedAt"`
}

func (d *userDocument) toDomain() domain.User {
	return domain.User{
		ID:               d.ID.Hex(),
		FirstName:        d.FirstName,
		LastName:         d.LastName,
		Email:            d.Email,
		PasswordHash:     d.Password,
		Role:             domain.Role(d.Role),
		EmployeeID:       d.EmployeeID,
		DOB:              d.DOB,
		ManagerID:        hexPtr(d.ManagerID),
		CreatedBy:        hexPtr(d.CreatedBy),
		Address:          d.Address,
		Mobile:           d.Mobile,
		EmergencyContact: d.EmergencyContact,
		ResumeURL:        d.Resume,
		PhotoURL:         d.PhotoID,
		IsDeleted:        d.IsDeleted,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

type mongoUserRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoUserRepository returns a document-store implementation.
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{coll: db.Collection(persistence.CollectionUsers), now: time.Now}
}

func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) error {
	managerID, err := objectIDPtr(user.ManagerID)
	if err != nil {
		return err
	}
	createdBy, err := objectIDPtr(user.CreatedBy)
	if err != nil {
		return err
	}
	now := r.now().UTC()
	doc := userDocument{
		ID:               primitive.NewObjectID(),
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		Email:            user.Email,
		Password:         user.PasswordHash,
		Role:             string(user.Role),
		EmployeeID:       user.EmployeeID,
		DOB:              user.DOB,
		ManagerID:        managerID,
		CreatedBy:        createdBy,
		Address:          user.Address,
		Mobile:           user.Mobile,
		EmergencyContact: user.EmergencyContact,
		Resume:           user.ResumeURL,
		PhotoID:          user.PhotoURL,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return translateMongoError(err)
	}
	user.ID = doc.ID.Hex()
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *mongoUserRepository) Update(ctx context.Context, user *domain.User) error {
	id, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return ErrNotFound
	}
	managerID, err := objectIDPtr(user.ManagerID)
	if err != nil {
		return err
	}
	now := r.now().UTC()
	update := bson.M{"$set": bson.M{
		"firstName":        user.FirstName,
		"lastName":         user.LastName,
		"email":            user.Email,
		"password":         user.PasswordHash,
		"role":             string(user.Role),
		"dob":              user.DOB,
		"managerId":        managerID,
		"address":          user.Address,
		"mobile":           user.Mobile,
		"emergencyContact": user.EmergencyContact,
		"resume":           user.ResumeURL,
		"photoId":          user.PhotoURL,
		"isDeleted":        user.IsDeleted,
		"updatedAt":        now,
	}}
	res, err := r.coll.UpdateByID(ctx, id, update)
	if err != nil {
		return translateMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	user.UpdatedAt = now
	return nil
}

func (r *mongoUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	pattern := "^" + regexp.QuoteMeta(strings.TrimSpace(email)) + "$"
	return r.findOne(ctx, bson.M{"email": primitive.Regex{Pattern: pattern, Options: "i"}})
}

func (r *mongoUserRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"employeeId": employeeID})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translateMongoError(err)
	}
	user := doc.toDomain()
	return &user, nil
}

func (r *mongoUserRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}

	cur, err := r.coll.Find(ctx, mongoUserFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	result := make([]domain.User, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].toDomain())
	}
	return result, nil
}

func (r *mongoUserRepository) Count(ctx context.Context, filter UserFilter) (int64, error) {
	return r.coll.CountDocuments(ctx, mongoUserFilter(filter))
}

func (r *mongoUserRepository) CountByRole(ctx context.Context) (map[domain.Role]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"isDeleted": bson.M{"$ne": true}}}},
		{{Key: "$group", Value: bson.M{"_id": "$role", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Role  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	result := make(map[domain.Role]int64, len(rows))
	for _, row := range rows {
		result[domain.Role(row.Role)] = row.Count
	}
	return result, nil
}

func (r *mongoUserRepository) MonthlySignups(ctx context.Context, year int) (map[int]int64, error) {
	from, to := yearBounds(year)
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"createdAt": bson.M{"$gte": from, "$lt": to},
			"isDeleted": bson.M{"$ne": true},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$month": "$createdAt"},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Month int   `bson:"_id"`
		Count int64 `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	result := make(map[int]int64, len(rows))
	for _, row := range rows {
		result[row.Month] = row.Count
	}
	return result, nil
}

func mongoUserFilter(filter UserFilter) bson.M {
	query := bson.M{}
	if !filter.IncludeDeleted {
		query["isDeleted"] = bson.M{"$ne": true}
	}
	roleCond := bson.M{}
	if len(filter.Roles) > 0 {
		roleCond["$in"] = rolesToStrings(filter.Roles)
	}
	if len(filter.ExcludeRoles) > 0 {
		roleCond["$nin"] = rolesToStrings(filter.ExcludeRoles)
	}
	if len(roleCond) > 0 {
		query["role"] = roleCond
	}
	if len(filter.EmployeeIDs) > 0 {
		query["employeeId"] = bson.M{"$in": filter.EmployeeIDs}
	}
	if filter.ExcludeID != "" {
		if oid, err := primitive.ObjectIDFromHex(filter.ExcludeID); err == nil {
			query["_id"] = bson.M{"$ne": oid}
		}
	}
	if name := strings.TrimSpace(filter.NameContains); name != "" {
		query["firstName"] = primitive.Regex{Pattern: regexp.QuoteMeta(name), Options: "i"}
	}
	return query
}

func translateMongoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func objectIDPtr(id *string) (*primitive.ObjectID, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	oid, err := primitive.ObjectIDFromHex(*id)
	if err != nil {
		return nil, fmt.Errorf("invalid object id %q: %w", *id, err)
	}
	return &oid, nil
}

func hexPtr(id *primitive.ObjectID) *string {
	if id == nil || id.IsZero() {
		return nil
	}
	hex := id.Hex()
	return &hex
}
