package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hrportal/attendance-service/internal/domain"
	"github.com/hrportal/attendance-service/internal/persistence"
)

type attendanceDocument struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty"`
	UserID         primitive.ObjectID  `bson:"userId"`
	Date           time.Time           `bson:"date"`
	StartTime      *string             `bson:"startTime"`
	EndTime        *string             `bson:"endTime"`
	AttendanceType string              `bson:"attendanceType"`
	Late           bool                `bson:"late"`
	Status         string              `bson:"status"`
	ApprovedBy     *primitive.ObjectID `bson:"approvedBy,omitempty"`
	CreatedAt      time.Time           `bson:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt"`
}

func (d *attendanceDocument) toDomain() domain.AttendanceRecord {
	return domain.AttendanceRecord{
		ID:             d.ID.Hex(),
		UserID:         d.UserID.Hex(),
		Date:           domain.NormalizeDate(d.Date),
		StartTime:      d.StartTime,
		EndTime:        d.EndTime,
		AttendanceType: domain.AttendanceType(d.AttendanceType),
		Late:           d.Late,
		Status:         domain.AttendanceStatus(d.Status),
		ApprovedBy:     hexPtr(d.ApprovedBy),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type mongoAttendanceRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoAttendanceRepository returns a document-store implementation.
func NewMongoAttendanceRepository(db *mongo.Database) AttendanceRepository {
	return &mongoAttendanceRepository{coll: db.Collection(persistence.CollectionAttendance), now: time.Now}
}

// Upsert relies on the unique (userId, date) index. Two concurrent upserts of
// a missing key can both attempt the insert; the loser gets a duplicate key
// error and is retried once as a plain update.
func (r *mongoAttendanceRepository) Upsert(ctx context.Context, record *domain.AttendanceRecord) error {
	userID, err := primitive.ObjectIDFromHex(record.UserID)
	if err != nil {
		return ErrNotFound
	}
	now := r.now().UTC()
	filter := bson.M{"userId": userID, "date": record.Date}
	update := bson.M{
		"$set": bson.M{
			"startTime":      record.StartTime,
			"endTime":        record.EndTime,
			"attendanceType": string(record.AttendanceType),
			"late":           record.Late,
			"status":         string(domain.AttendanceStatusPending),
			"updatedAt":      now,
		},
		"$unset":       bson.M{"approvedBy": ""},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc attendanceDocument
	err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if mongo.IsDuplicateKeyError(err) {
		err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	}
	if err != nil {
		return translateMongoError(err)
	}
	*record = doc.toDomain()
	return nil
}

func (r *mongoAttendanceRepository) GetByID(ctx context.Context, id string) (*domain.AttendanceRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc attendanceDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translateMongoError(err)
	}
	record := doc.toDomain()
	return &record, nil
}

func (r *mongoAttendanceRepository) UpdateStatus(ctx context.Context, id string, status domain.AttendanceStatus, approvedBy string, readAt time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	approver, err := primitive.ObjectIDFromHex(approvedBy)
	if err != nil {
		return errors.New("invalid approver id")
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid, "updatedAt": readAt.UTC()}, bson.M{"$set": bson.M{
		"status":     string(status),
		"approvedBy": approver,
		"updatedAt":  r.now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrStale
	}
	return ErrNotFound
}

func (r *mongoAttendanceRepository) List(ctx context.Context, filter AttendanceFilter) ([]domain.AttendanceRecord, error) {
	sort := bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}}
	switch filter.Order {
	case OrderOldestDate:
		sort = bson.D{{Key: "date", Value: 1}}
	case OrderRecentlySubmitted:
		sort = bson.D{{Key: "createdAt", Value: -1}}
	}
	cur, err := r.coll.Find(ctx, mongoAttendanceFilter(filter), options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	var docs []attendanceDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	result := make([]domain.AttendanceRecord, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].toDomain())
	}
	return result, nil
}

func (r *mongoAttendanceRepository) Count(ctx context.Context, filter AttendanceFilter) (int64, error) {
	return r.coll.CountDocuments(ctx, mongoAttendanceFilter(filter))
}

func (r *mongoAttendanceRepository) MonthlyStatusCounts(ctx context.Context, year int) (map[int]map[domain.AttendanceStatus]int64, error) {
	from, to := yearBounds(year)
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"date": bson.M{"$gte": from, "$lt": to}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"month": bson.M{"$month": "$date"}, "status": "$status"},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Key struct {
			Month  int    `bson:"month"`
			Status string `bson:"status"`
		} `bson:"_id"`
		Count int64 `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	result := map[int]map[domain.AttendanceStatus]int64{}
	for _, row := range rows {
		if result[row.Key.Month] == nil {
			result[row.Key.Month] = map[domain.AttendanceStatus]int64{}
		}
		result[row.Key.Month][domain.AttendanceStatus(row.Key.Status)] = row.Count
	}
	return result, nil
}

func mongoAttendanceFilter(filter AttendanceFilter) bson.M {
	query := bson.M{}
	if len(filter.UserIDs) > 0 {
		ids := make([]primitive.ObjectID, 0, len(filter.UserIDs))
		for _, id := range filter.UserIDs {
			if oid, err := primitive.ObjectIDFromHex(id); err == nil {
				ids = append(ids, oid)
			}
		}
		query["userId"] = bson.M{"$in": ids}
	}
	if filter.Status != nil {
		query["status"] = string(*filter.Status)
	}
	dateCond := bson.M{}
	if filter.DateFrom != nil {
		dateCond["$gte"] = *filter.DateFrom
	}
	if filter.DateTo != nil {
		dateCond["$lt"] = *filter.DateTo
	}
	switch {
	case filter.Date != nil:
		query["date"] = *filter.Date
	case len(dateCond) > 0:
		query["date"] = dateCond
	}
	if len(filter.Types) > 0 {
		types := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			types = append(types, string(t))
		}
		query["attendanceType"] = bson.M{"$in": types}
	}
	return query
}
