package mongostore

import (
	"context"
	"time"

	"course-market/internal/shared/model"
	"course-market/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// ClassStore
// ============================================================================

func (s *Store) CreateClass(ctx context.Context, class *model.Class) error {
	return insertOne(ctx, s.col(ColClasses), class)
}

func (s *Store) GetClass(ctx context.Context, id string) (*model.Class, error) {
	return findOne[model.Class](ctx, s.col(ColClasses), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListClasses(ctx context.Context, filter storage.ClassFilter) ([]*model.Class, error) {
	query := bson.D{}
	if filter.Status != "" {
		query = append(query, bson.E{Key: "status", Value: filter.Status})
	}
	if filter.InstructorEmail != "" {
		query = append(query, bson.E{Key: "instructor_email", Value: filter.InstructorEmail})
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Class](ctx, s.col(ColClasses), query, opts)
}

func (s *Store) TopClasses(ctx context.Context, limit int) ([]*model.Class, error) {
	opts := options.Find().SetSort(bson.D{{Key: "enrolled_students", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	return findMany[model.Class](ctx, s.col(ColClasses), bson.D{}, opts)
}

func (s *Store) UpdateClassStatus(ctx context.Context, id string, status model.ClassStatus, feedback string) error {
	update := bson.D{
		{Key: "status", Value: status},
		{Key: "updated_at", Value: time.Now()},
	}
	if feedback != "" {
		update = append(update, bson.E{Key: "feedback", Value: feedback})
	}
	return updateFields(ctx, s.col(ColClasses), id, update)
}

// ReduceSeats 带守卫条件的原子座位递减
//
// 过滤条件同时匹配 _id 和 available_seats > 0，递减和递增在同一次
// UpdateOne 中完成，并发请求不可能把余位打成负数。
// MatchedCount == 0 时回查文档区分「课程不存在」和「已售罄」。
func (s *Store) ReduceSeats(ctx context.Context, id string) error {
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "available_seats", Value: bson.D{{Key: "$gt", Value: 0}}},
	}
	update := bson.D{
		{Key: "$inc", Value: bson.D{
			{Key: "available_seats", Value: -1},
			{Key: "enrolled_students", Value: 1},
		}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now()}}},
	}

	res, err := s.col(ColClasses).UpdateOne(ctx, filter, update)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		existing, err := s.GetClass(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return storage.ErrNotFound
		}
		return storage.ErrSoldOut
	}
	return nil
}
