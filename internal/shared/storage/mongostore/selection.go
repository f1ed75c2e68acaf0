package mongostore

import (
	"context"

	"course-market/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// SelectionStore
// ============================================================================

func (s *Store) CreateSelection(ctx context.Context, sel *model.Selection) error {
	// (student_email, class_id) 唯一索引兜底，重复插入返回 ErrDuplicate
	return insertOne(ctx, s.col(ColSelections), sel)
}

func (s *Store) GetSelection(ctx context.Context, id string) (*model.Selection, error) {
	return findOne[model.Selection](ctx, s.col(ColSelections), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) FindSelection(ctx context.Context, studentEmail, classID string) (*model.Selection, error) {
	return findOne[model.Selection](ctx, s.col(ColSelections), bson.D{
		{Key: "student_email", Value: studentEmail},
		{Key: "class_id", Value: classID},
	})
}

func (s *Store) ListSelectionsByStudent(ctx context.Context, email string) ([]*model.Selection, error) {
	opts := options.Find().SetSort(bson.D{{Key: "selected_at", Value: -1}})
	return findMany[model.Selection](ctx, s.col(ColSelections), bson.D{{Key: "student_email", Value: email}}, opts)
}

func (s *Store) DeleteSelection(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColSelections), id)
}
