package mongostore

import (
	"context"

	"course-market/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// EnrollmentStore
// ============================================================================

func (s *Store) CreateEnrollment(ctx context.Context, enr *model.Enrollment) error {
	// (student_email, class_name) 唯一索引兜底
	return insertOne(ctx, s.col(ColEnrollments), enr)
}

func (s *Store) FindEnrollment(ctx context.Context, studentEmail, className string) (*model.Enrollment, error) {
	return findOne[model.Enrollment](ctx, s.col(ColEnrollments), bson.D{
		{Key: "student_email", Value: studentEmail},
		{Key: "class_name", Value: className},
	})
}

func (s *Store) ListEnrollmentsByStudent(ctx context.Context, email string) ([]*model.Enrollment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "enrolled_at", Value: -1}})
	return findMany[model.Enrollment](ctx, s.col(ColEnrollments), bson.D{{Key: "student_email", Value: email}}, opts)
}
