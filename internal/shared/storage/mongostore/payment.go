package mongostore

import (
	"context"
	"log"
	"strings"

	"course-market/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// PaymentStore
// ============================================================================

// CompletePayment 写入付款记录并删除对应选课
//
// 两个写操作在同一个多文档事务中执行，避免「付款已记录、选课仍存在」
// 的裂脑窗口。单机部署（非副本集）不支持事务，此时降级为顺序写入并
// 记录一致性窗口告警。
func (s *Store) CompletePayment(ctx context.Context, payment *model.Payment, selectionID string) error {
	session, err := s.client.StartSession()
	if err != nil {
		return wrapError(err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (interface{}, error) {
		if err := insertOne(ctx, s.col(ColPayments), payment); err != nil {
			return nil, err
		}
		// 选课可能已被显式移除，删除 0 条不算失败
		if _, err := s.col(ColSelections).DeleteOne(ctx, bson.D{{Key: "_id", Value: selectionID}}); err != nil {
			return nil, wrapError(err)
		}
		return nil, nil
	})
	if err == nil {
		return nil
	}
	if !isTxnUnsupported(err) {
		return wrapError(err)
	}

	// 事务不可用：顺序写入，两次写之间存在一致性窗口
	log.Printf("WARNING: mongostore: transactions unavailable, falling back to sequential writes (payment=%s selection=%s)", payment.ID, selectionID)
	if err := insertOne(ctx, s.col(ColPayments), payment); err != nil {
		return err
	}
	if _, err := s.col(ColSelections).DeleteOne(ctx, bson.D{{Key: "_id", Value: selectionID}}); err != nil {
		return wrapError(err)
	}
	return nil
}

func (s *Store) ListPaymentsByStudent(ctx context.Context, email string) ([]*model.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	return findMany[model.Payment](ctx, s.col(ColPayments), bson.D{{Key: "student_email", Value: email}}, opts)
}

// isTxnUnsupported 判断错误是否因部署不支持多文档事务
func isTxnUnsupported(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Transaction numbers are only allowed") ||
		strings.Contains(msg, "transactions are not supported")
}
