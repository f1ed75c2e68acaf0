// Package mongostore 实现基于 MongoDB 的 PersistentStore
//
// 使用 mongo-go-driver v2，通过 bson tag 实现 model 结构体的序列化/反序列化。
// 所有 Collection 名称和索引在 ensureIndexes 中统一管理。
//
// 重复防护不依赖应用层检查：选课、报名、用户的自然键都有唯一复合索引，
// 并发下冲突由索引兜底并转换为 storage.ErrDuplicate。
package mongostore

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection 名称常量
const (
	ColUsers       = "users"
	ColClasses     = "classes"
	ColSelections  = "selections"
	ColPayments    = "payments"
	ColEnrollments = "enrollments"
)

// Store 实现 storage.PersistentStore 接口的 MongoDB 驱动
//
// 连接在 NewStore 中建立一次，之后整个进程生命周期内复用；
// 不做 reconnect-on-demand，连接失败由进程入口处理为致命错误。
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore 创建 MongoDB 存储实例
//
// uri: MongoDB 连接 URI，如 "mongodb://localhost:27017"
// dbName: 数据库名称，如 "course_market"
func NewStore(uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect failed: %w", err)
	}

	// 验证连接
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongostore: ping failed: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{client: client, db: db}

	// 创建索引
	if err := s.ensureIndexes(ctx); err != nil {
		log.Printf("WARNING: mongostore: ensure indexes failed: %v", err)
	}

	return s, nil
}

// Close 关闭 MongoDB 连接
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// col 获取指定 Collection
func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// ensureIndexes 创建所有必要的索引
//
// 唯一索引承载三条不变量：
//   - users.email 唯一（insert-if-absent 的兜底）
//   - selections (student_email, class_id) 唯一
//   - enrollments (student_email, class_name) 唯一
func (s *Store) ensureIndexes(ctx context.Context) error {
	type idx struct {
		col    string
		keys   bson.D
		unique bool
	}

	indexes := []idx{
		// users
		{ColUsers, bson.D{{Key: "email", Value: 1}}, true},

		// classes
		{ColClasses, bson.D{{Key: "status", Value: 1}}, false},
		{ColClasses, bson.D{{Key: "instructor_email", Value: 1}}, false},
		{ColClasses, bson.D{{Key: "enrolled_students", Value: -1}}, false},

		// selections
		{ColSelections, bson.D{{Key: "student_email", Value: 1}, {Key: "class_id", Value: 1}}, true},
		{ColSelections, bson.D{{Key: "student_email", Value: 1}, {Key: "selected_at", Value: -1}}, false},

		// payments
		{ColPayments, bson.D{{Key: "student_email", Value: 1}, {Key: "date", Value: -1}}, false},

		// enrollments
		{ColEnrollments, bson.D{{Key: "student_email", Value: 1}, {Key: "class_name", Value: 1}}, true},
		{ColEnrollments, bson.D{{Key: "student_email", Value: 1}, {Key: "enrolled_at", Value: -1}}, false},
	}

	for _, i := range indexes {
		model := mongo.IndexModel{Keys: i.keys}
		if i.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := s.col(i.col).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", i.col, err)
		}
	}

	return nil
}
