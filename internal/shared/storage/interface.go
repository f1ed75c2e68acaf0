// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/
//   - 初始化时通过依赖注入传入实现
//
// 查询约定：
//   - Get/Find 类方法在实体不存在时返回 (nil, nil)，由调用方翻译为 404
//   - Update/Delete 类方法在实体不存在时返回 ErrNotFound
//   - Create 类方法在唯一键冲突时返回 ErrDuplicate
package storage

import (
	"context"

	"course-market/internal/shared/model"
)

// ClassFilter 课程列表查询过滤条件
type ClassFilter struct {
	Status          string // 为空表示不过滤
	InstructorEmail string // 为空表示不过滤
}

// UserStore 用户存储接口
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	UpdateUserRole(ctx context.Context, id string, role model.UserRole) error
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// ClassStore 课程存储接口
type ClassStore interface {
	CreateClass(ctx context.Context, class *model.Class) error
	GetClass(ctx context.Context, id string) (*model.Class, error)
	ListClasses(ctx context.Context, filter ClassFilter) ([]*model.Class, error)
	TopClasses(ctx context.Context, limit int) ([]*model.Class, error)
	UpdateClassStatus(ctx context.Context, id string, status model.ClassStatus, feedback string) error
	ReduceSeats(ctx context.Context, id string) error
}

// SelectionStore 选课存储接口
type SelectionStore interface {
	CreateSelection(ctx context.Context, sel *model.Selection) error
	GetSelection(ctx context.Context, id string) (*model.Selection, error)
	FindSelection(ctx context.Context, studentEmail, classID string) (*model.Selection, error)
	ListSelectionsByStudent(ctx context.Context, email string) ([]*model.Selection, error)
	DeleteSelection(ctx context.Context, id string) error
}

// PaymentStore 付款存储接口
type PaymentStore interface {
	// CompletePayment 写入付款记录并删除对应选课，两个写操作在
	// 同一个多文档事务中执行（不支持事务的部署降级为顺序写入）。
	CompletePayment(ctx context.Context, payment *model.Payment, selectionID string) error
	ListPaymentsByStudent(ctx context.Context, email string) ([]*model.Payment, error)
}

// EnrollmentStore 报名存储接口
type EnrollmentStore interface {
	CreateEnrollment(ctx context.Context, enr *model.Enrollment) error
	FindEnrollment(ctx context.Context, studentEmail, className string) (*model.Enrollment, error)
	ListEnrollmentsByStudent(ctx context.Context, email string) ([]*model.Enrollment, error)
}

// PersistentStore 持久化存储组合接口（由 mongostore.Store 实现）
type PersistentStore interface {
	UserStore
	ClassStore
	SelectionStore
	PaymentStore
	EnrollmentStore
	Close() error
}
