// Package storage 提供存储层抽象
//
// mock.go 提供用于测试的内存版 PersistentStore 实现，
// 行为与 mongostore 保持一致（唯一键冲突、守卫递减、排序规则）。
package storage

import (
	"context"
	"sort"
	"sync"

	"course-market/internal/shared/model"
)

// MemStore 内存版 PersistentStore（用于测试）
type MemStore struct {
	mu          sync.Mutex
	users       map[string]*model.User       // key: id
	classes     map[string]*model.Class      // key: id
	selections  map[string]*model.Selection  // key: id
	payments    map[string]*model.Payment    // key: id
	enrollments map[string]*model.Enrollment // key: id
}

// NewMemStore 创建内存存储实例
func NewMemStore() *MemStore {
	return &MemStore{
		users:       make(map[string]*model.User),
		classes:     make(map[string]*model.Class),
		selections:  make(map[string]*model.Selection),
		payments:    make(map[string]*model.Payment),
		enrollments: make(map[string]*model.Enrollment),
	}
}

// 确保 MemStore 实现了 PersistentStore 接口
var _ PersistentStore = (*MemStore)(nil)

// Close 关闭存储（内存版为空操作）
func (s *MemStore) Close() error { return nil }

// ============================================================================
// UserStore
// ============================================================================

func (s *MemStore) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *MemStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *MemStore) UpdateUserRole(ctx context.Context, id string, role model.UserRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	return nil
}

func (s *MemStore) ListUsers(ctx context.Context) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ============================================================================
// ClassStore
// ============================================================================

func (s *MemStore) CreateClass(ctx context.Context, class *model.Class) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classes[class.ID]; ok {
		return ErrDuplicate
	}
	cp := *class
	s.classes[class.ID] = &cp
	return nil
}

func (s *MemStore) GetClass(ctx context.Context, id string) (*model.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.classes[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (s *MemStore) ListClasses(ctx context.Context, filter ClassFilter) ([]*model.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Class, 0, len(s.classes))
	for _, c := range s.classes {
		if filter.Status != "" && string(c.Status) != filter.Status {
			continue
		}
		if filter.InstructorEmail != "" && c.InstructorEmail != filter.InstructorEmail {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemStore) TopClasses(ctx context.Context, limit int) ([]*model.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Class, 0, len(s.classes))
	for _, c := range s.classes {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnrolledStudents > out[j].EnrolledStudents })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) UpdateClassStatus(ctx context.Context, id string, status model.ClassStatus, feedback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.classes[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	if feedback != "" {
		c.Feedback = feedback
	}
	return nil
}

func (s *MemStore) ReduceSeats(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.classes[id]
	if !ok {
		return ErrNotFound
	}
	// 守卫条件：余位为 0 时拒绝，计数器永远不为负
	if c.AvailableSeats <= 0 {
		return ErrSoldOut
	}
	c.AvailableSeats--
	c.EnrolledStudents++
	return nil
}

// ============================================================================
// SelectionStore
// ============================================================================

func (s *MemStore) CreateSelection(ctx context.Context, sel *model.Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.selections {
		if existing.StudentEmail == sel.StudentEmail && existing.ClassID == sel.ClassID {
			return ErrDuplicate
		}
	}
	cp := *sel
	s.selections[sel.ID] = &cp
	return nil
}

func (s *MemStore) GetSelection(ctx context.Context, id string) (*model.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sel, ok := s.selections[id]; ok {
		cp := *sel
		return &cp, nil
	}
	return nil, nil
}

func (s *MemStore) FindSelection(ctx context.Context, studentEmail, classID string) (*model.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sel := range s.selections {
		if sel.StudentEmail == studentEmail && sel.ClassID == classID {
			cp := *sel
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemStore) ListSelectionsByStudent(ctx context.Context, email string) ([]*model.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.Selection{}
	for _, sel := range s.selections {
		if sel.StudentEmail == email {
			cp := *sel
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SelectedAt.After(out[j].SelectedAt) })
	return out, nil
}

func (s *MemStore) DeleteSelection(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.selections[id]; !ok {
		return ErrNotFound
	}
	delete(s.selections, id)
	return nil
}

// ============================================================================
// PaymentStore
// ============================================================================

func (s *MemStore) CompletePayment(ctx context.Context, payment *model.Payment, selectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// 内存版天然原子：同一把锁内完成插入与删除
	cp := *payment
	s.payments[payment.ID] = &cp
	delete(s.selections, selectionID)
	return nil
}

func (s *MemStore) ListPaymentsByStudent(ctx context.Context, email string) ([]*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.Payment{}
	for _, p := range s.payments {
		if p.StudentEmail == email {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// ============================================================================
// EnrollmentStore
// ============================================================================

func (s *MemStore) CreateEnrollment(ctx context.Context, enr *model.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.enrollments {
		if existing.StudentEmail == enr.StudentEmail && existing.ClassName == enr.ClassName {
			return ErrDuplicate
		}
	}
	cp := *enr
	s.enrollments[enr.ID] = &cp
	return nil
}

func (s *MemStore) FindEnrollment(ctx context.Context, studentEmail, className string) (*model.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, enr := range s.enrollments {
		if enr.StudentEmail == studentEmail && enr.ClassName == className {
			cp := *enr
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemStore) ListEnrollmentsByStudent(ctx context.Context, email string) ([]*model.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.Enrollment{}
	for _, enr := range s.enrollments {
		if enr.StudentEmail == email {
			cp := *enr
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnrolledAt.After(out[j].EnrolledAt) })
	return out, nil
}
