package model

import (
	"math"
	"time"
)

// ClassStatus 课程审批状态
type ClassStatus string

const (
	ClassStatusPending  ClassStatus = "pending"
	ClassStatusApproved ClassStatus = "approved"
	ClassStatusDenied   ClassStatus = "denied"
)

// Class 课程
//
// 由讲师创建，初始状态 pending；管理员审批后变为 approved/denied。
// available_seats 只能通过带守卫条件的原子递减修改，永远不会为负。
type Class struct {
	ID               string      `json:"id" bson:"_id"`
	Name             string      `json:"name" bson:"name"`
	Image            string      `json:"image,omitempty" bson:"image,omitempty"`
	Description      string      `json:"description,omitempty" bson:"description,omitempty"`
	InstructorName   string      `json:"instructor_name" bson:"instructor_name"`
	InstructorEmail  string      `json:"instructor_email" bson:"instructor_email"`
	Price            float64     `json:"price" bson:"price"`
	AvailableSeats   int         `json:"available_seats" bson:"available_seats"`
	EnrolledStudents int         `json:"enrolled_students" bson:"enrolled_students"`
	Status           ClassStatus `json:"status" bson:"status"`
	Feedback         string      `json:"feedback,omitempty" bson:"feedback,omitempty"`
	StartDate        *time.Time  `json:"start_date,omitempty" bson:"start_date,omitempty"`
	CreatedAt        time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at" bson:"updated_at"`
}

// AmountMinor 返回以最小货币单位计的价格（price × 100，四舍五入）
func (c *Class) AmountMinor() int64 {
	return int64(math.Round(c.Price * 100))
}
