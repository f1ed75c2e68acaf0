package model

import "time"

// EnrollmentStatus 报名状态
type EnrollmentStatus string

const (
	// EnrollmentStatusActive 生效中（当前唯一状态）
	EnrollmentStatusActive EnrollmentStatus = "active"
)

// Enrollment 学生完成注册的持久记录
//
// (student_email, class_name) 组合唯一，append-only。
type Enrollment struct {
	ID              string           `json:"id" bson:"_id"`
	StudentEmail    string           `json:"student_email" bson:"student_email"`
	StudentName     string           `json:"student_name,omitempty" bson:"student_name,omitempty"`
	ClassID         string           `json:"class_id,omitempty" bson:"class_id,omitempty"`
	ClassName       string           `json:"class_name" bson:"class_name"`
	ClassImage      string           `json:"class_image,omitempty" bson:"class_image,omitempty"`
	InstructorName  string           `json:"instructor_name,omitempty" bson:"instructor_name,omitempty"`
	InstructorEmail string           `json:"instructor_email,omitempty" bson:"instructor_email,omitempty"`
	Amount          int64            `json:"amount" bson:"amount"`
	TransactionID   string           `json:"transaction_id" bson:"transaction_id"`
	EnrolledAt      time.Time        `json:"enrolled_at" bson:"enrolled_at"`
	Status          EnrollmentStatus `json:"status" bson:"status"`
}
