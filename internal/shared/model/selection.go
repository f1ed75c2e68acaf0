package model

import "time"

// Selection 学生付款前的临时选课记录
//
// (student_email, class_id) 组合唯一；付款完成或学生显式移除时删除。
type Selection struct {
	ID           string    `json:"id" bson:"_id"`
	StudentEmail string    `json:"student_email" bson:"student_email"`
	ClassID      string    `json:"class_id" bson:"class_id"`
	ClassName    string    `json:"class_name" bson:"class_name"`
	ClassImage   string    `json:"class_image,omitempty" bson:"class_image,omitempty"`
	Price        float64   `json:"price" bson:"price"`
	SelectedAt   time.Time `json:"selected_at" bson:"selected_at"`
}
