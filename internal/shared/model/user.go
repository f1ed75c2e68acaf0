// Package model 定义课程市场的核心数据模型
//
// 所有实体以文档形式存储在 MongoDB 集合中，字段名统一使用 snake_case。
// 角色与状态字段使用封闭的字符串枚举，禁止自由文本。
package model

import "time"

// UserRole 用户角色
type UserRole string

const (
	UserRoleStudent    UserRole = "student"
	UserRoleInstructor UserRole = "instructor"
	UserRoleAdmin      UserRole = "admin"
)

// Valid 判断角色是否在封闭枚举内
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleStudent, UserRoleInstructor, UserRoleAdmin:
		return true
	}
	return false
}

// User 用户
//
// 首次登录时按 email 幂等创建（insert-if-absent），此后不会删除。
// 角色字段的规范拼写是 role，默认值 student。
type User struct {
	ID          string    `json:"id" bson:"_id"`
	Email       string    `json:"email" bson:"email"`
	DisplayName string    `json:"display_name" bson:"display_name"`
	PhotoURL    string    `json:"photo_url,omitempty" bson:"photo_url,omitempty"`
	Role        UserRole  `json:"role" bson:"role"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}
