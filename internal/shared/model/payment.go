package model

import "time"

// Payment 已完成交易的记录
//
// 每次成功付款写入一条，此后不再修改或删除（append-only）。
// amount 以最小货币单位计（美分），等于课程价格 × 100。
type Payment struct {
	ID            string    `json:"id" bson:"_id"`
	StudentEmail  string    `json:"student_email" bson:"student_email"`
	Amount        int64     `json:"amount" bson:"amount"`
	Currency      string    `json:"currency" bson:"currency"`
	ClassID       string    `json:"class_id" bson:"class_id"`
	ClassName     string    `json:"class_name,omitempty" bson:"class_name,omitempty"`
	SelectionID   string    `json:"selection_id" bson:"selection_id"`
	TransactionID string    `json:"transaction_id" bson:"transaction_id"`
	Date          time.Time `json:"date" bson:"date"`
}
