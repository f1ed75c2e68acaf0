// Package mailer 课程通知邮件发送
//
// 渲染 HTML 模板并通过 SMTP 投递。投递失败返回 DeliveryError，
// 由调用方决定如何上报（不做任何自动重试）。
package mailer

import (
	"fmt"
	"log"
	"time"

	"gopkg.in/gomail.v2"
)

// Notification 课程通知内容
type Notification struct {
	Email       string
	CourseTitle string
	CourseID    string
	StartDate   time.Time
	Price       float64
}

// DeliveryError SMTP 投递失败
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("mail delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Sender 邮件发送接口
type Sender interface {
	SendCourseNotification(n Notification) error
}

// SMTPConfig SMTP 连接配置
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender 基于 gomail 的 SMTP 发送实现
type SMTPSender struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

// NewSMTPSender 创建 SMTP 发送器
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPSender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// 确保 SMTPSender 实现了 Sender 接口
var _ Sender = (*SMTPSender)(nil)

// SendCourseNotification 渲染通知模板并投递
func (s *SMTPSender) SendCourseNotification(n Notification) error {
	body, err := renderNotification(n)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", n.Email)
	m.SetHeader("Subject", "Notification Confirmed: "+n.CourseTitle)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		log.Printf("[mailer] delivery to %s failed: %v", n.Email, err)
		return &DeliveryError{Err: err}
	}

	log.Printf("[mailer] notification sent to %s (course=%s)", n.Email, n.CourseID)
	return nil
}

// MockSender 测试用发送器：记录而不投递
type MockSender struct {
	Sent     []Notification
	FailWith error
}

// 确保 MockSender 实现了 Sender 接口
var _ Sender = (*MockSender)(nil)

func (s *MockSender) SendCourseNotification(n Notification) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.Sent = append(s.Sent, n)
	return nil
}
