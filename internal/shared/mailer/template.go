package mailer

import (
	"bytes"
	"html/template"
)

// notificationTmpl 课程通知邮件模板
var notificationTmpl = template.Must(template.New("course-notification").Parse(`<!DOCTYPE html>
<html>
  <head>
    <style>
      body { font-family: Arial, sans-serif; background-color: #f5f5f5; }
      .container { max-width: 600px; margin: 20px auto; background: white; padding: 20px; border-radius: 10px; }
      .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 20px; border-radius: 5px; text-align: center; }
      .content { margin: 20px 0; line-height: 1.6; color: #333; }
      .course-details { background: #f9f9f9; padding: 15px; border-left: 4px solid #667eea; margin: 15px 0; }
      .button { display: inline-block; background: #667eea; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; margin-top: 10px; }
      .footer { text-align: center; color: #999; font-size: 12px; margin-top: 20px; }
    </style>
  </head>
  <body>
    <div class="container">
      <div class="header">
        <h1>Course Notification Confirmed!</h1>
      </div>
      <div class="content">
        <p>Hello,</p>
        <p>Thank you for signing up for notifications!</p>
        <div class="course-details">
          <h3>{{.CourseTitle}}</h3>
          <p><strong>Start Date:</strong> {{.StartDate.Format "Jan 2, 2006"}}</p>
          <p><strong>Price:</strong> ${{printf "%.2f" .Price}}</p>
        </div>
        <a href="https://language-center.example.com/classes/{{.CourseID}}" class="button">View Course</a>
      </div>
      <div class="footer">
        <p>&copy; Language Learner</p>
      </div>
    </div>
  </body>
</html>`))

// renderNotification 渲染通知邮件 HTML
func renderNotification(n Notification) (string, error) {
	var buf bytes.Buffer
	if err := notificationTmpl.Execute(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
