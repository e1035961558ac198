package channels

import (
	"context"
	"fmt"
	"html"

	notifmodels "soug_elwahah/internal/api/notification/models"

	"gopkg.in/gomail.v2"
)

// SMTPConfig là cấu hình gửi email
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// MailDialer là phần của gomail.Dialer mà EmailSender cần
type MailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender gửi thông báo qua SMTP
type EmailSender struct {
	cfg    SMTPConfig
	dialer MailDialer
}

// NewEmailSender tạo EmailSender dùng gomail.Dialer
func NewEmailSender(cfg SMTPConfig) *EmailSender {
	return &EmailSender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// NewEmailSenderWithDialer dùng dialer cho trước (test)
func NewEmailSenderWithDialer(cfg SMTPConfig, dialer MailDialer) *EmailSender {
	return &EmailSender{cfg: cfg, dialer: dialer}
}

// BuildMessage dựng email HTML từ item
func (s *EmailSender) BuildMessage(item *notifmodels.QueueItem) *gomail.Message {
	body := fmt.Sprintf("<h3>%s</h3><p>%s</p>", html.EscapeString(item.Title), html.EscapeString(item.Message))
	if item.Related != nil {
		body += fmt.Sprintf("<p style='color:#888'>%s #%s</p>", html.EscapeString(item.Related.Kind), html.EscapeString(item.Related.ID))
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.cfg.FromEmail, s.cfg.FromName)
	msg.SetHeader("To", item.Address)
	msg.SetHeader("Subject", item.Title)
	msg.SetBody("text/html", body)
	return msg
}

func (s *EmailSender) Send(ctx context.Context, item *notifmodels.QueueItem) error {
	if s.cfg.Host == "" {
		return fmt.Errorf("smtp host not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.dialer.DialAndSend(s.BuildMessage(item))
}
