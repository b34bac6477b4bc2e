package utils

import (
	"errors"
	"fmt"
	"net/smtp"
	"os"
	"strings"
)

// Notification is the payload handed to the delivery sink. Html may be empty,
// in which case Text is sent as the only body part.
type Notification struct {
	To      string
	Subject string
	Text    string
	Html    string
}

// Notifier delivers notifications. Failure must propagate to the caller when
// delivery is part of the operation's contract (credential issuance).
type Notifier interface {
	SendNotification(n Notification) error
}

var notifier Notifier = &smtpNotifier{}

func GetNotifier() Notifier {
	return notifier
}

// SetNotifier swaps the delivery sink (tests).
func SetNotifier(n Notifier) {
	notifier = n
}

type smtpNotifier struct{}

func (s *smtpNotifier) SendNotification(n Notification) error {
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	from := os.Getenv("SMTP_FROM")
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASSWORD")

	if host == "" || from == "" {
		return errors.New("mail delivery not configured (SMTP_HOST/SMTP_FROM)")
	}
	if port == "" {
		port = "587"
	}

	body := n.Text
	contentType := "text/plain; charset=\"UTF-8\""
	if n.Html != "" {
		body = n.Html
		contentType = "text/html; charset=\"UTF-8\""
	}

	msg := strings.Join([]string{
		"From: " + from,
		"To: " + n.To,
		"Subject: " + n.Subject,
		"MIME-Version: 1.0",
		"Content-Type: " + contentType,
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, pass, host)
	}
	return smtp.SendMail(fmt.Sprintf("%s:%s", host, port), auth, from, []string{n.To}, []byte(msg))
}
