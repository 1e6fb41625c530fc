package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendBriefReady(toEmail, caseID, audience, reference string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	senderName  string
}

func NewEmailService(host string, port int, username, password, senderName string) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: username,
		senderName:  senderName,
	}
}

func (s *emailService) SendBriefReady(toEmail, caseID, audience, reference string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("New %s brief for case %s", audience, caseID))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>A %s brief is ready</h2>
			<p>Case: <strong>%s</strong></p>
			<p>Document: <a href="%s">%s</a></p>
		</div>
	`, audience, caseID, reference, reference)
	m.SetBody("text/html", body)

	return s.dialer.DialAndSend(m)
}
