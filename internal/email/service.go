package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"mime/multipart"
	"net/smtp"
	"net/textproto"

	"github.com/contactshub/contacts-api/internal/logging"
)

// Service sends transactional mail over SMTP. Messages carry both a plain-text
// and an HTML part.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromAddress  string
	appURL       string
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword, fromAddress, appURL string) *Service {
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromAddress:  fromAddress,
		appURL:       appURL,
	}
}

// SendVerificationEmail mails the confirmation link for the given token.
func (s *Service) SendVerificationEmail(ctx context.Context, toEmail, token string) error {
	logger := logging.GetLoggerFromContext(ctx)

	link := fmt.Sprintf("%s/api/auth/verify/%s", s.appURL, token)

	html, err := renderTemplate(verificationHTML, link)
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}
	text := fmt.Sprintf("Welcome to ContactsHub!\r\n\r\nConfirm your email address by opening this link:\r\n%s\r\n", link)

	if err := s.send(toEmail, "Verify your email address", html, text); err != nil {
		logger.Error("failed to send verification email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("verification email sent", "email", toEmail)
	return nil
}

// SendPasswordResetEmail mails a password reset link for the given token.
func (s *Service) SendPasswordResetEmail(ctx context.Context, toEmail, token string) error {
	logger := logging.GetLoggerFromContext(ctx)

	link := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, token)

	html, err := renderTemplate(passwordResetHTML, link)
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}
	text := fmt.Sprintf("We received a request to reset your password.\r\n\r\nOpen this link to choose a new one:\r\n%s\r\n\r\nIf you did not request this, ignore this message.\r\n", link)

	if err := s.send(toEmail, "Reset your password", html, text); err != nil {
		logger.Error("failed to send password reset email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("password reset email sent", "email", toEmail)
	return nil
}

// send builds a multipart/alternative message and hands it to the SMTP server.
func (s *Service) send(to, subject, html, text string) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fmt.Fprintf(&body, "From: %s\r\n", s.fromAddress)
	fmt.Fprintf(&body, "To: %s\r\n", to)
	fmt.Fprintf(&body, "Subject: %s\r\n", subject)
	fmt.Fprintf(&body, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&body, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", writer.Boundary())

	textPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=UTF-8"},
	})
	if err != nil {
		return fmt.Errorf("create text part: %w", err)
	}
	fmt.Fprint(textPart, text)

	htmlPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=UTF-8"},
	})
	if err != nil {
		return fmt.Errorf("create html part: %w", err)
	}
	fmt.Fprint(htmlPart, html)

	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)
	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)

	return smtp.SendMail(addr, auth, s.fromAddress, []string{to}, body.Bytes())
}

func renderTemplate(tmpl string, link string) (string, error) {
	t, err := template.New("email").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, struct{ Link string }{Link: link}); err != nil {
		return "", err
	}

	return buf.String(), nil
}

const verificationHTML = `
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Welcome to ContactsHub!</h2>
    <p>Confirm your email address to activate your account.</p>
    <p><a href="{{.Link}}" style="display: inline-block; background-color: #4F46E5; color: #fff; padding: 12px 24px; border-radius: 5px; text-decoration: none;">Verify email</a></p>
    <p>Or open this link directly:<br><a href="{{.Link}}">{{.Link}}</a></p>
</body>
</html>`

const passwordResetHTML = `
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Password reset</h2>
    <p>We received a request to reset your password. The link below is valid for one hour.</p>
    <p><a href="{{.Link}}" style="display: inline-block; background-color: #4F46E5; color: #fff; padding: 12px 24px; border-radius: 5px; text-decoration: none;">Choose a new password</a></p>
    <p>If you did not request this, ignore this message.</p>
</body>
</html>`
