// backend/src/services/email_service.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/username/labelfolio/backend/src/config"
	"github.com/username/labelfolio/backend/src/logger"
	"github.com/username/labelfolio/backend/src/models"
)

type EmailService interface {
	SendStatementEmail(toEmail string, statement *models.Statement) error
	SendPaymentEmail(toEmail string, statement *models.Statement) error
}

func NewEmailService() EmailService {
	if config.Cfg == nil {
		slog.Error("Configuration (config.Cfg) is nil. Email service will default to mock.")
		return &MockEmailService{}
	}

	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing email service", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or SenderEmail missing). Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunEmailService{
			mg:          mg,
			senderEmail: config.Cfg.SenderEmail,
			senderName:  config.Cfg.SenderName,
		}
	case "smtp":
		if config.Cfg.SMTPServer == "" || config.Cfg.SMTPUser == "" || config.Cfg.SMTPPassword == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("SMTP configuration incomplete. Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		return &SMTPEmailService{
			SMTPServer:   config.Cfg.SMTPServer,
			SMTPPort:     config.Cfg.SMTPPort,
			SMTPUser:     config.Cfg.SMTPUser,
			SMTPPassword: config.Cfg.SMTPPassword,
			SenderEmail:  config.Cfg.SenderEmail,
		}
	default:
		logger.L.Info("Defaulting to MockEmailService.")
		return &MockEmailService{}
	}
}

// statementSummaryText renders the figures shared by both notification
// bodies.
func statementSummaryText(st *models.Statement) string {
	return fmt.Sprintf(`Gross revenue: %s %s
Your share: %s %s
Recouped against advances: %s %s
Remaining advance balance: %s %s
Net payable: %s %s`,
		st.GrossAmount.StringFixed(2), st.Currency,
		st.ArtistRoyalty.StringFixed(2), st.Currency,
		st.RecoupedAmount.StringFixed(2), st.Currency,
		st.AdvanceBalanceAfter.StringFixed(2), st.Currency,
		st.NetPayable.StringFixed(2), st.Currency)
}

func statementSummaryHTML(st *models.Statement) string {
	return fmt.Sprintf(`
			<p>
				Gross revenue: <strong>%s %s</strong><br>
				Your share: <strong>%s %s</strong><br>
				Recouped against advances: <strong>%s %s</strong><br>
				Remaining advance balance: <strong>%s %s</strong><br>
				Net payable: <strong>%s %s</strong>
			</p>`,
		st.GrossAmount.StringFixed(2), st.Currency,
		st.ArtistRoyalty.StringFixed(2), st.Currency,
		st.RecoupedAmount.StringFixed(2), st.Currency,
		st.AdvanceBalanceAfter.StringFixed(2), st.Currency,
		st.NetPayable.StringFixed(2), st.Currency)
}

type SMTPEmailService struct {
	SMTPServer   string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SenderEmail  string
}

func (s *SMTPEmailService) sendPlain(toEmail, subject, body string) error {
	from := s.SenderEmail
	to := []string{toEmail}

	header := make(map[string]string)
	header["From"] = from
	header["To"] = toEmail
	header["Subject"] = subject
	header["MIME-version"] = "1.0"
	header["Content-Type"] = "text/plain; charset=\"UTF-8\""
	message := ""
	for k, v := range header {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n" + body
	auth := smtp.PlainAuth("", s.SMTPUser, s.SMTPPassword, s.SMTPServer)
	addr := fmt.Sprintf("%s:%d", s.SMTPServer, s.SMTPPort)
	return smtp.SendMail(addr, auth, from, to, []byte(message))
}

func (s *SMTPEmailService) SendStatementEmail(toEmail string, st *models.Statement) error {
	subject := fmt.Sprintf("Your royalty statement for %s", st.PeriodLabel)
	body := fmt.Sprintf(`Hello,

Your royalty statement for %s is ready.

%s

Thanks,
The Labelfolio Team (via SMTP)`, st.PeriodLabel, statementSummaryText(st))

	if err := s.sendPlain(toEmail, subject, body); err != nil {
		logger.L.Error("Failed to send statement email via SMTP", "error", err, "to", toEmail)
		return fmt.Errorf("failed to send statement email via SMTP: %w", err)
	}
	logger.L.Info("Statement email sent successfully via SMTP", "to", toEmail, "statementID", st.ID)
	return nil
}

func (s *SMTPEmailService) SendPaymentEmail(toEmail string, st *models.Statement) error {
	subject := fmt.Sprintf("Royalty payment for %s", st.PeriodLabel)
	body := fmt.Sprintf(`Hello,

Your royalty payment for %s is on its way.

%s

Thanks,
The Labelfolio Team (via SMTP)`, st.PeriodLabel, statementSummaryText(st))

	if err := s.sendPlain(toEmail, subject, body); err != nil {
		logger.L.Error("Failed to send payment email via SMTP", "error", err, "to", toEmail)
		return fmt.Errorf("failed to send payment email via SMTP: %w", err)
	}
	logger.L.Info("Payment email sent successfully via SMTP", "to", toEmail, "statementID", st.ID)
	return nil
}

type MailgunEmailService struct {
	mg          mailgun.Mailgun
	senderEmail string
	senderName  string
}

func (s *MailgunEmailService) SendStatementEmail(toEmail string, st *models.Statement) error {
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	subject := fmt.Sprintf("Your royalty statement for %s", st.PeriodLabel)
	recipient := toEmail

	plainTextBody := fmt.Sprintf(`Hello,

Your royalty statement for %s is ready.

%s

Thanks,
The Labelfolio Team`, st.PeriodLabel, statementSummaryText(st))

	htmlBody := fmt.Sprintf(`
	<html>
		<body style="font-family: Arial, sans-serif; line-height: 1.6;">
			<p>Hello,</p>
			<p>Your royalty statement for <strong>%s</strong> is ready.</p>
			%s
			<p>Thanks,<br>The Labelfolio Team</p>
		</body>
	</html>`, st.PeriodLabel, statementSummaryHTML(st))

	message := s.mg.NewMessage(from, subject, plainTextBody, recipient)
	message.SetHtml(htmlBody)
	message.AddTag("royalty-statement")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()
	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send statement email via Mailgun", "error", err, "to", toEmail, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed: %w. Response: %s", err, resp)
	}
	logger.L.Info("Statement email sent successfully via Mailgun", "to", toEmail, "id", id, "statementID", st.ID)
	return nil
}

func (s *MailgunEmailService) SendPaymentEmail(toEmail string, st *models.Statement) error {
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	subject := fmt.Sprintf("Royalty payment for %s", st.PeriodLabel)
	recipient := toEmail

	plainTextBody := fmt.Sprintf(`Hello,

Your royalty payment for %s is on its way.

%s

Thanks,
The Labelfolio Team`, st.PeriodLabel, statementSummaryText(st))

	htmlBody := fmt.Sprintf(`
	<html>
		<body style="font-family: Arial, sans-serif; line-height: 1.6;">
			<p>Hello,</p>
			<p>Your royalty payment for <strong>%s</strong> is on its way.</p>
			%s
			<p>Thanks,<br>The Labelfolio Team</p>
		</body>
	</html>`, st.PeriodLabel, statementSummaryHTML(st))

	message := s.mg.NewMessage(from, subject, plainTextBody, recipient)
	message.SetHtml(htmlBody)
	message.AddTag("royalty-payment")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()

	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send payment email via Mailgun", "error", err, "to", toEmail, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed for payment: %w. Response: %s", err, resp)
	}
	logger.L.Info("Payment email sent successfully via Mailgun", "to", toEmail, "id", id, "statementID", st.ID)
	return nil
}

type MockEmailService struct{}

func (m *MockEmailService) SendStatementEmail(toEmail string, st *models.Statement) error {
	logger.L.Info("MockEmailService: Would send statement email.",
		"to", toEmail,
		"period", st.PeriodLabel,
		"netPayable", st.NetPayable.StringFixed(2),
		"currency", st.Currency)
	return nil
}

func (m *MockEmailService) SendPaymentEmail(toEmail string, st *models.Statement) error {
	logger.L.Info("MockEmailService: Would send payment email.",
		"to", toEmail,
		"period", st.PeriodLabel,
		"netPayable", st.NetPayable.StringFixed(2),
		"currency", st.Currency)
	return nil
}
