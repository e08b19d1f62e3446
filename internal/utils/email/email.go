package email

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/Dan9191/condo-service/internal/config"
	"github.com/Dan9191/condo-service/internal/models"
	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	s := &Sender{
		cfg:    cfg,
		logger: logger,
	}
	s.send = s.smtpSend
	return s
}

func (s *Sender) smtpSend(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	return e.Send(addr, auth)
}

// SendCommunication sends a notice to every recipient. Addresses go in Bcc so
// residents do not see each other.
func (s *Sender) SendCommunication(ctx context.Context, to []string, condo *models.Condominium, c models.Communication) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{s.cfg.SenderEmail}
	e.Bcc = to
	e.Subject = fmt.Sprintf("[%s] %s", condo.Name, c.Title)

	body := c.Content
	body += fmt.Sprintf("\n\nAtentamente,\nAdministración %s", condo.Name)
	e.Text = []byte(body)

	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send communication %s to %d recipients: %v", c.ID, len(to), err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %d recipients: %s", len(to), e.Subject)
	return nil
}

// SendBalanceReminder tells a unit owner about their outstanding balance
func (s *Sender) SendBalanceReminder(ctx context.Context, to string, condo *models.Condominium, unit *models.Unit, balance decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("[%s] Estado de cuenta unidad %s", condo.Name, unit.UnitNumber)

	body := fmt.Sprintf("Estimado(a) %s,\n\n", unit.Owner.Name)
	body += fmt.Sprintf(
		"Le recordamos que la unidad %s presenta un balance pendiente de %s %s.\n"+
			"Le agradecemos realizar el pago a la mayor brevedad posible.\n",
		unit.UnitNumber, condo.Currency, balance.StringFixed(2),
	)
	body += fmt.Sprintf("\nAtentamente,\nAdministración %s", condo.Name)
	e.Text = []byte(body)

	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send balance reminder to %s: %v", to, err)
		return fmt.Errorf("failed to send balance reminder: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}
