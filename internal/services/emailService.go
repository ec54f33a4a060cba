package services

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"storefront/internal/config"
	"storefront/internal/metrics"
	"storefront/internal/models"
)

type EmailService interface {
	SendEmail(ctx context.Context, to, subject, msg string) error
	SendPasswordResetOTP(ctx context.Context, to, code, reference string, expiresAt time.Time) error
	SendOrderConfirmation(ctx context.Context, to string, order *models.Order) error
}

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	sender     mailSender
	from       string
	retries    uint64
	newBackOff func() backoff.BackOff
}

func NewEmailService(cfg *config.Config) EmailService {
	return &emailService{
		sender:     gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:       cfg.SMTPFrom,
		retries:    cfg.MailRetries,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
}

// SendEmail delivers one HTML message, retrying transient SMTP failures with
// exponential backoff until the retry budget or ctx runs out.
func (e *emailService) SendEmail(ctx context.Context, to, subject, msg string) error {
	m := gomail.NewMessage()

	m.SetHeader("From", e.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", msg)

	attempt := 0
	operation := func() error {
		attempt++
		err := e.sender.DialAndSend(m)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Str("subject", subject).Msg("Email delivery attempt failed")
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(e.newBackOff(), e.retries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return fmt.Errorf("failed to send email after %d attempts: %w", attempt, err)
	}
	return nil
}

func (e *emailService) SendPasswordResetOTP(ctx context.Context, to, code, reference string, expiresAt time.Time) error {
	body := fmt.Sprintf(`
		<h3>Password reset requested</h3>
		<p>Your verification code is: <strong>%s</strong></p>
		<p>Reference: %s</p>
		<p>The code expires at %s. If you did not request a reset, you can ignore this email.</p>
	`, code, html.EscapeString(reference), expiresAt.UTC().Format(time.RFC1123))

	if err := e.SendEmail(ctx, to, "Your password reset code", body); err != nil {
		metrics.EmailDeliveryFailuresTotal.WithLabelValues("password_reset").Inc()
		log.Error().Err(err).Str("reference", reference).Msg("Password reset email was not delivered")
		return err
	}
	return nil
}

func (e *emailService) SendOrderConfirmation(ctx context.Context, to string, order *models.Order) error {
	var rows strings.Builder
	for _, item := range order.Items {
		fmt.Fprintf(&rows, "<tr><td>%s</td><td>%d</td><td>%.2f</td></tr>", html.EscapeString(item.Title), item.Count, item.Price)
	}
	body := fmt.Sprintf(`
		<h3>Thank you for your order</h3>
		<p>Order number: <strong>%s</strong></p>
		<table><tr><th>Item</th><th>Qty</th><th>Price</th></tr>%s</table>
		<p>Total payable: %.2f %s</p>
	`, html.EscapeString(order.OrderNumber), rows.String(), order.Payable, html.EscapeString(order.Payment.Currency))

	if err := e.SendEmail(ctx, to, "Order confirmation "+order.OrderNumber, body); err != nil {
		metrics.EmailDeliveryFailuresTotal.WithLabelValues("order_confirmation").Inc()
		return err
	}
	return nil
}
