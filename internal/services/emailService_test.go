package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type flakySender struct {
	failures int
	calls    int
	last     *gomail.Message
}

func (f *flakySender) DialAndSend(m ...*gomail.Message) error {
	f.calls++
	f.last = m[0]
	if f.calls <= f.failures {
		return errors.New("421 service not available")
	}
	return nil
}

func newTestEmailService(sender mailSender, retries uint64) *emailService {
	return &emailService{
		sender:     sender,
		from:       "shop@example.com",
		retries:    retries,
		newBackOff: func() backoff.BackOff { return &backoff.ZeroBackOff{} },
	}
}

func TestSendEmailRetriesTransientFailures(t *testing.T) {
	sender := &flakySender{failures: 2}
	svc := newTestEmailService(sender, 3)

	err := svc.SendPasswordResetOTP(context.Background(), "a@x.com", "482913", "RST-ABC234", time.Now().Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 3, sender.calls)
	assert.Equal(t, []string{"a@x.com"}, sender.last.GetHeader("To"))
	assert.Equal(t, []string{"shop@example.com"}, sender.last.GetHeader("From"))
}

func TestSendEmailGivesUpAfterRetries(t *testing.T) {
	sender := &flakySender{failures: 10}
	svc := newTestEmailService(sender, 2)

	err := svc.SendEmail(context.Background(), "a@x.com", "hello", "<p>hi</p>")
	require.Error(t, err)
	assert.Equal(t, 3, sender.calls)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestSendEmailStopsOnCancelledContext(t *testing.T) {
	sender := &flakySender{failures: 10}
	svc := newTestEmailService(sender, 5)
	svc.newBackOff = func() backoff.BackOff { return backoff.NewConstantBackOff(time.Hour) }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := svc.SendEmail(ctx, "a@x.com", "hello", "<p>hi</p>")
	assert.Error(t, err)
	assert.LessOrEqual(t, sender.calls, 1)
}
