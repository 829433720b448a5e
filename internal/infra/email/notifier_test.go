package email

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentMail struct {
	addr string
	to   []string
	msg  string
}

func newCapturingNotifier() (*SMTPNotifier, *[]sentMail) {
	n := NewSMTPNotifier("mailhog", 1025, "noreply@fiapx.local", zap.NewNop())
	var sent []sentMail
	n.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		sent = append(sent, sentMail{addr: addr, to: to, msg: string(msg)})
		return nil
	}
	return n, &sent
}

func TestNotifyFailureComposesMessage(t *testing.T) {
	n, sent := newCapturingNotifier()

	require.NoError(t, n.NotifyFailure(context.Background(), "ana@example.com", "job-1", "ana/clip.mp4", "probe", "no video stream", false))

	require.Len(t, *sent, 1)
	got := (*sent)[0]
	assert.Equal(t, "mailhog:1025", got.addr)
	assert.Equal(t, []string{"ana@example.com"}, got.to)
	assert.Contains(t, got.msg, "Subject: FIAP X - Frame Analysis Failed [Job job-1]")
	assert.Contains(t, got.msg, "Failed stage: probe")
	assert.Contains(t, got.msg, "Error: no video stream")
	assert.Contains(t, got.msg, "was not retried")
	assert.NotContains(t, got.msg, "after all retry attempts")
}

func TestNotifyFailureExhaustedRetries(t *testing.T) {
	n, sent := newCapturingNotifier()

	require.NoError(t, n.NotifyFailure(context.Background(), "ana@example.com", "job-2", "ana/clip.mp4", "unknown", "download_video: timeout", true))

	require.Len(t, *sent, 1)
	msg := (*sent)[0].msg
	assert.Contains(t, msg, "failed after all retry attempts")
	assert.NotContains(t, msg, "Failed stage:", "an unknown stage is left out")
	assert.Contains(t, msg, "Error: download_video: timeout")
}

func TestNotifyFailureRejectsHeaderInjection(t *testing.T) {
	n, sent := newCapturingNotifier()

	for _, to := range []string{"ana@example.com\r\nBcc: eve@example.com", "ana@example.com\nX: y", ""} {
		err := n.NotifyFailure(context.Background(), to, "job-3", "v", "probe", "e", false)
		assert.ErrorIs(t, err, ErrInvalidRecipient)
	}
	assert.Empty(t, *sent)
}

func TestNotifyFailureSendError(t *testing.T) {
	n := NewSMTPNotifier("localhost", 25, "a@b", zap.NewNop())
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := n.NotifyFailure(context.Background(), "x@y", "j", "v", "", "e", true)
	assert.ErrorContains(t, err, "connection refused")
}
