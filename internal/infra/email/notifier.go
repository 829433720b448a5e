package email

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

var ErrInvalidRecipient = errors.New("invalid recipient address")

type SMTPNotifier struct {
	host   string
	port   int
	from   string
	logger *zap.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPNotifier(host string, port int, from string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, logger: logger, send: smtp.SendMail}
}

// NotifyFailure tells the requester which pipeline stage gave up on their video.
func (n *SMTPNotifier) NotifyFailure(_ context.Context, userEmail, jobID, videoKey, stage, errorMsg string, retriesExhausted bool) error {
	if userEmail == "" || strings.ContainsAny(userEmail, "\r\n") {
		n.logger.Warn("refusing to send failure notification", zap.String("job_id", jobID), zap.String("to", userEmail))
		return fmt.Errorf("send email to %q: %w", userEmail, ErrInvalidRecipient)
	}

	addr := fmt.Sprintf("%s:%d", n.host, n.port)

	msg := n.compose(userEmail, jobID, videoKey, stage, errorMsg, retriesExhausted)
	if err := n.send(addr, nil, n.from, []string{userEmail}, msg); err != nil {
		n.logger.Error("failed to send failure notification email",
			zap.String("to", userEmail),
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("failure notification email sent",
		zap.String("to", userEmail),
		zap.String("job_id", jobID),
	)
	return nil
}

func (n *SMTPNotifier) compose(userEmail, jobID, videoKey, stage, errorMsg string, retriesExhausted bool) []byte {
	subject := fmt.Sprintf("FIAP X - Frame Analysis Failed [Job %s]", jobID)

	var b strings.Builder
	b.WriteString("Hello,\r\n\r\n")
	if retriesExhausted {
		b.WriteString("Your frame-type analysis job has permanently failed after all retry attempts.\r\n\r\n")
	} else {
		b.WriteString("Your frame-type analysis job failed and was not retried, because the video cannot be analysed as uploaded.\r\n\r\n")
	}
	fmt.Fprintf(&b, "Job ID: %s\r\n", jobID)
	fmt.Fprintf(&b, "Video: %s\r\n", videoKey)
	if stage != "" && stage != "unknown" {
		fmt.Fprintf(&b, "Failed stage: %s\r\n", stage)
	}
	fmt.Fprintf(&b, "Error: %s\r\n\r\n", errorMsg)
	if retriesExhausted {
		b.WriteString("Please try again later. If the problem persists, contact support.\r\n\r\n")
	} else {
		b.WriteString("Please check that the upload is a playable video and try again.\r\n\r\n")
	}
	b.WriteString("-- FIAP X Frame Analysis Service")

	return []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		n.from, userEmail, subject, b.String(),
	))
}
