package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	mailtpl "github.com/oksasatya/go-user-auth/pkg/mailer/templates"
)

// ErrPoison marks a job that can never be delivered and must not be requeued.
var ErrPoison = errors.New("undeliverable email job")

// Worker turns queued EmailJobs into sent mail.
type Worker struct {
	Sender Sender
	Logger *logrus.Logger
}

func NewWorker(sender Sender, logger *logrus.Logger) *Worker {
	return &Worker{Sender: sender, Logger: logger}
}

// Handle decodes, renders and sends one message body. Errors wrapping ErrPoison
// mean the message should be dropped; any other error means retry.
func (w *Worker) Handle(ctx context.Context, body []byte) error {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrPoison, err)
	}
	if strings.TrimSpace(job.To) == "" {
		return fmt.Errorf("%w: missing recipient", ErrPoison)
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		if job.Data == nil {
			job.Data = map[string]any{}
		}
		if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
			job.Data["RecipientEmail"] = job.To
		}
		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("%w: render %s: %v", ErrPoison, job.Template, err)
		}
		subject, text, html = s, t, h
	}
	if subject == "" || (text == "" && html == "") {
		return fmt.Errorf("%w: empty message", ErrPoison)
	}

	if err := w.Sender.Send(ctx, job.To, subject, text, html); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	if w.Logger != nil {
		w.Logger.WithFields(logrus.Fields{"template": job.Template, "subject": subject}).Debug("email sent")
	}
	return nil
}
