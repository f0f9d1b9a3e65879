package mailer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-auth/pkg/helpers"
)

// Publisher is satisfied by helpers.RabbitPublisher.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// Queue enqueues EmailJobs for the email worker. Publishing happens in the
// background so a slow broker never holds up the caller.
type Queue struct {
	pub     Publisher
	timeout time.Duration
	logger  *logrus.Logger
	wg      sync.WaitGroup
}

func NewQueue(pub Publisher, timeout time.Duration, logger *logrus.Logger) *Queue {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Queue{pub: pub, timeout: timeout, logger: logger}
}

// Enqueue checks the job and hands it to a background publish bounded by the
// queue timeout. Publish failures are logged, not returned.
func (q *Queue) Enqueue(ctx context.Context, job EmailJob) error {
	if q == nil || q.pub == nil {
		return errors.New("email queue not configured")
	}
	if strings.TrimSpace(job.To) == "" {
		return errors.New("email job has no recipient")
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.timeout)
		defer cancel()
		if err := q.pub.PublishJSON(pctx, job); err != nil {
			helpers.LogWarn(q.logger, "publish email job failed", err, logrus.Fields{"template": job.Template})
		}
	}()
	return nil
}

// Wait blocks until every background publish has finished.
func (q *Queue) Wait() {
	if q != nil {
		q.wg.Wait()
	}
}
