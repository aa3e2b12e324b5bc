package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	mailtpl "github.com/oksasatya/taskhub/pkg/mailer/templates"
)

// Sender delivers one rendered email.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

type Outcome int

const (
	Ack Outcome = iota
	// Drop rejects a job that can never succeed.
	Drop
	// Requeue rejects a job whose delivery failed transiently.
	Requeue
)

var errEmptyJob = errors.New("job has no recipient or content")

// Worker consumes EmailJobs and hands them to a Sender.
type Worker struct {
	sender      Sender
	logger      *logrus.Logger
	sendTimeout time.Duration
}

func NewWorker(sender Sender, logger *logrus.Logger) *Worker {
	return &Worker{sender: sender, logger: logger, sendTimeout: 15 * time.Second}
}

// Render resolves the subject and bodies of job, rendering its template when set.
func Render(job *EmailJob) (subject, text, html string, err error) {
	if strings.TrimSpace(job.To) == "" {
		return "", "", "", errEmptyJob
	}
	EnsureRecipient(job)
	if job.Template == "" {
		if job.Text == "" && job.HTML == "" {
			return "", "", "", errEmptyJob
		}
		return job.Subject, job.Text, job.HTML, nil
	}
	if !mailtpl.Known(job.Template) {
		return "", "", "", errors.New("unknown template " + job.Template)
	}
	subject, text, html, err = mailtpl.Render(job.Template, job.Data)
	if err != nil {
		return "", "", "", err
	}
	if job.Subject != "" {
		subject = job.Subject
	}
	if subject == "" {
		subject = SubjectFor(job.Template)
	}
	return subject, text, html, nil
}

// Handle processes one raw queue message.
func (w *Worker) Handle(ctx context.Context, body []byte) Outcome {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.logger.WithError(err).Warn("bad email job")
		return Drop
	}
	subject, text, html, err := Render(&job)
	if err != nil {
		w.logger.WithError(err).WithField("template", job.Template).Warn("render email failed")
		return Drop
	}

	c, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()
	if err := w.sender.Send(c, job.To, subject, text, html); err != nil {
		w.logger.WithError(err).WithField("to", job.To).Error("send email failed")
		return Requeue
	}
	w.logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Info("email sent")
	return Ack
}

// Run consumes deliveries until the channel closes or ctx is done.
func (w *Worker) Run(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			switch w.Handle(ctx, msg.Body) {
			case Ack:
				_ = msg.Ack(false)
			case Drop:
				_ = msg.Nack(false, false)
			case Requeue:
				_ = msg.Nack(false, true)
			}
		}
	}
}
