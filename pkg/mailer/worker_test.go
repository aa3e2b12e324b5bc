package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mailtpl "github.com/oksasatya/taskhub/pkg/mailer/templates"
)

type sentMail struct {
	to, subject, text, html string
}

type fakeSender struct {
	sent []sentMail
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, text, html})
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func jobBody(t *testing.T, job EmailJob) []byte {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return b
}

func TestWorkerRendersTemplate(t *testing.T) {
	sender := &fakeSender{}
	w := NewWorker(sender, quietLogger())

	job := NewTemplateJob("ana@example.com", mailtpl.TaskAssigned, map[string]any{
		"Name":      "Ana",
		"ActorName": "Bo",
		"TaskTitle": "Write report",
		"ActionURL": "http://localhost:3000/tasks/1",
	})
	assert.Equal(t, Ack, w.Handle(context.Background(), jobBody(t, job)))

	require.Len(t, sender.sent, 1)
	got := sender.sent[0]
	assert.Equal(t, "ana@example.com", got.to)
	assert.Equal(t, `Bo assigned you "Write report"`, got.subject)
	assert.Contains(t, got.text, "Write report")
	assert.Contains(t, got.html, "http://localhost:3000/tasks/1")
}

func TestWorkerDropsBadJobs(t *testing.T) {
	w := NewWorker(&fakeSender{}, quietLogger())

	assert.Equal(t, Drop, w.Handle(context.Background(), []byte("{not json")))
	assert.Equal(t, Drop, w.Handle(context.Background(), jobBody(t, EmailJob{To: "a@b.c", Template: "nope"})))
	assert.Equal(t, Drop, w.Handle(context.Background(), jobBody(t, EmailJob{Template: mailtpl.VerifyEmail})))
	assert.Equal(t, Drop, w.Handle(context.Background(), jobBody(t, EmailJob{To: "a@b.c"})))
}

func TestWorkerRequeuesOnSendFailure(t *testing.T) {
	w := NewWorker(&fakeSender{err: errors.New("mailgun down")}, quietLogger())
	job := EmailJob{To: "a@b.c", Subject: "hi", Text: "plain"}
	assert.Equal(t, Requeue, w.Handle(context.Background(), jobBody(t, job)))
}

func TestRenderDefaultsRecipientAndSubject(t *testing.T) {
	job := NewTemplateJob("x@example.com", mailtpl.VerifyEmail, nil)
	subject, _, html, err := Render(&job)
	require.NoError(t, err)
	assert.Equal(t, "TaskHub: verify your email address", subject)
	assert.Equal(t, "x@example.com", job.Data["Email"])
	assert.Equal(t, mailtpl.VerifyEmail, job.Data["Type"])
	assert.Contains(t, html, "Hi there")
}

func TestSubjectFor(t *testing.T) {
	assert.Equal(t, "Reset your password", SubjectFor("FORGOT_PASSWORD"))
	assert.Equal(t, "Notification", SubjectFor("other"))
}
