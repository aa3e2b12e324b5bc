package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhub/config"
	"github.com/oksasatya/taskhub/internal/domain/entity"
	"github.com/oksasatya/taskhub/pkg/mailer"
	tpl "github.com/oksasatya/taskhub/pkg/mailer/templates"
)

const (
	verifyTokenTTL = 24 * time.Hour
	resetTokenTTL  = 30 * time.Minute
)

// MailOutbox renders template data and enqueues email jobs. A nil queue or
// MAIL_SEND_ENABLED=false turns every method into a no-op.
type MailOutbox struct {
	Queue  EmailQueue
	Cfg    *config.Config
	Logger *logrus.Logger
}

func NewMailOutbox(queue EmailQueue, cfg *config.Config, logger *logrus.Logger) *MailOutbox {
	return &MailOutbox{Queue: queue, Cfg: cfg, Logger: logger}
}

func (o *MailOutbox) enabled() bool {
	return o != nil && o.Queue != nil && o.Cfg != nil && o.Cfg.MailSendEnabled
}

func (o *MailOutbox) enqueue(ctx context.Context, to, template string, data map[string]any) {
	if err := o.Queue.PublishJSON(ctx, mailer.NewTemplateJob(to, template, data)); err != nil && o.Logger != nil {
		o.Logger.WithError(err).WithFields(logrus.Fields{"to": to, "template": template}).Warn("enqueue email failed")
	}
}

func (o *MailOutbox) VerifyEmail(ctx context.Context, u *entity.User, link string) {
	if !o.enabled() {
		return
	}
	o.enqueue(ctx, u.Email, tpl.VerifyEmail, tpl.NewVerifyEmailData(o.Cfg, u.Name, u.Email, link, verifyTokenTTL))
}

func (o *MailOutbox) ResetPassword(ctx context.Context, u *entity.User, link string) {
	if !o.enabled() {
		return
	}
	o.enqueue(ctx, u.Email, tpl.ForgotPassword, tpl.NewForgotPasswordData(o.Cfg, u.Name, u.Email, link, resetTokenTTL))
}

func (o *MailOutbox) TaskAssigned(ctx context.Context, to *entity.User, actorName string, t *entity.Task) {
	if !o.enabled() {
		return
	}
	url := o.Cfg.AppURL + "/tasks/" + t.ID
	o.enqueue(ctx, to.Email, tpl.TaskAssigned, tpl.NewTaskAssignedData(o.Cfg, to.Name, to.Email, actorName, t.Title, t.DueDate, url))
}

func (o *MailOutbox) ProjectInvite(ctx context.Context, to *entity.User, actorName string, p *entity.Project, role entity.MemberRole) {
	if !o.enabled() {
		return
	}
	url := o.Cfg.AppURL + "/projects/" + p.ID
	o.enqueue(ctx, to.Email, tpl.ProjectInvite, tpl.NewProjectInviteData(o.Cfg, to.Name, to.Email, actorName, p.Name, string(role), url))
}
