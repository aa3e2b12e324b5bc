package templates

import (
	"strings"
	"time"

	"github.com/oksasatya/taskhub/config"
)

// Option pattern
type Option func(*EmailData)

func WithVerifyURL(url string) Option { return func(d *EmailData) { d.VerifyURL = url } }
func WithResetURL(url string) Option  { return func(d *EmailData) { d.ResetURL = url } }
func WithActionURL(url string) Option { return func(d *EmailData) { d.ActionURL = url } }
func WithActor(name string) Option    { return func(d *EmailData) { d.ActorName = strings.TrimSpace(name) } }

func WithTask(title string, due *time.Time) Option {
	return func(d *EmailData) {
		d.TaskTitle = title
		if due != nil {
			d.DueText = due.UTC().Format("02 January 2006")
		}
	}
}

func WithProject(name, role string) Option {
	return func(d *EmailData) {
		d.ProjectName = name
		d.Role = role
	}
}

func WithExpiresIn(dur time.Duration) Option {
	return func(d *EmailData) {
		utc := time.Now().Add(dur).UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format("02 January 2006, 15:04 MST")
	}
}

// NewBaseEmailData fills the branding fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ string, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,

		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		AppName:        cfg.AppName,

		LogoURL:        cfg.LogoURL,
		SupportURL:     cfg.SupportURL,
		PrivacyURL:     cfg.PrivacyURL,
		UnsubscribeURL: cfg.UnsubscribeURL,

		ResetURL:  cfg.ResetPasswordURL,
		VerifyURL: cfg.VerifyEmailURL,
		ActionURL: cfg.AppURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewVerifyEmailData(cfg *config.Config, name, email, verifyURL string, ttl time.Duration) map[string]any {
	d := NewBaseEmailData(cfg, VerifyEmail, name, email, WithVerifyURL(verifyURL), WithExpiresIn(ttl))
	return ToMap(d)
}

func NewForgotPasswordData(cfg *config.Config, name, email, resetURL string, ttl time.Duration) map[string]any {
	d := NewBaseEmailData(cfg, ForgotPassword, name, email, WithResetURL(resetURL), WithExpiresIn(ttl))
	return ToMap(d)
}

func NewTaskAssignedData(cfg *config.Config, name, email, actor, title string, due *time.Time, url string) map[string]any {
	d := NewBaseEmailData(cfg, TaskAssigned, name, email, WithActor(actor), WithTask(title, due), WithActionURL(url))
	return ToMap(d)
}

func NewProjectInviteData(cfg *config.Config, name, email, actor, project, role, url string) map[string]any {
	d := NewBaseEmailData(cfg, ProjectInvite, name, email, WithActor(actor), WithProject(project, role), WithActionURL(url))
	return ToMap(d)
}
