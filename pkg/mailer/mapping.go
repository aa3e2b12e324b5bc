package mailer

import (
	"fmt"
	"strings"

	mailtpl "github.com/oksasatya/taskhub/pkg/mailer/templates"
)

// SubjectFor is the fallback subject used when a template renders an empty one.
func SubjectFor(template string) string {
	switch strings.ToLower(template) {
	case mailtpl.VerifyEmail:
		return "Verify your email address"
	case mailtpl.ForgotPassword:
		return "Reset your password"
	case mailtpl.TaskAssigned:
		return "You have a new task"
	case mailtpl.ProjectInvite:
		return "You were added to a project"
	default:
		return "Notification"
	}
}

// EnsureRecipient fills the recipient fields of the template data from job.To.
func EnsureRecipient(job *EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	for _, k := range []string{"Email", "RecipientEmail"} {
		if v, ok := job.Data[k]; !ok || v == nil || fmt.Sprintf("%v", v) == "" {
			job.Data[k] = job.To
		}
	}
	if _, ok := job.Data["Type"]; !ok && job.Template != "" {
		job.Data["Type"] = job.Template
	}
}
