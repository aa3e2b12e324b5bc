package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template with Data, or Subject with Text/HTML, must be set.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"` // verify_email, forgot_password, task_assigned, project_invite
	Data     map[string]any `json:"data,omitempty"`
}

func NewTemplateJob(to, template string, data map[string]any) EmailJob {
	return EmailJob{To: to, Template: template, Data: data}
}
