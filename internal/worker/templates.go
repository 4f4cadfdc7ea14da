package worker

import (
	"bytes"
	"fmt"
	"html/template"
)

type emailTemplate struct {
	subject string
	body    *template.Template
}

var (
	enrollmentEmail = emailTemplate{
		subject: "You are enrolled in %s",
		body: template.Must(template.New("enrollment").Parse(
			`<p>Hi {{.Name}},</p>` +
				`<p>You now have access to <b>{{.CourseTitle}}</b>.</p>` +
				`<p><a href="{{.CourseURL}}">Start learning</a></p>`)),
	}
	courseCompletedEmail = emailTemplate{
		subject: "Congratulations on finishing %s",
		body: template.Must(template.New("course_completed").Parse(
			`<p>Hi {{.Name}},</p>` +
				`<p>You completed every lesson of <b>{{.CourseTitle}}</b>.</p>` +
				`<p><a href="{{.CourseURL}}">Leave a review</a></p>`)),
	}
	submissionGradedEmail = emailTemplate{
		subject: "Feedback on %s",
		body: template.Must(template.New("submission_graded").Parse(
			`<p>Hi {{.Name}},</p>` +
				`{{if .Returned}}<p>Your submission for <b>{{.AssignmentTitle}}</b> was returned for another try.</p>` +
				`{{else}}<p>Your submission for <b>{{.AssignmentTitle}}</b> was graded: {{.Score}} / {{.MaxScore}}.</p>{{end}}` +
				`{{with .Feedback}}<blockquote>{{.}}</blockquote>{{end}}` +
				`<p><a href="{{.CourseURL}}">Open the course</a></p>`)),
	}
	reviewModeratedEmail = emailTemplate{
		subject: "Your review of %s",
		body: template.Must(template.New("review_moderated").Parse(
			`<p>Hi {{.Name}},</p>` +
				`{{if .Approved}}<p>Your review of <b>{{.CourseTitle}}</b> is now public.</p>` +
				`{{else}}<p>Your review of <b>{{.CourseTitle}}</b> was not published.</p>{{end}}` +
				`{{with .Note}}<p>Moderator note: {{.}}</p>{{end}}`)),
	}
)

// render returns the subject and HTML body for the given title and data
func (t emailTemplate) render(title string, data any) (string, string, error) {
	var buf bytes.Buffer
	if err := t.body.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("failed to render %s email: %w", t.body.Name(), err)
	}
	return fmt.Sprintf(t.subject, title), buf.String(), nil
}
