package email

import (
	"bytes"
	"html/template"
)

// TemplateManager holds the parsed email templates.
type TemplateManager struct {
	digestTmpl   *template.Template
	followUpTmpl *template.Template
}

// NewTemplateManager parses all email templates at startup.
func NewTemplateManager() (*TemplateManager, error) {
	digestTmpl, err := template.New("taskDigest").Parse(taskDigestTemplate)
	if err != nil {
		return nil, err
	}

	followUpTmpl, err := template.New("followUpReminder").Parse(followUpReminderTemplate)
	if err != nil {
		return nil, err
	}

	return &TemplateManager{
		digestTmpl:   digestTmpl,
		followUpTmpl: followUpTmpl,
	}, nil
}

// DigestTask is one row of the urgent-task digest.
type DigestTask struct {
	Title    string
	Subtitle string
	Due      string
	Status   string
}

// DigestData holds the dynamic data for the urgent-task digest email.
type DigestData struct {
	Date  string
	Tasks []DigestTask
}

// FollowUpData holds the dynamic data for a lead follow-up reminder.
type FollowUpData struct {
	BusinessName string
	Due          string
}

// GenerateTaskDigestHTML executes the digest template with the provided data.
func (tm *TemplateManager) GenerateTaskDigestHTML(data DigestData) (string, error) {
	var body bytes.Buffer
	if err := tm.digestTmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

// GenerateFollowUpReminderHTML executes the follow-up reminder template.
func (tm *TemplateManager) GenerateFollowUpReminderHTML(data FollowUpData) (string, error) {
	var body bytes.Buffer
	if err := tm.followUpTmpl.Execute(&body, data); err != nil {
		return "", err
	}
	return body.String(), nil
}

// --- HTML Template Definitions ---

const taskDigestTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>Today's Route Tasks</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>Tasks needing attention — {{.Date}}</h2>
	<table border="0" cellpadding="6">
		<tr><th align="left">Task</th><th align="left">Detail</th><th align="left">Due</th><th align="left">Status</th></tr>
		{{range .Tasks}}
		<tr>
			<td>{{.Title}}</td>
			<td>{{.Subtitle}}</td>
			<td>{{.Due}}</td>
			<td>{{.Status}}</td>
		</tr>
		{{end}}
	</table>
	<p>Open the dashboard to start a route run or record a collection.</p>
</body>
</html>
`

const followUpReminderTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>Lead Follow-up Reminder</title>
</head>
<body style="font-family: Arial, sans-serif;">
	<h2>Follow up with {{.BusinessName}}</h2>
	<p>Their next follow-up is due {{.Due}}.</p>
	<p>Log the outcome on the leads board once you've spoken to them.</p>
</body>
</html>
`
