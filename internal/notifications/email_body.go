package notifications

import (
	"bytes"
	"html/template"
)

const passwordResetSubject = "Reset your password"

var passwordResetTmpl = template.Must(template.New("password_reset").Parse(`<!DOCTYPE html>
<html>
<body>
  <p>Hello{{if .Name}} {{.Name}}{{end}},</p>
  <p>You requested a password reset for your account.</p>
  <p>This link is valid for <strong>{{.ValidFor}}</strong>.</p>
  <div style="text-align:center; margin:25px 0;">
    <a href="{{.ResetLink}}"
       style="display:inline-block;padding:14px 26px;background:#1e40af;color:#ffffff;text-decoration:none;border-radius:8px;font-size:16px;font-weight:600;">
       Reset Password
    </a>
  </div>
  <p>If you didn't request this, ignore this email.</p>
</body>
</html>
`))

// PasswordResetEmail renders the subject and HTML body for a reset email.
// Kept exported so real provider integrations can reuse the template.
func PasswordResetEmail(in SendPasswordResetInput) (subject, htmlBody string, err error) {
	var buf bytes.Buffer

	if err := passwordResetTmpl.Execute(&buf, in); err != nil {
		return "", "", err
	}

	return passwordResetSubject, buf.String(), nil
}
