package mailer

import (
	"bytes"
	"html/template"
	"net/url"
)

var resetTemplate = template.Must(template.New("reset").Parse(`<div class="email" style="border: 1px solid black; padding: 20px; font-family: sans-serif; line-height: 2; font-size: 20px;">
  <h2>Hello There!</h2>
  <p>Your Password Reset Token is here!</p>
  <p><a href="{{.Link}}">Click here to reset</a></p>
  <p>The Shop</p>
</div>`))

// ResetLink builds {frontendURL}/reset?resetToken={token}.
func ResetLink(frontendURL, token string) string {
	return frontendURL + "/reset?resetToken=" + url.QueryEscape(token)
}

// ResetPasswordEmail renders the password reset message for to.
func ResetPasswordEmail(to, frontendURL, token string) (Message, error) {
	var buf bytes.Buffer
	err := resetTemplate.Execute(&buf, struct{ Link string }{Link: ResetLink(frontendURL, token)})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Your Password Reset Token",
		HTML:    buf.String(),
	}, nil
}
