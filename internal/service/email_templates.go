package service

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/sandeepkv93/campus-notify-core/internal/domain"
)

const defaultProductName = "Campus Community"

var emailLayout = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Subject}}</title></head>
<body style="font-family:Arial,sans-serif;line-height:1.6;color:#333;max-width:600px;margin:0 auto;padding:20px">
<div style="background:#2563eb;color:#fff;padding:20px;text-align:center;border-radius:8px 8px 0 0"><h1>{{.Heading}}</h1></div>
<div style="background:#f8fafc;padding:24px;border-radius:0 0 8px 8px">
<p>Hello{{if .Name}} {{.Name}}{{end}},</p>
{{range .Paragraphs}}<p>{{.}}</p>
{{end}}{{if .Code}}<div style="background:#fff;border:2px solid #2563eb;border-radius:8px;padding:20px;text-align:center;margin:20px 0">
<div style="font-size:32px;font-weight:bold;color:#2563eb;letter-spacing:8px;font-family:monospace">{{.Code}}</div></div>
{{end}}{{if .Link}}<p><a href="{{.Link}}" style="color:#2563eb">Open {{.Product}}</a></p>
{{end}}<p style="font-size:12px;color:#666">This is an automated message from {{.Product}}. Please do not reply.</p>
</div></body></html>`))

type emailView struct {
	Subject    string
	Heading    string
	Name       string
	Paragraphs []string
	Code       string
	Link       string
	Product    string
}

// EmailRenderer builds transactional emails. User-authored text is reduced to plain
// text before it reaches a template.
type EmailRenderer struct {
	product string
	baseURL string
	policy  *bluemonday.Policy
}

func NewEmailRenderer(product, baseURL string) *EmailRenderer {
	if strings.TrimSpace(product) == "" {
		product = defaultProductName
	}
	return &EmailRenderer{
		product: product,
		baseURL: strings.TrimRight(baseURL, "/"),
		policy:  bluemonday.StrictPolicy(),
	}
}

func (r *EmailRenderer) plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(r.policy.Sanitize(s)))
}

func (r *EmailRenderer) CredentialCode(purpose domain.CredentialPurpose, code string, ttl time.Duration) (EmailMessage, error) {
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	v := emailView{Product: r.product, Code: code}
	switch purpose {
	case domain.CredentialPurposeSignupVerify:
		v.Subject = fmt.Sprintf("Verify your email - %s", r.product)
		v.Heading = "Verify your email"
		v.Paragraphs = []string{"Use this 6-digit code to finish creating your account:"}
	default:
		v.Subject = fmt.Sprintf("Password reset code - %s", r.product)
		v.Heading = "Password reset"
		v.Paragraphs = []string{"We received a request to reset your password. Use this 6-digit code to continue:"}
	}
	v.Paragraphs = append(v.Paragraphs,
		fmt.Sprintf("The code is valid for %d minutes and can be used once. If you did not request it, you can ignore this email.", minutes))

	text := fmt.Sprintf("%s\n\n%s\n\nYour code: %s\n\n%s\n", v.Heading, v.Paragraphs[0], code, v.Paragraphs[1])
	return r.render(v, text)
}

// Notification renders an escalation email. A non-empty excerpt becomes a second
// paragraph after the body.
func (r *EmailRenderer) Notification(n NotificationView, recipientName, excerpt string) (EmailMessage, error) {
	v := emailView{
		Subject:    fmt.Sprintf("%s - %s", r.plain(n.Title), r.product),
		Heading:    r.plain(n.Title),
		Name:       r.plain(recipientName),
		Paragraphs: []string{r.plain(n.Body)},
		Product:    r.product,
	}
	if quoted := r.plain(excerpt); quoted != "" {
		v.Paragraphs = append(v.Paragraphs, quoted)
	}
	if r.baseURL != "" {
		v.Link = r.baseURL + "/notifications"
		if n.RelatedPostID != nil {
			v.Link = fmt.Sprintf("%s/posts/%d", r.baseURL, *n.RelatedPostID)
		}
	}
	text := fmt.Sprintf("%s\n\n%s\n", v.Heading, strings.Join(v.Paragraphs, "\n\n"))
	if v.Link != "" {
		text += "\n" + v.Link + "\n"
	}
	return r.render(v, text)
}

func (r *EmailRenderer) render(v emailView, text string) (EmailMessage, error) {
	var buf bytes.Buffer
	if err := emailLayout.Execute(&buf, v); err != nil {
		return EmailMessage{}, fmt.Errorf("render email: %w", err)
	}
	return EmailMessage{Subject: v.Subject, HTML: buf.String(), Text: text}, nil
}
