package contact

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
)

type emailData struct {
	Form
	SubmittedAt string
	Paragraphs  []string
}

var htmlEmail = htmltemplate.Must(htmltemplate.New("html").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>New Website Inquiry</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #8B0000; color: white; padding: 20px;">
    <h1 style="margin: 0; font-size: 24px;">New Website Inquiry</h1>
    <p style="margin: 5px 0 0 0;">From BHB Truck Sales Website</p>
  </div>
  <table style="width: 100%; border-collapse: collapse;">
    <tr><td><strong>Name:</strong></td><td>{{.Name}}</td></tr>
    {{- if .Email}}
    <tr><td><strong>Email:</strong></td><td><a href="mailto:{{.Email}}">{{.Email}}</a></td></tr>
    {{- end}}
    {{- if .Phone}}
    <tr><td><strong>Phone:</strong></td><td><a href="tel:{{.Phone}}">{{.Phone}}</a></td></tr>
    {{- end}}
    <tr><td><strong>Subject:</strong></td><td>{{.Subject}}</td></tr>
    {{- if .TruckInterest}}
    <tr><td><strong>Truck Interest:</strong></td><td>{{.TruckInterest}}</td></tr>
    {{- end}}
  </table>
  <div style="margin-top: 20px;">
    <strong>Message:</strong>
    <div style="background: white; padding: 15px; border-left: 4px solid #8B0000;">
      {{- range $i, $p := .Paragraphs}}{{if $i}}<br>{{end}}{{$p}}{{end}}
    </div>
  </div>
  <p style="font-size: 12px; color: #666;">Submitted on: {{.SubmittedAt}}<br>From: BHB Truck Sales Website Contact Form</p>
</div>
</body>
</html>
`))

var textEmail = texttemplate.Must(texttemplate.New("text").Parse(`NEW WEBSITE INQUIRY - BHB Truck Sales

Name: {{.Name}}
{{if .Email}}Email: {{.Email}}
{{end}}{{if .Phone}}Phone: {{.Phone}}
{{end}}Subject: {{.Subject}}
{{if .TruckInterest}}Truck Interest: {{.TruckInterest}}
{{end}}
Message:
{{.Message}}

---
Submitted: {{.SubmittedAt}}
Source: BHB Truck Sales Website Contact Form
`))

// render builds the plain text and HTML bodies for f.
func render(f Form, at time.Time) (text, html string, err error) {
	data := emailData{
		Form:        f,
		SubmittedAt: at.Format(time.RFC1123),
		Paragraphs:  strings.Split(f.Message, "\n"),
	}
	var tb, hb bytes.Buffer
	if err := textEmail.Execute(&tb, data); err != nil {
		return "", "", err
	}
	if err := htmlEmail.Execute(&hb, data); err != nil {
		return "", "", err
	}
	return tb.String(), hb.String(), nil
}
