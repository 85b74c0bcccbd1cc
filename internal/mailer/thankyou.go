package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
)

//go:embed templates/*
var templateFS embed.FS

var (
	thankYouHTML = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/thank_you.html"))
	thankYouText = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/thank_you.txt"))
)

// ThankYouData fills the acknowledgement sent after a contact submission.
type ThankYouData struct {
	SiteName         string
	SiteURL          string
	Subject          string
	Name             string
	Email            string
	Phone            string
	PropertyInterest string
	ContactEmail     string
	Year             int
}

// ThankYou renders the acknowledgement email. Submitted values are escaped
// in the HTML part.
func ThankYou(d ThankYouData) (Message, error) {
	if d.Year == 0 {
		d.Year = time.Now().Year()
	}
	if d.Subject == "" {
		d.Subject = "Thank you for your inquiry"
	}

	var html, text bytes.Buffer
	if err := thankYouHTML.Execute(&html, d); err != nil {
		return Message{}, fmt.Errorf("render thank-you html: %w", err)
	}
	if err := thankYouText.Execute(&text, d); err != nil {
		return Message{}, fmt.Errorf("render thank-you text: %w", err)
	}

	return Message{
		To:      d.Email,
		ToName:  d.Name,
		Subject: d.Subject,
		HTML:    html.String(),
		Text:    strings.TrimSpace(text.String()),
		ReplyTo: d.ContactEmail,
	}, nil
}
