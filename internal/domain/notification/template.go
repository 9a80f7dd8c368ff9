package notification

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"topglass/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	htmlTemplate = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/lead.html.tmpl"))
	textTemplate = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/lead.txt.tmpl"))
)

const (
	badgeGlazing  = "#0ea5e9"
	badgeBodywork = "#f97316"
)

type leadView struct {
	domain.LeadSummary
	ServiceLabel string
	BadgeStyle   htmltemplate.CSS
	PhoneURL     htmltemplate.URL
	AdminURL     string
	Zones        string
}

func newLeadView(s domain.LeadSummary, adminURL string) leadView {
	color := badgeBodywork
	if s.ServiceType == domain.ServiceGlazing {
		color = badgeGlazing
	}
	return leadView{
		LeadSummary:  s,
		ServiceLabel: s.ServiceType.Label(),
		BadgeStyle:   htmltemplate.CSS("background-color: " + color + "; color: white; padding: 4px 12px; border-radius: 4px; font-weight: bold;"),
		PhoneURL:     htmltemplate.URL("tel:" + dialable(s.Phone)),
		AdminURL:     adminURL,
		Zones:        strings.Join(s.SelectedGlassZones, ", "),
	}
}

// Subject is the mail subject for a new lead.
func Subject(s domain.LeadSummary) string {
	return fmt.Sprintf("🚗 Nouvelle demande de devis - %s - %s", s.Name, s.ServiceType.Label())
}

// Render builds the HTML and plain text bodies for a new lead.
func Render(s domain.LeadSummary, adminURL string) (html, text string, err error) {
	view := newLeadView(s, adminURL)

	var hb, tb bytes.Buffer
	if err := htmlTemplate.Execute(&hb, view); err != nil {
		return "", "", fmt.Errorf("render html: %w", err)
	}
	if err := textTemplate.Execute(&tb, view); err != nil {
		return "", "", fmt.Errorf("render text: %w", err)
	}
	return hb.String(), tb.String(), nil
}

// dialable keeps what a tel: link may carry.
func dialable(phone string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '+' {
			return r
		}
		return -1
	}, phone)
}
