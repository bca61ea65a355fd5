package notification

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"
)

type MessageType string

const (
	Welcome             MessageType = "welcome"
	RenewalConfirmation MessageType = "renewal_confirmation"
	PTConfirmation      MessageType = "pt_confirmation"
	ExpiringReminder    MessageType = "expiring_reminder"
	ExpiredReminder     MessageType = "expired_reminder"
)

var ErrUnknownType = errors.New("unknown message type")

// Data fills the message templates. Unused fields are ignored.
type Data struct {
	Name     string
	Plan     string
	Trainer  string
	EndDate  time.Time
	DaysLeft int
}

// Message is a request to notify one member.
type Message struct {
	To       string
	MemberID int
	Type     MessageType
	Data     Data
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("02 Jan 2006") },
	"plan": func(code string) string { return strings.ReplaceAll(code, "_", " ") },
}

var templates = map[MessageType]*template.Template{
	Welcome: template.Must(template.New(string(Welcome)).Funcs(funcs).Parse(
		`Hi {{.Name}}, welcome aboard! Your {{plan .Plan}} membership is active until {{date .EndDate}}.`)),
	RenewalConfirmation: template.Must(template.New(string(RenewalConfirmation)).Funcs(funcs).Parse(
		`Hi {{.Name}}, your {{plan .Plan}} membership has been renewed. It is now valid until {{date .EndDate}}.`)),
	PTConfirmation: template.Must(template.New(string(PTConfirmation)).Funcs(funcs).Parse(
		`Hi {{.Name}}, personal training with {{.Trainer}} is booked until {{date .EndDate}}.`)),
	ExpiringReminder: template.Must(template.New(string(ExpiringReminder)).Funcs(funcs).Parse(
		`Hi {{.Name}}, your membership ends on {{date .EndDate}}{{if eq .DaysLeft 0}} (today){{else if eq .DaysLeft 1}} (tomorrow){{else}} (in {{.DaysLeft}} days){{end}}. Renew at the front desk to keep training.`)),
	ExpiredReminder: template.Must(template.New(string(ExpiredReminder)).Funcs(funcs).Parse(
		`Hi {{.Name}}, your membership expired on {{date .EndDate}}. We miss you! Renew any time at the front desk.`)),
}

// ParseType validates a message type coming from a request.
func ParseType(s string) (MessageType, error) {
	t := MessageType(s)
	if _, ok := templates[t]; !ok {
		return "", ErrUnknownType
	}
	return t, nil
}

// Render builds the message body for t.
func Render(t MessageType, data Data) (string, error) {
	tmpl, ok := templates[t]
	if !ok {
		return "", ErrUnknownType
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t, err)
	}
	return buf.String(), nil
}

// NormalizePhone keeps digits only and prefixes the Indian country code to
// bare 10-digit numbers, which is what the WhatsApp API expects.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 10 {
		return "91" + digits
	}
	return digits
}
