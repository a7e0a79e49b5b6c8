// Package mailer delivers the verification emails sent when a contact is
// created or changes its address.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
)

// VerificationSubject is the subject line of every verification email.
const VerificationSubject = "Confirm your email"

//go:embed templates/*.html
var templateFS embed.FS

var verificationTemplate = template.Must(template.ParseFS(templateFS, "templates/verification.html"))

// Verification describes one verification email.
type Verification struct {
	Email string
	Name  string
	Link  string
}

// Mailer sends verification emails.
type Mailer interface {
	SendVerification(ctx context.Context, v Verification) error
}

// renderVerification renders the HTML body of v.
func renderVerification(v Verification) (string, error) {
	var buf bytes.Buffer
	if err := verificationTemplate.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("failed to render verification email: %w", err)
	}
	return buf.String(), nil
}
