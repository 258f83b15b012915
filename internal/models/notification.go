package models

import (
	"fmt"
	"net/url"
)

// Severity controls how the notification surface treats a message.
type Severity string

const (
	// SeverityLoading dismisses other notifications and never times out
	// while the transaction is in flight
	SeverityLoading Severity = "loading"

	// SeveritySuccess auto-dismisses after AutoDismissSeconds
	SeveritySuccess Severity = "success"

	// SeverityError is sticky until the user dismisses it and carries a
	// pre-filled support action
	SeverityError Severity = "error"
)

// SuccessAutoDismissSeconds is how long a success notification stays up.
const SuccessAutoDismissSeconds = 6

// Notification is one (title, message, severity) triple for the shared
// notification surface, plus the machine detail the support flow embeds.
type Notification struct {
	Title              string   `json:"title"`
	Message            string   `json:"message"`
	Severity           Severity `json:"severity"`
	Detail             string   `json:"detail,omitempty"`
	SupportMailto      string   `json:"supportMailto,omitempty"`
	AutoDismissSeconds int      `json:"autoDismissSeconds,omitempty"`
}

// SupportMailto builds a pre-filled mailto link embedding the technical
// detail string, so "email support" carries everything needed to reconcile.
func SupportMailto(supportEmail, subject, detail string) string {
	q := url.Values{}
	q.Set("subject", subject)
	q.Set("body", detail)
	return fmt.Sprintf("mailto:%s?%s", supportEmail, q.Encode())
}
