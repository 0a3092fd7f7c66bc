// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package notify sends outbound shop email: new-order alerts to the vendor
// and status updates to customers. Delivery is best-effort; callers log and
// continue when Send fails, a lost email never fails an order.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"os"
	"strings"
)

// ShopOrderEmail is the vendor inbox that receives new-order alerts.
const ShopOrderEmail = "ella@cupcakery.com"

// Notifier is the outbound email collaborator.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// EmailNotifier sends mail over SMTP with STARTTLS.
//
// Description:
//
//	Credentials come from SMTP_EMAIL and SMTP_PASSWORD; host and port from
//	SMTP_HOST and SMTP_PORT with Gmail defaults. When credentials are absent
//	(local development, tests) Send degrades to a mock: it logs the message
//	headers at Info level and reports success.
//
// Thread Safety: Safe for concurrent use. Each Send opens its own connection.
type EmailNotifier struct {
	host     string
	port     string
	from     string
	password string
	logger   *slog.Logger
}

// NewEmailNotifier builds a notifier from the environment.
func NewEmailNotifier(logger *slog.Logger) *EmailNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		host = "smtp.gmail.com"
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	return &EmailNotifier{
		host:     host,
		port:     port,
		from:     os.Getenv("SMTP_EMAIL"),
		password: os.Getenv("SMTP_PASSWORD"),
		logger:   logger,
	}
}

// Send delivers one plain-text email.
//
// Inputs:
//   - ctx: Unused by net/smtp but kept for interface symmetry.
//   - to: Recipient address. Blank recipients are skipped with a warning.
//   - subject: Subject line.
//   - body: Plain-text body.
//
// Outputs:
//   - error: Non-nil only on an SMTP failure with credentials configured.
func (n *EmailNotifier) Send(_ context.Context, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		n.logger.Warn("email skipped, no recipient", slog.String("subject", subject))
		return nil
	}
	if n.from == "" || n.password == "" {
		n.logger.Info("mock email (SMTP credentials not configured)",
			slog.String("to", to),
			slog.String("subject", subject))
		return nil
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s",
		n.from, to, subject, body)
	auth := smtp.PlainAuth("", n.from, n.password, n.host)
	addr := n.host + ":" + n.port

	if err := smtp.SendMail(addr, auth, n.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("notify: sending email to %s: %w", to, err)
	}
	n.logger.Debug("email sent", slog.String("to", to), slog.String("subject", subject))
	return nil
}

// LogNotifier records sent mail in memory. Test double.
type LogNotifier struct {
	Sent []SentMail
}

// SentMail is one captured message.
type SentMail struct {
	To      string
	Subject string
	Body    string
}

func (n *LogNotifier) Send(_ context.Context, to, subject, body string) error {
	n.Sent = append(n.Sent, SentMail{To: to, Subject: subject, Body: body})
	return nil
}
