// Package notify emails the outcome of a harvest run, with the CSV
// attached, to whoever is configured to care.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("rentscout.lib.notify")

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	Recipients   []string `json:"recipients"`
}

type Mailer struct {
	config SmtpConfig
}

func NewMailer(config SmtpConfig) Mailer {
	return Mailer{config: config}
}

type RunReport struct {
	SearchURL string
	Records   int
	// Summary is the rendered stats table, included as the body.
	Summary string
	CSV     []byte
	CSVName string
}

func (m Mailer) SendRunReport(ctx context.Context, report RunReport) error {
	ctx, span := tracer.Start(ctx, "SendRunReport")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("rentscout <%s>", m.config.EmailAddress)
	mail.To = m.config.Recipients
	mail.Subject = fmt.Sprintf("Rental listings: %d found", report.Records)

	body := fmt.Sprintf(`Harvest finished for %s.

%s`, report.SearchURL, report.Summary)
	mail.Text = []byte(body)

	if len(report.CSV) > 0 {
		name := report.CSVName
		if name == "" {
			name = "listings.csv"
		}
		_, err := mail.Attach(bytes.NewReader(report.CSV), name, "text/csv")
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to attach csv")
			return err
		}
	}

	addr := fmt.Sprintf("%s:%d", m.config.Server, m.config.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", m.config.EmailAddress, m.config.Password, m.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}

	return nil
}
