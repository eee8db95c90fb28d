package email

import (
	"encoding/base64"
	"fmt"

	"eco-report-service/metrics"
	"eco-report-service/models"
	"eco-report-service/report"

	"github.com/apex/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const reportImgFilename = "report.jpg"

// Sender submits finished civic reports to a recipient address with the
// analyzed photo attached. A remote failure never affects the already
// produced ReportRecord.
type Sender struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

// NewSender creates a sender, or nil when no API key is configured so
// callers can treat email submission as disabled.
func NewSender(apiKey, fromName, fromEmail string) *Sender {
	if apiKey == "" {
		return nil
	}
	return &Sender{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// SendReport emails the formatted report text with the photo attached.
func (s *Sender) SendReport(recipient string, record *models.ReportRecord, imageData []byte) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(recipient, recipient)
	subject := fmt.Sprintf("Environmental incident report %s: %s (%s severity)",
		record.ReportID, record.Classification.Category, record.Severity.Level)

	message := mail.NewV3Mail()
	message.SetFrom(from)
	message.Subject = subject

	p := mail.NewPersonalization()
	p.AddTos(to)
	message.AddPersonalizations(p)

	message.AddContent(mail.NewContent("text/plain", report.FormatForDisplay(record)))

	if len(imageData) > 0 {
		attachment := mail.NewAttachment()
		attachment.SetContent(base64.StdEncoding.EncodeToString(imageData))
		attachment.SetType("image/jpeg")
		attachment.SetFilename(reportImgFilename)
		attachment.SetDisposition("attachment")
		message.AddAttachment(attachment)
	}

	response, err := s.client.Send(message)
	if err != nil {
		metrics.EmailSubmissionsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to send report %s to %s: %w", record.ReportID, recipient, err)
	}

	metrics.EmailSubmissionsTotal.WithLabelValues("ok").Inc()
	log.Infof("Report %s emailed to %s, status %d", record.ReportID, recipient, response.StatusCode)
	return nil
}
