package email

import (
	"fmt"

	"github.com/apex/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Notifier sends case notifications via SendGrid. A nil Notifier is valid and
// sends nothing, so the service runs without an API key.
type Notifier struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

// NewNotifier creates a new email notifier; it returns nil when apiKey is
// empty.
func NewNotifier(apiKey, fromName, fromEmail string) *Notifier {
	if apiKey == "" {
		return nil
	}
	return &Notifier{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// SendSubmissionNotice tells the case contact that the verification report
// was submitted.
func (n *Notifier) SendSubmissionNotice(recipientEmail, caseNumber, finalStatus string) error {
	if n == nil || recipientEmail == "" {
		return nil
	}

	from := mail.NewEmail(n.fromName, n.fromEmail)
	subject := fmt.Sprintf("Verification report submitted for case %s", caseNumber)
	to := mail.NewEmail(recipientEmail, recipientEmail)

	plainText := fmt.Sprintf(`Hello,

The field verification report for case %s has been submitted with outcome: %s.

You can review the report and its evidence photos in the dashboard.

Best regards,
The CaseFlow Team`, caseNumber, finalStatus)

	htmlContent := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Verification report submitted</h2>
    <p>The field verification report for case <strong>%s</strong> has been submitted with outcome: <strong>%s</strong>.</p>
    <p>You can review the report and its evidence photos in the dashboard.</p>
    <p>Best regards,<br>The CaseFlow Team</p>
</body>
</html>`, caseNumber, finalStatus)

	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	response, err := n.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send submission notice: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}

	log.Infof("Submission notice sent to %s for case %s", recipientEmail, caseNumber)
	return nil
}
