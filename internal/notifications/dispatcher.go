// Package notifications delivers review decisions to designers by email and SMS.
package notifications

import (
	"context"
	"fmt"
	"strings"

	"designer-onboarding/internal/common/logger"
	"designer-onboarding/internal/common/metrics"
	"designer-onboarding/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/segmentio/ksuid"
)

const (
	channelEmail = "email"
	channelSMS   = "sms"

	outcomeSent     = "sent"
	outcomeFailed   = "failed"
	outcomeDisabled = "disabled"
)

// SESService is the part of the SES client the dispatcher uses.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SNSService is the part of the SNS client the dispatcher uses.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	ReplyTo      string
	SupportEmail string
	SiteBaseURL  string
	LoginPath    string
	SMSSenderID  string
}

type Dispatcher struct {
	config Config
	ses    SESService
	sns    SNSService
	logger logger.Logger
}

func NewDispatcher(cfg Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Dispatcher {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/auth/login"
	}
	if cfg.SupportEmail == "" {
		cfg.SupportEmail = cfg.FromEmail
	}
	return &Dispatcher{
		config: cfg,
		ses:    sesClient,
		sns:    snsClient,
		logger: log.WithFields(map[string]interface{}{"component": "notifications"}),
	}
}

// Dispatch sends the message for kind to the applicant. Failures are reported
// in the result, never returned. Email is the primary channel: SMS is a
// courtesy ping and its failure only fails the result when email is off.
func (d *Dispatcher) Dispatch(ctx context.Context, kind models.NotificationKind, app *models.Application, creds *models.Credentials) models.NotificationResult {
	tmpl, ok := templates[kind]
	if !ok {
		return models.NotificationResult{Error: fmt.Sprintf("no template for notification kind %q", kind)}
	}

	data := d.templateData(kind, app, creds)
	log := d.logger.WithFields(map[string]interface{}{
		"applicationId": app.ID,
		"kind":          string(kind),
	})

	emailOn := d.config.EmailEnabled && d.ses != nil
	smsOn := d.config.SMSEnabled && d.sns != nil && app.Phone != nil && strings.TrimSpace(*app.Phone) != ""

	if !emailOn && !smsOn {
		metrics.NotificationsSent.WithLabelValues(string(kind), channelEmail, outcomeDisabled).Inc()
		log.Info("No notification channel enabled, skipping", nil)
		return models.NotificationResult{Error: "no notification channel enabled"}
	}

	var result models.NotificationResult

	if emailOn {
		messageID, err := d.sendEmail(ctx, app.Email, renderTemplate(tmpl.Subject, data), renderTemplate(tmpl.Body, data))
		if err != nil {
			metrics.NotificationsSent.WithLabelValues(string(kind), channelEmail, outcomeFailed).Inc()
			log.Error("Email send failed", map[string]interface{}{"error": err.Error()})
			result.Error = fmt.Sprintf("email: %v", err)
		} else {
			metrics.NotificationsSent.WithLabelValues(string(kind), channelEmail, outcomeSent).Inc()
			result.Success = true
			result.MessageID = messageID
		}
	}

	if smsOn {
		messageID, err := d.sendSMS(ctx, strings.TrimSpace(*app.Phone), renderTemplate(tmpl.SMS, data))
		if err != nil {
			metrics.NotificationsSent.WithLabelValues(string(kind), channelSMS, outcomeFailed).Inc()
			log.Warn("SMS send failed", map[string]interface{}{"error": err.Error()})
			if !emailOn {
				result.Error = fmt.Sprintf("sms: %v", err)
			}
		} else {
			metrics.NotificationsSent.WithLabelValues(string(kind), channelSMS, outcomeSent).Inc()
			if !emailOn {
				result.Success = true
				result.MessageID = messageID
			}
		}
	}

	if result.Success {
		log.Info("Notification sent", map[string]interface{}{"messageId": result.MessageID})
	}
	return result
}

func (d *Dispatcher) templateData(kind models.NotificationKind, app *models.Application, creds *models.Credentials) map[string]interface{} {
	siteURL := strings.TrimRight(d.config.SiteBaseURL, "/")
	data := map[string]interface{}{
		"designerName": app.DesignerName,
		"brandName":    app.BrandName,
		"email":        app.Email,
		"siteUrl":      siteURL,
		"supportEmail": d.config.SupportEmail,
	}

	switch kind {
	case models.NotificationApproval:
		data["accessSection"] = accessSection(creds, siteURL+d.config.LoginPath)
	case models.NotificationRejection:
		data["notesSection"] = notesSection(app.Notes)
	}
	return data
}

func (d *Dispatcher) sendEmail(ctx context.Context, to, subject, body string) (string, error) {
	input := &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
				Html: &sestypes.Content{Data: aws.String(toHTML(body)), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(d.config.FromEmail),
	}
	if d.config.ReplyTo != "" {
		input.ReplyToAddresses = []string{d.config.ReplyTo}
	}

	out, err := d.ses.SendEmail(ctx, input)
	if err != nil {
		return "", err
	}
	return messageID(out.MessageId), nil
}

func (d *Dispatcher) sendSMS(ctx context.Context, to, message string) (string, error) {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
		},
	}
	if d.config.SMSSenderID != "" {
		input.MessageAttributes["AWS.SNS.SMS.SenderID"] = snstypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(d.config.SMSSenderID),
		}
	}

	out, err := d.sns.Publish(ctx, input)
	if err != nil {
		return "", err
	}
	return messageID(out.MessageId), nil
}

// messageID falls back to a local id when the provider returns none.
func messageID(id *string) string {
	if id != nil && *id != "" {
		return *id
	}
	return ksuid.New().String()
}
