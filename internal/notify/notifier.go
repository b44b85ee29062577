// Package notify sends the emails and alerts that follow a lead capture.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/leads"
	"prospect-composer/internal/models"
)

// Notification statuses.
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// EmailSender is satisfied by the SES client.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, html, text string) (string, error)
}

// Publisher is satisfied by the SNS client.
type Publisher interface {
	Publish(ctx context.Context, topicARN, subject, message string, attrs map[string]string) (string, error)
}

type Config struct {
	SiteURL       string
	SalesEmail    string
	SalesTopicARN string
}

// Notifier decides which messages a lead gets. A nil sender or publisher
// disables that channel.
type Notifier struct {
	cfg       Config
	email     EmailSender
	publisher Publisher
	logger    logger.Logger
	now       func() time.Time
}

func New(cfg Config, email EmailSender, publisher Publisher, log logger.Logger) *Notifier {
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	return &Notifier{
		cfg:       cfg,
		email:     email,
		publisher: publisher,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// DownloadURL is where the generated PDF for slug is served.
func (n *Notifier) DownloadURL(slug string) string {
	return fmt.Sprintf("%s/downloads/%s.pdf", n.cfg.SiteURL, slug)
}

// NotifyLead sends the guide delivery email for guide downloads and the sales
// alert for audits and assessments. A failed send is recorded on the returned
// notification rather than returned as an error.
func (n *Notifier) NotifyLead(ctx context.Context, lead *models.Lead) []models.Notification {
	var out []models.Notification
	if lead.FormType == models.FormTypeGuide && lead.ResourceSlug != "" {
		out = append(out, n.guideDelivery(ctx, lead))
	}
	if leads.NeedsSalesAlert(lead.FormType) {
		out = append(out, n.salesAlert(ctx, lead)...)
	}
	return out
}

func (n *Notifier) guideDelivery(ctx context.Context, lead *models.Lead) models.Notification {
	title := lead.ResourceTitle
	if title == "" {
		title = lead.ResourceSlug
	}
	rec := n.record(lead, models.NotificationGuideDelivery, models.ChannelSES, lead.Email)
	if n.email == nil {
		return rec
	}

	html, text, err := render(guideHTML, guideText, guideEmail{
		FirstName:   lead.FirstName,
		Title:       title,
		DownloadURL: n.DownloadURL(lead.ResourceSlug),
		SiteURL:     n.cfg.SiteURL,
	})
	if err != nil {
		return n.failed(rec, err)
	}
	id, err := n.email.SendEmail(ctx, lead.Email, "Your guide: "+title, html, text)
	if err != nil {
		return n.failed(rec, err)
	}
	return n.sent(rec, id)
}

func (n *Notifier) salesAlert(ctx context.Context, lead *models.Lead) []models.Notification {
	data := salesEmail{
		Name:       lead.FullName(),
		Email:      lead.Email,
		Company:    lead.Company,
		Phone:      lead.Phone,
		FormType:   string(lead.FormType),
		Tier:       string(lead.Tier),
		Industry:   lead.Industry,
		ScoreTier:  lead.AssessmentTier,
		Message:    lead.Message,
		SourcePage: lead.SourcePage,
		Campaign:   lead.UTMCampaign,
		LeadID:     lead.LeadID,
	}
	if lead.AssessmentScore != nil {
		data.Score = strconv.Itoa(*lead.AssessmentScore)
	}
	subject := fmt.Sprintf("New %s lead: %s (tier %s)", lead.FormType, lead.FullName(), lead.Tier)
	html, text, renderErr := render(salesHTML, salesText, data)

	mail := n.record(lead, models.NotificationSalesAlert, models.ChannelSES, n.cfg.SalesEmail)
	switch {
	case n.email == nil || n.cfg.SalesEmail == "":
	case renderErr != nil:
		mail = n.failed(mail, renderErr)
	default:
		id, err := n.email.SendEmail(ctx, n.cfg.SalesEmail, subject, html, text)
		if err != nil {
			mail = n.failed(mail, err)
		} else {
			mail = n.sent(mail, id)
		}
	}

	alert := n.record(lead, models.NotificationSalesAlert, models.ChannelSNS, n.cfg.SalesTopicARN)
	switch {
	case n.publisher == nil || n.cfg.SalesTopicARN == "":
	case renderErr != nil:
		alert = n.failed(alert, renderErr)
	default:
		id, err := n.publisher.Publish(ctx, n.cfg.SalesTopicARN, subject, text, map[string]string{
			"formType": string(lead.FormType),
			"tier":     string(lead.Tier),
		})
		if err != nil {
			alert = n.failed(alert, err)
		} else {
			alert = n.sent(alert, id)
		}
	}
	return []models.Notification{mail, alert}
}

func (n *Notifier) record(lead *models.Lead, kind, channel, recipient string) models.Notification {
	return models.Notification{
		ID:        uuid.New().String(),
		LeadID:    lead.LeadID,
		Type:      kind,
		Channel:   channel,
		Recipient: recipient,
		Status:    StatusDisabled,
		SentAt:    n.now(),
	}
}

func (n *Notifier) sent(rec models.Notification, messageID string) models.Notification {
	rec.Status = StatusSent
	rec.MessageID = messageID
	n.logger.Info("Notification sent", map[string]interface{}{
		"leadId":    rec.LeadID,
		"type":      rec.Type,
		"channel":   rec.Channel,
		"messageId": messageID,
	})
	return rec
}

func (n *Notifier) failed(rec models.Notification, err error) models.Notification {
	rec.Status = StatusFailed
	n.logger.Error("Notification failed", map[string]interface{}{
		"leadId":  rec.LeadID,
		"type":    rec.Type,
		"channel": rec.Channel,
		"error":   err.Error(),
	})
	return rec
}
