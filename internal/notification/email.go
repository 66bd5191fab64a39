package notification

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"sort"
	"strings"

	"github.com/ikkim/configurator-backend/config"
	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/pkg/logger"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

// Mailer sends composed messages. *gomail.Dialer satisfies it.
type Mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailNotifier sends the admin notification and customer emails.
type EmailNotifier struct {
	mailer    Mailer
	cfg       config.SMTPConfig
	templates *template.Template
}

func NewSMTPMailer(cfg config.SMTPConfig) *gomail.Dialer {
	return gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
}

func NewEmailNotifier(mailer Mailer, cfg config.SMTPConfig) (*EmailNotifier, error) {
	tmpl, err := template.New("email").Funcs(template.FuncMap{
		"upper": strings.ToUpper,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &EmailNotifier{mailer: mailer, cfg: cfg, templates: tmpl}, nil
}

type emailData struct {
	RFQ        model.RFQ
	Selections []selectionLine
	OldStatus  model.RFQStatus
	NewStatus  model.RFQStatus
	GrandTotal string
	Costs      []costLine
	ViewURL    string
	AdminURL   string
}

type selectionLine struct {
	LayerID uint
	Name    string
	Value   string
}

type costLine struct {
	Description string
	Amount      string
}

type outgoing struct {
	to       string
	subject  string
	template string
}

func (n *EmailNotifier) Notify(ctx context.Context, event Event) error {
	var mails []outgoing
	rfq := event.RFQ

	switch event.Type {
	case EventCreated:
		mails = append(mails,
			outgoing{n.cfg.AdminEmail, fmt.Sprintf("New quote request #%d: %s", rfq.ID, rfq.ProductName), "admin_new_rfq.html"},
			outgoing{rfq.Customer.Email, fmt.Sprintf("We received your quote request #%d", rfq.ID), "customer_confirmation.html"},
		)
	case EventStatusChanged:
		if !event.NotifyCustomer {
			return nil
		}
		if event.NewStatus == model.RFQStatusQuoted {
			mails = append(mails, outgoing{rfq.Customer.Email, fmt.Sprintf("Your quote #%d is ready", rfq.ID), "quote_ready.html"})
		} else {
			mails = append(mails, outgoing{rfq.Customer.Email, fmt.Sprintf("Quote #%d update: %s", rfq.ID, event.NewStatus), "quote_update.html"})
		}
	}

	data := n.buildData(event)
	var firstErr error
	for _, m := range mails {
		if m.to == "" {
			continue
		}
		if err := n.send(m, data); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		logger.Info("Email sent", map[string]interface{}{
			"rfq_id":   rfq.ID,
			"template": m.template,
		})
	}
	return firstErr
}

func (n *EmailNotifier) send(m outgoing, data emailData) error {
	var body bytes.Buffer
	if err := n.templates.ExecuteTemplate(&body, m.template, data); err != nil {
		return fmt.Errorf("render %s: %w", m.template, err)
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", n.cfg.FromEmail, n.cfg.FromName)
	msg.SetHeader("To", m.to)
	msg.SetHeader("Subject", m.subject)
	msg.SetBody("text/html", body.String())

	if err := n.mailer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send %s: %w", m.template, err)
	}
	return nil
}

func (n *EmailNotifier) buildData(event Event) emailData {
	rfq := event.RFQ
	base := strings.TrimRight(n.cfg.SiteURL, "/")

	var lines []selectionLine
	for id, sel := range rfq.Selections.Data() {
		lines = append(lines, selectionLine{LayerID: id, Name: sel.Name, Value: sel.Value})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].LayerID < lines[j].LayerID })

	var costs []costLine
	for _, c := range rfq.Pricing.AdditionalCosts.Data() {
		costs = append(costs, costLine{Description: c.Description, Amount: c.Amount.StringFixed(2)})
	}

	return emailData{
		RFQ:        rfq,
		Selections: lines,
		OldStatus:  event.OldStatus,
		NewStatus:  event.NewStatus,
		GrandTotal: rfq.Pricing.GrandTotal.StringFixed(2),
		Costs:      costs,
		ViewURL:    fmt.Sprintf("%s/rfq/%d?token=%s", base, rfq.ID, url.QueryEscape(rfq.AccessToken)),
		AdminURL:   fmt.Sprintf("%s/admin/rfqs/%d", base, rfq.ID),
	}
}
