// Package email provides email templates.
package email

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"
)

// OrderInfo carries the fields rendered into order email templates.
type OrderInfo struct {
	OrderNumber   string
	CustomerName  string
	CustomerEmail string
	Status        string
	StatusNote    string
	Total         string
	Items         []OrderItem
	OrderDate     string
}

// OrderItem is a single order line rendered in email bodies.
type OrderItem struct {
	Name       string
	Quantity   int
	UnitPrice  string
	TotalPrice string
}

// DesignInfo carries the fields rendered into design review emails.
type DesignInfo struct {
	DesignName    string
	CustomerName  string
	CustomerEmail string
	Status        string
	ReviewNote    string
}

// Renderer renders the built-in email templates.
type Renderer struct {
	templates *template.Template
}

// NewRenderer creates a new email template renderer with built-in templates.
func NewRenderer() (*Renderer, error) {
	bodies := map[string]struct{ html, text string }{
		"order_paid":      {orderPaidHTML, orderPaidText},
		"order_status":    {orderStatusHTML, orderStatusText},
		"design_reviewed": {designReviewedHTML, designReviewedText},
	}

	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("January 2, 2006")
		},
	}

	tmpl := template.New("email").Funcs(funcMap)
	for key, b := range bodies {
		if _, err := tmpl.New(key + "_html").Parse(b.html); err != nil {
			return nil, fmt.Errorf("failed to parse HTML template %s: %w", key, err)
		}
		if _, err := tmpl.New(key + "_text").Parse(b.text); err != nil {
			return nil, fmt.Errorf("failed to parse text template %s: %w", key, err)
		}
	}

	return &Renderer{templates: tmpl}, nil
}

func (r *Renderer) render(templateName, to, subject string, data any) (*Email, error) {
	var htmlBuf, textBuf bytes.Buffer

	if err := r.templates.ExecuteTemplate(&htmlBuf, templateName+"_html", data); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}
	if err := r.templates.ExecuteTemplate(&textBuf, templateName+"_text", data); err != nil {
		return nil, fmt.Errorf("failed to render text template: %w", err)
	}

	return &Email{
		To:      to,
		Subject: subject,
		Text:    textBuf.String(),
		HTML:    htmlBuf.String(),
	}, nil
}

// SendOrderPaid sends a payment confirmation email.
func SendOrderPaid(ctx context.Context, p Provider, info *OrderInfo) error {
	if p == nil {
		return nil
	}
	renderer, err := NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	subject := fmt.Sprintf("Payment Received - Order %s", info.OrderNumber)
	email, err := renderer.render("order_paid", info.CustomerEmail, subject, info)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}
	return p.SendEmail(ctx, email)
}

// SendOrderStatus sends an order status update email.
func SendOrderStatus(ctx context.Context, p Provider, info *OrderInfo) error {
	if p == nil {
		return nil
	}
	renderer, err := NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	subject := fmt.Sprintf("Order %s is now %s", info.OrderNumber, info.Status)
	email, err := renderer.render("order_status", info.CustomerEmail, subject, info)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}
	return p.SendEmail(ctx, email)
}

// SendDesignReviewed sends a design review result email.
func SendDesignReviewed(ctx context.Context, p Provider, info *DesignInfo) error {
	if p == nil {
		return nil
	}
	renderer, err := NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	subject := fmt.Sprintf("Your design %q has been %s", info.DesignName, info.Status)
	email, err := renderer.render("design_reviewed", info.CustomerEmail, subject, info)
	if err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}
	return p.SendEmail(ctx, email)
}

const orderPaidText = `Hi {{.CustomerName}},

We have received your payment for order {{.OrderNumber}}.

{{range .Items}}- {{.Name}} x{{.Quantity}} ({{.TotalPrice}})
{{end}}
Total: {{.Total}}

We'll start working on your order right away.

ThreadForge
`

const orderPaidHTML = `<html><body>
<p>Hi {{.CustomerName}},</p>
<p>We have received your payment for order <strong>{{.OrderNumber}}</strong>.</p>
<table>
{{range .Items}}<tr><td>{{.Name}}</td><td>x{{.Quantity}}</td><td>{{.TotalPrice}}</td></tr>
{{end}}</table>
<p>Total: <strong>{{.Total}}</strong></p>
<p>We'll start working on your order right away.</p>
<p>ThreadForge</p>
</body></html>`

const orderStatusText = `Hi {{.CustomerName}},

Your order {{.OrderNumber}} is now {{.Status}}.
{{if .StatusNote}}
Note: {{.StatusNote}}
{{end}}
ThreadForge
`

const orderStatusHTML = `<html><body>
<p>Hi {{.CustomerName}},</p>
<p>Your order <strong>{{.OrderNumber}}</strong> is now <strong>{{.Status}}</strong>.</p>
{{if .StatusNote}}<p>Note: {{.StatusNote}}</p>{{end}}
<p>ThreadForge</p>
</body></html>`

const designReviewedText = `Hi {{.CustomerName}},

Your design "{{.DesignName}}" has been {{.Status}}.
{{if .ReviewNote}}
Reviewer note: {{.ReviewNote}}
{{end}}
ThreadForge
`

const designReviewedHTML = `<html><body>
<p>Hi {{.CustomerName}},</p>
<p>Your design <strong>{{.DesignName}}</strong> has been <strong>{{.Status}}</strong>.</p>
{{if .ReviewNote}}<p>Reviewer note: {{.ReviewNote}}</p>{{end}}
<p>ThreadForge</p>
</body></html>`
