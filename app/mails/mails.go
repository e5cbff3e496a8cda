// Package mails renders the storefront's transactional emails.
package mails

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/mail"
)

var verificationTmpl = template.Must(template.New("verify").Parse(`
<p>Please verify your email by clicking the link below:</p>
<a href="{{.URL}}">{{.URL}}</a>
<p>This link will expire in 24 hours.</p>
`))

var orderTmpl = template.Must(template.New("order").Parse(`
<p>Hi {{.Order.Address.FirstName}},</p>
<p>{{.Headline}}</p>
<table>
{{range .Order.Items}}<tr><td>{{.Name}} ({{.Size}})</td><td>× {{.Quantity}}</td><td>{{$.Currency}} {{.Subtotal}}</td></tr>
{{end}}</table>
<p>Total: {{.Currency}} {{.Order.Amount}} · Payment: {{.Order.PaymentMethod}}</p>
`))

// Verification is the email sent after registration.
func Verification(to, url string) (mail.Message, error) {
	var buf bytes.Buffer
	if err := verificationTmpl.Execute(&buf, struct{ URL string }{url}); err != nil {
		return mail.Message{}, fmt.Errorf("mails: verification: %w", err)
	}
	return mail.Message{To: to, Subject: "Email Verification", HTML: buf.String()}, nil
}

// OrderConfirmation is sent when an order is placed or its payment settles.
func OrderConfirmation(to string, order *models.Order, currency string, paid bool) (mail.Message, error) {
	headline := "We have received your order and will let you know when it ships."
	subject := fmt.Sprintf("Order #%d placed", order.ID)
	if paid {
		headline = "Your payment was received. Thank you for your order!"
		subject = fmt.Sprintf("Payment received for order #%d", order.ID)
	}
	var buf bytes.Buffer
	err := orderTmpl.Execute(&buf, struct {
		Order    *models.Order
		Headline string
		Currency string
	}{order, headline, currency})
	if err != nil {
		return mail.Message{}, fmt.Errorf("mails: order confirmation: %w", err)
	}
	return mail.Message{To: to, Subject: subject, HTML: buf.String()}, nil
}
