package shared

import "context"

// Mail templates rendered by the worker.
const (
	MailTemplateWelcome           = "welcome"
	MailTemplateTenantCreated     = "tenant_created"
	MailTemplateOrderConfirmation = "order_confirmation"
)

// Mail is a transactional email request. The worker renders Template with
// Data and delivers it.
type Mail struct {
	To       string         `json:"to"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
}

// MailQueue hands mail off for asynchronous delivery.
type MailQueue interface {
	EnqueueMail(ctx context.Context, m Mail) error
}

// NopMailQueue drops mail.
type NopMailQueue struct{}

// EnqueueMail implements MailQueue.
func (NopMailQueue) EnqueueMail(context.Context, Mail) error { return nil }
