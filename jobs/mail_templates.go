package jobs

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/bakeops/bakeops/internal/shared"
)

type mailTemplate struct {
	subject *template.Template
	body    *template.Template
}

func mustMail(name, subject, body string) mailTemplate {
	return mailTemplate{
		subject: template.Must(template.New(name + ".subject").Option("missingkey=zero").Parse(subject)),
		body:    template.Must(template.New(name + ".body").Option("missingkey=zero").Parse(body)),
	}
}

var mailTemplates = map[string]mailTemplate{
	shared.MailTemplateWelcome: mustMail(shared.MailTemplateWelcome,
		`Welcome to Bakeops`,
		`Hi {{.Name}},

You have been added to a bakery team on Bakeops as {{.Role}}.
{{if .NewAccount}}Sign in with the email address this message was sent to and the password you were given.
{{else}}Sign in with your existing account and switch to the new bakery from the tenant menu.
{{end}}`),
	shared.MailTemplateTenantCreated: mustMail(shared.MailTemplateTenantCreated,
		`{{.TenantName}} is ready`,
		`Hi {{.Name}},

Your bakery {{.TenantName}} has been created. Customers can order from your storefront at /shop/{{.Slug}}.
`),
	shared.MailTemplateOrderConfirmation: mustMail(shared.MailTemplateOrderConfirmation,
		`{{.Shop}} order {{.Reference}}`,
		`Hi {{.Name}},

Thanks for your order. Pick it up at {{.Location}} on {{.PickupDate}}.

{{range .Lines}}{{.Quantity}} x {{.Name}}  {{.Total}}
{{end}}
Total: {{.Total}}
Reference: {{.Reference}}
`),
}

// Render produces the message for m without a sender address.
func Render(m shared.Mail) (Message, error) {
	tpl, ok := mailTemplates[m.Template]
	if !ok {
		return Message{}, fmt.Errorf("mail: unknown template %q", m.Template)
	}
	var subject, body bytes.Buffer
	if err := tpl.subject.Execute(&subject, m.Data); err != nil {
		return Message{}, fmt.Errorf("mail: render subject: %w", err)
	}
	if err := tpl.body.Execute(&body, m.Data); err != nil {
		return Message{}, fmt.Errorf("mail: render body: %w", err)
	}
	return Message{To: m.To, Subject: strings.TrimSpace(subject.String()), Body: body.String()}, nil
}
