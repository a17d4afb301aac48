package mail

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
)

// TemplateActivation is the template used for account activation codes.
const TemplateActivation = "activation"

var builtinTemplates = map[string]struct {
	subject string
	body    string
}{
	TemplateActivation: {
		subject: "Activate your account",
		body: `Hi {{.name}},

Thank you for signing up. Your activation code is {{.activation_code}}.

The code expires shortly, so please complete the activation soon.
If you did not create an account, you can ignore this message.
`,
	},
}

// Dispatcher sends a templated notification to a single recipient.
type Dispatcher interface {
	Dispatch(ctx context.Context, to, templateName string, data map[string]any) error
}

// TemplateDispatcher renders named templates and delivers them through a Mailer.
type TemplateDispatcher struct {
	mailer    Mailer
	subjects  map[string]string
	templates map[string]*template.Template
}

// NewTemplateDispatcher parses the built-in templates and binds them to the mailer.
func NewTemplateDispatcher(mailer Mailer) (*TemplateDispatcher, error) {
	if mailer == nil {
		return nil, fmt.Errorf("mail: mailer is required")
	}

	d := &TemplateDispatcher{
		mailer:    mailer,
		subjects:  make(map[string]string, len(builtinTemplates)),
		templates: make(map[string]*template.Template, len(builtinTemplates)),
	}

	for name, tpl := range builtinTemplates {
		parsed, err := template.New(name).Parse(tpl.body)
		if err != nil {
			return nil, fmt.Errorf("mail: parse template %q: %w", name, err)
		}
		d.subjects[name] = tpl.subject
		d.templates[name] = parsed
	}

	return d, nil
}

// Dispatch renders the named template with the payload and sends the result.
func (d *TemplateDispatcher) Dispatch(ctx context.Context, to, templateName string, data map[string]any) error {
	tpl, ok := d.templates[templateName]
	if !ok {
		return fmt.Errorf("mail: unknown template %q", templateName)
	}

	var body bytes.Buffer
	if err := tpl.Execute(&body, data); err != nil {
		return fmt.Errorf("mail: render template %q: %w", templateName, err)
	}

	return d.mailer.Send(ctx, Message{
		To:      to,
		Subject: d.subjects[templateName],
		Body:    body.String(),
	})
}
