package formsubmit

import (
	"embed"
	"io/fs"
)

//go:embed templates/email/*.html
var embeddedEmailTemplates embed.FS

// EmailTemplates exposes the built-in notification body templates. An email
// config selects one with `template: summary`.
//
// Typical use:
//
//	composer, err := mail.NewComposer(mail.WithFS(formsubmit.EmailTemplates()))
func EmailTemplates() fs.FS {
	sub, err := fs.Sub(embeddedEmailTemplates, "templates/email")
	if err != nil {
		return embeddedEmailTemplates
	}
	return sub
}
