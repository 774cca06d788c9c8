package notify

import (
	"embed"
	"fmt"
	"html"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

//go:embed active.*.toml
var localeFS embed.FS

// Composer renders credential emails from the embedded message catalogue.
type Composer struct {
	localizer *i18n.Localizer
	loginURL  string
}

func NewComposer(locale string, loginURL string) (*Composer, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}

	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	if _, err := bundle.LoadMessageFileFS(localeFS, "active.en.toml"); err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	return &Composer{
		localizer: i18n.NewLocalizer(bundle, tag.String(), language.English.String()),
		loginURL:  loginURL,
	}, nil
}

// Compose returns the subject and HTML body for cred.
func (c *Composer) Compose(cred Credential) (string, string, error) {
	subject, err := c.localizer.Localize(&i18n.LocalizeConfig{MessageID: "ApprovalSubject"})
	if err != nil {
		return "", "", err
	}

	body, err := c.localizer.Localize(&i18n.LocalizeConfig{
		MessageID: "ApprovalBody",
		TemplateData: map[string]any{
			"Name":     html.EscapeString(cred.Name),
			"Email":    html.EscapeString(cred.Email),
			"Password": html.EscapeString(cred.Password),
			"LoginURL": c.loginURL,
		},
	})
	if err != nil {
		return "", "", err
	}

	return subject, body, nil
}
