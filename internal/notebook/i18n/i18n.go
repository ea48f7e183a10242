// Package i18n translates user facing API messages. Translations live in
// embedded YAML files, one per language; English is the fallback.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

type Translator struct {
	bundle *i18n.Bundle
}

// New loads every embedded locale file.
func New() (*Translator, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + f.Name())
		if err != nil {
			return nil, err
		}
		if _, err := bundle.ParseMessageFileBytes(data, f.Name()); err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", f.Name(), err)
		}
	}

	return &Translator{bundle: bundle}, nil
}

// MustNew is New for embedded files known to be valid.
func MustNew() *Translator {
	t, err := New()
	if err != nil {
		panic(err)
	}
	return t
}

// T translates messageID for the given Accept-Language values. A missing
// translation falls back to English, and a missing message to its ID.
func (t *Translator) T(messageID string, langs ...string) string {
	msg, err := i18n.NewLocalizer(t.bundle, langs...).Localize(&i18n.LocalizeConfig{MessageID: messageID})
	if err != nil {
		return messageID
	}
	return msg
}

// Languages lists the loaded translations.
func (t *Translator) Languages() []language.Tag {
	return t.bundle.LanguageTags()
}
