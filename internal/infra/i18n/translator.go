package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var LocalesFS embed.FS

// Translator holds the messages of one language.
type Translator struct {
	lang         string
	translations map[string]string
}

// NewTranslator loads locales/<langCode>.yaml from fsys.
func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := path.Join("locales", langCode+".yaml")
	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read translation file %s: %w", filePath, err)
	}
	t, err := newTranslatorFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	t.lang = langCode
	return t, nil
}

func newTranslatorFromBytes(data []byte) (*Translator, error) {
	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation file: %w", err)
	}
	return &Translator{translations: translations}, nil
}

// T returns the message for key, formatted with args. Unknown keys come back as is.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

func (t *Translator) Lang() string { return t.lang }

// Bundle picks a Translator for an Accept-Language header.
type Bundle struct {
	matcher     language.Matcher
	translators []*Translator
}

// NewBundle loads defaultLang plus every extra language. The default is used
// whenever the client asks for nothing we have.
func NewBundle(fsys fs.FS, defaultLang string, langs ...string) (*Bundle, error) {
	all := append([]string{defaultLang}, langs...)
	b := &Bundle{translators: make([]*Translator, 0, len(all))}
	tags := make([]language.Tag, 0, len(all))
	for _, l := range all {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("language %q: %w", l, err)
		}
		t, err := NewTranslator(fsys, l)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
		b.translators = append(b.translators, t)
	}
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

// Match returns the best translator for the header value.
func (b *Bundle) Match(acceptLanguage string) *Translator {
	if acceptLanguage == "" {
		return b.translators[0]
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return b.translators[0]
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return b.translators[0]
	}
	return b.translators[idx]
}
