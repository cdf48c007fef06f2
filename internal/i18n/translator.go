package i18n

import (
	"embed"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"storefront-payments/internal/domain/ports/adapter"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// Catalog resolves user-facing message keys from embedded YAML catalogs.
// Lookup order: requested locale, default locale, then the key itself so a
// missing translation stays diagnosable instead of blank.
type Catalog struct {
	defaultLocale string
	messages      map[string]map[string]string // locale -> flattened key -> text
}

var _ adapter.Translator = (*Catalog)(nil)

func NewCatalog(defaultLocale string) (*Catalog, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}
	c := &Catalog{
		defaultLocale: defaultLocale,
		messages:      make(map[string]map[string]string, len(entries)),
	}
	for _, e := range entries {
		locale := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		raw, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", locale, err)
		}
		var tree map[string]interface{}
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", locale, err)
		}
		flat := make(map[string]string)
		flatten("", tree, flat)
		c.messages[locale] = flat
	}
	if _, ok := c.messages[defaultLocale]; !ok {
		return nil, fmt.Errorf("default locale %q has no catalog", defaultLocale)
	}
	return c, nil
}

// Translate resolves key for the locale and interpolates {var} placeholders.
func (c *Catalog) Translate(locale, key string, vars map[string]string) string {
	text, ok := c.lookup(locale, key)
	if !ok {
		text, ok = c.lookup(c.defaultLocale, key)
	}
	if !ok {
		return key
	}
	for k, v := range vars {
		text = strings.ReplaceAll(text, "{"+k+"}", v)
	}
	return text
}

func (c *Catalog) lookup(locale, key string) (string, bool) {
	msgs, ok := c.messages[locale]
	if !ok {
		return "", false
	}
	text, ok := msgs[key]
	return text, ok
}

func flatten(prefix string, tree map[string]interface{}, out map[string]string) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		case map[string]interface{}:
			flatten(key, val, out)
		}
	}
}
