package i18n

import (
	"sync"

	"github.com/leonelquinteros/gotext"
)

var (
	mu      sync.Mutex
	baseDir = "locales"
	locales = make(map[string]*gotext.Locale)
)

// Init points the translator at the directory holding per-language .po files.
func Init(localesDir string) {
	mu.Lock()
	defer mu.Unlock()
	baseDir = localesDir
	locales = make(map[string]*gotext.Locale)
}

func localeFor(lang string) *gotext.Locale {
	mu.Lock()
	defer mu.Unlock()
	if l, ok := locales[lang]; ok {
		return l
	}
	l := gotext.NewLocale(baseDir, lang)
	l.AddDomain("default")
	locales[lang] = l
	return l
}

// Get returns the translation for msgID in the given language, falling back
// to the msgID itself when no translation exists.
func Get(lang, msgID string, vars ...interface{}) string {
	return localeFor(lang).Get(msgID, vars...)
}

// GetN picks the singular or plural form based on n.
func GetN(lang, msgID, plural string, n int, vars ...interface{}) string {
	return localeFor(lang).GetN(msgID, plural, n, vars...)
}
