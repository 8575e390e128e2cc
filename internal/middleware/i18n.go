// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/curated-market/internal/i18n"
)

func I18nMiddleware(defaultLang string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("lang", negotiateLanguage(c.GetHeader("Accept-Language"), defaultLang))
		c.Next()
	}
}

// negotiateLanguage takes the first preference of a header such as "zh-TW,zh;q=0.9,en;q=0.8".
func negotiateLanguage(header, defaultLang string) string {
	if header == "" {
		return defaultLang
	}

	first := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
	// Convert common language codes
	switch first {
	case "zh-TW", "zh-Hant", "zh_TW", "zh-HK":
		first = "zh_TW"
	case "en-US", "en-GB":
		first = "en"
	}

	if i18n.IsSupported(first) {
		return first
	}

	// Fall back to a supported locale sharing the primary subtag, e.g. en-AU -> en.
	primary := strings.FieldsFunc(first, func(r rune) bool { return r == '-' || r == '_' })
	if len(primary) == 0 {
		return defaultLang
	}
	for _, lang := range i18n.GetSupportedLanguages() {
		if lang == primary[0] || strings.HasPrefix(lang, primary[0]+"_") {
			return lang
		}
	}
	return defaultLang
}
