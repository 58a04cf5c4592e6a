// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/b2b-marketplace/internal/i18n"
)

// I18nMiddleware picks the response language from Accept-Language, falling
// back to defaultLang.
func I18nMiddleware(defaultLang string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("lang", resolveLanguage(c.GetHeader("Accept-Language"), defaultLang))
		c.Next()
	}
}

// resolveLanguage walks the preferences in order, e.g.
// "zh-TW,zh;q=0.9,en;q=0.8", and returns the first supported one.
func resolveLanguage(header, defaultLang string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.Split(part, ";")[0])

		var lang string
		switch strings.ToLower(strings.ReplaceAll(tag, "_", "-")) {
		case "zh-tw", "zh-hant", "zh-hk", "zh":
			lang = "zh_TW"
		case "en", "en-us", "en-gb":
			lang = "en"
		default:
			continue
		}
		if i18n.IsSupported(lang) {
			return lang
		}
	}
	return defaultLang
}
