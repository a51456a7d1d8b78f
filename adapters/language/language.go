// Package language maps the short language codes accepted by the API to the
// BCP-47 tags expected by Google Cloud voice services.
package language

import "strings"

var regions = map[string]string{
	"fr": "fr-FR",
	"en": "en-US",
	"es": "es-ES",
	"de": "de-DE",
	"it": "it-IT",
	"pt": "pt-PT",
	"ar": "ar-XA",
	"nl": "nl-NL",
	"ja": "ja-JP",
	"zh": "cmn-CN",
}

// BCP47 returns a full tag for lang. Values already carrying a region are
// returned unchanged; unknown or empty values fall back to French.
func BCP47(lang string) string {
	lang = strings.TrimSpace(lang)
	if strings.Contains(lang, "-") {
		return lang
	}
	if tag, ok := regions[strings.ToLower(lang)]; ok {
		return tag
	}
	return regions["fr"]
}
