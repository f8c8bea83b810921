package markdown

import (
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

var policy = bluemonday.UGCPolicy()

// Render converts user-supplied markdown to sanitized HTML.
// The sanitization pass strips any raw HTML the markdown renderer let through.
func Render(text string) string {
	html := blackfriday.Run([]byte(text),
		blackfriday.WithExtensions(
			blackfriday.CommonExtensions|blackfriday.HardLineBreak,
		),
	)
	return string(policy.SanitizeBytes(html))
}
