package markdown

import (
	"strings"
	"testing"
)

func TestRenderBasicMarkdown(t *testing.T) {
	html := Render("**bold** and _italic_")

	if !strings.Contains(html, "<strong>bold</strong>") {
		t.Errorf("expected bold markup, got %q", html)
	}
	if !strings.Contains(html, "<em>italic</em>") {
		t.Errorf("expected italic markup, got %q", html)
	}
}

func TestRenderStripsScripts(t *testing.T) {
	html := Render(`hello <script>alert("xss")</script> world`)

	if strings.Contains(html, "<script>") {
		t.Errorf("script tag survived sanitization: %q", html)
	}
	if !strings.Contains(html, "hello") {
		t.Errorf("legitimate content was lost: %q", html)
	}
}

func TestRenderLinks(t *testing.T) {
	html := Render("[repo](https://example.com/repo)")

	if !strings.Contains(html, `href="https://example.com/repo"`) {
		t.Errorf("expected link markup, got %q", html)
	}

	// javascript: URLs must not survive
	html = Render("[bad](javascript:alert(1))")
	if strings.Contains(html, "javascript:") {
		t.Errorf("javascript URL survived sanitization: %q", html)
	}
}
