package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMainContentStripsMarkup(t *testing.T) {
	raw := `<html><head><style>body { color: red; }</style>
<script>alert("hi")</script></head>
<body><h1>Title</h1><p>Useful   text here.</p>
![logo](https://cdn.example.com/logo.png)
</body></html>`

	content := ExtractMainContent(raw)

	assert.NotContains(t, content, "<")
	assert.NotContains(t, content, "alert")
	assert.NotContains(t, content, "color: red")
	assert.NotContains(t, content, "logo.png")
	assert.Contains(t, content, "Title")
	assert.Contains(t, content, "Useful text here.")
}

func TestExtractMainContentBoundsSize(t *testing.T) {
	raw := strings.Repeat("a", maxContent+1000)
	content := ExtractMainContent(raw)
	assert.Len(t, content, maxContent)
}

func TestExtractMainContentCollapsesBlankLines(t *testing.T) {
	content := ExtractMainContent("para one\n\n\n\n\npara two")
	assert.Equal(t, "para one\n\npara two", content)
}
