package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderBasic(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render("# Hello\n\nsome *emphasis*")
	assert.NoError(t, err)
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<em>emphasis</em>")
}

func TestRenderStripsScripts(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render(`hello <script>alert("x")</script> world`)
	assert.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "hello")
}

func TestRenderAutolink(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render("see https://example.com for details")
	assert.NoError(t, err)
	assert.Contains(t, out, `<a href="https://example.com"`)
}

func TestRenderStripsInlineHandlers(t *testing.T) {
	r := NewRenderer()

	out, err := r.Render(`<a href="https://example.com" onclick="steal()">link</a>`)
	assert.NoError(t, err)
	assert.NotContains(t, out, "onclick")
}
