package markdown

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestFormatInline(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"**bold**", "<strong>bold</strong>"},
		{"__bold__", "<strong>bold</strong>"},
		{"*italic*", "<em>italic</em>"},
		{"**bold *italic* text**", "<strong>bold <em>italic</em> text</strong>"},
		{"use `**raw**` here", "use <code>**raw**</code> here"},
		{"snake_case_title", "snake_case_title"},
		{"<script>", "&lt;script&gt;"},
		{"Tom & Jerry", "Tom &amp; Jerry"},
	}
	for _, tt := range tests {
		if got := FormatInline(tt.input); got != tt.expected {
			t.Errorf("FormatInline(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatInlineLinks(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"[contacto](/contacto/)", `<a href="/contacto/">contacto</a>`},
		{"[web](https://example.com/a_b_c)", `<a href="https://example.com/a_b_c" target="_blank" rel="noopener noreferrer">web</a>`},
		{"[mail](mailto:legal@example.com)", `<a href="mailto:legal@example.com">mail</a>`},
		{"[x](javascript:alert(1))", "x)"},
		{"[x](//evil.example)", "x"},
	}
	for _, tt := range tests {
		if got := FormatInline(tt.input); got != tt.expected {
			t.Errorf("FormatInline(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestRenderBlocks(t *testing.T) {
	md := strings.Join([]string{
		"# Aviso legal",
		"",
		"Primer párrafo",
		"continúa aquí.",
		"",
		"- uno",
		"- dos",
		"1. primero",
		"2. segundo",
		"> cita",
		"> sigue",
		"---",
		"### Detalle",
		"```",
		"<b>literal</b>",
		"```",
	}, "\n")

	var buf bytes.Buffer
	Render(&buf, md)
	got := buf.String()

	want := "<h2>Aviso legal</h2>" +
		"<p>Primer párrafo continúa aquí.</p>" +
		"<ul><li>uno</li><li>dos</li></ul>" +
		"<ol><li>primero</li><li>segundo</li></ol>" +
		"<blockquote>cita<br/>sigue</blockquote>" +
		"<hr/>" +
		"<h3>Detalle</h3>" +
		"<pre><code>&lt;b&gt;literal&lt;/b&gt;\n</code></pre>"
	if got != want {
		t.Errorf("Render mismatch\n got: %s\nwant: %s", got, want)
	}
}

func TestRenderClosesUnterminatedCode(t *testing.T) {
	got := HTML("```\nx := 1")
	if got != "<pre><code>x := 1\n</code></pre>" {
		t.Errorf("got %q", got)
	}
}

func TestMarkdownComponent(t *testing.T) {
	var buf bytes.Buffer
	if err := Markdown("Hola **mundo**").Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.String() != "<p>Hola <strong>mundo</strong></p>" {
		t.Errorf("got %q", buf.String())
	}
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		input    string
		max      int
		expected string
	}{
		{"Una **serie** alemana.", 100, "Una serie alemana."},
		{"Ver [aquí](/x/) ya", 100, "Ver aquí ya"},
		{"uno dos tres cuatro", 12, "uno dos tres…"},
		{"uno dos, tres", 9, "uno dos…"},
		{"  \n ", 10, ""},
	}
	for _, tt := range tests {
		if got := Excerpt(tt.input, tt.max); got != tt.expected {
			t.Errorf("Excerpt(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.expected)
		}
	}
}
