package report

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/ericfisherdev/timeguru/internal/domain/processor"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(goldhtml.WithUnsafe()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
}

const htmlHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.5rem; }
td:nth-last-child(-n+3) { text-align: right; }
</style>
</head>
<body>
`

// WriteHTML writes r as a standalone HTML page. The body is produced as
// GitHub-flavoured markdown and sanitized after conversion, so entry
// descriptions can never inject markup.
func WriteHTML(w io.Writer, r Report) error {
	body, err := RenderMarkdown(r.Markdown())
	if err != nil {
		return err
	}

	title := "Time report"
	if r.IncludeMetadata {
		title = r.metaLines()[0]
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, htmlHead, html.EscapeString(title))
	buf.WriteString(body)
	buf.WriteString("</body>\n</html>\n")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write html report: %w", err)
	}
	return nil
}

// RenderMarkdown converts a markdown string to sanitized HTML.
func RenderMarkdown(src string) (string, error) {
	if src == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return htmlSanitizer.Sanitize(buf.String()), nil
}

// Markdown renders r as a markdown document with a summary and a table.
func (r Report) Markdown() string {
	var b strings.Builder

	if r.IncludeMetadata {
		lines := r.metaLines()
		fmt.Fprintf(&b, "# %s\n\n", mdEscape(lines[0]))
		for _, l := range lines[1:] {
			fmt.Fprintf(&b, "- %s\n", mdEscape(l))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "**Total:** %s (billable %s, non-billable %s) across %d entries\n\n",
		processor.FormatHours(r.Summary.Total),
		processor.FormatHours(r.Summary.Billable),
		processor.FormatHours(r.Summary.NonBillable),
		r.Summary.Count,
	)

	header := r.header()
	writeMDRow(&b, header)
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	writeMDRow(&b, sep)
	for _, l := range r.Lines {
		writeMDRow(&b, r.cells(l))
	}
	return b.String()
}

func writeMDRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(mdEscape(c))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

var mdReplacer = strings.NewReplacer(
	`\`, `\\`,
	"|", `\|`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", "&lt;",
	">", "&gt;",
	"\n", " ",
	"\r", " ",
)

func mdEscape(s string) string {
	return mdReplacer.Replace(s)
}
