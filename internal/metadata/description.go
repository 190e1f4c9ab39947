package metadata

import (
	"bytes"
	"fmt"
	"strings"

	goorg "github.com/niklasfasching/go-org/org"
	"github.com/yuin/goldmark"
	mdast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	mdtext "github.com/yuin/goldmark/text"
)

// PlainDescription renders the description as plain text suitable for the
// <description> element of model.config.
func (m Metadata) PlainDescription() (string, error) {
	body := strings.TrimSpace(m.Description)
	if body == "" {
		return "", nil
	}
	switch m.DescriptionFormat {
	case "", FormatMarkdown:
		return markdownToText([]byte(body)), nil
	case FormatOrg:
		return orgToText(body)
	case FormatText:
		return body, nil
	default:
		return "", fmt.Errorf("metadata: unknown description_format %q", m.DescriptionFormat)
	}
}

func markdownToText(src []byte) string {
	md := goldmark.New(goldmark.WithExtensions(extension.Strikethrough, extension.Linkify))
	root := md.Parser().Parse(mdtext.NewReader(src))

	var blocks []string
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		var text string
		switch node := n.(type) {
		case *mdast.List:
			var items []string
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				items = append(items, "- "+inlineText(item, src))
			}
			text = strings.Join(items, "\n")
		case *mdast.FencedCodeBlock, *mdast.CodeBlock:
			text = rawLines(n, src)
		default:
			text = inlineText(n, src)
		}
		if text != "" {
			blocks = append(blocks, text)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func inlineText(n mdast.Node, src []byte) string {
	var b bytes.Buffer
	_ = mdast.Walk(n, func(nn mdast.Node, entering bool) (mdast.WalkStatus, error) {
		if !entering {
			return mdast.WalkContinue, nil
		}
		switch tn := nn.(type) {
		case *mdast.Text:
			b.Write(tn.Segment.Value(src))
			if tn.SoftLineBreak() || tn.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *mdast.String:
			b.Write(tn.Value)
		case *mdast.AutoLink:
			b.Write(tn.URL(src))
		}
		return mdast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func rawLines(n mdast.Node, src []byte) string {
	var b bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return strings.TrimRight(b.String(), "\n")
}

func orgToText(body string) (string, error) {
	doc := goorg.New().Parse(strings.NewReader(body), "")
	out, err := doc.Write(goorg.NewOrgWriter())
	if err != nil {
		return "", fmt.Errorf("rendering org description: %w", err)
	}

	var paragraphs []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = nil
		}
	}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "#+"):
			// keywords and block delimiters
		case strings.HasPrefix(strings.TrimLeft(line, "*"), " ") && strings.HasPrefix(line, "*"):
			// headline
			flush()
			paragraphs = append(paragraphs, strings.TrimSpace(strings.TrimLeft(line, "*")))
		default:
			current = append(current, line)
		}
	}
	flush()
	return strings.Join(paragraphs, "\n\n"), nil
}
