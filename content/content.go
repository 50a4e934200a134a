// Package content renders lesson bodies and code samples as templ components.
package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/a-h/templ"
	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// StyleName is the chroma style used for highlighted code.
const StyleName = "github"

var (
	formatter = chromahtml.New(chromahtml.WithClasses(true), chromahtml.TabWidth(4))

	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(util.Prioritized(codeRenderer{}, 100)),
		),
	)

	policy = newPolicy()
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-zA-Z0-9 _-]+$`)).OnElements("div", "span", "pre", "code")
	return p
}

// Markdown returns a component that renders src as sanitized HTML.
// Fenced code blocks are highlighted the same way Code does.
func Markdown(src string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out, err := RenderMarkdown(src)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	})
}

// RenderMarkdown converts src to sanitized HTML.
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return policy.Sanitize(buf.String()), nil
}

// Code returns a component that renders src as a highlighted block with a
// language badge. Unknown languages fall back to plain text.
func Code(lang, src string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := highlight(&buf, lang, src); err != nil {
			return err
		}
		_, err := io.WriteString(w, policy.Sanitize(buf.String()))
		return err
	})
}

func highlight(w io.Writer, lang, src string) error {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, src)
	if err != nil {
		return fmt.Errorf("tokenise %s: %w", lang, err)
	}

	label := strings.TrimSpace(lang)
	if label == "" {
		label = "text"
	}
	if _, err := fmt.Fprintf(w, `<div class="code-block"><div class="code-lang">%s</div>`, templ.EscapeString(label)); err != nil {
		return err
	}
	if err := formatter.Format(w, style(), it); err != nil {
		return fmt.Errorf("format %s: %w", lang, err)
	}
	_, err = io.WriteString(w, "</div>")
	return err
}

func style() *chroma.Style {
	if s := styles.Get(StyleName); s != nil {
		return s
	}
	return styles.Fallback
}

// CSS returns the stylesheet for highlighted code.
func CSS() (string, error) {
	var buf bytes.Buffer
	if err := formatter.WriteCSS(&buf, style()); err != nil {
		return "", fmt.Errorf("write code css: %w", err)
	}
	return buf.String(), nil
}

// codeRenderer routes fenced code blocks through chroma.
type codeRenderer struct{}

func (r codeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCode)
}

func (r codeRenderer) renderFencedCode(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	var code strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}
	if err := highlight(w, string(n.Language(source)), code.String()); err != nil {
		return ast.WalkStop, err
	}
	return ast.WalkSkipChildren, nil
}
