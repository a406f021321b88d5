package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	pdfBaseFont = "Arial"
	pdfBaseSize = 9.0
)

// renderPDF converts a rendered markdown report into PDF bytes. The title
// only feeds the document metadata; the report carries its own H1.
func renderPDF(markdown, title string, logger arbor.ILogger) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()
	pdf.SetFont(pdfBaseFont, "", pdfBaseSize)

	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	writer := &pdfWriter{pdf: pdf, source: source}
	if err := ast.Walk(doc, writer.walk); err != nil {
		return nil, fmt.Errorf("failed to render report PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write report PDF: %w", err)
	}

	logger.Debug().Str("title", title).Int("pdf_size", buf.Len()).Msg("Report PDF rendered")
	return buf.Bytes(), nil
}

// pdfWriter lays out the report's markdown AST on the page. Reports only use
// headings, bold labels, bullet lists, paragraphs, rules, and the fenced
// blocks embedded in raw model replies.
type pdfWriter struct {
	pdf       *fpdf.Fpdf
	source    []byte
	bold      bool
	italic    bool
	listDepth int
}

func (w *pdfWriter) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		w.heading(node.Level, entering)
	case *ast.Paragraph:
		if !entering {
			w.pdf.Ln(7)
		}
	case *ast.Text:
		if entering {
			w.pdf.Write(5, string(node.Text(w.source)))
		}
	case *ast.Emphasis:
		if node.Level == 2 {
			w.bold = entering
		} else {
			w.italic = entering
		}
		w.applyFont()
	case *ast.CodeSpan:
		return w.codeSpan(node, entering)
	case *ast.FencedCodeBlock:
		if entering {
			w.codeBlock(node.Lines())
			return ast.WalkSkipChildren, nil
		}
	case *ast.CodeBlock:
		if entering {
			w.codeBlock(node.Lines())
			return ast.WalkSkipChildren, nil
		}
	case *ast.List:
		if entering {
			w.listDepth++
		} else {
			w.listDepth--
			if w.listDepth == 0 {
				w.pdf.Ln(2)
			}
		}
	case *ast.ListItem:
		if entering {
			w.pdf.Ln(5)
			w.pdf.SetX(15 + float64(w.listDepth)*5)
			w.pdf.Write(5, "- ")
		}
	case *ast.ThematicBreak:
		if entering {
			w.pdf.Ln(2)
			w.pdf.Line(15, w.pdf.GetY(), 195, w.pdf.GetY())
			w.pdf.Ln(2)
		}
	}
	return ast.WalkContinue, nil
}

func (w *pdfWriter) heading(level int, entering bool) {
	if entering {
		w.pdf.Ln(6)
		size := 10.0
		switch level {
		case 1:
			size = 14
		case 2:
			size = 12
		case 3:
			size = 11
		}
		w.pdf.SetFont(pdfBaseFont, "B", size)
		return
	}
	w.pdf.Ln(6)
	w.applyFont()
}

func (w *pdfWriter) applyFont() {
	style := ""
	if w.bold {
		style += "B"
	}
	if w.italic {
		style += "I"
	}
	w.pdf.SetFont(pdfBaseFont, style, pdfBaseSize)
}

func (w *pdfWriter) codeSpan(n *ast.CodeSpan, entering bool) (ast.WalkStatus, error) {
	if entering {
		w.pdf.SetFont("Courier", "", pdfBaseSize)
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				w.pdf.Write(5, string(t.Segment.Value(w.source)))
			}
		}
		return ast.WalkSkipChildren, nil
	}
	w.applyFont()
	return ast.WalkContinue, nil
}

func (w *pdfWriter) codeBlock(lines *text.Segments) {
	w.pdf.Ln(2)
	w.pdf.SetFont("Courier", "", pdfBaseSize)
	w.pdf.SetFillColor(245, 245, 245)
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		w.pdf.MultiCell(0, 5, string(segment.Value(w.source)), "", "L", true)
	}
	w.pdf.SetFillColor(255, 255, 255)
	w.applyFont()
	w.pdf.Ln(2)
}
