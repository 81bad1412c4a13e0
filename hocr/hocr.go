// Package hocr parses the hOCR markup produced by the engine into a page,
// area, paragraph, line and word tree with boxes and confidences.
package hocr

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Box is a pixel rectangle in page coordinates, right and bottom exclusive.
type Box struct {
	X0, Y0, X1, Y1 int
}

func (b Box) Width() int  { return b.X1 - b.X0 }
func (b Box) Height() int { return b.Y1 - b.Y0 }

type Document struct {
	Pages []Page
}

type Page struct {
	ID     string
	BBox   Box
	Image  string
	PageNo int
	Areas  []Area
}

type Area struct {
	ID         string
	BBox       Box
	Paragraphs []Paragraph
}

type Paragraph struct {
	ID    string
	BBox  Box
	Lang  string
	Lines []Line
}

// Line is any line-level element: ocr_line, ocr_header, ocr_caption or
// ocr_textfloat. Class keeps the original class name.
type Line struct {
	ID    string
	Class string
	BBox  Box
	Words []Word
}

type Word struct {
	ID         string
	BBox       Box
	Confidence float64
	Lang       string
	Text       string
}

// Parse reads an hOCR document or fragment. Elements are recognized by
// class; missing intermediate levels are created implicitly.
//
// Parse is lenient with title properties: a malformed bbox leaves the zero
// Box, and a malformed x_wconf or ppageno reads as 0. Callers that need to
// tell a real 0 from a bad value must inspect the markup themselves.
func Parse(r io.Reader) (Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return Document{}, fmt.Errorf("hocr: parse: %w", err)
	}
	p := &parser{}
	p.walk(root)
	return p.doc, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (Document, error) {
	return Parse(strings.NewReader(s))
}

type parser struct {
	doc  Document
	page *Page
	area *Area
	par  *Paragraph
	line *Line
}

func (p *parser) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch class := hocrClass(n); class {
		case "ocr_page":
			p.doc.Pages = append(p.doc.Pages, Page{ID: attr(n, "id")})
			p.page = &p.doc.Pages[len(p.doc.Pages)-1]
			p.area, p.par, p.line = nil, nil, nil
			props := parseTitle(attr(n, "title"))
			p.page.BBox = props.bbox
			p.page.Image = props.image
			p.page.PageNo = props.pageNo
		case "ocr_carea":
			pg := p.ensurePage()
			pg.Areas = append(pg.Areas, Area{ID: attr(n, "id"), BBox: parseTitle(attr(n, "title")).bbox})
			p.area = &pg.Areas[len(pg.Areas)-1]
			p.par, p.line = nil, nil
		case "ocr_par":
			a := p.ensureArea()
			a.Paragraphs = append(a.Paragraphs, Paragraph{ID: attr(n, "id"), BBox: parseTitle(attr(n, "title")).bbox, Lang: attr(n, "lang")})
			p.par = &a.Paragraphs[len(a.Paragraphs)-1]
			p.line = nil
		case "ocr_line", "ocr_header", "ocr_caption", "ocr_textfloat":
			par := p.ensurePar()
			par.Lines = append(par.Lines, Line{ID: attr(n, "id"), Class: class, BBox: parseTitle(attr(n, "title")).bbox})
			p.line = &par.Lines[len(par.Lines)-1]
		case "ocrx_word":
			props := parseTitle(attr(n, "title"))
			l := p.ensureLine()
			l.Words = append(l.Words, Word{
				ID:         attr(n, "id"),
				BBox:       props.bbox,
				Confidence: props.conf,
				Lang:       attr(n, "lang"),
				Text:       strings.TrimSpace(textOf(n)),
			})
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c)
	}
}

func (p *parser) ensurePage() *Page {
	if p.page == nil {
		p.doc.Pages = append(p.doc.Pages, Page{})
		p.page = &p.doc.Pages[len(p.doc.Pages)-1]
	}
	return p.page
}

func (p *parser) ensureArea() *Area {
	if p.area == nil {
		pg := p.ensurePage()
		pg.Areas = append(pg.Areas, Area{})
		p.area = &pg.Areas[len(pg.Areas)-1]
	}
	return p.area
}

func (p *parser) ensurePar() *Paragraph {
	if p.par == nil {
		a := p.ensureArea()
		a.Paragraphs = append(a.Paragraphs, Paragraph{})
		p.par = &a.Paragraphs[len(a.Paragraphs)-1]
	}
	return p.par
}

func (p *parser) ensureLine() *Line {
	if p.line == nil {
		par := p.ensurePar()
		par.Lines = append(par.Lines, Line{Class: "ocr_line"})
		p.line = &par.Lines[len(par.Lines)-1]
	}
	return p.line
}

func hocrClass(n *html.Node) string {
	for _, c := range strings.Fields(attr(n, "class")) {
		if strings.HasPrefix(c, "ocr") {
			return c
		}
	}
	return ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

type titleProps struct {
	bbox   Box
	conf   float64
	image  string
	pageNo int
}

// parseTitle reads the semicolon separated properties of a title attribute,
// for example `bbox 36 92 96 116; x_wconf 93`.
func parseTitle(title string) titleProps {
	var props titleProps
	for _, part := range strings.Split(title, ";") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "bbox":
			if len(fields) == 5 {
				var v [4]int
				ok := true
				for i := range v {
					n, err := strconv.Atoi(fields[i+1])
					if err != nil {
						ok = false
						break
					}
					v[i] = n
				}
				if ok {
					props.bbox = Box{v[0], v[1], v[2], v[3]}
				}
			}
		case "x_wconf":
			if len(fields) == 2 {
				props.conf, _ = strconv.ParseFloat(fields[1], 64)
			}
		case "image":
			props.image = strings.Trim(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "image")), `"`)
		case "ppageno":
			if len(fields) == 2 {
				props.pageNo, _ = strconv.Atoi(fields[1])
			}
		}
	}
	return props
}

// Words returns every word of the document in reading order.
func (d Document) Words() []Word {
	var out []Word
	for _, pg := range d.Pages {
		for _, a := range pg.Areas {
			for _, par := range a.Paragraphs {
				for _, l := range par.Lines {
					out = append(out, l.Words...)
				}
			}
		}
	}
	return out
}

// Text joins words with spaces, lines with newlines and paragraphs with a
// blank line.
func (d Document) Text() string {
	var pars []string
	for _, pg := range d.Pages {
		for _, a := range pg.Areas {
			for _, par := range a.Paragraphs {
				lines := make([]string, 0, len(par.Lines))
				for _, l := range par.Lines {
					lines = append(lines, l.Text())
				}
				pars = append(pars, strings.Join(lines, "\n"))
			}
		}
	}
	return strings.Join(pars, "\n\n")
}

func (l Line) Text() string {
	words := make([]string, 0, len(l.Words))
	for _, w := range l.Words {
		if w.Text != "" {
			words = append(words, w.Text)
		}
	}
	return strings.Join(words, " ")
}

// Confidence is the mean word confidence of the line, or 0 without words.
func (l Line) Confidence() float64 {
	if len(l.Words) == 0 {
		return 0
	}
	var sum float64
	for _, w := range l.Words {
		sum += w.Confidence
	}
	return sum / float64(len(l.Words))
}
