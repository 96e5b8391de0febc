package harti

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"bulletin-etl/models"
)

// Glyphs whose baselines are closer than this many points share a line.
const lineTolerance = 2.0

// PDFTextExtractor reads the plain text of single document pages.
type PDFTextExtractor struct{}

// PageText returns the text of the 1-based page of doc, one output line per
// visual line of the page, top to bottom.
func (PDFTextExtractor) PageText(doc []byte, page int) (text string, err error) {
	// ledongthuc/pdf panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: page %d: %v", models.ErrParse, page, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %v", models.ErrParse, err)
	}
	if page < 1 || page > r.NumPage() {
		return "", fmt.Errorf("%w: page %d of %d", models.ErrParse, page, r.NumPage())
	}
	p := r.Page(page)
	if p.V.IsNull() {
		return "", fmt.Errorf("%w: page %d is empty", models.ErrParse, page)
	}
	return strings.Join(pageLines(p.Content().Text), "\n"), nil
}

type textLine struct {
	y      float64
	glyphs []pdf.Text
}

// pageLines groups positioned glyphs into lines by baseline and orders them
// top to bottom, left to right. A space is inserted where the gap between
// two glyphs is wider than a third of the font size.
func pageLines(glyphs []pdf.Text) []string {
	var lines []*textLine
	for _, g := range glyphs {
		if g.S == "\n" || g.S == "\r" {
			continue
		}
		var line *textLine
		for _, l := range lines {
			if math.Abs(l.y-g.Y) <= lineTolerance {
				line = l
				break
			}
		}
		if line == nil {
			line = &textLine{y: g.Y}
			lines = append(lines, line)
		}
		line.glyphs = append(line.glyphs, g)
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })

	out := make([]string, 0, len(lines))
	for _, l := range lines {
		sort.SliceStable(l.glyphs, func(i, j int) bool { return l.glyphs[i].X < l.glyphs[j].X })
		var b strings.Builder
		for i, g := range l.glyphs {
			if i > 0 {
				prev := l.glyphs[i-1]
				gap := g.X - (prev.X + prev.W)
				if gap > g.FontSize/3 && prev.S != " " && g.S != " " {
					b.WriteByte(' ')
				}
			}
			b.WriteString(g.S)
		}
		out = append(out, b.String())
	}
	return out
}
