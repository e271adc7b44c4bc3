package document

import (
	"bytes"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// PDFText extracts the text of a PDF one visual line at a time: lines top
// to bottom, glyphs left to right, a space wherever glyphs do not touch.
// Pages are separated by a blank line.
func PDFText(b []byte) (text string, err error) {
	// the reader panics on some malformed content streams
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return "", fmt.Errorf("pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		if i > 1 {
			sb.WriteByte('\n')
		}
		for _, l := range lines(p.Content().Text) {
			s := joinRun(l.texts)
			if strings.TrimSpace(s) == "" {
				continue
			}
			sb.WriteString(s)
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

type line struct {
	y     float64
	texts pdf.TextHorizontal
}

// lines groups glyphs sharing a baseline, top of the page first. Glyphs
// keep content-stream order within a line.
func lines(texts []pdf.Text) []line {
	var out []line
	for _, t := range texts {
		if strings.IndexFunc(t.S, func(r rune) bool { return !unicode.IsControl(r) }) < 0 {
			continue
		}
		i := slices.IndexFunc(out, func(l line) bool {
			return math.Abs(l.y-t.Y) <= sameLine(t.FontSize)
		})
		if i < 0 {
			out = append(out, line{y: t.Y})
			i = len(out) - 1
		}
		out[i].texts = append(out[i].texts, t)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].y > out[b].y })
	return out
}

func joinRun(texts pdf.TextHorizontal) string {
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].X < sorted[b].X })

	var sb strings.Builder
	var prevEnd float64
	spaced := true
	for _, t := range sorted {
		blank := strings.TrimSpace(t.S) == ""
		if !spaced && !blank && t.X-prevEnd > gap(t.FontSize) {
			sb.WriteByte(' ')
		}
		if !(blank && spaced) {
			sb.WriteString(t.S)
		}
		spaced = strings.HasSuffix(sb.String(), " ")
		prevEnd = math.Max(prevEnd, t.X+t.W)
	}
	return strings.TrimRight(sb.String(), " ")
}

// gap is the horizontal distance treated as a word break.
func gap(fontSize float64) float64 {
	return math.Max(1, fontSize*0.2)
}

// sameLine is the baseline drift tolerated within one line.
func sameLine(fontSize float64) float64 {
	return math.Max(1, fontSize*0.3)
}
