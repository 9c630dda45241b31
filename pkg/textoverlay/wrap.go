package textoverlay

import (
	"strings"

	"golang.org/x/image/font"
)

func width(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

// Wrap breaks text into lines no wider than maxWidth pixels. Explicit
// newlines start a new paragraph and blank paragraphs become empty lines.
// Words are packed greedily; a word wider than maxWidth on its own is broken
// between characters.
func Wrap(text string, face font.Face, maxWidth int) []string {
	if text == "" || maxWidth <= 0 || face == nil {
		return nil
	}
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		if strings.TrimSpace(paragraph) == "" {
			lines = append(lines, "")
			continue
		}
		current := ""
		for _, word := range strings.Split(paragraph, " ") {
			word = strings.TrimSpace(word)
			if word == "" {
				continue
			}
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if width(face, candidate) <= maxWidth {
				current = candidate
				continue
			}
			if current != "" {
				lines = append(lines, current)
			}
			if width(face, word) <= maxWidth {
				current = word
				continue
			}
			var pieces []string
			pieces, current = hardBreak(word, face, maxWidth)
			lines = append(lines, pieces...)
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return lines
}

// hardBreak splits word into full-width pieces and returns the remainder
// separately so following words can join it.
func hardBreak(word string, face font.Face, maxWidth int) ([]string, string) {
	var pieces []string
	var piece strings.Builder
	for _, r := range word {
		next := piece.String() + string(r)
		if piece.Len() > 0 && width(face, next) > maxWidth {
			pieces = append(pieces, piece.String())
			piece.Reset()
		}
		piece.WriteRune(r)
	}
	return pieces, piece.String()
}

// Measure returns the pixel height of a block of lines. One line is measured
// by its ink bounds, several by line height plus spacing between lines.
func Measure(lines []string, face font.Face, spacing int) int {
	switch len(lines) {
	case 0:
		return 0
	case 1:
		if lines[0] == "" {
			return 0
		}
		bounds, _ := font.BoundString(face, lines[0])
		return (bounds.Max.Y - bounds.Min.Y).Ceil()
	}
	n := len(lines)
	return n*face.Metrics().Height.Ceil() + (n-1)*spacing
}
