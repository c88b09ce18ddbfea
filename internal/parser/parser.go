// Package parser turns raw uploaded or bundled text into an ordered prompt
// list, with a title when the document carries one.
package parser

import (
	"errors"
	"strings"
)

// ErrNoPrompts is returned when the input has no usable prompt content.
// Callers must treat this as "no prompts found" and keep their prior state.
var ErrNoPrompts = errors.New("no prompts found")

// Document is the result of parsing one raw text blob.
type Document struct {
	Title   string
	Prompts []string
}

// Parse extracts a prompt sequence from raw markdown-ish text.
//
// Rules, in priority order:
//  1. A first line of the form "# <text>" becomes the title and is dropped.
//  2. A lone "---" line truncates the document: everything at and after it
//     is trailing metadata, not prompts.
//  3. Lines starting with "- " or "* " are prompts, marker stripped. If no
//     such lines exist, every non-blank non-heading line is taken verbatim.
//
// Parse never fails on well-formed text; it returns ErrNoPrompts only when
// the input has no non-blank, non-heading content.
func Parse(raw string) (Document, error) {
	lines := strings.Split(raw, "\n")

	var doc Document
	if len(lines) > 0 {
		if title, ok := titleText(lines[0]); ok {
			doc.Title = title
			lines = lines[1:]
		}
	}

	// Drop everything at and after a separator line.
	for i, line := range lines {
		if strings.TrimSpace(line) == "---" {
			lines = lines[:i]
			break
		}
	}

	for _, line := range lines {
		if text, ok := bulletText(line); ok {
			if text != "" {
				doc.Prompts = append(doc.Prompts, text)
			}
		}
	}

	// Fallback: no bullets anywhere, take plain lines verbatim.
	if len(doc.Prompts) == 0 {
		for _, line := range lines {
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if _, ok := headingText(line); ok {
				continue
			}
			doc.Prompts = append(doc.Prompts, text)
		}
	}

	if len(doc.Prompts) == 0 {
		return Document{Title: doc.Title}, ErrNoPrompts
	}
	return doc, nil
}

// titleText reports whether line is a "# <text>" title marker. Deeper
// headings and "#nospace" lines are not titles; they fall through to the
// body rules.
func titleText(line string) (string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), "# ")
	if !ok {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// headingText reports whether line is a markdown heading and returns its text.
func headingText(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimLeft(trimmed, "#")), true
}

// bulletText reports whether line is a bullet item and returns its text.
// Both "- " and "* " markers are accepted, also mixed within one document.
func bulletText(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	for _, marker := range []string{"- ", "* "} {
		if strings.HasPrefix(trimmed, marker) {
			return strings.TrimSpace(trimmed[len(marker):]), true
		}
	}
	return "", false
}
