package script

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Template carries the fixed narration text surrounding the per-topic lines.
type Template struct {
	Intro      string
	ItemFormat string
	Closing    string
}

// DefaultTemplate returns the narration template used for news updates.
// ItemFormat receives the 1-based story number and the topic title.
func DefaultTemplate() Template {
	return Template{
		Intro:      "Hello and welcome to today's AI news update.",
		ItemFormat: "Story %d: %s.",
		Closing:    "Thank you for watching. Don't forget to like and subscribe for more AI news!",
	}
}

// Compose builds the narration script: intro, one line per topic in input
// order, closing. Topics are Unicode-normalized and whitespace-collapsed;
// blank entries are skipped. An empty topic list yields intro and closing
// only, which is a valid degenerate script.
func Compose(tpl Template, topics []string) string {
	lines := make([]string, 0, len(topics)+2)
	lines = append(lines, tpl.Intro)

	index := 0
	for _, topic := range topics {
		cleaned := Normalize(topic)
		if cleaned == "" {
			continue
		}
		index++
		lines = append(lines, fmt.Sprintf(tpl.ItemFormat, index, cleaned))
	}

	lines = append(lines, tpl.Closing)
	return strings.Join(lines, " \n")
}

// Normalize applies NFC normalization and collapses runs of whitespace so
// feed titles with decomposed accents or embedded newlines read cleanly when
// spoken.
func Normalize(topic string) string {
	folded := norm.NFC.String(topic)
	return strings.Join(strings.Fields(folded), " ")
}
