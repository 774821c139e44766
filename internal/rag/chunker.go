package rag

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Passage retention rules.
const (
	// minPassageLen and maxPassageLen bound the trimmed passage length
	// (exclusive on both ends). Too short carries no signal; too long is a
	// table or dump that drowns the scorer.
	minPassageLen = 10
	maxPassageLen = 1000

	codeFenceMarker = "```"
	// Third-level-or-deeper headings are boilerplate structure; top-level
	// headings are kept because they often name the topic.
	subHeadingMarker = "###"
)

// SplitDocument splits one document's raw text into its retained chunks.
// Passages are delimited by blank lines; a passage is retained when its
// trimmed length is strictly between minPassageLen and maxPassageLen and it
// does not start with a code fence or a sub-sub-heading. Ordinals number the
// retained passages, so they are dense even when passages are filtered out.
//
// Pure function: the same input always yields the same chunk list.
func SplitDocument(document, text string) []Chunk {
	paragraphs := strings.Split(text, "\n\n")

	var chunks []Chunk
	for _, p := range paragraphs {
		trimmed := strings.TrimSpace(p)
		if !retain(trimmed) {
			continue
		}
		ordinal := len(chunks)
		chunks = append(chunks, Chunk{
			ID:       fmt.Sprintf("%s-%d", document, ordinal),
			Document: document,
			Text:     trimmed,
			Ordinal:  ordinal,
		})
	}
	return chunks
}

func retain(trimmed string) bool {
	n := utf8.RuneCountInString(trimmed)
	if n <= minPassageLen || n >= maxPassageLen {
		return false
	}
	if strings.HasPrefix(trimmed, codeFenceMarker) {
		return false
	}
	if strings.HasPrefix(trimmed, subHeadingMarker) {
		return false
	}
	return true
}
