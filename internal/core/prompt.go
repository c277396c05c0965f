package core

import (
	"fmt"
	"strings"

	"newshound/internal/store"
)

// SystemInstruction is the fixed grounding instruction sent to the completion
// backend alongside every assembled prompt. It is never user-controlled.
const SystemInstruction = "You are a helpful assistant that answers user's questions" +
	" by finding relevant information in Hacker News threads." +
	" When answering the question, describe conversations that people have around the subject," +
	" provided to you as a context, or say i don't know if they are completely irrelevant."

// FilterSources drops sources with no extracted text, preserving order.
func FilterSources(sources []store.WebSource) []store.WebSource {
	filtered := make([]store.WebSource, 0, len(sources))
	for _, s := range sources {
		if s.Text != nil {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// AssemblePrompt builds the ordered prompt segments for the completion
// backend: one segment per history message oldest first, then a single
// combined segment holding the current query and the rendered sources.
// History role labels are intentionally not encoded into the segments.
func AssemblePrompt(query string, history []store.Message, sources []store.WebSource) []string {
	segments := make([]string, 0, len(history)+1)
	for _, msg := range history {
		segments = append(segments, msg.Body)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "User search query: %s\n\nWeb search results:\n", query)
	for i, source := range sources {
		text := ""
		if source.Text != nil {
			text = *source.Text
		}
		fmt.Fprintf(&b, "Result %d (URL: %s):\n%s\n\n", i, source.URL, text)
	}

	return append(segments, b.String())
}
