package domain

import "context"

// Summarizer shortens free text such as an event description.
type Summarizer interface {
	// Summarize returns the summary, or text unchanged when the provider returns no content.
	Summarize(ctx context.Context, text string) (string, error)
}
