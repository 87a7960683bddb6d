// infrastructure/llm/prompt.go
package llm

import (
	"fmt"
	"strings"
)

// DefaultTranscriptBudget is the transcript length, in characters, that goes into a prompt.
const DefaultTranscriptBudget = 3000

const truncationMarker = "\n\n[...content truncated...]\n\n"

// TruncateTranscript keeps the first and last budget/2 characters of an
// oversized transcript, joined by a truncation marker.
func TruncateTranscript(transcript string, budget int) string {
	runes := []rune(transcript)
	if budget <= 0 || len(runes) <= budget {
		return transcript
	}
	head := budget / 2
	tail := budget - head
	return string(runes[:head]) + truncationMarker + string(runes[len(runes)-tail:])
}

// BuildPrompt renders the copywriting instructions for one platform. The
// title line is only emitted when a title is known.
func BuildPrompt(transcript, platform, title string, budget int) string {
	if platform == "" {
		platform = "social media"
	}

	var b strings.Builder
	b.WriteString("You are a professional social media copywriter.\n")
	fmt.Fprintf(&b, "Based on the following video transcript, create an engaging %s post:\n\n", platform)
	if title != "" {
		fmt.Fprintf(&b, "VIDEO TITLE: %s\n\n", title)
	}
	b.WriteString("TRANSCRIPT:\n")
	b.WriteString(TruncateTranscript(transcript, budget))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Write a compelling, engaging caption for %s that:\n", platform)
	b.WriteString("- Captures the main points of the video\n")
	b.WriteString("- Uses an attention-grabbing hook\n")
	b.WriteString("- Includes relevant hashtags (if appropriate for the platform)\n")
	b.WriteString("- Maintains an authentic voice\n")
	fmt.Fprintf(&b, "- Is optimized for %s's audience\n", platform)
	fmt.Fprintf(&b, "- Has appropriate length for %s (e.g. shorter for Twitter, longer for YouTube)\n\n", platform)
	b.WriteString("CAPTION:\n")
	return b.String()
}
