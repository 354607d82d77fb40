package ai

import "fmt"

// Prompt texts for the insight generators. The wrapping shape matters:
// downstream parsing expects the model to answer with bare text.
const (
	SummaryPrompt = "Summarize the following text in a concise and clear way. Respond only with the summary text, no formatting."

	DidYouKnowPrompt = "Generate a Did You Know fact based on the text below. Respond only with the fact, no extra commentary."

	PodcastPrompt = "Write a short, engaging 2-minute podcast script based on the text below. Respond only with the script, no extra commentary. Make it sound as natural as possible."

	refineSystemPrompt = "You rewrite raw PDF section text into clean readable prose. Respond only with the rewritten text, no commentary."
)

// WrapTextPrompt attaches source text to an instruction the way the
// generators expect it.
func WrapTextPrompt(instruction, text string) string {
	return fmt.Sprintf("%s\n---\n%s\n---", instruction, text)
}

// RefinePrompt builds the prompt used to clean up an extracted section
// before it is shown as a related result.
func RefinePrompt(heading, text string) (system, prompt string) {
	return refineSystemPrompt, fmt.Sprintf(
		"Section heading: %s\n\nRewrite the following section text so it reads cleanly. Keep all factual content.\n---\n%s\n---",
		heading, text)
}
