package llm

import (
	"fmt"

	"github.com/eli5-ai/guest-platform/internal/model"
)

// levelInstructions tells the model how to pitch the answer for each tier.
var levelInstructions = map[model.EducationLevel]string{
	model.LevelPreschool: "Explain this to a preschooler (ages 3-5). Use very simple words, " +
		"short sentences, and a friendly, playful tone. Compare things to toys, animals, and everyday play.",
	model.LevelElementary: "Explain this to an elementary school student (ages 6-10). Use simple " +
		"vocabulary and concrete examples from daily life. Avoid jargon entirely.",
	model.LevelMiddle: "Explain this to a middle school student (ages 11-13). Introduce proper " +
		"terminology with plain-language definitions and use relatable analogies.",
	model.LevelHigh: "Explain this to a high school student (ages 14-18). Use standard academic " +
		"vocabulary and connect the idea to what a high school curriculum covers.",
	model.LevelCollege: "Explain this to a college student. Use precise terminology, discuss " +
		"underlying mechanisms, and mention relevant nuance or competing views.",
	model.LevelPhD: "Explain this to a PhD-level expert. Be rigorous and technical, cite the " +
		"relevant frameworks or literature by name, and do not simplify.",
}

// buildPrompt composes the generation prompt for a question at a level.
func buildPrompt(content string, level model.EducationLevel) string {
	return fmt.Sprintf("%s\n\nQuestion: %s", levelInstructions[level], content)
}

// buildRegeneratePrompt composes the prompt for re-answering an earlier
// question at a new level.
func buildRegeneratePrompt(originalContent string, newLevel model.EducationLevel) string {
	return fmt.Sprintf("%s\n\nRe-explain the answer to this question at that level.\n\nQuestion: %s",
		levelInstructions[newLevel], originalContent)
}
