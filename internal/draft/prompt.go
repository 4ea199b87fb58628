package draft

import (
	"fmt"

	"github.com/tmc/langchaingo/prompts"
)

// SystemInstruction задаётся клиенту модели один раз при старте.
const SystemInstruction = "You are an expert email writer. " +
	"Create a professional, clear, and engaging email " +
	"based on the given key points. Highlight key points in bold."

const emailPromptTemplate = `Create a professional email from {{.sender}} to {{.receiver}}.

Include the following key points exactly and highlight them in bold:
{{.key_points}}

Email:`

var emailPrompt = prompts.NewPromptTemplate(emailPromptTemplate, []string{"sender", "receiver", "key_points"})

// Compose собирает промпт. Значения подставляются как есть, без экранирования и обрезки.
func Compose(req Request) (string, error) {
	prompt, err := emailPrompt.Format(map[string]any{
		"sender":     req.Sender,
		"receiver":   req.Receiver,
		"key_points": req.KeyPoints,
	})
	if err != nil {
		return "", fmt.Errorf("format prompt: %w", err)
	}
	return prompt, nil
}
