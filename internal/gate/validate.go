package gate

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/tokengate/tokengate/internal/cost"
)

// knownChatModels lists the models accepted on /chat/completions.
var knownChatModels = map[string]bool{
	"gpt-4o":                 true,
	"gpt-o1":                 true,
	"gpt-4":                  true,
	"gpt-4-0314":             true,
	"gpt-4-0613":             true,
	"gpt-4-32k":              true,
	"gpt-4-32k-0314":         true,
	"gpt-4-32k-0613":         true,
	"gpt-3.5-turbo":          true,
	"gpt-3.5-turbo-0301":     true,
	"gpt-3.5-turbo-0613":     true,
	"gpt-3.5-turbo-16k":      true,
	"gpt-3.5-turbo-16k-0613": true,
	"text-davinci-003":       true,
	"text-davinci-002":       true,
	"text-curie-001":         true,
	"text-babbage-001":       true,
	"text-ada-001":           true,
	"davinci":                true,
	"curie":                  true,
	"babbage":                true,
	"ada":                    true,
	"whisper-1":              true,
}

var validMessageRoles = map[string]bool{
	"system":    true,
	"user":      true,
	"assistant": true,
}

var allowedImageSizes = map[string]bool{
	"256x256":   true,
	"512x512":   true,
	"1024x1024": true,
	"1792x1024": true,
	"1024x1792": true,
}

var allowedImageQualities = map[string]bool{
	"standard": true,
	"hd":       true,
}

const maxImagePromptLen = 4000

// Validate checks the request shape for the endpoints that have one.
// Returns nil on success, or field-level error details for the 422 body.
// Endpoints without validation rules always pass.
func Validate(endpoint string, body []byte) map[string][]string {
	switch endpoint {
	case cost.EndpointChatCompletions:
		return validateChat(body)
	case cost.EndpointCompletions:
		return validateCompletions(body)
	case "/images/generations":
		return validateImageGeneration(body)
	}
	return nil
}

func validateChat(body []byte) map[string][]string {
	details := make(map[string][]string)

	messages := gjson.GetBytes(body, "messages")
	if !messages.Exists() || !messages.IsArray() || len(messages.Array()) == 0 {
		addDetail(details, "messages", "messages is required and must be a non-empty array")
	} else {
		for i, msg := range messages.Array() {
			role := msg.Get("role")
			if !role.Exists() || !validMessageRoles[role.String()] {
				addDetail(details, fmt.Sprintf("messages.%d.role", i),
					"role must be one of: system, user, assistant")
			}
			content := msg.Get("content")
			if !content.Exists() || content.Type != gjson.String {
				addDetail(details, fmt.Sprintf("messages.%d.content", i),
					"content is required and must be a string")
			}
		}
	}

	model := gjson.GetBytes(body, "model")
	if !model.Exists() || model.Type != gjson.String {
		addDetail(details, "model", "model is required")
	} else if !knownChatModels[model.String()] {
		addDetail(details, "model", "model is not supported")
	}

	if len(details) == 0 {
		return nil
	}
	return details
}

func validateCompletions(body []byte) map[string][]string {
	prompt := gjson.GetBytes(body, "prompt")
	if !prompt.Exists() || prompt.Type != gjson.String || prompt.String() == "" {
		return map[string][]string{
			"prompt": {"prompt is required and must be a string"},
		}
	}
	return nil
}

func validateImageGeneration(body []byte) map[string][]string {
	details := make(map[string][]string)

	prompt := gjson.GetBytes(body, "prompt")
	if !prompt.Exists() || prompt.Type != gjson.String || prompt.String() == "" {
		addDetail(details, "prompt", "prompt is required")
	} else if len(prompt.String()) > maxImagePromptLen {
		addDetail(details, "prompt", "prompt must not exceed 4000 characters")
	}

	if size := gjson.GetBytes(body, "size"); size.Exists() && !allowedImageSizes[size.String()] {
		addDetail(details, "size", "size must be one of: 256x256, 512x512, 1024x1024, 1792x1024, 1024x1792")
	}

	if quality := gjson.GetBytes(body, "quality"); quality.Exists() && !allowedImageQualities[quality.String()] {
		addDetail(details, "quality", "quality must be one of: standard, hd")
	}

	if n := gjson.GetBytes(body, "n"); n.Exists() {
		if n.Type != gjson.Number || n.Int() < 1 || n.Int() > 10 || float64(n.Int()) != n.Float() {
			addDetail(details, "n", "n must be an integer between 1 and 10")
		}
	}

	if len(details) == 0 {
		return nil
	}
	return details
}

func addDetail(details map[string][]string, field, message string) {
	details[field] = append(details[field], message)
}
