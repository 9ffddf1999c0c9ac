package httpapi

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// ExtractPrompt pulls the cacheable prompt text out of a request body
// using a gjson path expression. The provider table's default paths
// target the content of the conversation's last message (e.g.
// "messages.@reverse.0.content" for the OpenAI/Anthropic chat-message
// array shape), the gjson-dialect equivalent of the original's
// JSONPath `$.messages[-1].content`.
func ExtractPrompt(body []byte, path string) (string, error) {
	result := gjson.GetBytes(body, path)
	if !result.Exists() {
		return "", fmt.Errorf("httpapi: prompt path %q matched nothing", path)
	}
	return result.String(), nil
}
