package httpapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPromptLastMessageContent(t *testing.T) {
	body := []byte(`{
		"model": "gpt-4",
		"messages": [
			{"role": "system", "content": "be helpful"},
			{"role": "user", "content": "hello"},
			{"role": "user", "content": "what is 2+2?"}
		]
	}`)

	prompt, err := ExtractPrompt(body, "messages.@reverse.0.content")
	require.NoError(t, err)
	assert.Equal(t, "what is 2+2?", prompt)
}

func TestExtractPromptMissingPathErrors(t *testing.T) {
	body := []byte(`{"messages": []}`)
	_, err := ExtractPrompt(body, "messages.@reverse.0.content")
	assert.Error(t, err)
}
