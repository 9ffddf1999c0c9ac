// Package provider describes the upstream LLM providers semcache can
// proxy to: their default URL, host header, REST path and the prompt
// path used to extract the text the cache keys on.
package provider

import "fmt"

// Type identifies an upstream LLM provider.
type Type int

const (
	// OpenAI targets api.openai.com's chat completions endpoint.
	OpenAI Type = iota
	// Anthropic targets api.anthropic.com's messages endpoint.
	Anthropic
	// Generic is a header-configurable provider with no built-in
	// defaults; every field must be supplied by the caller.
	Generic
)

func (t Type) String() string {
	switch t {
	case OpenAI:
		return "openai"
	case Anthropic:
		return "anthropic"
	case Generic:
		return "generic"
	default:
		return fmt.Sprintf("provider.Type(%d)", int(t))
	}
}

// Defaults holds the default routing facts for a provider: the upstream
// URL, the Host header to present, the REST path the handler is mounted
// at, and the prompt path used to extract cacheable text from the
// request body.
type Defaults struct {
	UpstreamURL string
	HostHeader  string
	RESTPath    string
	PromptPath  string
}

// anthropicDefaults and openAIDefaults mirror the original Rust
// provider table exactly, including its prompt path convention: the JSON
// path to the content of the last message in the conversation.
var (
	anthropicDefaults = Defaults{
		UpstreamURL: "https://api.anthropic.com/v1/messages",
		HostHeader:  "api.anthropic.com",
		RESTPath:    "/v1/messages",
		// gjson dialect for "$.messages[-1].content": @reverse flips the
		// array so index 0 is the last element.
		PromptPath: "messages.@reverse.0.content",
	}
	openAIDefaults = Defaults{
		UpstreamURL: "https://api.openai.com/v1/chat/completions",
		HostHeader:  "api.openai.com",
		RESTPath:    "/v1/chat/completions",
		PromptPath:  "messages.@reverse.0.content",
	}
)

// DefaultsFor returns the default routing facts for t. Generic has no
// defaults: every field is the zero value, and callers must supply their
// own via configuration.
func DefaultsFor(t Type) Defaults {
	switch t {
	case Anthropic:
		return anthropicDefaults
	case OpenAI:
		return openAIDefaults
	default:
		return Defaults{}
	}
}

// ParseType maps a configuration string to a Type. Unrecognized values
// map to Generic, matching the original's fallback behavior for
// unknown/custom provider names.
func ParseType(s string) Type {
	switch s {
	case "openai":
		return OpenAI
	case "anthropic":
		return Anthropic
	default:
		return Generic
	}
}
