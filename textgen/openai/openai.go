// Package openai adapts the OpenAI Chat Completions API behind the
// core.TextGenerator capability.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/dr3armsed/AiAlive-sub000/core"
	"github.com/dr3armsed/AiAlive-sub000/textgen"
)

// Options configure the OpenAI generator. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal; extend via functional
// options without breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Generator wraps the OpenAI Chat Completions API behind core.TextGenerator.
type Generator struct {
	client *openai.Client
	opts   Options
}

var _ core.TextGenerator = (*Generator)(nil)

// NewGenerator creates a new OpenAI generator using the official client.
func NewGenerator(optFns ...func(o *Options)) *Generator {
	client := openai.NewClient()
	return NewGeneratorFromClient(&client, optFns...)
}

// NewGeneratorFromClient creates a generator from an existing client.
func NewGeneratorFromClient(client *openai.Client, optFns ...func(o *Options)) *Generator {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Generator{client: client, opts: opts}
}

// Generate produces a single negotiation turn for the prompt.
func (g *Generator) Generate(ctx context.Context, prompt core.Prompt) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:               g.opts.Model,
		Temperature:         openai.Float(g.opts.Temperature),
		MaxCompletionTokens: openai.Int(g.opts.MaxCompletionTokens),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(textgen.SystemInstruction(prompt)),
			openai.UserMessage(textgen.UserMessage(prompt)),
		},
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("openai returned empty content")
	}
	return content, nil
}
