// Package anthropic adapts the Anthropic Claude Messages API to the generic
// model.Client interface.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/flightdecklabs/flightdeck/core"
	"github.com/flightdecklabs/flightdeck/model"
)

// Options configures the Anthropic client adapter (model id, temperature,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Client wraps the Anthropic Messages API behind the generic model.Client
// interface.
type Client struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic client using the official SDK.
func New(optFns ...func(o *Options)) *Client {
	opts := defaultOptions(optFns)

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Client{client: &client, opts: opts}
}

// NewFromClient creates an adapter from an existing SDK client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Client {
	return &Client{client: client, opts: defaultOptions(optFns)}
}

func defaultOptions(optFns []func(o *Options)) Options {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// Generate implements model.Client. It adapts the Anthropic Messages API
// (with tool calling) into model.Response values.
func (c *Client) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := anthropic.MessageNewParams{
			Model:       c.opts.Model,
			Messages:    buildMessages(req.Messages),
			MaxTokens:   c.opts.MaxTokens,
			Temperature: anthropic.Float(c.opts.Temperature),
		}

		if system := systemText(req); system != "" {
			params.System = []anthropic.TextBlockParam{{Text: system}}
		}

		if len(req.Tools) > 0 {
			params.Tools = buildTools(req.Tools)
		}

		if req.Stream {
			// TODO: implement streaming over anthropic.MessageStreamEvent
			// with partial text accumulation and tool use detection.
			errCh <- fmt.Errorf("streaming not yet implemented for Anthropic client")
			return
		}

		resp, err := c.client.Messages.New(ctx, params)
		if err != nil {
			errCh <- fmt.Errorf("anthropic api error: %w", err)
			return
		}

		out <- toResponse(resp)
	}()

	return out, errCh
}

// systemText combines the request system prompt with a structured output
// instruction when an output schema was requested. The Messages API has no
// native schema mode, so the contract is carried in the prompt and enforced
// by the caller parsing the final text.
func systemText(req model.Request) string {
	system := req.System
	if req.OutputSchema == nil {
		return system
	}
	schemaJSON, err := json.Marshal(req.OutputSchema.Schema)
	if err != nil {
		return system
	}
	if system != "" {
		system += "\n\n"
	}
	return system + "Respond with a single JSON object matching this schema, with no surrounding prose:\n" + string(schemaJSON)
}

// buildMessages converts conversation messages to Anthropic message params.
// Tool results go into user messages per the Messages API contract, with
// consecutive results coalesced into a single message.
func buildMessages(msgs []core.Message) []anthropic.MessageParam {
	var messages []anthropic.MessageParam
	var pendingResults []anthropic.ContentBlockParamUnion

	flushResults := func() {
		if len(pendingResults) > 0 {
			messages = append(messages, anthropic.NewUserMessage(pendingResults...))
			pendingResults = nil
		}
	}

	for _, msg := range msgs {
		switch msg.Role {
		case core.RoleToolResult:
			pendingResults = append(pendingResults, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false))
		case core.RoleAssistant:
			flushResults()
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, call.Input, call.Name))
			}
			if len(blocks) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(blocks...))
			}
		default:
			flushResults()
			if msg.Content != "" {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			}
		}
	}
	flushResults()

	return messages
}

// buildTools converts tool definitions to the Anthropic tool format.
func buildTools(defs []core.ToolDefinition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(defs))

	for i, def := range defs {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if def.InputSchema != nil {
			if properties, exists := def.InputSchema["properties"]; exists {
				inputSchema.Properties = properties
			}
			inputSchema.Required = requiredList(def.InputSchema)
		}
		tools[i] = anthropic.ToolUnionParamOfTool(inputSchema, def.Name)
	}

	return tools
}

func requiredList(schema map[string]any) []string {
	switch required := schema["required"].(type) {
	case []string:
		return required
	case []any:
		var out []string
		for _, r := range required {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// toResponse maps an API message to the normalized response shape, including
// extended thinking blocks when the model produced them.
func toResponse(resp *anthropic.Message) model.Response {
	var (
		text      string
		thinking  string
		toolCalls []core.ToolCall
	)

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text += block.AsText().Text
		case "thinking":
			thinking += block.AsThinking().Thinking
		case "tool_use":
			toolBlock := block.AsToolUse()
			input := map[string]any{}
			if toolBlock.Input != nil {
				if raw, err := json.Marshal(toolBlock.Input); err == nil {
					if err := json.Unmarshal(raw, &input); err != nil {
						input = map[string]any{}
					}
				}
			}
			toolCalls = append(toolCalls, core.ToolCall{
				ID:    toolBlock.ID,
				Name:  toolBlock.Name,
				Input: input,
			})
		}
	}

	stopReason := "end_turn"
	if resp.StopReason != "" {
		stopReason = string(resp.StopReason)
	}

	return model.Response{
		Text:       text,
		Thinking:   thinking,
		ToolCalls:  toolCalls,
		StopReason: stopReason,
	}
}

// Info returns metadata describing this Anthropic client.
func (c *Client) Info() model.Info {
	return model.Info{
		Name:          string(c.opts.Model),
		Provider:      "anthropic",
		SupportsTools: true,
	}
}
