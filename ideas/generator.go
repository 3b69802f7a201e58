// Package ideas generates textual painting concepts through an
// OpenRouter-compatible chat completions API with function calling.
package ideas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"paintflow/core"
	"paintflow/db"
	"paintflow/logging"
)

// Distinct failure classes so callers can log and react precisely.
var (
	// ErrNoToolCall means the model answered without invoking the
	// required function.
	ErrNoToolCall = errors.New("ideas: model response contained no tool call")

	// ErrMalformedArguments means the tool call arguments were not valid JSON.
	ErrMalformedArguments = errors.New("ideas: tool call arguments were not valid JSON")

	// ErrMissingField means the structured response lacked the summary or
	// the full prompt. Both are mandatory; there is no fallback.
	ErrMissingField = errors.New("ideas: structured response missing summary or fullPrompt")
)

// saveIdeaTool is the function the model must call to return its concept.
// Forcing a tool call turns free-form model output into a parseable
// contract: either we get both fields or the generation failed.
const saveIdeaToolName = "savePaintingIdea"

var saveIdeaParameters = json.RawMessage(`{
	"type": "object",
	"properties": {
		"summary": {
			"type": "string",
			"description": "A short one-sentence summary of the painting idea, used to avoid repeating ideas"
		},
		"fullPrompt": {
			"type": "string",
			"description": "The complete, detailed prompt to hand to the image model"
		}
	},
	"required": ["summary", "fullPrompt"]
}`)

// Concept is the structured pair the model returns.
type Concept struct {
	Summary    string `json:"summary"`
	FullPrompt string `json:"fullPrompt"`
}

// Generator is the concept-service molecule. It turns a title, its
// reference descriptions and the summaries of every prior idea into one
// new persisted idea per call.
//
// Calls are made strictly sequentially by the batch coordinator: each
// generation sees the summaries of all earlier ones, including those from
// previous batches, so the model can steer away from duplicates.
type Generator struct {
	client *openai.Client
	model  string
	ideas  *db.IdeaRepository
	logger *logging.Logger
}

// NewGenerator creates a Generator using the configured OpenRouter
// credentials and model.
func NewGenerator(cfg *core.Config, ideas *db.IdeaRepository, logger *logging.Logger) *Generator {
	clientConfig := openai.DefaultConfig(cfg.OpenRouterAPIKey)
	if cfg.OpenRouterURL != "" {
		clientConfig.BaseURL = cfg.OpenRouterURL
	}
	clientConfig.HTTPClient = core.GetHTTPClient(cfg.AITimeout)

	return &Generator{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.OpenRouterModel,
		ideas:  ideas,
		logger: logger.Named("ideas"),
	}
}

// GenerateIdea requests one new concept for the title and persists it.
// The returned idea carries its database ID: persistence happens before
// return so the caller can create the pending painting row immediately.
func (g *Generator) GenerateIdea(ctx context.Context, title *db.Title, refs []db.ReferenceImage, priorSummaries []string) (*db.Idea, error) {
	resp, err := g.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: g.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: buildUserPrompt(title, refs, priorSummaries),
				},
			},
			Tools: []openai.Tool{
				{
					Type: openai.ToolTypeFunction,
					Function: &openai.FunctionDefinition{
						Name:        saveIdeaToolName,
						Description: "Save a new painting idea as a summary plus a full image prompt",
						Parameters:  saveIdeaParameters,
					},
				},
			},
			ToolChoice: openai.ToolChoice{
				Type:     openai.ToolTypeFunction,
				Function: openai.ToolFunction{Name: saveIdeaToolName},
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("ideas: concept service call failed: %w", err)
	}

	concept, err := parseConcept(resp)
	if err != nil {
		return nil, err
	}

	id, err := g.ideas.Create(ctx, title.ID, concept.Summary, concept.FullPrompt)
	if err != nil {
		return nil, fmt.Errorf("ideas: failed to persist idea: %w", err)
	}

	g.logger.Info("idea generated",
		zap.Int64("title_id", title.ID),
		zap.Int64("idea_id", id),
		zap.String("summary", concept.Summary),
	)

	return &db.Idea{
		ID:         id,
		TitleID:    title.ID,
		Summary:    concept.Summary,
		FullPrompt: concept.FullPrompt,
	}, nil
}

// parseConcept extracts and validates the structured pair from a response.
func parseConcept(resp openai.ChatCompletionResponse) (*Concept, error) {
	if len(resp.Choices) == 0 {
		return nil, ErrNoToolCall
	}
	toolCalls := resp.Choices[0].Message.ToolCalls
	if len(toolCalls) == 0 {
		return nil, ErrNoToolCall
	}

	var concept Concept
	if err := json.Unmarshal([]byte(toolCalls[0].Function.Arguments), &concept); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArguments, err)
	}

	concept.Summary = strings.TrimSpace(concept.Summary)
	concept.FullPrompt = strings.TrimSpace(concept.FullPrompt)
	if concept.Summary == "" || concept.FullPrompt == "" {
		return nil, ErrMissingField
	}

	return &concept, nil
}

const systemPrompt = `You are an art director developing painting concepts. ` +
	`For the given title, propose one new painting idea that differs clearly ` +
	`from every idea already used. Respond by calling the savePaintingIdea ` +
	`function with a one-sentence summary and a complete, detailed prompt ` +
	`for an image generation model.`

// buildUserPrompt assembles the title, its steering instructions, the
// reference descriptions and the anti-duplication digest of prior summaries.
func buildUserPrompt(title *db.Title, refs []db.ReferenceImage, priorSummaries []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Painting title: %s\n", title.Title)
	if title.Instructions != "" {
		fmt.Fprintf(&b, "\nCustom instructions: %s\n", title.Instructions)
	}

	var described []string
	for _, ref := range refs {
		if ref.Description != "" {
			described = append(described, ref.Description)
		}
	}
	if len(described) > 0 {
		b.WriteString("\nStyle references to honor:\n")
		for _, d := range described {
			fmt.Fprintf(&b, "- %s\n", d)
		}
	}

	if len(priorSummaries) > 0 {
		b.WriteString("\nIdeas already used, do not repeat any of them:\n")
		for i, s := range priorSummaries {
			fmt.Fprintf(&b, "%d. %s\n", i+1, s)
		}
	} else {
		b.WriteString("\nNo ideas have been generated for this title yet.\n")
	}

	return b.String()
}
