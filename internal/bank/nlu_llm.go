package bank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"gopkg.in/yaml.v3"
)

// PromptSpec is the YAML-defined classification prompt: system instructions,
// the intent catalog with extractable entities, few-shot examples, and
// sampling style.
type PromptSpec struct {
	System  string `yaml:"system"`
	Intents []struct {
		Name        string   `yaml:"name"`
		Description string   `yaml:"description"`
		Entities    []string `yaml:"entities,omitempty"`
	} `yaml:"intents"`
	Examples []struct {
		User  string `yaml:"user"`
		Reply string `yaml:"reply"`
	} `yaml:"examples"`
	Style struct {
		Temperature float32 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"style"`
}

// LLMOracle implements Oracle on top of an OpenAI-compatible chat API.
type LLMOracle struct {
	spec   PromptSpec
	client *openai.Client
	model  string
}

func LoadLLMOracle(path string, client *openai.Client, model string) (*LLMOracle, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt spec: %w", err)
	}
	var spec PromptSpec
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return nil, fmt.Errorf("parse prompt spec %s: %w", path, err)
	}
	return &LLMOracle{spec: spec, client: client, model: model}, nil
}

// Classify asks the model for a single JSON envelope. A reply that cannot be
// parsed as an envelope is returned as raw text: the model answered the user
// directly, and that answer is the payload.
func (o *LLMOracle) Classify(ctx context.Context, text string) (Classification, error) {
	styleT := o.spec.Style.Temperature
	if styleT <= 0 {
		styleT = 0.1
	}
	maxTok := o.spec.Style.MaxTokens
	if maxTok <= 0 {
		maxTok = 300
	}

	var b strings.Builder
	b.WriteString(o.spec.System)
	b.WriteString("\n\nIntents:\n")
	intentsJSON, _ := json.Marshal(o.spec.Intents)
	b.Write(intentsJSON)
	b.WriteString("\n\nExamples:\n")
	for _, ex := range o.spec.Examples {
		fmt.Fprintf(&b, "User: %q -> %s\n", ex.User, ex.Reply)
	}
	b.WriteString("\nInstructions: Respond with ONLY the JSON object for the user's intent. Do not add explanations or markdown formatting.\n")

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: styleT,
		MaxTokens:   maxTok,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: b.String()},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return Classification{}, mapOpenAIErr(err)
	}
	if len(resp.Choices) == 0 {
		return Classification{}, fmt.Errorf("classify: no choices")
	}
	return parseClassification(resp.Choices[0].Message.Content), nil
}

// Answer forwards a general banking question with the credit score as
// context and returns the model's prose untouched.
func (o *LLMOracle) Answer(ctx context.Context, creditScore int, question string) (string, error) {
	prompt := fmt.Sprintf(
		"You are a helpful banking assistant. The user's credit score is %d. Answer the following banking-related question based on this credit score: %s",
		creditScore, question,
	)
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", mapOpenAIErr(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("answer: no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// parseClassification extracts an envelope from model output. Models wrap
// JSON in code fences or prose often enough that we fall back to the
// outermost brace pair before giving up; output with no usable envelope is
// the direct-answer fallback, not an error.
func parseClassification(raw string) Classification {
	candidate := raw
	var env Envelope
	if err := json.Unmarshal([]byte(candidate), &env); err != nil {
		first := strings.IndexByte(raw, '{')
		last := strings.LastIndexByte(raw, '}')
		if first < 0 || last <= first {
			return Classification{Text: raw}
		}
		candidate = raw[first : last+1]
		if err := json.Unmarshal([]byte(candidate), &env); err != nil {
			return Classification{Text: raw}
		}
	}
	if !env.HasIntent() {
		// Structurally valid JSON but not an envelope; treat as prose.
		return Classification{Text: raw}
	}
	return Classification{Envelope: &env}
}

func mapOpenAIErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ErrOracleBusy, err)
	}
	return err
}
