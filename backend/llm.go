package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	geminiModel = "gemini-pro"

	// Every model call gets a hard deadline and at most one retry so a
	// hung upstream can never freeze a chat session.
	generateTimeout = 20 * time.Second
	generateRetries = 1
)

var errNoContent = errors.New("no content generated")

// generate is the single entry point the rest of the backend uses to talk to
// the language model. A package variable so tests can substitute a stub.
var generate = generateText

func generateText(ctx context.Context, prompt string) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", errors.New("GEMINI_API_KEY is not set")
	}

	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(geminiModel)

	var lastErr error
	for attempt := 0; attempt <= generateRetries; attempt++ {
		if ctx.Err() != nil {
			break
		}
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			lastErr = err
			continue
		}
		text := responseText(resp)
		if text == "" {
			return "", errNoContent
		}
		return text, nil
	}
	if lastErr == nil {
		lastErr = ctx.Err()
	}
	return "", lastErr
}

// responseText flattens the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}
