package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAITranslator 通过 Chat Completions 翻译，提示词要求逐行对应
type OpenAITranslator struct {
	client     *openai.Client
	model      string
	sourceLang string
	targetLang string
}

func NewOpenAITranslator(cfg OpenAIConfig, sourceLang, targetLang string, httpClient *http.Client) *OpenAITranslator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAITranslator{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      model,
		sourceLang: sourceLang,
		targetLang: targetLang,
	}
}

func (o *OpenAITranslator) Name() string { return "openai" }

func (o *OpenAITranslator) Translate(ctx context.Context, text string) (string, error) {
	lines, positions, total := splitNonBlank(text)
	if len(lines) == 0 {
		return strings.Repeat("\n", total-1), nil
	}

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("You translate text from language code %s to language code %s. "+
					"The input has %d lines. Reply with exactly %d lines, line i being the translation of input line i. "+
					"Reply with the translation only.", o.sourceLang, o.targetLang, len(lines), len(lines)),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: strings.Join(lines, "\n"),
			},
		},
		Temperature: 0.2,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &ProviderStatusError{Provider: "openai", Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no translation returned")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	var translated []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			translated = append(translated, strings.TrimSpace(line))
		}
	}
	if len(translated) != len(lines) {
		// 行数对不上时不做位置还原，交给调用方判断
		return content, nil
	}
	return mergeLines(translated, positions, total), nil
}
