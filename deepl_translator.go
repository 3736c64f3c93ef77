package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	deepLFreeURL = "https://api-free.deepl.com"
	deepLProURL  = "https://api.deepl.com"

	// DeepL 单次请求最多50条文本，请求体不超过128KiB
	deepLMaxTexts    = 50
	deepLMaxBytes    = 100 * 1024
	maxResponseBytes = 8 * 1024 * 1024
)

type deepLRequest struct {
	Text       []string `json:"text"`
	SourceLang string   `json:"source_lang"`
	TargetLang string   `json:"target_lang"`
}

type deepLResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
	Message string `json:"message,omitempty"`
}

// DeepLTranslator DeepL REST v2 客户端，每行作为一条 text 发送以保证逐行对齐
type DeepLTranslator struct {
	apiKey     string
	baseURL    string
	sourceLang string
	targetLang string
	client     *http.Client
}

func NewDeepLTranslator(cfg DeepLConfig, sourceLang, targetLang string, client *http.Client) *DeepLTranslator {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		// 免费版key以 :fx 结尾
		if strings.HasSuffix(cfg.APIKey, ":fx") {
			baseURL = deepLFreeURL
		} else {
			baseURL = deepLProURL
		}
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &DeepLTranslator{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		sourceLang: sourceLang,
		targetLang: targetLang,
		client:     client,
	}
}

func (d *DeepLTranslator) Name() string { return "deepl" }

func (d *DeepLTranslator) Translate(ctx context.Context, text string) (string, error) {
	lines, positions, total := splitNonBlank(text)
	if len(lines) == 0 {
		return strings.Repeat("\n", total-1), nil
	}

	translated := make([]string, 0, len(lines))
	for i, chunk := range chunkLines(lines, deepLMaxTexts, deepLMaxBytes) {
		out, err := d.translateBatch(ctx, chunk)
		if err != nil {
			return "", fmt.Errorf("deepl batch %d: %w", i+1, err)
		}
		translated = append(translated, out...)
	}
	return mergeLines(translated, positions, total), nil
}

func (d *DeepLTranslator) translateBatch(ctx context.Context, texts []string) ([]string, error) {
	payload, err := json.Marshal(deepLRequest{
		Text:       texts,
		SourceLang: d.sourceLang,
		TargetLang: d.targetLang,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/v2/translate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "pinyin-translate/1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed deepLResponse
	if resp.StatusCode != http.StatusOK {
		_ = json.Unmarshal(body, &parsed)
		return nil, &ProviderStatusError{Provider: "deepl", Status: resp.StatusCode, Message: parsed.Message}
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(parsed.Translations) != len(texts) {
		return nil, errors.New("deepl returned a different number of translations than texts sent")
	}

	out := make([]string, len(parsed.Translations))
	for i, t := range parsed.Translations {
		// 单条译文里出现换行会破坏行对齐
		out[i] = strings.ReplaceAll(strings.TrimSpace(t.Text), "\n", " ")
	}
	return out, nil
}
