package main

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	sharedPinyin     *PinyinTransliterator
	sharedPinyinOnce sync.Once
)

// testPinyin 词典加载较慢，测试之间共用一个
func testPinyin(t *testing.T) *PinyinTransliterator {
	t.Helper()
	sharedPinyinOnce.Do(func() {
		p, err := NewPinyinTransliterator(PinyinConfig{ToneStyle: "unicode"})
		if err != nil {
			panic(err)
		}
		sharedPinyin = p
	})
	return sharedPinyin
}

// fakeTranslator 逐行查表，查不到返回 "EN(<line>)"
type fakeTranslator struct {
	table map[string]string
	err   error
	calls atomic.Int32
	// dropLast 模拟上游丢了最后一行
	dropLast bool
}

func (f *fakeTranslator) Name() string { return "fake" }

func (f *fakeTranslator) Translate(ctx context.Context, text string) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			out = append(out, "")
			continue
		}
		if tr, ok := f.table[strings.TrimSpace(line)]; ok {
			out = append(out, tr)
		} else {
			out = append(out, "EN("+strings.TrimSpace(line)+")")
		}
	}
	if f.dropLast && len(out) > 1 {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n"), nil
}

// countingTransliterator 记录调用次数
type countingTransliterator struct {
	next  Transliterator
	calls atomic.Int32
}

func (c *countingTransliterator) Transliterate(ctx context.Context, text string) (string, error) {
	c.calls.Add(1)
	return c.next.Transliterate(ctx, text)
}

func (c *countingTransliterator) Syllables(text string) ([][]Syllable, error) {
	return c.next.(syllableSplitter).Syllables(text)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig 已通过校验的最小配置，限流默认关闭
func testConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":0", Mode: gin.TestMode, EnableTestHeaders: true},
		Auth: AuthConfig{
			Headers: []string{"x-access-token", "access_token"},
			Keys: []CredentialConfig{
				{Key: "key-alice", Identity: "alice"},
				{Key: "key-bob", Identity: "bob"},
			},
		},
		RateLimit:  RateLimitConfig{Enabled: false, Requests: 10, Window: time.Minute},
		Pinyin:     PinyinConfig{ToneStyle: "unicode"},
		Translator: TranslatorConfig{Provider: "deepl", SourceLang: "ZH", TargetLang: "EN-GB", DeepL: DeepLConfig{APIKey: "deepl-key"}},
		Breaker:    BreakerConfig{Enabled: false, MaxFailures: 5, OpenTimeout: time.Minute},
		Bulk:       BulkConfig{Mismatch: "error", MaxLines: 200},
		Log:        LogConfig{Level: "info", Format: "text"},
	}
}
