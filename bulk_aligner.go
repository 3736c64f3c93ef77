package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// MismatchPolicy 三路行数不一致时的处理方式
type MismatchPolicy string

const (
	MismatchError    MismatchPolicy = "error"
	MismatchTruncate MismatchPolicy = "truncate"
)

func parseMismatchPolicy(s string) (MismatchPolicy, error) {
	switch MismatchPolicy(s) {
	case MismatchError, MismatchTruncate:
		return MismatchPolicy(s), nil
	case "":
		return MismatchError, nil
	}
	return "", fmt.Errorf("bulk.mismatch 只支持 error/truncate: %q", s)
}

// AlignedRow 对齐后的一行：原文、拼音、译文
type AlignedRow struct {
	Original    string `json:"original"`
	Pinyin      string `json:"pinyin"`
	Translation string `json:"translation"`
}

func (r AlignedRow) String() string {
	return r.Original + " " + r.Pinyin + " " + r.Translation
}

// BulkAligner 整段文本各调用一次拼音和翻译，再按行拼接
type BulkAligner struct {
	pinyin     Transliterator
	translator Translator
	policy     MismatchPolicy
	maxLines   int
}

func NewBulkAligner(pinyin Transliterator, translator Translator, policy MismatchPolicy, maxLines int) *BulkAligner {
	return &BulkAligner{pinyin: pinyin, translator: translator, policy: policy, maxLines: maxLines}
}

// Align 返回对齐后的行，provider错误原样向上传递
func (a *BulkAligner) Align(ctx context.Context, text string) ([]AlignedRow, error) {
	originals := nonBlankLines(text)
	if len(originals) == 0 {
		return nil, newAPIError(KindValidation, "参数格式错误", errors.New("text must contain at least one non-empty line"))
	}
	if a.maxLines > 0 && len(originals) > a.maxLines {
		return nil, newAPIError(KindValidation, "参数格式错误",
			fmt.Errorf("text has %d lines, limit is %d", len(originals), a.maxLines))
	}

	var pinyinText, translationText string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := a.pinyin.Transliterate(gctx, text)
		if err != nil {
			return providerError("transliteration", err)
		}
		pinyinText = out
		return nil
	})
	g.Go(func() error {
		out, err := a.translator.Translate(gctx, text)
		if err != nil {
			return providerError("translation", err)
		}
		translationText = out
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return zipLines(strings.Split(text, "\n"), strings.Split(pinyinText, "\n"), strings.Split(translationText, "\n"), a.policy)
}

// Report 按行渲染对齐结果
func (a *BulkAligner) Report(ctx context.Context, text string) (string, error) {
	rows, err := a.Align(ctx, text)
	if err != nil {
		return "", err
	}
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = row.String()
	}
	return strings.Join(lines, "\n"), nil
}

// zipLines 三路按行号对齐，只保留原文非空的行；行数按未过滤的切分结果比较，
// truncate 模式下截到最短的一路
func zipLines(originals, pinyins, translations []string, policy MismatchPolicy) ([]AlignedRow, error) {
	if policy != MismatchTruncate && (len(pinyins) != len(originals) || len(translations) != len(originals)) {
		return nil, newAPIError(KindAlignment, "Line count mismatch between text, pinyin and translation",
			fmt.Errorf("text=%d pinyin=%d translation=%d", len(originals), len(pinyins), len(translations)))
	}

	n := min(len(originals), len(pinyins), len(translations))
	rows := make([]AlignedRow, 0, n)
	for i := 0; i < n; i++ {
		original := strings.TrimSpace(originals[i])
		if original == "" {
			continue
		}
		rows = append(rows, AlignedRow{
			Original:    original,
			Pinyin:      strings.TrimSpace(pinyins[i]),
			Translation: strings.TrimSpace(translations[i]),
		})
	}
	return rows, nil
}

// nonBlankLines 按换行切分、去掉首尾空白，并丢弃空行
func nonBlankLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// providerError 已分类的错误（如熔断）保持原分类
func providerError(what string, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return err
	}
	return newAPIError(KindProvider, fmt.Sprintf("%s provider failed", what), err)
}
