package main

import (
	"context"
	"strings"
	"testing"

	"github.com/ZingYao/chinese_number"
)

func TestTransliterateNiHao(t *testing.T) {
	p := testPinyin(t)

	got, err := p.Transliterate(context.Background(), "你好")
	if err != nil {
		t.Fatalf("Transliterate failed: %v", err)
	}
	if got != "nǐ hǎo" {
		t.Errorf("Transliterate(你好) = %q, want %q", got, "nǐ hǎo")
	}
}

func TestTransliterateKeepsLineBreaks(t *testing.T) {
	p := testPinyin(t)

	got, err := p.Transliterate(context.Background(), "你好\n\n中国")
	if err != nil {
		t.Fatalf("Transliterate failed: %v", err)
	}
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), got)
	}
	if lines[0] != "nǐ hǎo" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != "" {
		t.Errorf("blank line should stay blank, got %q", lines[1])
	}
	if len(strings.Fields(lines[2])) != 2 {
		t.Errorf("line 2 should have two syllables, got %q", lines[2])
	}
}

func TestTransliterateToneStyles(t *testing.T) {
	ascii, err := NewPinyinTransliterator(PinyinConfig{ToneStyle: "ascii"})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := ascii.Transliterate(context.Background(), "你好")
	if got != "ni3 hao3" {
		t.Errorf("ascii style = %q, want %q", got, "ni3 hao3")
	}

	none, err := NewPinyinTransliterator(PinyinConfig{ToneStyle: "none"})
	if err != nil {
		t.Fatal(err)
	}
	got, _ = none.Transliterate(context.Background(), "你好")
	if got != "ni hao" {
		t.Errorf("none style = %q, want %q", got, "ni hao")
	}

	if _, err := NewPinyinTransliterator(PinyinConfig{ToneStyle: "bopomofo"}); err == nil {
		t.Error("expected error for unknown tone style")
	}
}

func TestTransliterateSpellNumbers(t *testing.T) {
	p, err := NewPinyinTransliterator(PinyinConfig{ToneStyle: "unicode", SpellNumbers: true})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	digits, _ := p.Transliterate(ctx, "我有3个")
	spelled, _ := p.Transliterate(ctx, "我有"+chinese_number.Number2Simplified(3)+"个")
	if digits != spelled {
		t.Errorf("digits %q != spelled %q", digits, spelled)
	}
}

func TestTransliterateCancelled(t *testing.T) {
	p := testPinyin(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Transliterate(ctx, "你好"); err == nil {
		t.Error("expected context error")
	}
}

func TestSplitSyllable(t *testing.T) {
	tests := []struct {
		in      string
		initial string
		final   string
		tone    int
	}{
		{"zhong1", "zh", "ong", 1},
		{"hao3", "h", "ao", 3},
		{"ju3", "j", "v", 3},
		{"xue2", "x", "ve", 2},
		{"lv4", "l", "v", 4},
		{"yu2", "", "v", 2},
		{"yi1", "", "i", 1},
		{"yan2", "", "ian", 2},
		{"wu3", "", "u", 3},
		{"wo3", "", "uo", 3},
		{"an4", "", "an", 4},
		{"de", "d", "e", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s := splitSyllable(tt.in)
			if s.Initial != tt.initial || s.Final != tt.final || s.Tone != tt.tone {
				t.Errorf("splitSyllable(%q) = %+v, want %s/%s/%d", tt.in, s, tt.initial, tt.final, tt.tone)
			}
			if s.Pinyin != tt.in {
				t.Errorf("Pinyin = %q, want %q", s.Pinyin, tt.in)
			}
		})
	}
}

func TestSyllablesPerLine(t *testing.T) {
	p := testPinyin(t)

	lines, err := p.Syllables("你好\n中国")
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if len(lines[0]) != 2 {
		t.Fatalf("expected 2 syllables, got %+v", lines[0])
	}
	if lines[0][0].Initial != "n" || lines[0][0].Final != "i" || lines[0][0].Tone != 3 {
		t.Errorf("你 = %+v", lines[0][0])
	}
	if lines[0][1].Initial != "h" || lines[0][1].Final != "ao" || lines[0][1].Tone != 3 {
		t.Errorf("好 = %+v", lines[0][1])
	}
}
