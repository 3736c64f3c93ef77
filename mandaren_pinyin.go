// 普通话拼音转写：pinyin-golang 词典分词注音，可选数字转中文、繁体转简体

package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	pinyin_sentence "github.com/Lofanmi/pinyin-golang/pinyin"
	"github.com/ZingYao/chinese_number"
	"github.com/liuzl/gocc"
)

// Transliterator 中文 -> 拼音，保留原文换行
type Transliterator interface {
	Transliterate(ctx context.Context, text string) (string, error)
}

type ToneStyle string

const (
	ToneUnicode ToneStyle = "unicode" // nǐ hǎo
	ToneASCII   ToneStyle = "ascii"   // ni3 hao3
	ToneNone    ToneStyle = "none"    // ni hao
)

func parseToneStyle(s string) (ToneStyle, error) {
	switch ToneStyle(s) {
	case ToneUnicode, ToneASCII, ToneNone:
		return ToneStyle(s), nil
	case "":
		return ToneUnicode, nil
	}
	return "", fmt.Errorf("不支持的声调格式: %q", s)
}

// PinyinTransliterator 词典只读，构造后可并发使用
type PinyinTransliterator struct {
	dict         *pinyin_sentence.Dict
	style        ToneStyle
	spellNumbers bool
	t2s          *gocc.OpenCC
}

func NewPinyinTransliterator(cfg PinyinConfig) (*PinyinTransliterator, error) {
	style, err := parseToneStyle(cfg.ToneStyle)
	if err != nil {
		return nil, err
	}
	t := &PinyinTransliterator{
		dict:         pinyin_sentence.NewDict(),
		style:        style,
		spellNumbers: cfg.SpellNumbers,
	}
	if cfg.Traditional {
		t2s, err := gocc.New("t2s")
		if err != nil {
			return nil, fmt.Errorf("加载繁简转换词典失败: %w", err)
		}
		t.t2s = t2s
	}
	return t, nil
}

// Transliterate 逐行转写，行数与输入一致
func (t *PinyinTransliterator) Transliterate(ctx context.Context, text string) (string, error) {
	lines := strings.Split(text, "\n")
	out := make([]string, len(lines))
	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		py, err := t.line(line, t.style)
		if err != nil {
			return "", err
		}
		out[i] = py
	}
	return strings.Join(out, "\n"), nil
}

func (t *PinyinTransliterator) line(line string, style ToneStyle) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	line, err := t.normalize(line)
	if err != nil {
		return "", err
	}

	converted := t.dict.Convert(line, " ")
	switch style {
	case ToneASCII:
		return converted.ASCII(), nil
	case ToneNone:
		return converted.None(), nil
	default:
		return converted.Unicode(), nil
	}
}

// normalize 繁体转简体、阿拉伯数字转中文数字
func (t *PinyinTransliterator) normalize(line string) (string, error) {
	if t.t2s != nil {
		simplified, err := t.t2s.Convert(line)
		if err != nil {
			return "", fmt.Errorf("繁简转换失败: %w", err)
		}
		line = simplified
	}
	if !t.spellNumbers {
		return line, nil
	}

	var b strings.Builder
	for _, segment := range SplitText(line) {
		if segment.Type != SegmentNumber {
			b.WriteString(segment.Content)
			continue
		}
		num, err := strconv.ParseInt(segment.Content, 10, 64)
		if err != nil {
			// 超出int64范围的数字串保持原样
			b.WriteString(segment.Content)
			continue
		}
		b.WriteString(chinese_number.Number2Simplified(num))
	}
	return b.String(), nil
}

// Syllable 单个拼音音节的声母、韵母、声调
type Syllable struct {
	Pinyin  string `json:"pinyin"`
	Initial string `json:"initial"`
	Final   string `json:"final"`
	Tone    int    `json:"tone"`
}

// Syllables 按行返回音节拆分结果
func (t *PinyinTransliterator) Syllables(text string) ([][]Syllable, error) {
	var result [][]Syllable
	for _, line := range strings.Split(text, "\n") {
		ascii, err := t.line(line, ToneASCII)
		if err != nil {
			return nil, err
		}
		syllables := []Syllable{}
		for _, py := range strings.Fields(ascii) {
			syllables = append(syllables, splitSyllable(py))
		}
		result = append(result, syllables)
	}
	return result, nil
}

// 声母表，zh/ch/sh 必须排在 z/c/s 前面
var initials = strings.Split("zh,ch,sh,b,p,m,f,d,t,n,l,g,k,h,j,q,x,r,z,c,s", ",")

func syllableInitial(py string) string {
	for _, v := range initials {
		if strings.HasPrefix(py, v) {
			return v
		}
	}
	return ""
}

// splitSyllable "zhong1" -> zh, ong, 1。ü 用 v 表示
func splitSyllable(py string) Syllable {
	s := Syllable{Pinyin: py}
	base := py
	if n := len(base); n > 1 && base[n-1] >= '0' && base[n-1] <= '9' {
		s.Tone = int(base[n-1] - '0')
		base = base[:n-1]
	}

	s.Initial = syllableInitial(base)
	if s.Initial == "" {
		s.Final = normalizeYW(base)
		return s
	}

	final := strings.TrimPrefix(base, s.Initial)
	// ju -> jv, que -> qve
	switch s.Initial {
	case "j", "q", "x":
		if strings.HasPrefix(final, "u") {
			final = "v" + final[1:]
		}
	}
	s.Final = final
	return s
}

// normalizeYW 零声母音节还原韵母: yu -> v, yi -> i, y -> i, wu -> u, w -> u
func normalizeYW(p string) string {
	switch {
	case strings.HasPrefix(p, "yu"):
		return "v" + p[2:]
	case strings.HasPrefix(p, "yi"):
		return p[1:]
	case strings.HasPrefix(p, "y"):
		return "i" + p[1:]
	case strings.HasPrefix(p, "wu"):
		return p[1:]
	case strings.HasPrefix(p, "w"):
		return "u" + p[1:]
	}
	return p
}
