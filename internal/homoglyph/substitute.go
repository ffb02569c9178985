// Package homoglyph 把文本中的拉丁字母替换为外观相同的其他文字字符。
//
// 大写策略：源字符为大写时，对替换字符使用 Unicode 的大写映射
// (golang.org/x/text/cases, 不区分语言)。替换字符所属文字没有大小写区分时，
// 保留源字符本身。
package homoglyph

import (
	"math/rand/v2"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RandSource 随机数来源，*rand.Rand 满足该接口
type RandSource interface {
	IntN(n int) int
}

// Substituter 形近字符替换器
// 持有随机数状态，不能在多个 goroutine 间共享
type Substituter struct {
	table Table
	upper map[rune]string
	rnd   RandSource
}

// NewSubstituter 创建替换器，rnd 为 nil 时使用按时间播种的 PCG
func NewSubstituter(table Table, rnd RandSource) *Substituter {
	if table == nil {
		table = StandardTable()
	}
	if rnd == nil {
		rnd = NewRand(uint64(time.Now().UnixNano()))
	}

	caser := cases.Upper(language.Und)
	upper := make(map[rune]string)
	for _, candidates := range table {
		for _, c := range candidates {
			upper[c] = caser.String(string(c))
		}
	}

	return &Substituter{
		table: table,
		upper: upper,
		rnd:   rnd,
	}
}

// NewRand 返回固定种子的随机数来源，便于复现输出
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Substitute 逐字符替换文本
func (s *Substituter) Substitute(text string) string {
	if text == "" {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) * 2)

	for _, r := range text {
		candidates, ok := s.table[unicode.ToLower(r)]
		if !ok || len(candidates) == 0 {
			b.WriteRune(r)
			continue
		}

		replacement := candidates[0]
		if len(candidates) > 1 {
			replacement = candidates[s.rnd.IntN(len(candidates))]
		}

		if unicode.IsUpper(r) {
			b.WriteString(s.toUpper(r, replacement))
			continue
		}
		b.WriteRune(replacement)
	}

	return b.String()
}

// toUpper 替换字符没有大写形式时退回源字符
func (s *Substituter) toUpper(source, replacement rune) string {
	up, ok := s.upper[replacement]
	if !ok || up == string(replacement) {
		return string(source)
	}
	return up
}

// Substitute 使用默认替换表替换文本
func Substitute(text string) string {
	return NewSubstituter(StandardTable(), nil).Substitute(text)
}
