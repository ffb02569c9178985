package homoglyph

import (
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRand 总是返回固定下标的随机数来源
type fixedRand struct {
	index int
	calls int
}

func (f *fixedRand) IntN(n int) int {
	f.calls++
	return f.index % n
}

func TestSubstitute_StandardTable(t *testing.T) {
	sub := NewSubstituter(StandardTable(), &fixedRand{})

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "空字符串", input: "", expected: ""},
		{name: "无匹配字母", input: "123 !? bdfg", expected: "123 !? bdfg"},
		{name: "小写替换", input: "hello", expected: "hеllо"},
		{name: "大写替换", input: "HELLO", expected: "HЕLLО"},
		{name: "混合大小写", input: "Apple", expected: "Аррlе"},
		{name: "非拉丁字符保持不变", input: "数据 ß", expected: "数据 ß"},
		{name: "全部候选字母", input: "aceijopvxy", expected: "асеіјорѵху"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sub.Substitute(tt.input))
		})
	}
}

func TestSubstitute_HelloCyrillic(t *testing.T) {
	table := Table{'e': {'е'}, 'o': {'о'}}
	sub := NewSubstituter(table, &fixedRand{})

	assert.Equal(t, "Hеllо", sub.Substitute("Hello"))
}

func TestSubstitute_PreservesLengthAndPositions(t *testing.T) {
	sub := NewSubstituter(ExtendedTable(), NewRand(42))
	input := "The quick brown fox jumps over the lazy dog, 1234567890!"

	output := sub.Substitute(input)

	in := []rune(input)
	out := []rune(output)
	require.Equal(t, len(in), len(out), "替换前后字符数应一致")

	table := ExtendedTable()
	for i := range in {
		if _, ok := table[unicode.ToLower(in[i])]; ok {
			assert.NotEqual(t, in[i], out[i], "位置 %d 的字母应被替换", i)
			assert.Equal(t, unicode.IsUpper(in[i]), unicode.IsUpper(out[i]), "位置 %d 的大小写应保持", i)
			continue
		}
		assert.Equal(t, in[i], out[i], "位置 %d 的字符不应改变", i)
	}
}

func TestSubstitute_MultipleCandidatesUseRandSource(t *testing.T) {
	table := ExtendedTable()

	for index, expected := range []string{"о", "ο", "օ"} {
		rnd := &fixedRand{index: index}
		sub := NewSubstituter(table, rnd)
		assert.Equal(t, expected, sub.Substitute("o"))
		assert.Equal(t, 1, rnd.calls)
	}

	// 单候选字母不消耗随机数
	rnd := &fixedRand{}
	NewSubstituter(table, rnd).Substitute("aaa")
	assert.Equal(t, 0, rnd.calls)
}

func TestSubstitute_UppercaseUsesReplacementScript(t *testing.T) {
	table := ExtendedTable()

	tests := []struct {
		index    int
		input    string
		expected string
	}{
		{index: 0, input: "O", expected: "О"}, // U+041E
		{index: 1, input: "O", expected: "Ο"}, // U+039F
		{index: 2, input: "O", expected: "Օ"}, // U+0555
		{index: 0, input: "V", expected: "Ѵ"}, // U+0474
		{index: 1, input: "V", expected: "Ν"}, // U+039D
		{index: 0, input: "I", expected: "І"}, // U+0406
	}

	for _, tt := range tests {
		sub := NewSubstituter(table, &fixedRand{index: tt.index})
		got := sub.Substitute(tt.input)
		assert.Equal(t, tt.expected, got)
		r, _ := utf8.DecodeRuneInString(got)
		assert.True(t, unicode.IsUpper(r))
		assert.NotEqual(t, tt.input, got)
	}
}

func TestSubstitute_UncasedReplacementFallsBackToSource(t *testing.T) {
	// 汉字没有大小写，大写源字符应原样保留
	table := Table{'a': {'丫'}}
	sub := NewSubstituter(table, &fixedRand{})

	assert.Equal(t, "丫", sub.Substitute("a"))
	assert.Equal(t, "A", sub.Substitute("A"))
}

func TestSubstitute_NotIdempotent(t *testing.T) {
	// 第二次替换时已替换的字符不在表中，保持不变
	sub := NewSubstituter(StandardTable(), &fixedRand{})
	once := sub.Substitute("Hello")
	twice := sub.Substitute(once)
	assert.Equal(t, once, twice)

	// 表中包含替换结果时会继续替换
	chain := Table{'e': {'\u0435'}, '\u0435': {'\u0451'}}
	chained := NewSubstituter(chain, &fixedRand{})
	first := chained.Substitute("e")
	second := chained.Substitute(first)
	assert.Equal(t, "\u0435", first)
	assert.Equal(t, "\u0451", second)
	assert.NotEqual(t, first, second)
}

func TestSubstitute_PackageHelper(t *testing.T) {
	assert.Equal(t, "", Substitute(""))
	assert.Equal(t, "\u0421\u043e\u0440\u0443", Substitute("Copy"))
}

func TestNewSubstituter_Defaults(t *testing.T) {
	sub := NewSubstituter(nil, nil)
	require.NotNil(t, sub)
	assert.Equal(t, "ра", sub.Substitute("pa"))
}

func TestNewRand_Deterministic(t *testing.T) {
	input := "ooooo vvvvv OOOOO"
	a := NewSubstituter(ExtendedTable(), NewRand(7)).Substitute(input)
	b := NewSubstituter(ExtendedTable(), NewRand(7)).Substitute(input)
	assert.Equal(t, a, b)
}
