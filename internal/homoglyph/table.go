package homoglyph

import (
	"fmt"
	"sort"
	"unicode"
	"unicode/utf8"
)

// Table 小写拉丁字母到形近字符候选列表的映射
// 构建完成后只读，不要在运行中修改
type Table map[rune][]rune

// 表名称，与配置文件中的 table 字段对应
const (
	TableStandard = "standard"
	TableExtended = "extended"
	TableCustom   = "custom"
)

// StandardTable 返回默认替换表，每个字母只有一个西里尔候选字符
func StandardTable() Table {
	return Table{
		'a': {'а'}, // U+0430
		'c': {'с'}, // U+0441
		'e': {'е'}, // U+0435
		'i': {'і'}, // U+0456
		'j': {'ј'}, // U+0458
		'o': {'о'}, // U+043E
		'p': {'р'}, // U+0440
		'v': {'ѵ'}, // U+0475
		'x': {'х'}, // U+0445
		'y': {'у'}, // U+0443
	}
}

// ExtendedTable 在默认表基础上为 o、v 增加希腊、亚美尼亚候选字符
func ExtendedTable() Table {
	t := StandardTable()
	t['o'] = []rune{'о', 'ο', 'օ'} // 西里尔 / 希腊 / 亚美尼亚
	t['v'] = []rune{'ѵ', 'ν'}
	return t
}

// NewTable 根据配置中的映射构建替换表
// key 必须是单个小写拉丁字母，每个候选值必须是单个字符
func NewTable(mapping map[string][]string) (Table, error) {
	if len(mapping) == 0 {
		return nil, fmt.Errorf("替换表不能为空")
	}

	t := make(Table, len(mapping))
	for key, candidates := range mapping {
		k, size := utf8.DecodeRuneInString(key)
		if size == 0 || size != len(key) {
			return nil, fmt.Errorf("替换表的 key 必须是单个字符: %q", key)
		}
		if k > unicode.MaxASCII || !unicode.IsLower(k) {
			return nil, fmt.Errorf("替换表的 key 必须是小写拉丁字母: %q", key)
		}
		if len(candidates) == 0 {
			return nil, fmt.Errorf("字母 %q 的候选列表不能为空", key)
		}

		runes := make([]rune, 0, len(candidates))
		for _, c := range candidates {
			r, n := utf8.DecodeRuneInString(c)
			if n == 0 || n != len(c) || r == utf8.RuneError {
				return nil, fmt.Errorf("字母 %q 的候选值必须是单个字符: %q", key, c)
			}
			runes = append(runes, r)
		}
		t[k] = runes
	}

	return t, nil
}

// TableByName 按名称返回内置替换表
func TableByName(name string) (Table, error) {
	switch name {
	case "", TableStandard:
		return StandardTable(), nil
	case TableExtended:
		return ExtendedTable(), nil
	default:
		return nil, fmt.Errorf("未知的替换表: %s", name)
	}
}

// Keys 返回排序后的全部 key
func (t Table) Keys() []rune {
	keys := make([]rune, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
