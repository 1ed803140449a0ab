// Package textdiff 是 Delta.Diff 背后的纯文本差分引擎（Myers O(ND) 二分算法）。
//
// 所有下标和长度都按 UTF-16 code unit 计算，和前端保持一致；
// 顶层调用会修正落在代理对中间的分段边界，保证输出的每一段都是完整字符。
package textdiff

import (
	"deltaServer/backend/internal/ot/textunit"
)

// Operation 是一段差分的类型。数值和 JS 实现保持一致。
type Operation int8

const (
	DiffDelete Operation = -1
	DiffEqual  Operation = 0
	DiffInsert Operation = 1
)

func (op Operation) String() string {
	switch op {
	case DiffDelete:
		return "delete"
	case DiffInsert:
		return "insert"
	default:
		return "equal"
	}
}

// Diff 是一段差分结果。
type Diff struct {
	Type Operation
	Text string
}

// 内部按 code unit 运算，避免反复编解码。
type diff struct {
	op   Operation
	text []uint16
}

// Compute 计算把 text1 变成 text2 的差分。cursor 可为 nil；
// 非 nil 时先尝试按光标位置识别一次局部插入/删除。
func Compute(text1, text2 string, cursor *Cursor) []Diff {
	diffs := diffMain(textunit.Encode(text1), textunit.Encode(text2), cursor, true)
	out := make([]Diff, 0, len(diffs))
	for _, d := range diffs {
		out = append(out, Diff{Type: d.op, Text: textunit.Decode(d.text)})
	}
	return out
}

// diffMain 只有顶层调用会带 cursor 和 fixUnicode，递归调用都不带。
func diffMain(text1, text2 []uint16, cursor *Cursor, fixUnicode bool) []diff {
	if textunit.Equal(text1, text2) {
		if len(text1) > 0 {
			return []diff{{DiffEqual, text1}}
		}
		return nil
	}

	if cursor != nil {
		if diffs, ok := findCursorEditDiff(text1, text2, cursor); ok {
			return diffs
		}
	}

	// 去掉公共前缀
	n := commonPrefix(text1, text2)
	prefix := text1[:n]
	text1 = text1[n:]
	text2 = text2[n:]

	// 去掉公共后缀
	n = commonSuffix(text1, text2)
	suffix := text1[len(text1)-n:]
	text1 = text1[:len(text1)-n]
	text2 = text2[:len(text2)-n]

	diffs := diffCompute(text1, text2)

	if len(prefix) > 0 {
		diffs = append([]diff{{DiffEqual, prefix}}, diffs...)
	}
	if len(suffix) > 0 {
		diffs = append(diffs, diff{DiffEqual, suffix})
	}
	return cleanupMerge(diffs, fixUnicode)
}

// diffCompute 假设两段文本没有公共前后缀。
func diffCompute(text1, text2 []uint16) []diff {
	if len(text1) == 0 {
		return []diff{{DiffInsert, text2}}
	}
	if len(text2) == 0 {
		return []diff{{DiffDelete, text1}}
	}

	longtext, shorttext := text1, text2
	if len(text1) <= len(text2) {
		longtext, shorttext = text2, text1
	}

	if i := indexOf(longtext, shorttext, 0); i != -1 {
		// 短串整体包含在长串里
		op := DiffInsert
		if len(text1) > len(text2) {
			op = DiffDelete
		}
		return []diff{
			{op, longtext[:i]},
			{DiffEqual, shorttext},
			{op, longtext[i+len(shorttext):]},
		}
	}

	if len(shorttext) == 1 {
		// 去掉前后缀之后单个字符不可能相等
		return []diff{{DiffDelete, text1}, {DiffInsert, text2}}
	}

	if hm := halfMatch(text1, text2); hm != nil {
		diffsA := diffMain(hm[0], hm[2], nil, false)
		diffsB := diffMain(hm[1], hm[3], nil, false)
		diffs := append(diffsA, diff{DiffEqual, hm[4]})
		return append(diffs, diffsB...)
	}

	return bisect(text1, text2)
}

// commonPrefix 返回公共前缀长度，不会停在代理对中间。
func commonPrefix(a, b []uint16) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	if n > 0 && textunit.IsHighSurrogate(a[n-1]) {
		n--
	}
	return n
}

// commonSuffix 返回公共后缀长度，不会停在代理对中间。
func commonSuffix(a, b []uint16) int {
	n := 0
	for n < len(a) && n < len(b) && a[len(a)-1-n] == b[len(b)-1-n] {
		n++
	}
	if n > 0 && textunit.IsLowSurrogate(a[len(a)-n]) {
		n--
	}
	return n
}

func indexOf(s, sub []uint16, from int) int {
	for i := from; i+len(sub) <= len(s); i++ {
		if textunit.Equal(s[i:i+len(sub)], sub) {
			return i
		}
	}
	return -1
}

func hasPrefix(s, prefix []uint16) bool {
	return len(s) >= len(prefix) && textunit.Equal(s[:len(prefix)], prefix)
}

func hasSuffix(s, suffix []uint16) bool {
	return len(s) >= len(suffix) && textunit.Equal(s[len(s)-len(suffix):], suffix)
}

func endsWithPairStart(s []uint16) bool {
	return len(s) > 0 && textunit.IsHighSurrogate(s[len(s)-1])
}

func startsWithPairEnd(s []uint16) bool {
	return len(s) > 0 && textunit.IsLowSurrogate(s[0])
}

// concat 总是分配新数组，各段之间共享底层数组时不会互相覆盖。
func concat(parts ...[]uint16) []uint16 {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]uint16, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// splice 删除 diffs[index:index+amount] 并在原位置插入 elements。
func splice(diffs []diff, index, amount int, elements ...diff) []diff {
	out := make([]diff, 0, len(diffs)-amount+len(elements))
	out = append(out, diffs[:index]...)
	out = append(out, elements...)
	return append(out, diffs[index+amount:]...)
}
