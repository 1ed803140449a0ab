package textdiff

import (
	"bytes"
	"encoding/json"

	"deltaServer/backend/internal/ot/textunit"
)

// Range 是一个选区，Length 为 0 表示光标。
type Range struct {
	Index  int `json:"index"`
	Length int `json:"length"`
}

// Cursor 描述编辑前后的选区。
//
// 普通 Myers 差分对重复字符有歧义（"xxx" -> "xx" 可以删掉任何一个 x），
// 带上光标后优先识别用户实际做的那次编辑。NewRange 可以为 nil。
type Cursor struct {
	OldRange Range  `json:"oldRange"`
	NewRange *Range `json:"newRange,omitempty"`
}

// CursorAt 返回只知道编辑前光标位置的 Cursor。
func CursorAt(index int) *Cursor {
	return &Cursor{OldRange: Range{Index: index}}
}

// UnmarshalJSON 接受 {"oldRange": ..., "newRange": ...}，也接受一个数字，等价于 CursorAt。
func (c *Cursor) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && (data[0] == '-' || (data[0] >= '0' && data[0] <= '9')) {
		var index int
		if err := json.Unmarshal(data, &index); err != nil {
			return err
		}
		*c = *CursorAt(index)
		return nil
	}
	type plain Cursor
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Cursor(p)
	return nil
}

// findCursorEditDiff 在两段文本不相等的前提下执行。ok 为 false 时调用方走完整差分。
// 光标前的判断一旦匹配就不再尝试光标后的判断，即使拼接结果因代理对被放弃。
func findCursorEditDiff(oldText, newText []uint16, cursor *Cursor) ([]diff, bool) {
	oldRange, newRange := cursor.OldRange, cursor.NewRange
	oldLength := len(oldText)

	if oldRange.Length == 0 && (newRange == nil || newRange.Length == 0) {
		oldCursor := oldRange.Index
		if oldCursor < 0 || oldCursor > oldLength {
			return nil, false
		}
		oldBefore, oldAfter := oldText[:oldCursor], oldText[oldCursor:]

		// 光标前面的插入或删除
		if diffs, matched := editBefore(oldBefore, oldAfter, newText, oldLength, newRange); matched {
			return diffs, diffs != nil
		}
		// 光标后面的插入或删除
		if diffs, matched := editAfter(oldBefore, oldAfter, newText, oldCursor, oldLength, newRange); matched {
			return diffs, diffs != nil
		}
	}

	if oldRange.Length > 0 && newRange != nil && newRange.Length == 0 {
		// 用新内容替换了旧选区
		diffs := replaceRange(oldText, newText, oldRange)
		return diffs, diffs != nil
	}
	return nil, false
}

func editBefore(oldBefore, oldAfter, newText []uint16, oldLength int, newRange *Range) ([]diff, bool) {
	oldCursor := len(oldBefore)
	newLength := len(newText)
	newCursor := oldCursor + newLength - oldLength
	if newRange != nil && newRange.Index != newCursor {
		return nil, false
	}
	if newCursor < 0 || newCursor > newLength {
		return nil, false
	}
	newBefore, newAfter := newText[:newCursor], newText[newCursor:]
	if !textunit.Equal(newAfter, oldAfter) {
		return nil, false
	}
	prefixLength := min(oldCursor, newCursor)
	oldPrefix, newPrefix := oldBefore[:prefixLength], newBefore[:prefixLength]
	if !textunit.Equal(oldPrefix, newPrefix) {
		return nil, false
	}
	return makeEditSplice(oldPrefix, oldBefore[prefixLength:], newBefore[prefixLength:], oldAfter), true
}

func editAfter(oldBefore, oldAfter, newText []uint16, oldCursor, oldLength int, newRange *Range) ([]diff, bool) {
	if newRange != nil && newRange.Index != oldCursor {
		return nil, false
	}
	newLength := len(newText)
	if oldCursor > newLength {
		return nil, false
	}
	newBefore, newAfter := newText[:oldCursor], newText[oldCursor:]
	if !textunit.Equal(newBefore, oldBefore) {
		return nil, false
	}
	suffixLength := min(oldLength-oldCursor, newLength-oldCursor)
	oldSuffix := oldAfter[len(oldAfter)-suffixLength:]
	newSuffix := newAfter[len(newAfter)-suffixLength:]
	if !textunit.Equal(oldSuffix, newSuffix) {
		return nil, false
	}
	oldMiddle := oldAfter[:len(oldAfter)-suffixLength]
	newMiddle := newAfter[:len(newAfter)-suffixLength]
	return makeEditSplice(oldBefore, oldMiddle, newMiddle, oldSuffix), true
}

func replaceRange(oldText, newText []uint16, oldRange Range) []diff {
	oldLength, newLength := len(oldText), len(newText)
	if oldRange.Index < 0 || oldRange.Index+oldRange.Length > oldLength {
		return nil
	}
	oldPrefix := oldText[:oldRange.Index]
	oldSuffix := oldText[oldRange.Index+oldRange.Length:]
	prefixLength, suffixLength := len(oldPrefix), len(oldSuffix)
	if newLength < prefixLength+suffixLength {
		return nil
	}
	newPrefix := newText[:prefixLength]
	newSuffix := newText[newLength-suffixLength:]
	if !textunit.Equal(oldPrefix, newPrefix) || !textunit.Equal(oldSuffix, newSuffix) {
		return nil
	}
	oldMiddle := oldText[prefixLength : oldLength-suffixLength]
	newMiddle := newText[prefixLength : newLength-suffixLength]
	return makeEditSplice(oldPrefix, oldMiddle, newMiddle, oldSuffix)
}

// makeEditSplice 在边界会拆开代理对时返回 nil。
func makeEditSplice(before, oldMiddle, newMiddle, after []uint16) []diff {
	if endsWithPairStart(before) || startsWithPairEnd(after) {
		return nil
	}
	candidates := []diff{
		{DiffEqual, before},
		{DiffDelete, oldMiddle},
		{DiffInsert, newMiddle},
		{DiffEqual, after},
	}
	diffs := make([]diff, 0, len(candidates))
	for _, d := range candidates {
		if len(d.text) > 0 {
			diffs = append(diffs, d)
		}
	}
	return diffs
}
