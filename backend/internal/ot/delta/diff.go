package delta

import (
	"errors"
	"fmt"

	"deltaServer/backend/internal/ot/attributemap"
	"deltaServer/backend/internal/ot/textdiff"
	"deltaServer/backend/internal/ot/textunit"
	"deltaServer/backend/internal/ot/value"
)

// 嵌入对象在文本差分里的占位字符
const embedPlaceholder = 0x00

// ErrNonDocument 表示参与 Diff 的 Delta 含有非 insert 操作。
var ErrNonDocument = errors.New("non-document")

// Diff 计算把文档 d 变成文档 other 的 Delta，两者都必须只含 insert。
// cursor 可为 nil，用来在重复字符处选出用户实际做的那次编辑；
// 任一文档含嵌入对象时忽略 cursor。
func (d *Delta) Diff(other *Delta, cursor *textdiff.Cursor) (*Delta, error) {
	if d == other {
		return New(), nil
	}
	if err := checkDocument(d); err != nil {
		return nil, fmt.Errorf("diff() called on %w", err)
	}
	if err := checkDocument(other); err != nil {
		return nil, fmt.Errorf("diff() called with %w", err)
	}
	if hasEmbed(d) || hasEmbed(other) {
		cursor = nil
	}

	retDelta := New()
	thisIter := NewIterator(d.Ops)
	otherIter := NewIterator(other.Ops)
	for _, component := range textdiff.Compute(d.Text(), other.Text(), cursor) {
		length := textunit.Len(component.Text)
		for length > 0 {
			opLength := 0
			switch component.Type {
			case textdiff.DiffInsert:
				opLength = min(otherIter.PeekLength(), length)
				retDelta.Push(otherIter.Next(opLength))
			case textdiff.DiffDelete:
				opLength = min(length, thisIter.PeekLength())
				thisIter.Next(opLength)
				retDelta.Delete(opLength)
			case textdiff.DiffEqual:
				opLength = min(thisIter.PeekLength(), otherIter.PeekLength(), length)
				thisOp := thisIter.Next(opLength)
				otherOp := otherIter.Next(opLength)
				if value.Equal(thisOp.content(), otherOp.content()) && thisOp.IsEmbed() == otherOp.IsEmbed() {
					retDelta.Retain(opLength, attributemap.Diff(thisOp.Attributes, otherOp.Attributes))
				} else {
					// 文本相同但实际是嵌入对象和 NUL 字符，或两个不同的嵌入对象
					retDelta.Push(otherOp).Delete(opLength)
				}
			}
			length -= opLength
		}
	}
	return retDelta.Chop(), nil
}

func checkDocument(d *Delta) error {
	for _, op := range d.Ops {
		if op.Kind != KindInsert {
			return ErrNonDocument
		}
	}
	return nil
}

func hasEmbed(d *Delta) bool {
	for _, op := range d.Ops {
		if op.IsEmbed() {
			return true
		}
	}
	return false
}
