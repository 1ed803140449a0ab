package delta

import "deltaServer/backend/internal/ot/attributemap"

// Transform 把与 d 并发的 other 变换成可以在 d 之后应用的形式。
// priority 为 true 表示 d 先发生：两边在同一位置插入时 d 的内容排在前面。
func (d *Delta) Transform(other *Delta, priority bool) *Delta {
	thisIter := NewIterator(d.Ops)
	otherIter := NewIterator(other.Ops)
	delta := New()
	for thisIter.HasNext() || otherIter.HasNext() {
		switch {
		case thisIter.PeekType() == KindInsert && (priority || otherIter.PeekType() != KindInsert):
			delta.Retain(thisIter.Next(Infinity).Length(), nil)
		case otherIter.PeekType() == KindInsert:
			delta.Push(otherIter.Next(Infinity))
		default:
			length := min(thisIter.PeekLength(), otherIter.PeekLength())
			thisOp := thisIter.Next(length)
			otherOp := otherIter.Next(length)
			switch {
			case thisOp.Kind == KindDelete:
				// 已经被 d 删掉的内容，other 对它的操作没有意义
			case otherOp.Kind == KindDelete:
				delta.Push(otherOp)
			default:
				delta.Retain(length, attributemap.Transform(thisOp.Attributes, otherOp.Attributes, priority))
			}
		}
	}
	return delta.Chop()
}

// TransformPosition 把光标位置 index 变换到应用 d 之后的文档上。
// priority 为 true 时恰好插在光标处的内容不移动光标。
func (d *Delta) TransformPosition(index int, priority bool) int {
	thisIter := NewIterator(d.Ops)
	offset := 0
	for thisIter.HasNext() && offset <= index {
		length := thisIter.PeekLength()
		nextType := thisIter.PeekType()
		thisIter.Next(Infinity)
		if nextType == KindDelete {
			// 删除的内容不占位置，offset 不前进
			index -= min(length, index-offset)
			continue
		}
		if nextType == KindInsert && (offset < index || !priority) {
			index += length
		}
		offset = addLength(offset, length)
	}
	return index
}
