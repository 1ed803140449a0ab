package delta

import "deltaServer/backend/internal/ot/attributemap"

// Compose 返回等价于先应用 d 再应用 other 的 Delta。
func (d *Delta) Compose(other *Delta) *Delta {
	thisIter := NewIterator(d.Ops)
	otherIter := NewIterator(other.Ops)
	var ops []Op

	// other 以不带属性的 retain 开头时，被它覆盖的 insert 原样输出
	if firstOther, ok := otherIter.Peek(); ok && firstOther.Kind == KindRetain && len(firstOther.Attributes) == 0 {
		firstLeft := firstOther.Count
		for thisIter.PeekType() == KindInsert && thisIter.PeekLength() <= firstLeft {
			firstLeft -= thisIter.PeekLength()
			ops = append(ops, thisIter.Next(Infinity))
		}
		if firstOther.Count-firstLeft > 0 {
			otherIter.Next(firstOther.Count - firstLeft)
		}
	}

	delta := New(ops...)
	for thisIter.HasNext() || otherIter.HasNext() {
		switch {
		case otherIter.PeekType() == KindInsert:
			delta.Push(otherIter.Next(Infinity))
		case thisIter.PeekType() == KindDelete:
			delta.Push(thisIter.Next(Infinity))
		default:
			length := min(thisIter.PeekLength(), otherIter.PeekLength())
			thisOp := thisIter.Next(length)
			otherOp := otherIter.Next(length)
			switch {
			case otherOp.Kind == KindRetain:
				var newOp Op
				if thisOp.Kind == KindRetain {
					newOp = Op{Kind: KindRetain, Count: length}
				} else {
					newOp = Op{Kind: KindInsert, Text: thisOp.Text, Embed: thisOp.Embed}
				}
				newOp.Attributes = attributemap.Compose(thisOp.Attributes, otherOp.Attributes, thisOp.Kind == KindRetain)
				delta.Push(newOp)

				// other 已经用完，剩下的 d 原样拼上
				if !otherIter.HasNext() && delta.Ops[len(delta.Ops)-1].Equal(newOp) {
					rest := &Delta{Ops: thisIter.Rest()}
					return delta.Concat(rest).Chop()
				}
			case otherOp.Kind == KindDelete && thisOp.Kind == KindRetain:
				delta.Push(otherOp)
			}
			// d 插入、other 删除：两者抵消
		}
	}
	return delta.Chop()
}
