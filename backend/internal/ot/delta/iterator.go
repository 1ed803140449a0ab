package delta

import "deltaServer/backend/internal/ot/textunit"

// Iterator 按长度逐段消费一组操作，compose/transform/diff 都用两个迭代器对齐边界。
// 越过末尾后视为一个无限长的 retain。
type Iterator struct {
	ops    []Op
	index  int
	offset int // 当前操作里已经消费掉的长度
}

func NewIterator(ops []Op) *Iterator {
	return &Iterator{ops: ops}
}

func (it *Iterator) HasNext() bool {
	return it.PeekLength() < Infinity
}

// Next 从当前操作中取出最多 length 个单位，length <= 0 表示取完当前操作。
// 嵌入对象长度为 1，不会被拆开。
func (it *Iterator) Next(length int) Op {
	if length <= 0 {
		length = Infinity
	}
	if it.index >= len(it.ops) {
		return Op{Kind: KindRetain, Count: Infinity}
	}
	nextOp := it.ops[it.index]
	offset := it.offset
	opLength := nextOp.Length()
	if length >= opLength-offset {
		length = opLength - offset
		it.index++
		it.offset = 0
	} else {
		it.offset += length
	}

	switch nextOp.Kind {
	case KindDelete:
		return Op{Kind: KindDelete, Count: length}
	case KindRetain:
		return Op{Kind: KindRetain, Count: length, Attributes: nextOp.Attributes}
	default:
		if nextOp.IsEmbed() {
			return Op{Kind: KindInsert, Embed: nextOp.Embed, Attributes: nextOp.Attributes}
		}
		text := nextOp.Text
		if offset != 0 || length != opLength {
			text = textunit.Slice(text, offset, offset+length)
		}
		return Op{Kind: KindInsert, Text: text, Attributes: nextOp.Attributes}
	}
}

// Peek 返回当前操作本身（不做切分）。
func (it *Iterator) Peek() (Op, bool) {
	if it.index >= len(it.ops) {
		return Op{}, false
	}
	return it.ops[it.index], true
}

func (it *Iterator) PeekLength() int {
	if it.index >= len(it.ops) {
		return Infinity
	}
	return it.ops[it.index].Length() - it.offset
}

func (it *Iterator) PeekType() Kind {
	if it.index >= len(it.ops) {
		return KindRetain
	}
	return it.ops[it.index].Kind
}

// Rest 返回所有尚未消费的操作，不改变迭代器状态。
func (it *Iterator) Rest() []Op {
	if !it.HasNext() {
		return nil
	}
	if it.offset == 0 {
		return append([]Op(nil), it.ops[it.index:]...)
	}
	index, offset := it.index, it.offset
	next := it.Next(Infinity)
	rest := append([]Op{next}, it.ops[it.index:]...)
	it.index, it.offset = index, offset
	return rest
}
