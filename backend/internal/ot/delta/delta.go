// Package delta 实现富文本 Delta：既可以表示一篇文档（只含 insert），
// 也可以表示对文档的一次修改（insert/delete/retain 混合）。
//
// "ops":[{"retain":5},{"insert":"Hello"}]
package delta

import (
	"strings"

	"deltaServer/backend/internal/ot/attributemap"
	"deltaServer/backend/internal/ot/textunit"
)

// Delta 是有序的操作列表。Push 负责维持规范形式：
// 相邻同类操作合并，同一位置上 insert 总排在 delete 之前。
type Delta struct {
	Ops []Op `json:"ops"`
}

// New 直接使用给定的操作构造 Delta，不做规范化。
func New(ops ...Op) *Delta {
	return &Delta{Ops: append([]Op(nil), ops...)}
}

// Insert 插入文本，空串忽略。
func (d *Delta) Insert(text string, attrs attributemap.Map) *Delta {
	if text == "" {
		return d
	}
	return d.Push(InsertOp(text, attrs))
}

// InsertEmbed 插入一个嵌入对象，nil 忽略。
func (d *Delta) InsertEmbed(embed any, attrs attributemap.Map) *Delta {
	if embed == nil {
		return d
	}
	return d.Push(InsertEmbedOp(embed, attrs))
}

func (d *Delta) Delete(n int) *Delta {
	if n <= 0 {
		return d
	}
	return d.Push(DeleteOp(n))
}

func (d *Delta) Retain(n int, attrs attributemap.Map) *Delta {
	if n <= 0 {
		return d
	}
	return d.Push(RetainOp(n, attrs))
}

// Push 追加一个操作并和末尾的操作合并。
func (d *Delta) Push(newOp Op) *Delta {
	newOp = newOp.clone()
	index := len(d.Ops)
	if index == 0 {
		d.Ops = append(d.Ops, newOp)
		return d
	}
	lastOp := d.Ops[index-1]

	if newOp.Kind == KindDelete && lastOp.Kind == KindDelete {
		d.Ops[index-1] = DeleteOp(addLength(lastOp.Count, newOp.Count))
		return d
	}

	// 同一位置先插入后删除和先删除后插入等价，统一把 insert 放到 delete 前面
	if lastOp.Kind == KindDelete && newOp.Kind == KindInsert {
		index--
		if index == 0 {
			d.Ops = append([]Op{newOp}, d.Ops...)
			return d
		}
		lastOp = d.Ops[index-1]
	}

	if attributemap.Equal(newOp.Attributes, lastOp.Attributes) {
		switch {
		case newOp.Kind == KindInsert && lastOp.Kind == KindInsert && !newOp.IsEmbed() && !lastOp.IsEmbed():
			d.Ops[index-1] = Op{Kind: KindInsert, Text: textunit.Join(lastOp.Text, newOp.Text), Attributes: newOp.Attributes}
			return d
		case newOp.Kind == KindRetain && lastOp.Kind == KindRetain:
			d.Ops[index-1] = Op{Kind: KindRetain, Count: addLength(lastOp.Count, newOp.Count), Attributes: newOp.Attributes}
			return d
		}
	}

	if index == len(d.Ops) {
		d.Ops = append(d.Ops, newOp)
		return d
	}
	d.Ops = append(d.Ops, Op{})
	copy(d.Ops[index+1:], d.Ops[index:])
	d.Ops[index] = newOp
	return d
}

// Chop 去掉末尾不带属性的 retain。
func (d *Delta) Chop() *Delta {
	if n := len(d.Ops); n > 0 {
		last := d.Ops[n-1]
		if last.Kind == KindRetain && last.Count != 0 && len(last.Attributes) == 0 {
			d.Ops = d.Ops[:n-1]
		}
	}
	return d
}

func (d *Delta) Filter(predicate func(op Op, i int) bool) []Op {
	var out []Op
	for i, op := range d.Ops {
		if predicate(op, i) {
			out = append(out, op)
		}
	}
	return out
}

func (d *Delta) ForEach(fn func(op Op, i int)) {
	for i, op := range d.Ops {
		fn(op, i)
	}
}

func (d *Delta) Partition(predicate func(op Op) bool) (passed, failed []Op) {
	for _, op := range d.Ops {
		if predicate(op) {
			passed = append(passed, op)
		} else {
			failed = append(failed, op)
		}
	}
	return passed, failed
}

// Map 对每个操作调用 fn 并收集结果。Go 方法不能带类型参数，所以是函数。
func Map[T any](d *Delta, fn func(op Op, i int) T) []T {
	out := make([]T, 0, len(d.Ops))
	for i, op := range d.Ops {
		out = append(out, fn(op, i))
	}
	return out
}

func Reduce[T any](d *Delta, fn func(acc T, op Op, i int) T, initial T) T {
	acc := initial
	for i, op := range d.Ops {
		acc = fn(acc, op, i)
	}
	return acc
}

// Length 返回所有操作长度之和。
func (d *Delta) Length() int {
	n := 0
	for _, op := range d.Ops {
		n = addLength(n, op.Length())
	}
	return n
}

// ChangeLength 返回应用这个 Delta 后文档长度的变化量。
func (d *Delta) ChangeLength() int {
	n := 0
	for _, op := range d.Ops {
		switch op.Kind {
		case KindInsert:
			n += op.Length()
		case KindDelete:
			n -= op.Count
		}
	}
	return n
}

// Slice 返回 [start, end) 范围内的操作，end 传 Infinity 表示到末尾。
func (d *Delta) Slice(start, end int) *Delta {
	var ops []Op
	iter := NewIterator(d.Ops)
	index := 0
	for index < end && iter.HasNext() {
		var nextOp Op
		if index < start {
			nextOp = iter.Next(start - index)
		} else {
			nextOp = iter.Next(end - index)
			ops = append(ops, nextOp)
		}
		index = addLength(index, nextOp.Length())
	}
	return &Delta{Ops: ops}
}

// Concat 拼接两个 Delta，接缝处的两个操作会合并。
func (d *Delta) Concat(other *Delta) *Delta {
	out := New(d.Ops...)
	if len(other.Ops) > 0 {
		out.Push(other.Ops[0])
		out.Ops = append(out.Ops, other.Ops[1:]...)
	}
	return out
}

// EachLine 按换行符把文档切成行，fn 收到该行内容、换行符上的属性和行号，
// 返回 false 时停止。遇到非 insert 操作直接结束。newline 为空时使用 "\n"。
func (d *Delta) EachLine(fn func(line *Delta, attrs attributemap.Map, i int) bool, newline string) {
	if newline == "" {
		newline = "\n"
	}
	newlineLength := textunit.Len(newline)
	iter := NewIterator(d.Ops)
	line := New()
	i := 0
	for iter.HasNext() {
		if iter.PeekType() != KindInsert {
			return
		}
		thisOp, _ := iter.Peek()
		start := thisOp.Length() - iter.PeekLength()
		index := -1
		if !thisOp.IsEmbed() {
			if found := textunit.Index(thisOp.Text, newline, start); found >= 0 {
				index = found - start
			}
		}
		switch {
		case index < 0:
			line.Push(iter.Next(Infinity))
		case index > 0:
			line.Push(iter.Next(index))
		default:
			if !fn(line, iter.Next(newlineLength).Attributes, i) {
				return
			}
			i++
			line = New()
		}
	}
	if line.Length() > 0 {
		fn(line, nil, i)
	}
}

// Text 拼接所有 insert 的文本，嵌入对象用 NUL 占位。
func (d *Delta) Text() string {
	var b strings.Builder
	for _, op := range d.Ops {
		switch {
		case op.Kind != KindInsert:
		case op.IsEmbed():
			b.WriteByte(embedPlaceholder)
		default:
			b.WriteString(op.Text)
		}
	}
	s := b.String()
	// 相邻两个操作各持有半个代理对时重新合并
	if strings.IndexByte(s, 0xED) >= 0 {
		s = textunit.Decode(textunit.Encode(s))
	}
	return s
}

// Equal 逐个比较操作。
func (d *Delta) Equal(other *Delta) bool {
	if len(d.Ops) != len(other.Ops) {
		return false
	}
	for i := range d.Ops {
		if !d.Ops[i].Equal(other.Ops[i]) {
			return false
		}
	}
	return true
}
