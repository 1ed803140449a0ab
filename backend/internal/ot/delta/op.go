package delta

import (
	"math"

	"deltaServer/backend/internal/ot/attributemap"
	"deltaServer/backend/internal/ot/textunit"
	"deltaServer/backend/internal/ot/value"
)

type Kind string

const (
	KindRetain Kind = "retain"
	KindInsert Kind = "insert"
	KindDelete Kind = "delete"
)

// Infinity 表示"一直保留到文档末尾"，迭代器越过末尾时也返回这个长度。
const Infinity = math.MaxInt

// Op 是 Delta 中的一个操作：
//   - insert: Text 非空，或者 Embed 非 nil（图片/公式等嵌入对象，长度记为 1）
//   - delete: Count 个单位
//   - retain: Count 个单位，可带属性修改
//
// 长度统一按 UTF-16 code unit 计算。
type Op struct {
	Kind       Kind
	Text       string
	Embed      any
	Count      int
	Attributes attributemap.Map
}

func InsertOp(text string, attrs attributemap.Map) Op {
	return Op{Kind: KindInsert, Text: text, Attributes: attributemap.Clone(attrs)}
}

func InsertEmbedOp(embed any, attrs attributemap.Map) Op {
	return Op{Kind: KindInsert, Embed: embed, Attributes: attributemap.Clone(attrs)}
}

func DeleteOp(n int) Op {
	return Op{Kind: KindDelete, Count: n}
}

func RetainOp(n int, attrs attributemap.Map) Op {
	return Op{Kind: KindRetain, Count: n, Attributes: attributemap.Clone(attrs)}
}

// IsEmbed 判断是否是插入嵌入对象。
func (op Op) IsEmbed() bool {
	return op.Kind == KindInsert && op.Embed != nil
}

// Length 返回操作覆盖的长度。
func (op Op) Length() int {
	switch op.Kind {
	case KindInsert:
		if op.IsEmbed() {
			return 1
		}
		return textunit.Len(op.Text)
	default:
		return op.Count
	}
}

// content 返回 insert 的内容：文本或嵌入对象。
func (op Op) content() any {
	if op.IsEmbed() {
		return op.Embed
	}
	return op.Text
}

// Equal 结构比较两个操作。
func (op Op) Equal(other Op) bool {
	if op.Kind != other.Kind || !attributemap.Equal(op.Attributes, other.Attributes) {
		return false
	}
	if op.Kind == KindInsert {
		return value.Equal(op.content(), other.content())
	}
	return op.Count == other.Count
}

func (op Op) clone() Op {
	op.Attributes = attributemap.Clone(op.Attributes)
	if op.Embed != nil {
		op.Embed = value.Clone(op.Embed)
	}
	return op
}

// addLength 饱和加法，任何一方为 Infinity 时结果仍是 Infinity。
func addLength(a, b int) int {
	if b > 0 && a > Infinity-b {
		return Infinity
	}
	return a + b
}
