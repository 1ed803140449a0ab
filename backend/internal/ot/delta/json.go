package delta

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"deltaServer/backend/internal/ot/attributemap"
	"deltaServer/backend/internal/ot/textunit"
)

var ErrMalformedOp = errors.New("op must have exactly one of insert, delete, retain")

// wireOp 是 JSON 上的形状：{"insert": "Hello", "attributes": {"bold": true}}
type wireOp struct {
	Insert     json.RawMessage  `json:"insert,omitempty"`
	Delete     *int             `json:"delete,omitempty"`
	Retain     *int             `json:"retain,omitempty"`
	Attributes attributemap.Map `json:"attributes,omitempty"`
}

func (op Op) MarshalJSON() ([]byte, error) {
	var w wireOp
	switch op.Kind {
	case KindInsert:
		var raw []byte
		var err error
		if op.IsEmbed() {
			raw, err = json.Marshal(op.Embed)
		} else {
			// 被拆开的代理对写成 \uXXXX，不能让 encoding/json 换成 U+FFFD
			raw, err = textunit.QuoteJSON(op.Text)
		}
		if err != nil {
			return nil, err
		}
		w.Insert = raw
	case KindDelete:
		w.Delete = &op.Count
	case KindRetain:
		w.Retain = &op.Count
	default:
		return nil, fmt.Errorf("marshal op: unknown kind %q", op.Kind)
	}
	// 值为 nil 的属性会编码成 null，保留"删除该属性"的语义
	w.Attributes = op.Attributes
	return json.Marshal(w)
}

func (op *Op) UnmarshalJSON(data []byte) error {
	var w wireOp
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	hasInsert := len(w.Insert) > 0 && !bytes.Equal(w.Insert, []byte("null"))
	n := 0
	for _, present := range []bool{hasInsert, w.Delete != nil, w.Retain != nil} {
		if present {
			n++
		}
	}
	if n != 1 {
		return ErrMalformedOp
	}

	attrs := w.Attributes
	if len(attrs) == 0 {
		attrs = nil
	}
	switch {
	case w.Delete != nil:
		*op = Op{Kind: KindDelete, Count: *w.Delete}
	case w.Retain != nil:
		*op = Op{Kind: KindRetain, Count: *w.Retain, Attributes: attrs}
	case bytes.HasPrefix(bytes.TrimSpace(w.Insert), []byte(`"`)):
		text, err := textunit.UnquoteJSON(w.Insert)
		if err != nil {
			return err
		}
		*op = Op{Kind: KindInsert, Text: text, Attributes: attrs}
	default:
		var content any
		if err := json.Unmarshal(w.Insert, &content); err != nil {
			return err
		}
		*op = Op{Kind: KindInsert, Embed: content, Attributes: attrs}
	}
	return nil
}

// MarshalJSON 总是输出 {"ops": [...]}。
func (d Delta) MarshalJSON() ([]byte, error) {
	ops := d.Ops
	if ops == nil {
		ops = []Op{}
	}
	return json.Marshal(struct {
		Ops []Op `json:"ops"`
	}{ops})
}

// UnmarshalJSON 同时接受 [...] 和 {"ops": [...]} 两种形状。
// 操作经过 Push 重新整理：长度不为正的操作被丢弃，相邻同类操作合并。
func (d *Delta) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var ops []Op
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &ops); err != nil {
			return err
		}
	} else {
		var wrapper struct {
			Ops []Op `json:"ops"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return err
		}
		ops = wrapper.Ops
	}
	d.Ops = nil
	for _, op := range ops {
		if op.Length() <= 0 {
			continue
		}
		d.Push(op)
	}
	return nil
}
