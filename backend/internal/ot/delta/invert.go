package delta

import "deltaServer/backend/internal/ot/attributemap"

// Invert 返回撤销 d 的 Delta，base 是 d 作用之前的文档。
func (d *Delta) Invert(base *Delta) *Delta {
	inverted := New()
	baseIndex := 0
	for _, op := range d.Ops {
		switch {
		case op.Kind == KindInsert:
			inverted.Delete(op.Length())
		case op.Kind == KindRetain && len(op.Attributes) == 0:
			inverted.Retain(op.Count, nil)
			baseIndex = addLength(baseIndex, op.Count)
		default:
			// delete 或带属性的 retain：需要 base 中对应的那一段
			length := op.Count
			end := addLength(baseIndex, length)
			for _, baseOp := range base.Slice(baseIndex, end).Ops {
				if op.Kind == KindDelete {
					inverted.Push(baseOp)
				} else {
					inverted.Retain(baseOp.Length(), attributemap.Invert(op.Attributes, baseOp.Attributes))
				}
			}
			baseIndex = end
		}
	}
	return inverted.Chop()
}
