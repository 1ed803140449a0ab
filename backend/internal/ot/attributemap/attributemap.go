// Package attributemap 实现富文本属性（粗体/颜色等）的合并、差分、求逆和变换。
//
// 三种状态：
//   - key 不存在：未设置（JS 的 undefined）
//   - key 存在且值为 nil：显式删除该属性（JSON 的 null）
//   - key 存在且值非 nil：设置为该值
//
// 所有返回 Map 的函数在结果为空时返回 nil。
package attributemap

import "deltaServer/backend/internal/ot/value"

// Map 是字符串到任意 JSON 值的属性表。
type Map map[string]any

// Clone 深拷贝 m，空表返回 nil。
func Clone(m Map) Map {
	if len(m) == 0 {
		return nil
	}
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = value.Clone(v)
	}
	return out
}

// Equal 结构比较；nil 和空表视为相等。
func Equal(a, b Map) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return value.Equal(map[string]any(a), map[string]any(b))
}

func orNil(m Map) Map {
	if len(m) == 0 {
		return nil
	}
	return m
}

// Compose 把 b 叠加到 a 之上：冲突时 b 优先，a 补齐 b 没有的 key。
// keepNull 为 false 时去掉 b 中值为 nil 的 key（作用在 insert 上时 null 没有意义）。
func Compose(a, b Map, keepNull bool) Map {
	attributes := make(Map, len(a)+len(b))
	for k, v := range b {
		if v == nil && !keepNull {
			continue
		}
		attributes[k] = value.Clone(v)
	}
	for k, v := range a {
		if _, ok := b[k]; !ok {
			attributes[k] = v
		}
	}
	return orNil(attributes)
}

// Diff 返回把 a 变成 b 所需的最小属性修改；b 中没有的 key 变成 nil（删除标记）。
func Diff(a, b Map) Map {
	attributes := Map{}
	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			attributes[k] = nil
			continue
		}
		if !value.Equal(av, bv) {
			attributes[k] = bv
		}
	}
	for k, bv := range b {
		if _, ok := a[k]; !ok {
			attributes[k] = bv
		}
	}
	return orNil(attributes)
}

// Invert 返回撤销 attr 在 base 上所做修改的属性表。
func Invert(attr, base Map) Map {
	inverted := Map{}
	for k, bv := range base {
		av, ok := attr[k]
		if ok && !value.Equal(av, bv) {
			inverted[k] = bv
		}
	}
	// base 里没有的 key 是 attr 新加的，撤销时显式删除
	for k := range attr {
		if _, ok := base[k]; !ok {
			inverted[k] = nil
		}
	}
	return orNil(inverted)
}

// Transform 在 a 已经生效的前提下变换并发的 b。
// priority 为 false 时 b 直接胜出；为 true 时 a 已设置的 key 从 b 中剔除。
func Transform(a, b Map, priority bool) Map {
	if a == nil {
		return orNil(b)
	}
	if b == nil {
		return nil
	}
	if !priority {
		return orNil(b)
	}
	attributes := Map{}
	for k, v := range b {
		if _, ok := a[k]; !ok {
			attributes[k] = v
		}
	}
	return orNil(attributes)
}
