// Package textunit 把 Go 字符串按 UTF-16 code unit 计数和切分。
//
// 前端（JS）里的 string.length、光标位置、retain/delete 长度都是 UTF-16 单位，
// 服务端必须使用同一套下标才能和客户端算出一致的 Delta。
//
// 切分可能把一个代理对（surrogate pair）拆成两半，此时孤立的代理项以 WTF-8
// 三字节序列保存在字符串里（0xED 0xA0..0xBF 0x80..0xBF），Join / Decode
// 会把相邻的高低代理项重新合并成一个正常的 UTF-8 字符。
package textunit

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

const (
	surrHighStart = 0xD800
	surrLowStart  = 0xDC00
	surrEnd       = 0xE000
)

// IsHighSurrogate 判断 u 是否为代理对的前半部分。
func IsHighSurrogate(u uint16) bool { return u >= surrHighStart && u < surrLowStart }

// IsLowSurrogate 判断 u 是否为代理对的后半部分。
func IsLowSurrogate(u uint16) bool { return u >= surrLowStart && u < surrEnd }

// decodeAt 解码 s[i:] 开头的一个字符；孤立代理项按 WTF-8 识别。
func decodeAt(s string, i int) (rune, int) {
	if s[i] == 0xED && i+2 < len(s) {
		b1, b2 := s[i+1], s[i+2]
		if b1 >= 0xA0 && b1 <= 0xBF && b2&0xC0 == 0x80 {
			return 0xD000 | rune(b1&0x3F)<<6 | rune(b2&0x3F), 3
		}
	}
	if s[i] < utf8.RuneSelf {
		return rune(s[i]), 1
	}
	return utf8.DecodeRuneInString(s[i:])
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Len 返回 s 的 UTF-16 长度。
func Len(s string) int {
	n := 0
	for i := 0; i < len(s); {
		r, size := decodeAt(s, i)
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
		i += size
	}
	return n
}

// Encode 把 s 展开成 UTF-16 code unit。
func Encode(s string) []uint16 {
	out := make([]uint16, 0, len(s))
	for i := 0; i < len(s); {
		r, size := decodeAt(s, i)
		if r >= 0x10000 {
			r1, r2 := utf16.EncodeRune(r)
			out = append(out, uint16(r1), uint16(r2))
		} else {
			out = append(out, uint16(r))
		}
		i += size
	}
	return out
}

// Decode 是 Encode 的逆操作，成对的代理项合并，孤立的保留为 WTF-8。
func Decode(u []uint16) string {
	var b strings.Builder
	b.Grow(len(u))
	for i := 0; i < len(u); i++ {
		c := u[i]
		switch {
		case IsHighSurrogate(c) && i+1 < len(u) && IsLowSurrogate(u[i+1]):
			b.WriteRune(utf16.DecodeRune(rune(c), rune(u[i+1])))
			i++
		case IsHighSurrogate(c) || IsLowSurrogate(c):
			b.WriteByte(0xED)
			b.WriteByte(0x80 | byte(c>>6)&0x3F)
			b.WriteByte(0x80 | byte(c)&0x3F)
		default:
			b.WriteRune(rune(c))
		}
	}
	return b.String()
}

// Slice 返回 UTF-16 下标区间 [start, end) 对应的子串，越界下标会被截断。
func Slice(s string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if isASCII(s) {
		if end > len(s) {
			end = len(s)
		}
		if start >= end {
			return ""
		}
		return s[start:end]
	}
	u := Encode(s)
	if end > len(u) {
		end = len(u)
	}
	if start >= end {
		return ""
	}
	return Decode(u[start:end])
}

func endsWithHighSurrogate(s string) bool {
	n := len(s)
	return n >= 3 && s[n-3] == 0xED && s[n-2] >= 0xA0 && s[n-2] <= 0xAF
}

func startsWithLowSurrogate(s string) bool {
	return len(s) >= 3 && s[0] == 0xED && s[1] >= 0xB0 && s[1] <= 0xBF
}

// Join 拼接两个字符串；a 末尾和 b 开头恰好是被拆开的代理对时重新合并。
func Join(a, b string) string {
	if endsWithHighSurrogate(a) && startsWithLowSurrogate(b) {
		return Decode(append(Encode(a), Encode(b)...))
	}
	return a + b
}

// Index 返回 sub 在 s 中从 UTF-16 下标 from 开始的第一次出现位置，没有则返回 -1。
func Index(s, sub string, from int) int {
	if from < 0 {
		from = 0
	}
	if isASCII(s) && isASCII(sub) {
		if from > len(s) {
			return -1
		}
		i := strings.Index(s[from:], sub)
		if i < 0 {
			return -1
		}
		return i + from
	}
	hay, needle := Encode(s), Encode(sub)
	for i := from; i+len(needle) <= len(hay); i++ {
		if Equal(hay[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

// Equal 比较两段 code unit 是否完全相同。
func Equal(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
