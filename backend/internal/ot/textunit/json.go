package textunit

import (
	"bytes"
	"encoding/json"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"
)

const hexDigits = "0123456789abcdef"

// HasLoneSurrogate 判断 s 中是否有以 WTF-8 保存的孤立代理项。
func HasLoneSurrogate(s string) bool {
	for i := 0; i+2 < len(s); i++ {
		if s[i] == 0xED && s[i+1] >= 0xA0 && s[i+1] <= 0xBF {
			return true
		}
	}
	return false
}

// QuoteJSON 把 s 编码成 JSON 字符串。孤立代理项写成 \udXXX 转义，
// 和 JS 的 JSON.stringify 一致，其余部分交给 encoding/json。
func QuoteJSON(s string) ([]byte, error) {
	if !HasLoneSurrogate(s) {
		return json.Marshal(s)
	}
	out := []byte{'"'}
	flush := func(run string) error {
		if run == "" {
			return nil
		}
		b, err := json.Marshal(run)
		if err != nil {
			return err
		}
		out = append(out, b[1:len(b)-1]...)
		return nil
	}
	start := 0
	for i := 0; i < len(s); {
		r, size := decodeAt(s, i)
		if r >= surrHighStart && r < surrEnd {
			if err := flush(s[start:i]); err != nil {
				return nil, err
			}
			out = append(out, '\\', 'u',
				hexDigits[r>>12&0xF], hexDigits[r>>8&0xF], hexDigits[r>>4&0xF], hexDigits[r&0xF])
			start = i + size
		}
		i += size
	}
	if err := flush(s[start:]); err != nil {
		return nil, err
	}
	return append(out, '"'), nil
}

// UnquoteJSON 解码一个 JSON 字符串字面量。和 encoding/json 不同的是，
// 不成对的 \uD800-\uDFFF 转义保留为孤立代理项，不会变成 U+FFFD。
func UnquoteJSON(data []byte) (string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", err
	}
	if !bytes.Contains(data, []byte(`\u`)) {
		return s, nil
	}

	data = bytes.TrimSpace(data)
	body := data[1 : len(data)-1]
	units := make([]uint16, 0, len(body))
	for i := 0; i < len(body); {
		c := body[i]
		if c != '\\' {
			r, size := utf8.DecodeRune(body[i:])
			units = appendRune(units, r)
			i += size
			continue
		}
		switch body[i+1] {
		case 'u':
			u, err := strconv.ParseUint(string(body[i+2:i+6]), 16, 16)
			if err != nil {
				return "", err
			}
			units = append(units, uint16(u))
			i += 6
			continue
		case 'b':
			units = append(units, '\b')
		case 'f':
			units = append(units, '\f')
		case 'n':
			units = append(units, '\n')
		case 'r':
			units = append(units, '\r')
		case 't':
			units = append(units, '\t')
		default:
			// \" \\ \/
			units = append(units, uint16(body[i+1]))
		}
		i += 2
	}
	return Decode(units), nil
}

func appendRune(units []uint16, r rune) []uint16 {
	if r >= 0x10000 {
		r1, r2 := utf16.EncodeRune(r)
		return append(units, uint16(r1), uint16(r2))
	}
	return append(units, uint16(r))
}
