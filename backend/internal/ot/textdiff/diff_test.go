package textdiff

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/require"

	"deltaServer/backend/internal/ot/textunit"
)

// toDMP 转成 diffmatchpatch 的表示，用它独立地还原两段原文。
func toDMP(diffs []Diff) []diffmatchpatch.Diff {
	out := make([]diffmatchpatch.Diff, 0, len(diffs))
	for _, d := range diffs {
		var op diffmatchpatch.Operation
		switch d.Type {
		case DiffDelete:
			op = diffmatchpatch.DiffDelete
		case DiffInsert:
			op = diffmatchpatch.DiffInsert
		default:
			op = diffmatchpatch.DiffEqual
		}
		out = append(out, diffmatchpatch.Diff{Type: op, Text: d.Text})
	}
	return out
}

func requireReconstructs(t *testing.T, text1, text2 string, diffs []Diff) {
	t.Helper()
	dmp := diffmatchpatch.New()
	require.Equal(t, text1, dmp.DiffText1(toDMP(diffs)))
	require.Equal(t, text2, dmp.DiffText2(toDMP(diffs)))
	for i, d := range diffs {
		require.NotEmpty(t, d.Text, "empty tuple at %d", i)
		if i > 0 {
			require.NotEqual(t, diffs[i-1].Type, d.Type, "unmerged tuples at %d", i)
		}
	}
}

func TestCompute_Basic(t *testing.T) {
	tests := []struct {
		name  string
		text1 string
		text2 string
		want  []Diff
	}{
		{"both empty", "", "", []Diff{}},
		{"equal", "abc", "abc", []Diff{{DiffEqual, "abc"}}},
		{"insert all", "", "abc", []Diff{{DiffInsert, "abc"}}},
		{"delete all", "abc", "", []Diff{{DiffDelete, "abc"}}},
		{"simple insert", "abc", "ab123c", []Diff{{DiffEqual, "ab"}, {DiffInsert, "123"}, {DiffEqual, "c"}}},
		{"simple delete", "a123bc", "abc", []Diff{{DiffEqual, "a"}, {DiffDelete, "123"}, {DiffEqual, "bc"}}},
		{"two inserts", "abc", "a123b456c", []Diff{
			{DiffEqual, "a"}, {DiffInsert, "123"}, {DiffEqual, "b"}, {DiffInsert, "456"}, {DiffEqual, "c"},
		}},
		{"two deletes", "a123b456c", "abc", []Diff{
			{DiffEqual, "a"}, {DiffDelete, "123"}, {DiffEqual, "b"}, {DiffDelete, "456"}, {DiffEqual, "c"},
		}},
		{"single char", "a", "b", []Diff{{DiffDelete, "a"}, {DiffInsert, "b"}}},
		{"shorter text contained", "abc", "xabcx", []Diff{{DiffInsert, "x"}, {DiffEqual, "abc"}, {DiffInsert, "x"}}},
		{"longer text contains", "xabcx", "abc", []Diff{{DiffDelete, "x"}, {DiffEqual, "abc"}, {DiffDelete, "x"}}},
		{"general", "Apples are a fruit.", "Bananas are also fruit.", []Diff{
			{DiffDelete, "Apple"}, {DiffInsert, "Banana"}, {DiffEqual, "s are a"}, {DiffInsert, "lso"}, {DiffEqual, " fruit."},
		}},
		{"nul characters", "ax\t", "\u0680x\x00", []Diff{
			{DiffDelete, "a"}, {DiffInsert, "\u0680"}, {DiffEqual, "x"}, {DiffDelete, "\t"}, {DiffInsert, "\x00"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.text1, tt.text2, nil)
			require.Equal(t, tt.want, got)
			requireReconstructs(t, tt.text1, tt.text2, got)
		})
	}
}

func TestCompute_HelloGoodbye(t *testing.T) {
	got := Compute("Hello", "Goodbye", nil)
	requireReconstructs(t, "Hello", "Goodbye", got)
}

func TestCompute_RandomReconstructs(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	alphabet := []rune("ab c\n😀你")
	gen := func() string {
		n := r.Intn(24)
		var b strings.Builder
		for i := 0; i < n; i++ {
			b.WriteRune(alphabet[r.Intn(len(alphabet))])
		}
		return b.String()
	}
	for i := 0; i < 500; i++ {
		text1, text2 := gen(), gen()
		t.Run(fmt.Sprintf("%d", i), func(t *testing.T) {
			requireReconstructs(t, text1, text2, Compute(text1, text2, nil))
		})
	}
}

func TestCommonPrefixSuffix(t *testing.T) {
	require.Equal(t, 0, commonPrefix(textunit.Encode("abc"), textunit.Encode("xyz")))
	require.Equal(t, 4, commonPrefix(textunit.Encode("1234abcdef"), textunit.Encode("1234xyz")))
	require.Equal(t, 4, commonPrefix(textunit.Encode("1234"), textunit.Encode("1234xyz")))
	require.Equal(t, 0, commonSuffix(textunit.Encode("abc"), textunit.Encode("xyz")))
	require.Equal(t, 4, commonSuffix(textunit.Encode("abcdef1234"), textunit.Encode("xyz1234")))
	require.Equal(t, 4, commonSuffix(textunit.Encode("1234"), textunit.Encode("xyz1234")))

	// 😀 = D83D DE00, 😁 = D83D DE01：共享高代理项但不能拆开
	require.Equal(t, 1, commonPrefix(textunit.Encode("a😀"), textunit.Encode("a😁")))
	// U+1F600 = D83D DE00, U+1FA00 = D83E DE00：共享低代理项
	require.Equal(t, 1, commonSuffix(textunit.Encode("\U0001F600a"), textunit.Encode("\U0001FA00a")))
}

func TestHalfMatch(t *testing.T) {
	enc := textunit.Encode
	require.Nil(t, halfMatch(enc("1234567890"), enc("abcdef")))
	require.Nil(t, halfMatch(enc("12345"), enc("23")))

	require.Equal(t,
		[][]uint16{enc("12"), enc("90"), enc("a"), enc("z"), enc("345678")},
		halfMatch(enc("1234567890"), enc("a345678z")))
	require.Equal(t,
		[][]uint16{enc("a"), enc("z"), enc("12"), enc("90"), enc("345678")},
		halfMatch(enc("a345678z"), enc("1234567890")))
	require.Equal(t,
		[][]uint16{enc("12123"), enc("123121"), enc("a"), enc("z"), enc("1234123451234")},
		halfMatch(enc("121231234123451234123121"), enc("a1234123451234z")))
}

func TestBisect(t *testing.T) {
	got := bisect(textunit.Encode("cat"), textunit.Encode("map"))
	var public []Diff
	for _, d := range got {
		public = append(public, Diff{d.op, textunit.Decode(d.text)})
	}
	require.Equal(t, []Diff{
		{DiffDelete, "c"}, {DiffInsert, "m"}, {DiffEqual, "a"}, {DiffDelete, "t"}, {DiffInsert, "p"},
	}, public)
}

func TestCleanupMerge(t *testing.T) {
	enc := textunit.Encode
	run := func(in []diff, fixUnicode bool) []Diff {
		var out []Diff
		for _, d := range cleanupMerge(in, fixUnicode) {
			out = append(out, Diff{d.op, textunit.Decode(d.text)})
		}
		return out
	}

	require.Nil(t, run(nil, false))
	require.Equal(t,
		[]Diff{{DiffEqual, "a"}, {DiffDelete, "b"}, {DiffInsert, "c"}},
		run([]diff{{DiffEqual, enc("a")}, {DiffDelete, enc("b")}, {DiffInsert, enc("c")}}, false))
	require.Equal(t,
		[]Diff{{DiffEqual, "abc"}},
		run([]diff{{DiffEqual, enc("a")}, {DiffEqual, enc("b")}, {DiffEqual, enc("c")}}, false))
	require.Equal(t,
		[]Diff{{DiffDelete, "ac"}, {DiffInsert, "bd"}, {DiffEqual, "ef"}},
		run([]diff{{DiffDelete, enc("a")}, {DiffInsert, enc("b")}, {DiffDelete, enc("c")}, {DiffInsert, enc("d")}, {DiffEqual, enc("e")}, {DiffEqual, enc("f")}}, false))
	// 提取公共前后缀
	require.Equal(t,
		[]Diff{{DiffEqual, "a"}, {DiffDelete, "d"}, {DiffInsert, "b"}, {DiffEqual, "c"}},
		run([]diff{{DiffDelete, enc("a")}, {DiffInsert, enc("abc")}, {DiffDelete, enc("dc")}}, false))
	// 向左平移
	require.Equal(t,
		[]Diff{{DiffInsert, "ab"}, {DiffEqual, "ac"}},
		run([]diff{{DiffEqual, enc("a")}, {DiffInsert, enc("ba")}, {DiffEqual, enc("c")}}, false))
	// 向右平移
	require.Equal(t,
		[]Diff{{DiffEqual, "ca"}, {DiffInsert, "ba"}},
		run([]diff{{DiffEqual, enc("c")}, {DiffInsert, enc("ab")}, {DiffEqual, enc("a")}}, false))
	// 空记录被丢弃
	require.Equal(t,
		[]Diff{{DiffInsert, "abc"}},
		run([]diff{{DiffDelete, enc("")}, {DiffInsert, enc("abc")}}, false))
}

func TestCompute_SurrogatePairs(t *testing.T) {
	tests := []struct {
		name  string
		text1 string
		text2 string
		want  []Diff
	}{
		{"insert emoji", "", "😀", []Diff{{DiffInsert, "😀"}}},
		{"insert emoji after text", "ab", "ab😀", []Diff{{DiffEqual, "ab"}, {DiffInsert, "😀"}}},
		{"insert emoji in middle", "ac", "a😀c", []Diff{{DiffEqual, "a"}, {DiffInsert, "😀"}, {DiffEqual, "c"}}},
		{"replace emoji sharing high surrogate", "😀", "😁", []Diff{{DiffDelete, "😀"}, {DiffInsert, "😁"}}},
		{"replace emoji sharing low surrogate", "\U0001F600", "\U0001F400", []Diff{{DiffDelete, "\U0001F600"}, {DiffInsert, "\U0001F400"}}},
		{"insert before same emoji", "🤔", "🤖🤔", []Diff{{DiffInsert, "🤖"}, {DiffEqual, "🤔"}}},
		{"insert emoji between emojis", "🤔🤔", "🤔🤖🤔", []Diff{{DiffEqual, "🤔"}, {DiffInsert, "🤖"}, {DiffEqual, "🤔"}}},
		{"delete emoji", "a😀b", "ab", []Diff{{DiffEqual, "a"}, {DiffDelete, "😀"}, {DiffEqual, "b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.text1, tt.text2, nil)
			require.Equal(t, tt.want, got)
			requireReconstructs(t, tt.text1, tt.text2, got)
		})
	}
}

func TestCompute_NeverSplitsSurrogatePairs(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	emoji := []string{"😀", "😁", "🤔", "🤖", "🐀", "a", "b"}
	gen := func() string {
		var b strings.Builder
		for i := r.Intn(8); i >= 0; i-- {
			b.WriteString(emoji[r.Intn(len(emoji))])
		}
		return b.String()
	}
	for i := 0; i < 300; i++ {
		text1, text2 := gen(), gen()
		diffs := Compute(text1, text2, nil)
		requireReconstructs(t, text1, text2, diffs)
		for _, d := range diffs {
			u := textunit.Encode(d.Text)
			require.False(t, textunit.IsLowSurrogate(u[0]), "%q -> %q split at %q", text1, text2, d.Text)
			require.False(t, textunit.IsHighSurrogate(u[len(u)-1]), "%q -> %q split at %q", text1, text2, d.Text)
		}
	}
}

func TestCompute_Cursor(t *testing.T) {
	tests := []struct {
		name   string
		text1  string
		text2  string
		cursor *Cursor
		want   []Diff
	}{
		{"delete before cursor", "xxx", "xx", CursorAt(1),
			[]Diff{{DiffDelete, "x"}, {DiffEqual, "xx"}}},
		{"delete after cursor", "xxx", "xx", &Cursor{OldRange: Range{Index: 1}, NewRange: &Range{Index: 1}},
			[]Diff{{DiffEqual, "x"}, {DiffDelete, "x"}, {DiffEqual, "x"}}},
		{"delete at end", "xxx", "xx", CursorAt(3),
			[]Diff{{DiffEqual, "xx"}, {DiffDelete, "x"}}},
		{"insert at cursor", "xx", "xxx", CursorAt(1),
			[]Diff{{DiffEqual, "x"}, {DiffInsert, "x"}, {DiffEqual, "x"}}},
		{"insert at start", "xx", "xxx", CursorAt(0),
			[]Diff{{DiffInsert, "x"}, {DiffEqual, "xx"}}},
		{"replace selection", "xxx", "xyx", &Cursor{OldRange: Range{Index: 1, Length: 1}, NewRange: &Range{Index: 2}},
			[]Diff{{DiffEqual, "x"}, {DiffDelete, "x"}, {DiffInsert, "y"}, {DiffEqual, "x"}}},
		{"selection typed over with same char", "xxx", "xx", &Cursor{OldRange: Range{Index: 1, Length: 2}, NewRange: &Range{Index: 2}},
			[]Diff{{DiffEqual, "x"}, {DiffDelete, "xx"}, {DiffInsert, "x"}}},
		{"cursor out of range falls back", "xxx", "xx", CursorAt(10),
			[]Diff{{DiffEqual, "xx"}, {DiffDelete, "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.text1, tt.text2, tt.cursor)
			require.Equal(t, tt.want, got)
			requireReconstructs(t, tt.text1, tt.text2, got)
		})
	}
}

func TestCompute_CursorDoesNotSplitSurrogate(t *testing.T) {
	// 光标落在代理对中间时放弃快速路径
	got := Compute("😀😀", "😀", CursorAt(3))
	require.Equal(t, []Diff{{DiffEqual, "😀"}, {DiffDelete, "😀"}}, got)
}

// requireReconstructsUnits 按 code unit 还原两段原文，孤立代理项也能比较。
func requireReconstructsUnits(t *testing.T, text1, text2 []uint16, diffs []Diff) {
	t.Helper()
	var got1, got2 []uint16
	for i, d := range diffs {
		require.NotEmpty(t, d.Text, "empty tuple at %d", i)
		u := textunit.Encode(d.Text)
		if d.Type != DiffInsert {
			got1 = append(got1, u...)
		}
		if d.Type != DiffDelete {
			got2 = append(got2, u...)
		}
	}
	require.Equal(t, text1, append([]uint16{}, got1...), "%x -> %x: %q", text1, text2, diffs)
	require.Equal(t, text2, append([]uint16{}, got2...), "%x -> %x: %q", text1, text2, diffs)
}

func TestCompute_LoneSurrogatesTerminate(t *testing.T) {
	alphabet := []uint16{0xD83D, 0xDE00, 'a'}
	var all [][]uint16
	var gen func(prefix []uint16)
	gen = func(prefix []uint16) {
		all = append(all, append([]uint16{}, prefix...))
		if len(prefix) == 3 {
			return
		}
		for _, u := range alphabet {
			gen(append(append([]uint16{}, prefix...), u))
		}
	}
	gen(nil)
	require.Len(t, all, 40)

	for _, u1 := range all {
		for _, u2 := range all {
			text1, text2 := textunit.Decode(u1), textunit.Decode(u2)
			requireReconstructsUnits(t, textunit.Encode(text1), textunit.Encode(text2), Compute(text1, text2, nil))
		}
	}
}

func TestCompute_SplitPairEdits(t *testing.T) {
	enc := textunit.Encode
	hi, lo := textunit.Decode([]uint16{0xD83D}), textunit.Decode([]uint16{0xDE00})
	tests := []struct {
		name         string
		text1, text2 string
	}{
		{"insert inside pair", "😀", hi + "a" + lo},
		{"duplicate high half", "a" + hi, "a" + hi + hi},
		{"duplicate low half", lo + "a", lo + lo + "a"},
		{"join halves", hi + "a" + lo, "😀"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireReconstructsUnits(t, enc(tt.text1), enc(tt.text2), Compute(tt.text1, tt.text2, nil))
		})
	}
}

func TestBisectSplit_NoProgress(t *testing.T) {
	text1, text2 := textunit.Encode("ab"), textunit.Encode("cd")
	require.Equal(t, []diff{{DiffDelete, text1}, {DiffInsert, text2}}, bisectSplit(text1, text2, 2, 2))
	require.Equal(t, []diff{{DiffDelete, text1}, {DiffInsert, text2}}, bisectSplit(text1, text2, 0, 0))
}

func TestCleanupMerge_KeepsSurrogateBoundaries(t *testing.T) {
	// a<ins>\uD83D</ins>\uD83D：向右平移会把高代理项留在 equal 末尾，跳过
	in := []diff{{DiffEqual, []uint16{'a'}}, {DiffInsert, []uint16{0xD83D}}, {DiffEqual, []uint16{0xD83D}}}
	got := cleanupMerge(in, true)
	require.Equal(t, []diff{{DiffEqual, []uint16{'a'}}, {DiffInsert, []uint16{0xD83D}}, {DiffEqual, []uint16{0xD83D}}}, got)
}

func TestCursor_UnmarshalJSON(t *testing.T) {
	var c Cursor
	require.NoError(t, json.Unmarshal([]byte(`5`), &c))
	require.Equal(t, *CursorAt(5), c)

	c = Cursor{}
	require.NoError(t, json.Unmarshal([]byte(`{"oldRange":{"index":1,"length":2},"newRange":{"index":2,"length":0}}`), &c))
	require.Equal(t, Cursor{OldRange: Range{Index: 1, Length: 2}, NewRange: &Range{Index: 2}}, c)

	var wrapped struct {
		Cursor *Cursor `json:"cursor"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"cursor":1}`), &wrapped))
	require.Equal(t, CursorAt(1), wrapped.Cursor)
	require.NoError(t, json.Unmarshal([]byte(`{"cursor":null}`), &wrapped))
	require.Nil(t, wrapped.Cursor)

	require.Error(t, json.Unmarshal([]byte(`1.5`), &c))
	require.Error(t, json.Unmarshal([]byte(`"x"`), &c))
}
