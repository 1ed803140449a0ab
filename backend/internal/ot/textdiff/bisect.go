package textdiff

// bisect 找到 middle snake，把问题一分为二后递归求解。
// 参见 Myers 1986: An O(ND) Difference Algorithm and Its Variations.
func bisect(text1, text2 []uint16) []diff {
	text1Len, text2Len := len(text1), len(text2)
	maxD := (text1Len + text2Len + 1) / 2
	vOffset := maxD
	vLength := 2 * maxD

	v1 := make([]int, vLength)
	v2 := make([]int, vLength)
	for i := range v1 {
		v1[i] = -1
		v2[i] = -1
	}
	v1[vOffset+1] = 0
	v2[vOffset+1] = 0

	delta := text1Len - text2Len
	// 总长度为奇数时正向路径会和反向路径相撞
	front := delta%2 != 0
	// k 循环的起止偏移，避免越出编辑图
	k1start, k1end := 0, 0
	k2start, k2end := 0, 0
	for d := 0; d < maxD; d++ {
		// 正向走一步
		for k1 := -d + k1start; k1 <= d-k1end; k1 += 2 {
			k1Offset := vOffset + k1
			var x1 int
			if k1 == -d || (k1 != d && v1[k1Offset-1] < v1[k1Offset+1]) {
				x1 = v1[k1Offset+1]
			} else {
				x1 = v1[k1Offset-1] + 1
			}
			y1 := x1 - k1
			for x1 < text1Len && y1 < text2Len && text1[x1] == text2[y1] {
				x1++
				y1++
			}
			v1[k1Offset] = x1
			if x1 > text1Len {
				// 越过右边界
				k1end += 2
			} else if y1 > text2Len {
				// 越过下边界
				k1start += 2
			} else if front {
				k2Offset := vOffset + delta - k1
				if k2Offset >= 0 && k2Offset < vLength && v2[k2Offset] != -1 {
					// 把 x2 映射回左上角坐标系
					x2 := text1Len - v2[k2Offset]
					if x1 >= x2 {
						return bisectSplit(text1, text2, x1, y1)
					}
				}
			}
		}

		// 反向走一步
		for k2 := -d + k2start; k2 <= d-k2end; k2 += 2 {
			k2Offset := vOffset + k2
			var x2 int
			if k2 == -d || (k2 != d && v2[k2Offset-1] < v2[k2Offset+1]) {
				x2 = v2[k2Offset+1]
			} else {
				x2 = v2[k2Offset-1] + 1
			}
			y2 := x2 - k2
			for x2 < text1Len && y2 < text2Len && text1[text1Len-x2-1] == text2[text2Len-y2-1] {
				x2++
				y2++
			}
			v2[k2Offset] = x2
			if x2 > text1Len {
				// 越过左边界
				k2end += 2
			} else if y2 > text2Len {
				// 越过上边界
				k2start += 2
			} else if !front {
				k1Offset := vOffset + delta - k2
				if k1Offset >= 0 && k1Offset < vLength && v1[k1Offset] != -1 {
					x1 := v1[k1Offset]
					y1 := vOffset + x1 - k1Offset
					x2 = text1Len - x2
					if x1 >= x2 {
						return bisectSplit(text1, text2, x1, y1)
					}
				}
			}
		}
	}
	// 没有任何公共部分
	return []diff{{DiffDelete, text1}, {DiffInsert, text2}}
}

// bisectSplit 的分割点落在两端时子问题和原问题一样（公共前后缀为了不拆代理对
// 被退回了一个单位），直接按整段删除再整段插入处理。
func bisectSplit(text1, text2 []uint16, x, y int) []diff {
	if (x == 0 && y == 0) || (x == len(text1) && y == len(text2)) {
		return []diff{{DiffDelete, text1}, {DiffInsert, text2}}
	}
	diffs := diffMain(text1[:x], text2[:y], nil, false)
	diffsB := diffMain(text1[x:], text2[y:], nil, false)
	return append(diffs, diffsB...)
}

// halfMatch 检查两段文本是否共享一个至少为长串一半长度的子串。
// 返回 text1 前段、text1 后段、text2 前段、text2 后段、公共中段；没有则返回 nil。
// 这个加速可能得到非最小的差分。
func halfMatch(text1, text2 []uint16) [][]uint16 {
	longtext, shorttext := text1, text2
	if len(text1) <= len(text2) {
		longtext, shorttext = text2, text1
	}
	if len(longtext) < 4 || len(shorttext)*2 < len(longtext) {
		return nil
	}

	// 以第二个四分之一处为种子
	hm1 := halfMatchI(longtext, shorttext, (len(longtext)+3)/4)
	// 再以第三个四分之一处为种子
	hm2 := halfMatchI(longtext, shorttext, (len(longtext)+1)/2)

	var hm [][]uint16
	switch {
	case hm1 == nil && hm2 == nil:
		return nil
	case hm2 == nil:
		hm = hm1
	case hm1 == nil:
		hm = hm2
	case len(hm1[4]) > len(hm2[4]):
		hm = hm1
	default:
		hm = hm2
	}

	if len(text1) > len(text2) {
		return hm
	}
	return [][]uint16{hm[2], hm[3], hm[0], hm[1], hm[4]}
}

func halfMatchI(longtext, shorttext []uint16, i int) [][]uint16 {
	seed := longtext[i : i+len(longtext)/4]
	var bestCommon, bestLongA, bestLongB, bestShortA, bestShortB []uint16

	for j := indexOf(shorttext, seed, 0); j != -1; j = indexOf(shorttext, seed, j+1) {
		prefixLen := commonPrefix(longtext[i:], shorttext[j:])
		suffixLen := commonSuffix(longtext[:i], shorttext[:j])
		if len(bestCommon) < suffixLen+prefixLen {
			bestCommon = concat(shorttext[j-suffixLen:j], shorttext[j:j+prefixLen])
			bestLongA = longtext[:i-suffixLen]
			bestLongB = longtext[i+prefixLen:]
			bestShortA = shorttext[:j-suffixLen]
			bestShortB = shorttext[j+prefixLen:]
		}
	}

	if len(bestCommon)*2 < len(longtext) {
		return nil
	}
	return [][]uint16{bestLongA, bestLongB, bestShortA, bestShortB, bestCommon}
}
