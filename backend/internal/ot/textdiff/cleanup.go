package textdiff

// cleanupMerge 合并相邻的同类分段并提取插入/删除之间的公共前后缀。
// 任何编辑段都可以移动，只要不跨过 equal 段。
//
// fixUnicode 为 true 时假设两段原文都是完整的字符串，但分段边界可能落在
// 代理对中间：把前一个 equal 末尾的高代理项和当前 equal 开头的低代理项
// 挪进插入/删除文本，再由下面的公共前后缀提取重新整理。
//
// 平移轮次最多执行 len(diffs)+1 次：正常输入每次平移都会少一个 equal，
// 含孤立代理项的输入也不会无限往返。
func cleanupMerge(diffs []diff, fixUnicode bool) []diff {
	for passes := len(diffs) + 1; ; passes-- {
		diffs = mergePass(diffs, fixUnicode)
		var changes bool
		diffs, changes = shiftPass(diffs, fixUnicode)
		if !changes {
			return diffs
		}
		if passes == 0 {
			return mergePass(diffs, false)
		}
	}
}

func mergePass(diffs []diff, fixUnicode bool) []diff {
	// 末尾放一个空的 equal 作为哨兵
	diffs = append(diffs, diff{DiffEqual, nil})
	pointer := 0
	countDelete, countInsert := 0, 0
	var textDelete, textInsert []uint16

	for pointer < len(diffs) {
		if pointer < len(diffs)-1 && len(diffs[pointer].text) == 0 {
			diffs = splice(diffs, pointer, 1)
			continue
		}
		switch diffs[pointer].op {
		case DiffInsert:
			countInsert++
			textInsert = concat(textInsert, diffs[pointer].text)
			pointer++
		case DiffDelete:
			countDelete++
			textDelete = concat(textDelete, diffs[pointer].text)
			pointer++
		case DiffEqual:
			previousEquality := pointer - countInsert - countDelete - 1
			if fixUnicode {
				if previousEquality >= 0 && endsWithPairStart(diffs[previousEquality].text) {
					prev := diffs[previousEquality].text
					stray := prev[len(prev)-1:]
					diffs[previousEquality].text = prev[:len(prev)-1]
					textDelete = concat(stray, textDelete)
					textInsert = concat(stray, textInsert)
					if len(diffs[previousEquality].text) == 0 {
						// 前一个 equal 被削空：删掉它，把更早的插入/删除也并进来
						diffs = splice(diffs, previousEquality, 1)
						pointer--
						k := previousEquality - 1
						if k >= 0 && diffs[k].op == DiffInsert {
							countInsert++
							textInsert = concat(diffs[k].text, textInsert)
							k--
						}
						if k >= 0 && diffs[k].op == DiffDelete {
							countDelete++
							textDelete = concat(diffs[k].text, textDelete)
							k--
						}
						previousEquality = k
					}
				}
				if startsWithPairEnd(diffs[pointer].text) {
					cur := diffs[pointer].text
					stray := cur[:1]
					diffs[pointer].text = cur[1:]
					textDelete = concat(textDelete, stray)
					textInsert = concat(textInsert, stray)
				}
			}
			if pointer < len(diffs)-1 && len(diffs[pointer].text) == 0 {
				// 中间出现空 equal，继续等下一个 equal
				diffs = splice(diffs, pointer, 1)
				break
			}
			if len(textDelete) > 0 || len(textInsert) > 0 {
				if len(textDelete) > 0 && len(textInsert) > 0 {
					// 提取公共前缀
					if n := commonPrefix(textInsert, textDelete); n != 0 {
						if previousEquality >= 0 {
							diffs[previousEquality].text = concat(diffs[previousEquality].text, textInsert[:n])
						} else {
							diffs = splice(diffs, 0, 0, diff{DiffEqual, concat(textInsert[:n])})
							pointer++
						}
						textInsert = textInsert[n:]
						textDelete = textDelete[n:]
					}
					// 提取公共后缀
					if n := commonSuffix(textInsert, textDelete); n != 0 {
						diffs[pointer].text = concat(textInsert[len(textInsert)-n:], diffs[pointer].text)
						textInsert = textInsert[:len(textInsert)-n]
						textDelete = textDelete[:len(textDelete)-n]
					}
				}
				// 用合并后的记录替换原来的若干条
				n := countInsert + countDelete
				switch {
				case len(textDelete) == 0 && len(textInsert) == 0:
					diffs = splice(diffs, pointer-n, n)
					pointer -= n
				case len(textDelete) == 0:
					diffs = splice(diffs, pointer-n, n, diff{DiffInsert, textInsert})
					pointer = pointer - n + 1
				case len(textInsert) == 0:
					diffs = splice(diffs, pointer-n, n, diff{DiffDelete, textDelete})
					pointer = pointer - n + 1
				default:
					diffs = splice(diffs, pointer-n, n, diff{DiffDelete, textDelete}, diff{DiffInsert, textInsert})
					pointer = pointer - n + 2
				}
			}
			if pointer != 0 && diffs[pointer-1].op == DiffEqual {
				// 和前一个 equal 合并
				diffs[pointer-1].text = concat(diffs[pointer-1].text, diffs[pointer].text)
				diffs = splice(diffs, pointer, 1)
			} else {
				pointer++
			}
			countInsert, countDelete = 0, 0
			textDelete, textInsert = nil, nil
		}
	}
	if len(diffs) > 0 && len(diffs[len(diffs)-1].text) == 0 {
		diffs = diffs[:len(diffs)-1]
	}
	return diffs
}

// shiftPass：两侧都是 equal 的单个编辑段，如果平移后能消掉一个 equal 就平移。
// 例如 A<ins>BA</ins>C -> <ins>AB</ins>AC
// fixUnicode 时不做会让 equal 边界落在代理对中间的平移，否则会和 mergePass 来回拉扯。
func shiftPass(diffs []diff, fixUnicode bool) ([]diff, bool) {
	changes := false
	for pointer := 1; pointer < len(diffs)-1; pointer++ {
		if diffs[pointer-1].op != DiffEqual || diffs[pointer+1].op != DiffEqual {
			continue
		}
		prev, cur, next := diffs[pointer-1].text, diffs[pointer].text, diffs[pointer+1].text
		if hasSuffix(cur, prev) && !(fixUnicode && startsWithPairEnd(prev)) {
			// 向左越过前一个 equal
			diffs[pointer].text = concat(prev, cur[:len(cur)-len(prev)])
			diffs[pointer+1].text = concat(prev, next)
			diffs = splice(diffs, pointer-1, 1)
			changes = true
		} else if hasPrefix(cur, next) && !(fixUnicode && endsWithPairStart(next)) {
			// 向右越过后一个 equal
			diffs[pointer-1].text = concat(prev, next)
			diffs[pointer].text = concat(cur[len(next):], next)
			diffs = splice(diffs, pointer+1, 1)
			changes = true
		}
	}
	return diffs, changes
}
