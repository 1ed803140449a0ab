package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// 键语义：
// - DiffKey(fingerprint): 一次 Delta.Diff 的结果（String，JSON 编码的 Delta）
//
// fingerprint 用 {} 包住，集群模式下同一输入总落在同一个槽位。

const keyDiffFmt = "delta:diff:{hash:%s}"

func DiffKey(fingerprint string) string { return fmt.Sprintf(keyDiffFmt, fingerprint) }

// Fingerprint 对若干段输入做 sha256，每段前写入长度，避免 ("ab","c") 和 ("a","bc") 相撞。
func Fingerprint(parts ...[]byte) string {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
