package util

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
)

// MustParseUint 解析失败时返回 0
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// ParseIndex 解析非负下标
func ParseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, ErrInvalidInput
	}
	return i, nil
}

func GenerateRandomString(n int) string {
	b := make([]byte, (n+1)/2)
	if _, err := rand.Read(b); err != nil {
		return strconv.Itoa(n)
	}
	return hex.EncodeToString(b)[:n]
}
