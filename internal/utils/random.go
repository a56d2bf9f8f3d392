package utils

import (
	"crypto/rand"
	"math/big"
)

// 请求ID字符集，短小且URL安全
const requestIDCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomRequestID 生成指定长度的随机请求ID
func RandomRequestID(length int) string {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(requestIDCharset)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand 不可用时退回固定字符，调用方会因冲突重试
			buf[i] = requestIDCharset[0]
			continue
		}
		buf[i] = requestIDCharset[n.Int64()]
	}
	return string(buf)
}
