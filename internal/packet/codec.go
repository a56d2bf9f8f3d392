package packet

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"facelink-core/internal/constants"
)

// ErrMalformedFrame 帧结构错误：非JSON、顶层非对象、分隔符未闭合等
var ErrMalformedFrame = errors.New("malformed frame")

// Decode 解析单帧。严格校验顶层必须是JSON对象，未知字段保留原样
func Decode(data []byte) (Message, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var msg Message
	if err := dec.Decode(&msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: null frame", ErrMalformedFrame)
	}

	// 一帧只允许携带一个对象
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after object", ErrMalformedFrame)
	}
	return msg, nil
}

// Encode 序列化单帧，末尾追加帧分隔符。同一键集合下输出确定（键按字典序）
func Encode(m Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil message", ErrMalformedFrame)
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return append(data, constants.FrameDelimiter), nil
}

// FrameScanner 从字节流中切出逐帧数据。
// 设备端以换行结尾的JSON对象为一帧；单个坏帧不会中断后续读取。
type FrameScanner struct {
	scanner *bufio.Scanner
}

// NewFrameScanner 创建帧扫描器
func NewFrameScanner(r io.Reader) *FrameScanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), constants.MaxFrameSize)
	return &FrameScanner{scanner: scanner}
}

// NextRaw 读取下一帧的原始字节，空行跳过。
// 返回io.EOF表示对端正常关闭，其他错误为传输错误。
func (fs *FrameScanner) NextRaw() ([]byte, error) {
	for {
		if !fs.scanner.Scan() {
			if err := fs.scanner.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}

		line := bytes.TrimSpace(fs.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		// scanner的缓冲区会被下一次Scan复用，必须拷贝
		out := make([]byte, len(line))
		copy(out, line)
		return out, nil
	}
}

// Next 读取并解析下一帧
func (fs *FrameScanner) Next() (Message, error) {
	raw, err := fs.NextRaw()
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}
