package packet

import (
	"encoding/json"
	"facelink-core/internal/constants"
)

// Message 一帧消息，字符串键的无序字段集合。
// 未识别的字段原样保留，数值字段以json.Number承载避免精度丢失。
type Message map[string]interface{}

// Kind 帧分类
type Kind int

const (
	KindUnknown Kind = iota // 无法归类，丢弃
	KindControl             // 控制面消息：deviceOnline / heartbeat
	KindReply               // 带request_id的命令应答
)

func (k Kind) String() string {
	switch k {
	case KindControl:
		return "control"
	case KindReply:
		return "reply"
	default:
		return "unknown"
	}
}

// String 读取字符串字段，缺失或类型不符返回空串
func (m Message) String(key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Int 读取整数字段
func (m Message) Int(key string) (int64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

// RequestType 读取request_type字段
func (m Message) RequestType() string {
	return m.String(constants.FieldRequestType)
}

// RespType 读取resp_type字段
func (m Message) RespType() string {
	return m.String(constants.FieldRespType)
}

// RequestID 读取request_id字段
func (m Message) RequestID() string {
	return m.String(constants.FieldRequestID)
}

// DeviceID 读取device_id字段
func (m Message) DeviceID() string {
	return m.String(constants.FieldDeviceID)
}

// Code 读取应答的code字段
func (m Message) Code() (int64, bool) {
	return m.Int(constants.FieldCode)
}

// Kind 归类：控制面消息优先于应答判定
func (m Message) Kind() Kind {
	switch m.RequestType() {
	case constants.RequestTypeDeviceOnline, constants.RequestTypeHeartbeat:
		return KindControl
	}
	if m.RequestID() != "" {
		return KindReply
	}
	return KindUnknown
}

// Clone 浅拷贝一份消息
func (m Message) Clone() Message {
	out := make(Message, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
