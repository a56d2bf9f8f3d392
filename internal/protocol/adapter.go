package protocol

import (
	"facelink-core/internal/session"
	"facelink-core/internal/utils"
)

// Adapter 协议适配器统一接口：监听一个端点，把接入的连接交给会话中枢
type Adapter interface {
	Listen(addr string) error
	Name() string
	Addr() string
	Close()
}

// SessionHandler 会话中枢的接入面，避免适配器依赖Hub的全部能力
type SessionHandler interface {
	HandleTransport(t session.Transport) *session.Worker
}

// BaseAdapter 适配器公共部分
type BaseAdapter struct {
	utils.Dispose
	name string
	addr string
}

func (b *BaseAdapter) Name() string     { return b.name }
func (b *BaseAdapter) Addr() string     { return b.addr }
func (b *BaseAdapter) SetName(n string) { b.name = n }
func (b *BaseAdapter) SetAddr(a string) { b.addr = a }
