package utils

import (
	"context"
	"sync"
)

// Dispose 基于context的资源生命周期管理，嵌入到需要统一清理的组件中
type Dispose struct {
	currentLock   sync.Mutex
	closed        bool
	ctx           context.Context
	cancel        context.CancelFunc
	cleanHandlers []func()
	linkLock      sync.Mutex
}

func (c *Dispose) Ctx() context.Context {
	return c.ctx
}

func (c *Dispose) IsClosed() bool {
	c.currentLock.Lock()
	defer c.currentLock.Unlock()
	return c.closed
}

// Close 幂等关闭，触发所有清理回调
func (c *Dispose) Close() {
	c.currentLock.Lock()
	if c.closed {
		c.currentLock.Unlock()
		return
	}
	c.closed = true
	c.currentLock.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	c.runCleanHandlers()
}

func (c *Dispose) runCleanHandlers() {
	c.linkLock.Lock()
	handlers := c.cleanHandlers
	c.cleanHandlers = nil
	c.linkLock.Unlock()

	for _, handler := range handlers {
		handler()
	}
}

// AddCleanHandler 注册清理回调，按注册顺序执行
func (c *Dispose) AddCleanHandler(f func()) {
	c.linkLock.Lock()
	defer c.linkLock.Unlock()
	c.cleanHandlers = append(c.cleanHandlers, f)
}

// SetCtx 绑定父context，父context取消时自动触发清理
func (c *Dispose) SetCtx(parent context.Context, onClose func()) {
	if c.ctx != nil {
		Warn("ctx already set")
		return
	}

	if parent == nil {
		parent = context.Background()
	}

	if onClose != nil {
		c.AddCleanHandler(onClose)
	}

	c.ctx, c.cancel = context.WithCancel(parent)

	go func() {
		<-c.ctx.Done()
		c.currentLock.Lock()
		if c.closed {
			c.currentLock.Unlock()
			return
		}
		c.closed = true
		c.currentLock.Unlock()
		c.runCleanHandlers()
	}()
}
