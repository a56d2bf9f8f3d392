package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"facelink-core/internal/utils"
)

// Topic 事件主题
type Topic string

// Topic 常量定义
const (
	TopicDeviceOnline    Topic = "device.online"    // 设备上线
	TopicDeviceOffline   Topic = "device.offline"   // 设备下线
	TopicDeviceHeartbeat Topic = "device.heartbeat" // 设备心跳
)

// Event 设备生命周期事件
type Event struct {
	Topic     Topic                  // 事件主题
	DeviceID  string                 // 设备ID
	Fields    map[string]interface{} // 事件附加字段，已脱敏
	Timestamp time.Time              // 事件时间戳
}

// Bus 进程内事件总线（单节点，无持久化）
type Bus struct {
	subscribers map[Topic][]chan Event
	mu          sync.RWMutex
	closed      bool

	utils.Dispose
}

// NewBus 创建事件总线
func NewBus(parentCtx context.Context) *Bus {
	bus := &Bus{
		subscribers: make(map[Topic][]chan Event),
	}
	bus.SetCtx(parentCtx, bus.onClose)
	return bus
}

// Publish 发布事件。订阅者通道满时跳过该订阅者，发布方永不阻塞
func (b *Bus) Publish(topic Topic, deviceID string, fields map[string]interface{}) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	subscribers := b.subscribers[topic]
	if len(subscribers) == 0 {
		// 没有订阅者，事件丢弃
		return
	}

	event := Event{
		Topic:     topic,
		DeviceID:  deviceID,
		Fields:    utils.RedactFields(fields),
		Timestamp: time.Now(),
	}

	for _, ch := range subscribers {
		select {
		case ch <- event:
		default:
			utils.Warnf("Event bus: subscriber channel full for topic %s, event dropped", topic)
		}
	}
}

// Subscribe 订阅主题，返回带缓冲的事件通道
func (b *Bus) Subscribe(topic Topic) (<-chan Event, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("event bus is closed")
	}

	ch := make(chan Event, 64)
	b.subscribers[topic] = append(b.subscribers[topic], ch)

	utils.Debugf("Event bus: new subscriber for topic %s (total: %d)", topic, len(b.subscribers[topic]))
	return ch, nil
}

// onClose 资源清理回调
func (b *Bus) onClose() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for topic, subscribers := range b.subscribers {
		for _, ch := range subscribers {
			close(ch)
		}
		delete(b.subscribers, topic)
	}

	utils.Infof("Event bus closed")
}
