package session

import (
	"sync"
	"time"
)

// Registry 设备ID到在线通道工作器的线性一致映射。
// 同一设备任一时刻至多绑定一个Live工作器。
type Registry struct {
	mu      sync.RWMutex
	workers map[string]*Worker
}

// NewRegistry 创建注册表
func NewRegistry() *Registry {
	return &Registry{workers: make(map[string]*Worker)}
}

// Register 绑定设备到工作器并将其置为Live。
// 如果设备已有旧绑定，先在写锁内执行onDisplace（旧通道进入Draining、
// 在途Waiter全部以通道丢失完结），再安装新绑定——保证Lookup看到新工作器时
// 旧通道的善后已经完成。返回被顶替的旧工作器，调用方负责Close。
func (r *Registry) Register(deviceID string, w *Worker, onDisplace func(prev *Worker)) *Worker {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.workers[deviceID]
	if prev == w {
		return nil
	}
	if prev != nil && onDisplace != nil {
		onDisplace(prev)
	}

	w.setState(StateLive)
	r.workers[deviceID] = w
	return prev
}

// Lookup 查找设备的在线通道，只返回Live状态的工作器
func (r *Registry) Lookup(deviceID string) (*Worker, bool) {
	r.mu.RLock()
	w, ok := r.workers[deviceID]
	r.mu.RUnlock()

	if !ok || w.State() != StateLive {
		return nil, false
	}
	return w, true
}

// UnregisterIf 仅当当前绑定仍是该工作器时解除绑定（compare-and-clear）。
// 工作器退出Live时自清理用，对过期引用幂等。
func (r *Registry) UnregisterIf(deviceID string, w *Worker) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.workers[deviceID]; ok && cur == w {
		delete(r.workers, deviceID)
		return true
	}
	return false
}

// Len 当前绑定数
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}

// DeviceInfo 设备通道概要，供管理接口查询
type DeviceInfo struct {
	DeviceID    string    `json:"device_id"`
	ConnID      string    `json:"conn_id"`
	RemoteAddr  string    `json:"remote_addr"`
	State       string    `json:"state"`
	ConnectedAt time.Time `json:"connected_at"`
	LastSeen    time.Time `json:"last_seen"`
	Stats       Stats     `json:"stats"`
}

// Snapshot 全部绑定的一致性快照
func (r *Registry) Snapshot() []DeviceInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]DeviceInfo, 0, len(r.workers))
	for deviceID, w := range r.workers {
		out = append(out, DeviceInfo{
			DeviceID:    deviceID,
			ConnID:      w.ID(),
			RemoteAddr:  w.RemoteAddr(),
			State:       w.State().String(),
			ConnectedAt: w.connectedAt,
			LastSeen:    w.LastSeen(),
			Stats:       w.Stats(),
		})
	}
	return out
}
