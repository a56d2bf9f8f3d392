package session

import (
	"context"
	"sync"

	"facelink-core/internal/config"
	"facelink-core/internal/events"
	"facelink-core/internal/packet"
	"facelink-core/internal/utils"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// 无主应答去重缓存的容量
const unmatchedCacheSize = 1024

// Hub 会话中枢：持有注册表与关联器，接收协议适配器交来的传输通道，
// 为每条通道建立Worker并路由其入站帧。
type Hub struct {
	cfg        config.Tunables
	registry   *Registry
	correlator *Correlator
	bus        *events.Bus

	workersMu sync.Mutex
	workers   map[*Worker]struct{}

	// 最近见过的无主应答，只在首次出现时打日志
	unmatchedSeen *lru.Cache[string, struct{}]

	utils.Dispose
}

// NewHub 创建会话中枢
func NewHub(parentCtx context.Context, cfg config.Tunables, bus *events.Bus) *Hub {
	unmatchedSeen, _ := lru.New[string, struct{}](unmatchedCacheSize)

	hub := &Hub{
		cfg:           cfg,
		registry:      NewRegistry(),
		correlator:    NewCorrelator(),
		bus:           bus,
		workers:       make(map[*Worker]struct{}),
		unmatchedSeen: unmatchedSeen,
	}
	hub.SetCtx(parentCtx, hub.onClose)
	return hub
}

// Registry 设备注册表
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Correlator 请求关联器
func (h *Hub) Correlator() *Correlator {
	return h.correlator
}

// Tunables 会话层参数
func (h *Hub) Tunables() config.Tunables {
	return h.cfg
}

// HandleTransport 接管一条新传输通道：建立Handshaking状态的Worker并启动其循环。
// 在deviceOnline到来之前，该通道不可被设备ID寻址。
func (h *Hub) HandleTransport(t Transport) *Worker {
	if h.IsClosed() {
		_ = t.Close()
		return nil
	}

	w := newWorker(h, uuid.NewString(), t)

	h.workersMu.Lock()
	h.workers[w] = struct{}{}
	h.workersMu.Unlock()

	utils.LogConnection(w.ID(), t.RemoteAddr(), true)

	go w.readLoop()
	go w.writeLoop()
	go w.idleLoop()
	return w
}

// route 入站帧分派：控制面消息、命令应答、其余丢弃
func (h *Hub) route(w *Worker, msg packet.Message) {
	switch msg.Kind() {
	case packet.KindControl:
		h.handleControl(w, msg)
	case packet.KindReply:
		deviceID := w.DeviceID()
		if deviceID != "" && h.correlator.Deliver(deviceID, msg.RequestID(), msg) {
			return
		}
		h.noteUnmatched(w, msg)
	default:
		if w.logLimiter.Allow() {
			utils.WithConn(w.ID()).Debugf("Unclassifiable frame dropped: request_type=%q", msg.RequestType())
		}
	}
}

// noteUnmatched 无主应答：计数丢弃，同一请求ID只在首次出现时打日志
func (h *Hub) noteUnmatched(w *Worker, msg packet.Message) {
	w.unmatched.Add(1)

	key := w.DeviceID() + "/" + msg.RequestID()
	if _, seen := h.unmatchedSeen.Get(key); seen {
		return
	}
	h.unmatchedSeen.Add(key, struct{}{})

	utils.WithConn(w.ID()).WithField("request_id", msg.RequestID()).
		Debugf("Reply without armed waiter dropped (resp_type=%q)", msg.RespType())
}

func (h *Hub) dropWorker(w *Worker) {
	h.workersMu.Lock()
	delete(h.workers, w)
	h.workersMu.Unlock()

	utils.LogConnection(w.ID(), w.RemoteAddr(), false)
}

func (h *Hub) publishOffline(deviceID string, reason CloseReason) {
	if h.bus == nil {
		return
	}
	h.bus.Publish(events.TopicDeviceOffline, deviceID, map[string]interface{}{
		"reason": string(reason),
	})
}

// onClose 停机：关闭所有通道，等效于全部设备同时断线
func (h *Hub) onClose() {
	h.workersMu.Lock()
	workers := make([]*Worker, 0, len(h.workers))
	for w := range h.workers {
		workers = append(workers, w)
	}
	h.workersMu.Unlock()

	for _, w := range workers {
		w.Close(ReasonShutdown)
	}
	utils.Infof("Session hub closed, %d channel(s) torn down", len(workers))
}
