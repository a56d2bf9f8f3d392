package session

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"facelink-core/internal/packet"
	"facelink-core/internal/utils"

	"golang.org/x/time/rate"
)

// 空闲检测的轮询下限，避免测试用的极短超时把轮询间隔压成0
const minIdleTick = 10 * time.Millisecond

// Worker 通道工作器，独占一条设备传输通道。
// 读循环、写循环、空闲检测各占一个goroutine；写循环是传输的唯一写者。
type Worker struct {
	id          string
	hub         *Hub
	transport   Transport
	connectedAt time.Time

	state    atomic.Int32
	deviceID atomic.Value // string，deviceOnline后填充

	lastSeen atomic.Int64 // unix纳秒

	outbound  chan packet.Message
	drainCh   chan struct{} // 关闭即通知写循环排空退出
	writeDone chan struct{} // 写循环退出后关闭
	closedCh  chan struct{} // 完全关闭后关闭

	closeOnce   sync.Once
	closeReason CloseReason

	// 坏帧日志限流，避免故障设备刷屏
	logLimiter *rate.Limiter

	framesIn  atomic.Uint64
	framesOut atomic.Uint64
	malformed atomic.Uint64
	unmatched atomic.Uint64
}

func newWorker(hub *Hub, id string, transport Transport) *Worker {
	w := &Worker{
		id:          id,
		hub:         hub,
		transport:   transport,
		connectedAt: time.Now(),
		outbound:    make(chan packet.Message, hub.cfg.MaxOutboundQueue),
		drainCh:     make(chan struct{}),
		writeDone:   make(chan struct{}),
		closedCh:    make(chan struct{}),
		logLimiter:  rate.NewLimiter(rate.Every(time.Second), 5),
	}
	w.state.Store(int32(StateHandshaking))
	w.deviceID.Store("")
	w.touch()
	return w
}

// ID 连接ID，接入时生成
func (w *Worker) ID() string {
	return w.id
}

// DeviceID 设备声明的ID，Live之前为空串
func (w *Worker) DeviceID() string {
	return w.deviceID.Load().(string)
}

// State 当前状态
func (w *Worker) State() State {
	return State(w.state.Load())
}

// LastSeen 最近一次收到帧的时间
func (w *Worker) LastSeen() time.Time {
	return time.Unix(0, w.lastSeen.Load())
}

// RemoteAddr 对端地址
func (w *Worker) RemoteAddr() string {
	return w.transport.RemoteAddr()
}

func (w *Worker) touch() {
	w.lastSeen.Store(time.Now().UnixNano())
}

func (w *Worker) setState(s State) {
	w.state.Store(int32(s))
}

// Send 非阻塞入队一帧。只有Live状态的通道可写；
// 返回SendOK的帧保证按调用顺序写出到传输。
func (w *Worker) Send(m packet.Message) SendResult {
	if w.State() != StateLive {
		return SendDead
	}
	select {
	case w.outbound <- m:
		return SendOK
	default:
		return SendBackpressure
	}
}

// enqueue 内部入队，供控制面应答使用，不检查Live状态
func (w *Worker) enqueue(m packet.Message) bool {
	if s := w.State(); s == StateDraining || s == StateClosed {
		return false
	}
	select {
	case w.outbound <- m:
		return true
	default:
		return false
	}
}

// Close 幂等关闭：进入Draining，撤销注册，让所有在途Waiter以通道丢失完结，
// 出站队列在时限内尽力排空，然后释放传输并进入Closed。
func (w *Worker) Close(reason CloseReason) {
	w.closeOnce.Do(func() {
		wasLive := w.State() == StateLive
		w.closeReason = reason
		w.setState(StateDraining)

		deviceID := w.DeviceID()
		if deviceID != "" {
			w.hub.registry.UnregisterIf(deviceID, w)
		}

		// I4：资源释放之前，所有归属本通道的Waiter必须先完结
		w.hub.correlator.FailAllFor(w, reason)

		close(w.drainCh)
		go w.finalize(reason, wasLive, deviceID)
	})
}

func (w *Worker) finalize(reason CloseReason, wasLive bool, deviceID string) {
	select {
	case <-w.writeDone:
	case <-time.After(w.hub.cfg.DrainDeadline + 500*time.Millisecond):
	}

	_ = w.transport.Close()
	w.setState(StateClosed)
	close(w.closedCh)

	utils.WithConn(w.id).WithField("reason", string(reason)).
		Infof("Channel worker closed for device %q", deviceID)

	w.hub.dropWorker(w)
	if wasLive && deviceID != "" {
		w.hub.publishOffline(deviceID, reason)
	}
}

// Done 通道完全关闭后可读
func (w *Worker) Done() <-chan struct{} {
	return w.closedCh
}

// readLoop 传输的唯一读者
func (w *Worker) readLoop() {
	for {
		data, err := w.transport.ReadFrame()
		if err != nil {
			if s := w.State(); s == StateHandshaking || s == StateLive {
				if errors.Is(err, io.EOF) {
					utils.WithConn(w.id).Debugf("Connection closed by peer")
				} else {
					utils.WithConn(w.id).Warnf("Read error: %v", err)
				}
			}
			w.Close(ReasonIOError)
			return
		}

		w.touch()
		w.framesIn.Add(1)

		msg, err := packet.Decode(data)
		if err != nil {
			// 单个坏帧不拆通道，记录后继续读
			w.malformed.Add(1)
			if w.logLimiter.Allow() {
				utils.WithConn(w.id).Warnf("Malformed frame dropped: %v", err)
			}
			continue
		}

		w.hub.route(w, msg)
	}
}

// writeLoop 传输的唯一写者，收到排空信号后尽力清空队列再退出
func (w *Worker) writeLoop() {
	defer close(w.writeDone)

	for {
		select {
		case m := <-w.outbound:
			if !w.writeFrame(m) {
				return
			}
		case <-w.drainCh:
			w.drainOutbound()
			return
		}
	}
}

func (w *Worker) drainOutbound() {
	deadline := time.Now().Add(w.hub.cfg.DrainDeadline)
	for {
		if time.Now().After(deadline) {
			return
		}
		select {
		case m := <-w.outbound:
			if !w.writeFrame(m) {
				return
			}
		default:
			return
		}
	}
}

func (w *Worker) writeFrame(m packet.Message) bool {
	data, err := packet.Encode(m)
	if err != nil {
		utils.WithConn(w.id).Errorf("Failed to encode frame: %v", err)
		return true
	}
	if err := w.transport.WriteFrame(data); err != nil {
		if w.State() == StateLive {
			utils.WithConn(w.id).Warnf("Write error: %v", err)
		}
		w.Close(ReasonIOError)
		return false
	}
	w.framesOut.Add(1)
	return true
}

// idleLoop 空闲检测：超过IdleTimeout没有收到任何帧即判定通道死亡
func (w *Worker) idleLoop() {
	tick := w.hub.cfg.IdleTimeout / 4
	if tick < minIdleTick {
		tick = minIdleTick
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.closedCh:
			return
		case <-ticker.C:
			if time.Since(w.LastSeen()) > w.hub.cfg.IdleTimeout {
				utils.WithConn(w.id).WithField("device_id", w.DeviceID()).
					Warnf("Channel idle for %v, closing", time.Since(w.LastSeen()))
				w.Close(ReasonIdleTimeout)
				return
			}
		}
	}
}

// Stats 通道计数快照
type Stats struct {
	FramesIn  uint64 `json:"frames_in"`
	FramesOut uint64 `json:"frames_out"`
	Malformed uint64 `json:"malformed"`
	Unmatched uint64 `json:"unmatched"`
}

// Stats 返回计数快照
func (w *Worker) Stats() Stats {
	return Stats{
		FramesIn:  w.framesIn.Load(),
		FramesOut: w.framesOut.Load(),
		Malformed: w.malformed.Load(),
		Unmatched: w.unmatched.Load(),
	}
}
