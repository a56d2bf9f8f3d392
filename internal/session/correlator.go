package session

import (
	"sync"
	"time"

	coreerrs "facelink-core/internal/errors"
	"facelink-core/internal/packet"
)

type waiterKey struct {
	deviceID  string
	requestID string
}

// Correlator 在途请求表：按(设备ID, 请求ID)索引Waiter，
// 并按工作器分区以便通道丢失时批量完结。
type Correlator struct {
	mu       sync.Mutex
	waiters  map[waiterKey]*Waiter
	byWorker map[*Worker]map[waiterKey]*Waiter
	inflight map[string]int // 设备ID → 在途数
}

// NewCorrelator 创建关联器
func NewCorrelator() *Correlator {
	return &Correlator{
		waiters:  make(map[waiterKey]*Waiter),
		byWorker: make(map[*Worker]map[waiterKey]*Waiter),
		inflight: make(map[string]int),
	}
}

// Arm 登记一个在途请求。同一设备下请求ID与在途请求冲突时
// 返回ErrDuplicateRequestID，调用方应换新ID重试。
func (c *Correlator) Arm(w *Worker, requestID string, deadline time.Time) (*Waiter, error) {
	key := waiterKey{deviceID: w.DeviceID(), requestID: requestID}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.waiters[key]; exists {
		return nil, coreerrs.ErrDuplicateRequestID
	}

	wt := &Waiter{
		deviceID:   key.deviceID,
		requestID:  requestID,
		worker:     w,
		deadline:   deadline,
		armedAt:    time.Now(),
		correlator: c,
		done:       make(chan Completion, 1),
	}

	c.waiters[key] = wt
	partition := c.byWorker[w]
	if partition == nil {
		partition = make(map[waiterKey]*Waiter)
		c.byWorker[w] = partition
	}
	partition[key] = wt
	c.inflight[key.deviceID]++

	// 截止定时器在表项就位后启动；到期与应答竞争同一次完结
	d := time.Until(deadline)
	if d < 0 {
		d = 0
	}
	wt.timer = time.AfterFunc(d, func() { c.expire(wt) })

	return wt, nil
}

// Deliver 投递应答。命中在途请求时完结对应Waiter并返回true；
// 迟到或无主的应答返回false，由调用方计数丢弃。
func (c *Correlator) Deliver(deviceID, requestID string, msg packet.Message) bool {
	key := waiterKey{deviceID: deviceID, requestID: requestID}

	c.mu.Lock()
	wt, ok := c.waiters[key]
	if ok {
		c.removeLocked(wt, key)
	}
	c.mu.Unlock()

	if !ok {
		return false
	}
	wt.complete(Completion{Result: ResultReply, Reply: msg})
	return true
}

// FailAllFor 将该工作器名下全部在途Waiter以通道丢失完结，
// 用于Draining与顶替下线。
func (c *Correlator) FailAllFor(w *Worker, reason CloseReason) {
	c.mu.Lock()
	partition := c.byWorker[w]
	victims := make([]*Waiter, 0, len(partition))
	for key, wt := range partition {
		delete(c.waiters, key)
		c.decInflightLocked(key.deviceID)
		victims = append(victims, wt)
	}
	delete(c.byWorker, w)
	c.mu.Unlock()

	for _, wt := range victims {
		wt.complete(Completion{Result: ResultChannelLost, Reason: reason})
	}
}

// Abandon 撤下一个Waiter并以给定结果完结，发送失败路径使用。
// Waiter已被其他路径完结时为空操作。
func (c *Correlator) Abandon(wt *Waiter, completion Completion) {
	if c.remove(wt) {
		wt.complete(completion)
	}
}

// InflightFor 指定设备的在途请求数
func (c *Correlator) InflightFor(deviceID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight[deviceID]
}

// Pending 全局在途请求数
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// expire 截止定时器回调：仍在表中才有完结权，迟到的到期是空操作
func (c *Correlator) expire(wt *Waiter) {
	if c.remove(wt) {
		wt.complete(Completion{Result: ResultTimeout})
	}
}

// remove 从表中撤下Waiter。返回true表示调用方赢得完结权
func (c *Correlator) remove(wt *Waiter) bool {
	key := waiterKey{deviceID: wt.deviceID, requestID: wt.requestID}

	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.waiters[key]
	if !ok || cur != wt {
		return false
	}
	c.removeLocked(wt, key)
	return true
}

func (c *Correlator) removeLocked(wt *Waiter, key waiterKey) {
	delete(c.waiters, key)
	if partition := c.byWorker[wt.worker]; partition != nil {
		delete(partition, key)
		if len(partition) == 0 {
			delete(c.byWorker, wt.worker)
		}
	}
	c.decInflightLocked(key.deviceID)
}

func (c *Correlator) decInflightLocked(deviceID string) {
	if n := c.inflight[deviceID]; n <= 1 {
		delete(c.inflight, deviceID)
	} else {
		c.inflight[deviceID] = n - 1
	}
}
