package session

import (
	"context"
	"sync"
	"time"

	"facelink-core/internal/packet"
)

// Result 等待结果类别
type Result int

const (
	ResultReply       Result = iota // 收到匹配应答
	ResultTimeout                   // 截止时间前未收到应答
	ResultChannelLost               // 应答前通道丢失
	ResultCancelled                 // 调用方取消
)

func (r Result) String() string {
	switch r {
	case ResultReply:
		return "reply"
	case ResultTimeout:
		return "timeout"
	case ResultChannelLost:
		return "channel_lost"
	case ResultCancelled:
		return "cancelled"
	default:
		return "invalid"
	}
}

// Completion 一次完结。Result为ResultReply时Reply非空，
// ResultChannelLost时Reason记录通道关闭原因。
type Completion struct {
	Result Result
	Reply  packet.Message
	Reason CloseReason
}

// Waiter 在途请求的单次完结槽。
// 应答、超时、通道丢失、取消四条路径竞争，恰好一条胜出，其余为空操作。
type Waiter struct {
	deviceID  string
	requestID string
	worker    *Worker
	deadline  time.Time
	armedAt   time.Time

	correlator *Correlator
	timer      *time.Timer

	once sync.Once
	done chan Completion
}

// DeviceID 归属设备
func (wt *Waiter) DeviceID() string {
	return wt.deviceID
}

// RequestID 关联的请求ID
func (wt *Waiter) RequestID() string {
	return wt.requestID
}

// complete 单次完结，竞争失败的调用是空操作。
// 只能在Waiter已从Correlator表中移除之后调用。
func (wt *Waiter) complete(c Completion) {
	wt.once.Do(func() {
		if wt.timer != nil {
			wt.timer.Stop()
		}
		wt.done <- c
	})
}

// Await 阻塞等待完结。调用方context取消时，与其他完结路径竞争一次取消；
// 竞争失败则返回已经产生的结果。
func (wt *Waiter) Await(ctx context.Context) Completion {
	select {
	case c := <-wt.done:
		return c
	case <-ctx.Done():
		if wt.correlator.remove(wt) {
			wt.complete(Completion{Result: ResultCancelled})
		}
		return <-wt.done
	}
}
