package command

import (
	"facelink-core/internal/packet"
)

// Status 调度结果类别
type Status int

const (
	StatusOk            Status = iota // 设备应答code==0
	StatusDeviceError                 // 设备应答code!=0
	StatusDeviceOffline               // 无在线通道或应答前通道丢失
	StatusDeviceBusy                  // 背压或在途上限
	StatusTimeout                     // 截止时间前未收到应答
	StatusCancelled                   // 调用方取消
)

func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusDeviceError:
		return "device_error"
	case StatusDeviceOffline:
		return "device_offline"
	case StatusDeviceBusy:
		return "device_busy"
	case StatusTimeout:
		return "timeout"
	case StatusCancelled:
		return "cancelled"
	default:
		return "invalid"
	}
}

// Outcome 一次命令调度的定型结果
type Outcome struct {
	Status      Status
	Code        int64          // StatusDeviceError时为设备上报错误码
	Description string         // 错误码对应的可读文案
	Reply       packet.Message // StatusOk与StatusDeviceError时为完整应答帧
}
