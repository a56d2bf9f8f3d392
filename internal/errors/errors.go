// Package errors 提供会话层的统一错误定义
//
// 设计原则：
// 1. 所有错误都可以通过 errors.Is() 进行类型检查
// 2. 设备上报的错误码与文案通过固定映射表翻译，见 codes.go
// 3. 内部错误（如请求ID冲突）不暴露给调用方
package errors

import "errors"

var (
	// ErrDuplicateRequestID 请求ID与在途请求冲突，调度器换新ID重试
	ErrDuplicateRequestID = errors.New("duplicate request id")

	// ErrDeviceOffline 设备无在线通道
	ErrDeviceOffline = errors.New("device offline")

	// ErrWorkerNotLive 通道未处于Live状态
	ErrWorkerNotLive = errors.New("channel worker not live")

	// ErrQueueFull 出站队列已满
	ErrQueueFull = errors.New("outbound queue full")
)
