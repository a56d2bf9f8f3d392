package session

// Transport 一条已接入的设备传输通道，按帧读写。
// 协议适配器（TCP、WebSocket）负责把各自的底层连接包装成Transport。
type Transport interface {
	// ReadFrame 读取下一帧原始字节，阻塞直到有帧或出错
	ReadFrame() ([]byte, error)

	// WriteFrame 写出一帧，调用方保证串行
	WriteFrame(data []byte) error

	// Close 关闭底层连接，幂等
	Close() error

	// RemoteAddr 对端地址，仅用于日志
	RemoteAddr() string
}

// State 通道状态机
type State int32

const (
	StateHandshaking State = iota // 已接入，等待deviceOnline
	StateLive                     // 已注册，可收发命令
	StateDraining                 // 关闭中，拒绝新写入
	StateClosed                   // 已释放
)

func (s State) String() string {
	switch s {
	case StateHandshaking:
		return "handshaking"
	case StateLive:
		return "live"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "invalid"
	}
}

// SendResult 入队结果
type SendResult int

const (
	SendOK           SendResult = iota // 已入队，写循环保证按入队顺序发出
	SendBackpressure                   // 出站队列已满
	SendDead                           // 通道不在Live状态
)

func (r SendResult) String() string {
	switch r {
	case SendOK:
		return "sent"
	case SendBackpressure:
		return "backpressure"
	case SendDead:
		return "dead"
	default:
		return "invalid"
	}
}

// CloseReason 通道关闭原因
type CloseReason string

const (
	ReasonIdleTimeout   CloseReason = "idle_timeout"             // 超过空闲时限未收到任何帧
	ReasonDisplaced     CloseReason = "displaced_by_reconnect"   // 同一设备新通道上线，旧通道被顶替
	ReasonIOError       CloseReason = "io_error"                 // 读写出错或对端断开
	ReasonProtocolError CloseReason = "protocol_error"           // 协议违例，如重复deviceOnline
	ReasonShutdown      CloseReason = "shutdown"                 // 服务停机
)
