package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"facelink-core/internal/config"
	"facelink-core/internal/constants"
	"facelink-core/internal/packet"
)

// pipeTransport 内存传输，模拟设备端的一条连接。
// in是设备发给服务端的帧，out是服务端写出的帧。
type pipeTransport struct {
	in     chan []byte
	out    chan []byte
	closed chan struct{}
	once   sync.Once
}

func newPipeTransport() *pipeTransport {
	return newPipeTransportBuf(64)
}

func newPipeTransportBuf(outBuf int) *pipeTransport {
	return &pipeTransport{
		in:     make(chan []byte, 64),
		out:    make(chan []byte, outBuf),
		closed: make(chan struct{}),
	}
}

func (p *pipeTransport) ReadFrame() ([]byte, error) {
	select {
	case data := <-p.in:
		return data, nil
	case <-p.closed:
		return nil, io.EOF
	}
}

func (p *pipeTransport) WriteFrame(data []byte) error {
	select {
	case p.out <- data:
		return nil
	case <-p.closed:
		return errors.New("pipe closed")
	}
}

func (p *pipeTransport) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *pipeTransport) RemoteAddr() string {
	return "pipe:device"
}

// push 设备端发送一帧
func (p *pipeTransport) push(t *testing.T, msg packet.Message) {
	t.Helper()
	data, err := packet.Encode(msg)
	if err != nil {
		t.Fatalf("encode test frame: %v", err)
	}
	p.pushRaw(t, data)
}

// pushRaw 设备端发送原始字节
func (p *pipeTransport) pushRaw(t *testing.T, data []byte) {
	t.Helper()
	select {
	case p.in <- data:
	case <-time.After(time.Second):
		t.Fatal("push blocked")
	}
}

// nextOut 取服务端写出的下一帧
func (p *pipeTransport) nextOut(t *testing.T) packet.Message {
	t.Helper()
	select {
	case data := <-p.out:
		msg, err := packet.Decode(bytes.TrimSpace(data))
		if err != nil {
			t.Fatalf("decode outbound frame: %v", err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for outbound frame")
	}
	return nil
}

func testTunables() config.Tunables {
	return config.Tunables{
		HeartbeatInterval:     50 * time.Millisecond,
		IdleTimeout:           200 * time.Millisecond,
		DefaultRequestTimeout: 200 * time.Millisecond,
		LongRequestTimeout:    time.Second,
		DrainDeadline:         100 * time.Millisecond,
		MaxOutboundQueue:      8,
		MaxInflightPerDevice:  4,
		RequestIDLength:       4,
	}
}

func onlineFrame(deviceID string) packet.Message {
	return packet.Message{
		constants.FieldRequestType: constants.RequestTypeDeviceOnline,
		constants.FieldDeviceID:    deviceID,
	}
}

func heartbeatFrame(deviceID string) packet.Message {
	return packet.Message{
		constants.FieldRequestType: constants.RequestTypeHeartbeat,
		constants.FieldDeviceID:    deviceID,
		"user_num":                 3,
	}
}

// goOnline 建立一条通道并完成上线握手，返回Live状态的工作器
func goOnline(t *testing.T, hub *Hub, pt *pipeTransport, deviceID string) *Worker {
	t.Helper()

	w := hub.HandleTransport(pt)
	if w == nil {
		t.Fatal("HandleTransport returned nil")
	}

	pt.push(t, onlineFrame(deviceID))

	ack := pt.nextOut(t)
	if ack.RespType() != constants.RequestTypeDeviceOnline {
		t.Fatalf("expected deviceOnline ack, got resp_type %q", ack.RespType())
	}
	if code, _ := ack.Code(); code != 0 {
		t.Fatalf("expected ack code 0, got %d", code)
	}
	return w
}

// waitClosed 等待工作器完全关闭
func waitClosed(t *testing.T, w *Worker) {
	t.Helper()
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for worker to close")
	}
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(context.Background(), testTunables(), nil)
	t.Cleanup(hub.Close)
	return hub
}
