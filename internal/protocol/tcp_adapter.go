package protocol

import (
	"context"
	"fmt"
	"net"

	"facelink-core/internal/packet"
	"facelink-core/internal/session"
	"facelink-core/internal/utils"
)

// TcpAdapter TCP协议适配器。设备发起连接后长期保持，
// 帧为换行结尾的JSON对象。
type TcpAdapter struct {
	BaseAdapter
	listener net.Listener
	handler  SessionHandler
}

// NewTcpAdapter 创建TCP适配器
func NewTcpAdapter(parentCtx context.Context, handler SessionHandler) *TcpAdapter {
	t := &TcpAdapter{handler: handler}
	t.SetName("tcp")
	t.SetCtx(parentCtx, t.onClose)
	return t
}

// Listen 在指定地址监听设备接入
func (t *TcpAdapter) Listen(addr string) error {
	t.SetAddr(addr)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("tcp adapter listen on %s: %w", addr, err)
	}
	t.listener = ln

	go t.acceptLoop()
	utils.Infof("TCP adapter listening on %s", addr)
	return nil
}

func (t *TcpAdapter) acceptLoop() {
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			if !t.IsClosed() {
				utils.Errorf("TCP accept error: %v", err)
			}
			return
		}

		if t.IsClosed() {
			_ = conn.Close()
			return
		}

		t.handler.HandleTransport(newTCPTransport(conn))
	}
}

func (t *TcpAdapter) onClose() {
	if t.listener != nil {
		_ = t.listener.Close()
	}
	utils.Infof("TCP adapter closed")
}

// tcpTransport 把net.Conn包装成按帧读写的传输
type tcpTransport struct {
	conn    net.Conn
	scanner *packet.FrameScanner
}

var _ session.Transport = (*tcpTransport)(nil)

func newTCPTransport(conn net.Conn) *tcpTransport {
	return &tcpTransport{
		conn:    conn,
		scanner: packet.NewFrameScanner(conn),
	}
}

func (t *tcpTransport) ReadFrame() ([]byte, error) {
	return t.scanner.NextRaw()
}

func (t *tcpTransport) WriteFrame(data []byte) error {
	_, err := t.conn.Write(data)
	return err
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}

func (t *tcpTransport) RemoteAddr() string {
	if addr := t.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
