package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"facelink-core/internal/api"
	"facelink-core/internal/command"
	"facelink-core/internal/config"
	"facelink-core/internal/events"
	"facelink-core/internal/protocol"
	"facelink-core/internal/session"
	"facelink-core/internal/utils"

	"golang.org/x/sync/errgroup"
)

// Server 服务端装配：事件总线、会话中枢、命令调度器、协议适配器与管理API
type Server struct {
	cfg        *config.Config
	bus        *events.Bus
	hub        *session.Hub
	dispatcher *command.Dispatcher

	tcpAdapter *protocol.TcpAdapter
	wsAdapter  *protocol.WebSocketAdapter
	apiServer  *api.Server

	utils.Dispose
}

// New 创建服务端实例
func New(cfg *config.Config, parentCtx context.Context) *Server {
	if err := utils.InitLogger(&cfg.Log); err != nil {
		utils.Warnf("Failed to apply log config: %v", err)
	}

	s := &Server{cfg: cfg}
	s.SetCtx(parentCtx, s.onClose)

	s.bus = events.NewBus(s.Ctx())
	s.hub = session.NewHub(s.Ctx(), cfg.Tunables(), s.bus)
	s.dispatcher = command.NewDispatcher(s.hub)

	if cfg.Server.TCP.Enabled {
		s.tcpAdapter = protocol.NewTcpAdapter(s.Ctx(), s.hub)
	}
	if cfg.Server.WebSocket.Enabled {
		s.wsAdapter = protocol.NewWebSocketAdapter(s.Ctx(), s.hub)
	}
	if cfg.Server.API.Enabled {
		s.apiServer = api.NewServer(s.Ctx(), s.dispatcher, s.hub.Registry())
	}

	return s
}

// Dispatcher 命令调度器，测试与嵌入场景使用
func (s *Server) Dispatcher() *command.Dispatcher {
	return s.dispatcher
}

// Hub 会话中枢
func (s *Server) Hub() *session.Hub {
	return s.hub
}

// Start 启动全部监听端点
func (s *Server) Start() error {
	if s.tcpAdapter != nil {
		if err := s.tcpAdapter.Listen(s.cfg.Server.TCP.Addr); err != nil {
			return fmt.Errorf("start tcp adapter: %w", err)
		}
	}
	if s.wsAdapter != nil {
		if err := s.wsAdapter.Listen(s.cfg.Server.WebSocket.Addr); err != nil {
			return fmt.Errorf("start websocket adapter: %w", err)
		}
	}
	if s.apiServer != nil {
		if err := s.apiServer.Listen(s.cfg.Server.API.Addr); err != nil {
			return fmt.Errorf("start api server: %w", err)
		}
	}
	return nil
}

// Run 启动并阻塞运行，收到退出信号后优雅关闭
func (s *Server) Run() error {
	if err := s.Start(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(s.Ctx())

	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			utils.Infof("Received signal %v, shutting down", sig)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	g.Go(func() error {
		s.consumeEvents(ctx)
		return nil
	})

	err := g.Wait()
	s.Close()
	if err == context.Canceled {
		return nil
	}
	return err
}

// consumeEvents 订阅设备上下线事件并输出审计日志
func (s *Server) consumeEvents(ctx context.Context) {
	online, err := s.bus.Subscribe(events.TopicDeviceOnline)
	if err != nil {
		return
	}
	offline, err := s.bus.Subscribe(events.TopicDeviceOffline)
	if err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-online:
			if !ok {
				return
			}
			utils.WithDevice(ev.DeviceID).WithField("fields", ev.Fields).Info("Audit: device online")
		case ev, ok := <-offline:
			if !ok {
				return
			}
			utils.WithDevice(ev.DeviceID).WithField("fields", ev.Fields).Info("Audit: device offline")
		}
	}
}

// onClose 逆序释放组件
func (s *Server) onClose() {
	if s.apiServer != nil {
		s.apiServer.Close()
	}
	if s.wsAdapter != nil {
		s.wsAdapter.Close()
	}
	if s.tcpAdapter != nil {
		s.tcpAdapter.Close()
	}
	if s.hub != nil {
		s.hub.Close()
	}
	if s.bus != nil {
		s.bus.Close()
	}
	utils.Infof("Server components released")
}
