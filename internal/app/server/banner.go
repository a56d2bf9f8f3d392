package server

import (
	"fmt"
	"os"
	"strings"
	"time"

	"facelink-core/internal/version"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const (
	bannerWidth = 60
)

var (
	bannerCyan  = color.New(color.FgCyan).SprintFunc()
	bannerBlue  = color.New(color.FgBlue).SprintFunc()
	bannerBold  = color.New(color.Bold).SprintFunc()
	bannerGreen = color.New(color.FgGreen).SprintFunc()
	bannerFaint = color.New(color.Faint).SprintFunc()
)

// DisplayStartupBanner 显示启动信息横幅
func (s *Server) DisplayStartupBanner(configPath string) {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	displayLogo()
	displayServerInfo(s, configPath)
	displayListeners(s)
	displayFooter()
}

// displayLogo 显示 Logo
func displayLogo() {
	fmt.Println()
	fmt.Printf("  %s\n", bannerCyan(` _____          _     _     _       _`))
	fmt.Printf("  %s    %s%s\n", bannerCyan(`|  ___|_ _  ___| |   (_)_ _| | __  | |`), bannerFaint(""), bannerBold("FaceLink Core Server"))
	fmt.Printf("  %s\n", bannerBlue(`| |_ / _`+"`"+` |/ __/ _ \ | | '_ \ |/ /  |_|`))
	fmt.Printf("  %s    %s\n", bannerBlue(`|  _| (_| | (_|  __/ |_| | | |   <   _`), bannerFaint("Version "+version.Full()))
	fmt.Printf("  %s\n", bannerBlue(`|_|  \__,_|\___\___|____|_|_| |_|\_\ (_)`))
	fmt.Println()
}

// displayServerInfo 显示服务器信息
func displayServerInfo(s *Server, configPath string) {
	fmt.Println(bannerBold("  Server Information"))
	fmt.Println(bannerFaint("  " + strings.Repeat("─", bannerWidth)))

	tun := s.cfg.Tunables()

	infoRows := []struct {
		label string
		value string
	}{
		{"Config File", configPath},
		{"Start Time", time.Now().Format("2006-01-02 15:04:05")},
		{"Heartbeat", tun.HeartbeatInterval.String()},
		{"Idle Timeout", tun.IdleTimeout.String()},
		{"Request Timeout", tun.DefaultRequestTimeout.String()},
		{"Log Level", s.cfg.Log.Level},
	}

	for _, row := range infoRows {
		fmt.Printf("  %-18s %s\n", bannerBold(row.label+":"), row.value)
	}
	fmt.Println()
}

// displayListeners 显示监听端点状态
func displayListeners(s *Server) {
	fmt.Println(bannerBold("  Listeners"))
	fmt.Println(bannerFaint("  " + strings.Repeat("─", bannerWidth)))

	rows := []struct {
		name    string
		enabled bool
		addr    string
	}{
		{"Device TCP", s.cfg.Server.TCP.Enabled, s.cfg.Server.TCP.Addr},
		{"Device WS", s.cfg.Server.WebSocket.Enabled, s.cfg.Server.WebSocket.Addr},
		{"Mgmt API", s.cfg.Server.API.Enabled, s.cfg.Server.API.Addr},
	}

	for _, row := range rows {
		status := bannerFaint("✗ Disabled")
		addr := ""
		if row.enabled {
			status = bannerGreen("✓ Enabled")
			addr = row.addr
		}
		fmt.Printf("  %-12s %-20s %s\n", row.name+":", addr, status)
	}
	fmt.Println()
}

// displayFooter 显示页脚
func displayFooter() {
	fmt.Println(bannerFaint("  " + strings.Repeat("━", bannerWidth)))
	fmt.Println()
	fmt.Printf("  %s\n", bannerFaint("Server is starting..."))
}
