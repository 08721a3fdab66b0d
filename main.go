package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"manaclient/client"
	"manaclient/dialect"
	"manaclient/relation"
)

// manaclient 入口：连接游戏服务器，控制台聊天，并提供管理与监控接口
func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "manaclient",
		Short: "Headless client for eAthena/TMWA game servers.",
		Long: `Connects to a game server, tracks the beings around the character and
relays chat to the console. Type "/w <nick> <text>" to whisper,
"/name <id>" to ask for a name and "/ignoreall on|off" to toggle whispers.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), v)
		},
	}

	f := cmd.Flags()
	f.String(client.KeyServer, "", "server address, e.g. tcp://127.0.0.1:5122 or ws://host/game")
	f.String(client.KeyDialect, "", fmt.Sprintf("server dialect %v", dialect.Names()))
	f.String(client.KeyCharacter, "", "local character name")
	f.String(client.KeyLogFile, "", "log file path")
	f.String(client.KeyLogLevel, "", "log level: debug/info/warn/error")
	f.String(client.KeyAdminAddr, "", "admin listen address, empty to disable")
	f.Int(client.KeyTickRate, 0, "ticks per second")
	f.Bool(client.KeyTradeBot, false, "answer shop commands in whispers")
	f.Bool(client.KeyShowShopMessages, false, "show shop command whispers in the chat log")
	_ = v.BindPFlags(f)
	return cmd
}

func run(ctx context.Context, v *viper.Viper) error {
	cfg, err := client.LoadConfig(v)
	if err != nil {
		return err
	}
	// 使用第三方 zap 日志库写入日志文件（带滚动）
	if err := client.InitLogger(cfg.LogFile, cfg.LogLevel); err != nil {
		return err
	}
	defer client.SyncLogger()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	console := client.NewConsoleLog(os.Stdout)
	s, err := client.NewSession(cfg, client.Options{
		Relations: relation.AllowAll{},
		ChatLog:   console,
		Notifier:  console,
		Metrics:   client.NewSessionMetrics(reg),
	})
	if err != nil {
		return err
	}

	if cfg.AdminAddr != "" {
		srv := &http.Server{Addr: cfg.AdminAddr, Handler: client.AdminRouter(s, reg)}
		go func() {
			client.Log.Infof("admin listening on %s", cfg.AdminAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				client.Log.Errorf("admin listen: %v", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	go func() {
		if err := s.ReadConsole(ctx, os.Stdin); err != nil {
			client.Log.Warnf("console: %v", err)
		}
	}()

	err = s.Run(ctx)
	client.Log.Info("Shutting down...")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
