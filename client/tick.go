package client

import (
	"context"
	"time"
)

const (
	// TicksPerSecond 逻辑线程推进频率（20 TPS）
	TicksPerSecond = 20

	connectRetries = 3
	retryDelay     = 2 * time.Second
	// reconnectEvery 断线后每隔多少 Tick 尝试重连
	reconnectEvery = 5 * TicksPerSecond
)

// ConnectRetry 连接失败时按固定间隔重试
func (s *Session) ConnectRetry(ctx context.Context, retries int, delay time.Duration) error {
	for r := 0; ; r++ {
		err := s.Connect(ctx)
		if err == nil || r >= retries {
			return err
		}
		s.log.Warnf("connect attempt %d failed: %v; retrying in %v", r+1, err, delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Run 连接并按 Tick 推进会话，直到 ctx 取消
// 断线后保持 Tick（命令与管理调用仍然执行），周期性尝试重连
func (s *Session) Run(ctx context.Context) error {
	if err := s.ConnectRetry(ctx, connectRetries, retryDelay); err != nil {
		return err
	}
	ticker := time.NewTicker(s.cfg.TickInterval())
	defer ticker.Stop()
	defer s.Disconnect(nil)

	var lostAt int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		// 核心循环：处理命令 → 分发消息 → 记录指标
		s.Tick()
		if s.connected {
			lostAt = 0
			continue
		}
		if lostAt == 0 {
			lostAt = s.tickSeq
		}
		if (s.tickSeq-lostAt)%reconnectEvery == reconnectEvery-1 {
			if err := s.Connect(ctx); err != nil {
				s.log.Debugf("reconnect: %v", err)
			}
		}
	}
}
