package client

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"manaclient/being"
	"manaclient/chat"
	"manaclient/dialect"
	"manaclient/dispatch"
	"manaclient/protocol"
	"manaclient/relation"
)

// ErrNotConnected 会话当前没有连接
var ErrNotConnected = chat.ErrNotConnected

// Notifier 连接丢失的持久提示（外部界面）
type Notifier interface {
	ConnectionLost(reason string)
}

// Options 会话的外部协作者；nil 字段使用默认实现
type Options struct {
	Dial      DialFunc
	Registry  *being.Memory
	Local     being.LocalPlayer
	Presenter being.Presenter
	Relations relation.View
	ChatLog   chat.Log
	Shop      chat.Shop
	Notifier  Notifier
	Metrics   *SessionMetrics
	Logger    *zap.SugaredLogger
}

// Session 一次连接会话：拥有处理器注册表、角色注册表与私聊队列
// 所有可变状态只在逻辑线程（Tick）中修改
type Session struct {
	ID      uuid.UUID
	cfg     Config
	dialect *dialect.Dialect
	log     *zap.SugaredLogger
	metrics *SessionMetrics
	dial    DialFunc

	dispatcher *dispatch.Registry
	beings     *being.Memory
	engine     *being.Engine
	chat       *chat.Handler
	notifier   Notifier

	conn  io.ReadWriteCloser
	inbox chan *protocol.MessageIn
	lost  chan error
	done  chan struct{}

	inputChan chan Command
	calls     chan func()

	connected    bool
	noticeActive bool
	sendErr      error
	tickSeq      int64
}

// NewSession 按配置构造会话（尚未连接）
func NewSession(cfg Config, opts Options) (*Session, error) {
	d, err := dialect.Lookup(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:        uuid.New(),
		cfg:       cfg,
		dialect:   d,
		dial:      opts.Dial,
		beings:    opts.Registry,
		notifier:  opts.Notifier,
		metrics:   opts.Metrics,
		inputChan: make(chan Command, 64),
		calls:     make(chan func(), 16),
	}
	if s.dial == nil {
		s.dial = Dial
	}
	if s.beings == nil {
		s.beings = being.NewMemory()
	}
	if s.metrics == nil {
		s.metrics = NewSessionMetrics(prometheus.NewRegistry())
	}
	log := opts.Logger
	if log == nil {
		log = Log
	}
	s.log = log.With("session", s.ID.String(), "dialect", d.Name)

	local := opts.Local
	if local == nil {
		local = NewCharacter(cfg.Character)
	}
	presenter := opts.Presenter
	if presenter == nil {
		presenter = logPresenter{log: s.log}
	}

	s.engine, err = being.NewEngine(d, being.Options{
		Registry:  s.beings,
		Local:     local,
		Presenter: presenter,
		Relations: opts.Relations,
		Sender:    s,
		Log:       s.log.Named("being"),
		OnCreate:  func(*being.Being) { s.metrics.BeingsCreated.Inc() },
		OnRetire:  func(being.ActorID) { s.metrics.BeingsRetired.Inc() },
	})
	if err != nil {
		return nil, err
	}
	s.chat = chat.NewHandler(d, chat.Options{
		Beings:    s.beings,
		Local:     local,
		Relations: opts.Relations,
		Log:       opts.ChatLog,
		Shop:      opts.Shop,
		Sender:    s,
		Logger:    s.log.Named("chat"),
		Settings: chat.Settings{
			TradeBot:         cfg.TradeBot,
			ShowShopMessages: cfg.ShowShopMessages,
		},
	})
	s.dispatcher = dispatch.NewRegistry(s.log.Named("dispatch"))
	s.dispatcher.Observer = s.metrics.observe
	return s, nil
}

// register 建立本次连接的处理器表
func (s *Session) register() error {
	s.dispatcher.Reset()
	for _, h := range []dispatch.Handler{s.engine, s.chat} {
		if err := s.dispatcher.Register(h); err != nil {
			return err
		}
	}
	return nil
}

// Connect 建立连接并重建处理器注册表
func (s *Session) Connect(ctx context.Context) error {
	if s.connected {
		return nil
	}
	conn, err := s.dial(ctx, s.cfg.Server)
	if err != nil {
		return fmt.Errorf("connect %s: %w", s.cfg.Server, err)
	}
	if err := s.register(); err != nil {
		_ = conn.Close()
		return err
	}
	s.beings.Clear()
	s.chat.Reset()
	s.engine.Resume()
	s.conn = conn
	s.inbox = make(chan *protocol.MessageIn, 256)
	s.lost = make(chan error, 1)
	s.done = make(chan struct{})
	s.sendErr = nil
	s.connected = true
	go readPump(conn, protocol.NewFramer(s.dialect), s.inbox, s.lost, s.done)
	s.log.Infof("connected to %s", s.cfg.Server)
	return nil
}

func (s *Session) Connected() bool { return s.connected }

// Send 实现 protocol.Sender；写失败在本次 Tick 结束时断开
func (s *Session) Send(msg *protocol.MessageOut) error {
	if !s.connected {
		return ErrNotConnected
	}
	if _, err := s.conn.Write(msg.Bytes()); err != nil {
		if s.sendErr == nil {
			s.sendErr = err
		}
		return err
	}
	return nil
}

// Disconnect 拆除连接：清空私聊队列与处理器表，停止创建角色，提示一次
func (s *Session) Disconnect(reason error) {
	if !s.connected {
		return
	}
	s.connected = false
	close(s.done)
	_ = s.conn.Close()
	s.conn = nil
	s.chat.Reset()
	s.dispatcher.Reset()
	s.engine.Halt()
	s.metrics.Disconnects.Inc()
	s.metrics.WhisperQueue.Set(0)

	text := "disconnected"
	if reason != nil {
		text = reason.Error()
	}
	s.log.Warnf("connection lost: %s", text)
	if reason != nil {
		s.showNotice(text)
	}
}

// showNotice 提示处于激活状态时不重复提示
func (s *Session) showNotice(reason string) {
	if s.noticeActive || s.notifier == nil {
		return
	}
	s.noticeActive = true
	s.notifier.ConnectionLost(reason)
}

// AcknowledgeNotice 用户关闭提示后，下一次断线才会再次提示
func (s *Session) AcknowledgeNotice() { s.noticeActive = false }

func (s *Session) NoticeActive() bool { return s.noticeActive }

// Tick 逻辑线程的一帧：处理命令与调用，按到达顺序分发当前所有可用消息
func (s *Session) Tick() {
	start := time.Now()
	s.tickSeq++
	s.ProcessInputs()
	if s.connected {
		s.drain()
	}
	if s.connected && s.sendErr != nil {
		s.Disconnect(s.sendErr)
	}
	s.metrics.WhisperQueue.Set(float64(s.chat.Queue().Len()))
	s.metrics.TickSeconds.Observe(time.Since(start).Seconds())
}

func (s *Session) drain() {
	for {
		select {
		case msg := <-s.inbox:
			s.dispatcher.Dispatch(msg)
		default:
			// 读协程先入队全部消息再上报错误，所以看到错误时队列已完整
			select {
			case err := <-s.lost:
				s.drainRemaining()
				s.Disconnect(err)
			default:
			}
			return
		}
	}
}

func (s *Session) drainRemaining() {
	for {
		select {
		case msg := <-s.inbox:
			s.dispatcher.Dispatch(msg)
		default:
			return
		}
	}
}

// Do 在逻辑线程上执行 fn 并等待完成（供管理接口等其他协程使用）
// 返回错误时 fn 不会执行
func (s *Session) Do(ctx context.Context, fn func()) error {
	// 0 排队中，1 已开始执行，2 调用方已放弃
	var state atomic.Int32
	finished := make(chan struct{})
	call := func() {
		if !state.CompareAndSwap(0, 1) {
			return
		}
		fn()
		close(finished)
	}
	select {
	case s.calls <- call:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		if state.CompareAndSwap(0, 2) {
			return ctx.Err()
		}
		// 已在执行，等它完成，保证返回 nil 时 fn 一定生效
		<-finished
		return nil
	}
}

// Beings 角色注册表（只应在逻辑线程访问）
func (s *Session) Beings() *being.Memory { return s.beings }

func (s *Session) Engine() *being.Engine { return s.engine }

func (s *Session) Chat() *chat.Handler { return s.chat }

func (s *Session) Dispatcher() *dispatch.Registry { return s.dispatcher }

func (s *Session) Dialect() *dialect.Dialect { return s.dialect }

// TickSeq 已执行的 Tick 数
func (s *Session) TickSeq() int64 { return s.tickSeq }
