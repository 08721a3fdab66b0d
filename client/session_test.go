package client

import (
	"bytes"
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"

	"manaclient/being"
	"manaclient/chat"
	"manaclient/dialect"
	"manaclient/protocol"
)

// pipeDialer 每次拨号创建一对内存连接，服务端一侧交给测试
type pipeDialer struct {
	mu      sync.Mutex
	servers []net.Conn
}

func (p *pipeDialer) dial(context.Context, string) (io.ReadWriteCloser, error) {
	client, server := net.Pipe()
	p.mu.Lock()
	p.servers = append(p.servers, server)
	p.mu.Unlock()
	go func() { _, _ = io.Copy(io.Discard, server) }()
	return client, nil
}

func (p *pipeDialer) last() net.Conn {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.servers[len(p.servers)-1]
}

type countingNotifier struct {
	reasons []string
}

func (n *countingNotifier) ConnectionLost(reason string) { n.reasons = append(n.reasons, reason) }

func newTestSession(t *testing.T, dialer *pipeDialer, notifier Notifier) (*Session, *SessionMetrics) {
	t.Helper()
	metrics := NewSessionMetrics(prometheus.NewRegistry())
	s, err := NewSession(Config{Server: "tcp://game:5122", Dialect: "tmwa", Character: "Me"}, Options{
		Dial:     dialer.dial,
		Notifier: notifier,
		Metrics:  metrics,
		Logger:   zaptest.NewLogger(t).Sugar(),
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s, metrics
}

// tickUntil 推进 Tick 直到条件成立
func tickUntil(t *testing.T, s *Session, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		s.Tick()
		time.Sleep(time.Millisecond)
	}
}

func visibleBytes(id being.ActorID) []byte {
	return being.EncodeAppearance(being.UpdateRecord{
		Shape: being.ShapeVisible,
		ID:    id,
		Class: 1,
		Speed: 150,
		X:     10,
		Y:     12,
	}).Bytes()
}

func nameBytes(id being.ActorID, name string) []byte {
	out := protocol.NewMessageOut(protocol.SmsgBeingNameResponse)
	out.WriteUint32(uint32(id))
	out.WriteString(name, 24)
	return out.Bytes()
}

// scriptedConn 读完预置字节后返回 EOF，写入的字节被记录
type scriptedConn struct {
	r       *bytes.Reader
	mu      sync.Mutex
	written bytes.Buffer
}

func (c *scriptedConn) Read(p []byte) (int, error) { return c.r.Read(p) }

func (c *scriptedConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written.Write(p)
}

func (c *scriptedConn) Close() error { return nil }

func (c *scriptedConn) opcodes() []uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	f := protocol.NewFramer(dialect.TMWA)
	_, _ = f.Write(c.written.Bytes())
	var ops []uint16
	for {
		msg, err := f.Next()
		if err != nil || msg == nil {
			return ops
		}
		ops = append(ops, msg.ID())
	}
}

func TestSessionDispatchesEverythingBeforeLoss(t *testing.T) {
	t.Parallel()

	conn := &scriptedConn{r: bytes.NewReader(append(visibleBytes(150000), nameBytes(150000, "Alice")...))}
	notifier := &countingNotifier{}
	metrics := NewSessionMetrics(prometheus.NewRegistry())
	s, err := NewSession(Config{Server: "tcp://game:5122", Dialect: "tmwa", Character: "Me"}, Options{
		Dial:     func(context.Context, string) (io.ReadWriteCloser, error) { return conn, nil },
		Notifier: notifier,
		Metrics:  metrics,
		Logger:   zaptest.NewLogger(t).Sugar(),
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	s.OnInput(Command{Type: CmdWhisper, Nick: "Bob", Text: "hi"})
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if s.Dispatcher().Len() == 0 {
		t.Fatalf("connect should register handlers")
	}
	tickUntil(t, s, "disconnect", func() bool { return !s.Connected() })

	b, ok := s.Beings().Find(150000)
	if !ok || b.Name != "Alice" {
		t.Fatalf("messages before the loss should be applied, got %+v", b)
	}
	ops := conn.opcodes()
	if len(ops) != 2 || ops[0] != protocol.CmsgChatWhisper || ops[1] != protocol.CmsgNameRequest {
		t.Fatalf("expected whisper then name request, got %v", ops)
	}
	if s.Chat().Queue().Len() != 0 {
		t.Fatalf("whisper queue should be cleared on disconnect")
	}
	if s.Dispatcher().Len() != 0 {
		t.Fatalf("handler registry should be cleared on disconnect")
	}
	if !s.Engine().Halted() {
		t.Fatalf("engine should stop creating beings")
	}
	if len(notifier.reasons) != 1 {
		t.Fatalf("expected one notice, got %v", notifier.reasons)
	}
	if got := testutil.ToFloat64(metrics.Disconnects); got != 1 {
		t.Fatalf("expected 1 disconnect, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Messages.WithLabelValues("handled")); got != 2 {
		t.Fatalf("expected 2 handled messages, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.BeingsCreated); got != 1 {
		t.Fatalf("expected 1 created being, got %v", got)
	}
}

// whisperLog 记录私聊提示行
type whisperLog struct {
	lines []string
}

func (l *whisperLog) AddWhisper(nick, text string, own chat.Own) { l.lines = append(l.lines, text) }
func (l *whisperLog) Add(string, chat.Own, string) {}

func TestSessionWhisperWhileDisconnectedDoesNotShiftResults(t *testing.T) {
	t.Parallel()

	result := protocol.NewMessageOut(protocol.SmsgWhisperResponse)
	result.WriteUint8(1)
	conn := &scriptedConn{r: bytes.NewReader(result.Bytes())}
	chatLog := &whisperLog{}
	s, err := NewSession(Config{Server: "tcp://game:5122", Dialect: "tmwa", Character: "Me"}, Options{
		Dial:    func(context.Context, string) (io.ReadWriteCloser, error) { return conn, nil },
		ChatLog: chatLog,
		Metrics: NewSessionMetrics(prometheus.NewRegistry()),
		Logger:  zaptest.NewLogger(t).Sugar(),
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	s.OnInput(Command{Type: CmdWhisper, Nick: "Ghost", Text: "anyone?"})
	s.Tick()
	if n := s.Chat().Queue().Len(); n != 0 {
		t.Fatalf("unsent whisper must not be queued, got %d", n)
	}

	s.OnInput(Command{Type: CmdWhisper, Nick: "Bob", Text: "hi"})
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	tickUntil(t, s, "disconnect", func() bool { return !s.Connected() })

	if len(chatLog.lines) != 1 || chatLog.lines[0] != "Whisper could not be sent, Bob is offline." {
		t.Fatalf("expected the result attributed to Bob, got %v", chatLog.lines)
	}
}

func TestSessionConnectClearsWhisperQueue(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, &pipeDialer{}, nil)
	s.Chat().Queue().Push("Stale")
	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Disconnect(nil)
	if n := s.Chat().Queue().Len(); n != 0 {
		t.Fatalf("connect should start with an empty whisper queue, got %d", n)
	}
}

func TestSessionNoticeShownOnce(t *testing.T) {
	t.Parallel()

	dialer := &pipeDialer{}
	notifier := &countingNotifier{}
	s, _ := newTestSession(t, dialer, notifier)

	lose := func() {
		t.Helper()
		if err := s.Connect(context.Background()); err != nil {
			t.Fatalf("connect: %v", err)
		}
		if s.Engine().Halted() || s.Dispatcher().Len() == 0 {
			t.Fatalf("reconnect should resume the engine and rebuild handlers")
		}
		_ = dialer.last().Close()
		tickUntil(t, s, "disconnect", func() bool { return !s.Connected() })
	}

	lose()
	lose()
	if len(notifier.reasons) != 1 {
		t.Fatalf("second loss while the notice is active must be suppressed, got %v", notifier.reasons)
	}
	if !s.NoticeActive() {
		t.Fatalf("notice should still be active")
	}

	s.AcknowledgeNotice()
	lose()
	if len(notifier.reasons) != 2 {
		t.Fatalf("expected a new notice after acknowledging, got %v", notifier.reasons)
	}
}

func TestSessionConnectClearsBeings(t *testing.T) {
	t.Parallel()

	dialer := &pipeDialer{}
	s, _ := newTestSession(t, dialer, nil)
	s.Beings().Create(42, 1)

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if s.Beings().Len() != 0 {
		t.Fatalf("connect should start with an empty registry")
	}
	s.Disconnect(nil)
	if s.Connected() {
		t.Fatalf("expected disconnected")
	}
	// 重复断开无副作用
	s.Disconnect(nil)
}

func TestSessionSendWithoutConnection(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, &pipeDialer{}, nil)
	if err := s.Send(protocol.NewMessageOut(protocol.CmsgIgnoreAll)); err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestSessionDoRunsOnTickThread(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, &pipeDialer{}, nil)
	done := make(chan error, 1)
	ran := false
	go func() {
		done <- s.Do(context.Background(), func() { ran = true })
	}()
	deadline := time.Now().Add(2 * time.Second)
	for {
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("Do: %v", err)
			}
			if !ran {
				t.Fatalf("fn should have run")
			}
			return
		default:
		}
		if time.Now().After(deadline) {
			t.Fatalf("Do did not complete")
		}
		s.Tick()
		time.Sleep(time.Millisecond)
	}
}

func TestSessionDoHonoursContext(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, &pipeDialer{}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := s.Do(ctx, func() {}); err != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestSessionDoAbandonedCallDoesNotRun(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, &pipeDialer{}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	ran := false
	if err := s.Do(ctx, func() { ran = true }); err != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	s.Tick()
	if ran {
		t.Fatalf("a call the caller gave up on must not run")
	}
}

func TestUnknownDialectRejected(t *testing.T) {
	t.Parallel()

	if _, err := NewSession(Config{Server: "tcp://x:1", Dialect: "manaserv"}, Options{}); err == nil {
		t.Fatalf("expected error for unknown dialect")
	}
}
