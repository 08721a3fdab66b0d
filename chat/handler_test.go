package chat

import (
	"errors"
	"testing"

	"manaclient/being"
	"manaclient/dialect"
	"manaclient/protocol"
	"manaclient/relation"
)

type line struct {
	nick    string
	text    string
	own     Own
	channel string
}

type recordLog struct {
	lines []line
}

func (l *recordLog) AddWhisper(nick, text string, own Own) {
	l.lines = append(l.lines, line{nick: nick, text: text, own: own})
}

func (l *recordLog) Add(text string, own Own, channel string) {
	l.lines = append(l.lines, line{text: text, own: own, channel: channel})
}

type shopCall struct {
	nick string
	text string
	mode ShopMode
	list bool
}

type recordShop struct {
	calls []shopCall
}

func (s *recordShop) GiveList(nick string, mode ShopMode) {
	s.calls = append(s.calls, shopCall{nick: nick, mode: mode, list: true})
}

func (s *recordShop) ProcessRequest(nick, text string, mode ShopMode) {
	s.calls = append(s.calls, shopCall{nick: nick, text: text, mode: mode})
}

type recordSender struct {
	sent []*protocol.MessageOut
	err  error
}

func (s *recordSender) Send(msg *protocol.MessageOut) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type localPlayer struct {
	being.NopLocal
	id   being.ActorID
	name string
}

func (l localPlayer) ID() being.ActorID { return l.id }
func (l localPlayer) Name() string      { return l.name }

type fixture struct {
	h      *Handler
	log    *recordLog
	shop   *recordShop
	sender *recordSender
	beings *being.Memory
}

func newFixture(t *testing.T, d *dialect.Dialect, opts Options) *fixture {
	t.Helper()
	f := &fixture{log: &recordLog{}, shop: &recordShop{}, sender: &recordSender{}, beings: being.NewMemory()}
	opts.Log = f.log
	opts.Shop = f.shop
	opts.Sender = f.sender
	opts.Beings = f.beings
	if opts.Local == nil {
		opts.Local = localPlayer{id: 2000000, name: "Me"}
	}
	f.h = NewHandler(d, opts)
	return f
}

func (f *fixture) feed(t *testing.T, out *protocol.MessageOut) {
	t.Helper()
	msg, err := protocol.NewMessageIn(out.Bytes())
	if err != nil {
		t.Fatalf("NewMessageIn: %v", err)
	}
	if err := f.h.Handle(msg); err != nil {
		t.Fatalf("handle 0x%04x: %v", msg.ID(), err)
	}
}

func whisperResult(code uint8) *protocol.MessageOut {
	out := protocol.NewMessageOut(protocol.SmsgWhisperResponse)
	out.WriteUint8(code)
	return out
}

func incomingWhisper(nick, text string) *protocol.MessageOut {
	out := protocol.NewVariableMessageOut(protocol.SmsgWhisper)
	out.WriteString(nick, 24)
	out.WriteRawString(text)
	out.WriteUint8(0)
	return out
}

func TestWhisperResultsAttributedInOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t, dialect.TMWA, Options{})
	if err := f.h.Whisper("Alice", "hi"); err != nil {
		t.Fatalf("whisper: %v", err)
	}
	if err := f.h.Whisper("Bob", "yo"); err != nil {
		t.Fatalf("whisper: %v", err)
	}
	if f.h.Queue().Len() != 2 {
		t.Fatalf("expected 2 queued whispers, got %d", f.h.Queue().Len())
	}

	f.feed(t, whisperResult(whisperOffline))
	f.feed(t, whisperResult(whisperIgnored))

	if len(f.log.lines) != 2 {
		t.Fatalf("expected 2 lines, got %+v", f.log.lines)
	}
	if f.log.lines[0].text != "Whisper could not be sent, Alice is offline." {
		t.Fatalf("unexpected first line %q", f.log.lines[0].text)
	}
	if f.log.lines[1].text != "Whisper could not be sent, ignored by Bob." {
		t.Fatalf("unexpected second line %q", f.log.lines[1].text)
	}
	if f.h.Queue().Len() != 0 {
		t.Fatalf("queue should be drained")
	}
}

func TestWhisperResultWithEmptyQueueUsesPlaceholder(t *testing.T) {
	t.Parallel()

	f := newFixture(t, dialect.TMWA, Options{})
	f.feed(t, whisperResult(whisperOffline))
	if len(f.log.lines) != 1 || f.log.lines[0].nick != PlaceholderName {
		t.Fatalf("expected placeholder attribution, got %+v", f.log.lines)
	}

	// 成功结果也要出队，但不显示
	_ = f.h.Whisper("Alice", "hi")
	f.feed(t, whisperResult(whisperOK))
	if f.h.Queue().Len() != 0 || len(f.log.lines) != 1 {
		t.Fatalf("success should pop silently, queue %d lines %d", f.h.Queue().Len(), len(f.log.lines))
	}
}

func TestWhisperWireFormat(t *testing.T) {
	t.Parallel()

	f := newFixture(t, dialect.TMWA, Options{})
	_ = f.h.Whisper("Alice", "hello")
	if len(f.sender.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(f.sender.sent))
	}
	msg, _ := protocol.NewMessageIn(f.sender.sent[0].Bytes())
	if msg.ID() != protocol.CmsgChatWhisper {
		t.Fatalf("unexpected opcode 0x%04x", msg.ID())
	}
	n := msg.ReadPayloadLength(28)
	if nick := msg.ReadString(24); nick != "Alice" {
		t.Fatalf("expected Alice, got %q", nick)
	}
	if text := msg.ReadRawString(n); text != "hello" {
		t.Fatalf("expected hello, got %q", text)
	}
}

func TestWhisperNotQueuedWhenDisconnected(t *testing.T) {
	t.Parallel()

	f := newFixture(t, dialect.TMWA, Options{})
	_ = f.h.Whisper("Alice", "hi")
	f.sender.err = ErrNotConnected
	if err := f.h.Whisper("Ghost", "hi"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
	if f.h.Queue().Len() != 1 {
		t.Fatalf("expected only Alice queued, got %d", f.h.Queue().Len())
	}
	if name, _ := f.h.Queue().PopFront(); name != "Alice" {
		t.Fatalf("expected Alice, got %q", name)
	}
}

func TestWhisperQueuedWhenWriteFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t, dialect.TMWA, Options{})
	f.sender.err = errors.New("broken pipe")
	if err := f.h.Whisper("Alice", "hi"); err == nil {
		t.Fatalf("expected send error")
	}
	// 部分写出的请求可能已到达服务器；断线时由 Reset 清空
	if f.h.Queue().Len() != 1 {
		t.Fatalf("target is queued before sending")
	}
	f.h.Reset()
	if f.h.Queue().Len() != 0 {
		t.Fatalf("reset should clear the queue")
	}
}

func TestTalkAndIgnoreAll(t *testing.T) {
	t.Parallel()

	f := newFixture(t, dialect.TMWA, Options{})
	_ = f.h.Talk("hello")
	_ = f.h.IgnoreAll(true)
	_ = f.h.IgnoreAll(false)

	msg, _ := protocol.NewMessageIn(f.sender.sent[0].Bytes())
	n := msg.ReadPayloadLength(4)
	if text := msg.ReadRawString(n); text != "Me : hello\x00" {
		t.Fatalf("unexpected talk payload %q", text)
	}
	for i, want := range []uint8{0, 1} {
		m, _ := protocol.NewMessageIn(f.sender.sent[i+1].Bytes())
		if m.ID() != protocol.CmsgIgnoreAll || m.ReadUint8() != want {
			t.Fatalf("ignore all message %d should carry %d", i, want)
		}
	}

	h := NewHandler(dialect.TMWA, Options{})
	if err := h.Talk("x"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestIncomingWhisperFiltering(t *testing.T) {
	t.Parallel()

	rel := relation.NewTable(map[string]relation.Kind{"Mallory": relation.Ignored}, relation.Default)
	f := newFixture(t, dialect.TMWA, Options{Relations: rel})

	f.feed(t, incomingWhisper("Alice", "\u0082Ghidden"))
	f.feed(t, incomingWhisper("Alice", "\u0082Ahidden"))
	f.feed(t, incomingWhisper("Mallory", "spam"))
	f.feed(t, incomingWhisper("Server", "maintenance soon"))
	f.feed(t, incomingWhisper("Alice", "\u0082hello"))

	if len(f.log.lines) != 2 {
		t.Fatalf("expected 2 lines, got %+v", f.log.lines)
	}
	if l := f.log.lines[0]; l.own != OwnServer || l.text != "maintenance soon" {
		t.Fatalf("server whisper should be a server line, got %+v", l)
	}
	if l := f.log.lines[1]; l.own != OwnWhisper || l.nick != "Alice" || l.text != "hello" {
		t.Fatalf("expected stripped whisper from Alice, got %+v", l)
	}
}

func TestTradeBotRouting(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		settings  Settings
		text      string
		wantShown bool
		wantShop  int
	}{
		{"list with bot and show", Settings{TradeBot: true, ShowShopMessages: true}, "!selllist please", true, 1},
		{"list with bot hidden", Settings{TradeBot: true}, "!buylist please", false, 1},
		{"list without bot", Settings{ShowShopMessages: true}, "!selllist please", false, 0},
		{"item without bot shown", Settings{ShowShopMessages: true}, "!buyitem 1 2 3", true, 0},
		{"item with bot hidden", Settings{TradeBot: true}, "!sellitem 1 2 3", false, 1},
		{"plain text", Settings{}, "hello", true, 0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, dialect.TMWA, Options{Settings: tc.settings})
			f.feed(t, incomingWhisper("Alice", tc.text))
			if shown := len(f.log.lines) == 1; shown != tc.wantShown {
				t.Fatalf("expected shown=%t, lines %+v", tc.wantShown, f.log.lines)
			}
			if len(f.shop.calls) != tc.wantShop {
				t.Fatalf("expected %d shop calls, got %+v", tc.wantShop, f.shop.calls)
			}
		})
	}
}

func TestTradeBotModes(t *testing.T) {
	t.Parallel()

	f := newFixture(t, dialect.TMWA, Options{Settings: Settings{TradeBot: true}})
	f.feed(t, incomingWhisper("Alice", "!buylist x"))
	f.feed(t, incomingWhisper("Alice", "!sellitem 5 1 10"))

	if len(f.shop.calls) != 2 {
		t.Fatalf("expected 2 shop calls, got %+v", f.shop.calls)
	}
	if c := f.shop.calls[0]; !c.list || c.mode != ShopBuy {
		t.Fatalf("expected buy list, got %+v", c)
	}
	if c := f.shop.calls[1]; c.list || c.mode != ShopSell || c.text != "!sellitem 5 1 10" {
		t.Fatalf("expected sell request, got %+v", c)
	}
}

func TestBeingChatSetsSpeech(t *testing.T) {
	t.Parallel()

	f := newFixture(t, dialect.TMWA, Options{})
	b := f.beings.Create(150000, 1)
	b.Name = "Alice"

	out := protocol.NewVariableMessageOut(protocol.SmsgBeingChat)
	out.WriteUint32(150000)
	out.WriteRawString("Alice : hello there\x00")
	f.feed(t, out)

	if b.Speech != "hello there" {
		t.Fatalf("expected speech, got %q", b.Speech)
	}
	if len(f.log.lines) != 1 || f.log.lines[0].text != "Alice : hello there" {
		t.Fatalf("unexpected log %+v", f.log.lines)
	}

	// 未知角色忽略
	unknown := protocol.NewVariableMessageOut(protocol.SmsgBeingChat)
	unknown.WriteUint32(999)
	unknown.WriteRawString("Eve : boo\x00")
	f.feed(t, unknown)
	if len(f.log.lines) != 1 {
		t.Fatalf("unknown sender should be ignored")
	}
}

func TestBeingChatUsesKnownPlayerName(t *testing.T) {
	t.Parallel()

	f := newFixture(t, dialect.TMWA, Options{})
	b := f.beings.Create(150000, 1)
	b.Name = "Alice"

	// 文本里冒充其他名字时仍以角色名字为准
	out := protocol.NewVariableMessageOut(protocol.SmsgBeingChat)
	out.WriteUint32(150000)
	out.WriteRawString("GM : free items\x00")
	f.feed(t, out)
	if len(f.log.lines) != 1 || f.log.lines[0].text != "Alice : GM : free items" {
		t.Fatalf("unexpected log %+v", f.log.lines)
	}
}

func TestBeingChatPermissions(t *testing.T) {
	t.Parallel()

	rel := relation.NewTable(map[string]relation.Kind{"Dave": relation.Disregarded}, relation.Default)
	f := newFixture(t, dialect.TMWA, Options{Relations: rel})
	b := f.beings.Create(150000, 1)
	b.Name = "Dave"

	out := protocol.NewVariableMessageOut(protocol.SmsgBeingChat)
	out.WriteUint32(150000)
	out.WriteRawString("Dave : hi\x00")
	f.feed(t, out)

	if len(f.log.lines) != 0 {
		t.Fatalf("disregarded speech must not be logged")
	}
	if b.Speech != "hi" {
		t.Fatalf("disregarded speech still floats, got %q", b.Speech)
	}
}

func TestBeingChatWithChannel(t *testing.T) {
	t.Parallel()

	f := newFixture(t, dialect.TMWA, Options{})
	b := f.beings.Create(150000, 1)
	b.Name = "Alice"

	out := protocol.NewVariableMessageOut(protocol.SmsgBeingChat2)
	out.WriteUint32(150000)
	out.WriteString("#a", 3)
	out.WriteRawString("Alice : hi\x00")
	f.feed(t, out)

	if b.SpeechChannel != "#a" || b.Speech != "hi" {
		t.Fatalf("unexpected speech %q channel %q", b.Speech, b.SpeechChannel)
	}
	if f.log.lines[0].channel != "#a" {
		t.Fatalf("log line should carry the channel, got %+v", f.log.lines[0])
	}
}

func TestChannelSpeechOnlyOnTmwa(t *testing.T) {
	t.Parallel()

	tm := NewHandler(dialect.TMWA, Options{})
	ea := NewHandler(dialect.EAthena, Options{})
	contains := func(ops []uint16, op uint16) bool {
		for _, o := range ops {
			if o == op {
				return true
			}
		}
		return false
	}
	if !contains(tm.Opcodes(), protocol.SmsgBeingChat2) {
		t.Fatalf("tmwa should handle channel speech")
	}
	if contains(ea.Opcodes(), protocol.SmsgBeingChat2) {
		t.Fatalf("eathena must not claim channel speech")
	}
}

func TestPlayerChatAndMvp(t *testing.T) {
	t.Parallel()

	f := newFixture(t, dialect.TMWA, Options{})
	me := f.beings.Create(2000000, 1)
	hero := f.beings.Create(150000, 1)
	hero.Name = "Hero"

	out := protocol.NewVariableMessageOut(protocol.SmsgPlayerChat)
	out.WriteRawString("Me : hi all\x00")
	f.feed(t, out)
	if me.Speech != "hi all" {
		t.Fatalf("local speech should be set, got %q", me.Speech)
	}

	mvp := protocol.NewMessageOut(protocol.SmsgMvp)
	mvp.WriteUint32(150000)
	f.feed(t, mvp)

	last := f.log.lines[len(f.log.lines)-1]
	if last.text != "MVP player: Hero" || last.own != OwnServer {
		t.Fatalf("unexpected mvp line %+v", last)
	}
}

func TestIgnoreAllResponseTexts(t *testing.T) {
	t.Parallel()

	f := newFixture(t, dialect.TMWA, Options{})
	for _, tc := range []struct {
		kind, fail uint8
		want       string
	}{
		{0, 0, "All whispers ignored."},
		{0, 1, "All whispers ignore failed."},
		{1, 0, "All whispers unignored."},
		{1, 1, "All whispers unignore failed."},
	} {
		out := protocol.NewMessageOut(protocol.SmsgIgnoreAllResponse)
		out.WriteUint8(tc.kind)
		out.WriteUint8(tc.fail)
		f.feed(t, out)
		if got := f.log.lines[len(f.log.lines)-1].text; got != tc.want {
			t.Fatalf("type %d fail %d: expected %q, got %q", tc.kind, tc.fail, tc.want, got)
		}
	}
}
