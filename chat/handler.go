package chat

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"manaclient/being"
	"manaclient/dialect"
	"manaclient/protocol"
	"manaclient/relation"
)

// ErrNotConnected 没有可用的发送端
var ErrNotConnected = errors.New("chat: not connected")

// 服务器在私聊前缀中使用的控制字符（U+0082）
const colorMark = "\u0082"

const serverNick = "Server"

// 私聊结果码
const (
	whisperOK      = 0
	whisperOffline = 1
	whisperIgnored = 2
)

// Options 聊天处理器的协作者；nil 字段使用空实现
type Options struct {
	Beings    being.Registry
	Local     being.LocalPlayer
	Relations relation.View
	Log       Log
	Shop      Shop
	Sender    protocol.Sender
	Logger    *zap.SugaredLogger
	Settings  Settings
}

// Handler 聊天、私聊、忽略消息的处理器，同时负责私聊结果的顺序配对
type Handler struct {
	d         *dialect.Dialect
	queue     WhisperQueue
	beings    being.Registry
	local     being.LocalPlayer
	relations relation.View
	chatLog   Log
	shop      Shop
	sender    protocol.Sender
	log       *zap.SugaredLogger
	settings  Settings
	handlers  map[uint16]func(*protocol.MessageIn) error
}

func NewHandler(d *dialect.Dialect, opts Options) *Handler {
	h := &Handler{
		d:         d,
		beings:    opts.Beings,
		local:     opts.Local,
		relations: opts.Relations,
		chatLog:   opts.Log,
		shop:      opts.Shop,
		sender:    opts.Sender,
		log:       opts.Logger,
		settings:  opts.Settings,
	}
	if h.beings == nil {
		h.beings = being.NewMemory()
	}
	if h.local == nil {
		h.local = being.NopLocal{}
	}
	if h.relations == nil {
		h.relations = relation.AllowAll{}
	}
	if h.chatLog == nil {
		h.chatLog = nopLog{}
	}
	if h.log == nil {
		h.log = zap.NewNop().Sugar()
	}
	all := map[uint16]func(*protocol.MessageIn) error{
		protocol.SmsgWhisper:           h.handleWhisper,
		protocol.SmsgWhisperResponse:   h.handleWhisperResponse,
		protocol.SmsgBeingChat:         func(m *protocol.MessageIn) error { return h.handleBeingChat(m, false) },
		protocol.SmsgPlayerChat:        h.handlePlayerChat,
		protocol.SmsgGmChat:            h.handleGmChat,
		protocol.SmsgMvp:               h.handleMvp,
		protocol.SmsgIgnoreAllResponse: h.handleIgnoreAllResponse,
	}
	if d.Caps.SpeechChannels {
		all[protocol.SmsgBeingChat2] = func(m *protocol.MessageIn) error { return h.handleBeingChat(m, true) }
	}
	h.handlers = make(map[uint16]func(*protocol.MessageIn) error, len(all))
	for op, fn := range all {
		if d.Supports(op) {
			h.handlers[op] = fn
		}
	}
	return h
}

func (h *Handler) Name() string { return "chat/" + h.d.Name }

func (h *Handler) Opcodes() []uint16 {
	ops := make([]uint16, 0, len(h.handlers))
	for op := range h.handlers {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

func (h *Handler) Handle(msg *protocol.MessageIn) error {
	fn, ok := h.handlers[msg.ID()]
	if !ok {
		return fmt.Errorf("chat: opcode 0x%04x not handled", msg.ID())
	}
	return fn(msg)
}

// Queue 私聊配对队列
func (h *Handler) Queue() *WhisperQueue { return &h.queue }

func (h *Handler) Settings() Settings { return h.settings }

// SetSettings 热更新开关（在逻辑线程调用）
func (h *Handler) SetSettings(s Settings) { h.settings = s }

// Reset 断线：清空私聊队列
func (h *Handler) Reset() { h.queue.Reset() }

func (h *Handler) send(out *protocol.MessageOut) error {
	if h.sender == nil {
		return ErrNotConnected
	}
	return h.sender.Send(out)
}

// Whisper 先把目标压入队列，再发送私聊请求
// 未连接时请求没有发出，撤销入队；写失败的连接随后会被拆除并清空队列
func (h *Handler) Whisper(nick, text string) error {
	h.queue.Push(nick)
	out := protocol.NewVariableMessageOut(protocol.CmsgChatWhisper)
	out.WriteString(nick, 24)
	out.WriteRawString(text)
	err := h.send(out)
	if errors.Is(err, ErrNotConnected) {
		h.queue.DropBack()
	}
	return err
}

// Talk 公共频道说话，格式 "名字 : 内容" 以 NUL 结尾
func (h *Handler) Talk(text string) error {
	out := protocol.NewVariableMessageOut(protocol.CmsgChatMessage)
	out.WriteRawString(h.local.Name() + " : " + text)
	out.WriteUint8(0)
	return h.send(out)
}

// IgnoreAll 忽略/取消忽略所有私聊
func (h *Handler) IgnoreAll(ignore bool) error {
	out := protocol.NewMessageOut(protocol.CmsgIgnoreAll)
	if ignore {
		out.WriteUint8(0)
	} else {
		out.WriteUint8(1)
	}
	return h.send(out)
}

func (h *Handler) handleWhisperResponse(msg *protocol.MessageIn) error {
	code := msg.ReadUint8()
	if err := msg.Err(); err != nil {
		return err
	}
	nick, ok := h.queue.PopFront()
	if !ok {
		nick = PlaceholderName
	}
	switch code {
	case whisperOK:
	case whisperOffline:
		h.chatLog.AddWhisper(nick, fmt.Sprintf("Whisper could not be sent, %s is offline.", nick), OwnServer)
	case whisperIgnored:
		h.chatLog.AddWhisper(nick, fmt.Sprintf("Whisper could not be sent, ignored by %s.", nick), OwnServer)
	default:
		h.log.Infof("unknown whisper result %d for %s", code, nick)
	}
	return nil
}

// 私聊中的商店命令前缀
const (
	cmdSellList = "!selllist "
	cmdBuyList  = "!buylist "
	cmdBuyItem  = "!buyitem "
	cmdSellItem = "!sellitem "
)

func (h *Handler) handleWhisper(msg *protocol.MessageIn) error {
	n := msg.ReadPayloadLength(28)
	nick := msg.ReadString(24)
	text := msg.ReadRawString(n)
	if err := msg.Err(); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	text = strings.TrimRight(text, "\x00")
	// 以控制字符 + G/A 开头的是客户端不认识的扩展消息
	if strings.HasPrefix(text, colorMark+"G") || strings.HasPrefix(text, colorMark+"A") {
		return nil
	}
	text = strings.TrimPrefix(text, colorMark)

	if nick == serverNick {
		h.chatLog.Add(text, OwnServer, "")
		return nil
	}
	if !h.relations.HasPermission(nick, relation.Whisper) {
		return nil
	}
	h.routeWhisper(nick, text)
	return nil
}

// routeWhisper 交易机器人开关决定是否处理商店命令，显示开关独立决定是否显示
func (h *Handler) routeWhisper(nick, text string) {
	tradeBot := h.settings.TradeBot
	show := h.settings.ShowShopMessages

	if !h.relations.HasPermission(nick, relation.Trade) {
		if show || (!strings.HasPrefix(text, strings.TrimSpace(cmdSellList)) &&
			!strings.HasPrefix(text, strings.TrimSpace(cmdBuyList))) {
			h.chatLog.AddWhisper(nick, text, OwnWhisper)
		}
		return
	}
	if h.shop == nil {
		h.chatLog.AddWhisper(nick, text, OwnWhisper)
		return
	}

	switch {
	case strings.HasPrefix(text, cmdSellList), strings.HasPrefix(text, cmdBuyList):
		if !tradeBot {
			return
		}
		if show {
			h.chatLog.AddWhisper(nick, text, OwnWhisper)
		}
		mode := ShopSell
		if strings.HasPrefix(text, cmdBuyList) {
			mode = ShopBuy
		}
		h.shop.GiveList(nick, mode)
	case strings.HasPrefix(text, cmdBuyItem), strings.HasPrefix(text, cmdSellItem):
		if show {
			h.chatLog.AddWhisper(nick, text, OwnWhisper)
		}
		if !tradeBot {
			return
		}
		mode := ShopBuy
		if strings.HasPrefix(text, cmdSellItem) {
			mode = ShopSell
		}
		h.shop.ProcessRequest(nick, text, mode)
	default:
		h.chatLog.AddWhisper(nick, text, OwnWhisper)
	}
}

func (h *Handler) handleBeingChat(msg *protocol.MessageIn, channels bool) error {
	header := 8
	if channels {
		header += 3
	}
	n := msg.ReadPayloadLength(header)
	id := being.ActorID(msg.ReadUint32())
	channel := ""
	if channels {
		channel = msg.ReadString(3)
	}
	text := msg.ReadRawString(n)
	if err := msg.Err(); err != nil {
		return err
	}
	b, ok := h.beings.Find(id)
	if !ok || n == 0 {
		return nil
	}
	text = strings.TrimRight(text, "\x00")

	sender := ""
	pos := strings.Index(text, " : ")
	if pos >= 0 {
		sender = text[:pos]
	}
	if sender != b.Name && b.Kind == being.KindPlayer {
		if b.Name != "" {
			sender = b.Name
		}
	} else if pos >= 0 {
		text = text[pos+3:]
	}
	text = strings.TrimSpace(text)

	if h.relations.HasPermission(sender, relation.SpeechLog) {
		h.chatLog.Add(sender+" : "+text, OwnOther, channel)
	}
	if h.relations.HasPermission(sender, relation.SpeechFloat) {
		b.Speech = text
		b.SpeechChannel = channel
	}
	return nil
}

func (h *Handler) handlePlayerChat(msg *protocol.MessageIn) error {
	n := msg.ReadPayloadLength(4)
	text := msg.ReadRawString(n)
	if err := msg.Err(); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	text = strings.TrimRight(text, "\x00")
	h.chatLog.Add(text, OwnPlayer, "")
	if pos := strings.Index(text, " : "); pos >= 0 {
		text = text[pos+3:]
	}
	if b, ok := h.beings.Find(h.local.ID()); ok {
		b.Speech = strings.TrimSpace(text)
		b.SpeechChannel = ""
	}
	return nil
}

func (h *Handler) handleGmChat(msg *protocol.MessageIn) error {
	n := msg.ReadPayloadLength(4)
	text := msg.ReadRawString(n)
	if err := msg.Err(); err != nil {
		return err
	}
	if n > 0 {
		h.chatLog.Add(strings.TrimRight(text, "\x00"), OwnGM, "")
	}
	return nil
}

func (h *Handler) handleMvp(msg *protocol.MessageIn) error {
	id := being.ActorID(msg.ReadUint32())
	if err := msg.Err(); err != nil {
		return err
	}
	if b, ok := h.beings.Find(id); ok {
		h.chatLog.Add("MVP player: "+b.Name, OwnServer, "")
	}
	return nil
}

func (h *Handler) handleIgnoreAllResponse(msg *protocol.MessageIn) error {
	kind := msg.ReadUint8()
	fail := msg.ReadUint8()
	if err := msg.Err(); err != nil {
		return err
	}
	var text string
	switch {
	case kind == 0 && fail == 0:
		text = "All whispers ignored."
	case kind == 0:
		text = "All whispers ignore failed."
	case kind == 1 && fail == 0:
		text = "All whispers unignored."
	case kind == 1:
		text = "All whispers unignore failed."
	default:
		h.log.Infof("unknown ignore all response type %d", kind)
		return nil
	}
	h.chatLog.Add(text, OwnServer, "")
	return nil
}
