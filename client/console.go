package client

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"manaclient/being"
	"manaclient/chat"
)

// Character 控制台模式下的本地角色：只记名字与目标，不做模仿
type Character struct {
	id       being.ActorID
	name     string
	target   being.ActorID
	imitated string
}

func NewCharacter(name string) *Character { return &Character{name: name} }

func (c *Character) ID() being.ActorID { return c.id }
func (c *Character) SetID(id being.ActorID) { c.id = id }
func (c *Character) Name() string { return c.name }
func (c *Character) Target() being.ActorID { return c.target }
func (c *Character) SetTarget(id being.ActorID) { c.target = id }
func (c *Character) StopAttack() { c.target = 0 }
func (c *Character) FixAttackTarget() {}
func (c *Character) Imitated() string { return c.imitated }
func (c *Character) Imitate(name string) { c.imitated = name }

func (c *Character) ImitateAction(*being.Being, being.Action) {}
func (c *Character) ImitateDirection(*being.Being, being.Direction) {}
func (c *Character) ImitateOutfit(*being.Being, being.Slot) {}
func (c *Character) ImitateEmote(*being.Being, uint8) {}

// ConsoleLog 把聊天行写到终端
type ConsoleLog struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsoleLog(w io.Writer) *ConsoleLog { return &ConsoleLog{w: w} }

func (l *ConsoleLog) AddWhisper(nick, text string, own chat.Own) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if own == chat.OwnPlayer {
		fmt.Fprintf(l.w, "[to %s] %s\n", nick, text)
		return
	}
	fmt.Fprintf(l.w, "[%s] %s\n", nick, text)
}

func (l *ConsoleLog) Add(text string, own chat.Own, channel string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case own == chat.OwnServer:
		fmt.Fprintf(l.w, "* %s\n", text)
	case own == chat.OwnGM:
		fmt.Fprintf(l.w, "GM: %s\n", text)
	case channel != "":
		fmt.Fprintf(l.w, "#%s %s\n", channel, text)
	default:
		fmt.Fprintln(l.w, text)
	}
}

// ConnectionLost 实现 Notifier
func (l *ConsoleLog) ConnectionLost(reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "*** connection lost: %s\n", reason)
}

// logPresenter 没有图形界面时把一次性事件写入 debug 日志
type logPresenter struct {
	log *zap.SugaredLogger
}

func (p logPresenter) Damage(src, dst *being.Being, amount int, hit being.HitType) {
	p.log.Debugw("damage", "src", beingID(src), "dst", beingID(dst), "amount", amount, "hit", hit)
}

func (p logPresenter) Effect(b *being.Being, effect int) {
	p.log.Debugw("effect", "being", beingID(b), "effect", effect)
}

func (p logPresenter) Emote(b *being.Being, emote uint8) {
	p.log.Debugw("emote", "being", beingID(b), "emote", emote)
}

func (p logPresenter) Cast(src *being.Being, target being.ActorID, x, y uint16, skill uint16, castTime int) {
	p.log.Debugw("cast", "src", beingID(src), "target", target, "x", x, "y", y, "skill", skill, "time", castTime)
}

func (p logPresenter) PvpMode(mode int) {
	p.log.Infof("pvp mode %d", mode)
}

func beingID(b *being.Being) being.ActorID {
	if b == nil {
		return 0
	}
	return b.ID
}
