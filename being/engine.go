package being

import (
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"manaclient/dialect"
	"manaclient/protocol"
	"manaclient/relation"
)

// HandleFunc 解码并应用一条消息
type HandleFunc func(e *Engine, msg *protocol.MessageIn) error

// HandlerTable opcode -> 解码函数；方言在共享表上追加或替换
type HandlerTable map[uint16]HandleFunc

// Protocol 方言相关的角色协议：只覆盖与共享实现不同的部分
type Protocol interface {
	Name() string
	Extend(t HandlerTable)
}

// Options 引擎的外部协作者；nil 字段使用空实现
type Options struct {
	Registry  Registry
	Local     LocalPlayer
	Presenter Presenter
	Relations relation.View
	Sender    protocol.Sender
	Log       *zap.SugaredLogger

	// OnCreate / OnRetire 可选回调（指标）
	OnCreate func(b *Being)
	OnRetire func(id ActorID)
}

// Engine 角色状态协调引擎：把角色更新消息合并进注册表
type Engine struct {
	proto     Protocol
	caps      dialect.Capabilities
	table     HandlerTable
	reg       Registry
	local     LocalPlayer
	presenter Presenter
	relations relation.View
	sender    protocol.Sender
	log       *zap.SugaredLogger
	onCreate  func(*Being)
	onRetire  func(ActorID)

	halted       bool
	pendingNames map[ActorID]struct{}
	pvpMode      int
}

// NewEngine 为方言构造引擎
func NewEngine(d *dialect.Dialect, opts Options) (*Engine, error) {
	proto, err := ProtocolFor(d)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		proto:        proto,
		caps:         d.Caps,
		reg:          opts.Registry,
		local:        opts.Local,
		presenter:    opts.Presenter,
		relations:    opts.Relations,
		sender:       opts.Sender,
		log:          opts.Log,
		onCreate:     opts.OnCreate,
		onRetire:     opts.OnRetire,
		pendingNames: make(map[ActorID]struct{}),
	}
	if e.reg == nil {
		e.reg = NewMemory()
	}
	if e.local == nil {
		e.local = NopLocal{}
	}
	if e.presenter == nil {
		e.presenter = NopPresenter{}
	}
	if e.relations == nil {
		e.relations = relation.AllowAll{}
	}
	if e.log == nil {
		e.log = zap.NewNop().Sugar()
	}
	e.table = baseTable()
	proto.Extend(e.table)
	for op := range e.table {
		if !d.Supports(op) {
			delete(e.table, op)
		}
	}
	return e, nil
}

func (e *Engine) Name() string { return "being/" + e.proto.Name() }

// Opcodes 实现 dispatch.Handler
func (e *Engine) Opcodes() []uint16 {
	ops := make([]uint16, 0, len(e.table))
	for op := range e.table {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// Handle 实现 dispatch.Handler
func (e *Engine) Handle(msg *protocol.MessageIn) error {
	fn, ok := e.table[msg.ID()]
	if !ok {
		return fmt.Errorf("being: opcode 0x%04x not in %s table", msg.ID(), e.proto.Name())
	}
	return fn(e, msg)
}

func (e *Engine) Registry() Registry { return e.reg }

// Halt 断线后停止创建新角色（残留字节流已过期）
func (e *Engine) Halt() {
	e.halted = true
	e.pendingNames = make(map[ActorID]struct{})
}

// Resume 重连后恢复
func (e *Engine) Resume() { e.halted = false }

func (e *Engine) Halted() bool { return e.halted }

// PvpMode 最近一次地图 PvP 模式
func (e *Engine) PvpMode() int { return e.pvpMode }

// find 查找已知角色；缺失一律忽略
func (e *Engine) find(id ActorID) *Being {
	b, ok := e.reg.Find(id)
	if !ok {
		return nil
	}
	return b
}

// create 首次出现时创建；无效类别与幽灵 id 不创建
func (e *Engine) create(id ActorID, class uint16) *Being {
	if e.halted {
		return nil
	}
	if !Spawnable(id, class) {
		e.log.Debugf("ignoring being %d with class %d", id, class)
		return nil
	}
	b := e.reg.Create(id, class)
	if b == nil {
		return nil
	}
	if e.onCreate != nil {
		e.onCreate(b)
	}
	if b.Kind == KindPlayer || b.Kind == KindNPC {
		e.RequestName(id)
	}
	return b
}

func (e *Engine) retire(id ActorID) {
	e.reg.Destroy(id)
	delete(e.pendingNames, id)
	if e.onRetire != nil {
		e.onRetire(id)
	}
}

// RequestName 按 id 请求名字；同一 id 在应答前只请求一次
func (e *Engine) RequestName(id ActorID) {
	if e.sender == nil {
		return
	}
	if _, pending := e.pendingNames[id]; pending {
		return
	}
	out := protocol.NewMessageOut(protocol.CmsgNameRequest)
	out.WriteUint32(uint32(id))
	if err := e.sender.Send(out); err != nil {
		e.log.Warnf("name request for %d: %v", id, err)
		return
	}
	e.pendingNames[id] = struct{}{}
}

// direction 把线上方向字节转换为客户端方向
func (e *Engine) direction(raw uint8) Direction {
	if e.caps.CompassDirections {
		return DirectionFromCompass(raw)
	}
	return Direction(raw & 0x0f)
}

// imitating 本地角色是否在模仿 b
func (e *Engine) imitating(b *Being) bool {
	name := e.local.Imitated()
	return name != "" && b.Kind == KindPlayer && b.Name == name
}

// Apply 把一条外观/移动记录合并进注册表；返回被更新的条目，忽略时为 nil
func (e *Engine) Apply(r UpdateRecord) *Being {
	b := e.find(r.ID)
	if b != nil && b.Kind == KindMonster && !b.Alive() {
		e.retire(r.ID)
		b = nil
	}
	if b == nil {
		if b = e.create(r.ID, r.Class); b == nil {
			return nil
		}
	}

	switch r.Shape {
	case ShapeSpawn:
		b.Action = ActionSpawn
	case ShapeVisible:
		b.Action = ActionStand
	}

	speed := int(r.Speed)
	if speed <= 0 {
		speed = DefaultWalkSpeed
	}
	b.WalkSpeed = speed

	if k := KindOf(r.Class); k != KindUnknown {
		b.Class = r.Class
		b.Kind = k
	}

	b.StunMode = r.StunMode
	b.SetStatusBlock(BlockOption, r.Option)
	b.SetStatusBlock(BlockOpt2, r.Opt2)
	if r.Shape != ShapeSpawn {
		b.SetStatusBlock(BlockOpt3, r.Opt3)
	}

	e.applyLook(b, r)
	e.applyPosition(b, r)

	if r.Shape.hasState() {
		switch r.State {
		case 1:
			b.Action = ActionDead
		case 2:
			b.Action = ActionSit
		}
	}
	if r.Level > 0 {
		b.Level = int(r.Level)
	}
	if r.Shape.playerUpdate() {
		b.GM = r.GM != 0
	}

	if e.imitating(b) {
		e.local.ImitateAction(b, b.Action)
		e.local.ImitateDirection(b, b.Direction)
	}
	return b
}

func (e *Engine) applyLook(b *Being, r UpdateRecord) {
	switch b.Kind {
	case KindPlayer:
		b.Gender = playerGender(r.Gender)
		// 性别之后再设置外观，精灵可能区分性别
		l := r.Look
		b.SetSprite(SlotHair, int(l.Hair), strconv.Itoa(int(l.HairColor)))
		b.SetSprite(SlotBottomClothes, int(l.HeadBottom), "")
		b.SetSprite(SlotTopClothes, int(l.HeadMid), "")
		b.SetSprite(SlotHat, int(l.HeadTop), "")
		b.SetSprite(SlotShoe, int(l.ClothesColor), "")
		b.SetSprite(SlotGloves, int(l.HeadDir), "")
		b.SetSprite(SlotWeapon, int(l.Weapon), "")
		b.SetSprite(SlotShield, int(l.Shield), "")
	case KindNPC, KindPortal:
		b.Gender = npcGender(r.Gender)
	case KindMonster:
		if e.caps.MonsterHP && r.Raw1 > 0 && r.Raw2 > 0 {
			b.MaxHP = int(r.Raw2)
			if b.HP == 0 || b.HP > int(r.Raw1) {
				b.HP = int(r.Raw1)
			}
		}
	}
}

func (e *Engine) applyPosition(b *Being, r UpdateRecord) {
	if !r.Shape.Moving() {
		b.SetTile(r.X, r.Y)
		if d := e.direction(r.Dir); d != DirNone {
			b.Direction = d
		}
		return
	}
	b.Action = ActionStand
	b.ServerTick = r.ServerTick
	e.moveAlong(b, r.SrcX, r.SrcY, r.DstX, r.DstY)
}

// moveAlong 设置路径；消息不带方向，按起止地块推导，起止相同则保持原方向
func (e *Engine) moveAlong(b *Being, srcX, srcY, dstX, dstY uint16) {
	b.SetTile(srcX, srcY)
	b.SetDestination(dstX, dstY)
	if d := DirectionBetween(srcX, srcY, dstX, dstY); d != DirNone && d != b.Direction {
		b.Direction = d
	}
}
