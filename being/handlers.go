package being

import (
	"fmt"

	"manaclient/protocol"
	"manaclient/relation"
)

// baseTable 所有方言共享的解码函数
func baseTable() HandlerTable {
	t := HandlerTable{
		protocol.SmsgBeingMove2:         handleMove2,
		protocol.SmsgBeingRemove:        handleRemove,
		protocol.SmsgBeingResurrect:     handleResurrect,
		protocol.SmsgBeingAction:        handleAction,
		protocol.SmsgBeingSelfEffect:    handleSelfEffect,
		protocol.SmsgBeingEmotion:       handleEmotion,
		protocol.SmsgBeingChangeLooks:   handleChangeLooks,
		protocol.SmsgBeingChangeLooks2:  handleChangeLooks2,
		protocol.SmsgBeingNameResponse:  handleNameResponse,
		protocol.SmsgPlayerGuildParty:   handleGuildPartyInfo,
		protocol.SmsgBeingChangeDir:     handleChangeDirection,
		protocol.SmsgPlayerStop:         handlePlayerStop,
		protocol.SmsgPlayerMoveToAttack: handleMoveToAttack,
		protocol.SmsgPlayerStatusChange: handlePlayerStatusChange,
		protocol.SmsgBeingStatusChange:  handleBeingStatusChange,
		protocol.SmsgSkillCasting:       handleSkillCasting,
		protocol.SmsgSkillCastCancel:    handleCastCancel,
		protocol.SmsgSkillNoDamage:      handleSkillNoDamage,
		protocol.SmsgPvpMapMode:         handlePvpMode,
		protocol.SmsgPvpSet:             handlePvpSet,
	}
	for shape := ShapeVisible; shape <= ShapePlayerMove; shape++ {
		t[shape.Opcode()] = appearanceHandler(shape)
	}
	return t
}

func appearanceHandler(shape Shape) HandleFunc {
	return func(e *Engine, msg *protocol.MessageIn) error {
		r, err := DecodeAppearance(msg, shape)
		if err != nil {
			return err
		}
		e.Apply(r)
		return nil
	}
}

func handleMove2(e *Engine, msg *protocol.MessageIn) error {
	id := ActorID(msg.ReadUint32())
	srcX, srcY, dstX, dstY := msg.ReadCoordinatePair()
	msg.Skip(1) // 子格偏移
	tick := msg.ReadUint32()
	if err := msg.Err(); err != nil {
		return err
	}
	b := e.find(id)
	if b == nil {
		return nil
	}
	b.Action = ActionStand
	b.ServerTick = tick
	e.moveAlong(b, srcX, srcY, dstX, dstY)
	return nil
}

// 移除类型
const (
	removeOutOfSight = 0
	removeDied       = 1
)

func handleRemove(e *Engine, msg *protocol.MessageIn) error {
	id := ActorID(msg.ReadUint32())
	kind := msg.ReadUint8()
	if err := msg.Err(); err != nil {
		return err
	}
	b := e.find(id)
	if b == nil {
		return nil
	}
	if e.local.Target() == id {
		e.local.StopAttack()
	}
	if kind == removeDied {
		b.Action = ActionDead
		if e.imitating(b) {
			e.local.ImitateAction(b, ActionDead)
		}
		return nil
	}
	e.retire(id)
	return nil
}

func handleResurrect(e *Engine, msg *protocol.MessageIn) error {
	id := ActorID(msg.ReadUint32())
	kind := msg.ReadInt16()
	if err := msg.Err(); err != nil {
		return err
	}
	if b := e.find(id); b != nil && kind == 1 {
		b.Action = ActionStand
	}
	return nil
}

// 动作类型
const (
	actionHit      = 0x00
	actionPickup   = 0x01
	actionSit      = 0x02
	actionStand    = 0x03
	actionReflect  = 0x04
	actionMulti    = 0x08
	actionCritical = 0x0a
	actionFlee     = 0x0b
)

func handleAction(e *Engine, msg *protocol.MessageIn) error {
	src := e.find(ActorID(msg.ReadUint32()))
	dst := e.find(ActorID(msg.ReadUint32()))
	msg.Skip(4) // 服务器时间
	srcSpeed := msg.ReadInt32()
	msg.Skip(4) // 目标速度
	param1 := msg.ReadInt16()
	msg.Skip(2)
	kind := msg.ReadUint8()
	msg.Skip(2)
	if err := msg.Err(); err != nil {
		return err
	}

	switch kind {
	case actionHit, actionCritical, actionMulti, actionReflect, actionFlee:
		hit := HitNormal
		switch kind {
		case actionCritical:
			hit = HitCritical
		case actionMulti:
			hit = HitMulti
		case actionReflect:
			hit = HitReflect
		case actionFlee:
			hit = HitMiss
		}
		if param1 == 0 && hit == HitNormal {
			hit = HitMiss
		}
		if src != nil {
			if srcSpeed > 0 {
				src.AttackSpeed = int(srcSpeed)
			}
			src.Action = ActionAttack
		}
		if dst != nil && param1 > 0 && dst.Alive() {
			dst.Action = ActionHurt
		}
		if src != nil || dst != nil {
			e.presenter.Damage(src, dst, int(param1), hit)
		}
	case actionPickup:
		// 拾取只有表现层效果，坐标不在此消息中
	case actionSit, actionStand:
		if src == nil {
			return nil
		}
		src.Action = ActionSit
		if kind == actionStand {
			src.Action = ActionStand
		}
		if e.imitating(src) {
			e.local.ImitateAction(src, src.Action)
		}
	default:
		e.log.Debugf("unknown being action type 0x%02x", kind)
	}
	return nil
}

func handleSelfEffect(e *Engine, msg *protocol.MessageIn) error {
	id := ActorID(msg.ReadUint32())
	effect := msg.ReadInt32()
	if err := msg.Err(); err != nil {
		return err
	}
	if b := e.find(id); b != nil {
		e.presenter.Effect(b, int(effect))
	}
	return nil
}

func handleEmotion(e *Engine, msg *protocol.MessageIn) error {
	id := ActorID(msg.ReadUint32())
	emote := msg.ReadUint8()
	if err := msg.Err(); err != nil {
		return err
	}
	b := e.find(id)
	if b == nil {
		return nil
	}
	if b.Kind == KindPlayer && !e.relations.HasPermission(b.Name, relation.Emote) {
		return nil
	}
	b.Emote = emote
	e.presenter.Emote(b, emote)
	if e.imitating(b) {
		e.local.ImitateEmote(b, emote)
	}
	return nil
}

func handleNameResponse(e *Engine, msg *protocol.MessageIn) error {
	id := ActorID(msg.ReadUint32())
	name := msg.ReadString(24)
	if err := msg.Err(); err != nil {
		return err
	}
	e.setName(id, name)
	return nil
}

// handleNameResponse2 变长名字应答
func handleNameResponse2(e *Engine, msg *protocol.MessageIn) error {
	n := msg.ReadPayloadLength(8)
	id := ActorID(msg.ReadUint32())
	name := msg.ReadString(n)
	if err := msg.Err(); err != nil {
		return err
	}
	e.setName(id, name)
	return nil
}

func (e *Engine) setName(id ActorID, name string) {
	delete(e.pendingNames, id)
	if b := e.find(id); b != nil {
		b.Name = name
	}
}

func handleIPResponse(e *Engine, msg *protocol.MessageIn) error {
	id := ActorID(msg.ReadUint32())
	ip := msg.ReadUint32()
	if err := msg.Err(); err != nil {
		return err
	}
	if b := e.find(id); b != nil {
		b.IP = fmt.Sprintf("%d.%d.%d.%d", ip&0xff, (ip>>8)&0xff, (ip>>16)&0xff, ip>>24)
	}
	return nil
}

// handleGuildPartyInfo 队伍名、公会名、公会职位、保留
func handleGuildPartyInfo(e *Engine, msg *protocol.MessageIn) error {
	id := ActorID(msg.ReadUint32())
	party := msg.ReadString(24)
	guild := msg.ReadString(24)
	pos := msg.ReadString(24)
	msg.Skip(24)
	if err := msg.Err(); err != nil {
		return err
	}
	if b := e.find(id); b != nil {
		b.PartyName, b.GuildName, b.GuildPos = party, guild, pos
	}
	return nil
}

func handleChangeDirection(e *Engine, msg *protocol.MessageIn) error {
	id := ActorID(msg.ReadUint32())
	msg.Skip(2) // 头部方向
	raw := msg.ReadUint8()
	if err := msg.Err(); err != nil {
		return err
	}
	b := e.find(id)
	if b == nil {
		return nil
	}
	if d := e.direction(raw); d != DirNone {
		b.Direction = d
	}
	if e.imitating(b) {
		e.local.ImitateDirection(b, b.Direction)
	}
	return nil
}

func handlePlayerStop(e *Engine, msg *protocol.MessageIn) error {
	id := ActorID(msg.ReadUint32())
	x := msg.ReadUint16()
	y := msg.ReadUint16()
	if err := msg.Err(); err != nil {
		return err
	}
	b := e.find(id)
	if b == nil {
		return nil
	}
	b.SetTile(x, y)
	if b.Action == ActionMove {
		b.Action = ActionStand
	}
	return nil
}

func handleMoveToAttack(e *Engine, msg *protocol.MessageIn) error {
	msg.Skip(4 + 2*5) // id, 目标坐标, 当前坐标, 攻击距离
	if err := msg.Err(); err != nil {
		return err
	}
	e.local.FixAttackTarget()
	return nil
}

func handlePlayerStatusChange(e *Engine, msg *protocol.MessageIn) error {
	id := ActorID(msg.ReadUint32())
	stun := msg.ReadUint16()
	opt2 := msg.ReadUint16()
	option := msg.ReadUint16()
	msg.Skip(1)
	if err := msg.Err(); err != nil {
		return err
	}
	if b := e.find(id); b != nil {
		b.StunMode = stun
		b.SetStatusBlock(BlockOption, option)
		b.SetStatusBlock(BlockOpt2, opt2)
	}
	return nil
}

func handleBeingStatusChange(e *Engine, msg *protocol.MessageIn) error {
	status := msg.ReadUint16()
	id := ActorID(msg.ReadUint32())
	flag := msg.ReadUint8()
	if err := msg.Err(); err != nil {
		return err
	}
	if b := e.find(id); b != nil {
		b.SetStatusChange(status, flag != 0)
	}
	return nil
}

func handleSkillCasting(e *Engine, msg *protocol.MessageIn) error {
	src := ActorID(msg.ReadUint32())
	dst := ActorID(msg.ReadUint32())
	x := msg.ReadUint16()
	y := msg.ReadUint16()
	skill := msg.ReadUint16()
	msg.Skip(4) // 属性
	castTime := msg.ReadInt32()
	if err := msg.Err(); err != nil {
		return err
	}
	b := e.find(src)
	if b == nil {
		return nil
	}
	b.CastingSkill = skill
	e.presenter.Cast(b, dst, x, y, skill, int(castTime))
	return nil
}

func handleCastCancel(e *Engine, msg *protocol.MessageIn) error {
	id := ActorID(msg.ReadUint32())
	if err := msg.Err(); err != nil {
		return err
	}
	if b := e.find(id); b != nil {
		b.CastingSkill = 0
	}
	return nil
}

func handleSkillNoDamage(e *Engine, msg *protocol.MessageIn) error {
	skill := msg.ReadUint16()
	heal := msg.ReadInt16()
	dst := ActorID(msg.ReadUint32())
	src := ActorID(msg.ReadUint32())
	fail := msg.ReadUint8()
	if err := msg.Err(); err != nil {
		return err
	}
	e.log.Debugf("skill %d from %d on %d without damage (heal %d, fail %d)", skill, src, dst, heal, fail)
	return nil
}

func handlePvpMode(e *Engine, msg *protocol.MessageIn) error {
	mode := msg.ReadInt16()
	if err := msg.Err(); err != nil {
		return err
	}
	e.pvpMode = int(mode)
	e.presenter.PvpMode(int(mode))
	return nil
}

func handlePvpSet(e *Engine, msg *protocol.MessageIn) error {
	id := ActorID(msg.ReadUint32())
	rank := msg.ReadInt32()
	msg.Skip(4) // 人数
	if err := msg.Err(); err != nil {
		return err
	}
	if b := e.find(id); b != nil {
		b.PvpRank = int(rank)
	}
	return nil
}
