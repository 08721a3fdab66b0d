package being

import (
	"strconv"

	"manaclient/protocol"
)

// LookType change-look 消息中的外观类型码
type LookType uint8

const (
	LookBase       LookType = 0
	LookHair       LookType = 1
	LookWeapon     LookType = 2
	LookHeadBottom LookType = 3
	LookHeadTop    LookType = 4
	LookHeadMid    LookType = 5
	LookHairColor  LookType = 6
	LookClothes    LookType = 7 // 衣服染色，客户端不使用
	LookShield     LookType = 8
	LookShoes      LookType = 9
	LookGloves     LookType = 10
	LookCape       LookType = 11
	LookMisc1      LookType = 12
	LookMisc2      LookType = 13
)

// lookTarget 一个类型码对应的唯一更新目标
type lookTarget struct {
	slot  Slot
	color bool // 只改染色
	class bool // 改 class 而非精灵
}

var lookTargets = map[LookType]lookTarget{
	LookBase:       {class: true},
	LookHair:       {slot: SlotHair},
	LookWeapon:     {slot: SlotWeapon},
	LookHeadBottom: {slot: SlotBottomClothes},
	LookHeadTop:    {slot: SlotHat},
	LookHeadMid:    {slot: SlotTopClothes},
	LookHairColor:  {slot: SlotHair, color: true},
	LookShield:     {slot: SlotShield},
	LookShoes:      {slot: SlotShoe},
	LookGloves:     {slot: SlotGloves},
	LookCape:       {slot: SlotCape},
	LookMisc1:      {slot: SlotMisc1},
	LookMisc2:      {slot: SlotMisc2},
}

// LookSlot 类型码对应的槽位；class 更新与不支持的类型返回 false
func LookSlot(t LookType) (Slot, bool) {
	target, ok := lookTargets[t]
	if !ok || target.class {
		return 0, false
	}
	return target.slot, true
}

// handleChangeLooks 8 位单值形态
func handleChangeLooks(e *Engine, msg *protocol.MessageIn) error {
	id := ActorID(msg.ReadUint32())
	t := LookType(msg.ReadUint8())
	value := int(msg.ReadUint8())
	if err := msg.Err(); err != nil {
		return err
	}
	e.ChangeLook(id, t, value, 0, false)
	return nil
}

// handleChangeLooks2 两个 16 位值形态；武器类型的第二个值是盾牌
func handleChangeLooks2(e *Engine, msg *protocol.MessageIn) error {
	id := ActorID(msg.ReadUint32())
	t := LookType(msg.ReadUint8())
	value := int(msg.ReadUint16())
	value2 := int(msg.ReadUint16())
	if err := msg.Err(); err != nil {
		return err
	}
	e.ChangeLook(id, t, value, value2, true)
	return nil
}

// ChangeLook 把外观类型码映射到一次槽位更新；未知类型记录日志后忽略
func (e *Engine) ChangeLook(id ActorID, t LookType, value, value2 int, wide bool) {
	b := e.find(id)
	if b == nil {
		return
	}
	target, ok := lookTargets[t]
	if !ok {
		e.log.Warnf("change look: unsupported type %d (id %d, value %d)", t, id, value)
		return
	}
	switch {
	case target.class:
		b.Class = uint16(value)
		if k := KindOf(b.Class); k != KindUnknown {
			b.Kind = k
		}
		return
	case target.color:
		b.Sprites[target.slot].Color = strconv.Itoa(value)
	default:
		b.SetSprite(target.slot, value, "")
		if t == LookWeapon && wide {
			b.SetSprite(SlotShield, value2, "")
		}
	}
	if e.imitating(b) {
		e.local.ImitateOutfit(b, target.slot)
	}
}
