package being

import (
	"fmt"

	"manaclient/protocol"
)

// Shape 外观类消息的线上形态，由 opcode 区分（没有类型字节）
type Shape int

const (
	ShapeVisible       Shape = iota // 0x0078 单地块 + 方向
	ShapeMove                       // 0x007b 服务器时间 + 地块对
	ShapeSpawn                      // 0x007c class 位置不同，无类别相关字段
	ShapePlayerUpdate1              // 0x01d8 带死亡/坐下字节
	ShapePlayerUpdate2              // 0x01d9
	ShapePlayerMove                 // 0x01da 服务器时间 + 地块对
)

var shapeOpcodes = map[Shape]uint16{
	ShapeVisible:       protocol.SmsgBeingVisible,
	ShapeMove:          protocol.SmsgBeingMove,
	ShapeSpawn:         protocol.SmsgBeingSpawn,
	ShapePlayerUpdate1: protocol.SmsgPlayerUpdate1,
	ShapePlayerUpdate2: protocol.SmsgPlayerUpdate2,
	ShapePlayerMove:    protocol.SmsgPlayerMove,
}

func (s Shape) Opcode() uint16 { return shapeOpcodes[s] }

func (s Shape) String() string {
	return fmt.Sprintf("shape(0x%04x)", s.Opcode())
}

// Moving 携带服务器时间与地块对（无方向）
func (s Shape) Moving() bool { return s == ShapeMove || s == ShapePlayerMove }

func (s Shape) playerUpdate() bool {
	return s == ShapePlayerUpdate1 || s == ShapePlayerUpdate2 || s == ShapePlayerMove
}

// hasState 是否带站/坐/死状态字节
func (s Shape) hasState() bool { return s == ShapeVisible || s == ShapePlayerUpdate1 }

// Look 外观字段（按线上原值）
type Look struct {
	Hair         uint16
	HairColor    uint16
	Weapon       uint16
	Shield       uint16
	HeadBottom   uint16
	HeadTop      uint16
	HeadMid      uint16
	ClothesColor uint16
	HeadDir      int16
}

// UpdateRecord 一条外观/移动消息解码后的字段，不持久化
type UpdateRecord struct {
	Shape    Shape
	ID       ActorID
	Speed    int16
	StunMode uint16
	Option   uint16 // 状态块 0
	Opt2     uint16 // 状态块 16
	Opt3     uint16 // 状态块 32
	Class    uint16
	Kind     Kind
	Look     Look

	// 玩家/NPC
	Guild  int32
	Emblem int16
	// 怪物：两个原始 int32，方言支持时为 hp / maxHP
	Raw1, Raw2 int32

	Manner int16
	Karma  int8
	Gender uint8

	X, Y uint16
	Dir  uint8 // 线上原始方向半字节

	SrcX, SrcY, DstX, DstY uint16
	ServerTick             uint32

	State uint8 // 0 站 1 死 2 坐
	GM    uint8
	Level int16
}

// DecodeAppearance 先解码 class 得到类别，再按类别读取尾部字段
func DecodeAppearance(msg *protocol.MessageIn, shape Shape) (UpdateRecord, error) {
	r := UpdateRecord{Shape: shape}
	r.ID = ActorID(msg.ReadUint32())
	r.Speed = msg.ReadInt16()
	r.StunMode = msg.ReadUint16()
	r.Opt2 = msg.ReadUint16()
	r.Option = msg.ReadUint16()

	switch {
	case shape == ShapeSpawn:
		decodeSpawn(msg, &r)
	case shape.playerUpdate():
		r.Class = msg.ReadUint16()
		r.Kind = KindOf(r.Class)
		decodePlayerUpdate(msg, &r)
	default:
		r.Class = msg.ReadUint16()
		r.Kind = KindOf(r.Class)
		decodeBeing(msg, &r)
	}
	return r, msg.Err()
}

func decodeBeing(msg *protocol.MessageIn, r *UpdateRecord) {
	r.Look.Hair = msg.ReadUint16()
	r.Look.Weapon = msg.ReadUint16()
	r.Look.HeadBottom = msg.ReadUint16()
	if r.Shape.Moving() {
		r.ServerTick = msg.ReadUint32()
	}
	r.Look.Shield = msg.ReadUint16()
	r.Look.HeadTop = msg.ReadUint16()
	r.Look.HeadMid = msg.ReadUint16()
	r.Look.HairColor = msg.ReadUint16()
	r.Look.ClothesColor = msg.ReadUint16()

	kindFields(r.Kind)(msg, r)

	r.Manner = msg.ReadInt16()
	r.Opt3 = msg.ReadUint16()
	r.Karma = msg.ReadInt8()
	r.Gender = msg.ReadUint8()
	decodePosition(msg, r)
	msg.Skip(2) // x/y size
	if r.Shape.hasState() {
		r.State = msg.ReadUint8()
	} else {
		msg.Skip(1)
	}
	r.Level = msg.ReadInt16()
}

// kindFields 类别相关段：怪物两个 int32，其余 headDir + guild + emblem
func kindFields(k Kind) func(*protocol.MessageIn, *UpdateRecord) {
	if k == KindMonster {
		return readMonsterFields
	}
	return readPlayerFields
}

func readMonsterFields(msg *protocol.MessageIn, r *UpdateRecord) {
	r.Raw1 = msg.ReadInt32()
	r.Raw2 = msg.ReadInt32()
}

func readPlayerFields(msg *protocol.MessageIn, r *UpdateRecord) {
	r.Look.HeadDir = msg.ReadInt16()
	r.Guild = msg.ReadInt32()
	r.Emblem = msg.ReadInt16()
}

func decodePlayerUpdate(msg *protocol.MessageIn, r *UpdateRecord) {
	r.Look.Hair = msg.ReadUint16()
	r.Look.Weapon = msg.ReadUint16()
	r.Look.Shield = msg.ReadUint16()
	r.Look.HeadBottom = msg.ReadUint16()
	if r.Shape.Moving() {
		r.ServerTick = msg.ReadUint32()
	}
	r.Look.HeadTop = msg.ReadUint16()
	r.Look.HeadMid = msg.ReadUint16()
	r.Look.HairColor = msg.ReadUint16()
	r.Look.ClothesColor = msg.ReadUint16()
	readPlayerFields(msg, r)
	r.Manner = msg.ReadInt16()
	r.Opt3 = msg.ReadUint16()
	r.Karma = msg.ReadInt8()
	r.Gender = msg.ReadUint8()
	decodePosition(msg, r)
	r.GM = msg.ReadUint8()
	switch r.Shape {
	case ShapePlayerUpdate1:
		r.State = msg.ReadUint8()
	case ShapePlayerMove:
		msg.Skip(1)
	}
	r.Level = msg.ReadInt16()
	msg.Skip(1)
}

func decodeSpawn(msg *protocol.MessageIn, r *UpdateRecord) {
	r.Look.Hair = msg.ReadUint16()
	r.Look.Weapon = msg.ReadUint16()
	r.Look.HeadBottom = msg.ReadUint16()
	r.Class = msg.ReadUint16()
	r.Kind = KindOf(r.Class)
	r.Look.Shield = msg.ReadUint16()
	r.Look.HeadTop = msg.ReadUint16()
	r.Look.HeadMid = msg.ReadUint16()
	r.Look.HairColor = msg.ReadUint16()
	r.Look.ClothesColor = msg.ReadUint16()
	r.Look.HeadDir = msg.ReadInt16()
	r.Karma = msg.ReadInt8()
	r.Gender = msg.ReadUint8()
	r.X, r.Y, r.Dir = msg.ReadCoordinates()
	msg.Skip(2)
}

func decodePosition(msg *protocol.MessageIn, r *UpdateRecord) {
	if r.Shape.Moving() {
		r.SrcX, r.SrcY, r.DstX, r.DstY = msg.ReadCoordinatePair()
		r.X, r.Y = r.SrcX, r.SrcY
		return
	}
	r.X, r.Y, r.Dir = msg.ReadCoordinates()
}

// EncodeAppearance 按与 DecodeAppearance 相同的布局写出记录（测试与回放工具用）
func EncodeAppearance(r UpdateRecord) *protocol.MessageOut {
	m := protocol.NewMessageOut(r.Shape.Opcode())
	m.WriteUint32(uint32(r.ID))
	m.WriteInt16(r.Speed)
	m.WriteUint16(r.StunMode)
	m.WriteUint16(r.Opt2)
	m.WriteUint16(r.Option)

	writePlayerFields := func() {
		m.WriteInt16(r.Look.HeadDir)
		m.WriteInt32(r.Guild)
		m.WriteInt16(r.Emblem)
	}
	writePosition := func() {
		if r.Shape.Moving() {
			m.WriteCoordinatePair(r.SrcX, r.SrcY, r.DstX, r.DstY)
		} else {
			m.WriteCoordinates(r.X, r.Y, r.Dir)
		}
	}

	switch {
	case r.Shape == ShapeSpawn:
		m.WriteUint16(r.Look.Hair)
		m.WriteUint16(r.Look.Weapon)
		m.WriteUint16(r.Look.HeadBottom)
		m.WriteUint16(r.Class)
		m.WriteUint16(r.Look.Shield)
		m.WriteUint16(r.Look.HeadTop)
		m.WriteUint16(r.Look.HeadMid)
		m.WriteUint16(r.Look.HairColor)
		m.WriteUint16(r.Look.ClothesColor)
		m.WriteInt16(r.Look.HeadDir)
		m.WriteInt8(r.Karma)
		m.WriteUint8(r.Gender)
		m.WriteCoordinates(r.X, r.Y, r.Dir)
		m.WriteUint16(0)
	case r.Shape.playerUpdate():
		m.WriteUint16(r.Class)
		m.WriteUint16(r.Look.Hair)
		m.WriteUint16(r.Look.Weapon)
		m.WriteUint16(r.Look.Shield)
		m.WriteUint16(r.Look.HeadBottom)
		if r.Shape.Moving() {
			m.WriteUint32(r.ServerTick)
		}
		m.WriteUint16(r.Look.HeadTop)
		m.WriteUint16(r.Look.HeadMid)
		m.WriteUint16(r.Look.HairColor)
		m.WriteUint16(r.Look.ClothesColor)
		writePlayerFields()
		m.WriteInt16(r.Manner)
		m.WriteUint16(r.Opt3)
		m.WriteInt8(r.Karma)
		m.WriteUint8(r.Gender)
		writePosition()
		m.WriteUint8(r.GM)
		switch r.Shape {
		case ShapePlayerUpdate1:
			m.WriteUint8(r.State)
		case ShapePlayerMove:
			m.WriteUint8(0)
		}
		m.WriteInt16(r.Level)
		m.WriteUint8(0)
	default:
		m.WriteUint16(r.Class)
		m.WriteUint16(r.Look.Hair)
		m.WriteUint16(r.Look.Weapon)
		m.WriteUint16(r.Look.HeadBottom)
		if r.Shape.Moving() {
			m.WriteUint32(r.ServerTick)
		}
		m.WriteUint16(r.Look.Shield)
		m.WriteUint16(r.Look.HeadTop)
		m.WriteUint16(r.Look.HeadMid)
		m.WriteUint16(r.Look.HairColor)
		m.WriteUint16(r.Look.ClothesColor)
		if KindOf(r.Class) == KindMonster {
			m.WriteInt32(r.Raw1)
			m.WriteInt32(r.Raw2)
		} else {
			writePlayerFields()
		}
		m.WriteInt16(r.Manner)
		m.WriteUint16(r.Opt3)
		m.WriteInt8(r.Karma)
		m.WriteUint8(r.Gender)
		writePosition()
		m.WriteUint16(0)
		m.WriteUint8(r.State)
		m.WriteInt16(r.Level)
	}
	return m
}
