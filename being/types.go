package being

import "fmt"

// ActorID 服务端分配的 32 位标识，会话内唯一
type ActorID uint32

// GhostThreshold 与 class 0 一起出现时是断线残留的“幽灵”，不创建
const GhostThreshold ActorID = 110000000

// DefaultWalkSpeed 速度为 0 时的替代值，避免动画计时除零
const DefaultWalkSpeed = 150

// Kind 角色类别，由 class id 推导
type Kind int

const (
	KindUnknown Kind = iota
	KindPlayer
	KindNPC
	KindPortal
	KindMonster
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindNPC:
		return "npc"
	case KindPortal:
		return "portal"
	case KindMonster:
		return "monster"
	default:
		return "unknown"
	}
}

// KindOf 按 class id 区间判定类别
func KindOf(class uint16) Kind {
	switch {
	case class <= 25 || (class >= 4001 && class <= 4049):
		return KindPlayer
	case class == 45:
		return KindPortal
	case class >= 46 && class <= 1000:
		return KindNPC
	case class > 1000 && class <= 2000:
		return KindMonster
	default:
		return KindUnknown
	}
}

// Spawnable 是否允许为首次出现的 id 创建条目
func Spawnable(id ActorID, class uint16) bool {
	if class == 0 && id >= GhostThreshold {
		return false
	}
	return KindOf(class) != KindUnknown
}

// Action 角色当前动作
type Action int

const (
	ActionStand Action = iota
	ActionMove
	ActionAttack
	ActionSit
	ActionDead
	ActionHurt
	ActionSpawn
)

func (a Action) String() string {
	names := [...]string{"stand", "move", "attack", "sit", "dead", "hurt", "spawn"}
	if a < 0 || int(a) >= len(names) {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return names[a]
}

// Direction 客户端方向位标志；斜向为两位组合
type Direction uint8

const (
	DirNone  Direction = 0
	DirDown  Direction = 1
	DirLeft  Direction = 2
	DirUp    Direction = 4
	DirRight Direction = 8
)

func (d Direction) String() string {
	if d == DirNone {
		return "none"
	}
	s := ""
	for _, p := range []struct {
		bit  Direction
		name string
	}{{DirUp, "up"}, {DirDown, "down"}, {DirLeft, "left"}, {DirRight, "right"}} {
		if d&p.bit != 0 {
			if s != "" {
				s += "-"
			}
			s += p.name
		}
	}
	return s
}

// compass eAthena 的 0–7 罗盘（0 = 南，顺时针）
var compass = [8]Direction{
	DirDown,
	DirDown | DirLeft,
	DirLeft,
	DirUp | DirLeft,
	DirUp,
	DirUp | DirRight,
	DirRight,
	DirDown | DirRight,
}

// DirectionFromCompass 转换 eAthena 罗盘方向；超出范围为 DirNone
func DirectionFromCompass(c uint8) Direction {
	if int(c) >= len(compass) {
		return DirNone
	}
	return compass[c]
}

// CompassFromDirection DirectionFromCompass 的逆
func CompassFromDirection(d Direction) uint8 {
	for i, dir := range compass {
		if dir == d {
			return uint8(i)
		}
	}
	return 0
}

// DirectionBetween 比较两个地块推导朝向；相同地块返回 DirNone
func DirectionBetween(srcX, srcY, dstX, dstY uint16) Direction {
	var d Direction
	if srcX > dstX {
		d |= DirLeft
	} else if srcX < dstX {
		d |= DirRight
	}
	if srcY > dstY {
		d |= DirUp
	} else if srcY < dstY {
		d |= DirDown
	}
	return d
}

// Gender 性别
type Gender int

const (
	GenderUnspecified Gender = iota
	GenderFemale
	GenderMale
	GenderOther
)

// playerGender 玩家外观段的性别字节：0 女 1 男
func playerGender(b uint8) Gender {
	switch b {
	case 0:
		return GenderFemale
	case 1:
		return GenderMale
	default:
		return GenderUnspecified
	}
}

// npcGender NPC 使用 2/3/4 编码
func npcGender(b uint8) Gender {
	switch b {
	case 2:
		return GenderFemale
	case 3:
		return GenderMale
	case 4:
		return GenderOther
	default:
		return GenderUnspecified
	}
}

// Slot 外观精灵槽位
type Slot int

const (
	SlotShoe Slot = iota
	SlotBottomClothes
	SlotTopClothes
	SlotMisc1
	SlotMisc2
	SlotHat
	SlotHair
	SlotGloves
	SlotCape
	SlotShield
	SlotWeapon
	SlotCount
)

func (s Slot) String() string {
	names := [...]string{"shoe", "bottom", "top", "misc1", "misc2", "hat", "hair", "gloves", "cape", "shield", "weapon"}
	if s < 0 || s >= SlotCount {
		return fmt.Sprintf("slot(%d)", int(s))
	}
	return names[s]
}

// Sprite 槽位上的物品/外观 id 与染色
type Sprite struct {
	ID    int    `json:"id"`
	Color string `json:"color,omitempty"`
}
