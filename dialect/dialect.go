package dialect

import (
	"fmt"
	"sort"
	"strings"

	"manaclient/protocol"
)

// Capabilities 方言之间存在差异的字段/消息，由处理器在解码时检查
type Capabilities struct {
	// MonsterHP 怪物外观段的两个 int32 为 hp / maxHP
	MonsterHP bool
	// SpeechChannels 支持带 3 字节频道标记的角色说话消息
	SpeechChannels bool
	// ExtendedNames 支持变长名字应答与 IP 应答
	ExtendedNames bool
	// CompassDirections 方向字节为 eAthena 0–7 罗盘编码，需要转换
	CompassDirections bool
}

// Dialect 一种服务端协议变体：包长表 + 能力
type Dialect struct {
	Name    string
	Caps    Capabilities
	lengths map[uint16]int
}

// PacketLength 实现 protocol.LengthTable
func (d *Dialect) PacketLength(op uint16) (int, bool) {
	n, ok := d.lengths[op]
	return n, ok
}

// Supports 该方言是否定义了此 opcode
func (d *Dialect) Supports(op uint16) bool {
	_, ok := d.lengths[op]
	return ok
}

const v = protocol.VariableLength

// 两种方言共用的包长
var common = map[uint16]int{
	protocol.SmsgMapLoginSuccess:    11,
	protocol.SmsgServerPing:         6,
	protocol.SmsgConnectionProblem:  3,
	protocol.SmsgWalkResponse:       12,
	protocol.SmsgPlayerStatUpdate1:  8,
	protocol.SmsgPlayerStatUpdate2:  8,
	protocol.SmsgPlayerWarp:         22,
	protocol.SmsgItemVisible:        17,
	protocol.SmsgItemDropped:        17,
	protocol.SmsgItemRemove:         6,
	protocol.SmsgPlayerInventoryAdd: 23,
	protocol.SmsgPlayerInventory:    v,
	protocol.SmsgPlayerEquipment:    v,
	protocol.SmsgPlayerSkills:       v,
	protocol.SmsgNpcMessage:         v,
	protocol.SmsgNpcClose:           6,
	protocol.SmsgNpcChoice:          v,
	protocol.SmsgPartyInfo:          v,
	protocol.SmsgTradeRequest:       26,

	protocol.SmsgBeingVisible:       54,
	protocol.SmsgBeingMove:          60,
	protocol.SmsgBeingSpawn:         41,
	protocol.SmsgBeingMove2:         16,
	protocol.SmsgBeingRemove:        7,
	protocol.SmsgBeingResurrect:     8,
	protocol.SmsgBeingAction:        29,
	protocol.SmsgBeingSelfEffect:    10,
	protocol.SmsgBeingEmotion:       7,
	protocol.SmsgBeingChangeLooks:   8,
	protocol.SmsgBeingChangeLooks2:  11,
	protocol.SmsgBeingNameResponse:  30,
	protocol.SmsgPlayerGuildParty:   102,
	protocol.SmsgBeingChangeDir:     9,
	protocol.SmsgPlayerUpdate1:      54,
	protocol.SmsgPlayerUpdate2:      53,
	protocol.SmsgPlayerMove:         60,
	protocol.SmsgPlayerStop:         10,
	protocol.SmsgPlayerMoveToAttack: 16,
	protocol.SmsgPlayerStatusChange: 13,
	protocol.SmsgBeingStatusChange:  9,
	protocol.SmsgSkillCasting:       24,
	protocol.SmsgSkillCastCancel:    6,
	protocol.SmsgSkillNoDamage:      15,
	protocol.SmsgPvpMapMode:         4,
	protocol.SmsgPvpSet:             14,

	protocol.SmsgBeingChat:         v,
	protocol.SmsgPlayerChat:        v,
	protocol.SmsgWhisper:           v,
	protocol.SmsgWhisperResponse:   3,
	protocol.SmsgGmChat:            v,
	protocol.SmsgMvp:               6,
	protocol.SmsgIgnoreAllResponse: 4,
}

func build(name string, caps Capabilities, extra map[uint16]int) *Dialect {
	lengths := make(map[uint16]int, len(common)+len(extra))
	for op, n := range common {
		lengths[op] = n
	}
	for op, n := range extra {
		lengths[op] = n
	}
	return &Dialect{Name: name, Caps: caps, lengths: lengths}
}

var (
	// TMWA The Mana World athena
	TMWA = build("tmwa", Capabilities{
		SpeechChannels: true,
		ExtendedNames:  true,
	}, map[uint16]int{
		protocol.SmsgBeingNameResponse2: v,
		protocol.SmsgBeingIPResponse:    10,
		protocol.SmsgBeingChat2:         v,
	})

	// EAthena 标准 eAthena
	EAthena = build("eathena", Capabilities{
		MonsterHP:         true,
		CompassDirections: true,
	}, nil)
)

var registry = map[string]*Dialect{
	TMWA.Name:    TMWA,
	EAthena.Name: EAthena,
}

// Lookup 按名字查找方言（不区分大小写）
func Lookup(name string) (*Dialect, error) {
	d, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("dialect: unknown dialect %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return d, nil
}

// Names 已知方言名，排序后返回
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
