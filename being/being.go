package being

import "sort"

// Being 一个远端角色在客户端的已知状态
// 条目由外部 Registry 拥有；本层只查找、首次出现时创建、或请求删除
type Being struct {
	ID        ActorID `json:"id"`
	Kind      Kind    `json:"-"`
	Class     uint16  `json:"class"`
	Name      string  `json:"name,omitempty"`
	PartyName string  `json:"party,omitempty"`
	GuildName string  `json:"guild,omitempty"`
	GuildPos  string  `json:"guildPos,omitempty"`
	IP        string  `json:"ip,omitempty"`
	Gender    Gender  `json:"gender"`
	Level     int     `json:"level,omitempty"`
	GM        bool    `json:"gm,omitempty"`

	Action    Action    `json:"-"`
	Direction Direction `json:"-"`
	X         uint16    `json:"x"`
	Y         uint16    `json:"y"`
	DstX      uint16    `json:"dstX"`
	DstY      uint16    `json:"dstY"`
	WalkSpeed int       `json:"walkSpeed"`

	// ServerTick 最近一次带服务器时间的移动消息
	ServerTick  uint32 `json:"serverTick,omitempty"`
	AttackSpeed int    `json:"attackSpeed,omitempty"`

	StunMode uint16          `json:"stunMode,omitempty"`
	Status   StatusEffects   `json:"status"`
	Changes  map[uint16]bool `json:"changes,omitempty"` // 按 id 开关的状态变化

	Sprites [SlotCount]Sprite `json:"sprites"`

	HP    int `json:"hp,omitempty"`
	MaxHP int `json:"maxHp,omitempty"`

	Emote         uint8  `json:"emote,omitempty"`
	Speech        string `json:"speech,omitempty"`
	SpeechChannel string `json:"speechChannel,omitempty"`
	CastingSkill  uint16 `json:"castingSkill,omitempty"`
	PvpRank       int    `json:"pvpRank,omitempty"`
}

// New 创建一个站立状态的新条目
func New(id ActorID, class uint16) *Being {
	return &Being{
		ID:        id,
		Class:     class,
		Kind:      KindOf(class),
		WalkSpeed: DefaultWalkSpeed,
	}
}

func (b *Being) Alive() bool { return b.Action != ActionDead }

// SetStatusBlock 合并一个 16 位状态块
func (b *Being) SetStatusBlock(offset uint, bits uint16) {
	b.Status = b.Status.WithBlock(offset, bits)
}

// SetStatusChange 按 id 设置单个状态变化
func (b *Being) SetStatusChange(id uint16, active bool) {
	if active {
		if b.Changes == nil {
			b.Changes = make(map[uint16]bool)
		}
		b.Changes[id] = true
		return
	}
	delete(b.Changes, id)
}

// SetSprite 设置槽位；color 为空时保留原染色
func (b *Being) SetSprite(s Slot, id int, color string) {
	if s < 0 || s >= SlotCount {
		return
	}
	b.Sprites[s].ID = id
	if color != "" {
		b.Sprites[s].Color = color
	}
}

// SetTile 设置当前地块并清空路径终点
func (b *Being) SetTile(x, y uint16) {
	b.X, b.Y = x, y
	b.DstX, b.DstY = x, y
}

// SetDestination 设置终点；与当前地块不同则进入移动
func (b *Being) SetDestination(x, y uint16) {
	b.DstX, b.DstY = x, y
	if x != b.X || y != b.Y {
		b.Action = ActionMove
	}
}

// Registry 外部的角色注册表；本层是它唯一的写者
type Registry interface {
	Find(id ActorID) (*Being, bool)
	// Create 首次出现时创建；返回 nil 表示注册表拒绝（如被屏蔽）
	Create(id ActorID, class uint16) *Being
	Destroy(id ActorID)
	Clear()
}

// Memory 内存注册表
type Memory struct {
	beings  map[ActorID]*Being
	blocked map[ActorID]bool
}

func NewMemory() *Memory {
	return &Memory{beings: make(map[ActorID]*Being), blocked: make(map[ActorID]bool)}
}

func (m *Memory) Find(id ActorID) (*Being, bool) {
	b, ok := m.beings[id]
	return b, ok
}

func (m *Memory) Create(id ActorID, class uint16) *Being {
	if m.blocked[id] {
		return nil
	}
	b := New(id, class)
	m.beings[id] = b
	return b
}

func (m *Memory) Destroy(id ActorID) { delete(m.beings, id) }

func (m *Memory) Clear() { m.beings = make(map[ActorID]*Being) }

// Block 屏蔽某个 id，之后不再创建
func (m *Memory) Block(id ActorID) { m.blocked[id] = true }

func (m *Memory) Len() int { return len(m.beings) }

// Snapshot 按 id 排序的副本
func (m *Memory) Snapshot() []Being {
	out := make([]Being, 0, len(m.beings))
	for _, b := range m.beings {
		c := *b
		if b.Changes != nil {
			c.Changes = make(map[uint16]bool, len(b.Changes))
			for k, v := range b.Changes {
				c.Changes[k] = v
			}
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
