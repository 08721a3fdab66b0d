package being

// LocalPlayer 本地控制角色的窄接口；模仿等行为由外部实现
type LocalPlayer interface {
	ID() ActorID
	Name() string
	// Target 当前攻击目标，0 表示无
	Target() ActorID
	StopAttack()
	FixAttackTarget()
	// Imitated 正在模仿的玩家名，空表示不模仿
	Imitated() string
	ImitateAction(b *Being, a Action)
	ImitateDirection(b *Being, d Direction)
	ImitateOutfit(b *Being, s Slot)
	ImitateEmote(b *Being, emote uint8)
}

// HitType 伤害类型
type HitType int

const (
	HitNormal HitType = iota
	HitCritical
	HitMulti
	HitReflect
	HitMiss
)

// Presenter 接收一次性事件（伤害数字、特效、表情）的表现层
type Presenter interface {
	Damage(src, dst *Being, amount int, hit HitType)
	Effect(b *Being, effect int)
	Emote(b *Being, emote uint8)
	Cast(src *Being, target ActorID, x, y uint16, skill uint16, castTime int)
	PvpMode(mode int)
}

// NopLocal 没有本地角色（观察者模式、测试）
type NopLocal struct{}

func (NopLocal) ID() ActorID { return 0 }
func (NopLocal) Name() string { return "" }
func (NopLocal) Target() ActorID { return 0 }
func (NopLocal) StopAttack() {}
func (NopLocal) FixAttackTarget() {}
func (NopLocal) Imitated() string { return "" }
func (NopLocal) ImitateAction(*Being, Action) {}
func (NopLocal) ImitateDirection(*Being, Direction) {}
func (NopLocal) ImitateOutfit(*Being, Slot) {}
func (NopLocal) ImitateEmote(*Being, uint8) {}

// NopPresenter 丢弃所有事件
type NopPresenter struct{}

func (NopPresenter) Damage(*Being, *Being, int, HitType) {}
func (NopPresenter) Effect(*Being, int) {}
func (NopPresenter) Emote(*Being, uint8) {}
func (NopPresenter) Cast(*Being, ActorID, uint16, uint16, uint16, int) {}
func (NopPresenter) PvpMode(int) {}
