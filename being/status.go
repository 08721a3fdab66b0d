package being

import "fmt"

// StatusEffects 状态效果位图：三个 16 位块，偏移 0 / 16 / 32
// 块 0 来自 option，块 16 来自 opt2，块 32 来自 opt3
type StatusEffects uint64

// 块偏移
const (
	BlockOption = 0
	BlockOpt2   = 16
	BlockOpt3   = 32
	blockBits   = 48
)

// WithBlock 只替换 [offset, offset+16) 范围内的位，其余位保持不变
func (s StatusEffects) WithBlock(offset uint, bits uint16) StatusEffects {
	mask := StatusEffects(0xffff) << offset
	return (s &^ mask) | (StatusEffects(bits) << offset)
}

// Block 读出某个块
func (s StatusEffects) Block(offset uint) uint16 {
	return uint16(s >> offset)
}

// Bit 块索引 i 是否置位
func (s StatusEffects) Bit(i int) bool {
	return i >= 0 && i < blockBits && s&(1<<uint(i)) != 0
}

// Effects 当前置位的效果
func (s StatusEffects) Effects() []EffectID {
	var out []EffectID
	for i := 0; i < blockBits; i++ {
		if s.Bit(i) {
			out = append(out, BlockEffect(i))
		}
	}
	return out
}

// Has 效果是否处于激活状态
func (s StatusEffects) Has(id EffectID) bool {
	i, ok := effectBlockIndex[id]
	return ok && s.Bit(i)
}

// EffectID 状态效果标识
type EffectID uint16

const (
	EffectSight EffectID = iota + 1
	EffectHide
	EffectCloak
	EffectCart
	EffectFalcon
	EffectRiding
	EffectInvisible
	EffectOrcHead
	EffectWedding
	EffectRuwach
	EffectChaseWalk
	EffectFlying
	EffectPoison
	EffectCurse
	EffectSilence
	EffectConfusion
	EffectBlind
	EffectAngelus
	EffectBleeding
	EffectDeadlyPoison
	EffectQuicken
	EffectOverthrust
	EffectEnergyCoat
	EffectExplosionSpirits
	EffectSteelBody
	EffectBladeStop
	EffectAuraBlade
	EffectBerserk
	EffectLightBlade
	EffectMadness
	EffectSunStance

	// effectUnnamed 起的 id 对应没有名字的块位：effectUnnamed + 块索引
	effectUnnamed EffectID = 1000
)

var effectNames = map[EffectID]string{
	EffectSight: "sight", EffectHide: "hide", EffectCloak: "cloak", EffectCart: "cart",
	EffectFalcon: "falcon", EffectRiding: "riding", EffectInvisible: "invisible",
	EffectOrcHead: "orc-head", EffectWedding: "wedding", EffectRuwach: "ruwach",
	EffectChaseWalk: "chase-walk", EffectFlying: "flying", EffectPoison: "poison",
	EffectCurse: "curse", EffectSilence: "silence", EffectConfusion: "confusion",
	EffectBlind: "blind", EffectAngelus: "angelus", EffectBleeding: "bleeding",
	EffectDeadlyPoison: "deadly-poison", EffectQuicken: "quicken",
	EffectOverthrust: "overthrust", EffectEnergyCoat: "energy-coat",
	EffectExplosionSpirits: "explosion-spirits", EffectSteelBody: "steel-body",
	EffectBladeStop: "blade-stop", EffectAuraBlade: "aura-blade", EffectBerserk: "berserk",
	EffectLightBlade: "light-blade", EffectMadness: "madness", EffectSunStance: "sun-stance",
}

func (e EffectID) String() string {
	if n, ok := effectNames[e]; ok {
		return n
	}
	if e >= effectUnnamed {
		return fmt.Sprintf("block-bit-%d", int(e-effectUnnamed))
	}
	return fmt.Sprintf("effect(%d)", int(e))
}

// blockEffects 块索引 -> 效果；固定映射，与写入该位的调用点无关
var blockEffects = func() [blockBits]EffectID {
	var t [blockBits]EffectID
	for i := range t {
		t[i] = effectUnnamed + EffectID(i)
	}
	named := map[int]EffectID{
		// option
		0: EffectSight, 1: EffectHide, 2: EffectCloak, 3: EffectCart,
		4: EffectFalcon, 5: EffectRiding, 6: EffectInvisible,
		11: EffectOrcHead, 12: EffectWedding, 13: EffectRuwach,
		14: EffectChaseWalk, 15: EffectFlying,
		// opt2
		16: EffectPoison, 17: EffectCurse, 18: EffectSilence, 19: EffectConfusion,
		20: EffectBlind, 21: EffectAngelus, 22: EffectBleeding, 23: EffectDeadlyPoison,
		// opt3
		32: EffectQuicken, 33: EffectOverthrust, 34: EffectEnergyCoat,
		35: EffectExplosionSpirits, 36: EffectSteelBody, 37: EffectBladeStop,
		38: EffectAuraBlade, 39: EffectBerserk, 40: EffectLightBlade,
		41: EffectMadness, 42: EffectSunStance,
	}
	for i, id := range named {
		t[i] = id
	}
	return t
}()

var effectBlockIndex = func() map[EffectID]int {
	m := make(map[EffectID]int, blockBits)
	for i, id := range blockEffects {
		m[id] = i
	}
	return m
}()

// BlockEffect 块索引对应的效果
func BlockEffect(i int) EffectID {
	if i < 0 || i >= blockBits {
		return 0
	}
	return blockEffects[i]
}
