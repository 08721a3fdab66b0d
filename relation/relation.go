package relation

import "strings"

// Permission 对某个玩家允许的行为（位标志）
type Permission uint8

const (
	Emote Permission = 1 << iota
	SpeechFloat
	SpeechLog
	Whisper
	Trade
)

// Default 陌生人的默认权限
const Default = Emote | SpeechFloat | SpeechLog | Whisper | Trade

// Kind 玩家关系
type Kind int

const (
	Neutral Kind = iota
	Friend
	Disregarded
	Ignored
	Erased
	Blacklisted
)

// Permissions 每种关系的权限
func (k Kind) Permissions() Permission {
	switch k {
	case Friend:
		return Emote | SpeechFloat | SpeechLog | Whisper | Trade
	case Disregarded:
		return Emote | SpeechFloat
	case Ignored, Erased:
		return 0
	case Blacklisted:
		return SpeechLog | Whisper
	default:
		return Default
	}
}

// View 只读关系表：应用入站聊天效果前查询，本层从不修改
type View interface {
	HasPermission(name string, p Permission) bool
}

// Table 基于名字的简单关系表实现
type Table struct {
	relations map[string]Kind
	defaults  Permission
}

// NewTable 以关系快照构造；构造后不再改变
func NewTable(relations map[string]Kind, defaults Permission) *Table {
	m := make(map[string]Kind, len(relations))
	for name, k := range relations {
		m[strings.ToLower(name)] = k
	}
	return &Table{relations: m, defaults: defaults}
}

func (t *Table) HasPermission(name string, p Permission) bool {
	perms := t.defaults
	if k, ok := t.relations[strings.ToLower(name)]; ok {
		perms = k.Permissions()
	}
	return perms&p == p
}

// AllowAll 允许一切的视图
type AllowAll struct{}

func (AllowAll) HasPermission(string, Permission) bool { return true }
