package dispatch

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"manaclient/protocol"
)

// ErrOpcodeClaimed 注册时 opcode 已被其他处理器占用
var ErrOpcodeClaimed = errors.New("dispatch: opcode already claimed")

// Handler 声明自己拥有的 opcode 集合并解码这些消息
type Handler interface {
	Name() string
	Opcodes() []uint16
	Handle(msg *protocol.MessageIn) error
}

// Outcome 一次分发的结果
type Outcome int

const (
	Handled Outcome = iota
	Unhandled
	Malformed
)

func (o Outcome) String() string {
	switch o {
	case Handled:
		return "handled"
	case Unhandled:
		return "unhandled"
	case Malformed:
		return "malformed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Registry opcode -> 唯一处理器
// 连接建立时注册一次，断线时 Reset，重连时重建
type Registry struct {
	handlers map[uint16]Handler
	log      *zap.SugaredLogger

	// Observer 可选：每次分发后回调（用于指标）
	Observer func(opcode uint16, o Outcome)
}

func NewRegistry(log *zap.SugaredLogger) *Registry {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Registry{handlers: make(map[uint16]Handler), log: log}
}

// Register 注册处理器；任一 opcode 已被占用则整体拒绝，不做部分注册
func (r *Registry) Register(h Handler) error {
	ops := h.Opcodes()
	for _, op := range ops {
		if owner, ok := r.handlers[op]; ok {
			return fmt.Errorf("%s: opcode 0x%04x owned by %s: %w", h.Name(), op, owner.Name(), ErrOpcodeClaimed)
		}
	}
	seen := make(map[uint16]struct{}, len(ops))
	for _, op := range ops {
		if _, dup := seen[op]; dup {
			return fmt.Errorf("%s: opcode 0x%04x listed twice: %w", h.Name(), op, ErrOpcodeClaimed)
		}
		seen[op] = struct{}{}
	}
	for _, op := range ops {
		r.handlers[op] = h
	}
	r.log.Debugf("registered handler %s for %d opcodes", h.Name(), len(ops))
	return nil
}

// Lookup 返回 opcode 的处理器
func (r *Registry) Lookup(op uint16) (Handler, bool) {
	h, ok := r.handlers[op]
	return h, ok
}

// Opcodes 已注册的 opcode，升序
func (r *Registry) Opcodes() []uint16 {
	ops := make([]uint16, 0, len(r.handlers))
	for op := range r.handlers {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// Dispatch 把消息交给其处理器；未知 opcode 丢弃，解码错误只跳过该消息
func (r *Registry) Dispatch(msg *protocol.MessageIn) Outcome {
	o := r.dispatch(msg)
	if r.Observer != nil {
		r.Observer(msg.ID(), o)
	}
	return o
}

func (r *Registry) dispatch(msg *protocol.MessageIn) Outcome {
	h, ok := r.handlers[msg.ID()]
	if !ok {
		r.log.Debugf("unhandled opcode 0x%04x (%d bytes)", msg.ID(), msg.Len())
		return Unhandled
	}
	if err := h.Handle(msg); err != nil {
		r.log.Warnf("%s: dropped message: %v", h.Name(), err)
		return Malformed
	}
	return Handled
}

// Reset 清空注册表（断线）
func (r *Registry) Reset() {
	r.handlers = make(map[uint16]Handler)
}

// Len 已注册的 opcode 数
func (r *Registry) Len() int { return len(r.handlers) }
