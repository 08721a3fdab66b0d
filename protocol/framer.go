package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// VariableLength 表示该 opcode 在头部后携带 2 字节总长度
const VariableLength = -1

// ErrUnknownPacket 长度表中没有该 opcode，字节流无法继续切分
var ErrUnknownPacket = errors.New("protocol: unknown packet length")

// LengthTable 由方言提供的包长表
type LengthTable interface {
	PacketLength(opcode uint16) (int, bool)
}

// Framer 把连续字节流切分为完整消息
type Framer struct {
	lengths LengthTable
	buf     []byte
}

func NewFramer(lengths LengthTable) *Framer {
	return &Framer{lengths: lengths}
}

// Write 追加从连接读到的字节
func (f *Framer) Write(p []byte) (int, error) {
	f.buf = append(f.buf, p...)
	return len(p), nil
}

// Buffered 尚未组成完整消息的字节数
func (f *Framer) Buffered() int { return len(f.buf) }

// Next 返回下一条完整消息；数据不足时返回 nil, nil
// 返回错误意味着流已失步，调用方应断开连接
func (f *Framer) Next() (*MessageIn, error) {
	if len(f.buf) < 2 {
		return nil, nil
	}
	op := binary.LittleEndian.Uint16(f.buf)
	size, ok := f.lengths.PacketLength(op)
	if !ok {
		return nil, fmt.Errorf("opcode 0x%04x: %w", op, ErrUnknownPacket)
	}
	if size == VariableLength {
		if len(f.buf) < 4 {
			return nil, nil
		}
		size = int(binary.LittleEndian.Uint16(f.buf[2:]))
		if size < 4 {
			return nil, fmt.Errorf("opcode 0x%04x declared %d: %w", op, size, ErrBadLength)
		}
	}
	if size < 2 {
		return nil, fmt.Errorf("opcode 0x%04x table length %d: %w", op, size, ErrBadLength)
	}
	if len(f.buf) < size {
		return nil, nil
	}
	data := make([]byte, size)
	copy(data, f.buf[:size])
	f.buf = f.buf[size:]
	return NewMessageIn(data)
}

// Reset 丢弃缓冲（断线重连）
func (f *Framer) Reset() { f.buf = f.buf[:0] }
