package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrShortMessage 读取越过了消息声明的长度
	ErrShortMessage = errors.New("protocol: read past end of message")
	// ErrBadLength 长度字段为负数或小于已消费的头部
	ErrBadLength = errors.New("protocol: bad length field")
)

// MessageIn 一条入站消息：opcode + 顺序读取游标
// 每次读取推进游标；第一次越界读取会记录错误，之后所有读取都返回零值
type MessageIn struct {
	id   uint16
	data []byte // 完整消息（含 opcode 与长度字段）
	pos  int
	err  error
}

// NewMessageIn 包装一条完整的消息字节，游标位于 opcode 之后
func NewMessageIn(data []byte) (*MessageIn, error) {
	if len(data) < 2 {
		return nil, ErrShortMessage
	}
	return &MessageIn{
		id:   binary.LittleEndian.Uint16(data),
		data: data,
		pos:  2,
	}, nil
}

func (m *MessageIn) ID() uint16 { return m.id }

// Len 返回消息总长度（含头部）
func (m *MessageIn) Len() int { return len(m.data) }

func (m *MessageIn) Pos() int { return m.pos }

// Remaining 未读字节数
func (m *MessageIn) Remaining() int { return len(m.data) - m.pos }

// Err 返回第一次读取失败的原因（带 opcode）
func (m *MessageIn) Err() error {
	if m.err == nil {
		return nil
	}
	return fmt.Errorf("opcode 0x%04x at %d/%d: %w", m.id, m.pos, len(m.data), m.err)
}

func (m *MessageIn) fail(err error) {
	if m.err == nil {
		m.err = err
	}
	m.pos = len(m.data)
}

// take 保证 n 字节可读，否则记录错误
func (m *MessageIn) take(n int) []byte {
	if m.err != nil {
		return nil
	}
	if n < 0 {
		m.fail(ErrBadLength)
		return nil
	}
	if m.pos+n > len(m.data) {
		m.fail(ErrShortMessage)
		return nil
	}
	b := m.data[m.pos : m.pos+n]
	m.pos += n
	return b
}

func (m *MessageIn) ReadUint8() uint8 {
	b := m.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (m *MessageIn) ReadInt8() int8 { return int8(m.ReadUint8()) }

func (m *MessageIn) ReadUint16() uint16 {
	b := m.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (m *MessageIn) ReadInt16() int16 { return int16(m.ReadUint16()) }

func (m *MessageIn) ReadUint32() uint32 {
	b := m.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (m *MessageIn) ReadInt32() int32 { return int32(m.ReadUint32()) }

// ReadString 读取定长字段，内容截止到第一个 NUL
func (m *MessageIn) ReadString(n int) string {
	b := m.take(n)
	if b == nil {
		return ""
	}
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// ReadRawString 读取恰好 n 字节，不做截断
func (m *MessageIn) ReadRawString(n int) string {
	b := m.take(n)
	if b == nil {
		return ""
	}
	return string(b)
}

// ReadCoordinates 3 字节：x(10) y(10) dir(4)
func (m *MessageIn) ReadCoordinates() (x, y uint16, dir uint8) {
	b := m.take(3)
	if b == nil {
		return 0, 0, 0
	}
	return UnpackCoordinates([3]byte{b[0], b[1], b[2]})
}

// ReadCoordinatePair 5 字节：srcX srcY dstX dstY 各 10 位，无方向
func (m *MessageIn) ReadCoordinatePair() (srcX, srcY, dstX, dstY uint16) {
	b := m.take(5)
	if b == nil {
		return 0, 0, 0, 0
	}
	return UnpackCoordinatePair([5]byte{b[0], b[1], b[2], b[3], b[4]})
}

// Skip 跳过 n 字节（未知/保留字段）
func (m *MessageIn) Skip(n int) { m.take(n) }

// ReadPayloadLength 读取变长消息的 2 字节总长度，返回去掉 header 字节后的载荷长度
// header 为该消息在载荷之前固定占用的字节数（opcode、长度与其他定长字段）
func (m *MessageIn) ReadPayloadLength(header int) int {
	declared := int(m.ReadUint16())
	if m.err != nil {
		return 0
	}
	n := declared - header
	if n < 0 || declared > len(m.data) {
		m.fail(ErrBadLength)
		return 0
	}
	return n
}
