package protocol

import "encoding/binary"

// MessageOut 出站消息构造器
// 变长消息在 opcode 之后预留 2 字节长度，Bytes() 时回填
type MessageOut struct {
	id       uint16
	buf      []byte
	variable bool
}

func NewMessageOut(id uint16) *MessageOut {
	m := &MessageOut{id: id, buf: make([]byte, 0, 16)}
	m.WriteUint16(id)
	return m
}

// NewVariableMessageOut 创建变长消息，长度在 Bytes() 中回填
func NewVariableMessageOut(id uint16) *MessageOut {
	m := NewMessageOut(id)
	m.variable = true
	m.WriteUint16(0)
	return m
}

func (m *MessageOut) ID() uint16 { return m.id }

func (m *MessageOut) WriteUint8(v uint8) { m.buf = append(m.buf, v) }

func (m *MessageOut) WriteInt8(v int8) { m.WriteUint8(uint8(v)) }

func (m *MessageOut) WriteUint16(v uint16) { m.buf = binary.LittleEndian.AppendUint16(m.buf, v) }

func (m *MessageOut) WriteInt16(v int16) { m.WriteUint16(uint16(v)) }

func (m *MessageOut) WriteUint32(v uint32) { m.buf = binary.LittleEndian.AppendUint32(m.buf, v) }

func (m *MessageOut) WriteInt32(v int32) { m.WriteUint32(uint32(v)) }

// WriteString 写入定长字段：超长截断，不足补 NUL
func (m *MessageOut) WriteString(s string, n int) {
	if len(s) > n {
		s = s[:n]
	}
	m.buf = append(m.buf, s...)
	for i := len(s); i < n; i++ {
		m.buf = append(m.buf, 0)
	}
}

// WriteRawString 原样写入
func (m *MessageOut) WriteRawString(s string) { m.buf = append(m.buf, s...) }

func (m *MessageOut) WriteCoordinates(x, y uint16, dir uint8) {
	b := PackCoordinates(x, y, dir)
	m.buf = append(m.buf, b[:]...)
}

func (m *MessageOut) WriteCoordinatePair(srcX, srcY, dstX, dstY uint16) {
	b := PackCoordinatePair(srcX, srcY, dstX, dstY)
	m.buf = append(m.buf, b[:]...)
}

// Bytes 返回最终字节；变长消息回填总长度
func (m *MessageOut) Bytes() []byte {
	if m.variable {
		binary.LittleEndian.PutUint16(m.buf[2:4], uint16(len(m.buf)))
	}
	return m.buf
}

// Sender 出站消息的写端（会话实现）
type Sender interface {
	Send(msg *MessageOut) error
}
