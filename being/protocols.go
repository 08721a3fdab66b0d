package being

import (
	"fmt"

	"manaclient/dialect"
	"manaclient/protocol"
)

// ProtocolFor 方言对应的角色协议
func ProtocolFor(d *dialect.Dialect) (Protocol, error) {
	switch d.Name {
	case dialect.TMWA.Name:
		return tmwaProtocol{}, nil
	case dialect.EAthena.Name:
		return eathenaProtocol{}, nil
	default:
		return nil, fmt.Errorf("being: no protocol for dialect %q", d.Name)
	}
}

// tmwaProtocol 增加变长名字应答与 IP 应答
type tmwaProtocol struct{}

func (tmwaProtocol) Name() string { return "tmwa" }

func (tmwaProtocol) Extend(t HandlerTable) {
	t[protocol.SmsgBeingNameResponse2] = handleNameResponse2
	t[protocol.SmsgBeingIPResponse] = handleIPResponse
}

// eathenaProtocol 0x0195 是完整名字应答：名字、队伍、公会、职位
type eathenaProtocol struct{}

func (eathenaProtocol) Name() string { return "eathena" }

func (eathenaProtocol) Extend(t HandlerTable) {
	t[protocol.SmsgPlayerGuildParty] = handleNameAll
}

func handleNameAll(e *Engine, msg *protocol.MessageIn) error {
	id := ActorID(msg.ReadUint32())
	name := msg.ReadString(24)
	party := msg.ReadString(24)
	guild := msg.ReadString(24)
	pos := msg.ReadString(24)
	if err := msg.Err(); err != nil {
		return err
	}
	e.setName(id, name)
	if b := e.find(id); b != nil {
		b.PartyName, b.GuildName, b.GuildPos = party, guild, pos
	}
	return nil
}
