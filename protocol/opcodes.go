package protocol

// 服务端 -> 客户端（eAthena 家族共用编号；某方言是否支持由其包长表决定）
const (
	SmsgConnectionProblem   uint16 = 0x0081
	SmsgMapLoginSuccess     uint16 = 0x0073
	SmsgServerPing          uint16 = 0x007f
	SmsgWalkResponse        uint16 = 0x0087
	SmsgPlayerStatUpdate1   uint16 = 0x00b0
	SmsgPlayerStatUpdate2   uint16 = 0x00b1
	SmsgPlayerWarp          uint16 = 0x0091
	SmsgItemVisible         uint16 = 0x009d
	SmsgItemDropped         uint16 = 0x009e
	SmsgItemRemove          uint16 = 0x00a1
	SmsgPlayerInventoryAdd  uint16 = 0x00a0
	SmsgPlayerInventory     uint16 = 0x01ee
	SmsgPlayerEquipment     uint16 = 0x00a4
	SmsgPlayerSkills        uint16 = 0x010f
	SmsgNpcMessage          uint16 = 0x00b4
	SmsgNpcClose            uint16 = 0x00b6
	SmsgNpcChoice           uint16 = 0x00b7
	SmsgPartyInfo           uint16 = 0x00fb
	SmsgTradeRequest        uint16 = 0x00e5
	SmsgBeingVisible        uint16 = 0x0078
	SmsgBeingMove           uint16 = 0x007b
	SmsgBeingSpawn          uint16 = 0x007c
	SmsgBeingMove2          uint16 = 0x0086
	SmsgBeingRemove         uint16 = 0x0080
	SmsgBeingResurrect      uint16 = 0x0148
	SmsgBeingAction         uint16 = 0x008a
	SmsgBeingSelfEffect     uint16 = 0x019b
	SmsgBeingEmotion        uint16 = 0x00c0
	SmsgBeingChangeLooks    uint16 = 0x00c3
	SmsgBeingChangeLooks2   uint16 = 0x01d7
	SmsgBeingNameResponse   uint16 = 0x0095
	SmsgBeingNameResponse2  uint16 = 0x0220 // tmwa
	SmsgBeingIPResponse     uint16 = 0x020c // tmwa
	SmsgPlayerGuildParty    uint16 = 0x0195
	SmsgBeingChangeDir      uint16 = 0x009c
	SmsgPlayerUpdate1       uint16 = 0x01d8
	SmsgPlayerUpdate2       uint16 = 0x01d9
	SmsgPlayerMove          uint16 = 0x01da
	SmsgPlayerStop          uint16 = 0x0088
	SmsgPlayerMoveToAttack  uint16 = 0x0139
	SmsgPlayerStatusChange  uint16 = 0x0119
	SmsgBeingStatusChange   uint16 = 0x0196
	SmsgSkillCasting        uint16 = 0x013e
	SmsgSkillCastCancel     uint16 = 0x01b9
	SmsgSkillNoDamage       uint16 = 0x011a
	SmsgPvpMapMode          uint16 = 0x0199
	SmsgPvpSet              uint16 = 0x019a
	SmsgBeingChat           uint16 = 0x008d
	SmsgBeingChat2          uint16 = 0x0223 // tmwa，带 3 字节频道
	SmsgPlayerChat          uint16 = 0x008e
	SmsgWhisper             uint16 = 0x0097
	SmsgWhisperResponse     uint16 = 0x0098
	SmsgGmChat              uint16 = 0x009a
	SmsgMvp                 uint16 = 0x010c
	SmsgIgnoreAllResponse   uint16 = 0x00d2
)

// 客户端 -> 服务端
const (
	CmsgNameRequest uint16 = 0x0094
	CmsgChatMessage uint16 = 0x008c
	CmsgChatWhisper uint16 = 0x0096
	CmsgIgnoreAll   uint16 = 0x00d0
)
