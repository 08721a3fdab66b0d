package chat

// Own 聊天行的来源
type Own int

const (
	OwnPlayer Own = iota // 本地玩家
	OwnOther             // 其他角色
	OwnServer            // 服务器
	OwnGM                // GM 广播
	OwnWhisper           // 收到的私聊
)

// Log 聊天窗口（外部表现层）
type Log interface {
	AddWhisper(nick, text string, own Own)
	Add(text string, own Own, channel string)
}

// ShopMode 交易方向
type ShopMode int

const (
	ShopBuy ShopMode = iota
	ShopSell
)

// Shop 交易机器人协作者，处理私聊里的商店命令
type Shop interface {
	GiveList(nick string, mode ShopMode)
	ProcessRequest(nick, text string, mode ShopMode)
}

// Settings 两个独立开关：是否启用交易机器人、是否显示商店消息
type Settings struct {
	TradeBot         bool `json:"tradeBot"`
	ShowShopMessages bool `json:"showShopMessages"`
}

type nopLog struct{}

func (nopLog) AddWhisper(string, string, Own) {}
func (nopLog) Add(string, Own, string) {}
