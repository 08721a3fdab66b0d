package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// 配置键（命令行 flag 与配置文件共用）
const (
	KeyServer           = "server"
	KeyDialect          = "dialect"
	KeyCharacter        = "character"
	KeyLogFile          = "log_file"
	KeyLogLevel         = "log_level"
	KeyAdminAddr        = "admin_addr"
	KeyTickRate         = "tick_rate"
	KeyTradeBot         = "trade_bot"
	KeyShowShopMessages = "show_shop_messages"
)

// Config 客户端运行配置
type Config struct {
	Server           string
	Dialect          string
	Character        string
	LogFile          string
	LogLevel         string
	AdminAddr        string
	TickRate         int
	TradeBot         bool
	ShowShopMessages bool
}

// TickInterval 每 Tick 间隔
func (c Config) TickInterval() time.Duration {
	rate := c.TickRate
	if rate <= 0 {
		rate = TicksPerSecond
	}
	return time.Second / time.Duration(rate)
}

// SetDefaults 默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyServer, "tcp://127.0.0.1:5122")
	v.SetDefault(KeyDialect, "tmwa")
	v.SetDefault(KeyLogFile, "manaclient.log")
	v.SetDefault(KeyLogLevel, "debug")
	v.SetDefault(KeyAdminAddr, ":8080")
	v.SetDefault(KeyTickRate, TicksPerSecond)
	v.SetDefault(KeyTradeBot, false)
	v.SetDefault(KeyShowShopMessages, true)
}

// LoadConfig 读取 manaclient.yaml（当前目录或 $HOME/.manaclient）与 MANACLIENT_* 环境变量
// 配置文件不存在不算错误
func LoadConfig(v *viper.Viper) (Config, error) {
	SetDefaults(v)
	v.SetConfigName("manaclient")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.manaclient")
	v.SetEnvPrefix("manaclient")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	}
	cfg := Config{
		Server:           v.GetString(KeyServer),
		Dialect:          v.GetString(KeyDialect),
		Character:        v.GetString(KeyCharacter),
		LogFile:          v.GetString(KeyLogFile),
		LogLevel:         v.GetString(KeyLogLevel),
		AdminAddr:        v.GetString(KeyAdminAddr),
		TickRate:         v.GetInt(KeyTickRate),
		TradeBot:         v.GetBool(KeyTradeBot),
		ShowShopMessages: v.GetBool(KeyShowShopMessages),
	}
	if cfg.Server == "" {
		return Config{}, errors.New("config: server address is required")
	}
	return cfg, nil
}
