package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// Field tags carry both forms: mapstructure is what viper decodes with,
// json is the on-disk config file shape.
type Config struct {
	Server   ServerConfig   `json:"server" mapstructure:"server"`
	Database DatabaseConfig `json:"database" mapstructure:"database"`
	Telegram TelegramConfig `json:"telegram" mapstructure:"telegram"`
	Provider ProviderConfig `json:"provider" mapstructure:"provider"`
	Quota    QuotaConfig    `json:"quota" mapstructure:"quota"`
	History  HistoryConfig  `json:"history" mapstructure:"history"`
	Prompt   PromptConfig   `json:"prompt" mapstructure:"prompt"`
	Replies  ReplyConfig    `json:"replies" mapstructure:"replies"`
	Menu     MenuConfig     `json:"menu" mapstructure:"menu"`
}

type ServerConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

type DatabaseConfig struct {
	Host         string `json:"host" mapstructure:"host"`
	Port         int    `json:"port" mapstructure:"port"`
	User         string `json:"user" mapstructure:"user"`
	Password     string `json:"password" mapstructure:"password"`
	Database     string `json:"database" mapstructure:"database"`
	SSLMode      string `json:"sslmode" mapstructure:"sslmode"`
	MaxOpenConns int    `json:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns int    `json:"max_idle_conns" mapstructure:"max_idle_conns"`
}

type TelegramConfig struct {
	Token   string `json:"token" mapstructure:"token"`
	BaseURL string `json:"base_url" mapstructure:"base_url"`
}

type ProviderConfig struct {
	BaseURL   string `json:"base_url" mapstructure:"base_url"`
	APIKey    string `json:"api_key" mapstructure:"api_key"`
	Model     string `json:"model" mapstructure:"model"`
	MaxTokens int    `json:"max_tokens" mapstructure:"max_tokens"`
}

type QuotaConfig struct {
	MonthlyCeiling int `json:"monthly_ceiling" mapstructure:"monthly_ceiling"`
}

type HistoryConfig struct {
	SessionWindow int `json:"session_window" mapstructure:"session_window"`
	RecentWindow  int `json:"recent_window" mapstructure:"recent_window"`
	FullWindow    int `json:"full_window" mapstructure:"full_window"`
}

// PromptConfig carries the pieces the orchestrator assembles into the
// inference prompt. Language and length policy live here so a deployment
// can retarget them without a code change.
type PromptConfig struct {
	ContextHeader        string `json:"context_header" mapstructure:"context_header"`
	NoContextMarker      string `json:"no_context_marker" mapstructure:"no_context_marker"`
	UserLabel            string `json:"user_label" mapstructure:"user_label"`
	AssistantLabel       string `json:"assistant_label" mapstructure:"assistant_label"`
	UserMessageHeader    string `json:"user_message_header" mapstructure:"user_message_header"`
	ResponseInstruction  string `json:"response_instruction" mapstructure:"response_instruction"`
	SummarizeInstruction string `json:"summarize_instruction" mapstructure:"summarize_instruction"`
	EmptyHistoryMarker   string `json:"empty_history_marker" mapstructure:"empty_history_marker"`
}

type ReplyConfig struct {
	Welcome            string `json:"welcome" mapstructure:"welcome"`
	Help               string `json:"help" mapstructure:"help"`
	Promo              string `json:"promo" mapstructure:"promo"`
	NewChat            string `json:"new_chat" mapstructure:"new_chat"`
	SummaryCreated     string `json:"summary_created" mapstructure:"summary_created"`
	QuotaExceeded      string `json:"quota_exceeded" mapstructure:"quota_exceeded"`
	RegistrationFailed string `json:"registration_failed" mapstructure:"registration_failed"`
	InferenceFailed    string `json:"inference_failed" mapstructure:"inference_failed"`
	SomethingWentWrong string `json:"something_went_wrong" mapstructure:"something_went_wrong"`
}

type MenuConfig struct {
	NewChatLabel       string `json:"new_chat_label" mapstructure:"new_chat_label"`
	PromoLabel         string `json:"promo_label" mapstructure:"promo_label"`
	RecentSummaryLabel string `json:"recent_summary_label" mapstructure:"recent_summary_label"`
	FullSummaryLabel   string `json:"full_summary_label" mapstructure:"full_summary_label"`
	HelpLabel          string `json:"help_label" mapstructure:"help_label"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	homeDir, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".chatrelay"))
	}

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file is fine; defaults plus env cover everything.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvOverrides(&cfg)

	return &cfg, cfg.validate()
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "chatrelay")
	viper.SetDefault("database.database", "chatrelay")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)

	viper.SetDefault("telegram.base_url", "https://api.telegram.org")

	viper.SetDefault("provider.base_url", "https://openrouter.ai/api")
	viper.SetDefault("provider.model", "meta-llama/llama-4-maverick:free")
	viper.SetDefault("provider.max_tokens", 600)

	viper.SetDefault("quota.monthly_ceiling", 400)

	viper.SetDefault("history.session_window", 10)
	viper.SetDefault("history.recent_window", 100)
	viper.SetDefault("history.full_window", 1000)

	viper.SetDefault("prompt.context_header", "سابقه:")
	viper.SetDefault("prompt.no_context_marker", "ندارد")
	viper.SetDefault("prompt.user_label", "کاربر")
	viper.SetDefault("prompt.assistant_label", "دستیار")
	viper.SetDefault("prompt.user_message_header", "پیام کاربر:")
	viper.SetDefault("prompt.response_instruction", "پاسخ به فارسی (حداکثر ۱۵۰۰ کاراکتر)")
	viper.SetDefault("prompt.summarize_instruction", "متن زیر را خلاصه کن زیر ۱۵۰۰ کاراکتر فارسی:")
	viper.SetDefault("prompt.empty_history_marker", "📭 پیامی نیست")

	viper.SetDefault("replies.welcome", "👋 سلام! من ربات چت هوشمند هستم.\nپیام بفرستید یا از دکمه‌ها استفاده کنید تا با من چت کنید!")
	viper.SetDefault("replies.help", "ℹ️ راهنما:\n/start - شروع چت\n/newchat - چت جدید\n/summary100 - خلاصه ۱۰۰ پیام\n/summaryall - خلاصه همه پیام‌ها\n/youtube - لینک کانال")
	viper.SetDefault("replies.promo", "🌟 اگه از این چت‌بات هوشمند رایگان لذت می‌برید، لطفاً به کانال یوتیوب ما سر بزنید و سابسکرایب کنید! 👇\nhttps://www.youtube.com/@pishnahadebehtar")
	viper.SetDefault("replies.new_chat", "✨ چت جدید آغاز شد!\nپیام جدیدی بفرستید تا دوباره شروع کنیم.")
	viper.SetDefault("replies.summary_created", "📝 خلاصه ایجاد شد!\n%s\nبرای ادامه چت، پیام بفرستید.")
	viper.SetDefault("replies.quota_exceeded", "⛔ سقف مصرف ماهانه پر شده")
	viper.SetDefault("replies.registration_failed", "🚫 خطا در ثبت کاربر")
	viper.SetDefault("replies.inference_failed", "⚠️ خطا در دریافت پاسخ از هوش مصنوعی. لطفاً دوباره تلاش کنید.")
	viper.SetDefault("replies.something_went_wrong", "🚨 خطایی رخ داد! لطفاً دوباره تلاش کنید.")

	viper.SetDefault("menu.new_chat_label", "✨ چت جدید")
	viper.SetDefault("menu.promo_label", "🔴 لطفاً کانال یوتیوب را دنبال کنید")
	viper.SetDefault("menu.recent_summary_label", "📜 خلاصه ۱۰۰ پیام")
	viper.SetDefault("menu.full_summary_label", "📚 خلاصه همه پیام‌ها")
	viper.SetDefault("menu.help_label", "ℹ️ راهنما")
}

func loadEnvOverrides(cfg *Config) {
	if port := os.Getenv("CHATRELAY_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if host := os.Getenv("CHATRELAY_HOST"); host != "" {
		cfg.Server.Host = host
	}

	if token := os.Getenv("TELEGRAM_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		cfg.Provider.APIKey = key
	}
	if model := os.Getenv("OPENROUTER_MODEL"); model != "" {
		cfg.Provider.Model = model
	}

	if dbHost := os.Getenv("POSTGRES_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort := os.Getenv("POSTGRES_PORT"); dbPort != "" {
		if port, err := strconv.Atoi(dbPort); err == nil {
			cfg.Database.Port = port
		}
	}
	if dbUser := os.Getenv("POSTGRES_USER"); dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPass := os.Getenv("POSTGRES_PASSWORD"); dbPass != "" {
		cfg.Database.Password = dbPass
	}
	if dbName := os.Getenv("POSTGRES_DB"); dbName != "" {
		cfg.Database.Database = dbName
	}
}

func (c *Config) validate() error {
	if c.Telegram.Token == "" {
		return errors.New("telegram token is required (TELEGRAM_TOKEN)")
	}
	if c.Provider.APIKey == "" {
		return errors.New("provider API key is required (OPENROUTER_API_KEY)")
	}
	return nil
}
