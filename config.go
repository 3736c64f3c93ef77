package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config 服务配置，启动时加载一次，之后只读
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Auth       AuthConfig       `mapstructure:"auth"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Pinyin     PinyinConfig     `mapstructure:"pinyin"`
	Translator TranslatorConfig `mapstructure:"translator"`
	Breaker    BreakerConfig    `mapstructure:"breaker"`
	Bulk       BulkConfig       `mapstructure:"bulk"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Addr              string   `mapstructure:"addr"`
	Mode              string   `mapstructure:"mode"`
	TrustedProxies    []string `mapstructure:"trusted_proxies"`
	EnableTestHeaders bool     `mapstructure:"enable_test_headers"`
}

type AuthConfig struct {
	Headers []string           `mapstructure:"headers"`
	Keys    []CredentialConfig `mapstructure:"keys"`
	// KeysEnv 环境变量简写形式: "key1=alice,key2"
	KeysEnv string `mapstructure:"keys_env"`
}

type CredentialConfig struct {
	Key      string `mapstructure:"key"`
	Identity string `mapstructure:"identity"`
}

type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type PinyinConfig struct {
	// ToneStyle unicode | ascii | none
	ToneStyle    string `mapstructure:"tone_style"`
	SpellNumbers bool   `mapstructure:"spell_numbers"`
	Traditional  bool   `mapstructure:"traditional"`
}

type TranslatorConfig struct {
	Provider   string        `mapstructure:"provider"`
	SourceLang string        `mapstructure:"source_lang"`
	TargetLang string        `mapstructure:"target_lang"`
	Timeout    time.Duration `mapstructure:"timeout"`
	DeepL      DeepLConfig   `mapstructure:"deepl"`
	OpenAI     OpenAIConfig  `mapstructure:"openai"`
}

type DeepLConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type BreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxFailures uint32        `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

type BulkConfig struct {
	// Mismatch error | truncate
	Mismatch string `mapstructure:"mismatch"`
	MaxLines int    `mapstructure:"max_lines"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

const envPrefix = "PINYIN"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.enable_test_headers", true)
	v.SetDefault("auth.headers", []string{"x-access-token", "access_token"})
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 10)
	v.SetDefault("rate_limit.window", time.Minute)
	v.SetDefault("pinyin.tone_style", "unicode")
	v.SetDefault("pinyin.spell_numbers", false)
	v.SetDefault("pinyin.traditional", false)
	v.SetDefault("translator.provider", "deepl")
	v.SetDefault("translator.source_lang", "ZH")
	v.SetDefault("translator.target_lang", "EN-GB")
	v.SetDefault("translator.timeout", 15*time.Second)
	v.SetDefault("translator.deepl.base_url", "")
	v.SetDefault("translator.openai.model", "gpt-4o-mini")
	v.SetDefault("translator.openai.base_url", "")
	v.SetDefault("breaker.enabled", true)
	v.SetDefault("breaker.max_failures", 5)
	v.SetDefault("breaker.open_timeout", 30*time.Second)
	v.SetDefault("bulk.mismatch", "error")
	v.SetDefault("bulk.max_lines", 200)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
}

// newViper 默认值 + 环境变量，flags 可为空
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 兼容旧的环境变量名
	if err := v.BindEnv("translator.deepl.api_key", envPrefix+"_TRANSLATOR_DEEPL_API_KEY", "DEEPL_API_KEY"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("translator.openai.api_key", envPrefix+"_TRANSLATOR_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("auth.keys_env", envPrefix+"_AUTH_KEYS_ENV", "API_KEYS"); err != nil {
		return nil, err
	}

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}
	return v, nil
}

// flagKeys 配置项 -> 命令行参数名
var flagKeys = map[string]string{
	"server.addr":          "addr",
	"log.level":            "log-level",
	"pinyin.tone_style":    "tone",
	"pinyin.spell_numbers": "numbers",
	"pinyin.traditional":   "traditional",
}

// readConfig 读取配置文件（可选），path 为空时在当前目录找 config.yaml
func readConfig(path string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v, err := newViper(flags)
	if err != nil {
		return nil, fmt.Errorf("初始化配置失败: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}
	return v, nil
}

// LoadConfig 读取配置文件（可选）、环境变量和命令行参数，并做一次校验
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	v, err := readConfig(path, flags)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadPinyinConfig 只读取 pinyin 段，本地转写不需要翻译服务的key
func LoadPinyinConfig(path string, flags *pflag.FlagSet) (PinyinConfig, error) {
	var cfg PinyinConfig
	v, err := readConfig(path, flags)
	if err != nil {
		return cfg, err
	}
	if err := v.UnmarshalKey("pinyin", &cfg); err != nil {
		return cfg, fmt.Errorf("解析配置失败: %w", err)
	}
	if _, err := parseToneStyle(cfg.ToneStyle); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Credentials 合并 auth.keys 与简写形式的 keys_env
func (c *Config) Credentials() ([]CredentialConfig, error) {
	creds := append([]CredentialConfig(nil), c.Auth.Keys...)
	extra, err := parseKeysEnv(c.Auth.KeysEnv)
	if err != nil {
		return nil, err
	}
	return append(creds, extra...), nil
}

// parseKeysEnv "k1=alice,k2" -> 未标注身份的key得到 client-<n>
func parseKeysEnv(s string) ([]CredentialConfig, error) {
	var creds []CredentialConfig
	n := 0
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		n++
		key, identity, found := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		identity = strings.TrimSpace(identity)
		if key == "" {
			return nil, fmt.Errorf("keys_env 第%d项缺少key", n)
		}
		if !found {
			identity = fmt.Sprintf("client-%d", n)
		}
		creds = append(creds, CredentialConfig{Key: key, Identity: identity})
	}
	return creds, nil
}

// Validate 启动时校验，错误合并返回
func (c *Config) Validate() error {
	var errs []error

	creds, err := c.Credentials()
	if err != nil {
		errs = append(errs, err)
	} else if _, err := NewCredentialStore(creds); err != nil {
		errs = append(errs, err)
	}
	if len(c.Auth.Headers) == 0 {
		errs = append(errs, errors.New("auth.headers 不能为空"))
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Requests <= 0 {
			errs = append(errs, fmt.Errorf("rate_limit.requests 必须大于0, 当前 %d", c.RateLimit.Requests))
		}
		if c.RateLimit.Window <= 0 {
			errs = append(errs, fmt.Errorf("rate_limit.window 必须大于0, 当前 %s", c.RateLimit.Window))
		}
	}

	if _, err := parseToneStyle(c.Pinyin.ToneStyle); err != nil {
		errs = append(errs, err)
	}

	switch c.Translator.Provider {
	case "deepl":
		if c.Translator.DeepL.APIKey == "" {
			errs = append(errs, errors.New("translator.deepl.api_key 未配置 (DEEPL_API_KEY)"))
		}
	case "openai":
		if c.Translator.OpenAI.APIKey == "" {
			errs = append(errs, errors.New("translator.openai.api_key 未配置 (OPENAI_API_KEY)"))
		}
	default:
		errs = append(errs, fmt.Errorf("不支持的翻译服务: %q", c.Translator.Provider))
	}
	if c.Translator.SourceLang == "" || c.Translator.TargetLang == "" {
		errs = append(errs, errors.New("translator.source_lang / target_lang 不能为空"))
	}

	if c.Breaker.Enabled && c.Breaker.MaxFailures == 0 {
		errs = append(errs, errors.New("breaker.max_failures 必须大于0"))
	}

	if _, err := parseMismatchPolicy(c.Bulk.Mismatch); err != nil {
		errs = append(errs, err)
	}
	if c.Bulk.MaxLines < 0 {
		errs = append(errs, fmt.Errorf("bulk.max_lines 不能为负数: %d", c.Bulk.MaxLines))
	}

	if _, err := parseLogLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format 只支持 text/json: %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("配置校验失败: %w", errors.Join(errs...))
	}
	return nil
}
