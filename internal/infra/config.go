package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config — корневая структура конфигурации процесса бота.
// Собирается один раз на старте и передается компонентам явно:
// никакой компонент не лезет в глобальное состояние за настройками.
type Config struct {
	Discord  DiscordConfig          `mapstructure:"discord"`
	Panels   map[string]PanelConfig `mapstructure:"panels"`
	Database DatabaseConfig         `mapstructure:"database"`
	Redis    RedisConfig            `mapstructure:"redis"`
	Ops      OpsConfig              `mapstructure:"ops"`
	Engine   EngineConfig           `mapstructure:"engine"`
	Logger   LoggerConfig           `mapstructure:"logger"`
}

// DiscordConfig — токен гейтвея, префикс текстовых команд и статический набор админов.
type DiscordConfig struct {
	Token  string   `mapstructure:"token"`
	Prefix string   `mapstructure:"prefix"`
	Admins []string `mapstructure:"admins"` // Discord ID строками
}

// PanelConfig — одна внешняя панель Pterodactyl: базовый URL и два ключа.
// Неизменяема на все время жизни процесса; ищется по имени на каждом действии.
type PanelConfig struct {
	URL            string `mapstructure:"url"`
	ClientKey      string `mapstructure:"client_key"`      // /api/client (operator)
	ApplicationKey string `mapstructure:"application_key"` // /api/application (elevated)
}

// DatabaseConfig описывает подключение к PostgreSQL.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// RedisConfig описывает подключение к Redis (Pub/Sub режима обслуживания).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// OpsConfig — HTTP-консоль оператора: health, metrics, read-only API.
type OpsConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// Доступ: логин оператора + bcrypt-хэш пароля, токены подписываются RS256
	OperatorUser   string        `mapstructure:"operator_user"`
	OperatorHash   string        `mapstructure:"operator_hash"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	PublicKeyPath  string        `mapstructure:"public_key_path"`
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	PublicKey      []byte
	PrivateKey     []byte
}

// EngineConfig — настройки ядра оркестрации.
type EngineConfig struct {
	SessionTimeout time.Duration `mapstructure:"session_timeout"` // Ожидание ответа в интерактиве

	// Журнал действий (асинхронная пакетная запись)
	JournalBufferSize    int           `mapstructure:"journal_buffer_size"`
	JournalBatchSize     int           `mapstructure:"journal_batch_size"`
	JournalFlushInterval time.Duration `mapstructure:"journal_flush_interval"`

	// Защита панельного API: лимитер и предохранитель (без ретраев)
	PanelRateLimit  float64       `mapstructure:"panel_rate_limit"`
	PanelRateBurst  int           `mapstructure:"panel_rate_burst"`
	PanelTimeout    time.Duration `mapstructure:"panel_timeout"`
	CBMaxRequests   uint32        `mapstructure:"cb_max_requests"`
	CBInterval      time.Duration `mapstructure:"cb_interval"`
	CBTimeout       time.Duration `mapstructure:"cb_timeout"`
	CBMaxConsecFail uint32        `mapstructure:"cb_max_consecutive_failures"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// 2. ENV перекрывает файл: DISCORD_TOKEN=... перекроет discord.token
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Дефолты
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Файла нет — работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if cfg.Discord.Token == "" {
		return nil, errors.New("discord token is required (discord.token or DISCORD_TOKEN)")
	}

	// 6. Ключи подписи токенов ops-консоли: сам PEM может лежать в ENV (Docker/K8s),
	// иначе читаем файл по пути из конфига
	cfg.Ops.PublicKey = loadKeyResource(cfg.Ops.PublicKeyPath, "OPS_PUBLIC_KEY_DATA")
	cfg.Ops.PrivateKey = loadKeyResource(cfg.Ops.PrivateKeyPath, "OPS_PRIVATE_KEY_DATA")

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("discord.prefix", ".")
	v.SetDefault("database.max_conns", 15)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("ops.addr", ":8080")
	v.SetDefault("ops.read_timeout", 5*time.Second)
	v.SetDefault("ops.write_timeout", 10*time.Second)
	v.SetDefault("ops.token_ttl", 24*time.Hour)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("engine.session_timeout", 60*time.Second)
	v.SetDefault("engine.journal_buffer_size", 10000)
	v.SetDefault("engine.journal_batch_size", 100)
	v.SetDefault("engine.journal_flush_interval", 500*time.Millisecond)
	v.SetDefault("engine.panel_rate_limit", 20.0)
	v.SetDefault("engine.panel_rate_burst", 10)
	v.SetDefault("engine.panel_timeout", 15*time.Second)
	v.SetDefault("engine.cb_max_requests", 3)
	v.SetDefault("engine.cb_interval", 5*time.Second)
	v.SetDefault("engine.cb_timeout", 30*time.Second)
	v.SetDefault("engine.cb_max_consecutive_failures", 5)
}

// loadKeyResource — универсальный хелпер: ключ либо целиком в ENV, либо файлом
func loadKeyResource(path string, envDataKey string) []byte {
	if data := os.Getenv(envDataKey); data != "" {
		return []byte(data)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data
		}
	}
	return nil
}
