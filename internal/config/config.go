package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
		FullName string `env:"FULL_NAME" envDefault:"管理员"`
		Email    string `env:"EMAIL,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"336"` // 小时，14 天
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Seed struct {
		User struct {
			Password string `env:"PASSWORD" envDefault:"changeme"`
		} `envPrefix:"USER_"`
		EmailDomain string `env:"EMAIL_DOMAIN" envDefault:"example.com"`
		DataFile    string `env:"DATA_FILE" envDefault:"./internal/seed/data/technicians.csv"`
	} `envPrefix:"SEED_"`
	Email struct {
		SMTP struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		Queue          string `env:"QUEUE" envDefault:"email_queue"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD,required"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
	} `envPrefix:"REDIS_"`
	OTP struct {
		Expiration int `env:"EXPIRATION" envDefault:"900"` // 15 分钟
	} `envPrefix:"OTP_"`
	Schedule struct {
		// 营业时间窗口以距离当天零点的偏移量表示
		DayStart        time.Duration `env:"DAY_START" envDefault:"8h"`
		DayEnd          time.Duration `env:"DAY_END" envDefault:"18h"`
		SlotStride      time.Duration `env:"SLOT_STRIDE" envDefault:"30m"`
		DefaultDuration time.Duration `env:"DEFAULT_DURATION" envDefault:"60m"`
		GridStep        time.Duration `env:"GRID_STEP" envDefault:"1h"`
		GridDays        int           `env:"GRID_DAYS" envDefault:"7"`
		Timezone        string        `env:"TIMEZONE" envDefault:"Local"`
	} `envPrefix:"SCHEDULE_"`
	Reminder struct {
		Spec      string `env:"SPEC" envDefault:"@every 1m"`
		BatchSize int    `env:"BATCH_SIZE" envDefault:"100"`
	} `envPrefix:"REMINDER_"`
	Export struct {
		RatePerMinute int `env:"RATE_PER_MINUTE" envDefault:"30"`
		Burst         int `env:"BURST" envDefault:"5"`
	} `envPrefix:"EXPORT_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	if cfg.Schedule.DayEnd <= cfg.Schedule.DayStart {
		return nil, errors.New("SCHEDULE_DAY_END 必须晚于 SCHEDULE_DAY_START")
	}
	if cfg.Schedule.SlotStride <= 0 || cfg.Schedule.GridStep <= 0 {
		return nil, errors.New("SCHEDULE_SLOT_STRIDE 和 SCHEDULE_GRID_STEP 必须为正数")
	}

	return cfg, nil
}

// Location 返回排班计算所使用的时区
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Schedule.Timezone)
}
