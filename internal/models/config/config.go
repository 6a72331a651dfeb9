package config

import (
	"time"
)

// AppConfig глобальная конфигурация приложения
var AppConfig *Config

// Config основной конфиг
type Config struct {
	Environment string
	Database    DatabaseConfig
	Notify      NotifyConfig
	Workers     WorkersConfig
}

// NotifyConfig настройки канала уведомлений (Telegram)
type NotifyConfig struct {
	Token    string
	Debug    bool
	ChatIDs  []int64 // чаты, в которые шлем уведомления о записях
	Disabled bool    // без токена уведомления выключаются
}

// WorkersConfig интервалы фоновых задач
type WorkersConfig struct {
	ExpirySweepInterval time.Duration
	ReminderInterval    time.Duration
	ReminderHorizon     time.Duration // за сколько до начала занятия напоминать
}
