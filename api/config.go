package api

import "time"

type ServerConfig struct {
	// Version 會寫入 application_info 指標
	Version string
	DB      DBConfig
	Redis   RedisConfig
	Store   StoreConfig
	CORS    CORSConfig
	Auth    AuthConfig
}

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string
	Schema   string
}

// Enabled 未設定 host 時不連線資料庫，只能搭配遠端儲存端
func (c DBConfig) Enabled() bool {
	return c.Host != ""
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	// LockExpiry 為 (reviewer, article) 鎖的存活時間
	LockExpiry time.Duration

	StreamKeys RedisStreamKeys
}

// Enabled 未設定位址時不使用 Redis，寫入不上鎖也不發布事件
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type RedisStreamKeys struct {
	BidEvents string
}

// StoreConfig 設定遠端的偏好儲存端，URL 為空時使用本機資料庫
type StoreConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

type CORSConfig struct {
	AllowOrigins []string
}

type AuthConfig struct {
	// StoreSecret 為原始紀錄 API 的 HS256 密鑰，空字串表示不驗證
	StoreSecret string
}
