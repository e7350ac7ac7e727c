package constants

import "time"

const (
	DatabaseConnectTimeout = 10 * time.Second
	RedisPingTimeout       = 5 * time.Second
	ReadinessTimeout       = 2 * time.Second
	ShutdownTimeout        = 30 * time.Second

	HTTPReadTimeout  = 30 * time.Second
	HTTPWriteTimeout = 30 * time.Second
	HTTPIdleTimeout  = 60 * time.Second

	DefaultCacheTTL = 5 * time.Minute

	ConnectRetryInitialInterval = 200 * time.Millisecond
	ConnectRetryMaxInterval     = 2 * time.Second
	ConnectMaxTries             = 5
)
