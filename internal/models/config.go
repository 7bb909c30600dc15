package models

import "time"

// Config represents the application configuration
type Config struct {
	API       APIConfig
	Feed      FeedConfig
	State     StateConfig
	View      ViewConfig
	Dashboard DashboardConfig
}

// APIConfig holds backend REST client settings
type APIConfig struct {
	BaseURL      string
	FetchTimeout time.Duration
	FetchLimit   int
}

// FeedConfig holds live feed (websocket) settings
type FeedConfig struct {
	URL               string
	UserID            string
	ReconnectAttempts int
	HandshakeTimeout  time.Duration
}

// StateConfig holds the local persisted-state database settings
type StateConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// ViewConfig holds derivation pipeline settings
type ViewConfig struct {
	PageSize            int
	TransactionPageSize int
	RowHeight           int
	ViewportHeight      int
	SearchDebounce      time.Duration
	NewOrderWindow      time.Duration
}

// DashboardConfig holds orchestration settings
type DashboardConfig struct {
	AutoRefresh      bool
	RefreshInterval  time.Duration
	ProductsFile     string
	TransactionRange time.Duration
}
