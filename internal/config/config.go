package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"bundle-console/internal/models"
)

func Load() (*models.Config, error) {
	fetchTimeout, err := getEnvDuration("FETCH_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	handshakeTimeout, err := getEnvDuration("FEED_HANDSHAKE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	searchDebounce, err := getEnvDuration("SEARCH_DEBOUNCE", 150*time.Millisecond)
	if err != nil {
		return nil, err
	}

	newOrderWindow, err := getEnvDuration("NEW_ORDER_WINDOW", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	refreshInterval, err := getEnvDuration("REFRESH_INTERVAL", 120*time.Second)
	if err != nil {
		return nil, err
	}

	transactionRange, err := getEnvDuration("TRANSACTION_RANGE", 30*24*time.Hour)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		API: models.APIConfig{
			BaseURL:      getEnvString("API_BASE_URL", "http://localhost:4000"),
			FetchTimeout: fetchTimeout,
			FetchLimit:   getEnvInt("FETCH_LIMIT", 500),
		},
		Feed: models.FeedConfig{
			URL:               getEnvString("FEED_URL", "ws://localhost:4000/feed"),
			UserID:            getEnvString("FEED_USER_ID", ""),
			ReconnectAttempts: getEnvInt("FEED_RECONNECT_ATTEMPTS", 5),
			HandshakeTimeout:  handshakeTimeout,
		},
		State: models.StateConfig{
			Path:            getEnvString("STATE_DB_PATH", "console.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		View: models.ViewConfig{
			PageSize:            getEnvInt("PAGE_SIZE", 25),
			TransactionPageSize: getEnvInt("TRANSACTION_PAGE_SIZE", 100),
			RowHeight:           getEnvInt("ROW_HEIGHT", 50),
			ViewportHeight:      getEnvInt("VIEWPORT_HEIGHT", 400),
			SearchDebounce:      searchDebounce,
			NewOrderWindow:      newOrderWindow,
		},
		Dashboard: models.DashboardConfig{
			AutoRefresh:      getEnvBool("AUTO_REFRESH", true),
			RefreshInterval:  refreshInterval,
			ProductsFile:     getEnvString("PRODUCTS_FILE", "products.yaml"),
			TransactionRange: transactionRange,
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
