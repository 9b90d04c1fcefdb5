package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

// Config holds all configuration
type Config struct {
	MySQL    MySQLConfig
	Redis    RedisConfig
	Migrate  bool
	HTTPAddr string
	IPAM     IPAMConfig
	Sweeper  SweeperConfig
}

// MySQLConfig holds MySQL configuration
type MySQLConfig struct {
	DSN string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// IPAMConfig holds the address manager's tunables
type IPAMConfig struct {
	DefaultCIDR               string
	DNS1                      string
	DNS2                      string
	KeepDeallocatedIPsForDays int
	IPv6Generator             string
}

// SweeperConfig holds the deallocation sweeper configuration
type SweeperConfig struct {
	Enabled     bool
	IntervalSec int
	LockTTLSec  int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getEnv("MYSQL_DSN", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASS", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Migrate:  getEnv("MIGRATE", "0") == "1",
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		IPAM: IPAMConfig{
			DefaultCIDR:               getEnv("DEFAULT_CIDR", "10.0.0.0/24"),
			DNS1:                      getEnv("DNS1", ""),
			DNS2:                      getEnv("DNS2", ""),
			KeepDeallocatedIPsForDays: getEnvInt("KEEP_DEALLOCATED_IPS_FOR_DAYS", 2),
			IPv6Generator:             getEnv("IPV6_GENERATOR", "tenant_based"),
		},
		Sweeper: SweeperConfig{
			Enabled:     getEnv("SWEEPER_ENABLED", "1") == "1",
			IntervalSec: getEnvInt("SWEEPER_INTERVAL_SEC", 60),
			LockTTLSec:  getEnvInt("SWEEPER_LOCK_TTL_SEC", 55),
		},
	}

	// Validate required fields
	if cfg.MySQL.DSN == "" {
		return nil, fmt.Errorf("MYSQL_DSN is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// LoadFromINI loads configuration from INI file with environment variable override
func LoadFromINI(iniPath string) (*Config, error) {
	// Load INI file
	cfgFile, err := ini.Load(iniPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load INI file: %w", err)
	}

	// Helper function: get value with priority: ENV > INI > default
	getValue := func(envKey, iniSection, iniKey, defaultValue string) string {
		if value := os.Getenv(envKey); value != "" {
			return value
		}
		if value := cfgFile.Section(iniSection).Key(iniKey).String(); value != "" {
			return value
		}
		return defaultValue
	}

	getValueInt := func(envKey, iniSection, iniKey string, defaultValue int) int {
		if value := os.Getenv(envKey); value != "" {
			if intValue, err := strconv.Atoi(value); err == nil {
				return intValue
			}
		}
		if cfgFile.Section(iniSection).HasKey(iniKey) {
			if value, err := cfgFile.Section(iniSection).Key(iniKey).Int(); err == nil {
				return value
			}
		}
		return defaultValue
	}

	getValueBool := func(envKey, iniSection, iniKey string, defaultValue bool) bool {
		if value := os.Getenv(envKey); value != "" {
			return value == "1" || value == "true"
		}
		if value, err := cfgFile.Section(iniSection).Key(iniKey).Bool(); err == nil {
			return value
		}
		return defaultValue
	}

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getValue("MYSQL_DSN", "mysql", "dsn", ""),
		},
		Redis: RedisConfig{
			Addr:     getValue("REDIS_ADDR", "redis", "addr", "localhost:6379"),
			Password: getValue("REDIS_PASS", "redis", "pass", ""),
			DB:       getValueInt("REDIS_DB", "redis", "db", 0),
		},
		Migrate:  getValueBool("MIGRATE", "app", "migrate", false),
		HTTPAddr: getValue("HTTP_ADDR", "http", "addr", ":8080"),
		IPAM: IPAMConfig{
			DefaultCIDR:               getValue("DEFAULT_CIDR", "ipam", "default_cidr", "10.0.0.0/24"),
			DNS1:                      getValue("DNS1", "ipam", "dns1", ""),
			DNS2:                      getValue("DNS2", "ipam", "dns2", ""),
			KeepDeallocatedIPsForDays: getValueInt("KEEP_DEALLOCATED_IPS_FOR_DAYS", "ipam", "keep_deallocated_ips_for_days", 2),
			IPv6Generator:             getValue("IPV6_GENERATOR", "ipam", "ipv6_generator", "tenant_based"),
		},
		Sweeper: SweeperConfig{
			Enabled:     getValueBool("SWEEPER_ENABLED", "sweeper", "enabled", true),
			IntervalSec: getValueInt("SWEEPER_INTERVAL_SEC", "sweeper", "interval_sec", 60),
			LockTTLSec:  getValueInt("SWEEPER_LOCK_TTL_SEC", "sweeper", "lock_ttl_sec", 55),
		},
	}

	// Validate required fields
	if cfg.MySQL.DSN == "" {
		return nil, fmt.Errorf("MYSQL_DSN is required")
	}

	return cfg, nil
}
