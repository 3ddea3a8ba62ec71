package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const envFile = "config.env"

type ServerConfig struct {
	Addr   string
	LogDir string
}

type APIConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxIdleConns int

	// JWTSigningKey enables signature checks on incoming tokens when set.
	JWTSigningKey string
}

type WizardConfig struct {
	DepositMinimum    decimal.Decimal
	WithdrawalMinimum decimal.Decimal
	DepositPresets    []decimal.Decimal
	ProofMaxBytes     int64
	IdleTTL           time.Duration
}

type Config struct {
	Server ServerConfig
	API    APIConfig
	Wizard WizardConfig
}

// LoadConfig reads config.env when it exists and then the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	timeout, err := time.ParseDuration(getEnv("API_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid API_TIMEOUT: %w", err)
	}

	maxIdle, err := strconv.Atoi(getEnv("API_MAX_IDLE_CONNS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid API_MAX_IDLE_CONNS: %w", err)
	}

	depositMin, err := decimal.NewFromString(getEnv("DEPOSIT_MIN_AMOUNT", "3000"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEPOSIT_MIN_AMOUNT: %w", err)
	}

	withdrawMin, err := decimal.NewFromString(getEnv("WITHDRAW_MIN_AMOUNT", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid WITHDRAW_MIN_AMOUNT: %w", err)
	}

	presets, err := parseDecimalList(getEnv("DEPOSIT_PRESETS", "3000,5000,10000,25000,50000"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEPOSIT_PRESETS: %w", err)
	}

	proofMax, err := strconv.ParseInt(getEnv("PROOF_MAX_BYTES", strconv.Itoa(5<<20)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid PROOF_MAX_BYTES: %w", err)
	}

	idleTTL, err := time.ParseDuration(getEnv("WIZARD_IDLE_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid WIZARD_IDLE_TTL: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Addr:   getEnv("LISTEN_ADDR", ":8080"),
			LogDir: getEnv("LOG_DIR", "logs"),
		},
		API: APIConfig{
			BaseURL:       strings.TrimRight(getEnv("API_BASE_URL", "http://127.0.0.1:8000/api"), "/"),
			Timeout:       timeout,
			MaxIdleConns:  maxIdle,
			JWTSigningKey: getEnv("JWT_SIGNING_KEY", ""),
		},
		Wizard: WizardConfig{
			DepositMinimum:    depositMin,
			WithdrawalMinimum: withdrawMin,
			DepositPresets:    presets,
			ProofMaxBytes:     proofMax,
			IdleTTL:           idleTTL,
		},
	}, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultVal
}

func parseDecimalList(s string) ([]decimal.Decimal, error) {
	var out []decimal.Decimal
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := decimal.NewFromString(part)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
