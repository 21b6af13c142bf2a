// Package config assembles the runtime configuration for the prep commands.
// Layers, each overriding the previous one: compiled defaults, an optional
// YAML file, a .env file in the working directory, then process environment
// variables. Command-line flags in the mains sit on top of all of these.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultBankPath   = "references/questions.json"
	defaultDBPath     = "prep.db"
	defaultListenAddr = ":8080"
	defaultLogMode    = "dev"

	defaultExamQuestionCount   = 90
	defaultExamTestCount       = 15
	defaultExamDurationSeconds = 9000
	defaultTickIntervalMS      = 1000
)

type Config struct {
	// BankPath is the question bank JSON file. BankURL, when set, wins and
	// the bank is fetched over HTTP instead.
	BankPath string `yaml:"bank_path"`
	BankURL  string `yaml:"bank_url"`

	// DBPath is the SQLite file holding progress and notes.
	DBPath string `yaml:"db_path"`

	ListenAddr  string   `yaml:"listen_addr"`
	CORSOrigins []string `yaml:"cors_origins"`

	// LogMode selects the zap encoder: "dev" or "prod".
	LogMode string `yaml:"log_mode"`

	// Exam draw parameters. The defaults are the real exam format; smaller
	// values make short drill exams possible against small banks.
	ExamQuestionCount   int `yaml:"exam_question_count"`
	ExamTestCount       int `yaml:"exam_test_count"`
	ExamDurationSeconds int `yaml:"exam_duration_seconds"`

	// TickIntervalMS is the exam clock resolution in milliseconds.
	TickIntervalMS int `yaml:"tick_interval_ms"`
}

func Default() Config {
	return Config{
		BankPath:            defaultBankPath,
		DBPath:              defaultDBPath,
		ListenAddr:          defaultListenAddr,
		CORSOrigins:         []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		LogMode:             defaultLogMode,
		ExamQuestionCount:   defaultExamQuestionCount,
		ExamTestCount:       defaultExamTestCount,
		ExamDurationSeconds: defaultExamDurationSeconds,
		TickIntervalMS:      defaultTickIntervalMS,
	}
}

// Load builds the configuration. path names a YAML file; when empty, the
// PREP_CONFIG environment variable is consulted, and no file at all is fine.
// A .env file in the working directory is folded into the environment before
// the PREP_* variables are read.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("PREP_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// Missing .env is the normal case, not an error.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.BankPath = envOr("PREP_BANK", c.BankPath)
	c.BankURL = envOr("PREP_BANK_URL", c.BankURL)
	c.DBPath = envOr("PREP_DB", c.DBPath)
	c.ListenAddr = envOr("PREP_ADDR", c.ListenAddr)
	c.CORSOrigins = envList("PREP_CORS_ORIGINS", c.CORSOrigins)
	c.LogMode = envOr("PREP_LOG_MODE", c.LogMode)

	var err error
	if c.ExamQuestionCount, err = envInt("PREP_EXAM_QUESTIONS", c.ExamQuestionCount); err != nil {
		return err
	}
	if c.ExamTestCount, err = envInt("PREP_EXAM_TEST_QUESTIONS", c.ExamTestCount); err != nil {
		return err
	}
	if c.ExamDurationSeconds, err = envInt("PREP_EXAM_DURATION_SECONDS", c.ExamDurationSeconds); err != nil {
		return err
	}
	if c.TickIntervalMS, err = envInt("PREP_TICK_INTERVAL_MS", c.TickIntervalMS); err != nil {
		return err
	}
	return nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.BankPath) == "" && strings.TrimSpace(c.BankURL) == "" {
		return fmt.Errorf("config: either bank_path or bank_url is required")
	}
	if c.ExamQuestionCount <= 0 {
		return fmt.Errorf("config: exam_question_count %d must be positive", c.ExamQuestionCount)
	}
	if c.ExamTestCount < 0 || c.ExamTestCount >= c.ExamQuestionCount {
		return fmt.Errorf("config: exam_test_count %d must be in [0, %d)", c.ExamTestCount, c.ExamQuestionCount)
	}
	if c.ExamDurationSeconds <= 0 {
		return fmt.Errorf("config: exam_duration_seconds %d must be positive", c.ExamDurationSeconds)
	}
	if c.TickIntervalMS <= 0 {
		return fmt.Errorf("config: tick_interval_ms %d must be positive", c.TickIntervalMS)
	}
	return nil
}

func envOr(key, def string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	return value
}

func envInt(key string, def int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer, got %q", key, value)
	}
	return parsed, nil
}

func envList(key string, def []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
