package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. ROSTER_DATABASE_DSN
const EnvPrefix = "ROSTER_"

// DateFormat is the layout of weekStart
const DateFormat = "2006-01-02"

// RecurringUnavailability blocks a doctor on every day matched by an RRule
type RecurringUnavailability struct {
	DoctorID string `yaml:"doctorID" validate:"required"`
	RRule    string `yaml:"rrule" validate:"required"`
}

// ObjectiveConfig holds the soft objective weights
type ObjectiveConfig struct {
	PreferenceWeight  int64 `yaml:"preferenceWeight" validate:"gte=0"`
	NightSpreadWeight int64 `yaml:"nightSpreadWeight" validate:"gte=0"`
	RatioSpreadWeight int64 `yaml:"ratioSpreadWeight" validate:"gte=0"`
	ShortfallWeight   int64 `yaml:"shortfallWeight" validate:"gte=0"`
}

// RulesConfig holds the tunable limits of the hard rules
type RulesConfig struct {
	MinRestHours      int  `yaml:"minRestHours" validate:"gte=0"`
	NightWindowDays   int  `yaml:"nightWindowDays" validate:"gte=1,lte=7"`
	MaxNightsInWindow int  `yaml:"maxNightsInWindow" validate:"gte=0"`
	MaxWorkedDays     int  `yaml:"maxWorkedDays" validate:"gte=0,lte=7"`
	ExtraStaff        int  `yaml:"extraStaff" validate:"gte=-1"`
	RelaxedStaffing   bool `yaml:"relaxedStaffing" env:"RELAXED_STAFFING"`
}

// SolverConfig holds the search budget
type SolverConfig struct {
	TimeLimit  time.Duration `yaml:"timeLimit" env:"TIME_LIMIT" validate:"gte=0"`
	NumWorkers int           `yaml:"numWorkers" env:"WORKERS" validate:"gte=0"`
	NodeLimit  int64         `yaml:"nodeLimit" validate:"gte=0"`
}

// CapacityConfig controls the capacity extension advisor
type CapacityConfig struct {
	Enabled     bool `yaml:"enabled"`
	Parallelism int  `yaml:"parallelism" env:"PARALLELISM" validate:"gte=0"`
}

// InputConfig selects where the input tables are read from.
// Exactly one of CSVDir and SpreadsheetID must be set.
type InputConfig struct {
	CSVDir        string `yaml:"csvDir,omitempty" env:"CSV_DIR" validate:"required_without=SpreadsheetID,excluded_with=SpreadsheetID"`
	SpreadsheetID string `yaml:"spreadsheetID,omitempty" env:"SPREADSHEET_ID" validate:"required_without=CSVDir"`
}

// OutputConfig selects where rosters are published. Both are optional.
type OutputConfig struct {
	CSVDir        string `yaml:"csvDir,omitempty" env:"CSV_DIR"`
	SpreadsheetID string `yaml:"spreadsheetID,omitempty" env:"SPREADSHEET_ID"`
}

// Config represents the application configuration
type Config struct {
	// WeekStart is the Monday the roster week starts on
	WeekStart string `yaml:"weekStart" env:"WEEK_START" validate:"required,datetime=2006-01-02"`

	Input     InputConfig     `yaml:"input" envPrefix:"INPUT_"`
	Output    OutputConfig    `yaml:"output" envPrefix:"OUTPUT_"`
	Objective ObjectiveConfig `yaml:"objective"`
	Rules     RulesConfig     `yaml:"rules" envPrefix:"RULES_"`
	Solver    SolverConfig    `yaml:"solver" envPrefix:"SOLVER_"`
	Capacity  CapacityConfig  `yaml:"capacity" envPrefix:"CAPACITY_"`

	// DatabaseDSN selects the postgres run store. When empty, runs are
	// stored in DatabaseSheetID, and not at all if that is empty too.
	DatabaseDSN     string `yaml:"databaseDSN,omitempty" env:"DATABASE_DSN"`
	DatabaseSheetID string `yaml:"databaseSheetID,omitempty" env:"DATABASE_SHEET_ID"`

	ListenAddr string `yaml:"listenAddr" env:"LISTEN_ADDR" validate:"required"`

	RecurringUnavailability []RecurringUnavailability `yaml:"recurringUnavailability,omitempty" validate:"dive"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Default returns a configuration with the standard weights and limits.
// Input and WeekStart still have to be provided.
func Default() Config {
	return Config{
		Objective: ObjectiveConfig{
			PreferenceWeight:  3,
			NightSpreadWeight: 6,
			RatioSpreadWeight: 8,
			ShortfallWeight:   1000,
		},
		Rules: RulesConfig{
			MinRestHours:      11,
			NightWindowDays:   3,
			MaxNightsInWindow: 2,
			MaxWorkedDays:     6,
		},
		Solver: SolverConfig{
			TimeLimit:  30 * time.Second,
			NumWorkers: 8,
		},
		Capacity: CapacityConfig{
			Enabled:     true,
			Parallelism: 4,
		},
		ListenAddr: ":8080",
	}
}

// Load loads and validates the configuration from roster_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration with an environment suffix
// For example, env="test" will look for "roster_config.test.yaml"
func LoadWithEnv(envName string) (*Config, error) {
	configPath, err := findConfigFile(envName)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads the configuration from a specific path, applies
// ROSTER_* environment overrides and validates the result
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyEnv overrides configuration fields from ROSTER_* environment variables
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		var aggErr env.AggregateError
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			return fmt.Errorf("invalid environment override: %w", aggErr.Errors[0])
		}
		return fmt.Errorf("invalid environment override: %w", err)
	}
	return nil
}

// Validate validates the configuration struct, the week start and rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	start, err := cfg.WeekStartDate()
	if err != nil {
		return err
	}
	if start.Weekday() != time.Monday {
		return fmt.Errorf("weekStart must be a Monday, got %s", start.Weekday())
	}

	for i, r := range cfg.RecurringUnavailability {
		if _, err := rrule.StrToRRule(r.RRule); err != nil {
			return fmt.Errorf("invalid rrule in recurringUnavailability[%d]: %w", i, err)
		}
	}

	return nil
}

// WeekStartDate parses WeekStart
func (c *Config) WeekStartDate() (time.Time, error) {
	start, err := time.Parse(DateFormat, c.WeekStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid weekStart: %w", err)
	}
	return start, nil
}

// findConfigFile searches for roster_config.yaml
// If env is provided, it adds it as an extension (e.g., "roster_config.test.yaml")
func findConfigFile(envName string) (string, error) {
	configFileName := "roster_config.yaml"
	if envName != "" {
		configFileName = "roster_config." + envName + ".yaml"
	}
	return findFile(configFileName)
}

// findFile looks for name in the current directory, then in the user's home directory
func findFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}
