package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP (optional; empty URL disables report events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Import
	MaxUploadBytes  int64
	DefaultPageSize int

	// Category taxonomy and budget ceilings. Both decode from JSON env
	// values; absent or malformed input degrades to empty collections.
	Categories []string
	Budgets    *Budgets
}

// Budgets is the immutable category-to-ceiling mapping, loaded once at
// startup. Iteration over Categories() follows configuration insertion order
// so alert output is deterministic.
type Budgets struct {
	order  []string
	limits map[string]decimal.Decimal
}

// EmptyBudgets returns a mapping with no configured ceilings.
func EmptyBudgets() *Budgets {
	return &Budgets{limits: map[string]decimal.Decimal{}}
}

// NewBudgets builds a mapping from ordered category/ceiling pairs.
// Intended for tests; production configuration comes from ParseBudgets.
func NewBudgets(pairs ...BudgetPair) *Budgets {
	b := EmptyBudgets()
	for _, p := range pairs {
		b.add(p.Category, p.Limit)
	}
	return b
}

type BudgetPair struct {
	Category string
	Limit    decimal.Decimal
}

func (b *Budgets) add(category string, limit decimal.Decimal) {
	if _, seen := b.limits[category]; !seen {
		b.order = append(b.order, category)
	}
	b.limits[category] = limit
}

// Categories returns the configured category names in insertion order.
func (b *Budgets) Categories() []string {
	return b.order
}

// Limit returns the ceiling for a category in major units.
func (b *Budgets) Limit(category string) (decimal.Decimal, bool) {
	limit, ok := b.limits[category]
	return limit, ok
}

// Len returns the number of configured ceilings.
func (b *Budgets) Len() int {
	return len(b.order)
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/outgo.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "outgo"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "import_reports"),

		MaxUploadBytes:  getEnvInt64("MAX_UPLOAD_BYTES", 1<<20),
		DefaultPageSize: getEnvInt("DEFAULT_PAGE_SIZE", 20),

		Categories: ParseCategories(os.Getenv("CATEGORIES")),
		Budgets:    ParseBudgets(os.Getenv("CATEGORY_BUDGETS")),
	}

	return cfg
}

// ParseCategories decodes the valid-category set from a JSON array.
// Malformed input degrades to an empty set; it never fails.
func ParseCategories(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var categories []string
	if err := json.Unmarshal([]byte(raw), &categories); err != nil {
		slog.Warn("Malformed CATEGORIES value, using empty category set", "error", err)
		return nil
	}
	return categories
}

// ParseBudgets decodes the budget mapping from a JSON object, preserving key
// order. Malformed input degrades to an empty mapping; it never fails.
func ParseBudgets(raw string) *Budgets {
	budgets := EmptyBudgets()
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return budgets
	}

	// encoding/json maps lose key order, so walk the token stream instead.
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		slog.Warn("Malformed CATEGORY_BUDGETS value, using empty budget mapping", "error", err)
		return EmptyBudgets()
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		slog.Warn("CATEGORY_BUDGETS is not a JSON object, using empty budget mapping")
		return EmptyBudgets()
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			slog.Warn("Malformed CATEGORY_BUDGETS value, using empty budget mapping", "error", err)
			return EmptyBudgets()
		}
		key, ok := keyTok.(string)
		if !ok {
			return EmptyBudgets()
		}

		valTok, err := dec.Token()
		if err != nil {
			slog.Warn("Malformed CATEGORY_BUDGETS value, using empty budget mapping", "error", err)
			return EmptyBudgets()
		}
		num, ok := valTok.(json.Number)
		if !ok {
			slog.Warn("Non-numeric budget ceiling, using empty budget mapping", "category", key)
			return EmptyBudgets()
		}
		limit, err := decimal.NewFromString(num.String())
		if err != nil {
			slog.Warn("Unparseable budget ceiling, using empty budget mapping", "category", key, "error", err)
			return EmptyBudgets()
		}
		budgets.add(key, limit)
	}

	return budgets
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.MaxUploadBytes < 1 {
		errs = append(errs, fmt.Sprintf("invalid max upload size %d: must be at least 1 byte", c.MaxUploadBytes))
	}
	if c.DefaultPageSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid default page size %d: must be at least 1", c.DefaultPageSize))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}
