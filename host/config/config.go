// Package config loads ledctl options with the precedence
// CLI flags > LEDCTL_* environment variables > TOML file > flag defaults.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvPrefix is prepended to every env tag
const EnvPrefix = "LEDCTL_"

// DefaultFile is read when --config is not given
const DefaultFile = "ledctl.toml"

// Options is the flat ledctl configuration. Field names map to flag names
// (SysfsLed -> --sysfs-led), toml tags to dotted file keys.
type Options struct {
	Config string

	Backend  string `toml:"gpio.backend" env:"GPIO_BACKEND"`
	Chip     string `toml:"gpio.chip" env:"GPIO_CHIP"`
	SysfsLed string `toml:"gpio.sysfs_led" env:"GPIO_SYSFS_LED"`

	Pin                int    `toml:"led.pin" env:"LED_PIN"`
	Polarity           string `toml:"led.polarity" env:"LED_POLARITY"`
	Core               int    `toml:"led.core" env:"LED_CORE"`
	RejectWhileRunning bool   `toml:"led.reject_while_running" env:"LED_REJECT_WHILE_RUNNING"`
	TickMs             int    `toml:"runtime.tick_ms" env:"RUNTIME_TICK_MS"`

	Device string `toml:"serial.device" env:"SERIAL_DEVICE"`
	Baud   int    `toml:"serial.baud" env:"SERIAL_BAUD"`

	LogLevel  string `toml:"logging.level" env:"LOGGING_LEVEL"`
	LogFormat string `toml:"logging.format" env:"LOGGING_FORMAT"`

	MetricsAddr string `toml:"metrics.addr" env:"METRICS_ADDR"`
}

// Defaults returns the values flags fall back to
func Defaults() Options {
	return Options{
		Config:    DefaultFile,
		Backend:   "gpiocdev",
		Chip:      "gpiochip0",
		Pin:       2,
		Polarity:  "active-high",
		Core:      -1,
		TickMs:    1,
		Device:    "/dev/ttyACM0",
		Baud:      115200,
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// Validate checks values that the flag parser cannot
func (o *Options) Validate() error {
	switch o.Backend {
	case "gpiocdev", "sysfs", "dry-run":
	default:
		return fmt.Errorf("backend %q: want gpiocdev, sysfs or dry-run", o.Backend)
	}
	if o.Pin < 0 {
		return fmt.Errorf("pin %d is negative", o.Pin)
	}
	if o.TickMs <= 0 {
		return fmt.Errorf("tick-ms must be positive, got %d", o.TickMs)
	}
	switch o.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log format %q: want console or json", o.LogFormat)
	}
	return nil
}

// LoadConfig loads configuration with proper precedence: CLI args > env vars > config file.
// If cmd is provided, flags explicitly set via CLI will not be overwritten.
// A missing config file is not an error.
func LoadConfig(opts any, cmd *cobra.Command) error {
	v := reflect.ValueOf(opts).Elem()
	t := v.Type()

	changedFlags := make(map[string]bool)
	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				changedFlags[f.Name] = true
			}
		})
	}

	var configPath string
	if f := v.FieldByName("Config"); f.IsValid() {
		configPath = f.String()
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			var config map[string]any
			if err := toml.Unmarshal(data, &config); err != nil {
				return fmt.Errorf("failed to parse TOML config %s: %w", configPath, err)
			}
			for i := 0; i < v.NumField(); i++ {
				fieldType := t.Field(i)
				if changedFlags[fieldNameToFlag(fieldType.Name)] {
					continue
				}
				if tomlPath := fieldType.Tag.Get("toml"); tomlPath != "" {
					if value := getNestedValue(config, tomlPath); value != nil {
						if err := setFieldValue(v.Field(i), value); err != nil {
							return fmt.Errorf("%s: %w", tomlPath, err)
						}
					}
				}
			}
		case !os.IsNotExist(err):
			return fmt.Errorf("read config: %w", err)
		}
	}

	for i := 0; i < v.NumField(); i++ {
		fieldType := t.Field(i)
		if changedFlags[fieldNameToFlag(fieldType.Name)] {
			continue
		}
		if envKey := fieldType.Tag.Get("env"); envKey != "" {
			if envValue := os.Getenv(EnvPrefix + envKey); envValue != "" {
				if err := setFieldValueFromString(v.Field(i), envValue); err != nil {
					return fmt.Errorf("%s%s: %w", EnvPrefix, envKey, err)
				}
			}
		}
	}

	return nil
}

// fieldNameToFlag converts a struct field name to a CLI flag name.
// Example: "LogLevel" -> "log-level", "Pin" -> "pin".
func fieldNameToFlag(fieldName string) string {
	var result []rune
	for i, r := range fieldName {
		if i > 0 && unicode.IsUpper(r) {
			result = append(result, '-')
		}
		result = append(result, unicode.ToLower(r))
	}
	return string(result)
}

// getNestedValue retrieves a value from nested map using dot notation.
func getNestedValue(data map[string]any, path string) any {
	parts := strings.Split(path, ".")
	current := data

	for i, part := range parts {
		if i == len(parts)-1 {
			return current[part]
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return nil
}

func setFieldValue(field reflect.Value, value any) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("want string, got %T", value)
		}
		field.SetString(s)
	case reflect.Bool:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("want bool, got %T", value)
		}
		field.SetBool(b)
	case reflect.Int:
		// go-toml decodes integers into map[string]any as int64
		i, ok := value.(int64)
		if !ok {
			return fmt.Errorf("want integer, got %T", value)
		}
		field.SetInt(i)
	}
	return nil
}

func setFieldValueFromString(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(i)
	}
	return nil
}
