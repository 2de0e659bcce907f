// Package config loads sanket settings from the process environment and an
// optional .env file in the working directory. Every lookup has a fallback,
// so embedding applications that never call Load still get a working library.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

const (
	defaultAppEnv      = "local"
	defaultPoolMaxIdle = "16"
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load reads the .env file once. A missing file is not an error.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFile(".env")
	})
	return loadErr
}

// AppEnv reports the runtime environment ("local", "production", ...).
// It selects the log handler format in pkg/logger.
func AppEnv() string {
	_ = Load()
	return get("APP_ENV", defaultAppEnv)
}

// PoolMaxIdle is the number of idle execution workers the shared task pool
// retains for reuse. Workers beyond this count exit after finishing a task.
func PoolMaxIdle() int {
	_ = Load()
	n, err := strconv.Atoi(get("SANKET_POOL_MAX_IDLE", defaultPoolMaxIdle))
	if err != nil || n < 1 {
		return 16
	}
	return n
}

// Get reads any config key by name with an optional fallback.
// Process environment variables take precedence over .env entries.
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_ENV":              defaultAppEnv,
		"SANKET_POOL_MAX_IDLE": defaultPoolMaxIdle,
	}
}

func loadFromFile(envPath string) error {
	loaded := defaultValues()

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}

		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		out[key] = value
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	return nil
}

func get(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}

	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}
