package cli

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/spardhafest/spardha/internal/config"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from --data-dir, the
// database.data_dir setting (SPARDHA_DATABASE_DATA_DIR), or ~/.spardha.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if dir := viper.GetString("database.data_dir"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".spardha")
}

// openStore opens the configured database.
func openStore() (*config.Store, error) {
	return config.Open(config.Options{
		Driver:  viper.GetString("database.driver"),
		DSN:     viper.GetString("database.dsn"),
		DataDir: resolveDataDir(),
	})
}

// newLogger builds the process logger from the logging settings. dev forces
// debug level.
func newLogger(w io.Writer, level, format string, dev bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	if dev {
		lvl = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// parseDuration parses a duration setting, naming the key in errors. An
// empty value yields zero.
func parseDuration(key, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, value)
	}
	return d, nil
}

// randomSecret returns a hex-encoded 32-byte random secret.
func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// deriveKey derives a purpose-specific 32-byte key from the session secret
// so session tokens, gate tickets and CSRF tokens never share a key.
func deriveKey(secret, purpose string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(purpose))
	return mac.Sum(nil)
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
