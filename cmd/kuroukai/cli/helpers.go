package cli

import (
	"os"

	"github.com/spf13/viper"

	"github.com/Kuroukai/Kuroukai-api/internal/keys"
	"github.com/Kuroukai/Kuroukai-api/internal/store"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from --data-dir flag,
// KUROUKAI_DATA_DIR env var, or ~/.kuroukai as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("KUROUKAI_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return home + "/.kuroukai"
}

// openKeyStore opens the key store using the configured driver. With no
// store configuration this is the embedded SQLite database under the data
// directory.
func openKeyStore() (*store.Store, error) {
	return store.New(store.Options{
		Driver:  viper.GetString("store.driver"),
		DSN:     viper.GetString("store.dsn"),
		DataDir: resolveDataDir(),
	})
}

// newKeyService builds a key service on top of the given store with the
// configured TTL ceiling.
func newKeyService(st *store.Store) *keys.Service {
	return keys.NewService(st, keys.Config{
		MaxTTLHours: viper.GetInt("keys.max_ttl_hours"),
	})
}
