//go:build !wasm

package registry

// New creates a SQLite-backed Store for native builds.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, errEmptyPath
	}
	return NewSQLite(cfg.Path)
}
