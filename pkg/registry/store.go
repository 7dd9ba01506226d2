// Package registry implements the Registry Serializer/Loader (spec
// §4.C): it turns a compiled types.Registry into a durable form and
// back, so detection-time startup never has to re-walk the Tika XML.
package registry

import (
	"fmt"

	"github.com/tombrisland/r4/pkg/types"
)

// Store persists a compiled Registry and reloads it later. This
// abstracts the backing implementation the same way pkg/store.Store
// abstracted NoseyParker's findings backend, allowing a SQLite-backed
// implementation and a pure in-memory one to share callers.
type Store interface {
	// Save serializes reg, replacing whatever this Store already holds.
	Save(reg *types.Registry) error

	// Load reconstructs the Registry previously written by Save.
	Load() (*types.Registry, error)

	// Close releases any resources the Store holds open.
	Close() error
}

// Config configures Store construction.
type Config struct {
	// Path is the database file path. Use ":memory:" for a transient,
	// process-local database (handy for tests).
	Path string
}

// errEmptyPath and errWasmRequiresMemory are shared by the
// build-tag-specific New implementations in store_default.go and
// store_wasm.go.
var (
	errEmptyPath          = fmt.Errorf("path is required")
	errWasmRequiresMemory = fmt.Errorf("wasm builds only support the :memory: path")
)
