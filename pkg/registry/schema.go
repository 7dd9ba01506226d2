package registry

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is bumped whenever the on-disk table layout changes in
// a way a Loader built against an older version couldn't read.
const SchemaVersion = 1

// CreateSchema creates every table the serializer needs, the same way
// pkg/store/schema.go laid out NoseyParker's blobs/rules/matches
// tables: one CREATE TABLE IF NOT EXISTS per concern, composed by
// CreateSchema into a single migration entrypoint.
func CreateSchema(db *sql.DB) error {
	steps := []struct {
		name string
		fn   func(*sql.DB) error
	}{
		{"schema_version", createSchemaVersionTable},
		{"media_types", createMediaTypesTable},
		{"rules", createRulesTable},
		{"glob_rules", createGlobRulesTable},
		{"magic_rules", createMagicRulesTable},
		{"magic_conditions", createMagicConditionsTable},
		{"sub_types", createSubTypesTable},
		{"root_types", createRootTypesTable},
	}
	for _, step := range steps {
		if err := step.fn(db); err != nil {
			return fmt.Errorf("creating %s table: %w", step.name, err)
		}
	}
	return nil
}

func createSchemaVersionTable(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return err
	}
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		_, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion)
		return err
	}
	return nil
}

// media_types is the set of every MediaType the registry knows about,
// whether or not it carries any rules of its own (a pure subclass leaf
// that only inherits detection from its parent still needs a row here
// so sub_types/root_types can reference it).
func createMediaTypesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS media_types (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)
	`)
	return err
}

// rules is one row per Rule attached to a media type, in XML order
// (seq). kind is "glob" or "magic"; the row's id is the foreign key
// glob_rules/magic_rules hang off.
func createRulesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS rules (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			media_type_id INTEGER NOT NULL REFERENCES media_types(id),
			kind          TEXT NOT NULL,
			seq           INTEGER NOT NULL
		)
	`)
	return err
}

func createGlobRulesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS glob_rules (
			rule_id   INTEGER PRIMARY KEY REFERENCES rules(id),
			pattern   TEXT NOT NULL,
			glob_type TEXT NOT NULL
		)
	`)
	return err
}

func createMagicRulesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS magic_rules (
			rule_id  INTEGER PRIMARY KEY REFERENCES rules(id),
			priority INTEGER NOT NULL
		)
	`)
	return err
}

// magic_conditions stores the Match tree for a magic rule flattened
// into rows: top-level conditions point back at the owning magic rule
// via magic_rule_id and have a NULL parent_condition_id; nested Single
// children (and the Singles under a Multi) point at their parent via
// parent_condition_id instead. seq preserves sibling order so OR/AND
// semantics survive the round trip.
func createMagicConditionsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS magic_conditions (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			magic_rule_id       INTEGER NOT NULL REFERENCES magic_rules(rule_id),
			parent_condition_id INTEGER REFERENCES magic_conditions(id),
			kind                TEXT NOT NULL,
			offset_from         INTEGER NOT NULL DEFAULT 0,
			offset_count        INTEGER NOT NULL DEFAULT 0,
			bytes               BLOB,
			min_to_match        INTEGER NOT NULL DEFAULT 0,
			seq                 INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_magic_conditions_parent ON magic_conditions(parent_condition_id)`)
	return err
}

func createSubTypesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sub_types (
			parent TEXT NOT NULL,
			child  TEXT NOT NULL,
			UNIQUE(parent, child)
		)
	`)
	return err
}

func createRootTypesTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS root_types (
			name TEXT NOT NULL UNIQUE,
			seq  INTEGER NOT NULL
		)
	`)
	return err
}
