//go:build !wasm

package registry

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/tombrisland/r4/pkg/types"
	_ "modernc.org/sqlite"
)

// SQLiteStore is the native Registry Store, grounded on pkg/store's
// SQLiteStore: a single *sql.DB opened with WAL journaling, schema
// created eagerly, every write wrapped in a transaction.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save replaces the database contents with reg, inside one transaction
// so a failure partway through never leaves a half-written registry.
func (s *SQLiteStore) Save(reg *types.Registry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := clearAll(tx); err != nil {
		return fmt.Errorf("clearing existing registry: %w", err)
	}

	mediaTypeIDs := make(map[types.MediaType]int64)
	ensureMediaType := func(mt types.MediaType) (int64, error) {
		if id, ok := mediaTypeIDs[mt]; ok {
			return id, nil
		}
		res, err := tx.Exec("INSERT OR IGNORE INTO media_types (name) VALUES (?)", string(mt))
		if err != nil {
			return 0, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		if id == 0 {
			// Row already existed from an earlier INSERT OR IGNORE no-op.
			if err := tx.QueryRow("SELECT id FROM media_types WHERE name = ?", string(mt)).Scan(&id); err != nil {
				return 0, err
			}
		}
		mediaTypeIDs[mt] = id
		return id, nil
	}

	// orderedTypes must be deterministic across runs so that Load's
	// ORDER BY media_type_id, seq query reconstructs GlobRules/MagicRules
	// in the same order every time. reg.GlobRules and reg.MagicRules are
	// already stable, priority-sorted slices, so they seed the order;
	// reg.RootTypes is a slice too. Only the map-only stragglers (a
	// media_type that appears solely as a sub_types key or value, with
	// no rules of its own) need a fallback, and that fallback sorts its
	// keys alphabetically rather than relying on Go's randomized map
	// iteration order.
	var orderedTypes []types.MediaType
	seen := make(map[types.MediaType]bool)
	collect := func(mt types.MediaType) {
		if !seen[mt] {
			seen[mt] = true
			orderedTypes = append(orderedTypes, mt)
		}
	}
	for _, entry := range reg.GlobRules {
		collect(entry.Type)
	}
	for _, entry := range reg.MagicRules {
		collect(entry.Type)
	}
	for _, mt := range reg.RootTypes {
		collect(mt)
	}

	var stragglers []types.MediaType
	for mt := range reg.RulesByType {
		if !seen[mt] {
			stragglers = append(stragglers, mt)
		}
	}
	for parent, children := range reg.SubTypes {
		if !seen[parent] {
			stragglers = append(stragglers, parent)
		}
		for _, c := range children {
			if !seen[c] {
				stragglers = append(stragglers, c)
			}
		}
	}
	sort.Slice(stragglers, func(i, j int) bool { return stragglers[i] < stragglers[j] })
	for _, mt := range stragglers {
		collect(mt)
	}

	for _, mt := range orderedTypes {
		if _, err := ensureMediaType(mt); err != nil {
			return fmt.Errorf("inserting media type %s: %w", mt, err)
		}
	}

	for _, mt := range orderedTypes {
		mtID := mediaTypeIDs[mt]
		for seq, rule := range reg.RulesByType[mt] {
			ruleID, err := insertRule(tx, mtID, rule.Kind, seq)
			if err != nil {
				return fmt.Errorf("inserting rule for %s: %w", mt, err)
			}
			switch rule.Kind {
			case types.RuleGlob:
				if err := insertGlobRule(tx, ruleID, rule.Glob); err != nil {
					return fmt.Errorf("inserting glob rule for %s: %w", mt, err)
				}
			case types.RuleMagic:
				if err := insertMagicRule(tx, ruleID, rule.Magic); err != nil {
					return fmt.Errorf("inserting magic rule for %s: %w", mt, err)
				}
			}
		}
	}

	for i, mt := range reg.RootTypes {
		if _, err := tx.Exec("INSERT OR IGNORE INTO root_types (name, seq) VALUES (?, ?)", string(mt), i); err != nil {
			return fmt.Errorf("inserting root type %s: %w", mt, err)
		}
	}
	subTypeParents := make([]types.MediaType, 0, len(reg.SubTypes))
	for parent := range reg.SubTypes {
		subTypeParents = append(subTypeParents, parent)
	}
	sort.Slice(subTypeParents, func(i, j int) bool { return subTypeParents[i] < subTypeParents[j] })
	for _, parent := range subTypeParents {
		children := reg.SubTypes[parent]
		for _, child := range children {
			if _, err := tx.Exec("INSERT OR IGNORE INTO sub_types (parent, child) VALUES (?, ?)", string(parent), string(child)); err != nil {
				return fmt.Errorf("inserting sub_type %s->%s: %w", parent, child, err)
			}
		}
	}

	return tx.Commit()
}

func clearAll(tx *sql.Tx) error {
	tables := []string{"magic_conditions", "magic_rules", "glob_rules", "rules", "sub_types", "root_types", "media_types"}
	for _, t := range tables {
		if _, err := tx.Exec("DELETE FROM " + t); err != nil {
			return err
		}
	}
	return nil
}

func insertRule(tx *sql.Tx, mediaTypeID int64, kind types.RuleKind, seq int) (int64, error) {
	kindStr := "glob"
	if kind == types.RuleMagic {
		kindStr = "magic"
	}
	res, err := tx.Exec("INSERT INTO rules (media_type_id, kind, seq) VALUES (?, ?, ?)", mediaTypeID, kindStr, seq)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertGlobRule(tx *sql.Tx, ruleID int64, g types.GlobRule) error {
	_, err := tx.Exec("INSERT INTO glob_rules (rule_id, pattern, glob_type) VALUES (?, ?, ?)", ruleID, g.Pattern, g.GlobType.String())
	return err
}

func insertMagicRule(tx *sql.Tx, ruleID int64, m types.MagicRule) error {
	if _, err := tx.Exec("INSERT INTO magic_rules (rule_id, priority) VALUES (?, ?)", ruleID, m.Priority); err != nil {
		return err
	}
	for seq, cond := range m.Conditions {
		if err := insertMatchCondition(tx, ruleID, nil, cond, seq); err != nil {
			return err
		}
	}
	return nil
}

// insertMatchCondition recursively flattens a Match tree: a Single's
// nested Conditions become child rows pointing back at this row's id
// via parent_condition_id; a Multi's Conditions become child rows the
// same way, distinguished only by this row's own kind/min_to_match.
func insertMatchCondition(tx *sql.Tx, magicRuleID int64, parentID *int64, m types.Match, seq int) error {
	kindStr := "single"
	var offsetFrom, offsetCount, minToMatch int
	var bytesVal []byte
	switch m.Kind {
	case types.MatchSingle:
		offsetFrom = int(m.Single.Offset.From)
		offsetCount = int(m.Single.Offset.Count)
		bytesVal = m.Single.Bytes
	case types.MatchMulti:
		kindStr = "multi"
		minToMatch = int(m.Multi.MinToMatch)
	}

	res, err := tx.Exec(
		`INSERT INTO magic_conditions (magic_rule_id, parent_condition_id, kind, offset_from, offset_count, bytes, min_to_match, seq)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		magicRuleID, nullableInt64(parentID), kindStr, offsetFrom, offsetCount, bytesVal, minToMatch, seq,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	var children []types.Single
	switch m.Kind {
	case types.MatchSingle:
		children = m.Single.Conditions
	case types.MatchMulti:
		children = m.Multi.Conditions
	}
	for childSeq, child := range children {
		childMatch := types.NewSingleMatch(child)
		if err := insertMatchCondition(tx, magicRuleID, &id, childMatch, childSeq); err != nil {
			return err
		}
	}
	return nil
}

func nullableInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// Load reconstructs a Registry from the database, rebuilding
// RulesByType before deriving the flattened MagicRules/GlobRules lists
// exactly as pkg/compiler does after parsing XML.
func (s *SQLiteStore) Load() (*types.Registry, error) {
	mediaTypeNames := make(map[int64]types.MediaType)
	rows, err := s.db.Query("SELECT id, name FROM media_types")
	if err != nil {
		return nil, fmt.Errorf("loading media_types: %w", err)
	}
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return nil, err
		}
		mediaTypeNames[id] = types.MediaType(name)
	}
	rows.Close()

	reg := types.NewRegistry()
	var orderedTypes []types.MediaType
	orderSeen := make(map[types.MediaType]bool)

	ruleRows, err := s.db.Query("SELECT id, media_type_id, kind FROM rules ORDER BY media_type_id, seq")
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	type ruleRow struct {
		id   int64
		mt   types.MediaType
		kind string
	}
	var ruleRowsList []ruleRow
	for ruleRows.Next() {
		var id, mtID int64
		var kind string
		if err := ruleRows.Scan(&id, &mtID, &kind); err != nil {
			ruleRows.Close()
			return nil, err
		}
		mt := mediaTypeNames[mtID]
		ruleRowsList = append(ruleRowsList, ruleRow{id: id, mt: mt, kind: kind})
		if !orderSeen[mt] {
			orderSeen[mt] = true
			orderedTypes = append(orderedTypes, mt)
		}
	}
	ruleRows.Close()

	for _, rr := range ruleRowsList {
		var rule types.Rule
		switch rr.kind {
		case "glob":
			var pattern, globType string
			if err := s.db.QueryRow("SELECT pattern, glob_type FROM glob_rules WHERE rule_id = ?", rr.id).Scan(&pattern, &globType); err != nil {
				return nil, fmt.Errorf("loading glob_rules row %d: %w", rr.id, err)
			}
			rule = types.NewGlobRule(types.GlobRule{Pattern: pattern, GlobType: parseGlobType(globType)})
		case "magic":
			var priority int
			if err := s.db.QueryRow("SELECT priority FROM magic_rules WHERE rule_id = ?", rr.id).Scan(&priority); err != nil {
				return nil, fmt.Errorf("loading magic_rules row %d: %w", rr.id, err)
			}
			conditions, err := loadMatchConditions(s.db, rr.id, nil)
			if err != nil {
				return nil, fmt.Errorf("loading magic_conditions for rule %d: %w", rr.id, err)
			}
			rule = types.NewMagicRule(types.MagicRule{Priority: uint8(priority), Conditions: conditions})
		}
		reg.RulesByType[rr.mt] = append(reg.RulesByType[rr.mt], rule)
	}

	// media_types with no rules of their own (pure subclass leaves) still
	// need a RulesByType entry so Validate's hierarchy checks pass.
	for _, mt := range mediaTypeNames {
		if _, ok := reg.RulesByType[mt]; !ok {
			reg.RulesByType[mt] = nil
		}
	}

	subRows, err := s.db.Query("SELECT parent, child FROM sub_types")
	if err != nil {
		return nil, fmt.Errorf("loading sub_types: %w", err)
	}
	for subRows.Next() {
		var parent, child string
		if err := subRows.Scan(&parent, &child); err != nil {
			subRows.Close()
			return nil, err
		}
		reg.SubTypes[types.MediaType(parent)] = append(reg.SubTypes[types.MediaType(parent)], types.MediaType(child))
	}
	subRows.Close()

	rootRows, err := s.db.Query("SELECT name FROM root_types ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("loading root_types: %w", err)
	}
	for rootRows.Next() {
		var name string
		if err := rootRows.Scan(&name); err != nil {
			rootRows.Close()
			return nil, err
		}
		reg.RootTypes = append(reg.RootTypes, types.MediaType(name))
	}
	rootRows.Close()

	populateFlatListsFromRulesByType(reg, orderedTypes)
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("validating loaded registry: %w", err)
	}
	return reg, nil
}

// loadMatchConditions recursively reconstructs the Match tree for a
// single magic rule (or a single parent condition within it), ordered
// by seq the way it was written.
func loadMatchConditions(db *sql.DB, magicRuleID int64, parentID *int64) ([]types.Match, error) {
	var query string
	var args []interface{}
	if parentID == nil {
		query = "SELECT id, kind, offset_from, offset_count, bytes, min_to_match FROM magic_conditions WHERE magic_rule_id = ? AND parent_condition_id IS NULL ORDER BY seq"
		args = []interface{}{magicRuleID}
	} else {
		query = "SELECT id, kind, offset_from, offset_count, bytes, min_to_match FROM magic_conditions WHERE parent_condition_id = ? ORDER BY seq"
		args = []interface{}{*parentID}
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Match
	for rows.Next() {
		var id int64
		var kind string
		var offsetFrom, offsetCount, minToMatch int
		var bytesVal []byte
		if err := rows.Scan(&id, &kind, &offsetFrom, &offsetCount, &bytesVal, &minToMatch); err != nil {
			return nil, err
		}

		children, err := loadMatchConditions(db, magicRuleID, &id)
		if err != nil {
			return nil, err
		}

		switch kind {
		case "single":
			single := types.Single{
				Offset: types.Offset{From: uint32(offsetFrom), Count: uint32(offsetCount)},
				Bytes:  bytesVal,
			}
			for _, child := range children {
				single.Conditions = append(single.Conditions, child.Single)
			}
			out = append(out, types.NewSingleMatch(single))
		case "multi":
			multi := types.Multi{MinToMatch: uint8(minToMatch)}
			for _, child := range children {
				multi.Conditions = append(multi.Conditions, child.Single)
			}
			out = append(out, types.NewMultiMatch(multi))
		}
	}
	return out, rows.Err()
}

func parseGlobType(s string) types.GlobType {
	switch s {
	case "starts_with":
		return types.GlobStartsWith
	case "ends_with":
		return types.GlobEndsWith
	case "contains":
		return types.GlobContains
	case "regex":
		return types.GlobRegex
	default:
		return types.GlobStartsWith
	}
}

// populateFlatListsFromRulesByType mirrors pkg/compiler's
// populateFlatLists, rebuilding the flattened, priority-sorted views
// after a Load.
func populateFlatListsFromRulesByType(reg *types.Registry, orderedTypes []types.MediaType) {
	for _, mt := range orderedTypes {
		for _, rule := range reg.RulesByType[mt] {
			switch rule.Kind {
			case types.RuleGlob:
				reg.GlobRules = append(reg.GlobRules, types.GlobEntry{Type: mt, Glob: rule.Glob})
			case types.RuleMagic:
				reg.MagicRules = append(reg.MagicRules, types.MagicEntry{Type: mt, Magic: rule.Magic})
			}
		}
	}
	sort.SliceStable(reg.MagicRules, func(i, j int) bool {
		return reg.MagicRules[i].Magic.Priority > reg.MagicRules[j].Magic.Priority
	})
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
