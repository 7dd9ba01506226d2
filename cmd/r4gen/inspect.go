package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tombrisland/r4/pkg/registry"
	"github.com/tombrisland/r4/pkg/types"
)

var (
	inspectDBPath       string
	inspectFormat       string
	inspectMediaType    string
	highPriorityColor   = color.New(color.FgRed, color.Bold)
	mediumPriorityColor = color.New(color.FgYellow)
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect a compiled registry database",
	Long:  "List the media types in a compiled registry, along with their glob and magic rules.",
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectDBPath, "db", "registry.db", "Path to a compiled registry database")
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "table", "Output format: table, json")
	inspectCmd.Flags().StringVar(&inspectMediaType, "type", "", "Restrict output to a single media type")
}

// inspectRow is the flattened, JSON-friendly view of one media type's
// rules, independent of how Registry stores them internally.
type inspectRow struct {
	MediaType    types.MediaType `json:"media_type"`
	GlobCount    int             `json:"glob_count"`
	MagicCount   int             `json:"magic_count"`
	BestPriority int             `json:"best_priority"`
	HasMagic     bool            `json:"has_magic"`
	SubTypes     []types.MediaType `json:"sub_types,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	store, err := registry.New(registry.Config{Path: inspectDBPath})
	if err != nil {
		return fmt.Errorf("opening %s: %w", inspectDBPath, err)
	}
	defer store.Close()

	reg, err := store.Load()
	if err != nil {
		return fmt.Errorf("loading %s: %w", inspectDBPath, err)
	}

	rows := buildInspectRows(reg, inspectMediaType)

	switch inspectFormat {
	case "json":
		return outputInspectJSON(cmd, rows)
	case "table":
		return outputInspectTable(cmd, rows)
	default:
		return fmt.Errorf("unknown output format: %s", inspectFormat)
	}
}

func buildInspectRows(reg *types.Registry, filter types.MediaType) []inspectRow {
	var names []types.MediaType
	for mt := range reg.RulesByType {
		if filter == "" || mt == filter {
			names = append(names, mt)
		}
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	rows := make([]inspectRow, 0, len(names))
	for _, mt := range names {
		row := inspectRow{MediaType: mt, BestPriority: -1, SubTypes: reg.SubTypes[mt]}
		for _, rule := range reg.RulesByType[mt] {
			switch rule.Kind {
			case types.RuleGlob:
				row.GlobCount++
			case types.RuleMagic:
				row.MagicCount++
				row.HasMagic = true
				if int(rule.Magic.Priority) > row.BestPriority {
					row.BestPriority = int(rule.Magic.Priority)
				}
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func outputInspectJSON(cmd *cobra.Command, rows []inspectRow) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(rows)
}

func outputInspectTable(cmd *cobra.Command, rows []inspectRow) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "MEDIA TYPE\tGLOBS\tMAGIC\tBEST PRIORITY\tSUB-TYPES\n")
	fmt.Fprintf(w, "----------\t-----\t-----\t-------------\t---------\n")

	for _, row := range rows {
		priority := "-"
		if row.HasMagic {
			priority = priorityLabel(row.BestPriority)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%d\n", row.MediaType, row.GlobCount, row.MagicCount, priority, len(row.SubTypes))
	}
	return nil
}

// priorityLabel highlights high-confidence magic rules (priority >= 50,
// the Tika convention for an unambiguous signature) in red and
// medium-confidence ones in yellow, leaving low-confidence rules
// uncolored.
func priorityLabel(priority int) string {
	text := fmt.Sprintf("%d", priority)
	switch {
	case priority >= 50:
		return highPriorityColor.Sprint(text)
	case priority >= 20:
		return mediumPriorityColor.Sprint(text)
	default:
		return text
	}
}
