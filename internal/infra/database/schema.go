package database

import (
	"context"
	"fmt"
	"strings"
)

const LeadTable = "lead"

// Column describes one expected column. NOT NULL columns always carry a constant
// default so that adding them to a populated table keeps existing rows valid.
type Column struct {
	Name       string
	Type       string
	NotNull    bool
	Default    string
	PrimaryKey bool
}

// Definition is the column clause used by both CREATE TABLE and ADD COLUMN.
func (c Column) Definition() string {
	def := c.Type
	if c.NotNull {
		def += " NOT NULL"
		if c.Default != "" {
			def += " DEFAULT " + c.Default
		}
	}
	return def
}

// Schema is the code-side description of a table: the source of truth the
// reconciler compares the live catalog against.
type Schema struct {
	Table   string
	Columns []Column
}

// LeadSchema mirrors entity.Lead. Order matters: it is the CREATE TABLE order.
var LeadSchema = Schema{
	Table: LeadTable,
	Columns: []Column{
		{Name: "id", PrimaryKey: true},
		{Name: "name", Type: "VARCHAR(64)", NotNull: true, Default: "''"},
		{Name: "gender", Type: "VARCHAR(8)", NotNull: true, Default: "''"},
		{Name: "contact", Type: "VARCHAR(128)", NotNull: true, Default: "''"},
		{Name: "industry", Type: "VARCHAR(128)", NotNull: true, Default: "''"},
		{Name: "job_role", Type: "VARCHAR(128)", NotNull: true, Default: "''"},
		{Name: "preference_type", Type: "VARCHAR(32)", NotNull: true, Default: "''"},
		{Name: "investment_preference", Type: "TEXT"},
		{Name: "incubation_info", Type: "TEXT"},
		{Name: "age", Type: "INTEGER"},
		{Name: "location", Type: "VARCHAR(128)"},
		{Name: "investment_experience", Type: "TEXT"},
		{Name: "tech_adaptability", Type: "VARCHAR(64)"},
		{Name: "high_net_worth", Type: "VARCHAR(16)"},
		{Name: "expected_investment", Type: "VARCHAR(64)"},
		{Name: "ip", Type: "VARCHAR(64)"},
		{Name: "user_agent", Type: "VARCHAR(256)"},
		{Name: "created_at", Type: "TIMESTAMP", NotNull: true, Default: "'1970-01-01 00:00:00'"},
	},
}

func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

func (s Schema) Has(name string) bool {
	for _, c := range s.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Missing returns the expected columns absent from live, in schema order. The
// primary key is never reported: it cannot be added after the fact.
func (s Schema) Missing(live []string) []Column {
	present := make(map[string]struct{}, len(live))
	for _, name := range live {
		present[strings.ToLower(name)] = struct{}{}
	}
	var missing []Column
	for _, c := range s.Columns {
		if c.PrimaryKey {
			continue
		}
		if _, ok := present[c.Name]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

func (s Schema) CreateStatement(d Dialect) string {
	parts := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		if c.PrimaryKey {
			parts[i] = c.Name + " " + d.PrimaryKey()
			continue
		}
		parts[i] = c.Name + " " + c.Definition()
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", s.Table, strings.Join(parts, ",\n\t"))
}

// EnsureTable is the declarative create path: it creates the table when absent and
// leaves an existing one alone.
func EnsureTable(ctx context.Context, q Querier, d Dialect, s Schema) error {
	if _, err := q.ExecContext(ctx, s.CreateStatement(d)); err != nil {
		return fmt.Errorf("create table %s: %w", s.Table, err)
	}
	if _, err := q.ExecContext(ctx, fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s (created_at)", s.Table, s.Table,
	)); err != nil {
		return fmt.Errorf("create index on %s: %w", s.Table, err)
	}
	return nil
}
