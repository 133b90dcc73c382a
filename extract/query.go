package extract

import (
	"fmt"
	"strings"

	"github.com/wbxdata/replipipe/helper"
	"github.com/wbxdata/replipipe/pipeline"
	"github.com/wbxdata/replipipe/rdbms"
)

// Columns names the source columns read and the name given to the derived flag.
type Columns struct {
	ID      string `json:"id" yaml:"id"`
	FK      string `json:"fk" yaml:"fk" errorTxt:"source foreign key column" mandatory:"yes"`
	Text    string `json:"text" yaml:"text" errorTxt:"source text column" mandatory:"yes"`
	Created string `json:"created" yaml:"created" errorTxt:"source created timestamp column" mandatory:"yes"`
	Flag    string `json:"flag" yaml:"flag" errorTxt:"flag column name" mandatory:"yes"`
}

// Header returns the CSV header written to every staged object.
func (c Columns) Header() []string {
	return []string{c.ID, c.FK, c.Flag, c.Created}
}

// Source describes the table being replicated.
type Source struct {
	Table   rdbms.SchemaTable
	Columns Columns
	Marker  string
}

// SelectSQL returns the range query for chunk c ordered by id.
func SelectSQL(d Dialect, s Source, c pipeline.Chunk) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "SELECT %v, %v, %v AS %v, %v FROM %v WHERE %v >= %v",
		s.Columns.ID,
		s.Columns.FK,
		d.ContainsExpr(s.Columns.Text, s.Marker),
		s.Columns.Flag,
		s.Columns.Created,
		s.Table.String(),
		s.Columns.ID,
		c.Low,
	)
	if !c.Unbounded {
		fmt.Fprintf(b, " AND %v < %v", s.Columns.ID, c.High)
	}
	fmt.Fprintf(b, " ORDER BY %v", s.Columns.ID)
	return b.String()
}

// OutfileSQL wraps the range query in an Aurora MySQL export to location.
func OutfileSQL(s Source, c pipeline.Chunk, location string) string {
	return fmt.Sprintf("%v INTO OUTFILE S3 %v FORMAT CSV HEADER OVERWRITE ON",
		SelectSQL(mysqlDialect{}, s, c),
		helper.QuoteSqlLiteral(location),
	)
}

// StatsSQL returns the row count and max id (or -1) of the source table.
func StatsSQL(s Source) string {
	return fmt.Sprintf("SELECT count(*), coalesce(max(%v), -1) FROM %v", s.Columns.ID, s.Table.String())
}
