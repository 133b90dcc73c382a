package rdbms

import (
	"regexp"
	"strings"
)

var (
	quotedDottedName = regexp.MustCompile(`^".+\..+"$`)   // "random.table"
	quotedPair       = regexp.MustCompile(`^".+"\.".+"$`) // "schema"."table"
)

// SchemaTable holds a table name that may be qualified by its schema, e.g. analytics.form_submissions.
type SchemaTable struct {
	SchemaTable string `errorTxt:"[<schema>.]<table>" mandatory:"yes"`
}

// isQuotedTable returns true if the whole name is a quoted identifier containing a dot.
func (st SchemaTable) isQuotedTable() bool {
	return quotedDottedName.MatchString(st.SchemaTable) && !quotedPair.MatchString(st.SchemaTable)
}

func (st SchemaTable) split() (schema string, table string) {
	if st.isQuotedTable() {
		return "", st.SchemaTable
	}
	i := strings.Index(st.SchemaTable, ".")
	if i < 0 { // if we have just a table...
		return "", st.SchemaTable
	}
	return st.SchemaTable[:i], st.SchemaTable[i+1:]
}

func (st SchemaTable) GetTable() string {
	_, t := st.split()
	return t
}

func (st SchemaTable) GetSchema() string {
	s, _ := st.split()
	return s
}

// GetSchemaOrDefault returns the schema or def when the name is unqualified.
func (st SchemaTable) GetSchemaOrDefault(def string) string {
	if s := st.GetSchema(); s != "" {
		return s
	}
	return def
}

// BareTable returns the table name without quotes, suitable for object keys and catalog lookups.
func (st SchemaTable) BareTable() string {
	return strings.Trim(st.GetTable(), `"`)
}

// BareSchema returns the schema name without quotes.
func (st SchemaTable) BareSchema() string {
	return strings.Trim(st.GetSchema(), `"`)
}

func (st SchemaTable) String() string {
	return st.SchemaTable
}
