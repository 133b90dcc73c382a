package warehouse

import (
	"fmt"
	"strings"

	"github.com/wbxdata/replipipe/constants"
	"github.com/wbxdata/replipipe/helper"
)

// Columns names the fixed destination columns.
type Columns struct {
	ID      string `json:"id" yaml:"id"`
	FK      string `json:"fk" yaml:"fk" errorTxt:"destination foreign key column" mandatory:"yes"`
	Flag    string `json:"flag" yaml:"flag" errorTxt:"destination flag column" mandatory:"yes"`
	Created string `json:"created" yaml:"created" errorTxt:"destination created column" mandatory:"yes"`
}

// Dialect renders warehouse specific statements.
type Dialect interface {
	Name() string
	DefaultSchema() string
	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string
	DropTableSQL(table string) string
	CopySQL(table string, location string) string
	GrantSQL(schema string, grantee string) string
}

// Redshift loads with COPY using an IAM role.
type Redshift struct {
	IamRole string
}

func (Redshift) Name() string          { return constants.ConnectionTypeRedshift }
func (Redshift) DefaultSchema() string { return "public" }
func (Redshift) Placeholder(n int) string {
	return fmt.Sprintf("$%v", n)
}

func (Redshift) DropTableSQL(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %v CASCADE", table)
}

func (d Redshift) CopySQL(table string, location string) string {
	return fmt.Sprintf("COPY %v FROM %v IAM_ROLE %v CSV IGNOREHEADER 1 DELIMITER ','",
		table, helper.QuoteSqlLiteral(location), helper.QuoteSqlLiteral(d.IamRole))
}

func (Redshift) GrantSQL(schema string, grantee string) string {
	return fmt.Sprintf("GRANT ALL ON ALL TABLES IN SCHEMA %v TO GROUP %v", schema, grantee)
}

// Snowflake loads with COPY INTO using a storage integration.
type Snowflake struct {
	StorageIntegration string
}

func (Snowflake) Name() string          { return constants.ConnectionTypeSnowflake }
func (Snowflake) DefaultSchema() string { return "PUBLIC" }
func (Snowflake) Placeholder(n int) string {
	return "?"
}

func (Snowflake) DropTableSQL(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %v CASCADE", table)
}

func (d Snowflake) CopySQL(table string, location string) string {
	return fmt.Sprintf("COPY INTO %v FROM %v STORAGE_INTEGRATION = %v FILE_FORMAT = (TYPE = CSV SKIP_HEADER = 1 FIELD_DELIMITER = ',') FORCE = TRUE",
		table, helper.QuoteSqlLiteral(location), d.StorageIntegration)
}

func (Snowflake) GrantSQL(schema string, grantee string) string {
	return fmt.Sprintf("GRANT ALL ON ALL TABLES IN SCHEMA %v TO ROLE %v", schema, grantee)
}

// DialectFor returns the dialect of a warehouse connection type.
// credential is the IAM role ARN for Redshift or the storage integration for Snowflake.
// Mock connections use Redshift.
func DialectFor(connectionType string, credential string) (Dialect, error) {
	switch connectionType {
	case constants.ConnectionTypeRedshift, constants.ConnectionTypeMock:
		return Redshift{IamRole: credential}, nil
	case constants.ConnectionTypeSnowflake:
		return Snowflake{StorageIntegration: credential}, nil
	default:
		return nil, fmt.Errorf("unsupported warehouse type %q", connectionType)
	}
}

func createTableSQL(table string, c Columns) string {
	cols := []string{
		c.ID + " integer",
		c.FK + " integer",
		c.Flag + " integer",
		c.Created + " timestamp",
	}
	return fmt.Sprintf("CREATE TABLE %v (%v)", table, strings.Join(cols, ", "))
}

func tableExistsSQL(d Dialect) string {
	return fmt.Sprintf("SELECT count(*) FROM information_schema.tables WHERE lower(table_schema) = lower(%v) AND lower(table_name) = lower(%v)",
		d.Placeholder(1), d.Placeholder(2))
}
