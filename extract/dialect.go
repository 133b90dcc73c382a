package extract

import (
	"fmt"

	"github.com/wbxdata/replipipe/constants"
	"github.com/wbxdata/replipipe/helper"
)

// Dialect renders the engine-specific parts of the extraction query.
type Dialect interface {
	Name() string
	// ContainsExpr returns an integer expression that is 1 when column contains marker (case-sensitive) and 0 otherwise.
	ContainsExpr(column string, marker string) string
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return constants.ConnectionTypeMySql }

func (mysqlDialect) ContainsExpr(column string, marker string) string {
	return fmt.Sprintf("CASE WHEN LOCATE(BINARY %v, %v) > 0 THEN 1 ELSE 0 END", helper.QuoteSqlLiteral(marker), column)
}

type sqlServerDialect struct{}

func (sqlServerDialect) Name() string { return constants.ConnectionTypeSqlServer }

func (sqlServerDialect) ContainsExpr(column string, marker string) string {
	return fmt.Sprintf("CASE WHEN CHARINDEX(%v, %v COLLATE Latin1_General_CS_AS) > 0 THEN 1 ELSE 0 END", helper.QuoteSqlLiteral(marker), column)
}

type netezzaDialect struct{}

func (netezzaDialect) Name() string { return constants.ConnectionTypeNetezza }

func (netezzaDialect) ContainsExpr(column string, marker string) string {
	return fmt.Sprintf("CASE WHEN STRPOS(%v, %v) > 0 THEN 1 ELSE 0 END", column, helper.QuoteSqlLiteral(marker))
}

// DialectFor returns the Dialect of a source connection type.
// Mock connections use the MySQL dialect.
func DialectFor(connectionType string) (Dialect, error) {
	switch connectionType {
	case constants.ConnectionTypeMySql, constants.ConnectionTypeMock:
		return mysqlDialect{}, nil
	case constants.ConnectionTypeSqlServer:
		return sqlServerDialect{}, nil
	case constants.ConnectionTypeNetezza:
		return netezzaDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported source database type %q", connectionType)
	}
}
