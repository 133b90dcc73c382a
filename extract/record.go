package extract

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wbxdata/replipipe/constants"
)

// SourceRecord is one extracted row.
type SourceRecord struct {
	ID        int64
	FK        sql.NullInt64
	Flag      bool
	CreatedAt NullTimestamp
}

// CSV returns the record in staged column order: id, fk, flag (0|1), created_at.
// NULLs become empty fields.
func (r SourceRecord) CSV() []string {
	fk := ""
	if r.FK.Valid {
		fk = strconv.FormatInt(r.FK.Int64, 10)
	}
	flag := "0"
	if r.Flag {
		flag = "1"
	}
	created := ""
	if r.CreatedAt.Valid {
		created = r.CreatedAt.Time.Format(constants.TimeFormatCsvTimestamp)
	}
	return []string{strconv.FormatInt(r.ID, 10), fk, flag, created}
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02",
}

// MySQL returns this for zero DATETIME values when parseTime is off.
const mysqlZeroDate = "0000-00-00"

// NullTimestamp scans time.Time values as well as the text timestamps some drivers return.
type NullTimestamp struct {
	Time  time.Time
	Valid bool
}

func (n *NullTimestamp) Scan(value interface{}) error {
	n.Time, n.Valid = time.Time{}, false
	var s string
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		n.Time, n.Valid = v, !v.IsZero() // parseTime maps zero dates to the zero time.
		return nil
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("unsupported timestamp type %T", value)
	}
	if strings.HasPrefix(s, mysqlZeroDate) {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			n.Time, n.Valid = t, true
			return nil
		}
	}
	return fmt.Errorf("unable to parse timestamp %q", s)
}
