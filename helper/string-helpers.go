package helper

import (
	"regexp"
	"strings"
)

// GetTrueFalseStringAsBool trims spaces from s and checks if it can regexp (case insensitive) match "true".
func GetTrueFalseStringAsBool(s string) bool {
	re := regexp.MustCompile("(?i)^true$")
	return re.MatchString(strings.TrimSpace(s))
}

// SplitRight splits s on the last occurrence of c.
// If c is missing, return s, "".
func SplitRight(s string, c string) (string, string) {
	i := strings.LastIndex(s, c)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+len(c):]
}

// QuoteSqlLiteral wraps s in single quotes, doubling any embedded single quotes.
func QuoteSqlLiteral(s string) string {
	return "'" + strings.Replace(s, "'", "''", -1) + "'"
}
