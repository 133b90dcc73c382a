package actions

import (
	"strings"
)

// ConnectionObject is a CLI argument of the form <connection>.[<schema>.]<table>.
type ConnectionObject struct {
	ConnectionObject string `errorTxt:"<connection>.[<schema>.]<table>" mandatory:"yes"`
}

// GetConnectionName returns the text before the first period, or everything when there is none.
func (c ConnectionObject) GetConnectionName() string {
	if i := strings.Index(c.ConnectionObject, "."); i > 0 {
		return c.ConnectionObject[:i]
	}
	return c.ConnectionObject
}

// GetObject returns [<schema>.]<table>, which is empty when only a connection was given.
func (c ConnectionObject) GetObject() string {
	if i := strings.Index(c.ConnectionObject, "."); i > 0 {
		return c.ConnectionObject[i+1:]
	}
	return ""
}
