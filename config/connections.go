package config

import (
	"fmt"

	"github.com/wbxdata/replipipe/rdbms/shared"
)

// GetConnectionType returns the type of the named connection.
func (c *File) GetConnectionType(connectionName string) (connectionType string, err error) {
	d, err := c.GetConnectionDetails(connectionName)
	if err != nil {
		return "", err
	}
	return d.Type, nil
}

// GetConnectionDetails fetches the named connection or errors if it is not configured.
func (c *File) GetConnectionDetails(connectionName string) (*shared.ConnectionDetails, error) {
	genericConn := &shared.ConnectionDetails{}
	if err := c.Get(connectionName, genericConn); err != nil {
		return nil, err
	}
	if genericConn.Type == "" {
		return nil, fmt.Errorf("connection %q is not configured: use 'config conn add' to create it", connectionName)
	}
	return genericConn, nil
}

// LoadConnection satisfies shared.ConnectionGetter.
func (c *File) LoadConnection(connectionName string) (shared.ConnectionDetails, error) {
	d, err := c.GetConnectionDetails(connectionName)
	if err != nil {
		return shared.ConnectionDetails{}, err
	}
	if d.LogicalName == "" {
		d.LogicalName = connectionName
	}
	return *d, nil
}

// SetConnection saves d under its logical name.
func (c *File) SetConnection(d shared.ConnectionDetails) error {
	if d.LogicalName == "" {
		return fmt.Errorf("connection must have a logical name")
	}
	return c.Set(d.LogicalName, map[string]interface{}{
		"type":        d.Type,
		"logicalName": d.LogicalName,
		"data":        d.Data,
	})
}
