package actions

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/wbxdata/replipipe/constants"
	"github.com/wbxdata/replipipe/helper"
	"github.com/wbxdata/replipipe/rdbms"
	"github.com/wbxdata/replipipe/rdbms/shared"
)

type ConnectionConfig struct {
	ConfigFile  ConnectionGetterSetter `errorTxt:"connections file" mandatory:"yes"`
	LogicalName string                 `errorTxt:"connection name" mandatory:"yes"`
	Type        string
	ConnDetails ConnectionValidator
	Force       bool
}

// NewConnectionValidator returns the validator for a connection of connectionType given either a DSN
// or the id of an AWS Secrets Manager secret holding the credentials.
func NewConnectionValidator(connectionType string, dsn string, secretId string) ConnectionValidator {
	if secretId != "" {
		return &SecretConnectionDetails{Type: connectionType, SecretId: secretId}
	}
	return &TypedDsnConnectionDetails{Type: connectionType, Dsn: dsn}
}

// TypedDsnConnectionDetails validates a DSN with the parser used for its database type.
type TypedDsnConnectionDetails struct {
	Type string
	Dsn  string
}

func (d *TypedDsnConnectionDetails) Parse() error {
	switch d.Type {
	case constants.ConnectionTypeNetezza:
		return shared.NetezzaConnectionDetails{Dsn: d.Dsn}.Parse()
	case constants.ConnectionTypeSnowflake:
		_, err := rdbms.SnowflakeParseDSN(d.Dsn)
		return err
	default:
		x := &shared.DsnConnectionDetails{Dsn: d.Dsn}
		if err := x.Parse(); err != nil {
			return err
		}
		if d.Type == "" {
			d.Type = x.OriginalScheme
		}
		return nil
	}
}

func (d *TypedDsnConnectionDetails) GetScheme() (string, error) {
	if d.Type == "" {
		return "", errors.New("unknown connection type")
	}
	return d.Type, nil
}

func (d *TypedDsnConnectionDetails) GetMap(m map[string]string) map[string]string {
	if m == nil {
		m = make(map[string]string)
	}
	m[shared.DefaultDsnConnectionKeyNames.Dsn] = d.Dsn
	return m
}

// SecretConnectionDetails names a secret whose JSON is turned into a DSN at run time.
type SecretConnectionDetails struct {
	Type     string
	SecretId string
}

func (d *SecretConnectionDetails) Parse() error {
	if d.SecretId == "" {
		return errors.New("secret id not found")
	}
	return nil
}

func (d *SecretConnectionDetails) GetScheme() (string, error) {
	if d.Type == "" {
		return "", errors.New("please supply the connection type for secret-based connections")
	}
	return d.Type, nil
}

func (d *SecretConnectionDetails) GetMap(m map[string]string) map[string]string {
	if m == nil {
		m = make(map[string]string)
	}
	m[shared.DefaultDsnConnectionKeyNames.Secret] = d.SecretId
	return m
}

func RunConnectionAdd(cfg *ConnectionConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	if cfg.ConnDetails == nil {
		return errors.New("please supply a dsn or secret for the connection")
	}
	if strings.Contains(cfg.LogicalName, ".") {
		return fmt.Errorf("connection name cannot contain period characters '.' as they're used to split <connection>.[<schema>.]<table>")
	}
	if err := cfg.ConnDetails.Parse(); err != nil {
		return errors.Wrap(err, "unable to create connection")
	}
	connType, err := cfg.ConnDetails.GetScheme()
	if err != nil {
		return err
	}
	if !IsSupportedConnectionType(connType) {
		return fmt.Errorf("%v is an unsupported connection type", connType)
	}
	connection := shared.ConnectionDetails{
		LogicalName: cfg.LogicalName,
		Type:        connType,
		Data:        cfg.ConnDetails.GetMap(nil),
	}
	existing := shared.ConnectionDetails{}
	if err = cfg.ConfigFile.Get(cfg.LogicalName, &existing); err == nil && !cfg.Force {
		return fmt.Errorf("connection exists, use force to update the connection or remove it first")
	}
	if err = cfg.ConfigFile.Set(cfg.LogicalName, map[string]interface{}{
		"type":        connection.Type,
		"logicalName": connection.LogicalName,
		"data":        connection.Data,
	}); err != nil {
		return fmt.Errorf("error writing connections config file after adding: %v", err)
	}
	fmt.Fprintf(stdout, "Connection %q added\n", cfg.LogicalName)
	return nil
}

func RunConnectionRemove(cfg *ConnectionConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	if err := cfg.ConfigFile.Delete(cfg.LogicalName); err != nil {
		return fmt.Errorf("unable to delete connection %q from config: %v", cfg.LogicalName, err)
	}
	fmt.Fprintf(stdout, "Connection %q removed\n", cfg.LogicalName)
	return nil
}

// RunConnectionList prints every saved connection with passwords redacted.
func RunConnectionList(c ConnectionGetterSetter) error {
	keys, err := c.GetAllKeys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		d := shared.ConnectionDetails{}
		if err = c.Get(k, &d); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%v:\n%v\n", k, d)
	}
	return nil
}
