// Package secrets resolves credentials held in AWS Secrets Manager.
package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
	"github.com/pkg/errors"
	"github.com/wbxdata/replipipe/constants"
	"github.com/wbxdata/replipipe/rdbms"
	"github.com/wbxdata/replipipe/rdbms/shared"
)

// Getter fetches the string value of a secret.
type Getter interface {
	GetSecretString(ctx context.Context, secretId string) (string, error)
}

type Client struct {
	api secretsmanageriface.SecretsManagerAPI
}

func NewClient(region string) *Client {
	awsConfig := aws.NewConfig()
	if region != "" {
		awsConfig.Region = aws.String(region)
	}
	sess := session.Must(session.NewSessionWithOptions(session.Options{
		Config:            *awsConfig,
		SharedConfigState: session.SharedConfigEnable,
	}))
	return NewClientWithAPI(secretsmanager.New(sess))
}

func NewClientWithAPI(api secretsmanageriface.SecretsManagerAPI) *Client {
	return &Client{api: api}
}

func (c *Client) GetSecretString(ctx context.Context, secretId string) (string, error) {
	out, err := c.api.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretId),
	})
	if err != nil {
		return "", errors.Wrapf(err, "error fetching secret %q", secretId)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %q has no string value", secretId)
	}
	return *out.SecretString, nil
}

// DatabaseSecret is the JSON layout AWS uses for RDS and Redshift credentials.
type DatabaseSecret struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Host     string      `json:"host"`
	Port     json.Number `json:"port"`
	DBName   string      `json:"dbname"`
	Engine   string      `json:"engine"`
	// Snowflake only. Host holds the account identifier.
	Schema    string `json:"schema,omitempty"`
	Warehouse string `json:"warehouse,omitempty"`
	Role      string `json:"role,omitempty"`
}

// ParseDatabaseSecret decodes s and checks the mandatory fields are present.
func ParseDatabaseSecret(s string) (*DatabaseSecret, error) {
	d := &DatabaseSecret{}
	if err := json.Unmarshal([]byte(s), d); err != nil {
		return nil, errors.Wrap(err, "error decoding database secret")
	}
	missing := make([]string, 0)
	for k, v := range map[string]string{"username": d.Username, "host": d.Host, "dbname": d.DBName} {
		if v == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("database secret is missing fields %v", strings.Join(missing, ", "))
	}
	return d, nil
}

// DSN builds a connect string understood by rdbms.OpenDbConnection for the given connection type.
func (d *DatabaseSecret) DSN(connectionType string) (string, error) {
	port := d.Port.String()
	hostPort := d.Host
	if port != "" {
		hostPort = d.Host + ":" + port
	}
	switch connectionType {
	case constants.ConnectionTypeRedshift, constants.ConnectionTypeMySql:
		u := url.URL{
			Scheme: connectionType,
			User:   url.UserPassword(d.Username, d.Password),
			Host:   hostPort,
			Path:   "/" + d.DBName,
		}
		return u.String(), nil
	case constants.ConnectionTypeSqlServer:
		u := url.URL{
			Scheme:   connectionType,
			User:     url.UserPassword(d.Username, d.Password),
			Host:     hostPort,
			RawQuery: url.Values{"database": []string{d.DBName}}.Encode(),
		}
		return u.String(), nil
	case constants.ConnectionTypeSnowflake:
		return rdbms.SnowflakeGetDSN(&rdbms.SnowflakeConnectionDetails{
			Account:   d.Host,
			DBName:    d.DBName,
			Schema:    d.Schema,
			User:      d.Username,
			Password:  d.Password,
			Warehouse: d.Warehouse,
			RoleName:  d.Role,
		})
	case constants.ConnectionTypeNetezza:
		// Credentials are query-escaped so that '/' and '@' cannot break the user/password@//host form.
		return fmt.Sprintf("netezza://%v/%v@//%v/%v", url.QueryEscape(d.Username), url.QueryEscape(d.Password), hostPort, d.DBName), nil
	default:
		return "", fmt.Errorf("unable to build a DSN from a secret for connection type %q", connectionType)
	}
}

// ResolveConnection returns c with its DSN populated from the secret named in c.Data["secret"].
// Connections that already carry a DSN, or name no secret, are returned unchanged.
func ResolveConnection(ctx context.Context, g Getter, c shared.ConnectionDetails) (shared.ConnectionDetails, error) {
	secretId := c.Data[shared.DefaultDsnConnectionKeyNames.Secret]
	if secretId == "" || c.Data[shared.DefaultDsnConnectionKeyNames.Dsn] != "" {
		return c, nil
	}
	s, err := g.GetSecretString(ctx, secretId)
	if err != nil {
		return c, err
	}
	d, err := ParseDatabaseSecret(s)
	if err != nil {
		return c, errors.Wrapf(err, "secret %q", secretId)
	}
	dsn, err := d.DSN(c.Type)
	if err != nil {
		return c, err
	}
	data := make(map[string]string, len(c.Data)+1)
	for k, v := range c.Data {
		data[k] = v
	}
	data[shared.DefaultDsnConnectionKeyNames.Dsn] = dsn
	c.Data = data
	return c, nil
}

// GetWebhookURL reads a Slack webhook URL from secretId.
// The secret may hold the bare URL or a JSON object with key webhook_url or url.
func GetWebhookURL(ctx context.Context, g Getter, secretId string) (string, error) {
	s, err := g.GetSecretString(ctx, secretId)
	if err != nil {
		return "", err
	}
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return s, nil
	}
	m := make(map[string]string)
	if err = json.Unmarshal([]byte(s), &m); err != nil {
		return "", errors.Wrapf(err, "error decoding webhook secret %q", secretId)
	}
	for _, k := range []string{"webhook_url", "url"} {
		if v := m[k]; v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("webhook secret %q has no webhook_url or url key", secretId)
}
