package actions

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/wbxdata/replipipe/aws/s3"
	"github.com/wbxdata/replipipe/aws/secrets"
	"github.com/wbxdata/replipipe/constants"
	"github.com/wbxdata/replipipe/logger"
	"github.com/wbxdata/replipipe/notify"
	"github.com/wbxdata/replipipe/rdbms"
	"github.com/wbxdata/replipipe/rdbms/shared"
)

type fakeLoader map[string]shared.ConnectionDetails

func (f fakeLoader) LoadConnection(name string) (shared.ConnectionDetails, error) {
	c, ok := f[name]
	if !ok {
		return c, fmt.Errorf("connection %q not found", name)
	}
	return c, nil
}

type fakeSecrets map[string]string

func (f fakeSecrets) GetSecretString(ctx context.Context, id string) (string, error) {
	s, ok := f[id]
	if !ok {
		return "", fmt.Errorf("secret %q not found", id)
	}
	return s, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	url  string
	sent []string
}

func (n *recordingNotifier) Notify(ctx context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, text)
	return nil
}

func (n *recordingNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}

// testWorld is the set of fakes behind an Environment.
type testWorld struct {
	source   *shared.MockConnector
	target   *shared.MockConnector
	stager   *s3.MemoryClient
	notifier *recordingNotifier
	secrets  fakeSecrets
	opened   map[string]shared.ConnectionDetails
	mu       sync.Mutex
}

func newTestWorld() (*Environment, *testWorld) {
	w := &testWorld{
		source:   shared.NewMockConnector(nil, constants.ConnectionTypeMock),
		target:   shared.NewMockConnector(nil, constants.ConnectionTypeMock),
		stager:   s3.NewMemoryClient("wbx-data.redshift-unload"),
		notifier: &recordingNotifier{},
		secrets:  fakeSecrets{},
		opened:   make(map[string]shared.ConnectionDetails),
	}
	env := &Environment{
		Connections: fakeLoader{
			"aurora": {Type: constants.ConnectionTypeMock, LogicalName: "aurora", Data: map[string]string{"dsn": "mock://aurora"}},
			"rs":     {Type: constants.ConnectionTypeMock, LogicalName: "rs", Data: map[string]string{"dsn": "mock://rs"}},
		},
		NewSecrets: func(region string) secrets.Getter {
			return w.secrets
		},
		NewStager: func(bucket string, region string) s3.Client {
			return w.stager
		},
		NewConnectionFactory: func(log logger.Logger, c shared.ConnectionDetails) rdbms.ConnectionFactory {
			w.mu.Lock()
			w.opened[c.LogicalName] = c
			w.mu.Unlock()
			conn := w.target
			if c.LogicalName == "aurora" {
				conn = w.source
			}
			return func(ctx context.Context) (shared.Connector, error) {
				return conn, nil
			}
		},
		NewNotifier: func(webhookURL string) notify.Notifier {
			w.notifier.url = webhookURL
			return w.notifier
		},
	}
	return env, w
}

// withSourceRows makes the source hold ids 1..n.
func (w *testWorld) withSourceRows(n int64) {
	w.source.QueryFunc = func(query string, args []interface{}) (shared.Rows, error) {
		if strings.HasPrefix(query, "SELECT count(*)") {
			return shared.NewMockRows([]string{"count", "max"}, n, n), nil
		}
		return shared.NewMockRows([]string{"id", "form_id", "flag", "date_created"}, int64(1), int64(7), int64(1), "2021-03-04 05:06:07"), nil
	}
}

// withTarget makes the destination table absent when max is nil and exists is false.
func (w *testWorld) withTarget(exists bool, max interface{}, count int64) {
	w.target.QueryFunc = func(query string, args []interface{}) (shared.Rows, error) {
		switch {
		case strings.Contains(query, "information_schema.tables"):
			if exists {
				return shared.NewMockRows([]string{"count"}, int64(1)), nil
			}
			return shared.NewMockRows([]string{"count"}, int64(0)), nil
		case strings.HasPrefix(query, "SELECT max("):
			return shared.NewMockRows([]string{"max"}, max), nil
		default:
			return shared.NewMockRows([]string{"count"}, count), nil
		}
	}
}

func newTestConfig() *ReplicateConfig {
	cfg := &ReplicateConfig{
		SourceConnection: "aurora",
		SourceTable:      "wbx_data.pp_forms_log",
		TargetConnection: "rs",
		TargetTable:      "wbx_data.pp_forms_log",
		Columns:          testColumns(),
		Marker:           "purchaseProtection",
		ChunkSize:        2,
		Parallelism:      2,
		ExportMode:       constants.ExportModeStream,
		BucketName:       "wbx-data.redshift-unload",
		BucketPrefix:     "raw",
		IamRole:          "arn:aws:iam::123456789012:role/redshift-unload",
		LogLevel:         "error",
	}
	cfg.ApplyDefaults()
	return cfg
}

func newTestLogger() logger.Logger {
	return logger.NewLogger("replipipe", "error", false)
}

func mustNotFail(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

// redirectStdout sends action output to w and returns a func to restore it.
func redirectStdout(w io.Writer) func() {
	old := stdout
	stdout = w
	return func() { stdout = old }
}
