package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/wbxdata/replipipe/aws/s3"
	"github.com/wbxdata/replipipe/aws/secrets"
	"github.com/wbxdata/replipipe/constants"
	"github.com/wbxdata/replipipe/extract"
	"github.com/wbxdata/replipipe/logger"
	"github.com/wbxdata/replipipe/notify"
	"github.com/wbxdata/replipipe/pipeline"
	"github.com/wbxdata/replipipe/rdbms"
	"github.com/wbxdata/replipipe/rdbms/shared"
	"github.com/wbxdata/replipipe/stats"
	"github.com/wbxdata/replipipe/warehouse"
)

// Environment holds the constructors used to reach external systems.
type Environment struct {
	Connections          ConnectionLoader
	NewSecrets           func(region string) secrets.Getter
	NewStager            func(bucket string, region string) s3.Client
	NewConnectionFactory func(log logger.Logger, c shared.ConnectionDetails) rdbms.ConnectionFactory
	NewNotifier          func(webhookURL string) notify.Notifier
}

// NewEnvironment returns an Environment backed by AWS, the SQL drivers and Slack.
func NewEnvironment(c ConnectionLoader) *Environment {
	return &Environment{
		Connections: c,
		NewSecrets: func(region string) secrets.Getter {
			return secrets.NewClient(region)
		},
		NewStager:            s3.NewClient,
		NewConnectionFactory: rdbms.NewConnectionFactory,
		NewNotifier: func(webhookURL string) notify.Notifier {
			return notify.NewSlack(webhookURL, "replipipe")
		},
	}
}

// Replication is a fully wired job ready to run.
type Replication struct {
	log        logger.Logger
	cfg        *ReplicateConfig
	table      string
	replicator *pipeline.Replicator
	notifier   notify.Notifier
	stats      stats.StatsManager
}

// NewReplication resolves connections and secrets and wires the pipeline for cfg.
// cfg must already hold its defaults.
func NewReplication(ctx context.Context, log logger.Logger, cfg *ReplicateConfig, env *Environment) (*Replication, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var sm secrets.Getter
	getSecrets := func() secrets.Getter { // lazily, as most jobs need no secrets.
		if sm == nil {
			sm = env.NewSecrets(cfg.BucketRegion)
		}
		return sm
	}
	src, err := resolveConnection(ctx, env.Connections, getSecrets, cfg.Connections, cfg.SourceConnection)
	if err != nil {
		return nil, errors.Wrap(err, "source connection")
	}
	tgt, err := resolveConnection(ctx, env.Connections, getSecrets, cfg.Connections, cfg.TargetConnection)
	if err != nil {
		return nil, errors.Wrap(err, "target connection")
	}
	if _, err = GetReplicateAction(src.Type, tgt.Type); err != nil {
		return nil, err
	}
	// Source.
	srcDialect, err := extract.DialectFor(src.Type)
	if err != nil {
		return nil, err
	}
	srcFactory := env.NewConnectionFactory(log.WithField("connection", src.LogicalName), src)
	source := extract.Source{
		Table:   rdbms.SchemaTable{SchemaTable: cfg.SourceTable},
		Columns: cfg.Columns,
		Marker:  cfg.Marker,
	}
	stager := env.NewStager(cfg.BucketName, cfg.BucketRegion)
	var ex pipeline.Extractor
	switch cfg.ExportMode {
	case constants.ExportModeOutfile:
		if src.Type != constants.ConnectionTypeMySql && src.Type != constants.ConnectionTypeMock {
			return nil, fmt.Errorf("export mode %q requires a %v source, got %q", cfg.ExportMode, constants.ConnectionTypeMySql, src.Type)
		}
		ex = extract.NewOutfileExtractor(log, srcFactory, source)
	default:
		ex = extract.NewStreamExtractor(log, srcFactory, srcDialect, source, stager)
	}
	// Target.
	credential, err := cfg.credential(tgt.Type)
	if err != nil {
		return nil, err
	}
	whDialect, err := warehouse.DialectFor(tgt.Type, credential)
	if err != nil {
		return nil, err
	}
	tgtFactory := env.NewConnectionFactory(log.WithField("connection", tgt.LogicalName), tgt)
	table := warehouse.Table{
		Name: rdbms.SchemaTable{SchemaTable: cfg.TargetTable},
		Columns: warehouse.Columns{
			ID:      cfg.Columns.ID,
			FK:      cfg.Columns.FK,
			Flag:    cfg.Columns.Flag,
			Created: cfg.Columns.Created,
		},
		Grantee: cfg.Grantee,
	}
	layout := pipeline.StagingLayout{
		Bucket: cfg.BucketName,
		Prefix: cfg.BucketPrefix,
		Table:  table.Name.BareTable(),
	}
	statsMgr := stats.NewPoolStatsManager(log, stats.SetStatsDumpFrequency(cfg.StatsDumpFrequencySeconds))
	r := pipeline.NewReplicator(log,
		pipeline.Config{ChunkSize: cfg.ChunkSize, Parallelism: cfg.Parallelism, Layout: layout},
		pipeline.Dependencies{
			Source:    extract.NewTableStats(log, srcFactory, source),
			Extractor: ex,
			Prober:    warehouse.NewProber(log, tgtFactory, whDialect, table),
			Loader:    warehouse.NewLoader(log, tgtFactory, whDialect, table),
			Stager:    stager,
			Stats:     statsMgr,
		})
	n, err := newNotifier(ctx, log, cfg, env, getSecrets)
	if err != nil {
		return nil, err
	}
	return &Replication{
		log:        log,
		cfg:        cfg,
		table:      table.Name.String(),
		replicator: r,
		notifier:   n,
		stats:      statsMgr,
	}, nil
}

// Run notifies the start, runs one replication bounded by the configured timeout and notifies the outcome.
// When the timeout expires no further chunks are dispatched and the run fails before touching the warehouse.
func (r *Replication) Run(ctx context.Context, runID string) *pipeline.Result {
	log := r.log.WithField("runId", runID)
	notify.Send(ctx, log, r.notifier, notify.StartedText(r.table))
	var runCtx context.Context
	var cancel context.CancelFunc
	if r.cfg.TimeoutSeconds > 0 {
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(r.cfg.TimeoutSeconds)*time.Second)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()
	res := r.replicator.Run(runCtx, runID)
	if !res.Succeeded() && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		res.Err = errors.Wrapf(res.Err, "run timed out after %v seconds", r.cfg.TimeoutSeconds)
		res.ErrorText = res.Err.Error()
	}
	if res.Succeeded() {
		notify.Send(ctx, log, r.notifier, notify.DoneText(r.table, res.RowsLoaded))
	} else {
		log.Error(res.Summary())
		notify.Send(ctx, log, r.notifier, notify.FailedText(r.table, res.Err))
	}
	return res
}

// Plan probes the destination and returns the chunks a Run would extract.
func (r *Replication) Plan(ctx context.Context) (*pipeline.Plan, error) {
	return r.replicator.Plan(ctx)
}

// Stats returns the progress of the chunk pool.
func (r *Replication) Stats() []stats.Stats {
	return r.stats.GetStats()
}

// resolveConnection finds connectionName in the job, loading it by logical name when the job carries no data,
// then swaps any secret reference for a DSN.
func resolveConnection(
	ctx context.Context,
	loader ConnectionLoader,
	getSecrets func() secrets.Getter,
	embedded shared.DBConnections,
	connectionName string) (shared.ConnectionDetails, error) {
	c, ok := embedded[connectionName]
	if !ok {
		c = shared.ConnectionDetails{LogicalName: connectionName}
	}
	if len(c.Data) == 0 {
		if loader == nil {
			return c, fmt.Errorf("connection %q has no details and no connection loader is available", connectionName)
		}
		if c.LogicalName == "" {
			c.LogicalName = connectionName
		}
		tmp := shared.DBConnections{connectionName: c}
		if err := tmp.LoadConnection(loader, connectionName); err != nil {
			return c, err
		}
		c = tmp[connectionName]
	}
	if _, ok := c.Data[shared.DefaultDsnConnectionKeyNames.Secret]; ok {
		return secrets.ResolveConnection(ctx, getSecrets(), c)
	}
	return c, nil
}

// newNotifier prefers an explicit webhook URL, then one read from a secret, else logs only.
func newNotifier(ctx context.Context, log logger.Logger, cfg *ReplicateConfig, env *Environment, getSecrets func() secrets.Getter) (notify.Notifier, error) {
	switch {
	case cfg.WebhookURL != "":
		return env.NewNotifier(cfg.WebhookURL), nil
	case cfg.WebhookSecret != "":
		u, err := secrets.GetWebhookURL(ctx, getSecrets(), cfg.WebhookSecret)
		if err != nil {
			return nil, errors.Wrap(err, "unable to read webhook")
		}
		return env.NewNotifier(u), nil
	default:
		return notify.NewLog(log), nil
	}
}
