package actions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/wbxdata/replipipe/aws/s3"
	"github.com/wbxdata/replipipe/constants"
	"github.com/wbxdata/replipipe/extract"
	"github.com/wbxdata/replipipe/helper"
	"github.com/wbxdata/replipipe/logger"
	"github.com/wbxdata/replipipe/pipeline"
	"github.com/wbxdata/replipipe/rdbms"
	"github.com/wbxdata/replipipe/rdbms/shared"
)

// ReplicateConfig describes one replication job. It doubles as the job file format.
type ReplicateConfig struct {
	Description      string `json:"description,omitempty"`
	SourceConnection string `json:"sourceConnection" errorTxt:"source <connection>" mandatory:"yes"`
	SourceTable      string `json:"sourceTable" errorTxt:"source [<schema>.]<table>" mandatory:"yes"`
	TargetConnection string `json:"targetConnection" errorTxt:"target <connection>" mandatory:"yes"`
	TargetTable      string `json:"targetTable,omitempty"`
	// Columns read from the source; the flag is derived from Columns.Text.
	Columns     extract.Columns `json:"columns"`
	Marker      string          `json:"marker" errorTxt:"marker" mandatory:"yes"`
	ChunkSize   int64           `json:"chunkSize" errorTxt:"chunk size" mandatory:"yes"`
	Parallelism int             `json:"parallelism" errorTxt:"parallelism" mandatory:"yes"`
	ExportMode  string          `json:"exportMode" errorTxt:"export mode" mandatory:"yes"`
	// S3 staging.
	BucketName   string `json:"bucket" errorTxt:"s3 bucket" mandatory:"yes"`
	BucketPrefix string `json:"prefix,omitempty"`
	BucketRegion string `json:"region,omitempty"`
	// Warehouse.
	IamRole            string `json:"iamRole,omitempty"`
	StorageIntegration string `json:"storageIntegration,omitempty"`
	Grantee            string `json:"grantee" errorTxt:"grantee" mandatory:"yes"`
	// Notifications.
	WebhookURL    string `json:"webhookUrl,omitempty"`
	WebhookSecret string `json:"webhookSecret,omitempty"`
	// Scheduling.
	TimeoutSeconds int `json:"timeoutSeconds,omitempty"`
	RepeatInterval int `json:"repeatInterval,omitempty"`
	// Connections embedded in a job file; entries without data are loaded by logical name.
	Connections shared.DBConnections `json:"connections,omitempty"`
	// Generic settings supplied by the CLI, never by a job file.
	LogLevel                  string `json:"-" errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic          bool   `json:"-"`
	StatsDumpFrequencySeconds int    `json:"-"`
	ExportConfigType          string `json:"-"`
	ExportIncludeConnections  bool   `json:"-"`
}

// ApplyDefaults fills optional settings that were left empty.
func (c *ReplicateConfig) ApplyDefaults() {
	if c.Columns.ID == "" {
		c.Columns.ID = "id"
	}
	if c.Marker == "" {
		c.Marker = constants.DefaultMarker
	}
	if c.Columns.Flag == "" {
		c.Columns.Flag = strings.ToLower(c.Marker)
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = constants.DefaultChunkSize
	}
	if c.Parallelism == 0 {
		c.Parallelism = constants.DefaultParallelism
	}
	if c.ExportMode == "" {
		c.ExportMode = constants.ExportModeStream
	}
	if strings.HasPrefix(c.BucketName, "s3://") {
		if b, err := s3.ParseURL(c.BucketName, c.BucketRegion); err == nil {
			c.BucketName = b.Name
			if b.Prefix != "" && c.BucketPrefix == "" {
				c.BucketPrefix = b.Prefix
			}
		}
	}
	if c.BucketPrefix == "" {
		c.BucketPrefix = constants.DefaultStagingPrefix
	}
	if c.Grantee == "" {
		c.Grantee = constants.DefaultGrantee
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.TargetTable == "" {
		c.TargetTable = rdbms.SchemaTable{SchemaTable: c.SourceTable}.BareTable()
	}
}

// Validate checks mandatory settings and the ranges of numeric ones.
func (c *ReplicateConfig) Validate() error {
	if err := helper.ValidateStructIsPopulated(c); err != nil {
		return err
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk size must be greater than zero, got %v", c.ChunkSize)
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be greater than zero, got %v", c.Parallelism)
	}
	if c.TimeoutSeconds < 0 || c.RepeatInterval < 0 {
		return fmt.Errorf("timeout and repeat interval cannot be negative")
	}
	switch c.ExportMode {
	case constants.ExportModeOutfile, constants.ExportModeStream:
	default:
		return fmt.Errorf("unsupported export mode %q, use %v or %v", c.ExportMode, constants.ExportModeOutfile, constants.ExportModeStream)
	}
	return nil
}

// credential returns the warehouse credential for targetType.
func (c *ReplicateConfig) credential(targetType string) (string, error) {
	switch targetType {
	case constants.ConnectionTypeRedshift:
		if c.IamRole == "" {
			return "", errors.New("please supply an IAM role for Redshift targets")
		}
		return c.IamRole, nil
	case constants.ConnectionTypeSnowflake:
		if c.StorageIntegration == "" {
			return "", errors.New("please supply a storage integration for Snowflake targets")
		}
		return c.StorageIntegration, nil
	default:
		return c.IamRole, nil
	}
}

// NewRunID returns a unique, sortable run identifier.
func NewRunID() string {
	return xid.New().String()
}

// RunReplicate runs the job once, or repeatedly when a repeat interval is set, until ctx is done.
// A failed run is reported but does not stop a repeating job.
func RunReplicate(ctx context.Context, cfg *ReplicateConfig, env *Environment) error {
	if cfg == nil {
		return errors.New("nil pointer to replicate config supplied")
	}
	cfg.ApplyDefaults()
	log := logger.NewLogger("replipipe", cfg.LogLevel, cfg.StackDumpOnPanic)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.ExportConfigType != "" { // if the user wants the job definition only...
		return outputJobDefinition(log, cfg, cfg.ExportConfigType, cfg.ExportIncludeConnections)
	}
	for {
		res, err := runReplicateOnce(ctx, log, cfg, env)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, res.Summary())
		if cfg.RepeatInterval == 0 {
			if !res.Succeeded() {
				return res.Err
			}
			return nil
		}
		log.Info("sleeping ", cfg.RepeatInterval, " seconds before the next run")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(cfg.RepeatInterval) * time.Second):
		}
	}
}

// runReplicateOnce builds a fresh Replication so rotated secrets are picked up between runs.
func runReplicateOnce(ctx context.Context, log logger.Logger, cfg *ReplicateConfig, env *Environment) (*pipeline.Result, error) {
	r, err := NewReplication(ctx, log, cfg, env)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, NewRunID()), nil
}
