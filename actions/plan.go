package actions

import (
	"context"

	"github.com/pkg/errors"
	"github.com/wbxdata/replipipe/logger"
)

// RunPlan probes the destination and prints the chunks a replication would extract.
// Nothing is written to staging or the warehouse.
func RunPlan(ctx context.Context, cfg *ReplicateConfig, env *Environment) error {
	if cfg == nil {
		return errors.New("nil pointer to replicate config supplied")
	}
	cfg.ApplyDefaults()
	log := logger.NewLogger("replipipe", cfg.LogLevel, cfg.StackDumpOnPanic)
	r, err := NewReplication(ctx, log, cfg, env)
	if err != nil {
		return err
	}
	p, err := r.Plan(ctx)
	if err != nil {
		return err
	}
	format := cfg.ExportConfigType
	if format == "" {
		format = "yaml"
	}
	return writeDefinition(stdout, p, format)
}
