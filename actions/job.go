package actions

import (
	"context"
	"fmt"
	"io/ioutil"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/wbxdata/replipipe/helper"
)

// JobConfig runs a replication described in a YAML or JSON file.
type JobConfig struct {
	JobFile                   string `errorTxt:"job file" mandatory:"yes"`
	DryRun                    bool
	LogLevel                  string `errorTxt:"log level" mandatory:"yes"`
	StackDumpOnPanic          bool
	StatsDumpFrequencySeconds int
	OutputFormat              string
}

// ParseJob reads a job definition. JSON is accepted as a subset of YAML.
func ParseJob(b []byte) (*ReplicateConfig, error) {
	cfg := &ReplicateConfig{}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, errors.Wrap(err, "error parsing job definition")
	}
	return cfg, nil
}

func LoadJobFile(fileName string) (*ReplicateConfig, error) {
	b, err := ioutil.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("unable to read job file %q: %v", fileName, err)
	}
	return ParseJob(b)
}

// RunJobFromFile loads job.JobFile and replicates it, or plans it when DryRun is set.
func RunJobFromFile(ctx context.Context, job *JobConfig, env *Environment) error {
	if job == nil {
		return errors.New("nil pointer to job config supplied")
	}
	if err := helper.ValidateStructIsPopulated(job); err != nil {
		return err
	}
	cfg, err := LoadJobFile(job.JobFile)
	if err != nil {
		return err
	}
	cfg.LogLevel = job.LogLevel
	cfg.StackDumpOnPanic = job.StackDumpOnPanic
	cfg.StatsDumpFrequencySeconds = job.StatsDumpFrequencySeconds
	if job.DryRun {
		cfg.ExportConfigType = job.OutputFormat
		return RunPlan(ctx, cfg, env)
	}
	return RunReplicate(ctx, cfg, env)
}
