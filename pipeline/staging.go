package pipeline

import (
	"fmt"
	"path"
	"strings"

	"github.com/wbxdata/replipipe/constants"
)

// StagingLayout names the objects written for a table:
//   <prefix>/<table>/<table>_<seq+1>.csv for bootstrap chunks
//   <prefix>/<table>/new_<table>_records.csv for the incremental tail
type StagingLayout struct {
	Bucket string `json:"bucket"`
	Prefix string `json:"prefix"`
	Table  string `json:"table"`
}

func (l StagingLayout) dir() string {
	return path.Join(strings.Trim(l.Prefix, "/"), l.Table)
}

// BootstrapKey returns the object key of bootstrap chunk seq.
func (l StagingLayout) BootstrapKey(seq int) string {
	return fmt.Sprintf("%v/%v_%v%v", l.dir(), l.Table, seq+1, constants.CsvFileExtension)
}

// BootstrapPrefix matches every bootstrap chunk object. For a table named "new" it also matches
// the incremental object, so bootstrap purges the whole prefix before extracting and the rebuild
// only ever copies freshly written chunks.
func (l StagingLayout) BootstrapPrefix() string {
	return fmt.Sprintf("%v/%v_", l.dir(), l.Table)
}

func (l StagingLayout) IncrementalKey() string {
	return fmt.Sprintf("%v/new_%v_records%v", l.dir(), l.Table, constants.CsvFileExtension)
}

// URL returns the s3:// location of key.
func (l StagingLayout) URL(key string) string {
	return fmt.Sprintf("s3://%v/%v", l.Bucket, key)
}

// BootstrapTasks pairs each chunk with its object.
func (l StagingLayout) BootstrapTasks(chunks []Chunk) []ExtractTask {
	tasks := make([]ExtractTask, 0, len(chunks))
	for _, c := range chunks {
		k := l.BootstrapKey(c.Seq)
		tasks = append(tasks, ExtractTask{Chunk: c, Key: k, Location: l.URL(k)})
	}
	return tasks
}

func (l StagingLayout) IncrementalTask(c Chunk) ExtractTask {
	k := l.IncrementalKey()
	return ExtractTask{Chunk: c, Key: k, Location: l.URL(k)}
}
