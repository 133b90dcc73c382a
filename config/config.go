package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/wbxdata/replipipe/rdbms/shared"
	"gopkg.in/yaml.v2"
)

var replipipeHomeDir string
var Main *File
var Connections *File

func init() {
	Main = NewConfigFileWithDir(mustGetConfigHomeDir(), MainFileFullName)
	Connections = NewConfigFileWithDir(mustGetConfigHomeDir(), ConnectionsConfigFileFullName)
}

const (
	MainDir                         = ".replipipe"
	HomeDirEnvVar                   = "RP_HOME"
	MainFileNamePrefix              = "config"
	MainFileNameExt                 = "yaml"
	MainFileFullName                = MainFileNamePrefix + "." + MainFileNameExt
	ConnectionsConfigFileNamePrefix = "connections"
	ConnectionsConfigFileNameExt    = "yaml"
	ConnectionsConfigFileFullName   = ConnectionsConfigFileNamePrefix + "." + ConnectionsConfigFileNameExt
)

// FileNotFoundError denotes failing to find configuration file.
type FileNotFoundError struct {
	name string
}

func (f FileNotFoundError) Error() string {
	return fmt.Sprintf("config file %q not found", f.name)
}

type KeyNotFoundError struct {
	configFile string
	key        string
	err        error
}

func (k KeyNotFoundError) Error() string {
	if k.err != nil {
		return fmt.Sprintf("key %q not found in config file %q: %v", k.key, k.configFile, k.err)
	}
	return fmt.Sprintf("key %q not found in config file %q", k.key, k.configFile)
}

// File is a YAML map of keys to values saved under the config home dir.
// The file is read lazily on first access and rewritten in full on every change.
type File struct {
	Dirname      string
	FileName     string
	FilePrefix   string
	FileExt      string
	FullPath     string
	data         map[string]interface{}
	dataIsLoaded bool
	mu           sync.Mutex
}

func NewConfigFileWithDir(dirName string, filename string) *File {
	c := &File{Dirname: dirName, FileName: filename}
	c.FullPath = path.Join(dirName, filename)
	c.FileExt = strings.TrimLeft(path.Ext(filename), ".")
	c.FilePrefix = strings.TrimSuffix(c.FileName, "."+c.FileExt)
	c.data = make(map[string]interface{})
	return c
}

// Get decodes the value saved at key into out, which must be a pointer.
// Strings and shared.ConnectionDetails produce a KeyNotFoundError when the key is missing.
func (c *File) Get(key string, out interface{}) error {
	val := reflect.ValueOf(out)
	if val.Kind() != reflect.Ptr {
		return errors.New("out must be a pointer")
	}
	if err := c.ensureLoaded(); err != nil {
		return err
	}
	c.mu.Lock()
	d, ok := c.data[key]
	c.mu.Unlock()
	if !ok {
		switch val.Elem().Interface().(type) {
		case string:
			return KeyNotFoundError{c.FullPath, key, fmt.Errorf("missing string value for key")}
		case shared.ConnectionDetails:
			return KeyNotFoundError{c.FullPath, key, fmt.Errorf("missing database connection")}
		default:
			return KeyNotFoundError{configFile: c.FullPath, key: key}
		}
	}
	if err := mapstructure.Decode(normalise(d), out); err != nil {
		return errors.Wrapf(err, "error decoding key %v in config file %v", key, c.FullPath)
	}
	return nil
}

func (c *File) Set(key string, val interface{}) error {
	if err := c.ensureLoaded(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = val
	return c.save()
}

func (c *File) Delete(key string) error {
	if err := c.ensureLoaded(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, keyExists := c.data[key]; !keyExists {
		return KeyNotFoundError{configFile: c.FullPath, key: key}
	}
	delete(c.data, key)
	return c.save()
}

// GetAllKeys returns the sorted keys of the file; a missing file has none.
func (c *File) GetAllKeys() ([]string, error) {
	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	retval := make([]string, 0, len(c.data))
	for k := range c.data {
		retval = append(retval, k)
	}
	sort.Strings(retval)
	return retval, nil
}

// ensureLoaded reads the file once; a missing file is treated as empty.
func (c *File) ensureLoaded() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dataIsLoaded {
		return nil
	}
	err := c.loadData()
	if err != nil && !errors.As(err, &FileNotFoundError{}) {
		return err
	}
	c.dataIsLoaded = true
	return nil
}

func (c *File) loadData() error {
	b, err := ioutil.ReadFile(c.FullPath)
	if os.IsNotExist(err) {
		return FileNotFoundError{c.FullPath}
	} else if err != nil {
		return errors.Wrapf(err, "error reading config file %v", c.FullPath)
	}
	if err = yaml.Unmarshal(b, &c.data); err != nil {
		return errors.Wrapf(err, "error parsing config file %v", c.FullPath)
	}
	if c.data == nil {
		c.data = make(map[string]interface{})
	}
	return nil
}

// save writes all data to disk; the caller holds the lock.
func (c *File) save() error {
	b, err := yaml.Marshal(c.data)
	if err != nil {
		return fmt.Errorf("error marshalling data for config file %v: %v", c.FullPath, err)
	}
	if err = makeDir(c.Dirname); err != nil {
		return err
	}
	// Connections may hold passwords.
	if err = ioutil.WriteFile(c.FullPath, b, 0600); err != nil {
		return errors.Wrapf(err, "error writing config file %v", c.FullPath)
	}
	return nil
}

// normalise converts the map[interface{}]interface{} values produced by yaml.v2 into
// map[string]interface{} so mapstructure can decode them into structs.
func normalise(v interface{}) interface{} {
	switch x := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(x))
		for k, val := range x {
			m[fmt.Sprintf("%v", k)] = normalise(val)
		}
		return m
	case []interface{}:
		for i := range x {
			x[i] = normalise(x[i])
		}
		return x
	default:
		return v
	}
}
