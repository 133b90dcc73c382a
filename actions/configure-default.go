package actions

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/wbxdata/replipipe/config"
	"github.com/wbxdata/replipipe/helper"
)

type DefaultAddConfig struct {
	ConfigFile *config.File `errorTxt:"config-file" mandatory:"yes"`
	Key        string       `errorTxt:"key" mandatory:"yes"`
	Value      string       `errorTxt:"value" mandatory:"yes"`
	Force      bool
}

type DefaultRemoveConfig struct {
	ConfigFile *config.File `errorTxt:"config-file" mandatory:"yes"`
	Key        string       `errorTxt:"key" mandatory:"yes"`
}

// RunDefaultAdd saves a flag default. Existing keys are only replaced when cfg.Force is set.
// The config file is created on first write.
func RunDefaultAdd(cfg *DefaultAddConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	var val string
	err := cfg.ConfigFile.Get(cfg.Key, &val)
	if err == nil && !cfg.Force {
		return fmt.Errorf("key %q exists, use force to update the value or remove it first", cfg.Key)
	} else if err != nil && !errors.As(err, &config.KeyNotFoundError{}) {
		return err
	}
	if err = cfg.ConfigFile.Set(cfg.Key, cfg.Value); err != nil {
		return fmt.Errorf("error writing config file after adding: %v", err)
	}
	fmt.Fprintf(stdout, "Key %q added to %q\n", cfg.Key, cfg.ConfigFile.FullPath)
	return nil
}

func RunDefaultRemove(cfg *DefaultRemoveConfig) error {
	if err := helper.ValidateStructIsPopulated(cfg); err != nil {
		return err
	}
	if err := cfg.ConfigFile.Delete(cfg.Key); err != nil {
		return fmt.Errorf("unable to delete key %q from config: %v", cfg.Key, err)
	}
	fmt.Fprintf(stdout, "Key %q removed\n", cfg.Key)
	return nil
}

// RunDefaultList prints every saved default.
func RunDefaultList(f *config.File) error {
	keys, err := f.GetAllKeys()
	if err != nil {
		return err
	}
	for _, k := range keys {
		var v string
		if err = f.Get(k, &v); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%v: %v\n", k, v)
	}
	return nil
}
