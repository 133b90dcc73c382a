package config

import (
	"fmt"
	"os"
	"path"

	"github.com/mitchellh/go-homedir"
)

// mustGetConfigHomeDir returns the directory that stores all config files.
// RP_HOME overrides ~/.replipipe.
func mustGetConfigHomeDir() string {
	if replipipeHomeDir == "" {
		if d := os.Getenv(HomeDirEnvVar); d != "" {
			replipipeHomeDir = d
			return replipipeHomeDir
		}
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		replipipeHomeDir = path.Join(home, MainDir)
	}
	return replipipeHomeDir
}

// makeDir makes dir if it does not already exist.
func makeDir(dir string) error {
	_, err := os.Stat(dir)
	if os.IsNotExist(err) {
		if err = os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("error creating directory %v", dir)
		}
	} else if err != nil {
		return err
	}
	return nil
}
