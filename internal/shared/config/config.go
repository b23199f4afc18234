package config

import (
	"os"
	"strconv"

	"gopkg.in/ini.v1"

	"proxyvet/internal/shared/types"
)

// LoadIni loads the behaviour configuration file on top of cfg.
func LoadIni(cfg *types.Config, fileName string) error {
	iniFile, err := ini.Load(fileName)
	if err != nil {
		return err
	}
	if err := iniFile.MapTo(cfg); err != nil {
		return err
	}
	overrideFromEnvInt(&cfg.CheckerConf.Concurrency, "PROXYVET_WORKERS")
	return nil
}

func overrideFromEnvInt(target *int, envName string) {
	envValue := os.Getenv(envName)
	if envValue != "" {
		if intValue, err := strconv.Atoi(envValue); err == nil {
			*target = intValue
		}
	}
}
