package util

import (
	_ "embed"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const Name = "fedisync"
const ConfigFileName = "config.yaml"

//go:embed config_default.yaml
var embeddedConfig []byte

// OriginConf is one configured backend server.
type OriginConf struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	URL  string `yaml:"url"`
}

// AccountConf is one account to sync. Origin refers to an origin name.
type AccountConf struct {
	Username    string `yaml:"username"`
	Origin      string `yaml:"origin"`
	Oid         string `yaml:"oid"`
	AccessToken string `yaml:"accessToken"`
}

type AppConfig struct {
	Conf struct {
		Host            string
		HttpPort        int    `yaml:"httpPort"`
		DbFile          string `yaml:"dbFile"`
		SyncIntervalSec int    `yaml:"syncIntervalSec"`
		KeywordsFilter  string `yaml:"keywordsFilter"`
		StaleAfterHours int    `yaml:"staleAfterHours"`
		LimitLatest     int    `yaml:"limitLatest"`
		LimitYounger    int    `yaml:"limitYounger"`
		LimitOlder      int    `yaml:"limitOlder"`
	}
	Origins  []OriginConf  `yaml:"origins"`
	Accounts []AccountConf `yaml:"accounts"`
}

// SyncInterval is the pause between scheduled sync rounds.
func (c *AppConfig) SyncInterval() time.Duration {
	if c.Conf.SyncIntervalSec <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Conf.SyncIntervalSec) * time.Second
}

// StaleAfter is how long a stored cursor stays trustworthy.
func (c *AppConfig) StaleAfter() time.Duration {
	if c.Conf.StaleAfterHours <= 0 {
		return 0
	}
	return time.Duration(c.Conf.StaleAfterHours) * time.Hour
}

func ReadConf() (*AppConfig, error) {

	c := &AppConfig{}

	// Try to resolve config file path (local first, then user dir)
	configPath := ResolveFilePath(ConfigFileName)

	var buf []byte
	var err error

	buf, err = os.ReadFile(configPath)
	if err != nil {
		// If file doesn't exist, use embedded config and create user config file
		log.Printf("Config file not found at %s, using embedded defaults", configPath)
		buf = embeddedConfig

		configDir, dirErr := GetConfigDir()
		if dirErr == nil {
			userConfigPath := configDir + "/" + ConfigFileName
			writeErr := os.WriteFile(userConfigPath, embeddedConfig, 0644)
			if writeErr != nil {
				log.Printf("Warning: could not write default config to %s: %v", userConfigPath, writeErr)
			} else {
				log.Printf("Created default config file at %s", userConfigPath)
			}
		}
	}

	err = yaml.Unmarshal(buf, c)
	if err != nil {
		return nil, fmt.Errorf("in config file: %w", err)
	}

	envHost := os.Getenv("FEDISYNC_HOST")
	envHttpPort := os.Getenv("FEDISYNC_HTTPPORT")
	envDbFile := os.Getenv("FEDISYNC_DBFILE")
	envSyncInterval := os.Getenv("FEDISYNC_SYNC_INTERVAL_SEC")
	envKeywords := os.Getenv("FEDISYNC_KEYWORDS_FILTER")

	if envHost != "" {
		c.Conf.Host = envHost
	}

	if envHttpPort != "" {
		v, err := strconv.Atoi(envHttpPort)
		if err != nil {
			fmt.Println(err)
		}
		c.Conf.HttpPort = v
	}

	if envDbFile != "" {
		c.Conf.DbFile = envDbFile
	}

	if envSyncInterval != "" {
		v, err := strconv.Atoi(envSyncInterval)
		if err != nil {
			fmt.Println(err)
		}
		c.Conf.SyncIntervalSec = v
	}

	if envKeywords != "" {
		c.Conf.KeywordsFilter = envKeywords
	}

	return c, nil
}
