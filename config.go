package voilibgov

import (
	"github.com/asdine/storm"
)

const (
	userConfigBucketName = "user_config"

	LogLevelConfigKey = "log_level"

	ProfileHostConfigKey      = "profile_host"
	CountdownEnabledConfigKey = "countdown_enabled"

	LastSyncTimestampConfigKey = "last_sync_timestamp"
	LastRosterVersionConfigKey = "last_roster_version"
	LastTxHashConfigKey        = "last_tx_hash"

	HideStakingPromptConfigKey = "hide_staking_prompt"
)

// SaveUserConfigValue saves config value for key.
func (g *Governance) SaveUserConfigValue(key string, value interface{}) {
	err := g.db.Set(userConfigBucketName, key, value)
	if err != nil {
		log.Errorf("error setting config value for key: %s, error: %v", key, err)
	}
}

// ReadUserConfigValue retrieves the raw value for config key.
func (g *Governance) ReadUserConfigValue(key string, valueOut interface{}) error {
	err := g.db.Get(userConfigBucketName, key, valueOut)
	if err != nil && err != storm.ErrNotFound {
		log.Errorf("error reading config value for key: %s, error: %v", key, err)
	}
	return err
}

// DeleteUserConfigValueForKey deletes a key from the bucket.
func (g *Governance) DeleteUserConfigValueForKey(key string) {
	err := g.db.Delete(userConfigBucketName, key)
	if err != nil {
		log.Errorf("error deleting config value for key: %s, error: %v", key, err)
	}
}

// ClearConfig drops the config bucket.
func (g *Governance) ClearConfig() {
	err := g.db.Drop(userConfigBucketName)
	if err != nil {
		log.Errorf("error deleting config bucket: %v", err)
	}
}

// SetBoolConfigValueForKey sets bool config value for key.
func (g *Governance) SetBoolConfigValueForKey(key string, value bool) {
	g.SaveUserConfigValue(key, value)
}

// SetLongConfigValueForKey sets an int64 config value for key.
func (g *Governance) SetLongConfigValueForKey(key string, value int64) {
	g.SaveUserConfigValue(key, value)
}

// SetStringConfigValueForKey sets a string config value for key.
func (g *Governance) SetStringConfigValueForKey(key, value string) {
	g.SaveUserConfigValue(key, value)
}

// ReadBoolConfigValueForKey reads the bool config value for key.
func (g *Governance) ReadBoolConfigValueForKey(key string, defaultValue bool) (valueOut bool) {
	if err := g.ReadUserConfigValue(key, &valueOut); err == storm.ErrNotFound {
		valueOut = defaultValue
	}
	return
}

// ReadLongConfigValueForKey reads the int64 config value for key.
func (g *Governance) ReadLongConfigValueForKey(key string, defaultValue int64) (valueOut int64) {
	if err := g.ReadUserConfigValue(key, &valueOut); err == storm.ErrNotFound {
		valueOut = defaultValue
	}
	return
}

// ReadStringConfigValueForKey reads the string config value for key.
func (g *Governance) ReadStringConfigValueForKey(key string) (valueOut string) {
	g.ReadUserConfigValue(key, &valueOut)
	return
}
