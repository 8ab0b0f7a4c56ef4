package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	GeneralParams   GeneralParams
	BackendParams   BackendParams
	SpeechParams    SpeechParams
	EmergencyParams EmergencyParams
	ControlParams   ControlParams
	StoreParams     StoreParams
}

type GeneralParams struct {
	Env      string
	Language string
}

type BackendParams struct {
	BaseURL string
	Timeout int
}

type SpeechParams struct {
	Endpoint      string
	APIKey        string
	LanguageCode  string
	VoiceName     string
	AudioEncoding string
	PlayerCommand string
}

type EmergencyParams struct {
	Protocol     string
	PollInterval int
	DialCommand  string
}

type ControlParams struct {
	Address   string
	SecretKey string
	TokenTTL  int
}

type StoreParams struct {
	Path          string
	NotifyCommand string
}

type ConfigManager struct {
	v      *viper.Viper
	config *Config
}

// NewConfigManager creates new config manager that handles
// all viper config options and loads a config from yaml
func NewConfigManager(configPath string) (*ConfigManager, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cm := &ConfigManager{v: v}

	if err := cm.loadConfig(); err != nil {
		return nil, err
	}

	return cm, nil
}

// Extracting data from yaml file and loading into Config
func (cm *ConfigManager) loadConfig() error {
	cm.config = &Config{
		GeneralParams: GeneralParams{
			Env:      cm.v.GetString("general_params.env"),
			Language: cm.v.GetString("general_params.language"),
		},
		BackendParams: BackendParams{
			BaseURL: cm.v.GetString("backend_params.base_url"),
			Timeout: cm.v.GetInt("backend_params.timeout"),
		},
		SpeechParams: SpeechParams{
			Endpoint:      cm.v.GetString("speech_params.endpoint"),
			APIKey:        cm.v.GetString("speech_params.api_key"),
			LanguageCode:  cm.v.GetString("speech_params.language_code"),
			VoiceName:     cm.v.GetString("speech_params.voice_name"),
			AudioEncoding: cm.v.GetString("speech_params.audio_encoding"),
			PlayerCommand: cm.v.GetString("speech_params.player_command"),
		},
		EmergencyParams: EmergencyParams{
			Protocol:     cm.v.GetString("emergency_params.protocol"),
			PollInterval: cm.v.GetInt("emergency_params.poll_interval"),
			DialCommand:  cm.v.GetString("emergency_params.dial_command"),
		},
		ControlParams: ControlParams{
			Address:   cm.v.GetString("control_params.address"),
			SecretKey: cm.v.GetString("control_params.secret_key"),
			TokenTTL:  cm.v.GetInt("control_params.token_ttl"),
		},
		StoreParams: StoreParams{
			Path:          cm.v.GetString("store_params.path"),
			NotifyCommand: cm.v.GetString("store_params.notify_command"),
		},
	}
	return nil
}

// Geting config instance
func (cm *ConfigManager) GetConfig() *Config {
	return cm.config
}

// Timeout for a single backend request
func (b *BackendParams) GetTimeout() time.Duration {
	if b.Timeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(b.Timeout) * time.Second
}

// Delay between emergency poll iterations
func (e *EmergencyParams) GetPollInterval() time.Duration {
	if e.PollInterval <= 0 {
		return 15 * time.Second
	}
	return time.Duration(e.PollInterval) * time.Second
}

// Lifetime of a minted caregiver token
func (c *ControlParams) GetTokenTTL() time.Duration {
	if c.TokenTTL <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.TokenTTL) * time.Minute
}

func (c *Config) Validate() error {
	// Checking out enviroment variable
	switch c.GeneralParams.Env {
	case "dev", "prod", "test":
	default:
		return fmt.Errorf("env parameter is invalid: %s. try dev/prod/test instead", c.GeneralParams.Env)
	}

	// Checking backend params
	if c.BackendParams.BaseURL == "" {
		return fmt.Errorf("parameter backend base_url is required")
	}

	// Checking speech params
	if c.SpeechParams.Endpoint == "" {
		return fmt.Errorf("parameter speech endpoint is required")
	}
	if c.SpeechParams.LanguageCode == "" {
		return fmt.Errorf("parameter speech language_code is required")
	}
	if c.SpeechParams.VoiceName == "" {
		return fmt.Errorf("parameter speech voice_name is requred")
	}

	// Checking emergency params
	if c.EmergencyParams.Protocol == "" {
		return fmt.Errorf("parameter emergency protocol is required")
	}
	if c.EmergencyParams.PollInterval < 0 {
		return fmt.Errorf("emergency poll_interval must not be negative")
	}

	// Checking control params
	if c.ControlParams.Address == "" {
		return fmt.Errorf("parameter control address is required")
	}
	if c.ControlParams.SecretKey == "" {
		return fmt.Errorf("parameter control secret_key is required")
	}

	// Checking store params
	if c.StoreParams.Path == "" {
		return fmt.Errorf("parameter store path is required")
	}

	return nil
}
