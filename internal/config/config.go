package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"voicecoach/internal/scenario"
)

const (
	defaultAPIBase     = "http://localhost:8000/api"
	defaultMediaHost   = "http://localhost:8000"
	defaultSampleRate  = 16000
	defaultChannels    = 1
	defaultBitRate     = 96000
	maxRecordingLength = 60 * time.Second
)

// Config stores runtime configuration for the coaching client.
type Config struct {
	Backend    BackendConfig
	Audio      AudioConfig
	Permission PermissionConfig
	Session    SessionConfig
	Log        LogConfig

	// File is the YAML file that was applied, if any.
	File string
}

type BackendConfig struct {
	APIBaseURL string
	MediaHost  string
	Timeout    time.Duration
}

type AudioConfig struct {
	RecorderCommand string
	PlayerCommand   string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
	BitRate         int
	MaxDuration     time.Duration
	ClipDir         string
}

type PermissionConfig struct {
	AssumeGranted bool
	SettingsURL   string
}

type SessionConfig struct {
	Scenario  scenario.ID
	Questions map[scenario.ID][]string
}

type LogConfig struct {
	Level  string
	Format string
}

// fileConfig mirrors the YAML layout. Pointers distinguish unset from zero.
type fileConfig struct {
	APIBase       string `yaml:"api_base"`
	MediaHost     string `yaml:"media_host"`
	HTTPTimeoutMS *int   `yaml:"http_timeout_ms"`

	Audio struct {
		FFMPEGCommand  string `yaml:"ffmpeg_command"`
		FFPlayCommand  string `yaml:"ffplay_command"`
		InputFormat    string `yaml:"input_format"`
		InputDevice    string `yaml:"input_device"`
		SampleRate     int    `yaml:"sample_rate"`
		Channels       int    `yaml:"channels"`
		BitRate        int    `yaml:"bit_rate"`
		MaxRecordingMS int    `yaml:"max_recording_ms"`
		ClipDir        string `yaml:"clip_dir"`
	} `yaml:"audio"`

	Permission struct {
		AssumeGranted *bool  `yaml:"assume_granted"`
		SettingsURL   string `yaml:"settings_url"`
	} `yaml:"permission"`

	Scenario  string              `yaml:"scenario"`
	Scenarios map[string][]string `yaml:"scenarios"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load resolves configuration from defaults, an optional YAML file and
// environment variables, in that order.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	cfg := defaults()

	path := strings.TrimSpace(os.Getenv("VOICECOACH_CONFIG_FILE"))
	if path == "" {
		path = firstExisting(
			filepath.Join(home, ".config", "voicecoach", "config.yaml"),
			filepath.Join(home, ".voicecoach.yaml"),
		)
	}
	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
		cfg.File = path
	}

	scenarioValue := envOrDefault("VOICECOACH_SCENARIO", string(cfg.Session.Scenario))
	id, err := scenario.Parse(scenarioValue)
	if err != nil {
		return Config{}, err
	}

	cfg.Backend = BackendConfig{
		APIBaseURL: envOrDefault("VOICECOACH_API_BASE", cfg.Backend.APIBaseURL),
		MediaHost:  envOrDefault("VOICECOACH_MEDIA_HOST", cfg.Backend.MediaHost),
		Timeout:    time.Duration(envOrDefaultInt("VOICECOACH_HTTP_TIMEOUT_MS", int(cfg.Backend.Timeout/time.Millisecond))) * time.Millisecond,
	}
	cfg.Audio = AudioConfig{
		RecorderCommand: envOrDefault("VOICECOACH_FFMPEG_COMMAND", cfg.Audio.RecorderCommand),
		PlayerCommand:   envOrDefault("VOICECOACH_FFPLAY_COMMAND", cfg.Audio.PlayerCommand),
		InputFormat:     envOrDefault("VOICECOACH_AUDIO_INPUT_FORMAT", cfg.Audio.InputFormat),
		InputDevice: firstNonEmpty(
			os.Getenv("VOICECOACH_AUDIO_INPUT_DEVICE"),
			os.Getenv("PULSE_SOURCE"),
			cfg.Audio.InputDevice,
		),
		SampleRate:  envOrDefaultInt("VOICECOACH_SAMPLE_RATE", cfg.Audio.SampleRate),
		Channels:    envOrDefaultInt("VOICECOACH_CHANNELS", cfg.Audio.Channels),
		BitRate:     envOrDefaultInt("VOICECOACH_BIT_RATE", cfg.Audio.BitRate),
		MaxDuration: time.Duration(envOrDefaultInt("VOICECOACH_MAX_RECORDING_MS", int(cfg.Audio.MaxDuration/time.Millisecond))) * time.Millisecond,
		ClipDir:     envOrDefault("VOICECOACH_CLIP_DIR", cfg.Audio.ClipDir),
	}
	cfg.Permission = PermissionConfig{
		AssumeGranted: envOrDefaultBool("VOICECOACH_ASSUME_MIC_PERMISSION", cfg.Permission.AssumeGranted),
		SettingsURL:   envOrDefault("VOICECOACH_SETTINGS_URL", cfg.Permission.SettingsURL),
	}
	cfg.Session.Scenario = id
	cfg.Log = LogConfig{
		Level:  envOrDefault("VOICECOACH_LOG_LEVEL", cfg.Log.Level),
		Format: envOrDefault("VOICECOACH_LOG_FORMAT", cfg.Log.Format),
	}

	clamp(&cfg)
	return cfg, nil
}

func defaults() Config {
	return Config{
		Backend: BackendConfig{
			APIBaseURL: defaultAPIBase,
			MediaHost:  defaultMediaHost,
		},
		Audio: AudioConfig{
			RecorderCommand: "ffmpeg",
			PlayerCommand:   "ffplay",
			InputFormat:     "pulse",
			InputDevice:     "default",
			SampleRate:      defaultSampleRate,
			Channels:        defaultChannels,
			BitRate:         defaultBitRate,
			MaxDuration:     maxRecordingLength,
			ClipDir:         filepath.Join(os.TempDir(), "voicecoach"),
		},
		Permission: PermissionConfig{
			AssumeGranted: true,
			SettingsURL:   defaultSettingsURL(runtime.GOOS),
		},
		Session: SessionConfig{Scenario: scenario.Attract},
		Log:     LogConfig{Level: "info", Format: "text"},
	}
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	setString(&cfg.Backend.APIBaseURL, file.APIBase)
	setString(&cfg.Backend.MediaHost, file.MediaHost)
	if file.HTTPTimeoutMS != nil {
		cfg.Backend.Timeout = time.Duration(*file.HTTPTimeoutMS) * time.Millisecond
	}

	setString(&cfg.Audio.RecorderCommand, file.Audio.FFMPEGCommand)
	setString(&cfg.Audio.PlayerCommand, file.Audio.FFPlayCommand)
	setString(&cfg.Audio.InputFormat, file.Audio.InputFormat)
	setString(&cfg.Audio.InputDevice, file.Audio.InputDevice)
	setString(&cfg.Audio.ClipDir, file.Audio.ClipDir)
	setInt(&cfg.Audio.SampleRate, file.Audio.SampleRate)
	setInt(&cfg.Audio.Channels, file.Audio.Channels)
	setInt(&cfg.Audio.BitRate, file.Audio.BitRate)
	if file.Audio.MaxRecordingMS > 0 {
		cfg.Audio.MaxDuration = time.Duration(file.Audio.MaxRecordingMS) * time.Millisecond
	}

	if file.Permission.AssumeGranted != nil {
		cfg.Permission.AssumeGranted = *file.Permission.AssumeGranted
	}
	setString(&cfg.Permission.SettingsURL, file.Permission.SettingsURL)

	if strings.TrimSpace(file.Scenario) != "" {
		id, err := scenario.Parse(file.Scenario)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		cfg.Session.Scenario = id
	}
	if len(file.Scenarios) > 0 {
		cfg.Session.Questions = make(map[scenario.ID][]string, len(file.Scenarios))
		for key, questions := range file.Scenarios {
			id, err := scenario.Parse(key)
			if err != nil {
				return fmt.Errorf("%s: scenarios: %w", path, err)
			}
			cfg.Session.Questions[id] = questions
		}
	}

	setString(&cfg.Log.Level, file.Log.Level)
	setString(&cfg.Log.Format, file.Log.Format)
	return nil
}

func clamp(cfg *Config) {
	if cfg.Backend.Timeout < 0 {
		cfg.Backend.Timeout = 0
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = defaultSampleRate
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = defaultChannels
	}
	if cfg.Audio.BitRate <= 0 {
		cfg.Audio.BitRate = defaultBitRate
	}
	if cfg.Audio.MaxDuration <= 0 || cfg.Audio.MaxDuration > maxRecordingLength {
		cfg.Audio.MaxDuration = maxRecordingLength
	}
}

func defaultSettingsURL(goos string) string {
	switch goos {
	case "darwin":
		return "x-apple.systempreferences:com.apple.preference.security?Privacy_Microphone"
	case "windows":
		return "ms-settings:privacy-microphone"
	default:
		return ""
	}
}

// firstExisting returns the first path that exists, or "" when none do.
func firstExisting(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func setString(dst *string, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		*dst = trimmed
	}
}

func setInt(dst *int, value int) {
	if value != 0 {
		*dst = value
	}
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
