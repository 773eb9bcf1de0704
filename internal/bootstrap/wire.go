package bootstrap

import (
	"strings"

	"voicecoach/internal/audio"
	"voicecoach/internal/backend"
	"voicecoach/internal/config"
	"voicecoach/internal/logging"
	"voicecoach/internal/permission"
	"voicecoach/internal/ports"
	"voicecoach/internal/scenario"
	"voicecoach/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Config  config.Config
	Backend *backend.Client
	Capture *audio.FFMPEGCapture
	Player  *audio.FFPlayPlayer
	Gate    ports.PermissionGate
	Events  ports.EventSink
}

// Build wires all dependencies for the current runtime. A nil gate falls back
// to the configured static permission answer.
func Build(eventSink ports.EventSink, gate ports.PermissionGate) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}
	if err := logging.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		return Services{}, err
	}

	if gate == nil {
		gate = permission.Static{Granted: cfg.Permission.AssumeGranted}
	}

	services := Services{
		Config: cfg,
		Backend: backend.NewClient(backend.Config{
			APIBaseURL: cfg.Backend.APIBaseURL,
			MediaHost:  cfg.Backend.MediaHost,
			Timeout:    cfg.Backend.Timeout,
		}),
		Capture: audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand),
		Player:  audio.NewFFPlayPlayer(cfg.Audio.PlayerCommand),
		Gate:    gate,
		Events:  eventSink,
	}

	log := logging.New("bootstrap")
	log.WithField("api", cfg.Backend.APIBaseURL).WithField("config", cfg.File).Debug("services ready")
	return services, nil
}

// OpenSession starts a training session for a scenario id or title. An empty
// value opens the configured default scenario.
func (s Services) OpenSession(value string) (*usecase.TrainingSession, error) {
	if strings.TrimSpace(value) == "" {
		value = string(s.Config.Session.Scenario)
	}
	sc, err := scenario.Load(value, s.Config.Session.Questions, nil)
	if err != nil {
		return nil, err
	}

	return usecase.NewTrainingSession(
		usecase.SessionDeps{
			Backend: s.Backend,
			Capture: s.Capture,
			Gate:    s.Gate,
			Player:  s.Player,
			Events:  s.Events,
		},
		sc,
		usecase.RecordingConfig{
			Audio: ports.AudioConfig{
				SampleRate:  s.Config.Audio.SampleRate,
				Channels:    s.Config.Audio.Channels,
				BitRate:     s.Config.Audio.BitRate,
				Format:      "mp3",
				InputFormat: s.Config.Audio.InputFormat,
				InputDevice: s.Config.Audio.InputDevice,
				MaxDuration: s.Config.Audio.MaxDuration,
				ClipDir:     s.Config.Audio.ClipDir,
			},
			SettingsURL: s.Config.Permission.SettingsURL,
		},
	), nil
}
