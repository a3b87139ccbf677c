package player

import (
	"fmt"
	"math"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

// SettingsFromConfig converts the [playback] config section. Unknown curves and
// environments fall back to linear and none with a warning.
func SettingsFromConfig(cfg shared.PlaybackConfig, logger *log.Logger) Settings {
	s := DefaultSettings()
	s.Volume = shared.Clamp(cfg.Volume, 0, 1)
	s.FadeIn = math.Max(cfg.FadeIn, 0)
	s.FadeOut = math.Max(cfg.FadeOut, 0)
	s.AutoAdvance = cfg.AutoAdvance

	if curve, err := models.ParseCurve(cfg.Curve); err == nil {
		s.Curve = curve
	} else if logger != nil {
		logger.Warn("unknown fade curve, using linear", "curve", cfg.Curve)
	}
	if env, err := models.ParseEnvironment(cfg.Environment); err == nil {
		s.Environment = env
	} else if logger != nil {
		logger.Warn("unknown environment, using none", "environment", cfg.Environment)
	}
	return s
}

// Settings returns a copy of the session settings.
func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// ApplyConfig replaces the playback settings with cfg, keeping effects and offline mode.
func (e *Engine) ApplyConfig(cfg shared.PlaybackConfig) {
	s := SettingsFromConfig(cfg, e.logger)

	e.mu.Lock()
	defer e.mu.Unlock()
	s.Effects = e.settings.Effects
	s.Offline = e.settings.Offline
	e.applySettings(s)
	e.applyVolume()
	e.logger.Info("playback settings reloaded", "volume", s.Volume, "curve", s.Curve, "environment", s.Environment)
}

func (e *Engine) applySettings(s Settings) {
	e.settings = s
	e.resolver.SetOffline(s.Offline)
	e.graph.SetEffects(s.Effects)
	e.graph.SetEnvironment(s.Environment)
}

// applyVolume pushes a new effective target. A fade-in is replaced by an immediate
// assignment; a fade-out keeps going and the new level applies on the next fade-in.
func (e *Engine) applyVolume() {
	if e.state != StatePlaying {
		return
	}
	if e.fader.Active() && e.fadingOut {
		return
	}
	e.fader.Cancel()
	e.sink.SetVolume(e.target())
}

// SetVolume sets the master volume, clamped to [0, 1].
func (e *Engine) SetVolume(v float64) error {
	if math.IsNaN(v) {
		return fmt.Errorf("%w: volume is not a number", shared.ErrInvalidArgument)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.Volume = shared.Clamp(v, 0, 1)
	e.applyVolume()
	return nil
}

// SetTrackVolume sets the per-track volume override, clamped to [0, 1].
func (e *Engine) SetTrackVolume(trackID string, v float64) error {
	if math.IsNaN(v) {
		return fmt.Errorf("%w: volume is not a number", shared.ErrInvalidArgument)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.trackVolumes[trackID] = shared.Clamp(v, 0, 1)
	if e.currentID() == trackID {
		e.applyVolume()
	}
	return nil
}

// ClearTrackVolume removes the per-track override so the track's stored gain applies again.
func (e *Engine) ClearTrackVolume(trackID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.trackVolumes, trackID)
	if e.currentID() == trackID {
		e.applyVolume()
	}
}

// SetFadeIn sets the fade-in duration in seconds.
func (e *Engine) SetFadeIn(secs float64) error {
	if math.IsNaN(secs) || secs < 0 {
		return fmt.Errorf("%w: fade-in %v", shared.ErrInvalidArgument, secs)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.FadeIn = secs
	return nil
}

// SetFadeOut sets the fade-out duration in seconds.
func (e *Engine) SetFadeOut(secs float64) error {
	if math.IsNaN(secs) || secs < 0 {
		return fmt.Errorf("%w: fade-out %v", shared.ErrInvalidArgument, secs)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.FadeOut = secs
	return nil
}

func (e *Engine) SetCurve(curve models.Curve) error {
	if !slices.Contains(models.Curves, curve) {
		return fmt.Errorf("%w: curve %q", shared.ErrInvalidArgument, curve)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.Curve = curve
	return nil
}

func (e *Engine) SetAutoAdvance(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.AutoAdvance = on
}

// SetEnvironment switches the acoustic environment and rewires the effects graph.
func (e *Engine) SetEnvironment(env models.Environment) error {
	if !slices.Contains(models.Environments, env) {
		return fmt.Errorf("%w: environment %q", shared.ErrInvalidArgument, env)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.Environment = env
	e.graph.SetEnvironment(env)
	return nil
}

// SetEffects stores the effect parameters (clamped) and pushes them to the graph.
func (e *Engine) SetEffects(params models.EffectParams) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.Effects = params.Clamped()
	e.graph.SetEffects(e.settings.Effects)
}

// SetOfflineMode toggles offline mode on the resolver.
func (e *Engine) SetOfflineMode(offline bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.Offline = offline
	e.resolver.SetOffline(offline)
}

// EffectsDegraded reports whether the effects graph failed to build and playback runs dry.
func (e *Engine) EffectsDegraded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.Degraded()
}

// SavePreset persists the current environment and effect parameters under name.
// A preset with the same name is overwritten.
func (e *Engine) SavePreset(name string) (*models.EffectPreset, error) {
	e.mu.Lock()
	preset := models.NewEffectPreset(name, e.settings.Effects, e.settings.Environment)
	e.mu.Unlock()

	if name == "" {
		return nil, fmt.Errorf("%w: preset name", shared.ErrMissingArgument)
	}
	if err := e.store.SavePreset(preset); err != nil {
		return nil, err
	}
	e.logger.Debug("preset saved", "name", name, "id", preset.ID)
	return preset, nil
}

// LoadPreset applies the stored preset's environment and effect parameters.
func (e *Engine) LoadPreset(id string) (*models.EffectPreset, error) {
	presets, err := e.store.GetPresets()
	if err != nil {
		return nil, err
	}
	idx := slices.IndexFunc(presets, func(p models.EffectPreset) bool { return p.ID == id })
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrPresetNotFound, id)
	}
	preset := presets[idx]

	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings.Effects = preset.Params.Clamped()
	e.settings.Environment = preset.Environment
	e.graph.SetEffects(e.settings.Effects)
	e.graph.SetEnvironment(preset.Environment)
	e.logger.Debug("preset loaded", "name", preset.Name, "environment", preset.Environment)
	return &preset, nil
}

// Presets lists the stored presets.
func (e *Engine) Presets() ([]models.EffectPreset, error) {
	return e.store.GetPresets()
}

// DeletePreset removes a stored preset. The current settings are unchanged.
func (e *Engine) DeletePreset(id string) error {
	return e.store.DeletePreset(id)
}
