package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/tapedeck/internal/shared"
)

// EffectParams holds the live effect settings of a playback session.
//
// Mix values and Distortion are in [0, 1]; ReverbDecay and DelayTime are seconds;
// DelayFeedback is capped below 1 so the delay line always decays; BassBoost is in dB.
type EffectParams struct {
	ReverbMix     float64 `json:"reverb_mix" yaml:"reverb_mix"`
	ReverbDecay   float64 `json:"reverb_decay" yaml:"reverb_decay"`
	DelayMix      float64 `json:"delay_mix" yaml:"delay_mix"`
	DelayTime     float64 `json:"delay_time" yaml:"delay_time"`
	DelayFeedback float64 `json:"delay_feedback" yaml:"delay_feedback"`
	Distortion    float64 `json:"distortion" yaml:"distortion"`
	BassBoost     float64 `json:"bass_boost" yaml:"bass_boost"`
	Normalize     bool    `json:"normalize" yaml:"normalize"`
}

const (
	MaxDelayTime     = 2.0
	MaxReverbDecay   = 10.0
	MaxDelayFeedback = 0.95
	MaxBassBoost     = 12.0
)

// DefaultEffectParams returns a dry signal with a short reverb tail available.
func DefaultEffectParams() EffectParams {
	return EffectParams{ReverbDecay: 1.5, DelayTime: 0.25, DelayFeedback: 0.3}
}

// Clamped returns p with every field forced into range. Non-finite values become 0.
func (p EffectParams) Clamped() EffectParams {
	c := func(v, hi float64) float64 {
		if !finite(v) {
			return 0
		}
		return shared.Clamp(v, 0, hi)
	}
	return EffectParams{
		ReverbMix:     c(p.ReverbMix, 1),
		ReverbDecay:   c(p.ReverbDecay, MaxReverbDecay),
		DelayMix:      c(p.DelayMix, 1),
		DelayTime:     c(p.DelayTime, MaxDelayTime),
		DelayFeedback: c(p.DelayFeedback, MaxDelayFeedback),
		Distortion:    c(p.Distortion, 1),
		BassBoost:     c(p.BassBoost, MaxBassBoost),
		Normalize:     p.Normalize,
	}
}

// EnvironmentParams returns the reverb character of an environment preset.
func EnvironmentParams(env Environment) (mix, decay float64) {
	switch env {
	case EnvSmallRoom:
		return 0.2, 0.6
	case EnvCathedral:
		return 0.45, 4.0
	case EnvTemple:
		return 0.55, 7.0
	default:
		return 0, 0
	}
}

// EffectPreset is a named snapshot of [EffectParams] and an [Environment].
type EffectPreset struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Params      EffectParams `json:"params" yaml:"params"`
	Environment Environment  `json:"environment" yaml:"environment"`
	CreatedAt   time.Time    `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" yaml:"updated_at"`
}

// NewEffectPreset snapshots params and env under name.
func NewEffectPreset(name string, params EffectParams, env Environment) *EffectPreset {
	now := time.Now()
	return &EffectPreset{Name: name, Params: params, Environment: env, CreatedAt: now, UpdatedAt: now}
}

func (p *EffectPreset) Key() string { return p.ID }

func (p *EffectPreset) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: preset id is required", shared.ErrInvalidInput)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: preset name is required", shared.ErrInvalidInput)
	}
	if _, err := ParseEnvironment(string(p.Environment)); err != nil {
		return err
	}
	return nil
}
