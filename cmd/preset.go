package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

// PresetList prints every saved effect preset.
func (r *Runner) PresetList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openStore()
	if err != nil {
		return err
	}

	presets, err := store.GetPresets()
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(presets, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Presets (%d)", len(presets)))
	for _, p := range presets {
		r.writePlain("%s  %s [%s] reverb=%.2f delay=%.2f distortion=%.2f bass=%.1fdB\n",
			p.ID, p.Name, p.Environment, p.Params.ReverbMix, p.Params.DelayMix, p.Params.Distortion, p.Params.BassBoost)
	}
	return nil
}

// PresetSave stores an effect preset built from flags. Saving an existing name overwrites it.
func (r *Runner) PresetSave(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: preset name is required", shared.ErrMissingArgument)
	}

	env, err := models.ParseEnvironment(cmd.String("environment"))
	if err != nil {
		return err
	}

	params := models.DefaultEffectParams()
	for flag, field := range map[string]*float64{
		"reverb-mix":     &params.ReverbMix,
		"reverb-decay":   &params.ReverbDecay,
		"delay-mix":      &params.DelayMix,
		"delay-time":     &params.DelayTime,
		"delay-feedback": &params.DelayFeedback,
		"distortion":     &params.Distortion,
		"bass-boost":     &params.BassBoost,
	} {
		if cmd.IsSet(flag) {
			*field = cmd.Float(flag)
		}
	}
	params.Normalize = cmd.Bool("normalize")

	store, err := r.openStore()
	if err != nil {
		return err
	}

	preset := models.NewEffectPreset(name, params.Clamped(), env)
	if err := store.SavePreset(preset); err != nil {
		return err
	}
	r.writePlain("✓ Saved preset %s (%s)\n", preset.Name, preset.ID)
	return nil
}

// PresetDelete deletes a preset by id.
func (r *Runner) PresetDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: preset id is required", shared.ErrMissingArgument)
	}

	store, err := r.openStore()
	if err != nil {
		return err
	}
	if err := store.DeletePreset(id); err != nil {
		return err
	}
	r.writePlain("✓ Deleted preset %s\n", id)
	return nil
}
