// package models defines the data model for the tapedeck library and playback engine
package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/tapedeck/internal/shared"
)

// Model defines the base interface for all persistent models.
// Implementations include Track, Folder, Playlist and EffectPreset.
type Model interface {
	Key() string     // Key returns the unique identifier for this model
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Curve selects the easing applied to volume fades.
type Curve string

const (
	CurveLinear      Curve = "linear"
	CurveExponential Curve = "exponential"
	CurveSmooth      Curve = "smooth"
)

// Curves lists every supported [Curve].
var Curves = []Curve{CurveLinear, CurveExponential, CurveSmooth}

// ParseCurve converts a case-insensitive name into a [Curve].
func ParseCurve(s string) (Curve, error) {
	c := Curve(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Curves {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown fade curve %q", shared.ErrInvalidArgument, s)
}

// Environment names an acoustic environment preset for the effects graph.
type Environment string

const (
	EnvNone      Environment = "none"
	EnvSmallRoom Environment = "small-room"
	EnvCathedral Environment = "cathedral"
	EnvTemple    Environment = "temple"
)

// Environments lists every supported [Environment].
var Environments = []Environment{EnvNone, EnvSmallRoom, EnvCathedral, EnvTemple}

// ParseEnvironment converts a case-insensitive name into an [Environment]. The empty string is [EnvNone].
func ParseEnvironment(s string) (Environment, error) {
	e := Environment(strings.ToLower(strings.TrimSpace(s)))
	if e == "" {
		return EnvNone, nil
	}
	for _, known := range Environments {
		if e == known {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: unknown environment %q", shared.ErrInvalidArgument, s)
}

// Wet reports whether the environment adds a reverb path.
func (e Environment) Wet() bool {
	return e != EnvNone && e != ""
}
