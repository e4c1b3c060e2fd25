package config

import (
	"fmt"
	"strings"

	"github.com/san-kum/rdsim/internal/dynamo"
)

// Preset is a named (F, k) pair.
type Preset struct {
	Name string
	F, K float32
}

var presets = [...]Preset{
	{Name: "Mazes", F: 0.037, K: 0.060},
	{Name: "Worms", F: 0.078, K: 0.061},
	{Name: "Flower", F: 0.055, K: 0.062},
	{Name: "Waves", F: 0.014, K: 0.045},
	{Name: "Pulses", F: 0.025, K: 0.060},
	{Name: "Holes", F: 0.039, K: 0.058},
}

// Presets returns a copy of the catalog in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets[:])
	return out
}

// NumPresets is the size of the catalog.
func NumPresets() int { return len(presets) }

// SelectPreset returns params with F and k replaced by preset index. Diffusion
// coefficients and sub-step count are left as they are.
func SelectPreset(index int, params dynamo.Params) (dynamo.Params, error) {
	p, err := GetPreset(index)
	if err != nil {
		return params, err
	}
	params.Feed, params.Kill = p.F, p.K
	return params, nil
}

func GetPreset(index int) (Preset, error) {
	if index < 0 || index >= len(presets) {
		return Preset{}, fmt.Errorf("preset %d (have %d): %w", index, len(presets), dynamo.ErrIndexOutOfRange)
	}
	return presets[index], nil
}

// PresetByName finds a preset case-insensitively and returns its index.
func PresetByName(name string) (int, Preset, bool) {
	for i, p := range presets {
		if strings.EqualFold(p.Name, name) {
			return i, p, true
		}
	}
	return -1, Preset{}, false
}

func ListPresets() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	return names
}
