package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/glass"
)

// SceneConfig describes the glass groups to composite. It can be
// loaded from a YAML file via the -config flag.
type SceneConfig struct {
	Groups []GroupConfig `yaml:"groups"`
}

// GroupConfig describes one glass group.
type GroupConfig struct {
	Scale    float64        `yaml:"scale"`
	Settings SettingsConfig `yaml:"settings"`
	Shapes   []ShapeConfig  `yaml:"shapes"`
}

// SettingsConfig overrides glass defaults. Pointer fields distinguish
// unset from zero.
type SettingsConfig struct {
	Thickness           *float64     `yaml:"thickness"`
	RefractiveIndex     *float64     `yaml:"refractive_index"`
	ChromaticAberration *float64     `yaml:"chromatic_aberration"`
	BlurRadius          *float64     `yaml:"blur_radius"`
	LightAngle          *float64     `yaml:"light_angle"`
	LightIntensity      *float64     `yaml:"light_intensity"`
	Ambient             *float64     `yaml:"ambient"`
	Saturation          *float64     `yaml:"saturation"`
	BlendRadius         *float64     `yaml:"blend_radius"`
	Tint                *ColorConfig `yaml:"tint"`
}

// ColorConfig is an RGBA color with components in [0, 1].
type ColorConfig struct {
	R float64 `yaml:"r"`
	G float64 `yaml:"g"`
	B float64 `yaml:"b"`
	A float64 `yaml:"a"`
}

// ShapeConfig describes one glass primitive.
type ShapeConfig struct {
	Kind         string  `yaml:"kind"`
	X            float64 `yaml:"x"`
	Y            float64 `yaml:"y"`
	Width        float64 `yaml:"width"`
	Height       float64 `yaml:"height"`
	CornerRadius float64 `yaml:"corner_radius"`
}

// LoadSceneConfig reads and parses a YAML scene file.
func LoadSceneConfig(path string) (SceneConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SceneConfig{}, fmt.Errorf("read config: %w", err)
	}
	var cfg SceneConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return SceneConfig{}, fmt.Errorf("parse config: %w", err)
	}
	if len(cfg.Groups) == 0 {
		return SceneConfig{}, fmt.Errorf("config %s defines no groups", path)
	}
	return cfg, nil
}

// toSettings applies the overrides onto the glass defaults.
func (sc SettingsConfig) toSettings() glass.Settings {
	s := glass.DefaultSettings()
	if sc.Thickness != nil {
		s.Thickness = *sc.Thickness
	}
	if sc.RefractiveIndex != nil {
		s.RefractiveIndex = *sc.RefractiveIndex
	}
	if sc.ChromaticAberration != nil {
		s.ChromaticAberration = *sc.ChromaticAberration
	}
	if sc.BlurRadius != nil {
		s.BlurRadius = *sc.BlurRadius
	}
	if sc.LightAngle != nil {
		s.LightAngle = *sc.LightAngle
	}
	if sc.LightIntensity != nil {
		s.LightIntensity = *sc.LightIntensity
	}
	if sc.Ambient != nil {
		s.Ambient = *sc.Ambient
	}
	if sc.Saturation != nil {
		s.Saturation = *sc.Saturation
	}
	if sc.BlendRadius != nil {
		s.BlendRadius = *sc.BlendRadius
	}
	if sc.Tint != nil {
		s.Tint = glass.RGBA{R: sc.Tint.R, G: sc.Tint.G, B: sc.Tint.B, A: sc.Tint.A}
	}
	return s
}

// toDescriptor converts the YAML shape to a glass descriptor.
func (sc ShapeConfig) toDescriptor() (glass.ShapeDescriptor, error) {
	var kind glass.ShapeKind
	switch sc.Kind {
	case "rounded_rect", "":
		kind = glass.ShapeRoundedRect
	case "ellipse":
		kind = glass.ShapeEllipse
	case "superellipse":
		kind = glass.ShapeSuperellipse
	default:
		return glass.ShapeDescriptor{}, fmt.Errorf("unknown shape kind %q", sc.Kind)
	}
	return glass.ShapeDescriptor{
		Kind:         kind,
		Center:       glass.Pt(sc.X, sc.Y),
		Size:         glass.V2(sc.Width, sc.Height),
		CornerRadius: sc.CornerRadius,
	}, nil
}

// buildGroups realizes the config into glass groups.
func buildGroups(cfg SceneConfig) ([]*glass.Group, error) {
	groups := make([]*glass.Group, 0, len(cfg.Groups))
	for gi, gc := range cfg.Groups {
		g := glass.NewGroup(glass.WithSettings(gc.Settings.toSettings()))
		if gc.Scale > 0 {
			g.SetScale(gc.Scale)
		}
		for si, sc := range gc.Shapes {
			desc, err := sc.toDescriptor()
			if err != nil {
				closeGroups(groups)
				g.Close()
				return nil, fmt.Errorf("group %d shape %d: %w", gi, si, err)
			}
			if err := g.Register(glass.ShapeID(si+1), desc); err != nil {
				closeGroups(groups)
				g.Close()
				return nil, fmt.Errorf("group %d shape %d: %w", gi, si, err)
			}
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func closeGroups(groups []*glass.Group) {
	for _, g := range groups {
		g.Close()
	}
}

// defaultScene is used when no -config file is given: a frosted panel,
// a tinted pill and a blended two-lobe widget.
func defaultScene(width, height float64) SceneConfig {
	f := func(v float64) *float64 { return &v }
	return SceneConfig{
		Groups: []GroupConfig{
			{
				Settings: SettingsConfig{
					Thickness:           f(26),
					ChromaticAberration: f(0.6),
					LightIntensity:      f(0.8),
					Ambient:             f(0.25),
				},
				Shapes: []ShapeConfig{{
					Kind:         "rounded_rect",
					X:            width * 0.34,
					Y:            height * 0.42,
					Width:        width * 0.44,
					Height:       height * 0.36,
					CornerRadius: 36,
				}},
			},
			{
				Settings: SettingsConfig{
					Thickness:  f(16),
					Saturation: f(1.25),
					Tint:       &ColorConfig{R: 0.95, G: 0.78, B: 0.55, A: 0.3},
				},
				Shapes: []ShapeConfig{{
					Kind:         "superellipse",
					X:            width * 0.72,
					Y:            height * 0.72,
					Width:        width * 0.3,
					Height:       height * 0.16,
					CornerRadius: 30,
				}},
			},
			{
				Settings: SettingsConfig{
					Thickness:   f(12),
					BlendRadius: f(18),
				},
				Shapes: []ShapeConfig{
					{
						Kind:   "ellipse",
						X:      width * 0.24,
						Y:      height * 0.82,
						Width:  90,
						Height: 90,
					},
					{
						Kind:   "ellipse",
						X:      width*0.24 + 70,
						Y:      height * 0.82,
						Width:  90,
						Height: 90,
					},
				},
			},
		},
	}
}
