// Package config handles modelconv configuration loading and management.
package config

import (
	"github.com/Faultbox/modelconv/pkg/mesh"
	"github.com/Faultbox/modelconv/pkg/render"
)

// Config holds all modelconv settings.
type Config struct {
	Mesh    MeshConfig    `yaml:"mesh"`
	Export  ExportConfig  `yaml:"export"`
	SVG     SVGConfig     `yaml:"svg"`
	Logging LoggingConfig `yaml:"logging"`
}

// MeshConfig holds import and face grouping settings.
type MeshConfig struct {
	NormalEpsilon        float32 `yaml:"normal_epsilon"`         // <= 0 means exact normal equality
	SingleLoop           bool    `yaml:"single_loop"`            // reject faces with holes
	RecomputeZeroNormals bool    `yaml:"recompute_zero_normals"` // fill in all-zero record normals
}

// ExportConfig holds STL export settings.
type ExportConfig struct {
	Header string `yaml:"header"` // Empty keeps the imported header
}

// SVGConfig holds face sheet settings.
type SVGConfig struct {
	Scale     float64 `yaml:"scale"`
	Margin    float64 `yaml:"margin"`
	PageWidth float64 `yaml:"page_width"`
	Stroke    string  `yaml:"stroke"`
	Fill      string  `yaml:"fill"`
	Labels    bool    `yaml:"labels"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	svg := render.DefaultSVGOptions()
	return &Config{
		Mesh: MeshConfig{
			NormalEpsilon: mesh.DefaultNormalEpsilon,
		},
		SVG: SVGConfig{
			Scale:     svg.Scale,
			Margin:    svg.Margin,
			PageWidth: svg.PageWidth,
			Stroke:    svg.Stroke,
			Fill:      svg.Fill,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// MeshOptions converts the mesh section into import options.
func (c *Config) MeshOptions() mesh.Options {
	opts := mesh.DefaultOptions()
	opts.Faces.NormalEpsilon = c.Mesh.NormalEpsilon
	opts.Faces.SingleLoop = c.Mesh.SingleLoop
	opts.RecomputeZeroNormals = c.Mesh.RecomputeZeroNormals
	return opts
}

// SVGOptions converts the svg section into render options.
func (c *Config) SVGOptions() render.SVGOptions {
	return render.SVGOptions{
		Scale:     c.SVG.Scale,
		Margin:    c.SVG.Margin,
		PageWidth: c.SVG.PageWidth,
		Stroke:    c.SVG.Stroke,
		Fill:      c.SVG.Fill,
		Labels:    c.SVG.Labels,
	}
}
