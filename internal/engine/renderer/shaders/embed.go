// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// GlobeVertexShader is shared by every globe program.
//
//go:embed globe.vert
var GlobeVertexShader string

// PhongFragmentShader lights the surface and clouds with optional bump and
// specular maps.
//
//go:embed phong.frag
var PhongFragmentShader string

// UnlitFragmentShader draws borders and the starfield.
//
//go:embed unlit.frag
var UnlitFragmentShader string

// NightLightsFragmentShader shows city lights only on the dark side.
//
//go:embed nightlights.frag
var NightLightsFragmentShader string
