//go:build !gl

package compute

import "github.com/san-kum/rdsim/internal/dynamo"

type OpenGLBackend struct{}

func NewOpenGLBackend() *OpenGLBackend {
	return &OpenGLBackend{}
}

func (g *OpenGLBackend) Name() string    { return "gl (not available)" }
func (g *OpenGLBackend) Available() bool { return false }
func (g *OpenGLBackend) Init() error     { return dynamo.ErrBackendUnavailable }
func (g *OpenGLBackend) Cleanup()        {}

func (g *OpenGLBackend) Load(f *dynamo.Field) error { return dynamo.ErrBackendUnavailable }
func (g *OpenGLBackend) Step(u Uniforms) error      { return dynamo.ErrBackendUnavailable }
func (g *OpenGLBackend) Store(f *dynamo.Field) error {
	return dynamo.ErrBackendUnavailable
}
