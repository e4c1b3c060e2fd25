//go:build gl

package compute

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"
	"github.com/san-kum/rdsim/internal/dynamo"
)

//go:embed shaders/fullscreen.vert
var fullscreenVert string

//go:embed shaders/grayscott.frag
var grayScottFrag string

// OpenGLBackend runs the update law in a fragment shader over two RG32F
// textures attached in turn to one framebuffer. A GL context must be current
// on the calling goroutine.
type OpenGLBackend struct {
	Program     uint32
	FBO         uint32
	VAO         uint32
	Tex         [2]uint32
	src         int
	w, h        int32
	Initialized bool

	locs struct {
		f, k, du, dv, dt   int32
		pointer, ptrActive int32
		state              int32
	}
	staging []float32
}

func NewOpenGLBackend() *OpenGLBackend {
	return &OpenGLBackend{}
}

func (g *OpenGLBackend) Name() string    { return BackendGL }
func (g *OpenGLBackend) Available() bool { return g.Initialized }

func (g *OpenGLBackend) Init() error {
	if g.Initialized {
		return nil
	}
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to init opengl: %v: %w", err, dynamo.ErrBackendUnavailable)
	}

	program, err := createProgram(fullscreenVert, grayScottFrag)
	if err != nil {
		return err
	}
	g.Program = program

	g.locs.state = uniform(program, "state")
	g.locs.f = uniform(program, "F")
	g.locs.k = uniform(program, "k")
	g.locs.du = uniform(program, "Du")
	g.locs.dv = uniform(program, "Dv")
	g.locs.dt = uniform(program, "dt")
	g.locs.pointer = uniform(program, "pointer")
	g.locs.ptrActive = uniform(program, "pointerActive")

	gl.GenFramebuffers(1, &g.FBO)
	gl.GenVertexArrays(1, &g.VAO)
	g.Initialized = true
	return nil
}

func (g *OpenGLBackend) Load(f *dynamo.Field) error {
	if !g.Initialized {
		return dynamo.ErrBackendUnavailable
	}
	if int32(f.W) != g.w || int32(f.H) != g.h || g.Tex[0] == 0 {
		g.allocate(int32(f.W), int32(f.H))
	}

	n := f.Len()
	for i := 0; i < n; i++ {
		g.staging[2*i] = f.U[i]
		g.staging[2*i+1] = f.V[i]
	}
	g.src = 0
	gl.BindTexture(gl.TEXTURE_2D, g.Tex[g.src])
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, g.w, g.h, gl.RG, gl.FLOAT, gl.Ptr(g.staging))
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return nil
}

func (g *OpenGLBackend) allocate(w, h int32) {
	if g.Tex[0] != 0 {
		gl.DeleteTextures(2, &g.Tex[0])
	}
	g.w, g.h = w, h
	g.staging = make([]float32, int(w)*int(h)*2)

	gl.GenTextures(2, &g.Tex[0])
	for _, tex := range g.Tex {
		gl.BindTexture(gl.TEXTURE_2D, tex)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RG32F, w, h, 0, gl.RG, gl.FLOAT, nil)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func (g *OpenGLBackend) Step(u Uniforms) error {
	if !g.Initialized || g.Tex[0] == 0 {
		return dynamo.ErrNotInitialized
	}
	if !(u.Dt > 0) {
		return dynamo.ErrInvalidTimestep
	}

	var prevFBO int32
	var prevViewport [4]int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	gl.GetIntegerv(gl.VIEWPORT, &prevViewport[0])

	dst := 1 - g.src
	gl.BindFramebuffer(gl.FRAMEBUFFER, g.FBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, g.Tex[dst], 0)
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))
		return fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}
	gl.Viewport(0, 0, g.w, g.h)

	gl.UseProgram(g.Program)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, g.Tex[g.src])
	gl.Uniform1i(g.locs.state, 0)
	gl.Uniform1f(g.locs.f, u.Feed)
	gl.Uniform1f(g.locs.k, u.Kill)
	gl.Uniform1f(g.locs.du, u.DiffU)
	gl.Uniform1f(g.locs.dv, u.DiffV)
	gl.Uniform1f(g.locs.dt, u.Dt)
	gl.Uniform2i(g.locs.pointer, int32(u.Pointer.X), int32(u.Pointer.Y))
	active := int32(0)
	if u.Pointer.Active {
		active = 1
	}
	gl.Uniform1i(g.locs.ptrActive, active)

	gl.BindVertexArray(g.VAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
	gl.BindVertexArray(0)

	g.src = dst

	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))
	gl.Viewport(prevViewport[0], prevViewport[1], prevViewport[2], prevViewport[3])
	return nil
}

func (g *OpenGLBackend) Store(f *dynamo.Field) error {
	if !g.Initialized || g.Tex[0] == 0 {
		return dynamo.ErrNotInitialized
	}
	if int32(f.W) != g.w || int32(f.H) != g.h {
		return dynamo.ErrDimensionMismatch
	}

	var prevFBO int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	gl.BindFramebuffer(gl.FRAMEBUFFER, g.FBO)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, g.Tex[g.src], 0)
	gl.ReadPixels(0, 0, g.w, g.h, gl.RG, gl.FLOAT, gl.Ptr(g.staging))
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))

	n := f.Len()
	for i := 0; i < n; i++ {
		f.U[i] = g.staging[2*i]
		f.V[i] = g.staging[2*i+1]
	}
	return nil
}

func (g *OpenGLBackend) Cleanup() {
	if !g.Initialized {
		return
	}
	if g.Tex[0] != 0 {
		gl.DeleteTextures(2, &g.Tex[0])
		g.Tex = [2]uint32{}
	}
	gl.DeleteFramebuffers(1, &g.FBO)
	gl.DeleteVertexArrays(1, &g.VAO)
	gl.DeleteProgram(g.Program)
	g.w, g.h = 0, 0
	g.Initialized = false
}

func uniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func compileShader(source string, kind uint32) (uint32, error) {
	shader := gl.CreateShader(kind)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("failed to compile shader: %v", log)
	}
	return shader, nil
}

func createProgram(vertSource, fragSource string) (uint32, error) {
	vShader, err := compileShader(vertSource, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fShader, err := compileShader(fragSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vShader)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vShader)
	gl.AttachShader(program, fShader)
	gl.LinkProgram(program)

	gl.DeleteShader(vShader)
	gl.DeleteShader(fShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("failed to link program")
	}
	return program, nil
}
