// Package renderer draws the globe scene with OpenGL.
package renderer

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/earthview/internal/assets"
	"github.com/Faultbox/earthview/internal/engine/renderer/shaders"
	"github.com/Faultbox/earthview/internal/engine/shader"
	"github.com/Faultbox/earthview/internal/globe"
	"github.com/Faultbox/earthview/internal/logger"
)

// ErrOutOfMemory is returned when the driver runs out of memory mid-frame.
var ErrOutOfMemory = errors.New("out of GPU memory")

// glContextLost is GL_CONTEXT_LOST. Robust contexts report a driver reset
// through glGetError; the 4.1 bindings predate the constant.
const glContextLost = 0x0507

// maxErrors bounds how many queued GL errors one frame drains.
const maxErrors = 16

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// Renderer owns every GL object of one context: programs, mesh buffers and
// textures. A lost context invalidates all of them, so the renderer is thrown
// away with the scene and a new one is created.
type Renderer struct {
	config Config

	programs [3]*shader.Program // indexed by globe.MaterialKind
	meshes   map[*globe.Mesh]*gpuMesh
	textures map[*assets.TextureAsset]uint32

	maxTextureSize int
	lost           bool
	log            *zap.Logger
}

// New creates a renderer.
// IMPORTANT: Must be called AFTER the OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config:   cfg,
		meshes:   make(map[*globe.Mesh]*gpuMesh),
		textures: make(map[*assets.TextureAsset]uint32),
		log:      logger.Named("renderer"),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	var maxTex int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxTex)
	r.maxTextureSize = int(maxTex)

	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.Int("max_texture_size", r.maxTextureSize),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LEQUAL)
	gl.FrontFace(gl.CCW)
	gl.ClearColor(0, 0, 0, 1)

	sources := [...]struct {
		kind     globe.MaterialKind
		fragment string
	}{
		{globe.MaterialPhong, shaders.PhongFragmentShader},
		{globe.MaterialUnlit, shaders.UnlitFragmentShader},
		{globe.MaterialNightLights, shaders.NightLightsFragmentShader},
	}
	for _, src := range sources {
		p, err := shader.New(src.kind.String(), shaders.GlobeVertexShader, src.fragment)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.programs[src.kind] = p
	}

	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// MaxTextureSize returns the largest texture edge the device accepts.
func (r *Renderer) MaxTextureSize() int { return r.maxTextureSize }

// ContextLost reports whether the context behind this renderer has been lost,
// either found by Render or reported through MarkContextLost.
func (r *Renderer) ContextLost() bool { return r.lost }

// MarkContextLost records that the context was reset. Every GL object the
// renderer holds is invalid from now on.
func (r *Renderer) MarkContextLost() {
	if !r.lost {
		r.lost = true
		r.log.Warn("context marked lost",
			zap.Int("meshes", len(r.meshes)),
			zap.Int("textures", len(r.textures)))
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Clear fills the framebuffer with the background colour.
func (r *Renderer) Clear() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// Idle clears the screen for a frame without a scene, such as while the
// first textures load, and reports a context reset found meanwhile.
func (r *Renderer) Idle() error {
	if r.lost {
		return globe.ErrContextLost
	}
	r.Clear()
	return r.checkErrors()
}

// ReadPixels reads the current framebuffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() (pixels []byte, width, height int) {
	width, height = r.config.Width, r.config.Height
	pixels = make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, width, height
}

// Render draws every visible mesh. Opaque layers go first, then the
// transparent shells from the inside out with depth writes disabled.
func (r *Renderer) Render(scene *globe.Scene, view globe.View) error {
	if r.lost {
		return globe.ErrContextLost
	}
	r.Clear()

	meshes := scene.Meshes()
	r.collect(meshes)

	viewProj := view.ProjectionMatrix().Mul4(view.ViewMatrix())
	cameraPos := view.ViewMatrix().Inv().Col(3).Vec3()

	gl.Disable(gl.BLEND)
	gl.DepthMask(true)
	for _, m := range meshes {
		if m.Visible() && !m.Material.Transparent {
			r.draw(m, scene.Lighting, viewProj, cameraPos)
		}
	}

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	gl.DepthMask(false)
	for _, m := range meshes {
		if m.Visible() && m.Material.Transparent {
			r.draw(m, scene.Lighting, viewProj, cameraPos)
		}
	}
	gl.DepthMask(true)
	gl.BindVertexArray(0)

	return r.checkErrors()
}

// checkErrors drains the GL error queue. A reset marks the renderer lost and
// wins over any other error queued in the same frame.
func (r *Renderer) checkErrors() error {
	var err error
	for i := 0; i < maxErrors; i++ {
		code := gl.GetError()
		switch code {
		case gl.NO_ERROR:
			return err
		case glContextLost:
			r.MarkContextLost()
			return fmt.Errorf("renderer: %w", globe.ErrContextLost)
		case gl.OUT_OF_MEMORY:
			err = ErrOutOfMemory
		default:
			r.log.Debug("GL error", zap.Uint32("code", code))
		}
	}
	return err
}

func (r *Renderer) draw(m *globe.Mesh, light globe.Lighting, viewProj mgl32.Mat4, cameraPos mgl32.Vec3) {
	mat := m.Material
	p := r.programs[mat.Kind]
	p.Use()

	p.SetMat4("uModel", m.Model())
	p.SetMat4("uViewProj", viewProj)
	p.SetVec3("uSunDir", light.SunPos.Normalize())

	r.bind(p, "uMap", 0, mat.Map)
	if mat.Kind == globe.MaterialPhong {
		p.SetVec3("uAmbient", light.Ambient)
		p.SetVec3("uSunColor", light.SunColor)
		p.SetVec3("uCameraPos", cameraPos)
		p.SetVec3("uSpecular", mat.Specular)
		p.SetFloat("uShininess", 30)
		p.SetBool("uHasBump", mat.BumpMap != nil)
		p.SetFloat("uBumpScale", mat.BumpScale)
		p.SetBool("uHasSpecular", mat.SpecularMap != nil)
		r.bind(p, "uBumpMap", 1, mat.BumpMap)
		r.bind(p, "uSpecularMap", 2, mat.SpecularMap)
	}

	gl.Enable(gl.CULL_FACE)
	if mat.BackSide {
		gl.CullFace(gl.FRONT)
	} else {
		gl.CullFace(gl.BACK)
	}

	gm := r.mesh(m)
	gl.BindVertexArray(gm.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, gm.indexCount, gl.UNSIGNED_INT, 0)
}

// bind attaches a texture to a sampler unit, uploading it first if needed.
func (r *Renderer) bind(p *shader.Program, uniform string, unit uint32, tex *assets.TextureAsset) {
	if tex == nil {
		return
	}
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, r.texture(tex))
	p.SetInt(uniform, int32(unit))
}

func (r *Renderer) texture(tex *assets.TextureAsset) uint32 {
	id, ok := r.textures[tex]
	if ok && !tex.NeedsUpload {
		return id
	}
	if ok {
		gl.DeleteTextures(1, &id)
	}
	id = uploadTexture(tex.Image)
	r.textures[tex] = id
	tex.NeedsUpload = false
	r.log.Debug("texture uploaded",
		zap.String("uri", tex.URI),
		zap.Int("width", tex.Image.Bounds().Dx()),
		zap.Int("height", tex.Image.Bounds().Dy()))
	return id
}

func (r *Renderer) mesh(m *globe.Mesh) *gpuMesh {
	if gm, ok := r.meshes[m]; ok {
		return gm
	}
	gm := uploadMesh(m.Geometry.Build())
	r.meshes[m] = gm
	return gm
}

// collect frees textures that no mesh references any more, such as the
// initial variants after an upgrade.
func (r *Renderer) collect(meshes []*globe.Mesh) {
	inUse := make(map[*assets.TextureAsset]bool, len(r.textures))
	for _, m := range meshes {
		for _, t := range m.Material.Textures() {
			inUse[t] = true
		}
	}
	for tex, id := range r.textures {
		if !inUse[tex] {
			gl.DeleteTextures(1, &id)
			delete(r.textures, tex)
			r.log.Debug("texture released", zap.String("uri", tex.URI))
		}
	}
}

// Close releases every GL object. Nothing is deleted after a context loss
// since the objects no longer exist.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	if r.lost {
		clear(r.meshes)
		clear(r.textures)
		return
	}
	for _, gm := range r.meshes {
		gm.delete()
	}
	clear(r.meshes)
	for _, id := range r.textures {
		gl.DeleteTextures(1, &id)
	}
	clear(r.textures)
	for _, p := range r.programs {
		if p != nil {
			p.Delete()
		}
	}
}
