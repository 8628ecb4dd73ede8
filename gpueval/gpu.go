//go:build gpu

package gpueval

import (
	"errors"
	"io"

	"github.com/go-gl/gl/all-core/gl"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/glgl/v4.6-core/glgl"
)

// NewComputeField compiles a GLSL compute shader from source and
// returns an eval.FieldEvaluator backed by it, adapted from the
// teacher's NewComputeGPUSDF3. Requires an active OpenGL context.
func NewComputeField(source io.Reader, bounds ms3.Box) (Adapter, error) {
	combined, err := glgl.ParseCombined(source)
	if err != nil {
		return Adapter{}, err
	}
	prog, err := glgl.CompileProgram(combined)
	if err != nil {
		return Adapter{}, errors.New(string(combined.Compute) + "\n" + err.Error())
	}
	return Adapter{SDF: &computeSDF{prog: prog, bb: bounds}}, nil
}

type computeSDF struct {
	prog glgl.Program
	bb   ms3.Box
}

func (sdf *computeSDF) Bounds() ms3.Box { return sdf.bb }

func (sdf *computeSDF) Evaluate(pos []ms3.Vec, dist []float32, userData any) error {
	sdf.prog.Bind()
	posCfg := glgl.TextureImgConfig{
		Type:           glgl.Texture2D,
		Width:          len(pos),
		Height:         1,
		Access:         glgl.ReadOnly,
		Format:         gl.RGB,
		MinFilter:      gl.NEAREST,
		MagFilter:      gl.NEAREST,
		Xtype:          gl.FLOAT,
		InternalFormat: gl.RGBA32F,
		ImageUnit:      0,
	}
	if _, err := glgl.NewTextureFromImage(posCfg, pos); err != nil {
		return err
	}
	distCfg := glgl.TextureImgConfig{
		Type:           glgl.Texture2D,
		Width:          len(dist),
		Height:         1,
		Access:         glgl.WriteOnly,
		Format:         gl.RED,
		MinFilter:      gl.NEAREST,
		MagFilter:      gl.NEAREST,
		Xtype:          gl.FLOAT,
		InternalFormat: gl.R32F,
		ImageUnit:      1,
	}
	distTex, err := glgl.NewTextureFromImage(distCfg, dist)
	if err != nil {
		return err
	}
	if err := sdf.prog.RunCompute(len(dist), 1, 1); err != nil {
		return err
	}
	return glgl.GetImage(dist, distTex, distCfg)
}
