package sdf

import (
	"errors"

	"github.com/soypat/geometry/ms2"
)

// Gradient returns the central-difference gradient of the scene field at
// p with the given half step. The gradient of a true distance field has
// unit length away from medial axes; callers needing a direction should
// still normalize.
func (s *Scene) Gradient(p ms2.Vec, step float32) ms2.Vec {
	if step <= 0 {
		step = 0.5
	}
	dx := s.Distance(ms2.Add(p, ms2.Vec{X: step})) - s.Distance(ms2.Sub(p, ms2.Vec{X: step}))
	dy := s.Distance(ms2.Add(p, ms2.Vec{Y: step})) - s.Distance(ms2.Sub(p, ms2.Vec{Y: step}))
	return ms2.Scale(1/(2*step), ms2.Vec{X: dx, Y: dy})
}

// NormalsCentralDiff computes central-difference gradients of a field
// over pos, storing them in normals. Results are unnormalized gradients.
// step is the full sampling width; each axis is probed at +-step/2.
func NormalsCentralDiff(f Field, pos []ms2.Vec, normals []ms2.Vec, step float32, userData any) error {
	step *= 0.5
	if step <= 0 {
		return errors.New("sdf: invalid step")
	}
	if f == nil {
		return errors.New("sdf: nil field")
	}
	if len(pos) != len(normals) {
		return errors.New("sdf: length of pos must match length of normals")
	}
	if len(pos) == 0 {
		return nil
	}
	d1 := make([]float32, len(pos))
	d2 := make([]float32, len(pos))
	aux := make([]ms2.Vec, len(pos))
	var axes = [2]ms2.Vec{{X: step}, {Y: step}}
	for dim := 0; dim < 2; dim++ {
		h := axes[dim]
		for i, p := range pos {
			aux[i] = ms2.Add(p, h)
		}
		if err := f.Evaluate(aux, d1, userData); err != nil {
			return err
		}
		for i, p := range pos {
			aux[i] = ms2.Sub(p, h)
		}
		if err := f.Evaluate(aux, d2, userData); err != nil {
			return err
		}
		inv := 1 / (2 * step)
		if dim == 0 {
			for i := range normals {
				normals[i].X = (d1[i] - d2[i]) * inv
			}
		} else {
			for i := range normals {
				normals[i].Y = (d1[i] - d2[i]) * inv
			}
		}
	}
	return nil
}
