package stream

import (
	"encoding/json"

	"github.com/pthm-cable/flock/engine"
)

// Point is one particle in a streamed frame.
type Point struct {
	X     float32 `json:"x"`
	Y     float32 `json:"y"`
	PX    float32 `json:"px"`
	PY    float32 `json:"py"`
	A     uint8   `json:"a"`
	R     uint8   `json:"r"`
	G     uint8   `json:"g"`
	B     uint8   `json:"b"`
	Group int     `json:"grp"`
}

// Frame is a snapshot of the simulation sent to remote renderers.
type Frame struct {
	Tick      uint64  `json:"tick"`
	Time      float64 `json:"time"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Particles []Point `json:"particles"`
}

// NewFrame builds a frame from views, keeping at most maxParticles of them
// (0 = all). When trimming, particles are taken at an even stride so every
// group stays represented.
func NewFrame(tick uint64, t, width, height float64, views []engine.ParticleView, maxParticles int) Frame {
	stride := 1
	if maxParticles > 0 && len(views) > maxParticles {
		stride = (len(views) + maxParticles - 1) / maxParticles
	}

	pts := make([]Point, 0, len(views)/stride+1)
	for i := 0; i < len(views); i += stride {
		v := &views[i]
		pts = append(pts, Point{
			X:     float32(v.Position.X),
			Y:     float32(v.Position.Y),
			PX:    float32(v.PrevPosition.X),
			PY:    float32(v.PrevPosition.Y),
			A:     v.Alpha,
			R:     v.Color.R,
			G:     v.Color.G,
			B:     v.Color.B,
			Group: v.Group,
		})
	}

	return Frame{
		Tick:      tick,
		Time:      t,
		Width:     width,
		Height:    height,
		Particles: pts,
	}
}

// JSON encodes the frame.
func (f Frame) JSON() ([]byte, error) {
	return json.Marshal(f)
}
