package metrics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/mbdyn/internal/dynamics"
)

// COMTravel accumulates the path length of the skeleton center of mass.
type COMTravel struct {
	name    string
	last    mgl64.Vec3
	total   float64
	samples int
}

func NewCOMTravel() *COMTravel {
	return &COMTravel{name: "com_travel"}
}

func (c *COMTravel) Name() string { return c.name }

func (c *COMTravel) Observe(skel *dynamics.Skeleton, t float64) {
	com := skel.WorldCOM()
	if c.samples > 0 {
		c.total += com.Sub(c.last).Len()
	}
	c.last = com
	c.samples++
}

func (c *COMTravel) Value() float64 {
	return c.total
}

func (c *COMTravel) Reset() {
	c.last = mgl64.Vec3{}
	c.total = 0
	c.samples = 0
}
