package config

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/mbdyn/internal/dynamics"
	"github.com/san-kum/mbdyn/internal/spatial"
)

const (
	DefaultDt       = 0.001
	DefaultDuration = 10.0
	DefaultGravityZ = -9.81
)

type Config struct {
	Name       string       `yaml:"name"`
	Integrator string       `yaml:"integrator"`
	Dt         float64      `yaml:"dt"`
	Duration   float64      `yaml:"duration"`
	Gravity    [3]float64   `yaml:"gravity"`
	Links      []LinkConfig `yaml:"links"`
}

type LinkConfig struct {
	Name        string     `yaml:"name"`
	Parent      string     `yaml:"parent"`
	Joint       string     `yaml:"joint"`
	Axis        [3]float64 `yaml:"axis"`
	Axis2       [3]float64 `yaml:"axis2"`
	Translation [3]float64 `yaml:"translation"`
	Mass        float64    `yaml:"mass"`
	COM         [3]float64 `yaml:"com"`
	Inertia     Inertia    `yaml:"inertia"`
	Spring      JointSpring `yaml:"spring"`
	InitPos     []float64  `yaml:"init_pos"`
	InitVel     []float64  `yaml:"init_vel"`
	Soft        *SoftConfig `yaml:"soft"`
}

type Inertia struct {
	Ixx float64 `yaml:"ixx"`
	Iyy float64 `yaml:"iyy"`
	Izz float64 `yaml:"izz"`
	Ixy float64 `yaml:"ixy"`
	Ixz float64 `yaml:"ixz"`
	Iyz float64 `yaml:"iyz"`
}

type JointSpring struct {
	Stiffness    float64 `yaml:"stiffness"`
	RestPosition float64 `yaml:"rest_position"`
	Damping      float64 `yaml:"damping"`
}

type SoftConfig struct {
	VertexStiffness float64           `yaml:"vertex_stiffness"`
	EdgeStiffness   float64           `yaml:"edge_stiffness"`
	Damping         float64           `yaml:"damping"`
	PointMasses     []PointMassConfig `yaml:"point_masses"`
	Edges           [][2]int          `yaml:"edges"`
}

type PointMassConfig struct {
	Mass    float64    `yaml:"mass"`
	RestPos [3]float64 `yaml:"rest_pos"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:       "pendulum",
		Integrator: "semi_implicit",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Gravity:    [3]float64{0, 0, DefaultGravityZ},
		Links: []LinkConfig{
			{
				Name: "link1", Joint: "revolute", Axis: [3]float64{0, 1, 0},
				Mass: 1, COM: [3]float64{0, 0, -0.5},
				Inertia: Inertia{Ixx: 1, Iyy: 1, Izz: 1},
				InitPos: []float64{0.5},
			},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Dt == 0 {
		cfg.Dt = DefaultDt
	}
	if cfg.Duration == 0 {
		cfg.Duration = DefaultDuration
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func vec3(a [3]float64) mgl64.Vec3 { return mgl64.Vec3{a[0], a[1], a[2]} }

func newJoint(lc LinkConfig) (dynamics.Joint, error) {
	name := lc.Name + "_joint"
	switch lc.Joint {
	case "weld":
		return dynamics.NewWeldJoint(name), nil
	case "revolute":
		return dynamics.NewRevoluteJoint(name, vec3(lc.Axis)), nil
	case "prismatic":
		return dynamics.NewPrismaticJoint(name, vec3(lc.Axis)), nil
	case "universal":
		return dynamics.NewUniversalJoint(name, vec3(lc.Axis), vec3(lc.Axis2)), nil
	case "ball":
		return dynamics.NewBallJoint(name), nil
	case "translational":
		return dynamics.NewTranslationalJoint(name), nil
	case "free", "":
		return dynamics.NewFreeJoint(name), nil
	default:
		return nil, fmt.Errorf("config: unknown joint type %q", lc.Joint)
	}
}

// Build constructs and initializes the skeleton described by the config.
func (c *Config) Build() (*dynamics.Skeleton, error) {
	if len(c.Links) == 0 {
		return nil, fmt.Errorf("config: %q has no links", c.Name)
	}
	skel := dynamics.NewSkeleton(c.Name)
	bodies := make(map[string]*dynamics.BodyNode, len(c.Links))

	for _, lc := range c.Links {
		j, err := newJoint(lc)
		if err != nil {
			return nil, err
		}
		j.SetTransformFromParentBody(spatial.Translation(vec3(lc.Translation)))
		if lc.Spring.Stiffness != 0 || lc.Spring.Damping != 0 {
			for i := 0; i < j.NumDofs(); i++ {
				j.SetSpringStiffness(i, lc.Spring.Stiffness)
				j.SetRestPosition(i, lc.Spring.RestPosition)
				j.SetDampingCoefficient(i, lc.Spring.Damping)
			}
		}

		var body *dynamics.BodyNode
		if lc.Soft != nil {
			soft := dynamics.NewSoftBodyNode(lc.Name, j)
			soft.SetVertexSpringStiffness(lc.Soft.VertexStiffness)
			soft.SetEdgeSpringStiffness(lc.Soft.EdgeStiffness)
			soft.SetDampingCoefficient(lc.Soft.Damping)
			for i, pc := range lc.Soft.PointMasses {
				pm := dynamics.NewPointMass(fmt.Sprintf("%s_pm%d", lc.Name, i), pc.Mass, vec3(pc.RestPos))
				soft.AddPointMass(pm)
			}
			for _, e := range lc.Soft.Edges {
				if e[0] < 0 || e[0] >= soft.NumPointMasses() || e[1] < 0 || e[1] >= soft.NumPointMasses() {
					return nil, fmt.Errorf("config: edge %v out of range on %q", e, lc.Name)
				}
				soft.PointMass(e[0]).AddConnectedPointMass(soft.PointMass(e[1]))
				soft.PointMass(e[1]).AddConnectedPointMass(soft.PointMass(e[0]))
			}
			skel.AddSoftBodyNode(soft)
			body = &soft.BodyNode
		} else {
			body = dynamics.NewBodyNode(lc.Name, j)
			skel.AddBodyNode(body)
		}

		mass := lc.Mass
		if mass == 0 {
			mass = 1
		}
		body.SetMass(mass)
		body.SetLocalCOM(vec3(lc.COM))
		in := lc.Inertia
		if in.Ixx == 0 && in.Iyy == 0 && in.Izz == 0 {
			in = Inertia{Ixx: 1, Iyy: 1, Izz: 1}
		}
		body.SetMomentOfInertia(in.Ixx, in.Iyy, in.Izz, in.Ixy, in.Ixz, in.Iyz)

		bodies[lc.Name] = body
	}

	for _, lc := range c.Links {
		if lc.Parent == "" {
			continue
		}
		parent, ok := bodies[lc.Parent]
		if !ok {
			return nil, fmt.Errorf("config: link %q references unknown parent %q", lc.Name, lc.Parent)
		}
		parent.AddChildBodyNode(bodies[lc.Name])
	}

	if err := skel.Init(c.Dt, vec3(c.Gravity)); err != nil {
		return nil, err
	}

	q := skel.Positions()
	dq := skel.Velocities()
	for _, lc := range c.Links {
		j := bodies[lc.Name].ParentJoint()
		for i := 0; i < j.NumDofs(); i++ {
			idx := j.GenCoord(i).IndexInSkeleton()
			if i < len(lc.InitPos) {
				q[idx] = lc.InitPos[i]
			}
			if i < len(lc.InitVel) {
				dq[idx] = lc.InitVel[i]
			}
		}
	}
	skel.SetPositions(q)
	skel.SetVelocities(dq)

	return skel, nil
}
