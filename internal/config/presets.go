package config

var Presets = map[string]*Config{
	"pendulum": {
		Name: "pendulum", Integrator: "semi_implicit", Dt: 0.001, Duration: 10.0,
		Gravity: [3]float64{0, 0, -9.81},
		Links: []LinkConfig{
			{
				Name: "link1", Joint: "revolute", Axis: [3]float64{0, 1, 0},
				Mass: 1, COM: [3]float64{0, 0, -0.5},
				Inertia: Inertia{Ixx: 0.084, Iyy: 0.084, Izz: 0.001},
				InitPos: []float64{0.5},
			},
		},
	},
	"double_pendulum": {
		Name: "double_pendulum", Integrator: "semi_implicit", Dt: 0.0005, Duration: 30.0,
		Gravity: [3]float64{0, 0, -9.81},
		Links: []LinkConfig{
			{
				Name: "link1", Joint: "revolute", Axis: [3]float64{0, 1, 0},
				Mass: 1, COM: [3]float64{0, 0, -0.5},
				Inertia: Inertia{Ixx: 0.084, Iyy: 0.084, Izz: 0.001},
				InitPos: []float64{1.5},
			},
			{
				Name: "link2", Parent: "link1", Joint: "revolute", Axis: [3]float64{0, 1, 0},
				Translation: [3]float64{0, 0, -1},
				Mass:        1, COM: [3]float64{0, 0, -0.5},
				Inertia: Inertia{Ixx: 0.084, Iyy: 0.084, Izz: 0.001},
				InitPos: []float64{1.5},
			},
		},
	},
	"chain": {
		Name: "chain", Integrator: "semi_implicit", Dt: 0.001, Duration: 10.0,
		Gravity: [3]float64{0, 0, -9.81},
		Links: []LinkConfig{
			{
				Name: "link1", Joint: "ball",
				Mass: 1, COM: [3]float64{0, 0, -0.25},
				Inertia: Inertia{Ixx: 0.02, Iyy: 0.02, Izz: 0.001},
				InitPos: []float64{0.3, 0, 0},
			},
			{
				Name: "link2", Parent: "link1", Joint: "ball",
				Translation: [3]float64{0, 0, -0.5},
				Mass:        1, COM: [3]float64{0, 0, -0.25},
				Inertia: Inertia{Ixx: 0.02, Iyy: 0.02, Izz: 0.001},
			},
			{
				Name: "link3", Parent: "link2", Joint: "ball",
				Translation: [3]float64{0, 0, -0.5},
				Mass:        1, COM: [3]float64{0, 0, -0.25},
				Inertia: Inertia{Ixx: 0.02, Iyy: 0.02, Izz: 0.001},
			},
		},
	},
	"freefall": {
		Name: "freefall", Integrator: "semi_implicit", Dt: 0.001, Duration: 2.0,
		Gravity: [3]float64{0, 0, -9.81},
		Links: []LinkConfig{
			{
				Name: "body", Joint: "free",
				Mass: 2, Inertia: Inertia{Ixx: 1, Iyy: 1, Izz: 1},
				InitPos: []float64{0, 0, 0, 0, 0, 10},
			},
		},
	},
	"soft_blob": {
		Name: "soft_blob", Integrator: "semi_implicit", Dt: 0.0005, Duration: 5.0,
		Gravity: [3]float64{0, 0, -9.81},
		Links: []LinkConfig{
			{
				Name: "shell", Joint: "free",
				Mass: 1, Inertia: Inertia{Ixx: 0.1, Iyy: 0.1, Izz: 0.1},
				InitPos: []float64{0, 0, 0, 0, 0, 2},
				Soft: &SoftConfig{
					VertexStiffness: 50, EdgeStiffness: 20, Damping: 0.5,
					PointMasses: []PointMassConfig{
						{Mass: 0.1, RestPos: [3]float64{0.2, 0, 0}},
						{Mass: 0.1, RestPos: [3]float64{-0.2, 0, 0}},
						{Mass: 0.1, RestPos: [3]float64{0, 0.2, 0}},
						{Mass: 0.1, RestPos: [3]float64{0, -0.2, 0}},
					},
					Edges: [][2]int{{0, 2}, {2, 1}, {1, 3}, {3, 0}},
				},
			},
		},
	},
}

func GetPreset(name string) *Config {
	return Presets[name]
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
