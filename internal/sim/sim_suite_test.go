package sim_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/mbdyn/internal/config"
	"github.com/san-kum/mbdyn/internal/dynamics"
	"github.com/san-kum/mbdyn/internal/integrators"
	"github.com/san-kum/mbdyn/internal/metrics"
	"github.com/san-kum/mbdyn/internal/sim"
)

func TestSim(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Sim Suite")
}

type countingObserver struct {
	steps int
}

func (c *countingObserver) OnStep(skel *dynamics.Skeleton, t float64) { c.steps++ }

func newSimulator() *sim.Simulator {
	cfg := config.GetPreset("pendulum")
	skel, err := cfg.Build()
	Expect(err).NotTo(HaveOccurred())
	stepper, err := integrators.New("semi_implicit")
	Expect(err).NotTo(HaveOccurred())
	return sim.New(skel, stepper)
}

var _ = Describe("Simulator", func() {
	It("records one sample per step plus the initial state", func() {
		s := newSimulator()
		result, err := s.Run(context.Background(), sim.Config{
			Dt:            0.001,
			Duration:      0.1,
			ValidateState: true,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.StepsTaken).To(Equal(100))
		Expect(result.Times).To(HaveLen(101))
		Expect(result.States).To(HaveLen(101))
		Expect(result.Energies).To(HaveLen(101))
	})

	It("rejects a non-positive timestep", func() {
		s := newSimulator()
		_, err := s.Run(context.Background(), sim.Config{Dt: 0, Duration: 1})
		Expect(err).To(HaveOccurred())

		_, err = s.Run(context.Background(), sim.Config{Dt: 0.001, Duration: -1})
		Expect(err).To(HaveOccurred())
	})

	It("returns the partial result when the context is cancelled", func() {
		s := newSimulator()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := s.Run(ctx, sim.Config{Dt: 0.001, Duration: 1})
		Expect(err).To(MatchError(context.Canceled))
		Expect(result).NotTo(BeNil())
		Expect(result.StepsTaken).To(BeZero())
		Expect(result.Times).To(HaveLen(1))
	})

	It("reports metric values by name", func() {
		s := newSimulator()
		s.AddMetric(metrics.NewEnergyDrift())
		s.AddMetric(metrics.NewCOMTravel())

		result, err := s.Run(context.Background(), sim.Config{Dt: 0.001, Duration: 0.05})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Metrics).To(HaveKey("energy_drift"))
		Expect(result.Metrics).To(HaveKey("com_travel"))
		Expect(result.Metrics["com_travel"]).To(BeNumerically(">", 0))
	})

	It("notifies observers on every step", func() {
		s := newSimulator()
		obs := &countingObserver{}
		s.AddObserver(obs)

		result, err := s.Run(context.Background(), sim.Config{Dt: 0.001, Duration: 0.02})
		Expect(err).NotTo(HaveOccurred())
		Expect(obs.steps).To(Equal(result.StepsTaken))
	})

	It("stops the callback run when asked", func() {
		s := newSimulator()
		calls := 0
		err := s.RunWithCallback(context.Background(), sim.Config{Dt: 0.001, Duration: 1},
			func(skel *dynamics.Skeleton, t float64) bool {
				calls++
				return calls < 5
			})
		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(Equal(5))
	})
})
