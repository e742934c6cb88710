package sim_test

import (
	"context"
	"errors"
	"math"
	"math/cmplx"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/barosim/internal/dynamo"
	"github.com/san-kum/barosim/internal/initial"
	"github.com/san-kum/barosim/internal/metrics"
	"github.com/san-kum/barosim/internal/sim"
	"github.com/san-kum/barosim/internal/sphere"
)

var _ = Describe("Model", func() {
	var (
		grid initial.Grid
		cfg  sim.Config
		ctx  context.Context
	)

	BeforeEach(func() {
		grid = initial.GaussianGrid(32, 64)
		cfg = sim.DefaultConfig()
		ctx = context.Background()
	})

	Describe("a zonal flow without diffusion", func() {
		DescribeTable("is a steady state",
			func(omega float64) {
				cfg.Omega = omega
				cfg.Diffusion = 0

				m, err := sim.New(cfg, initial.ZonalJet(grid, 40, 10, 30, 0, 0))
				Expect(err).NotTo(HaveOccurred())
				start := m.State().Current

				Expect(m.Run(ctx, 50, nil)).To(Succeed())

				end := m.State().Current
				scale := math.Sqrt(start.SquaredNorm())
				for i := range start.Coeffs {
					Expect(cmplx.Abs(end.Coeffs[i] - start.Coeffs[i])).To(BeNumerically("<=", 1e-9*scale))
				}
			},
			Entry("on a rotating sphere", 7.29e-5),
			Entry("on a resting sphere", 0.0),
		)
	})

	Describe("enstrophy", func() {
		It("does not grow in a diffusive unforced run", func() {
			cfg.DiffusionOrder = 2
			m, err := sim.New(cfg, initial.Vortex(grid, 45, 180, 5e-5, 12))
			Expect(err).NotTo(HaveOccurred())

			z0 := metrics.Enstrophy(m.State().Current)
			var last float64
			err = m.Run(ctx, 100, func(st *dynamo.State) error {
				last = metrics.Enstrophy(st.Current)
				Expect(last).To(BeNumerically("<=", z0*(1+1e-3)), "step %d", st.Step)
				return nil
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(last).To(BeNumerically("<", z0))
		})
	})

	Describe("the time step stability boundary", func() {
		BeforeEach(func() {
			cfg.Diffusion = 0
		})

		It("blows up with a six-hour-class step", func() {
			cfg.Dt = 1e5
			m, err := sim.New(cfg, initial.Vortex(grid, 45, 180, 5e-5, 12))
			Expect(err).NotTo(HaveOccurred())

			err = m.Run(ctx, 2000, nil)
			Expect(err).To(MatchError(dynamo.ErrNonFiniteState))

			var se *dynamo.StepError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Step).To(BeNumerically("<=", 2000))
			Expect(m.Err()).To(HaveOccurred())
		})

		DescribeTable("stays finite without diffusion",
			func(dt float64, steps int) {
				cfg.Dt = dt
				m, err := sim.New(cfg, initial.Vortex(grid, 45, 180, 5e-5, 12))
				Expect(err).NotTo(HaveOccurred())

				Expect(m.Run(ctx, steps, nil)).To(Succeed())
				Expect(m.State().IsValid()).To(BeTrue())
			},
			Entry("ten-minute step", 600.0, 500),
			Entry("twenty-minute step", 1200.0, 500),
		)
	})

	Describe("an isolated northern-hemisphere cyclone at T21", func() {
		var (
			fine  *sphere.Engine
			track *metrics.VortexTrack
			peaks []float64
			m     *sim.Model
		)

		peakOf := func(vrt dynamo.Spectral) float64 {
			g, err := fine.ToGrid(vrt)
			Expect(err).NotTo(HaveOccurred())
			return metrics.MaxAbs(g)
		}

		BeforeEach(func() {
			var err error
			fine, err = sphere.New(21, 96, 192, sphere.EarthRadius)
			Expect(err).NotTo(HaveOccurred())

			cfg.Dt = 1200
			cfg.Diffusion = 2e-5
			cfg.DiffusionOrder = 2
			m, err = sim.New(cfg, initial.Vortex(grid, 45, 180, 5e-5, 12))
			Expect(err).NotTo(HaveOccurred())

			track = metrics.NewVortexTrack(m.Grid(), 1)
			m.AddMetric(track)

			peaks = []float64{peakOf(m.State().Current)}
			Expect(m.Run(ctx, 100, func(st *dynamo.State) error {
				peaks = append(peaks, peakOf(st.Current))
				return nil
			})).To(Succeed())
		})

		It("runs for 100 steps", func() {
			Expect(m.StepIndex()).To(Equal(100))
			Expect(m.Time()).To(BeNumerically("~", 120000, 1e-6))
			Expect(track.Fixes()).To(HaveLen(101))
		})

		It("lets the peak vorticity decay monotonically", func() {
			for i := 1; i < len(peaks); i++ {
				Expect(peaks[i]).To(BeNumerically("<=", peaks[i-1]), "step %d", i)
			}
			Expect(peaks[len(peaks)-1]).To(BeNumerically("<", peaks[0]*0.98))
		})

		It("drifts poleward and westward", func() {
			fixes := track.Fixes()
			first, last := fixes[0], fixes[len(fixes)-1]

			Expect(last.Lat - first.Lat).To(BeNumerically(">", 0))
			Expect(metrics.LonDiff(first.Lon, last.Lon)).To(BeNumerically("<", 0))
			// 15 degrees in 1.4 days is a drift speed of about 14 m/s
			Expect(track.Value()).To(BeNumerically("<", 15))
		})
	})
})
