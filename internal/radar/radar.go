// Package radar simulates the rotating sweep and drifting blips shown on the
// dashboard. It is purely cosmetic and unrelated to pipeline data.
package radar

import (
	"math"
	"math/rand/v2"
)

const fullTurn = 2 * math.Pi

// Config tunes the simulation.
type Config struct {
	Radius            int
	SweepStep         float64
	SpawnChance       float64
	MaxBlips          int
	MaxAge            int
	HitFrames         int
	MaxVelocity       float64
	BaseTolerance     float64
	MinRadiusFraction float64
}

// DefaultConfig returns the stock radar settings.
func DefaultConfig() Config {
	return Config{
		Radius:            12,
		SweepStep:         0.12,
		SpawnChance:       0.06,
		MaxBlips:          18,
		MaxAge:            1000,
		HitFrames:         8,
		MaxVelocity:       0.02,
		BaseTolerance:     0.25,
		MinRadiusFraction: 0.4,
	}
}

// Blip is one simulated entity at a polar position.
type Blip struct {
	Radius   float64
	Angle    float64
	Age      int
	HitTimer int
	Velocity float64
}

// Hit reports whether the blip is still highlighted from a recent sweep pass.
func (b Blip) Hit() bool {
	return b.HitTimer > 0
}

// Sim holds the sweep and blip population. It is not safe for concurrent
// use; the dashboard drives it from its update loop only.
type Sim struct {
	cfg   Config
	rng   *rand.Rand
	sweep float64
	blips []Blip
}

// New creates a simulation seeded deterministically.
func New(cfg Config, seed uint64) *Sim {
	if cfg.Radius < 2 {
		cfg.Radius = 2
	}
	return &Sim{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Config returns the settings the simulation runs with.
func (s *Sim) Config() Config {
	return s.cfg
}

// Sweep returns the current sweep angle in [0, 2π).
func (s *Sim) Sweep() float64 {
	return s.sweep
}

// Blips returns a copy of the live population.
func (s *Sim) Blips() []Blip {
	out := make([]Blip, len(s.blips))
	copy(out, s.blips)
	return out
}

// Step advances the simulation by one frame.
func (s *Sim) Step() {
	if len(s.blips) < s.cfg.MaxBlips && s.rng.Float64() < s.cfg.SpawnChance {
		s.blips = append(s.blips, s.spawn())
	}

	alive := s.blips[:0]
	for _, b := range s.blips {
		b.Angle = wrap(b.Angle + b.Velocity)
		b.Age++
		if b.HitTimer > 0 {
			b.HitTimer--
		}
		if b.Age > s.cfg.MaxAge {
			continue
		}
		alive = append(alive, b)
	}
	s.blips = alive

	s.sweep = wrap(s.sweep + s.cfg.SweepStep)

	for i := range s.blips {
		b := &s.blips[i]
		if math.Abs(AngularDistance(s.sweep, b.Angle)) < s.Tolerance(b.Radius) {
			b.HitTimer = s.cfg.HitFrames
		}
	}
}

// Tolerance is the angular window within which the sweep marks a blip at
// radius r. Blips near the center get a wider window than blips near the rim.
func (s *Sim) Tolerance(r float64) float64 {
	frac := r / float64(s.cfg.Radius)
	return s.cfg.BaseTolerance / math.Max(s.cfg.MinRadiusFraction, frac)
}

func (s *Sim) spawn() Blip {
	lo, hi := 1.0, float64(s.cfg.Radius)-1
	return Blip{
		Radius:   lo + s.rng.Float64()*(hi-lo),
		Angle:    s.rng.Float64() * fullTurn,
		Velocity: (s.rng.Float64()*2 - 1) * s.cfg.MaxVelocity,
	}
}

// AngularDistance returns the shortest signed distance from b to a, in
// [-π, π).
func AngularDistance(a, b float64) float64 {
	d := math.Mod(a-b+math.Pi, fullTurn)
	if d < 0 {
		d += fullTurn
	}
	return d - math.Pi
}

func wrap(a float64) float64 {
	a = math.Mod(a, fullTurn)
	if a < 0 {
		a += fullTurn
	}
	if a >= fullTurn {
		a = 0
	}
	return a
}
