// Package pipeline walks a static stage graph, running each stage through a
// domain.ProcessRunner and reporting progress to a domain.EventSink.
package pipeline

import (
	"fmt"
	"slices"

	"github.com/romso/r4d4r/internal/domain"
)

// Graph is an ordered list of stages. Consecutive stages sharing a non-empty
// Group form one parallel step; every other stage is a step of its own.
type Graph struct {
	stages []domain.Stage
}

// Step is one unit of the walk: a single stage or a parallel group.
type Step struct {
	Group  string
	Stages []domain.Stage
}

// Parallel reports whether the step's stages run together.
func (s Step) Parallel() bool {
	return s.Group != ""
}

// NewGraph creates a graph from stages in execution order.
func NewGraph(stages ...domain.Stage) Graph {
	return Graph{stages: slices.Clone(stages)}
}

// Stages returns the stages in execution order.
func (g Graph) Stages() []domain.Stage {
	return slices.Clone(g.stages)
}

// Steps groups the stages into the order they are executed in.
func (g Graph) Steps() []Step {
	var steps []Step
	for _, s := range g.stages {
		if n := len(steps); n > 0 && s.Group != "" && steps[n-1].Group == s.Group {
			steps[n-1].Stages = append(steps[n-1].Stages, s)
			continue
		}
		steps = append(steps, Step{Group: s.Group, Stages: []domain.Stage{s}})
	}
	return steps
}

// Validate checks names, commands and that every dependency names a stage
// in an earlier step.
func (g Graph) Validate() error {
	seen := map[string]bool{}
	for _, step := range g.Steps() {
		for _, s := range step.Stages {
			if s.Name == "" {
				return fmt.Errorf("%w: stage without a name", domain.ErrInvalidGraph)
			}
			if s.Command.IsZero() {
				return fmt.Errorf("%w: stage %q has no command", domain.ErrInvalidGraph, s.Name)
			}
			for _, dep := range append(slices.Clone(s.After), s.Requires...) {
				if !seen[dep] {
					return fmt.Errorf("%w: stage %q depends on %q which does not run before it", domain.ErrInvalidGraph, s.Name, dep)
				}
			}
		}
		for _, s := range step.Stages {
			if seen[s.Name] {
				return fmt.Errorf("%w: duplicate stage %q", domain.ErrInvalidGraph, s.Name)
			}
			seen[s.Name] = true
		}
	}
	return nil
}

// Without returns a copy of the graph with the named stages removed and any
// dependency on them dropped.
func (g Graph) Without(names ...string) Graph {
	if len(names) == 0 {
		return g
	}
	drop := func(n string) bool { return slices.Contains(names, n) }
	out := make([]domain.Stage, 0, len(g.stages))
	for _, s := range g.stages {
		if drop(s.Name) {
			continue
		}
		s.After = slices.DeleteFunc(slices.Clone(s.After), drop)
		s.Requires = slices.DeleteFunc(slices.Clone(s.Requires), drop)
		out = append(out, s)
	}
	return Graph{stages: out}
}
