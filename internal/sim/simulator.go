package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-logr/logr"
	"github.com/san-kum/flexsim/internal/space"
)

type Simulator struct {
	space     *space.Space
	log       logr.Logger
	metrics   []Metric
	observers []Observer
	events    []Event
}

func New(sp *space.Space, log logr.Logger) *Simulator {
	return &Simulator{
		space:     sp,
		log:       log,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) Space() *space.Space    { return s.space }
func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Schedule queues e. Events fire in time order; ties keep schedule order.
func (s *Simulator) Schedule(e Event) {
	s.events = append(s.events, e)
	sort.SliceStable(s.events, func(i, j int) bool { return s.events[i].At < s.events[j].At })
}

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration/cfg.Dt + 0.5)
	every := max(cfg.SampleEvery, 1)
	result := &Result{
		Samples: make([]Sample, 0, steps/every+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	t := 0.0
	next := 0
	result.Samples = append(result.Samples, Summarize(s.space, t))

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		for next < len(s.events) && s.events[next].At <= t {
			e := s.events[next]
			next++
			if err := e.Apply(s.space); err != nil {
				s.log.Error(err, "event failed", "event", e.Name, "time", t)
				result.Errors = append(result.Errors, fmt.Errorf("event %s: %w", e.Name, err))
				continue
			}
			s.log.V(1).Info("event applied", "event", e.Name, "time", t)
			result.Events = append(result.Events, e.Name)
		}

		if err := s.space.Step(float32(cfg.Dt)); err != nil {
			return result, err
		}
		t += cfg.Dt
		result.StepsTaken++

		for _, m := range s.metrics {
			m.Observe(s.space, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(s.space, i, t)
		}

		if cfg.ValidateState && !Valid(s.space) {
			err := SimError{Time: t, Step: i, Message: "invalid particle state (NaN/Inf)"}
			result.Errors = append(result.Errors, err)
			break
		}

		if (i+1)%every == 0 {
			result.Samples = append(result.Samples, Summarize(s.space, t))
		}
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if s.space == nil {
		return errors.New("sim: no space")
	}
	return nil
}

// RunWithCallback steps until Duration elapses or callback returns false.
// Scheduled events are not applied.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(sp *space.Space, t float64) bool) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}

	t := 0.0
	for t < cfg.Duration {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !callback(s.space, t) {
			return nil
		}

		if err := s.space.Step(float32(cfg.Dt)); err != nil {
			return err
		}
		t += cfg.Dt

		if cfg.ValidateState && !Valid(s.space) {
			return fmt.Errorf("invalid state at t=%.4f", t)
		}
	}

	return nil
}
