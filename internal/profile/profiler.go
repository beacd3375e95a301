package profile

import "go.uber.org/zap"

// Profiler is the resolution entry point: given the registered profiles, a
// file index, and the submitted parameters, it decides which profiles apply
// and drives metadata generation for each. Profiles are consulted in
// declaration order; whether callers use the first match only or all
// matches is their policy, not the engine's.
type Profiler struct {
	profiles []*Profile
	logger   *zap.Logger
}

// Result is the outcome for one matched profile. Err is set when the
// profile matched but generation failed structurally; the profiler keeps
// going with the remaining profiles either way.
type Result struct {
	Profile   *Profile
	Artifacts []Artifact
	Err       error
}

// Option configures a Profiler.
type Option func(*Profiler)

// WithLogger attaches a logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Profiler) { p.logger = logger }
}

// NewProfiler creates a profiler over the given profiles. The slice is
// copied; the profiles themselves are shared read-only configuration.
func NewProfiler(profiles []*Profile, opts ...Option) *Profiler {
	p := &Profiler{
		profiles: append([]*Profile(nil), profiles...),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Profiles returns the registered profiles in declaration order.
func (p *Profiler) Profiles() []*Profile {
	return append([]*Profile(nil), p.profiles...)
}

// Resolve matches every profile against the current file and parameter
// state and generates artifacts for each match, in declaration order.
func (p *Profiler) Resolve(index FileIndex, parameters map[string]string) ([]Result, error) {
	var results []Result
	for _, prof := range p.profiles {
		matched, err := prof.Match(index, parameters)
		if err != nil {
			return nil, err
		}
		if !matched {
			p.logger.Debug("profile did not match", zap.String("profile", prof.Name))
			continue
		}

		artifacts, err := prof.Generate(index, parameters)
		if err != nil {
			// Structural generation failures are fatal for this profile
			// only; the remaining profiles may still resolve.
			p.logger.Warn("profile generation failed",
				zap.String("profile", prof.Name),
				zap.Error(err))
			results = append(results, Result{Profile: prof, Err: err})
			continue
		}

		p.logger.Debug("profile matched",
			zap.String("profile", prof.Name),
			zap.Int("artifacts", len(artifacts)))
		results = append(results, Result{Profile: prof, Artifacts: artifacts})
	}
	return results, nil
}
