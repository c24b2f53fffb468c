package config

// Builder assembles an Analysis configuration from loosely typed inputs such
// as CLI flags. The first input error is kept and returned by Build.
type Builder struct {
	cfg Analysis
	err error
}

// NewBuilder returns a builder seeded with DefaultAnalysis.
func NewBuilder() *Builder {
	return &Builder{cfg: DefaultAnalysis()}
}

// NewBuilderFrom returns a builder seeded with a copy of cfg, so loaded
// configurations can be adjusted by flags before validation.
func NewBuilderFrom(cfg Analysis) *Builder {
	if cfg.Cycle != nil {
		cc := *cfg.Cycle
		cfg.Cycle = &cc
	}
	if cfg.Profile != nil {
		pc := *cfg.Profile
		cfg.Profile = &pc
	}
	return &Builder{cfg: cfg}
}

// WithManifest selects manifest mode with the given TSV file.
func (b *Builder) WithManifest(file string) *Builder {
	b.cfg.Path.UseManifest = true
	b.cfg.Path.ManifestFile = file
	return b
}

// WithPaths selects direct path mode.
func (b *Builder) WithPaths(paths ...string) *Builder {
	b.cfg.Path.UseManifest = false
	b.cfg.Path.ManifestFile = ""
	b.cfg.Path.ManualPaths = append([]string(nil), paths...)
	return b
}

// WithAutoCapacity resolves the capacity basis from the data with the given C-rate.
func (b *Builder) WithAutoCapacity(cRate float64) *Builder {
	b.cfg.Capacity.Mode = CapacityModeAuto
	b.cfg.Capacity.CRate = cRate
	return b
}

// WithManualCapacity fixes the capacity basis in mAh.
func (b *Builder) WithManualCapacity(mAh float64) *Builder {
	b.cfg.Capacity.Mode = CapacityModeManual
	b.cfg.Capacity.ManualCapacity = mAh
	return b
}

// WithCycleInput parses a cycle selection ("3 4 5 8-9" or "3-5") into the
// cycle section. A lone range sets Range, anything else sets CycleNumbers.
func (b *Builder) WithCycleInput(input string) *Builder {
	cc := DefaultCycleConfig()
	if b.cfg.Cycle != nil {
		cc = *b.cfg.Cycle
	}

	numbers, rng, err := parseSelection(input)
	if err != nil {
		b.setErr(err)
		return b
	}
	cc.CycleNumbers, cc.Range = numbers, rng
	b.cfg.Cycle = &cc
	return b
}

// WithDCIRMode sets the DCIR protocol on the cycle section.
func (b *Builder) WithDCIRMode(mode DCIRMode) *Builder {
	if b.cfg.Cycle == nil {
		cc := DefaultCycleConfig()
		b.cfg.Cycle = &cc
	}
	b.cfg.Cycle.DCIRMode = mode
	return b
}

// WithProfileInput parses a cycle selection into the profile section.
func (b *Builder) WithProfileInput(input string, layout ProfileLayout) *Builder {
	pc := DefaultProfileConfig()
	if b.cfg.Profile != nil {
		pc = *b.cfg.Profile
	}

	numbers, rng, err := parseSelection(input)
	if err != nil {
		b.setErr(err)
		return b
	}
	pc.CycleNumbers, pc.Range = numbers, rng
	pc.Layout = layout
	b.cfg.Profile = &pc
	return b
}

// WithExport sets the export toggles.
func (b *Builder) WithExport(ec ExportConfig) *Builder {
	b.cfg.Export = ec
	return b
}

// Build validates and returns the configuration.
func (b *Builder) Build() (*Analysis, error) {
	if b.err != nil {
		return nil, b.err
	}
	cfg := b.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

func parseSelection(input string) ([]int, *CycleRange, error) {
	if isRangeInput(input) {
		r, err := ParseCycleRange(input)
		if err != nil {
			return nil, nil, err
		}
		return nil, &r, nil
	}
	numbers, err := ParseStepList(input)
	if err != nil {
		return nil, nil, err
	}
	return numbers, nil, nil
}
