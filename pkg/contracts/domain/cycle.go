package domain

// Leg identifies one half of a cycle
type Leg string

const (
	LegDischarge Leg = "discharge"
	LegCharge    Leg = "charge"
)

// CycleSummary holds the derived metrics of one cycle
type CycleSummary struct {
	Cycle             int     `json:"cycle"`
	DischargeCapacity float64 `json:"discharge_capacity_mah"`
	ChargeCapacity    float64 `json:"charge_capacity_mah"`
	Efficiency        float64 `json:"efficiency_pct"`
	DCIR              float64 `json:"dcir_mohm"`
}

// ProfilePoint is one sample of a voltage profile
type ProfilePoint struct {
	TimeMin            float64 `json:"time_min"`
	Voltage            float64 `json:"voltage"`
	CapacityNormalized float64 `json:"capacity_normalized_pct"`
}

// VoltageProfile holds the discharge and charge legs of one cycle
type VoltageProfile struct {
	Discharge []ProfilePoint `json:"discharge"`
	Charge    []ProfilePoint `json:"charge"`
}

// Leg returns the points of the given leg and whether the leg name is known
func (p VoltageProfile) Leg(leg Leg) ([]ProfilePoint, bool) {
	switch leg {
	case LegDischarge:
		return p.Discharge, true
	case LegCharge:
		return p.Charge, true
	default:
		return nil, false
	}
}

// IndividualStats aggregates an individual cycle analysis.
// CapacityFadeRate is set only when at least two cycles were analyzed.
type IndividualStats struct {
	MeanDischargeCapacity float64  `json:"mean_discharge_capacity"`
	MeanChargeCapacity    float64  `json:"mean_charge_capacity"`
	MeanEfficiency        float64  `json:"mean_efficiency"`
	MeanDCIR              float64  `json:"mean_dcir"`
	StdDCIR               float64  `json:"std_dcir"`
	CapacityFadeRate      *float64 `json:"capacity_fade_rate,omitempty"`
}

// IndividualResults is the output of an individual cycle analysis
type IndividualResults struct {
	Summary  []CycleSummary         `json:"summary"`
	Profiles map[int]VoltageProfile `json:"voltage_profiles"`
	Stats    IndividualStats        `json:"statistics"`
}

// Empty reports whether no cycle was analyzed
func (r *IndividualResults) Empty() bool {
	return r == nil || len(r.Summary) == 0
}

// LinkedRow is one cycle of a multi-path analysis on the joined axis
type LinkedRow struct {
	Path              string  `json:"path"`
	PathName          string  `json:"path_name"`
	LocalCycle        int     `json:"local_cycle"`
	GlobalCycle       int     `json:"global_cycle"`
	DischargeCapacity float64 `json:"discharge_capacity_mah"`
	ChargeCapacity    float64 `json:"charge_capacity_mah"`
	Efficiency        float64 `json:"efficiency_pct"`
	DCIR              float64 `json:"dcir_mohm"`
}

// PathStats aggregates the rows contributed by one path
type PathStats struct {
	CycleCount            int     `json:"cycle_count"`
	MeanDischargeCapacity float64 `json:"mean_discharge_capacity"`
	MeanEfficiency        float64 `json:"mean_efficiency"`
}

// LinkedStats aggregates a multi-path analysis
type LinkedStats struct {
	TotalPaths            int                  `json:"total_paths"`
	TotalCycles           int                  `json:"total_cycles"`
	MeanDischargeCapacity float64              `json:"mean_discharge_capacity"`
	MeanEfficiency        float64              `json:"mean_efficiency"`
	MeanDCIR              float64              `json:"mean_dcir"`
	Paths                 map[string]PathStats `json:"path_statistics"`
}

// LinkedResults is the output of a multi-path analysis
type LinkedResults struct {
	Rows     []LinkedRow                       `json:"rows"`
	Profiles map[string]map[int]VoltageProfile `json:"voltage_profiles"`
	Stats    LinkedStats                       `json:"statistics"`
}

// Empty reports whether no cycle was analyzed
func (r *LinkedResults) Empty() bool {
	return r == nil || len(r.Rows) == 0
}

// CapacityRow is the capacity record of one cycle used for reliability
type CapacityRow struct {
	Cycle      int     `json:"cycle"`
	Discharge  float64 `json:"discharge"`
	Charge     float64 `json:"charge"`
	Efficiency float64 `json:"efficiency"`
}

// FadeAnalysis describes capacity loss across the analyzed cycles
type FadeAnalysis struct {
	InitialCapacity float64 `json:"initial_capacity"`
	FinalCapacity   float64 `json:"final_capacity"`
	AbsoluteFade    float64 `json:"absolute_fade"`
	RelativeFade    float64 `json:"relative_fade"`
	FadePerCycle    float64 `json:"fade_per_cycle"`
	Slope           float64 `json:"slope"`
	Intercept       float64 `json:"intercept"`
	RSquared        float64 `json:"r_squared"`
	PValue          float64 `json:"p_value"`
}

// Interval is a closed numeric interval
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// CapacityStatistics summarizes the discharge capacity distribution.
// ConfidenceInterval is set only when at least two cycles exist.
type CapacityStatistics struct {
	MeanCapacity           float64   `json:"mean_capacity"`
	StdCapacity            float64   `json:"std_capacity"`
	MinCapacity            float64   `json:"min_capacity"`
	MaxCapacity            float64   `json:"max_capacity"`
	CoefficientOfVariation float64   `json:"cv"`
	MeanEfficiency         float64   `json:"mean_efficiency"`
	StdEfficiency          float64   `json:"std_efficiency"`
	ConfidenceInterval     *Interval `json:"confidence_interval_95,omitempty"`
}

// LifecyclePrediction extrapolates the fade line to end of life
type LifecyclePrediction struct {
	EOLCapacity       float64 `json:"eol_capacity"`
	PredictedEOLCycle int     `json:"predicted_eol_cycle"`
	CurrentCycle      int     `json:"current_cycle"`
	RemainingCycles   int     `json:"remaining_cycles"`
}

// ReliabilityGrade is the qualitative rating of a cell
type ReliabilityGrade string

const (
	GradeExcellent ReliabilityGrade = "Excellent"
	GradeGood      ReliabilityGrade = "Good"
	GradeFair      ReliabilityGrade = "Fair"
	GradePoor      ReliabilityGrade = "Poor"
)

// FadePoint is one point of a capacity fade curve
type FadePoint struct {
	Cycle              int     `json:"cycle"`
	DischargeCapacity  float64 `json:"discharge_capacity"`
	CapacityNormalized float64 `json:"capacity_normalized_pct"`
}

// ReliabilityResults is the output of a reliability analysis
type ReliabilityResults struct {
	Capacity   []CapacityRow       `json:"capacity_data"`
	Fade       FadeAnalysis        `json:"fade_analysis"`
	Statistics CapacityStatistics  `json:"statistics"`
	Lifecycle  LifecyclePrediction `json:"lifecycle"`
	Grade      ReliabilityGrade    `json:"reliability_grade"`
}

// Empty reports whether no capacity rows were produced
func (r *ReliabilityResults) Empty() bool {
	return r == nil || len(r.Capacity) == 0
}
