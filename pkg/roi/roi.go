// Package roi ranks findings by remediation return on investment:
// impact times urgency divided by effort.
package roi

import (
	"sort"

	"github.com/simonhull/heron/pkg/finding"
)

// Bucket is a priority class.
type Bucket string

const (
	BucketCritical  Bucket = "critical"
	BucketQuickWin  Bucket = "quick_win"
	BucketHighValue Bucket = "high_value"
	BucketStandard  Bucket = "standard"
	BucketDefer     Bucket = "defer"
)

// Buckets lists every bucket from most to least urgent.
var Buckets = []Bucket{BucketCritical, BucketQuickWin, BucketHighValue, BucketStandard, BucketDefer}

// Rank orders buckets: critical is 0, defer is 4, anything else 5.
func (b Bucket) Rank() int {
	for i, known := range Buckets {
		if b == known {
			return i
		}
	}
	return len(Buckets)
}

// EffortSize is a t-shirt size for remediation work.
type EffortSize string

const (
	EffortXS  EffortSize = "xs"  // up to 2 hours
	EffortS   EffortSize = "s"   // up to 4 hours
	EffortM   EffortSize = "m"   // up to 16 hours
	EffortL   EffortSize = "l"   // up to 40 hours
	EffortXL  EffortSize = "xl"  // up to 80 hours
	EffortXXL EffortSize = "xxl" // more than 80 hours
)

var effortScores = map[EffortSize]float64{
	EffortXS: 1, EffortS: 2, EffortM: 4, EffortL: 7, EffortXL: 9, EffortXXL: 10,
}

// Score returns the effort tier score used as the ROI divisor.
func (e EffortSize) Score() float64 { return effortScores[e] }

// Impact factor weights.
const (
	weightExploitability  = 0.25
	weightDataSensitivity = 0.25
	weightBlastRadius     = 0.20
	weightCompliance      = 0.15
	weightAvailability    = 0.10
	weightVelocity        = 0.05
)

// baseFactors apply to categories without their own defaults.
var baseFactors = finding.Impact{
	Exploitability: 5, DataSensitivity: 5, BlastRadius: 5,
	Compliance: 2, Availability: 2, VelocityImpact: 2,
}

var categoryFactors = map[finding.Category]finding.Impact{
	finding.CategorySecurity:      {Exploitability: 9, DataSensitivity: 8, BlastRadius: 8, Compliance: 7, Availability: 2, VelocityImpact: 2},
	finding.CategorySecrets:       {Exploitability: 8, DataSensitivity: 10, BlastRadius: 8, Compliance: 8, Availability: 2, VelocityImpact: 2},
	finding.CategoryResilience:    {Exploitability: 3, DataSensitivity: 2, BlastRadius: 7, Compliance: 2, Availability: 9, VelocityImpact: 4},
	finding.CategoryObservability: {Exploitability: 2, DataSensitivity: 2, BlastRadius: 5, Compliance: 2, Availability: 6, VelocityImpact: 5},
	finding.CategoryPerformance:   {Exploitability: 2, DataSensitivity: 2, BlastRadius: 6, Compliance: 2, Availability: 7, VelocityImpact: 4},
	finding.CategoryComplexity:    {Exploitability: 2, DataSensitivity: 2, BlastRadius: 4, Compliance: 2, Availability: 2, VelocityImpact: 7},
	finding.CategoryDuplication:   {Exploitability: 2, DataSensitivity: 2, BlastRadius: 4, Compliance: 2, Availability: 2, VelocityImpact: 6},
	finding.CategoryArchitecture:  {Exploitability: 2, DataSensitivity: 2, BlastRadius: 5, Compliance: 2, Availability: 3, VelocityImpact: 8},
	finding.CategoryTechDebt:      {Exploitability: 2, DataSensitivity: 2, BlastRadius: 3, Compliance: 2, Availability: 2, VelocityImpact: 6},
}

var categoryEffort = map[finding.Category]EffortSize{
	finding.CategorySecrets:       EffortXS,
	finding.CategoryObservability: EffortXS,
	finding.CategoryTechDebt:      EffortXS,
	finding.CategorySecurity:      EffortS,
	finding.CategoryResilience:    EffortS,
	finding.CategoryPerformance:   EffortM,
	finding.CategoryComplexity:    EffortL,
	finding.CategoryDuplication:   EffortL,
	finding.CategoryArchitecture:  EffortXL,
}

var urgencies = map[finding.Severity]float64{
	finding.SeverityCritical: 2.0,
	finding.SeverityHigh:     1.5,
	finding.SeverityMedium:   1.2,
	finding.SeverityLow:      1.0,
	finding.SeverityInfo:     0.8,
}

// Urgency floors raised by tags.
var tagFloors = []struct {
	tag   string
	floor float64
}{
	{"active_exploit", 2.0},
	{"compliance_deadline", 1.8},
	{"audit_finding", 1.5},
}

// Score is the ROI breakdown of one finding.
type Score struct {
	Impact     float64    `json:"impact"`
	Urgency    float64    `json:"urgency"`
	Effort     float64    `json:"effort"`
	EffortSize EffortSize `json:"effort_size"`
	Value      float64    `json:"score"`
}

// PrioritizedFinding is a finding with its ROI breakdown and bucket.
type PrioritizedFinding struct {
	finding.Finding
	ROI      Score          `json:"roi"`
	Factors  finding.Impact `json:"factors"`
	Priority Bucket         `json:"priority_category"`
}

// Factors returns the impact factors for f: the category defaults with any
// non-zero override from f.Impact applied per factor, clamped to 1..10.
func Factors(f finding.Finding) finding.Impact {
	factors, ok := categoryFactors[f.Category]
	if !ok {
		factors = baseFactors
	}
	if o := f.Impact; o != nil {
		override(&factors.Exploitability, o.Exploitability)
		override(&factors.DataSensitivity, o.DataSensitivity)
		override(&factors.BlastRadius, o.BlastRadius)
		override(&factors.Compliance, o.Compliance)
		override(&factors.Availability, o.Availability)
		override(&factors.VelocityImpact, o.VelocityImpact)
	}
	return factors
}

func override(dst *float64, v float64) {
	switch {
	case v == 0:
	case v < 1:
		*dst = 1
	case v > 10:
		*dst = 10
	default:
		*dst = v
	}
}

// ImpactScore is the weighted sum of the six factors.
func ImpactScore(factors finding.Impact) float64 {
	return factors.Exploitability*weightExploitability +
		factors.DataSensitivity*weightDataSensitivity +
		factors.BlastRadius*weightBlastRadius +
		factors.Compliance*weightCompliance +
		factors.Availability*weightAvailability +
		factors.VelocityImpact*weightVelocity
}

// Urgency returns the severity multiplier, raised to any tag floor. Unknown
// severities count as medium.
func Urgency(f finding.Finding) float64 {
	u, ok := urgencies[f.Severity]
	if !ok {
		u = urgencies[finding.SeverityMedium]
	}
	for _, tf := range tagFloors {
		if f.HasTag(tf.tag) {
			u = max(u, tf.floor)
		}
	}
	return u
}

// Effort sizes the fix from EffortHours when set, else from the category.
func Effort(f finding.Finding) EffortSize {
	if h := f.EffortHours; h > 0 {
		switch {
		case h <= 2:
			return EffortXS
		case h <= 4:
			return EffortS
		case h <= 16:
			return EffortM
		case h <= 40:
			return EffortL
		case h <= 80:
			return EffortXL
		default:
			return EffortXXL
		}
	}
	if size, ok := categoryEffort[f.Category]; ok {
		return size
	}
	return EffortM
}

// BucketFor maps a severity and ROI value to a bucket. Critical severity
// always lands in BucketCritical.
func BucketFor(severity finding.Severity, value float64) Bucket {
	switch {
	case severity == finding.SeverityCritical:
		return BucketCritical
	case value > 5.0:
		return BucketQuickWin
	case value > 2.0:
		return BucketHighValue
	case value > 1.0:
		return BucketStandard
	default:
		return BucketDefer
	}
}

// Evaluate computes the ROI breakdown of one finding.
func Evaluate(f finding.Finding) PrioritizedFinding {
	factors := Factors(f)
	size := Effort(f)
	s := Score{
		Impact:     ImpactScore(factors),
		Urgency:    Urgency(f),
		Effort:     size.Score(),
		EffortSize: size,
	}
	if s.Effort > 0 {
		s.Value = s.Impact * s.Urgency / s.Effort
	}
	return PrioritizedFinding{
		Finding:  f,
		ROI:      s,
		Factors:  factors,
		Priority: BucketFor(f.Severity, s.Value),
	}
}

// Prioritize evaluates every finding and sorts by bucket rank, then ROI
// descending. Equal keys keep their input order.
func Prioritize(findings []finding.Finding) []PrioritizedFinding {
	out := make([]PrioritizedFinding, 0, len(findings))
	for _, f := range findings {
		out = append(out, Evaluate(f))
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Priority.Rank(), out[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return out[i].ROI.Value > out[j].ROI.Value
	})
	return out
}

// Filter keeps the findings in bucket.
func Filter(findings []PrioritizedFinding, bucket Bucket) []PrioritizedFinding {
	out := make([]PrioritizedFinding, 0)
	for _, f := range findings {
		if f.Priority == bucket {
			out = append(out, f)
		}
	}
	return out
}

// Group splits findings by bucket, preserving order within each.
func Group(findings []PrioritizedFinding) map[Bucket][]PrioritizedFinding {
	groups := make(map[Bucket][]PrioritizedFinding)
	for _, f := range findings {
		groups[f.Priority] = append(groups[f.Priority], f)
	}
	return groups
}

// AverageROI is the mean ROI value, or 0 for no findings.
func AverageROI(findings []PrioritizedFinding) float64 {
	if len(findings) == 0 {
		return 0
	}
	var sum float64
	for _, f := range findings {
		sum += f.ROI.Value
	}
	return sum / float64(len(findings))
}

// ParseBucket validates a bucket name.
func ParseBucket(s string) (Bucket, bool) {
	b := Bucket(s)
	return b, b.Rank() < len(Buckets)
}
