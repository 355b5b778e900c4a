package roi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/heron/pkg/finding"
)

func TestEvaluate_CriticalSecurityDefaults(t *testing.T) {
	p := Evaluate(finding.Finding{ID: "SEC-0001", Category: finding.CategorySecurity, Severity: finding.SeverityCritical})

	// 9*.25 + 8*.25 + 8*.20 + 7*.15 + 2*.10 + 2*.05
	assert.InDelta(t, 7.2, p.ROI.Impact, 1e-9)
	assert.Equal(t, 2.0, p.ROI.Urgency)
	assert.Equal(t, EffortS, p.ROI.EffortSize)
	assert.Equal(t, 2.0, p.ROI.Effort)
	assert.InDelta(t, 7.2, p.ROI.Value, 1e-9)
	assert.Equal(t, BucketCritical, p.Priority)
}

func TestEvaluate_Buckets(t *testing.T) {
	tests := []struct {
		name   string
		f      finding.Finding
		value  float64
		bucket Bucket
	}{
		{
			name:   "high secret is a quick win",
			f:      finding.Finding{Category: finding.CategorySecrets, Severity: finding.SeverityHigh},
			value:  7.6 * 1.5,
			bucket: BucketQuickWin,
		},
		{
			name:   "low tech debt is high value",
			f:      finding.Finding{Category: finding.CategoryTechDebt, Severity: finding.SeverityLow},
			value:  2.4,
			bucket: BucketHighValue,
		},
		{
			name:   "medium complexity is deferred",
			f:      finding.Finding{Category: finding.CategoryComplexity, Severity: finding.SeverityMedium},
			value:  2.65 * 1.2 / 7,
			bucket: BucketDefer,
		},
		{
			name:   "medium resilience is standard",
			f:      finding.Finding{Category: finding.CategoryResilience, Severity: finding.SeverityMedium, EffortHours: 10},
			value:  4.05 * 1.2 / 4,
			bucket: BucketStandard,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Evaluate(tt.f)
			assert.InDelta(t, tt.value, p.ROI.Value, 1e-9)
			assert.Equal(t, tt.bucket, p.Priority)
		})
	}
}

func TestUrgency(t *testing.T) {
	tests := []struct {
		severity finding.Severity
		tags     []string
		want     float64
	}{
		{finding.SeverityCritical, nil, 2.0},
		{finding.SeverityHigh, nil, 1.5},
		{finding.SeverityMedium, nil, 1.2},
		{finding.SeverityLow, nil, 1.0},
		{finding.SeverityInfo, nil, 0.8},
		{"bogus", nil, 1.2},
		{finding.SeverityLow, []string{"active_exploit"}, 2.0},
		{finding.SeverityInfo, []string{"compliance_deadline"}, 1.8},
		{finding.SeverityLow, []string{"audit_finding"}, 1.5},
		{finding.SeverityCritical, []string{"audit_finding"}, 2.0},
		{finding.SeverityMedium, []string{"audit_finding", "compliance_deadline"}, 1.8},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Urgency(finding.Finding{Severity: tt.severity, Tags: tt.tags}), "%s %v", tt.severity, tt.tags)
	}
}

func TestEffort(t *testing.T) {
	tests := []struct {
		hours float64
		want  EffortSize
	}{
		{1, EffortXS}, {2, EffortXS}, {3, EffortS}, {4, EffortS}, {16, EffortM},
		{17, EffortL}, {40, EffortL}, {80, EffortXL}, {81, EffortXXL},
	}
	for _, tt := range tests {
		got := Effort(finding.Finding{Category: finding.CategorySecrets, EffortHours: tt.hours})
		assert.Equal(t, tt.want, got, "%v hours", tt.hours)
	}

	assert.Equal(t, EffortXL, Effort(finding.Finding{Category: finding.CategoryArchitecture}))
	assert.Equal(t, EffortM, Effort(finding.Finding{Category: "unknown"}))
	assert.Equal(t, 10.0, EffortXXL.Score())
}

func TestFactors_Overrides(t *testing.T) {
	f := finding.Finding{
		Category: finding.CategoryComplexity,
		Impact:   &finding.Impact{Exploitability: 10, Availability: 9},
	}
	factors := Factors(f)
	assert.Equal(t, 10.0, factors.Exploitability)
	assert.Equal(t, 9.0, factors.Availability)
	assert.Equal(t, 7.0, factors.VelocityImpact, "unset factors keep the category default")

	assert.Equal(t, baseFactors, Factors(finding.Finding{Category: "unknown"}))
}

func TestFactors_OverridesClampToScale(t *testing.T) {
	f := finding.Finding{
		Category: finding.CategoryTechDebt,
		Impact:   &finding.Impact{Exploitability: 50, BlastRadius: -3, Compliance: 0.5},
	}
	factors := Factors(f)
	assert.Equal(t, 10.0, factors.Exploitability)
	assert.Equal(t, 1.0, factors.BlastRadius)
	assert.Equal(t, 1.0, factors.Compliance)
	assert.Equal(t, 2.0, factors.DataSensitivity, "zero means no override")
	assert.Equal(t, 6.0, factors.VelocityImpact)
}

func TestPrioritize_OrderIsStable(t *testing.T) {
	findings := []finding.Finding{
		{ID: "CPX-0001", Category: finding.CategoryComplexity, Severity: finding.SeverityMedium},
		{ID: "DEBT-0001", Category: finding.CategoryTechDebt, Severity: finding.SeverityLow},
		{ID: "SEC-0001", Category: finding.CategorySecurity, Severity: finding.SeverityCritical},
		{ID: "SCR-0001", Category: finding.CategorySecrets, Severity: finding.SeverityHigh},
		{ID: "CPX-0002", Category: finding.CategoryComplexity, Severity: finding.SeverityMedium},
		{ID: "SCR-0002", Category: finding.CategorySecrets, Severity: finding.SeverityCritical},
	}

	ids := func(ps []PrioritizedFinding) []string {
		out := make([]string, 0, len(ps))
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return out
	}

	first := Prioritize(findings)
	// SCR-0002 outscores SEC-0001 inside the critical bucket; the two
	// identical complexity findings keep their input order.
	want := []string{"SCR-0002", "SEC-0001", "SCR-0001", "DEBT-0001", "CPX-0001", "CPX-0002"}
	assert.Equal(t, want, ids(first))

	for i := 0; i < 5; i++ {
		assert.Equal(t, want, ids(Prioritize(findings)))
	}
}

func TestGroupFilterAverage(t *testing.T) {
	ps := Prioritize([]finding.Finding{
		{ID: "DEBT-0001", Category: finding.CategoryTechDebt, Severity: finding.SeverityLow},
		{ID: "DEBT-0002", Category: finding.CategoryTechDebt, Severity: finding.SeverityLow},
		{ID: "CPX-0001", Category: finding.CategoryComplexity, Severity: finding.SeverityLow},
	})

	groups := Group(ps)
	require.Len(t, groups[BucketHighValue], 2)
	require.Len(t, groups[BucketDefer], 1)
	assert.Len(t, Filter(ps, BucketDefer), 1)
	assert.Empty(t, Filter(ps, BucketCritical))

	assert.InDelta(t, (2.4+2.4+2.65/7)/3, AverageROI(ps), 1e-9)
	assert.Zero(t, AverageROI(nil))
}

func TestParseBucket(t *testing.T) {
	b, ok := ParseBucket("quick_win")
	assert.True(t, ok)
	assert.Equal(t, BucketQuickWin, b)

	_, ok = ParseBucket("urgent")
	assert.False(t, ok)
}
