package sentinel

import "strings"

// RiskLevel grades how dangerous a reasoning step or fix is.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskLevels lists the valid values from least to most severe.
var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}

// Valid reports whether r is one of RiskLevels.
func (r RiskLevel) Valid() bool {
	for _, level := range RiskLevels {
		if r == level {
			return true
		}
	}
	return false
}

// Weight returns a numeric weight for sorting.
func (r RiskLevel) Weight() int {
	for i, level := range RiskLevels {
		if r == level {
			return i + 1
		}
	}
	return 0
}

// ParseRiskLevel normalizes s. Unknown values degrade to RiskLow and ok is false.
func ParseRiskLevel(s string) (level RiskLevel, ok bool) {
	level = RiskLevel(strings.ToLower(strings.TrimSpace(s)))
	if level.Valid() {
		return level, true
	}
	return RiskLow, false
}
