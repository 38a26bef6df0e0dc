package alerts

import (
	"strconv"
	"strings"

	"github.com/cazuela/gasmonitor/pkg/compute"
	"github.com/cazuela/gasmonitor/pkg/types"
)

// Subject is the status of one session that rules are evaluated against.
type Subject struct {
	SessionID string
	Name      string
	Overview  compute.Overview
	Stats     types.StatsSummary
}

// evalCondition evaluates a rule condition string against a Subject.
//
// Supported expressions (field operator value):
//
//	current > 70
//	mean > 60
//	max >= 90
//	high_pct > 5
//	warn_pct > 20
//	safe_pct < 95
//	alert_count > 0
//	state == critical
//
// Returns (fires bool, triggering value float64).
// Returns (false, 0) if the expression cannot be parsed or the field is unknown.
func evalCondition(cond string, s Subject) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	if field == "state" {
		switch op {
		case "==":
			return string(s.Overview.Classification) == rhs, s.Overview.Current.Value
		case "!=":
			return string(s.Overview.Classification) != rhs, s.Overview.Current.Value
		}
		return false, 0
	}

	v, ok := numericField(field, s)
	if !ok {
		return false, 0
	}
	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return false, 0
	}
	return compareFloat(v, op, threshold), v
}

// numericField maps a field name to its value in the subject.
func numericField(field string, s Subject) (float64, bool) {
	switch field {
	case "current":
		return s.Overview.Current.Value, true
	case "mean":
		return s.Stats.Mean, true
	case "max":
		return s.Stats.Max, true
	case "high_pct":
		return s.Stats.HighPercent, true
	case "warn_pct":
		return s.Stats.WarnPercent, true
	case "safe_pct":
		return s.Stats.SafeOperationPercent, true
	case "alert_count":
		return float64(s.Stats.AlertCount), true
	default:
		return 0, false
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	default:
		return false
	}
}

// ValidCondition reports whether cond is a well-formed rule expression.
func ValidCondition(cond string) bool {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false
	}
	field, op, rhs := parts[0], parts[1], parts[2]
	if field == "state" {
		if op != "==" && op != "!=" {
			return false
		}
		switch types.Classification(rhs) {
		case types.Normal, types.Warning, types.Critical:
			return true
		}
		return false
	}
	if _, ok := numericField(field, Subject{}); !ok {
		return false
	}
	switch op {
	case ">", ">=", "<", "<=", "==", "!=":
	default:
		return false
	}
	_, err := strconv.ParseFloat(rhs, 64)
	return err == nil
}
