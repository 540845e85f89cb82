package outline

import (
	"fmt"
	"strings"

	"github.com/elm-tooling/elm-details/engine"
)

func parsePkgName(s string) (engine.PkgName, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return engine.PkgName{}, fmt.Errorf("expected a package name like author/project, got %q", s)
	}
	return engine.PkgName{Author: parts[0], Project: parts[1]}, nil
}

// parseConstraint parses Elm's "lower <= v < upper" constraint syntax.
func parseConstraint(s string) (engine.Constraint, error) {
	s = strings.TrimSpace(s)
	var lowerStr, lowerOp, upperOp, upperStr string
	n, err := fmt.Sscanf(s, "%s %s v %s %s", &lowerStr, &lowerOp, &upperOp, &upperStr)
	if err != nil || n != 4 {
		return engine.Constraint{}, fmt.Errorf("expected a constraint like %q, got %q", "1.0.0 <= v < 2.0.0", s)
	}

	lower, err := engine.NewVersion(lowerStr)
	if err != nil {
		return engine.Constraint{}, err
	}
	upper, err := engine.NewVersion(upperStr)
	if err != nil {
		return engine.Constraint{}, err
	}

	lowerIncl, err := inclusiveLower(lowerOp)
	if err != nil {
		return engine.Constraint{}, err
	}
	upperIncl, err := inclusiveUpper(upperOp)
	if err != nil {
		return engine.Constraint{}, err
	}

	return engine.Range(lower, lowerIncl, upper, upperIncl), nil
}

func inclusiveLower(op string) (bool, error) {
	switch op {
	case "<=":
		return true, nil
	case "<":
		return false, nil
	default:
		return false, fmt.Errorf("expected <= or < before v, got %q", op)
	}
}

func inclusiveUpper(op string) (bool, error) {
	switch op {
	case "<=":
		return true, nil
	case "<":
		return false, nil
	default:
		return false, fmt.Errorf("expected <= or < after v, got %q", op)
	}
}
