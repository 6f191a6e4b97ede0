package inventory

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

// DefaultEvaporationRule limits evaporation to the gasoline family.
const DefaultEvaporationRule = `fuel.contains("GASOLINA")`

// EvaporationRule decides which fuel types may record evaporation losses.
// The expression sees one string variable, fuel, holding the upper-cased fuel
// type name, and must evaluate to a bool.
type EvaporationRule struct {
	expr string
	prg  cel.Program
}

// NewEvaporationRule compiles expr. An empty expr selects DefaultEvaporationRule.
func NewEvaporationRule(expr string) (*EvaporationRule, error) {
	if strings.TrimSpace(expr) == "" {
		expr = DefaultEvaporationRule
	}

	env, err := cel.NewEnv(cel.Variable("fuel", cel.StringType))
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile evaporation rule %q: %w", expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("evaporation rule %q must return bool, got %s", expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program evaporation rule: %w", err)
	}
	return &EvaporationRule{expr: expr, prg: prg}, nil
}

// MustEvaporationRule is NewEvaporationRule that panics. For tests and defaults.
func MustEvaporationRule(expr string) *EvaporationRule {
	r, err := NewEvaporationRule(expr)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *EvaporationRule) String() string { return r.expr }

// Allows reports whether fuelName belongs to the evaporating family.
func (r *EvaporationRule) Allows(fuelName string) (bool, error) {
	out, _, err := r.prg.Eval(map[string]any{"fuel": strings.ToUpper(strings.TrimSpace(fuelName))})
	if err != nil {
		return false, fmt.Errorf("eval evaporation rule: %w", err)
	}
	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("evaporation rule returned %T", out.Value())
	}
	return allowed, nil
}
