package policy

import (
	"fmt"
)

const CurrentVersion = "2025-01-01"

func SummerizeConclusion(conclusions []Conclusion, defaultAllow bool) bool {
	result := UNSET
	for _, c := range conclusions {
		switch c {
		case ALLOW:
			return true
		case DENY:
			return false
		default:
			result = result.Or(c)
		}
	}
	if result == UNSET {
		return defaultAllow
	}
	return result == ALLOW
}

// EvaluatePolicy folds every statement registered for action whose condition
// holds. Statements whose condition fails to evaluate are skipped.
func EvaluatePolicy(policydoc PolicyDocument, ctx RequestContext, action string) (Conclusion, error) {

	policy, ok := policydoc.Versions[CurrentVersion]
	if !ok {
		return UNSET, fmt.Errorf("unsupported policy version")
	}

	statements, ok := policy.Statements[action]
	if !ok {
		return UNSET, nil
	}

	conclusion := UNSET
	for _, stmt := range statements {
		evalResult, err := Eval(ctx, stmt.Condition)
		if err != nil {
			continue
		}

		if evalResult.Result == true {
			conclusion = conclusion.Or(ParseConclusion(stmt.Emit))
		}
	}
	return conclusion, nil
}

func Eval(ctx RequestContext, expr Expr) (EvalResult, error) {

	if expr.Const != nil {
		return EvalResult{
			Operator: "Const",
			Result:   expr.Const,
		}, nil
	}

	args := make([]any, 0, len(expr.Args))
	results := make([]EvalResult, 0, len(expr.Args))
	for _, arg := range expr.Args {
		result, err := Eval(ctx, arg)
		if err != nil {
			return EvalResult{
				Operator: expr.Operator,
				Args:     append(results, result),
				Error:    err.Error(),
			}, err
		}
		args = append(args, result.Result)
		results = append(results, result)
	}

	operatorFunc, exists := operators[expr.Operator]
	if !exists {
		return fail(expr.Operator, "unknown operator: %s", expr.Operator)
	}

	result, err := operatorFunc(ctx, args)
	result.Args = results
	return result, err
}
