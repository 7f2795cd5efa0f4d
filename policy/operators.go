package policy

import (
	"fmt"
	"reflect"
	"slices"
)

type Operator func(ctx RequestContext, args []any) (EvalResult, error)

var operators = map[string]Operator{
	"And":      opAnd,
	"Or":       opOr,
	"Not":      opNot,
	"Eq":       opEq,
	"Contains": opContains,
	"Load":     opLoad,
	"Exists":   opExists,
}

func fail(op, format string, args ...any) (EvalResult, error) {
	err := fmt.Errorf(format, args...)
	return EvalResult{Operator: op, Error: err.Error()}, err
}

func ok(op string, result any) (EvalResult, error) {
	return EvalResult{Operator: op, Result: result}, nil
}

func bools(op string, args []any) ([]bool, error) {
	out := make([]bool, len(args))
	for i, arg := range args {
		b, isBool := arg.(bool)
		if !isBool {
			return nil, fmt.Errorf("bad argument type for %s at index %d. Expected bool but got %v", op, i, reflect.TypeOf(arg))
		}
		out[i] = b
	}
	return out, nil
}

func opAnd(ctx RequestContext, args []any) (EvalResult, error) {
	values, err := bools("And", args)
	if err != nil {
		return fail("And", "%s", err)
	}
	return ok("And", !slices.Contains(values, false))
}

func opOr(ctx RequestContext, args []any) (EvalResult, error) {
	values, err := bools("Or", args)
	if err != nil {
		return fail("Or", "%s", err)
	}
	return ok("Or", slices.Contains(values, true))
}

func opNot(ctx RequestContext, args []any) (EvalResult, error) {
	if len(args) != 1 {
		return fail("Not", "bad argument length for Not. Expected 1 but got %d", len(args))
	}
	values, err := bools("Not", args)
	if err != nil {
		return fail("Not", "%s", err)
	}
	return ok("Not", !values[0])
}

func opEq(ctx RequestContext, args []any) (EvalResult, error) {
	if len(args) != 2 {
		return fail("Eq", "bad argument length for Eq. Expected 2 but got %d", len(args))
	}
	return ok("Eq", reflect.DeepEqual(args[0], args[1]))
}

func opContains(ctx RequestContext, args []any) (EvalResult, error) {
	if len(args) != 2 {
		return fail("Contains", "bad argument length for Contains. Expected 2 but got %d", len(args))
	}

	list, isList := args[0].([]any)
	if !isList {
		return fail("Contains", "bad argument type for Contains. Expected []any but got %v", reflect.TypeOf(args[0]))
	}
	return ok("Contains", slices.Contains(list, args[1]))
}

func loadKey(ctx RequestContext, args []any) (any, bool, error) {
	if len(args) != 1 {
		return nil, false, fmt.Errorf("bad argument length for Load. Expected 1 but got %d", len(args))
	}
	key, isString := args[0].(string)
	if !isString {
		return nil, false, fmt.Errorf("bad argument type for Load. Expected string but got %v", reflect.TypeOf(args[0]))
	}
	value, found := resolveDotNotation(structToMap(ctx), key)
	return value, found, nil
}

func opLoad(ctx RequestContext, args []any) (EvalResult, error) {
	value, found, err := loadKey(ctx, args)
	if err != nil {
		return fail("Load", "%s", err)
	}
	if !found {
		return fail("Load", "key not found: %v", args[0])
	}
	return ok("Load", value)
}

func opExists(ctx RequestContext, args []any) (EvalResult, error) {
	_, found, err := loadKey(ctx, args)
	if err != nil {
		return fail("Exists", "%s", err)
	}
	return ok("Exists", found)
}
