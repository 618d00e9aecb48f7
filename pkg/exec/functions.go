package exec

import (
	"math"
	"strings"

	"github.com/orneryd/gqlgraph/pkg/gql"
	"github.com/orneryd/gqlgraph/pkg/math/vector"
	"github.com/orneryd/gqlgraph/pkg/storage"
)

// aggregateNames mirrors the set the validator and planner already check
// (gql.validator.aggregateNames, plan.aggregateFuncNames); kept here too so
// the executor can tell a scalar FunctionCall from one a Project has
// already folded during grouping.
var aggregateNames = map[string]bool{
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true, "COLLECT": true,
}

func evalFunction(fc *gql.FunctionCall, row Row, params map[string]storage.Value) (storage.Value, error) {
	if aggregateNames[fc.Name] {
		return storage.Value{}, evalErr(fc, "%s is an aggregate function and must appear in a WITH/RETURN projection, not a nested expression", fc.Name)
	}

	args := make([]storage.Value, len(fc.Args))
	for i, a := range fc.Args {
		v, err := Eval(a, row, params)
		if err != nil {
			return storage.Value{}, err
		}
		args[i] = v
	}

	switch fc.Name {
	case "UPPER":
		return stringArg1(fc, args, strings.ToUpper)
	case "LOWER":
		return stringArg1(fc, args, strings.ToLower)
	case "TRIM":
		return stringArg1(fc, args, strings.TrimSpace)
	case "SUBSTRING":
		return substring(fc, args)
	case "CONTAINS":
		return stringArg2Bool(fc, args, strings.Contains)
	case "STARTS_WITH":
		return stringArg2Bool(fc, args, strings.HasPrefix)
	case "ENDS_WITH":
		return stringArg2Bool(fc, args, strings.HasSuffix)
	case "SIZE":
		return size(fc, args)
	case "SQRT":
		return mathArg1(fc, args, math.Sqrt)
	case "ABS":
		return mathArg1(fc, args, math.Abs)
	case "POW":
		return mathArg2(fc, args, powFloat)
	case "CEIL":
		return mathArg1(fc, args, math.Ceil)
	case "FLOOR":
		return mathArg1(fc, args, math.Floor)
	case "ROUND":
		return mathArg1(fc, args, math.Round)
	case "FT_CONTAINS":
		return stringArg2Bool(fc, args, strings.Contains)
	case "FT_FUZZY":
		return ftFuzzy(fc, args)
	case "COSINE_SIMILARITY":
		return cosineSimilarity(fc, args)
	}
	return storage.Value{}, evalErr(fc, "unknown function %s", fc.Name)
}

func powFloat(a, b float64) float64 { return math.Pow(a, b) }

func stringArg1(fc *gql.FunctionCall, args []storage.Value, f func(string) string) (storage.Value, error) {
	if len(args) != 1 {
		return storage.Value{}, evalErr(fc, "%s expects 1 argument", fc.Name)
	}
	if args[0].IsNull() {
		return storage.NullValue(), nil
	}
	if args[0].Kind != storage.KindString {
		return storage.Value{}, evalErr(fc, "%s expects a string", fc.Name)
	}
	return storage.StringValue(f(args[0].Str)), nil
}

func stringArg2Bool(fc *gql.FunctionCall, args []storage.Value, f func(s, substr string) bool) (storage.Value, error) {
	if len(args) != 2 {
		return storage.Value{}, evalErr(fc, "%s expects 2 arguments", fc.Name)
	}
	if args[0].IsNull() || args[1].IsNull() {
		return storage.NullValue(), nil
	}
	if args[0].Kind != storage.KindString || args[1].Kind != storage.KindString {
		return storage.Value{}, evalErr(fc, "%s expects strings", fc.Name)
	}
	return storage.BooleanValue(f(args[0].Str, args[1].Str)), nil
}

func mathArg1(fc *gql.FunctionCall, args []storage.Value, f func(float64) float64) (storage.Value, error) {
	if len(args) != 1 {
		return storage.Value{}, evalErr(fc, "%s expects 1 argument", fc.Name)
	}
	if args[0].IsNull() {
		return storage.NullValue(), nil
	}
	if args[0].Kind != storage.KindNumber {
		return storage.Value{}, evalErr(fc, "%s expects a number", fc.Name)
	}
	return storage.NumberValue(f(args[0].Num)), nil
}

func mathArg2(fc *gql.FunctionCall, args []storage.Value, f func(a, b float64) float64) (storage.Value, error) {
	if len(args) != 2 {
		return storage.Value{}, evalErr(fc, "%s expects 2 arguments", fc.Name)
	}
	if args[0].IsNull() || args[1].IsNull() {
		return storage.NullValue(), nil
	}
	if args[0].Kind != storage.KindNumber || args[1].Kind != storage.KindNumber {
		return storage.Value{}, evalErr(fc, "%s expects numbers", fc.Name)
	}
	return storage.NumberValue(f(args[0].Num, args[1].Num)), nil
}

func substring(fc *gql.FunctionCall, args []storage.Value) (storage.Value, error) {
	if len(args) != 2 && len(args) != 3 {
		return storage.Value{}, evalErr(fc, "SUBSTRING expects 2 or 3 arguments")
	}
	if args[0].IsNull() {
		return storage.NullValue(), nil
	}
	if args[0].Kind != storage.KindString || args[1].Kind != storage.KindNumber {
		return storage.Value{}, evalErr(fc, "SUBSTRING expects (string, number[, number])")
	}
	s := args[0].Str
	start := int(args[1].Num)
	if start < 0 {
		start = 0
	}
	if start > len(s) {
		start = len(s)
	}
	end := len(s)
	if len(args) == 3 {
		if args[2].Kind != storage.KindNumber {
			return storage.Value{}, evalErr(fc, "SUBSTRING expects a number length")
		}
		end = start + int(args[2].Num)
		if end > len(s) {
			end = len(s)
		}
	}
	if end < start {
		end = start
	}
	return storage.StringValue(s[start:end]), nil
}

func size(fc *gql.FunctionCall, args []storage.Value) (storage.Value, error) {
	if len(args) != 1 {
		return storage.Value{}, evalErr(fc, "SIZE expects 1 argument")
	}
	switch args[0].Kind {
	case storage.KindNull:
		return storage.NullValue(), nil
	case storage.KindList:
		return storage.NumberValue(float64(len(args[0].List))), nil
	case storage.KindString:
		return storage.NumberValue(float64(len(args[0].Str))), nil
	}
	return storage.Value{}, evalErr(fc, "SIZE expects a list or string")
}

// cosineSimilarity scores two Vector properties for a KNN-style ORDER BY,
// e.g. `ORDER BY COSINE_SIMILARITY(n.embedding, $query) DESC`, backing a
// vector-index query the same way FT_CONTAINS backs a text-index one.
func cosineSimilarity(fc *gql.FunctionCall, args []storage.Value) (storage.Value, error) {
	if len(args) != 2 {
		return storage.Value{}, evalErr(fc, "COSINE_SIMILARITY expects 2 arguments")
	}
	if args[0].IsNull() || args[1].IsNull() {
		return storage.NullValue(), nil
	}
	if args[0].Kind != storage.KindVector || args[1].Kind != storage.KindVector {
		return storage.Value{}, evalErr(fc, "COSINE_SIMILARITY expects two vectors")
	}
	return storage.NumberValue(vector.CosineSimilarity(args[0].Vector, args[1].Vector)), nil
}

// ftFuzzy is a permissive approximate-match predicate for ad-hoc expression
// use; the real fuzzy-scoring path lives in the text-search index, not
// here.
func ftFuzzy(fc *gql.FunctionCall, args []storage.Value) (storage.Value, error) {
	if len(args) != 2 {
		return storage.Value{}, evalErr(fc, "FT_FUZZY expects 2 arguments")
	}
	if args[0].IsNull() || args[1].IsNull() {
		return storage.NullValue(), nil
	}
	if args[0].Kind != storage.KindString || args[1].Kind != storage.KindString {
		return storage.Value{}, evalErr(fc, "FT_FUZZY expects strings")
	}
	return storage.BooleanValue(strings.Contains(strings.ToLower(args[0].Str), strings.ToLower(args[1].Str))), nil
}
