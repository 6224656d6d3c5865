// Package builtin registers the formats shipped with semroundtrip.
package builtin

import (
	"github.com/FocuswithJustin/semroundtrip/core/convert"
	"github.com/FocuswithJustin/semroundtrip/core/evaluation"
	"github.com/FocuswithJustin/semroundtrip/internal/formats/amr"
	"github.com/FocuswithJustin/semroundtrip/internal/formats/conllu"
	passagexml "github.com/FocuswithJustin/semroundtrip/internal/formats/xml"
)

// NewConverters returns a converter registry holding every built-in
// format, falling back to convert.DefaultFormat.
func NewConverters() *convert.Registry {
	r := convert.NewRegistry(convert.DefaultFormat)
	r.Register(amr.Format, amr.NewConverter().Pair())
	for _, f := range conllu.Formats {
		r.Register(f, conllu.NewConverter().Pair())
	}
	r.Register(passagexml.Format, passagexml.NewConverter().Pair())
	return r
}

// NewEvaluators returns an evaluator registry holding every built-in
// format, falling back to evaluation.DefaultFormat.
func NewEvaluators() *evaluation.Registry {
	r := evaluation.NewRegistry(evaluation.DefaultFormat)
	r.Register(amr.Format, evaluation.EvaluatorFunc(amr.Evaluate))
	for _, f := range conllu.Formats {
		r.Register(f, evaluation.EvaluatorFunc(conllu.Evaluate))
	}
	r.Register(passagexml.Format, evaluation.EvaluatorFunc(passagexml.Evaluate))
	return r
}
