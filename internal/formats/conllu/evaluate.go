package conllu

import (
	"fmt"

	"github.com/FocuswithJustin/semroundtrip/core/evaluation"
)

// Score fields, in display order.
const (
	FieldUPOS      = "upos"
	FieldUnlabeled = "unlabeled"
	FieldLabeled   = "labeled"
)

// Evaluate scores guessed words against reference words by word ID:
// part-of-speech tags, unlabeled attachment and labeled attachment.
func Evaluate(guessed, reference []string, opts evaluation.Options) (evaluation.Record, error) {
	g, err := words(guessed)
	if err != nil {
		return nil, fmt.Errorf("guessed sentence: %w", err)
	}
	r, err := words(reference)
	if err != nil {
		return nil, fmt.Errorf("reference sentence: %w", err)
	}

	gi, ri := items(g), items(r)
	w := opts.Writer()
	scores := evaluation.NewScores(Formats[0])
	for _, name := range []string{FieldUPOS, FieldUnlabeled, FieldLabeled} {
		c, missing, spurious := evaluation.Match(gi[name], ri[name])
		scores.Add(name, c)
		evaluation.PrintDiff(w, name, missing, spurious)
	}
	return scores, nil
}

func items(ws []*word) map[string][]string {
	out := make(map[string][]string, 3)
	for _, w := range ws {
		out[FieldUPOS] = append(out[FieldUPOS], fmt.Sprintf("%d %s", w.ID, w.UPOS))
		out[FieldUnlabeled] = append(out[FieldUnlabeled], fmt.Sprintf("%d<-%d", w.ID, w.Head))
		out[FieldLabeled] = append(out[FieldLabeled], fmt.Sprintf("%d<-%d %s", w.ID, w.Head, w.Deprel))
	}
	return out
}
