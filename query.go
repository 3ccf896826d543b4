package rimepatch

import (
	"fmt"

	"github.com/ohler55/ojg/jp"

	"github.com/goliatone/go-rimepatch/tree"
)

// Query runs a JSONPath selector against doc and returns the matches as
// plain data, in document order.
func Query(doc tree.Value, selector string) ([]any, error) {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("rimepatch: invalid jsonpath %q: %w", selector, err)
	}
	results := x.Get(tree.ToAny(doc))
	if results == nil {
		results = []any{}
	}
	return results, nil
}
