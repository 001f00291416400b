package schoolapi

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

var ErrUnexpectedShape = errors.New("unexpected list response shape")

// Page is a list response once its envelope is removed.
type Page[T any] struct {
	Count   int
	Results []T
}

// envelope covers the object shapes list endpoints answer with:
// {"count": n, "results": [...]}, {"data": {"results": [...]}} and {"data": [...]}.
type envelope struct {
	Count   *int            `json:"count"`
	Results json.RawMessage `json:"results"`
	Data    json.RawMessage `json:"data"`
}

// decodeList normalizes a list response. A bare array is accepted too.
// Count falls back to the number of results when the envelope has none.
func decodeList[T any](body []byte) (Page[T], error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Page[T]{}, errors.Wrap(ErrUnexpectedShape, "empty body")
	}

	switch body[0] {
	case '[':
		var results []T
		if err := json.Unmarshal(body, &results); err != nil {
			return Page[T]{}, errors.Wrap(err, "decoding list")
		}
		return Page[T]{Count: len(results), Results: results}, nil

	case '{':
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return Page[T]{}, errors.Wrap(err, "decoding envelope")
		}
		var (
			page Page[T]
			err  error
		)
		switch {
		case env.Results != nil:
			err = json.Unmarshal(env.Results, &page.Results)
			page.Count = len(page.Results)
		case env.Data != nil:
			page, err = decodeList[T](env.Data)
		default:
			return Page[T]{}, errors.Wrap(ErrUnexpectedShape, "no results nor data")
		}
		if err != nil {
			return Page[T]{}, errors.Wrap(err, "decoding results")
		}
		if page.Results == nil {
			page.Results = []T{}
		}
		if env.Count != nil {
			page.Count = *env.Count
		}
		return page, nil
	}
	return Page[T]{}, errors.Wrapf(ErrUnexpectedShape, "body starts with %q", body[0])
}
