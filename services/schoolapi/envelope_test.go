package schoolapi

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID int `json:"id"`
}

func TestDecodeList(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		want      Page[item]
		wantShape bool
		wantErr   bool
	}{
		{name: "bare array", body: `[{"id":1},{"id":2}]`, want: Page[item]{Count: 2, Results: []item{{1}, {2}}}},
		{name: "count and results", body: `{"count":42,"results":[{"id":1}]}`, want: Page[item]{Count: 42, Results: []item{{1}}}},
		{name: "results only", body: `{"results":[{"id":3}]}`, want: Page[item]{Count: 1, Results: []item{{3}}}},
		{name: "nested data results", body: `{"data":{"count":7,"results":[{"id":1}]}}`, want: Page[item]{Count: 7, Results: []item{{1}}}},
		{name: "data array", body: ` {"data":[{"id":4},{"id":5}]} `, want: Page[item]{Count: 2, Results: []item{{4}, {5}}}},
		{name: "empty results", body: `{"count":0,"results":[]}`, want: Page[item]{Results: []item{}}},
		{name: "null results", body: `{"results":null}`, want: Page[item]{Results: []item{}}},
		{name: "empty body", body: "  ", wantShape: true},
		{name: "no known key", body: `{"items":[]}`, wantShape: true},
		{name: "scalar", body: `"nope"`, wantShape: true},
		{name: "malformed", body: `[{"id":}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeList[item]([]byte(tt.body))
			switch {
			case tt.wantShape:
				assert.True(t, errors.Is(err, ErrUnexpectedShape), "err = %v", err)
			case tt.wantErr:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
