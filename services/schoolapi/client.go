// Package schoolapi is the client of the school backend REST API.
package schoolapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/ratiba/core"
)

// IdempotencyKeyHeader carries the client key of a session creation.
const IdempotencyKeyHeader = "Idempotency-Key"

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("not authorized")

	errorBodyLimit = 200
)

// Client calls the school backend. It is safe for concurrent use.
type Client struct {
	rest    *rest.Client
	baseURL string
	token   string
	logger  core.Logger
}

func NewClient(conf core.APIConfig, logger core.Logger) (*Client, error) {
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(conf.BaseURL, "baseURL"),
		func() (bool, string) { return logger != nil, "Parameter was nil: logger" },
	).Check()
	if err != nil {
		return nil, err
	}
	return &Client{
		rest:    &rest.Client{HTTPClient: &http.Client{Timeout: conf.Timeout}},
		baseURL: strings.TrimRight(conf.BaseURL, "/"),
		token:   conf.Token,
		logger:  logger,
	}, nil
}

type call struct {
	op      string
	method  rest.Method
	path    string
	query   map[string]string
	body    interface{}
	headers map[string]string
}

// do sends c and returns the 2xx response; any other answer is turned into an error.
func (cl *Client) do(ctx context.Context, c call) (*rest.Response, error) {
	req := rest.Request{
		Method:      c.method,
		BaseURL:     cl.baseURL + c.path,
		Headers:     map[string]string{"Accept": "application/json"},
		QueryParams: c.query,
	}
	if cl.token != "" {
		req.Headers["Authorization"] = "Bearer " + cl.token
	}
	for k, v := range c.headers {
		req.Headers[k] = v
	}
	if c.body != nil {
		body, err := json.Marshal(c.body)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: encoding body", c.op)
		}
		req.Body = body
		req.Headers["Content-Type"] = "application/json"
	}

	httpReq, err := rest.BuildRequestObject(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: building request", c.op)
	}
	res, err := cl.rest.MakeRequest(httpReq.WithContext(ctx))
	if err != nil {
		return nil, &core.NetworkError{Op: c.op, Err: err}
	}
	resp, err := rest.BuildResponse(res)
	if err != nil {
		return nil, &core.NetworkError{Op: c.op, StatusCode: res.StatusCode, Err: errors.Wrap(err, "reading response")}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	err = parseError(c.op, resp.StatusCode, resp.Body)
	cl.logger.Debug(fmt.Sprintf("%s %s: %d", c.method, c.path, resp.StatusCode), err)
	return nil, err
}

// decode unmarshals a JSON response body into v.
func decode(op string, resp *rest.Response, v interface{}) error {
	if err := json.Unmarshal([]byte(resp.Body), v); err != nil {
		return errors.Wrapf(err, "%s: decoding response", op)
	}
	return nil
}

func snippet(body string) string {
	body = strings.TrimSpace(body)
	if len(body) > errorBodyLimit {
		return body[:errorBodyLimit] + "..."
	}
	return body
}

// parseError maps an error answer:
// 400 and 409 answers become a *core.ConflictError when a message mentions "unique" or "duplicate",
// else a *core.ValidationError; 5xx and unexpected answers become a *core.NetworkError.
func parseError(op string, status int, body string) error {
	switch status {
	case http.StatusBadRequest, http.StatusConflict:
		return parseFieldErrors(body)
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Wrapf(ErrUnauthorized, "%s: %s", op, snippet(body))
	case http.StatusNotFound:
		return errors.Wrap(ErrNotFound, op)
	}
	return &core.NetworkError{Op: op, StatusCode: status, Err: errors.New(snippet(body))}
}

// messages flattens a field error value: a string, a list of strings or a nested object.
func messages(raw json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []string{s}
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		var msgs []string
		for _, item := range list {
			msgs = append(msgs, messages(item)...)
		}
		return msgs
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		var msgs []string
		for k, v := range obj {
			for _, m := range messages(v) {
				msgs = append(msgs, k+": "+m)
			}
		}
		sort.Strings(msgs)
		return msgs
	}
	return []string{string(raw)}
}

func parseFieldErrors(body string) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &obj); err != nil || len(obj) == 0 {
		msg := snippet(body)
		if core.IsUniquenessMessage(msg) {
			return core.NewConflictError(conflictKind("", msg), msg)
		}
		return core.NewValidationError(errors.New(msg))
	}

	var flds []core.FieldError
	for field, raw := range obj {
		for _, msg := range messages(raw) {
			flds = append(flds, core.FieldError{Field: field, Error: msg})
		}
	}
	sort.SliceStable(flds, func(i, j int) bool { return flds[i].Field < flds[j].Field })

	for _, f := range flds {
		if core.IsUniquenessMessage(f.Error) {
			return core.NewConflictError(conflictKind(f.Field, f.Error), f.Error, flds...)
		}
	}
	return core.NewValidationError(nil, flds...)
}

func conflictKind(field, msg string) core.ConflictKind {
	msg = strings.ToLower(msg)
	switch {
	case field == "teacher" || strings.Contains(msg, "teacher"):
		return core.TeacherConflict
	case strings.Contains(msg, "school_class") || strings.Contains(msg, "academic_year"):
		return core.TimetableConflict
	}
	return core.SessionConflict
}
