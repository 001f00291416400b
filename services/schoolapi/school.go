package schoolapi

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/ratiba/core/school"
)

var _ school.Loader = (*Client)(nil)

func list[T any](ctx context.Context, cl *Client, op, path string, query map[string]string) ([]T, error) {
	resp, err := cl.do(ctx, call{op: op, method: rest.Get, path: path, query: query})
	if err != nil {
		return nil, err
	}
	page, err := decodeList[T]([]byte(resp.Body))
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	return page.Results, nil
}

func (cl *Client) Grades(ctx context.Context) ([]school.Grade, error) {
	return list[school.Grade](ctx, cl, "list grades", "/schools/grades", nil)
}

func (cl *Client) Tracks(ctx context.Context) ([]school.Track, error) {
	return list[school.Track](ctx, cl, "list tracks", "/schools/tracks", nil)
}

func (cl *Client) Classes(ctx context.Context) ([]school.Class, error) {
	return list[school.Class](ctx, cl, "list classes", "/schools/classes", nil)
}

func (cl *Client) Subjects(ctx context.Context) ([]school.Subject, error) {
	return list[school.Subject](ctx, cl, "list subjects", "/schools/subjects", nil)
}

func (cl *Client) Teachers(ctx context.Context, filter school.TeacherFilter) ([]school.Teacher, error) {
	params := make(map[string]string)
	if filter.Role != "" {
		params["role"] = filter.Role
	}
	intParam(filter.Subject, params, "subject")
	return list[school.Teacher](ctx, cl, "list teachers", "/users/teachers", params)
}

func (cl *Client) Rooms(ctx context.Context) ([]school.Room, error) {
	return list[school.Room](ctx, cl, "list rooms", "/schools/rooms", nil)
}

func (cl *Client) AcademicYears(ctx context.Context) ([]school.AcademicYear, error) {
	return list[school.AcademicYear](ctx, cl, "list academic years", "/schools/academic-years", nil)
}
