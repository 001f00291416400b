package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/trezcool/ratiba/core/school"
	"github.com/trezcool/ratiba/tests"
)

func Test_schoolApi(t *testing.T) {
	a := setup(t)
	data := testutil.SchoolData()
	wrapped := func(teachers ...school.Teacher) []byte {
		if teachers == nil {
			teachers = []school.Teacher{}
		}
		return marshalObj(t, map[string]interface{}{"data": map[string]interface{}{"results": teachers}})
	}

	tests := []httpTest{
		{
			name:     "subjects",
			method:   http.MethodGet,
			path:     "/api/schools/subjects",
			token:    a.userToken,
			wantCode: http.StatusOK,
			wantData: marshalObj(t, data.Subjects),
		},
		{
			name:     "rooms",
			method:   http.MethodGet,
			path:     "/api/schools/rooms",
			token:    a.userToken,
			wantCode: http.StatusOK,
			wantData: marshalObj(t, data.Rooms),
		},
		{
			name:     "no tracks",
			method:   http.MethodGet,
			path:     "/api/schools/tracks",
			token:    a.userToken,
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
		{
			name:     "teachers are wrapped",
			method:   http.MethodGet,
			path:     "/api/users/teachers?subject=7",
			token:    a.userToken,
			wantCode: http.StatusOK,
			wantData: wrapped(data.Teachers[2]),
		},
		{
			name:     "teachers by role",
			method:   http.MethodGet,
			path:     "/api/users/teachers?role=teacher:class",
			token:    a.userToken,
			wantCode: http.StatusOK,
			wantData: wrapped(data.Teachers[1]),
		},
		{
			name:     "no teacher",
			method:   http.MethodGet,
			path:     "/api/users/teachers?subject=99",
			token:    a.userToken,
			wantCode: http.StatusOK,
			wantData: wrapped(),
		},
		{
			name:     "no token",
			method:   http.MethodGet,
			path:     "/api/schools/classes",
			wantCode: http.StatusUnauthorized,
			wantData: marshalObj(t, errMissingToken),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, a.do(tt))
		})
	}
}
