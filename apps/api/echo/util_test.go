package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	. "github.com/trezcool/ratiba/apps/api/echo"
	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/school"
	"github.com/trezcool/ratiba/core/timetable"
	"github.com/trezcool/ratiba/storage/database/inmem"
	"github.com/trezcool/ratiba/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type app struct {
	Server
	conf       *core.Config
	ttRepo     timetable.Repository
	adminToken string
	userToken  string
}

func setup(t *testing.T) *app {
	// set up DB & repos
	db, err := inmemdb.Open()
	require.NoError(t, err)
	ttRepo := inmemdb.NewTimetableRepository(db)
	schRepo := inmemdb.NewSchoolRepository(db)
	testutil.SeedSchool(t, schRepo)

	// set up services
	validate, translator := testutil.NewValidator()
	conf := &core.Config{
		AppName:   "Ratiba",
		SecretKey: "test-secret",
		TestMode:  true,
		Server:    core.ServerConfig{JWTExpirationDelta: time.Hour},
	}

	// set up server
	a := &app{
		Server: NewServer(ServerDeps{
			Conf:           conf,
			Logger:         testutil.NopLogger{},
			TimetableSvc:   timetable.NewService(ttRepo, validate, translator),
			SchoolSvc:      school.NewService(schRepo, validate, translator),
			Validate:       validate,
			Translator:     translator,
			DisableReqLogs: true,
		}),
		conf:   conf,
		ttRepo: ttRepo,
	}
	a.adminToken = getToken(t, conf, true)
	a.userToken = getToken(t, conf, false)
	return a
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	header   map[string]string
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func (a *app) do(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	for k, v := range tt.header {
		req.Header.Set(k, v)
	}
	a.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, conf *core.Config, isAdmin bool) string {
	token, err := GenerateToken(conf, NewClaims(conf, "42", "mwalimu", isAdmin))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
