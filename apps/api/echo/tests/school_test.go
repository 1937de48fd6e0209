package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/trezcool/shule/core/school"
	testutil "github.com/trezcool/shule/tests"
)

func Test_schoolApi_crud(t *testing.T) {
	app := setup(t)

	bumi := testutil.CreateSchool(t, schRepo, "Bumi High", false)

	t.Run("query", func(t *testing.T) {
		tt := httpTest{wantData: marchallList(t, bumi)}
		req, rec := newRequest(http.MethodGet, "/api/schools", nil)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("create: name required", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		}
		req, rec := newRequest(http.MethodPost, "/api/schools", []byte("{}"))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("create: duplicate name", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "school already exists"}),
		}
		req, rec := newRequest(http.MethodPost, "/api/schools", marchallObj(t, school.NewSchool{Name: "Bumi High"}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("create", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/schools", marchallObj(t, school.NewSchool{Name: "Kyoshi Academy"}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var sch school.School
		if err := json.Unmarshal(rec.Body.Bytes(), &sch); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if sch.ID == 0 || sch.Name != "Kyoshi Academy" || sch.Archived {
			t.Errorf("create school: %+v", sch)
		}
	})

	t.Run("update: unknown school", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "school not found"})}
		req, rec := newRequest(http.MethodPut, "/api/schools/999", marchallObj(t, school.UpdateSchool{Name: "Nope"}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("update", func(t *testing.T) {
		tt := httpTest{wantData: marchallObj(t, school.School{ID: bumi.ID, Name: "Bumi Higher"})}
		req, rec := newRequest(http.MethodPut, fmt.Sprintf("/api/schools/%d", bumi.ID), marchallObj(t, school.UpdateSchool{Name: "Bumi Higher"}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("archive then unarchive", func(t *testing.T) {
		for _, step := range []struct {
			action   string
			archived bool
		}{
			{action: "archive", archived: true},
			{action: "archive", archived: true}, // idempotent
			{action: "unarchive", archived: false},
		} {
			tt := httpTest{wantData: marchallObj(t, school.School{ID: bumi.ID, Name: "Bumi Higher", Archived: step.archived})}
			req, rec := newRequest(http.MethodPost, fmt.Sprintf("/api/schools/%d/%s", bumi.ID, step.action), nil)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		}
	})

	t.Run("archive unknown school", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "school not found"})}
		req, rec := newRequest(http.MethodPost, "/api/schools/999/archive", nil)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}
