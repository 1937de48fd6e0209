package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/shule/core/user"
	testutil "github.com/trezcool/shule/tests"
)

func Test_userApi_register(t *testing.T) {
	app := setup(t)

	testutil.CreateUser(t, usrRepo, "Taken", "taken@test.cd", "", user.RoleAdmin, true)
	testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, false, "STU-1")

	newUser := func(email, role, studentID, instructorID string) []byte {
		return marchallObj(t, user.NewUser{
			Name:         "New Kid",
			Email:        email,
			Password:     "v3ryS3cret!",
			Role:         role,
			StudentID:    studentID,
			InstructorID: instructorID,
		})
	}

	tests := []httpTest{
		{
			name: "empty payload", body: []byte("{}"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":     "this field is required",
				"email":    "this field is required",
				"password": "password must contain at least 8 characters",
				"role":     "this field is required",
			}),
		},
		{
			name: "unknown role", body: newUser("kid@test.cd", "headmaster", "", ""), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"role": "invalid role"}),
		},
		{
			name: "student without studentId", body: newUser("kid@test.cd", user.RoleStudent, "", ""), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"studentId": "student id is required for students"}),
		},
		{
			name: "instructor without instructorId", body: newUser("kid@test.cd", user.RoleInstructor, "", ""), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"instructorId": "instructor id is required for instructors"}),
		},
		{
			name: "duplicate email", body: newUser("taken@test.cd", user.RoleStudent, "STU-9", ""), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name: "duplicate studentId", body: newUser("kid@test.cd", user.RoleStudent, "STU-1", ""), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"studentId": user.ErrStudentIDExists.Error()}),
		},
		{
			name: "all-numeric password", wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{Name: "New Kid", Email: "kid@test.cd", Password: "12345678", Role: user.RoleAdmin}),
			wantData: marchallObj(t, map[string]string{"password": "password cannot be entirely numeric"}),
		},
		{name: "student registers", body: newUser("kid@test.cd", user.RoleStudent, "STU-9", ""), wantCode: http.StatusCreated, extra: false},
		{name: "instructor registers", body: newUser("prof@test.cd", user.RoleInstructor, "", "INS-9"), wantCode: http.StatusCreated, extra: false},
		{name: "admin registers active", body: newUser("boss@test.cd", user.RoleAdmin, "", ""), wantCode: http.StatusCreated, extra: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/auth/register", tt.body)
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body = %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode == http.StatusCreated {
				var usr user.User
				if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
					t.Fatalf("unmarshalling response: %v", err)
				}
				if wantActive := tt.extra.(bool); usr.IsActive != wantActive {
					t.Errorf("is_active = %v, want %v", usr.IsActive, wantActive)
				}
				if strings.Contains(rec.Body.String(), "password") {
					t.Error("password material leaked in response")
				}
			} else {
				checkCodeAndData(t, tt, rec)
			}
		})
	}
}

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	active := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "v3ryS3cret!", user.RoleStudent, true, "STU-1")
	testutil.CreateUser(t, usrRepo, "Pending", "pending@test.cd", "v3ryS3cret!", user.RoleStudent, false, "STU-2")

	login := func(email, pwd string) []byte {
		return marchallObj(t, user.LoginUser{Email: email, Password: pwd})
	}

	tests := []httpTest{
		{
			name: "unknown email", body: login("lol@test.cd", "v3ryS3cret!"),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "email not found"}),
		},
		{
			name: "wrong password", body: login("hero@test.cd", "lol"),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "incorrect password"}),
		},
		// wrong password wins over the pending state
		{
			name: "wrong password on pending account", body: login("pending@test.cd", "lol"),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "incorrect password"}),
		},
		{
			name: "pending account", body: login("pending@test.cd", "v3ryS3cret!"),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account pending approval, please wait for approval before logging in"}),
		},
		{
			name: "active student", body: login("hero@test.cd", "v3ryS3cret!"),
			wantCode: http.StatusOK, wantData: marchallObj(t, echo.Map{"user": active}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/auth/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_profileAndSetSchool(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, true, "STU-1")

	tests := []httpTest{
		{
			name: "profile: unknown email", path: "/api/auth/profile",
			body:     marchallObj(t, echo.Map{"email": "lol@test.cd"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "user not found"}),
		},
		{
			name: "profile", path: "/api/auth/profile",
			body: marchallObj(t, echo.Map{"email": usr.Email}), wantData: marchallObj(t, usr),
		},
		{
			name: "set-school: email required", path: "/api/auth/set-school",
			body:     marchallObj(t, echo.Map{"school": "Bumi High"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": "this field is required"}),
		},
		{
			name: "set-school: unknown email", path: "/api/auth/set-school",
			body:     marchallObj(t, echo.Map{"email": "lol@test.cd", "school": "Bumi High"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "user not found"}),
		},
		{
			name: "set-school", path: "/api/auth/set-school",
			body:     marchallObj(t, echo.Map{"email": usr.Email, "school": "Bumi High"}),
			wantData: marchallObj(t, echo.Map{"message": "School updated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_pendingAndApprove(t *testing.T) {
	app := setup(t)

	pendingStudent := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, false, "STU-1")
	pendingProf := testutil.CreateUser(t, usrRepo, "Prof", "prof@test.cd", "", user.RoleInstructor, false, "", "INS-1")
	testutil.CreateUser(t, usrRepo, "Active", "active@test.cd", "", user.RoleStudent, true, "STU-2")

	tests := []httpTest{
		{
			name: "pending students", method: http.MethodGet, path: "/api/students/pending",
			wantData: marchallList(t, pendingStudent),
		},
		{
			name: "pending instructors", method: http.MethodGet, path: "/api/instructors/pending",
			wantData: marchallList(t, pendingProf),
		},
		{
			name: "approve unknown student", method: http.MethodPost, path: "/api/students/approve/999",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
		{
			name: "approve instructor as student", method: http.MethodPost,
			path:     fmt.Sprintf("/api/students/approve/%d", pendingProf.ID),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
		{
			name: "approve student", method: http.MethodPost,
			path:     fmt.Sprintf("/api/students/approve/%d", pendingStudent.ID),
			wantData: marchallObj(t, echo.Map{"message": "Student approved"}),
		},
		// idempotent
		{
			name: "approve student again", method: http.MethodPost,
			path:     fmt.Sprintf("/api/students/approve/%d", pendingStudent.ID),
			wantData: marchallObj(t, echo.Map{"message": "Student approved"}),
		},
		{
			name: "approve instructor", method: http.MethodPost,
			path:     fmt.Sprintf("/api/instructors/approve/%d", pendingProf.ID),
			wantData: marchallObj(t, echo.Map{"message": "Instructor approved"}),
		},
		{
			name: "no pending students left", method: http.MethodGet, path: "/api/students/pending",
			wantData: marchallList(t),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_studentLookups(t *testing.T) {
	app := setup(t)

	prof := testutil.CreateUser(t, usrRepo, "Prof", "prof@test.cd", "", user.RoleInstructor, true, "", "INS-1")
	hero := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, true, "STU-1")
	testutil.CreateUser(t, usrRepo, "Other", "other@test.cd", "", user.RoleStudent, true, "STU-2")

	// put prof & hero in the same school
	for _, email := range []string{prof.Email, hero.Email} {
		req, rec := newRequest(http.MethodPost, "/api/auth/set-school", marchallObj(t, echo.Map{"email": email, "school": "Bumi High"}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("set-school failed: %s", rec.Body.String())
		}
	}
	refresh := func(usr user.User) user.User {
		usr.School = "Bumi High"
		return usr
	}

	tests := []httpTest{
		{
			name: "by-id: unknown", path: "/api/students/by-id/lol",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
		{name: "by-id", path: "/api/students/by-id/STU-1", wantData: marchallObj(t, refresh(hero))},
		{name: "by-instructor: unknown yields empty", path: "/api/students/by-instructor/999", wantData: marchallList(t)},
		{
			name: "by-instructor", path: fmt.Sprintf("/api/students/by-instructor/%d", prof.ID),
			wantData: marchallList(t, refresh(hero)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, tt.path, nil)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_queryAndUpdate(t *testing.T) {
	app := setup(t)

	hero := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, true, "STU-1")
	prof := testutil.CreateUser(t, usrRepo, "Prof", "prof@test.cd", "", user.RoleInstructor, true, "", "INS-1")
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)

	t.Run("query all", func(t *testing.T) {
		tt := httpTest{wantData: marchallList(t, hero, prof, admin)}
		req, rec := newRequest(http.MethodGet, "/api/users", nil)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("query instructors", func(t *testing.T) {
		tt := httpTest{wantData: marchallList(t, prof)}
		req, rec := newRequest(http.MethodGet, "/api/instructors", nil)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("update unknown user", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "user not found"})}
		req, rec := newRequest(http.MethodPut, "/api/users/999", marchallObj(t, echo.Map{"name": "Nope"}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("update", func(t *testing.T) {
		req, rec := newRequest(http.MethodPut, fmt.Sprintf("/api/users/%d", hero.ID),
			marchallObj(t, echo.Map{"name": "Big Hero", "school": "Bumi High"}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var usr user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if usr.Name != "Big Hero" || usr.School != "Bumi High" {
			t.Errorf("update not applied: %+v", usr)
		}
		if usr.Email != hero.Email {
			t.Errorf("update touched email: %q", usr.Email)
		}
	})

	t.Run("update email to a taken one", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		}
		req, rec := newRequest(http.MethodPut, fmt.Sprintf("/api/users/%d", hero.ID),
			marchallObj(t, echo.Map{"email": admin.Email}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_userApi_adminCRUD(t *testing.T) {
	app := setup(t)

	hero := testutil.CreateUser(t, usrRepo, "Hero", "hero@test.cd", "", user.RoleStudent, true, "STU-1")
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", "", user.RoleAdmin, true)

	t.Run("list admins", func(t *testing.T) {
		tt := httpTest{wantData: marchallList(t, admin)}
		req, rec := newRequest(http.MethodGet, "/api/admins", nil)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("create admin forces the role", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/admins",
			marchallObj(t, user.NewUser{Name: "Boss", Email: "boss@test.cd", Password: "v3ryS3cret!", Role: user.RoleStudent}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
		var usr user.User
		if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if usr.Role != user.RoleAdmin || !usr.IsActive {
			t.Errorf("create admin: %+v", usr)
		}
	})

	t.Run("update non-admin", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "admin not found"})}
		req, rec := newRequest(http.MethodPut, fmt.Sprintf("/api/admins/%d", hero.ID),
			marchallObj(t, echo.Map{"name": "Nope"}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("update admin", func(t *testing.T) {
		req, rec := newRequest(http.MethodPut, fmt.Sprintf("/api/admins/%d", admin.ID),
			marchallObj(t, echo.Map{"name": "Big Admin"}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("delete non-admin", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "admin not found"})}
		req, rec := newRequest(http.MethodDelete, fmt.Sprintf("/api/admins/%d", hero.ID), nil)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("delete admin", func(t *testing.T) {
		tt := httpTest{wantData: marchallObj(t, echo.Map{"detail": "Admin deleted"})}
		req, rec := newRequest(http.MethodDelete, fmt.Sprintf("/api/admins/%d", admin.ID), nil)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)

		req, rec = newRequest(http.MethodGet, "/api/admins", nil)
		app.ServeHTTP(rec, req)
		empty := httpTest{wantData: marchallList(t)}
		checkCodeAndData(t, empty, rec)
	})
}
