package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral_console/internal/model"
)

func TestLogin_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/user/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"user":{"id":"1","name":"Ada","email":"admin@x.com","role":"admin"},"token":"abc"}`))
	}))
	defer srv.Close()

	user, token, err := New(srv.URL, time.Second).Login(context.Background(), "admin@x.com", "p")

	require.NoError(t, err)
	assert.Equal(t, "abc", token)
	assert.Equal(t, "admin", user.Role)
	assert.Equal(t, "1", user.ID)
}

func TestLogin_FailureCarriesGatewayMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid email or password"}`))
	}))
	defer srv.Close()

	_, _, err := New(srv.URL, time.Second).Login(context.Background(), "x@x.com", "bad")

	var gerr *GatewayError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, http.StatusUnauthorized, gerr.StatusCode)
	assert.Equal(t, "Invalid email or password", gerr.Message)
}

func TestUnreachableGateway(t *testing.T) {
	c := New("http://127.0.0.1:1", 200*time.Millisecond)

	_, _, err := c.Login(context.Background(), "a@b.c", "p")

	var gerr *GatewayError
	require.ErrorAs(t, err, &gerr)
	assert.Zero(t, gerr.StatusCode)
}

func TestAdminReferrals_BearerTokenAndNormalization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user/admin/referrals", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Write([]byte(`[{"_id":"aaa","name":"Ada","status":"Pending"},{"id":42,"name":"Bob","status":"Hired"}]`))
	}))
	defer srv.Close()

	list, err := New(srv.URL, time.Second).AdminReferrals(context.Background(), "tok")

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "aaa", list[0].ID)
	assert.Equal(t, "42", list[1].ID)
}

func TestMyReferrals_UsesSelfScopedPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).MyReferrals(context.Background(), "tok")

	require.NoError(t, err)
	assert.Equal(t, "/api/user/my-referrals", gotPath)
}

func TestSubmitReferral_MultipartFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user/referal-submit", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "Ada", r.FormValue("name"))
		assert.Equal(t, "ada@x.com", r.FormValue("email"))
		assert.Equal(t, "Engineer", r.FormValue("jobTitle"))
		assert.Equal(t, "http://cv", r.FormValue("resume"))

		w.Write([]byte(`{"_id":"new1","name":"Ada","status":"Pending"}`))
	}))
	defer srv.Close()

	created, err := New(srv.URL, time.Second).SubmitReferral(context.Background(), "tok", model.ReferralRequest{
		Name: "Ada", Email: "ada@x.com", JobTitle: "Engineer", Resume: "http://cv",
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "new1", created.ID)
	assert.Equal(t, model.StatusPending, created.Status)
}

func TestSubmitReferral_FilePart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))

		file, header, err := r.FormFile("resume")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "cv.pdf", header.Filename)

		w.Write([]byte(`{"_id":"new2","status":"Pending"}`))
	}))
	defer srv.Close()

	created, err := New(srv.URL, time.Second).SubmitReferral(context.Background(), "tok", model.ReferralRequest{
		Name: "Ada", Email: "ada@x.com", JobTitle: "Engineer",
	}, &ResumeFile{Filename: "cv.pdf", Content: strings.NewReader("%PDF")})

	require.NoError(t, err)
	assert.Equal(t, "new2", created.ID)
}

func TestUpdateStatus_PathAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/user/admin/referrals/abc/status", r.URL.Path)

		w.Write([]byte(`{"_id":"abc","status":"Hired"}`))
	}))
	defer srv.Close()

	updated, err := New(srv.URL, time.Second).UpdateStatus(context.Background(), "tok", "abc", model.StatusHired)

	require.NoError(t, err)
	assert.Equal(t, model.StatusHired, updated.Status)
}

func TestUpdateCandidate_PathAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/user/admin/referrals/abc", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ada", body["name"])
		assert.Equal(t, "555", body["phone"])

		w.Write([]byte(`{"_id":"abc","name":"Ada","status":"Reviewed"}`))
	}))
	defer srv.Close()

	updated, err := New(srv.URL, time.Second).UpdateCandidate(context.Background(), "tok", "abc", model.CandidateUpdateRequest{
		Name: "Ada", Email: "ada@x.com", Phone: "555", JobTitle: "Engineer", Status: model.StatusReviewed,
	})

	require.NoError(t, err)
	assert.Equal(t, "abc", updated.ID)
	assert.Equal(t, model.StatusReviewed, updated.Status)
}

func TestDeleteCandidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/user/admin/referrals/abc", r.URL.Path)

		w.Write([]byte(`{"message":"deleted"}`))
	}))
	defer srv.Close()

	err := New(srv.URL, time.Second).DeleteCandidate(context.Background(), "tok", "abc")
	assert.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/users/profile", r.URL.Path)

		w.Write([]byte(`{"id":"1","name":"New Name","email":"new@x.com","role":"user"}`))
	}))
	defer srv.Close()

	name := "New Name"
	user, err := New(srv.URL, time.Second).UpdateProfile(context.Background(), "tok", model.ProfileUpdateRequest{Name: &name})

	require.NoError(t, err)
	assert.Equal(t, "New Name", user.Name)
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(srv.URL, time.Minute).AdminReferrals(ctx, "tok")
	assert.Error(t, err)
}
