package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"photovote/auth"
	"photovote/config"
	"photovote/photos"
	"photovote/settings"
	"photovote/storage"
	"photovote/testutil"
	"photovote/voting"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const testAdminKey = "handlers-admin-key"

type testEnv struct {
	conn     *gorm.DB
	engine   *gin.Engine
	settings *settings.Store
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	old := config.ADMIN_KEY
	config.ADMIN_KEY = testAdminKey
	t.Cleanup(func() { config.ADMIN_KEY = old })

	conn := testutil.SetupTestDB(t)
	gate := settings.NewStore(conn, nil)
	if err := gate.Init(context.Background(), true, true); err != nil {
		t.Fatal(err)
	}
	bucket := storage.Bucket{Name: "test", StorageType: storage.StorageTypeFile, Path: t.TempDir(), PublicURL: "/media"}
	disk := storage.NewDiskStorage(&bucket)
	view := voting.NewView(conn)
	h := &Handlers{
		Votes:    voting.NewService(conn, gate, nil),
		View:     view,
		Settings: gate,
		Photos:   photos.NewService(conn, gate, disk, nil, 1<<20),
		Gallery:  photos.NewGallery(view, disk),
		Storage:  disk,
		Identity: auth.ClientKey{},
	}

	r := gin.New()
	r.Use(sessions.Sessions("token", cookie.NewStore([]byte("test-secret"))))
	r.GET("/health", Health)
	r.GET("/voter/new", h.VoterNew)
	r.POST("/vote", h.Vote)
	r.GET("/votes/mine", h.MyVotes)
	r.GET("/photos", h.PhotoList)
	r.GET("/photos/top", h.PhotoTop)
	r.GET("/photos/counts", h.PhotoCounts)
	r.POST("/photos", h.PhotoUpload)
	r.GET("/media/*path", h.Media)
	r.GET("/settings", h.SettingsGet)
	r.POST("/admin/login", h.AdminLogin)
	r.POST("/admin/logout", h.AdminLogout)
	adminRouter := &auth.Router{Base: r}
	adminRouter.GET("/admin/settings", h.AdminSettingsGet)
	adminRouter.POST("/admin/settings", h.AdminSettingsPost)
	return &testEnv{conn: conn, engine: r, settings: gate}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func vote(photoID, voterKey, action string) map[string]string {
	return map[string]string{"photo_id": photoID, "voter_key": voterKey, "action": action}
}

func TestVote(t *testing.T) {
	env := setupEnv(t)
	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		testutil.CreateTestPhoto(t, env.conn, id)
	}
	voter := "4b7f2c9e-0d3a-4f51-9a7e-1c2d3e4f5a6b"

	for _, id := range []string{"p1", "p2", "p3"} {
		w := env.do(testutil.MakeRequest(http.MethodPost, "/vote", vote(id, voter, "add"), nil))
		testutil.AssertStatus(t, w, http.StatusOK)
	}

	tests := []struct {
		name   string
		body   interface{}
		status int
		errMsg string
	}{
		{"over the limit", vote("p4", voter, "add"), http.StatusConflict, "You can only vote for 3 photos. Remove a vote first."},
		{"unknown photo", vote("nope", voter, "add"), http.StatusNotFound, "Photo nope does not exist"},
		{"bad action", vote("p1", voter, "flip"), http.StatusBadRequest, `action must be "add" or "remove"`},
		{"missing voter key", vote("p1", "", "add"), http.StatusBadRequest, "voter_key is required"},
		{"invalid voter key", vote("p1", "bad key!", "add"), http.StatusBadRequest, "voter_key is invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(testutil.MakeRequest(http.MethodPost, "/vote", tt.body, nil))
			testutil.AssertStatus(t, w, tt.status)
			resp := Response{}
			testutil.AssertJSON(t, w, &resp)
			if resp.Error != tt.errMsg {
				t.Errorf("error %q, want %q", resp.Error, tt.errMsg)
			}
		})
	}

	w := env.do(testutil.MakeRequest(http.MethodPost, "/vote", vote("p2", voter, "remove"), nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	resp := VoteResponse{}
	testutil.AssertJSON(t, w, &resp)
	if !resp.OK || !resp.Changed || resp.Voted || resp.MyCount != 2 || resp.Remaining != 1 {
		t.Errorf("unexpected remove response %+v", resp)
	}

	w = env.do(testutil.MakeRequest(http.MethodGet, "/votes/mine", nil, map[string]string{auth.VoterKeyHeader: voter}))
	testutil.AssertStatus(t, w, http.StatusOK)
	mine := MyVotesResponse{}
	testutil.AssertJSON(t, w, &mine)
	if strings.Join(mine.Votes, ",") != "p1,p3" || mine.Count != 2 || mine.Limit != 3 {
		t.Errorf("unexpected /votes/mine %+v", mine)
	}
}

func TestVote_InvalidJSON(t *testing.T) {
	env := setupEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/vote", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := env.do(req)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestVote_WindowClosed(t *testing.T) {
	env := setupEnv(t)
	testutil.CreateTestPhoto(t, env.conn, "p1")
	headers := map[string]string{auth.AdminKeyHeader: testAdminKey}

	w := env.do(testutil.MakeRequest(http.MethodPost, "/admin/settings", map[string]bool{"voting_open": false}, headers))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = env.do(testutil.MakeRequest(http.MethodPost, "/vote", vote("p1", "voter-key-0001", "add"), nil))
	testutil.AssertStatus(t, w, http.StatusForbidden)
	resp := Response{}
	testutil.AssertJSON(t, w, &resp)
	if resp.Error != "Voting is closed" {
		t.Errorf("unexpected error %q", resp.Error)
	}
}

func TestPhotoQueries(t *testing.T) {
	env := setupEnv(t)
	for _, id := range []string{"p1", "p2", "p3", "p4"} {
		testutil.CreateTestPhoto(t, env.conn, id)
	}
	counts := map[string]int{"p1": 2, "p2": 5, "p3": 5}
	for id, n := range counts {
		for i := 0; i < n; i++ {
			testutil.CreateTestVote(t, env.conn, "voter-"+id+"-"+string(rune('a'+i)), id)
		}
	}

	w := env.do(testutil.MakeRequest(http.MethodGet, "/photos/top?n=3", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	top := []photos.Item{}
	testutil.AssertJSON(t, w, &top)
	ids := []string{}
	for _, item := range top {
		ids = append(ids, item.ID)
	}
	if strings.Join(ids, ",") != "p2,p3,p1" {
		t.Errorf("top = %v", ids)
	}

	w = env.do(testutil.MakeRequest(http.MethodGet, "/photos/counts", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	got := map[string]int64{}
	testutil.AssertJSON(t, w, &got)
	if got["p1"] != 2 || got["p2"] != 5 || got["p3"] != 5 || got["p4"] != 0 || len(got) != 4 {
		t.Errorf("counts = %v", got)
	}

	w = env.do(testutil.MakeRequest(http.MethodGet, "/photos?limit=2", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	list := []photos.Item{}
	testutil.AssertJSON(t, w, &list)
	if len(list) != 2 || list[0].ID != "p1" || list[0].URL != "/media/p1.jpg" {
		t.Errorf("gallery = %+v", list)
	}

	w = env.do(testutil.MakeRequest(http.MethodGet, "/photos?limit=all", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	all := []photos.Item{}
	testutil.AssertJSON(t, w, &all)
	if len(all) != 4 || all[3].ID != "p4" {
		t.Errorf("slideshow list = %+v", all)
	}
}

func multipartUpload(t *testing.T, name string, files map[string][]byte) *http.Request {
	t.Helper()
	body := bytes.Buffer{}
	mw := multipart.NewWriter(&body)
	if name != "" {
		_ = mw.WriteField("name", name)
	}
	for fileName, content := range files {
		part, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(content)
	}
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/photos", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// Smallest valid GIF
var gifBytes = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

func TestPhotoUpload(t *testing.T) {
	env := setupEnv(t)

	w := env.do(multipartUpload(t, "Alice", map[string][]byte{"a.gif": gifBytes, "notes.txt": []byte("hello there")}))
	testutil.AssertStatus(t, w, http.StatusOK)
	resp := UploadResponse{}
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Photos) != 1 || len(resp.Failed) != 1 || resp.Failed[0] != "notes.txt" || resp.Error == "" {
		t.Fatalf("unexpected upload response %+v", resp)
	}

	// The stored file is served back
	w = env.do(httptest.NewRequest(http.MethodGet, resp.Photos[0].URL, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	if !bytes.Equal(w.Body.Bytes(), gifBytes) {
		t.Error("served file differs from upload")
	}

	w = env.do(multipartUpload(t, "", map[string][]byte{"a.gif": gifBytes}))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = env.do(multipartUpload(t, "Alice", nil))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = env.do(multipartUpload(t, "Alice", map[string][]byte{"notes.txt": []byte("hello there")}))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = env.do(testutil.MakeRequest(http.MethodPost, "/admin/settings", map[string]bool{"uploading_open": false}, map[string]string{auth.AdminKeyHeader: testAdminKey}))
	testutil.AssertStatus(t, w, http.StatusOK)
	w = env.do(multipartUpload(t, "Alice", map[string][]byte{"a.gif": gifBytes}))
	testutil.AssertStatus(t, w, http.StatusForbidden)
}

func TestAdminSettings(t *testing.T) {
	env := setupEnv(t)

	w := env.do(testutil.MakeRequest(http.MethodGet, "/admin/settings", nil, nil))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	w = env.do(testutil.MakeRequest(http.MethodPost, "/admin/settings", map[string]bool{"voting_open": false}, map[string]string{auth.AdminKeyHeader: "wrong"}))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	w = env.do(testutil.MakeRequest(http.MethodPost, "/admin/settings", map[string]string{}, map[string]string{auth.AdminKeyHeader: testAdminKey}))
	testutil.AssertStatus(t, w, http.StatusBadRequest)
	errResp := Response{}
	testutil.AssertJSON(t, w, &errResp)
	if errResp.Error != "No valid fields to update" {
		t.Errorf("unexpected error %q", errResp.Error)
	}

	// Login through the session cookie
	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"key":"`+testAdminKey+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w = env.do(req)
	testutil.AssertStatus(t, w, http.StatusOK)
	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie")
	}

	req = testutil.MakeRequest(http.MethodPost, "/admin/settings", map[string]bool{"uploading_open": false}, nil)
	req.AddCookie(cookies[0])
	w = env.do(req)
	testutil.AssertStatus(t, w, http.StatusOK)
	resp := SettingsResponse{}
	testutil.AssertJSON(t, w, &resp)
	if !resp.OK || resp.Settings.UploadingOpen || !resp.Settings.VotingOpen {
		t.Errorf("unexpected settings %+v", resp)
	}

	w = env.do(testutil.MakeRequest(http.MethodGet, "/settings", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), `"uploading_open":false`) {
		t.Errorf("public settings not updated: %s", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"key":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	w = env.do(req)
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestAdminSettings_NotConfigured(t *testing.T) {
	env := setupEnv(t)
	config.ADMIN_KEY = ""

	w := env.do(testutil.MakeRequest(http.MethodPost, "/admin/settings", map[string]bool{"voting_open": false}, map[string]string{auth.AdminKeyHeader: "x"}))
	testutil.AssertStatus(t, w, http.StatusInternalServerError)

	req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"key":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w = env.do(req)
	testutil.AssertStatus(t, w, http.StatusInternalServerError)
}

func TestVoterNewAndHealth(t *testing.T) {
	env := setupEnv(t)
	w := env.do(testutil.MakeRequest(http.MethodGet, "/voter/new", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	resp := map[string]string{}
	testutil.AssertJSON(t, w, &resp)
	if !auth.ValidVoterKey(resp["voter_key"]) {
		t.Errorf("invalid voter key %q", resp["voter_key"])
	}

	w = env.do(testutil.MakeRequest(http.MethodGet, "/health", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
}
