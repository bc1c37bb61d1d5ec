package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"glyphAPI/internal/repository/memory"
	"glyphAPI/internal/types/glyph"
	"glyphAPI/internal/types/user"
	"glyphAPI/middleware"
	"glyphAPI/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router *mux.Router
	store  *memory.Store
	glyphs *services.GlyphService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.New()
	glyphs := services.NewGlyphService(store, nil, 10)
	streaks := services.NewStreakService(store, time.UTC)
	discovery := services.NewDiscoveryService(glyphs, store, streaks, 50, 5000)
	interactions := services.NewInteractionService(glyphs, store, nil)

	gh := NewGlyphHandler(glyphs, discovery, nil, services.NewShareService(glyphs), 200)
	dh := NewDiscoveryHandler(discovery)
	sh := NewStreakHandler(streaks)
	ih := NewInteractionHandler(interactions)
	uh := NewUserHandler(services.NewUserService(store))

	r := mux.NewRouter()
	r.HandleFunc("/glyphs/nearby", gh.Nearby).Methods("GET")
	r.HandleFunc("/glyphs", gh.CreateGlyph).Methods("POST")
	r.HandleFunc("/glyphs/{id}", gh.GetGlyph).Methods("GET")
	r.HandleFunc("/glyphs/{id}", gh.DeleteGlyph).Methods("DELETE")
	r.HandleFunc("/glyphs/{id}/photo", gh.UploadPhoto).Methods("POST")
	r.HandleFunc("/glyphs/{id}/photo", gh.PhotoURL).Methods("GET")
	r.HandleFunc("/glyphs/{id}/photo", gh.DeletePhoto).Methods("DELETE")
	r.HandleFunc("/users/me", uh.GetProfile).Methods("GET")
	r.HandleFunc("/glyphs/{id}/discover", dh.Discover).Methods("POST")
	r.HandleFunc("/glyphs/{id}/rating", ih.RateGlyph).Methods("PUT")
	r.HandleFunc("/glyphs/{id}/comments", ih.AddComment).Methods("POST")
	r.HandleFunc("/glyphs/{id}/comments", ih.ListComments).Methods("GET")
	r.HandleFunc("/discoveries/stats", dh.Stats).Methods("GET")
	r.HandleFunc("/streak", sh.GetStreak).Methods("GET")
	r.HandleFunc("/streak/achievements", sh.GetAchievements).Methods("GET")

	return &testServer{router: r, store: store, glyphs: glyphs}
}

func (s *testServer) do(t *testing.T, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) seed(t *testing.T, lat, lng float64) *glyph.Glyph {
	t.Helper()
	g, err := s.glyphs.CreateGlyph(context.Background(), "author", glyph.CreateGlyphRequest{
		Latitude: lat, Longitude: lng, Text: "seeded", Category: glyph.CategoryHint,
	})
	require.NoError(t, err)
	return g
}

func TestCreateGlyphRequiresAuthAndValidates(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "POST", "/glyphs", "", map[string]interface{}{"text": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, "POST", "/glyphs", "author", map[string]interface{}{
		"latitude": 1, "longitude": 1, "text": "hello", "category": "Gossip",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "POST", "/glyphs", "author", map[string]interface{}{
		"latitude": 1, "longitude": 1, "text": "hello", "category": "Praise",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var g glyph.Glyph
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
	assert.Equal(t, "hello", g.Text)

	rec = s.do(t, "GET", "/glyphs/"+g.ID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetGlyphNotFoundAndForbidden(t *testing.T) {
	s := newTestServer(t)
	g := s.seed(t, 1, 1)

	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/glyphs/missing", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, "DELETE", "/glyphs/"+g.ID, "intruder", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, "DELETE", "/glyphs/"+g.ID, "author", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/glyphs/"+g.ID, "", nil).Code)
}

func TestNearbyEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.seed(t, 40.7129, -74.0061)

	rec := s.do(t, "GET", "/glyphs/nearby?lat=40.7128&lng=-74.0060", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var nearby []glyph.NearbyGlyph
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nearby))
	require.Len(t, nearby, 1)
	assert.True(t, nearby[0].Discoverable)

	assert.Equal(t, http.StatusBadRequest, s.do(t, "GET", "/glyphs/nearby?lat=abc&lng=1", "u1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, "GET", "/glyphs/nearby?lat=1&lng=1&radius=-5", "u1", nil).Code)
}

func TestDiscoverEndpoint(t *testing.T) {
	s := newTestServer(t)
	g := s.seed(t, 40.7129, -74.0061)
	far := s.seed(t, 40.7200, -74.0060)
	here := map[string]float64{"lat": 40.7128, "lng": -74.0060}

	rec := s.do(t, "POST", "/glyphs/"+g.ID+"/discover", "u1", here)
	require.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "created", body["outcome"])
	assert.NotNil(t, body["streak"])

	rec = s.do(t, "POST", "/glyphs/"+g.ID+"/discover", "u1", here)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "already_recorded", body["outcome"])

	rec = s.do(t, "POST", "/glyphs/"+far.ID+"/discover", "u1", here)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(t, "POST", "/glyphs/"+g.ID+"/discover", "u1", map[string]float64{"lat": 100, "lng": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "GET", "/discoveries/stats", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_discoveries":1`)

	rec = s.do(t, "GET", "/streak", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"current_streak":1`)
	assert.Contains(t, rec.Body.String(), `"discovered_today":true`)
	assert.Contains(t, rec.Body.String(), `"next_milestone":3`)

	rec = s.do(t, "GET", "/streak/achievements", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"progress_toward_next":1`)
}

func TestRatingAndComments(t *testing.T) {
	s := newTestServer(t)
	g := s.seed(t, 1, 1)
	require.NoError(t, s.store.UpsertUser(context.Background(), user.User{ID: "u1", Username: "mira"}))

	assert.Equal(t, http.StatusBadRequest, s.do(t, "PUT", "/glyphs/"+g.ID+"/rating", "u1", map[string]int{"rating": 6}).Code)
	assert.Equal(t, http.StatusOK, s.do(t, "PUT", "/glyphs/"+g.ID+"/rating", "u1", map[string]int{"rating": 4}).Code)

	rec := s.do(t, "POST", "/glyphs/"+g.ID+"/comments", "u1", map[string]string{"comment": "lovely"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"mira"`)

	rec = s.do(t, "GET", "/glyphs/"+g.ID+"/comments?limit=10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var comments []glyph.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &comments))
	assert.Len(t, comments, 1)

	assert.Equal(t, http.StatusBadRequest, s.do(t, "GET", "/glyphs/"+g.ID+"/comments?limit=ten", "", nil).Code)
}

func TestUploadPhotoWithoutStorage(t *testing.T) {
	s := newTestServer(t)
	g := s.seed(t, 1, 1)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(t, "POST", "/glyphs/"+g.ID+"/photo", "author", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(t, "GET", "/glyphs/"+g.ID+"/photo", "author", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(t, "DELETE", "/glyphs/"+g.ID+"/photo", "author", nil).Code)
}

func TestGetProfile(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, "GET", "/users/me", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/users/me", "user_1", nil).Code)

	require.NoError(t, s.store.UpsertUser(context.Background(), user.User{ID: "user_1", Username: "nova"}))
	rec := s.do(t, "GET", "/users/me", "user_1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"nova"`)
}

func TestWebhookSignatureAndSync(t *testing.T) {
	store := memory.New()
	h := NewWebhookHandler(services.NewUserService(store), "whsec_c2VjcmV0LWtleQ==")
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	body := []byte(`{"type":"user.created","object":"event","data":{"id":"user_9","username":"nova"}}`)
	ts := strconv.FormatInt(now.Unix(), 10)

	send := func(sig string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/webhooks/clerk", bytes.NewReader(body))
		req.Header.Set("svix-id", "msg_1")
		req.Header.Set("svix-timestamp", ts)
		req.Header.Set("svix-signature", sig)
		rec := httptest.NewRecorder()
		h.HandleClerkWebhook(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, send("v1,bogus").Code)

	valid := SignWebhook("whsec_c2VjcmV0LWtleQ==", "msg_1", ts, body)
	require.Equal(t, http.StatusOK, send("v1,stale v1,"+valid).Code)

	u, err := store.GetUser(context.Background(), "user_9")
	require.NoError(t, err)
	assert.Equal(t, "nova", u.Username)
}
