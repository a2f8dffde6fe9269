// Geochat - Geohash Chatrooms over Nostr Ephemeral Events
// Copyright 2026 Geochat contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/geochat-dev/geochat

package api

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gorillaws "github.com/gorilla/websocket"

	"github.com/geochat-dev/geochat/internal/logging"
	"github.com/geochat-dev/geochat/internal/models"
	"github.com/geochat-dev/geochat/internal/store"
	ws "github.com/geochat-dev/geochat/internal/websocket"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Format: "json", Output: io.Discard})
}

// envelope mirrors the standard response wrapper for decoding in tests.
type envelope struct {
	Status string           `json:"status"`
	Data   json.RawMessage  `json:"data"`
	Error  *models.APIError `json:"error"`
}

// newTestRouter builds a router over a store seeded with three events:
// a and c in chatroom u4, b in u5.
func newTestRouter(t *testing.T) (http.Handler, *store.Store) {
	t.Helper()

	s := store.New()
	t.Cleanup(func() { _ = s.Close() })
	s.Admit(&models.Event{ID: "a", Author: "pk1", CreatedAt: 300, Tags: [][]string{{"g", "u4"}}})
	s.Admit(&models.Event{ID: "b", Author: "pk2", CreatedAt: 100, Tags: [][]string{{"g", "u5"}}})
	s.Admit(&models.Event{ID: "c", Author: "pk1", CreatedAt: 200, Tags: [][]string{{"g", "u4"}}})

	handler := NewHandler(s, ws.NewHub(), nil)
	return NewRouter(handler, nil).Setup(), s
}

func doRequest(t *testing.T, router http.Handler, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("undecodable response body %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("undecodable data payload %q: %v", env.Data, err)
	}
}

func eventIDs(events []*models.Event) []string {
	ids := make([]string, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
	}
	return ids
}

func TestTimelineArrivalOrder(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, env := doRequest(t, router, "/api/v1/timeline")
	if rec.Code != http.StatusOK || env.Status != "success" {
		t.Fatalf("status = %d/%s, want 200/success", rec.Code, env.Status)
	}

	var data struct {
		Count  int             `json:"count"`
		Events []*models.Event `json:"events"`
	}
	decodeData(t, env, &data)

	// Arrival order, not created_at order.
	want := []string{"a", "b", "c"}
	if got := eventIDs(data.Events); data.Count != 3 || strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("timeline = %v (count %d), want %v", got, data.Count, want)
	}
}

func TestTimelineGeohashSelection(t *testing.T) {
	router, _ := newTestRouter(t)

	_, env := doRequest(t, router, "/api/v1/timeline?geohash=u4")

	var data struct {
		Geohash string          `json:"geohash"`
		Events  []*models.Event `json:"events"`
	}
	decodeData(t, env, &data)

	if data.Geohash != "u4" {
		t.Errorf("geohash = %q, want u4", data.Geohash)
	}
	if got := eventIDs(data.Events); strings.Join(got, ",") != "a,c" {
		t.Errorf("filtered timeline = %v, want [a c]", got)
	}
}

func TestTimelineNewestOrder(t *testing.T) {
	router, _ := newTestRouter(t)

	_, env := doRequest(t, router, "/api/v1/timeline?order=newest")

	var data struct {
		Events []*models.Event `json:"events"`
	}
	decodeData(t, env, &data)

	if got := eventIDs(data.Events); strings.Join(got, ",") != "c,b,a" {
		t.Errorf("newest timeline = %v, want [c b a]", got)
	}
}

func TestTimelineRejectsInvalidGeohash(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, env := doRequest(t, router, "/api/v1/timeline?geohash=ali")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("error = %+v, want VALIDATION_ERROR", env.Error)
	}
}

func TestTimelineRejectsUnknownOrder(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, _ := doRequest(t, router, "/api/v1/timeline?order=oldest")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestChatroomsSortedByCount(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, env := doRequest(t, router, "/api/v1/chatrooms")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var data struct {
		Count     int               `json:"count"`
		Chatrooms []models.Chatroom `json:"chatrooms"`
	}
	decodeData(t, env, &data)

	if data.Count != 2 {
		t.Fatalf("count = %d, want 2: %+v", data.Count, data.Chatrooms)
	}
	if data.Chatrooms[0].Geohash != "u4" || data.Chatrooms[0].MessageCount != 2 {
		t.Errorf("chatrooms[0] = %+v, want u4 with 2 messages", data.Chatrooms[0])
	}
	if data.Chatrooms[1].Geohash != "u5" || data.Chatrooms[1].MessageCount != 1 {
		t.Errorf("chatrooms[1] = %+v, want u5 with 1 message", data.Chatrooms[1])
	}
}

func TestGeohashInfo(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, env := doRequest(t, router, "/api/v1/geohash/ezs42")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var data struct {
		Geohash   string  `json:"geohash"`
		Label     string  `json:"label"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	decodeData(t, env, &data)

	if data.Geohash != "ezs42" || data.Label != "#ezs42" {
		t.Errorf("identity = (%s, %s), want (ezs42, #ezs42)", data.Geohash, data.Label)
	}
	if math.Abs(data.Latitude-42.60498046875) > 1e-9 {
		t.Errorf("latitude = %v, want 42.60498046875", data.Latitude)
	}
	if math.Abs(data.Longitude-(-5.60302734375)) > 1e-9 {
		t.Errorf("longitude = %v, want -5.60302734375", data.Longitude)
	}
}

func TestGeohashInfoRejectsInvalidChar(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, env := doRequest(t, router, "/api/v1/geohash/9qa")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("error = %+v, want VALIDATION_ERROR", env.Error)
	}
	if pos, ok := env.Error.Details["position"]; !ok || pos != float64(2) {
		t.Errorf("details = %v, want position 2", env.Error.Details)
	}
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, env := doRequest(t, router, "/api/v1/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var data struct {
		Status    string `json:"status"`
		Events    int    `json:"events"`
		Chatrooms int    `json:"chatrooms"`
	}
	decodeData(t, env, &data)

	if data.Status != "ok" || data.Events != 3 || data.Chatrooms != 2 {
		t.Errorf("health = %+v, want ok with 3 events in 2 chatrooms", data)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("metrics body is empty")
	}
}

func TestWebSocketReceivesBroadcast(t *testing.T) {
	s := store.New()
	defer s.Close()
	s.Admit(&models.Event{ID: "a", Tags: [][]string{{"g", "u4"}}})

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.RunWithContext(ctx) }()

	handler := NewHandler(s, hub, nil)
	server := httptest.NewServer(NewRouter(handler, nil).Setup())
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws"
	conn, resp, err := gorillaws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v (resp %+v)", err, resp)
	}
	defer conn.Close()
	if resp != nil {
		defer resp.Body.Close()
	}

	// Wait for the hub to register the client before broadcasting.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered with hub")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.BroadcastStats(1, 1)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string `json:"type"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading broadcast: %v", err)
	}
	if msg.Type != ws.MessageTypeStats {
		t.Errorf("message type = %q, want %q", msg.Type, ws.MessageTypeStats)
	}
}
