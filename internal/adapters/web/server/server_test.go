package server_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/lcalzada-xor/wraith/internal/adapters/web"
	"github.com/lcalzada-xor/wraith/internal/adapters/web/server"
	"github.com/lcalzada-xor/wraith/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testBSSID = domain.MustParseMAC("aa:bb:cc:dd:ee:ff")

// setupServer helper creates a server instance with mocks
func setupServer(t *testing.T, tokenHash string) (http.Handler, *server.Server, *web.MockController, *web.MockCaptureStore) {
	t.Helper()
	ctrl := new(web.MockController)
	store := new(web.MockCaptureStore)
	srv := server.NewServer(":0", tokenHash, ctrl, store)
	t.Cleanup(func() {
		ctrl.AssertExpectations(t)
		store.AssertExpectations(t)
	})
	return server.SetupRoutes(srv), srv, ctrl, store
}

func do(h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestServer_HandleStart(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		payload    any
		mockSetup  func(c *web.MockController)
		wantStatus int
	}{
		{
			name:    "deauth",
			path:    "/api/attacks/deauth",
			payload: map[string]any{"bssid": "aa:bb:cc:dd:ee:ff", "channel": 6},
			mockSetup: func(c *web.MockController) {
				c.On("Start", mock.Anything, mock.MatchedBy(func(r domain.AttackRequest) bool {
					return r.Type == domain.AttackDeauth && r.BSSID != nil && *r.BSSID == testBSSID && r.Channel == 6
				})).Return(domain.AttackSession{ID: "job-1", Type: domain.AttackDeauth, Status: domain.AttackRunning}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "ble spam without body",
			path: "/api/attacks/ble_spam",
			mockSetup: func(c *web.MockController) {
				c.On("Start", mock.Anything, domain.AttackRequest{Type: domain.AttackBLESpam}).
					Return(domain.AttackSession{ID: "job-2", Type: domain.AttackBLESpam}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing bssid",
			path:       "/api/attacks/handshake_capture",
			payload:    map[string]any{"channel": 6},
			mockSetup:  func(c *web.MockController) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad channel",
			path:       "/api/attacks/deauth",
			payload:    map[string]any{"bssid": "aa:bb:cc:dd:ee:ff", "channel": 40},
			mockSetup:  func(c *web.MockController) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown type",
			path:       "/api/attacks/nuclear_strike",
			payload:    map[string]any{},
			mockSetup:  func(c *web.MockController) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:    "radio unavailable",
			path:    "/api/attacks/beacon_spam",
			payload: map[string]any{"ssids": []string{"FreeWiFi"}},
			mockSetup: func(c *web.MockController) {
				c.On("Start", mock.Anything, mock.Anything).
					Return(domain.AttackSession{}, &domain.RadioError{Op: "install", Err: errors.New("no wifi driver")})
			},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, ctrl, _ := setupServer(t, "")
			tt.mockSetup(ctrl)

			rr := do(h, http.MethodPost, tt.path, tt.payload)
			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestServer_HandleStart_ReturnsSession(t *testing.T) {
	h, _, ctrl, _ := setupServer(t, "")
	ctrl.On("Start", mock.Anything, mock.Anything).
		Return(domain.AttackSession{ID: "job-123", Type: domain.AttackProbeFlood, Status: domain.AttackRunning}, nil)

	rr := do(h, http.MethodPost, "/api/attacks/probe_flood", map[string]any{"ssids": []string{"a"}, "channels": []int{1, 6}})
	require.Equal(t, http.StatusOK, rr.Code)

	var got domain.AttackSession
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, "job-123", got.ID)
	assert.Equal(t, domain.AttackRunning, got.Status)
}

func TestServer_HandleStop(t *testing.T) {
	h, _, ctrl, _ := setupServer(t, "")
	ctrl.On("Stop", mock.Anything).Return(domain.AttackSession{ID: "job-1", Status: domain.AttackStopped, PacketsSent: 42}, nil).Once()
	ctrl.On("Stop", mock.Anything).Return(domain.AttackSession{}, domain.ErrNotRunning).Once()

	rr := do(h, http.MethodDelete, "/api/attacks", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"packets_sent":42`)

	rr = do(h, http.MethodDelete, "/api/attacks", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestServer_HandleStart_RouteNames(t *testing.T) {
	target := map[string]any{"bssid": "aa:bb:cc:dd:ee:ff", "channel": 6}
	ssids := map[string]any{"ssids": []string{"FreeWiFi"}, "channels": []int{1, 6}}
	tests := []struct {
		path    string
		payload any
		want    domain.AttackType
	}{
		{"/api/attacks/deauth", target, domain.AttackDeauth},
		{"/api/attacks/beacon", ssids, domain.AttackBeaconSpam},
		{"/api/attacks/probe", ssids, domain.AttackProbeFlood},
		{"/api/attacks/handshake", target, domain.AttackHandshakeCapture},
		{"/api/attacks/ble", map[string]any{"vendor": "apple"}, domain.AttackBLESpam},
		{"/api/attacks/ble", nil, domain.AttackBLESpam},
		{"/api/attacks/ble_spam_all", nil, domain.AttackBLESpamAll},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			h, _, ctrl, _ := setupServer(t, "")
			ctrl.On("Start", mock.Anything, mock.MatchedBy(func(r domain.AttackRequest) bool {
				return r.Type == tt.want
			})).Return(domain.AttackSession{ID: "job-1", Type: tt.want, Status: domain.AttackRunning}, nil).Once()

			rr := do(h, http.MethodPost, tt.path, tt.payload)
			assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		})
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	h, _, _, _ := setupServer(t, "")

	rr := do(h, http.MethodGet, "/api/attacks/deauth", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodPost, rr.Header().Get("Allow"))

	rr = do(h, http.MethodDelete, "/api/attacks/beacon", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = do(h, http.MethodPost, "/api/attacks", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, http.MethodDelete, rr.Header().Get("Allow"))
}

func TestServer_HandleHandshake(t *testing.T) {
	h, _, ctrl, _ := setupServer(t, "")
	hs := domain.HandshakeState{BSSID: testBSSID, Channel: 6, Messages: domain.SetOf(domain.Msg1, domain.Msg2)}
	ctrl.On("Status", mock.Anything).Return(domain.EngineStatus{Running: true, Attack: domain.AttackHandshakeCapture, Handshake: &hs}, nil).Once()
	ctrl.On("Status", mock.Anything).Return(domain.EngineStatus{Attack: domain.AttackNone}, nil).Once()

	rr := do(h, http.MethodGet, "/api/handshake", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var got struct {
		BSSID    domain.MACAddress     `json:"bssid"`
		Stage    domain.HandshakeStage `json:"stage"`
		Complete bool                  `json:"complete"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, testBSSID, got.BSSID)
	assert.Equal(t, domain.StageGot12, got.Stage)
	assert.False(t, got.Complete)

	rr = do(h, http.MethodGet, "/api/handshake", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServer_Lists(t *testing.T) {
	h, _, _, store := setupServer(t, "")
	store.On("ListHandshakes", mock.Anything).Return(nil, nil)
	store.On("ListSessions", mock.Anything, 5).Return([]domain.AttackSession{{ID: "s1"}}, nil)
	store.On("ListSessions", mock.Anything, 50).Return(nil, errors.New("db closed"))

	rr := do(h, http.MethodGet, "/api/captures", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = do(h, http.MethodGet, "/api/sessions?limit=5", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"id":"s1"`)

	rr = do(h, http.MethodGet, "/api/sessions", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	rr = do(h, http.MethodGet, "/api/sessions?limit=x", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServer_Auth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("token"), bcrypt.MinCost)
	require.NoError(t, err)
	h, _, ctrl, _ := setupServer(t, string(hash))
	ctrl.On("Status", mock.Anything).Return(domain.EngineStatus{Attack: domain.AttackNone}, nil)

	rr := do(h, http.MethodGet, "/api/status", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer token")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(h, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestServer_WebSocketStreamsStatus(t *testing.T) {
	h, srv, ctrl, _ := setupServer(t, "")
	ctrl.On("Status", mock.Anything).Return(domain.EngineStatus{Running: true, Attack: domain.AttackDeauth, PacketsSent: 7}, nil)

	srv.WSManager.Interval = 10 * time.Millisecond
	ctx := t.Context()
	srv.WSManager.Start(ctx)

	ts := httptest.NewServer(h)
	defer ts.Close()

	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Type    string              `json:"type"`
		Payload domain.EngineStatus `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "status", msg.Type)
	assert.Equal(t, uint64(7), msg.Payload.PacketsSent)
}
