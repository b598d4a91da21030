package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	server "battle-arena/server"
	"battle-arena/server/internal/account"
	"battle-arena/server/internal/content"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()
	gin.SetMode(gin.TestMode)
	accounts := account.NewService(true)
	hub := server.NewHub(server.DefaultConfig(), content.DefaultStore(), accounts, nil)
	return New(hub, accounts)
}

func do(t *testing.T, api *API, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthProbe(t *testing.T) {
	api := newTestAPI(t)
	rec := do(t, api, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health returned %d", rec.Code)
	}
}

func TestRegisterAccountOnceOnly(t *testing.T) {
	api := newTestAPI(t)
	body := `{"username":"alice","password":"pw"}`
	if rec := do(t, api, http.MethodPost, "/accounts", body); rec.Code != http.StatusCreated {
		t.Fatalf("first registration returned %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, api, http.MethodPost, "/accounts", body); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate registration returned %d", rec.Code)
	}
	if rec := do(t, api, http.MethodPost, "/accounts", `{"username":"x"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing password returned %d", rec.Code)
	}
}

func TestStartMatchEndpoint(t *testing.T) {
	api := newTestAPI(t)
	body := `{
		"matchId": "m1",
		"mapId": "arena",
		"seats": [
			{"slot": 0, "userId": "alice", "championId": "blade-master"},
			{"slot": 1, "userId": "bob", "championId": "storm-caller"}
		]
	}`
	if rec := do(t, api, http.MethodPost, "/matches", body); rec.Code != http.StatusCreated {
		t.Fatalf("seeding returned %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, api, http.MethodPost, "/matches", body); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate match returned %d", rec.Code)
	}
	if rec := do(t, api, http.MethodPost, "/matches", `{"mapId":"arena"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid assignment returned %d", rec.Code)
	}

	diag := do(t, api, http.MethodGet, "/diagnostics", "")
	if diag.Code != http.StatusOK || !strings.Contains(diag.Body.String(), `"matches":1`) {
		t.Fatalf("diagnostics returned %d: %s", diag.Code, diag.Body.String())
	}
}
