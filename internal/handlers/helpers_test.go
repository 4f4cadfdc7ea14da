package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authMiddleware "github.com/coursehub/backend/internal/auth/middleware"
	"github.com/coursehub/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type routeRegistrar interface {
	RegisterRoutes(r chi.Router, mw Middlewares)
}

func passthrough(next http.Handler) http.Handler { return next }

// openMiddlewares lets every request through; identity comes from the request context
func openMiddlewares() Middlewares {
	return Middlewares{
		Auth:         passthrough,
		OptionalAuth: passthrough,
		Instructor:   passthrough,
		Admin:        passthrough,
		APIKey:       passthrough,
	}
}

func denyWith(status int) func(http.Handler) http.Handler {
	return func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
	}
}

func newTestRouter(h routeRegistrar, mw Middlewares) chi.Router {
	r := chi.NewRouter()
	h.RegisterRoutes(r, mw)
	return r
}

// request builds a request with an optional JSON body and an optional identity
func request(method, target, body string, v models.Viewer) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if v.Authenticated() {
		req = req.WithContext(authMiddleware.ContextWithIdentity(req.Context(), v.UserID, int(v.Role)))
	}
	return req
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

var (
	anonymous  = models.Viewer{}
	student    = models.Viewer{UserID: 7, Role: models.RoleStudent}
	instructor = models.Viewer{UserID: 5, Role: models.RoleInstructor}
	admin      = models.Viewer{UserID: 1, Role: models.RoleAdmin}
	testLogger = zap.NewNop()
)
