package cettpro

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	syncdomain "github.com/edusync/backend/internal/domain/sync"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL:        server.URL,
		Username:       "edusync",
		Password:       "secret",
		TimeoutSeconds: 5,
	}, zap.NewNop())
	require.NoError(t, err)
	return client, server
}

func writeToken(w http.ResponseWriter, token string, expiresIn int) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"access_token": token,
		"expires_in":   expiresIn,
		"token_type":   "Bearer",
	})
}

func TestClient_Authenticate(t *testing.T) {
	t.Run("caches token across calls", func(t *testing.T) {
		var exchanges int32
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, authPath, r.URL.Path)
			require.Equal(t, http.MethodPost, r.Method)

			var creds credentialsRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			require.Equal(t, "edusync", creds.Username)

			atomic.AddInt32(&exchanges, 1)
			writeToken(w, "tok-1", 3600)
		}))

		first, err := client.Authenticate(context.Background())
		require.NoError(t, err)
		second, err := client.Authenticate(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "tok-1", first)
		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), atomic.LoadInt32(&exchanges))
	})

	t.Run("concurrent callers trigger exactly one exchange", func(t *testing.T) {
		var exchanges int32
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&exchanges, 1)
			time.Sleep(20 * time.Millisecond) // widen the race window
			writeToken(w, "tok-shared", 3600)
		}))

		const callers = 8
		tokens := make([]string, callers)
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				tok, err := client.Authenticate(context.Background())
				assert.NoError(t, err)
				tokens[i] = tok
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), atomic.LoadInt32(&exchanges))
		for _, tok := range tokens {
			assert.Equal(t, "tok-shared", tok)
		}
	})

	t.Run("refreshes when lifetime is inside the expiry buffer", func(t *testing.T) {
		var exchanges int32
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&exchanges, 1)
			// 200s lifetime is below the 300s buffer, so the token is
			// already considered expired on the next call
			writeToken(w, "tok-short", 200)
		}))

		_, err := client.Authenticate(context.Background())
		require.NoError(t, err)
		_, err = client.Authenticate(context.Background())
		require.NoError(t, err)

		assert.Equal(t, int32(2), atomic.LoadInt32(&exchanges))
	})

	t.Run("bad credentials map to authentication error", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))

		_, err := client.Authenticate(context.Background())

		assert.ErrorIs(t, err, syncdomain.ErrAuthentication)
	})

	t.Run("string expires_in is tolerated", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"tok-str","expires_in":"7200","token_type":"Bearer"}`))
		}))

		tok, err := client.Authenticate(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "tok-str", tok)
	})
}

func TestClient_StatusMapping(t *testing.T) {
	fetchWith := func(t *testing.T, status int, header http.Header, body string) error {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == authPath {
				writeToken(w, "tok", 3600)
				return
			}
			for k, vs := range header {
				for _, v := range vs {
					w.Header().Add(k, v)
				}
			}
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}))
		_, err := client.FetchCourses(context.Background())
		return err
	}

	t.Run("403 maps to access denied", func(t *testing.T) {
		err := fetchWith(t, http.StatusForbidden, nil, "")
		assert.ErrorIs(t, err, syncdomain.ErrAccessDenied)
	})

	t.Run("400 carries response body", func(t *testing.T) {
		err := fetchWith(t, http.StatusBadRequest, nil, `{"detail":"bad filter"}`)
		assert.ErrorIs(t, err, syncdomain.ErrInvalidRequest)
		assert.Contains(t, err.Error(), "bad filter")
	})

	t.Run("5xx maps to upstream error", func(t *testing.T) {
		err := fetchWith(t, http.StatusBadGateway, nil, "")
		assert.ErrorIs(t, err, syncdomain.ErrUpstream)
	})

	t.Run("429 carries parsed retry-after", func(t *testing.T) {
		err := fetchWith(t, http.StatusTooManyRequests, http.Header{"Retry-After": []string{"120"}}, "")

		var rle *syncdomain.RateLimitError
		require.ErrorAs(t, err, &rle)
		assert.Equal(t, 120*time.Second, rle.RetryAfter)
	})

	t.Run("429 without header falls back to default", func(t *testing.T) {
		err := fetchWith(t, http.StatusTooManyRequests, nil, "")

		var rle *syncdomain.RateLimitError
		require.ErrorAs(t, err, &rle)
		assert.Equal(t, defaultRetryAfter, rle.RetryAfter)
	})

	t.Run("undecodable 200 body maps to decode error", func(t *testing.T) {
		err := fetchWith(t, http.StatusOK, nil, `{"not":"a list"`)
		assert.ErrorIs(t, err, syncdomain.ErrDecode)
	})

	t.Run("404 on a collection yields empty set", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == authPath {
				writeToken(w, "tok", 3600)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		}))

		courses, err := client.FetchCourses(context.Background())

		assert.NoError(t, err)
		assert.Empty(t, courses)
	})

	t.Run("204 yields empty set", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == authPath {
				writeToken(w, "tok", 3600)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		}))

		students, err := client.FetchStudents(context.Background())

		assert.NoError(t, err)
		assert.Empty(t, students)
	})
}

func TestClient_TokenInvalidation(t *testing.T) {
	t.Run("401 on a data call is retried once with a fresh token", func(t *testing.T) {
		var exchanges int32
		var dataCalls int32
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == authPath {
				n := atomic.AddInt32(&exchanges, 1)
				writeToken(w, "tok-"+string(rune('0'+n)), 3600)
				return
			}
			if atomic.AddInt32(&dataCalls, 1) == 1 {
				require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			require.Equal(t, "Bearer tok-2", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[]`))
		}))

		// The stale token is dropped and the call replayed transparently
		_, err := client.FetchClasses(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&exchanges))
		assert.Equal(t, int32(2), atomic.LoadInt32(&dataCalls))
	})

	t.Run("persistent 401 surfaces after a single replay", func(t *testing.T) {
		var dataCalls int32
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == authPath {
				writeToken(w, "tok", 3600)
				return
			}
			atomic.AddInt32(&dataCalls, 1)
			w.WriteHeader(http.StatusUnauthorized)
		}))

		_, err := client.FetchClasses(context.Background())

		assert.ErrorIs(t, err, syncdomain.ErrAuthentication)
		assert.Equal(t, int32(2), atomic.LoadInt32(&dataCalls))
	})
}

func TestClient_Fetch(t *testing.T) {
	t.Run("decodes and maps courses", func(t *testing.T) {
		id := uuid.New()
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == authPath {
				writeToken(w, "tok", 3600)
				return
			}
			require.Equal(t, coursesPath, r.URL.Path)
			require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[
				{"idPartner":"` + id.String() + `","code":"WLD-01","name":"Welding","durationHours":40,"modality":"in_person"},
				{"idPartner":"` + uuid.NewString() + `","code":"ELE-02","name":"Electrics","durationHours":"60h","modality":"hybrid"}
			]`))
		}))

		courses, err := client.FetchCourses(context.Background())

		require.NoError(t, err)
		require.Len(t, courses, 2)
		assert.Equal(t, id, courses[0].IDPartner)
		assert.Equal(t, "40", courses[0].DurationHours)
		assert.Equal(t, "60h", courses[1].DurationHours)
	})

	t.Run("empty idPartner does not fail the collection", func(t *testing.T) {
		valid := uuid.New()
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == authPath {
				writeToken(w, "tok", 3600)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[
				{"idPartner":"","code":"WLD-01","name":"Welding","durationHours":40,"modality":"in_person"},
				{"idPartner":"` + valid.String() + `","code":"ELE-02","name":"Electrics","durationHours":60,"modality":"hybrid"}
			]`))
		}))

		courses, err := client.FetchCourses(context.Background())

		// The blank key decodes to uuid.Nil so the record can fail alone
		// downstream instead of sinking the whole fetch
		require.NoError(t, err)
		require.Len(t, courses, 2)
		assert.Equal(t, uuid.Nil, courses[0].IDPartner)
		assert.Equal(t, valid, courses[1].IDPartner)
	})

	t.Run("range fetch passes the window as query parameters", func(t *testing.T) {
		from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == authPath {
				writeToken(w, "tok", 3600)
				return
			}
			assert.Equal(t, from.Format(time.RFC3339), r.URL.Query().Get("updatedFrom"))
			assert.Equal(t, to.Format(time.RFC3339), r.URL.Query().Get("updatedTo"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[]`))
		}))

		_, err := client.FetchEnrollmentsByDateRange(context.Background(), from, to)

		assert.NoError(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("rejects missing settings", func(t *testing.T) {
		cfg := Config{}
		assert.Error(t, cfg.Validate())

		cfg = Config{BaseURL: "https://api.cettpro.example"}
		assert.Error(t, cfg.Validate())
	})

	t.Run("defaults the timeout", func(t *testing.T) {
		cfg := Config{BaseURL: "https://api.cettpro.example", Username: "u", Password: "p"}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, 30, cfg.TimeoutSeconds)
	})
}
