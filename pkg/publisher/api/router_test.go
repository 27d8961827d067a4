package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prokash-cms/prokash/pkg/publisher"
	"github.com/prokash-cms/prokash/pkg/publisher/api"
	"github.com/prokash-cms/prokash/pkg/publisher/auth"
	"github.com/prokash-cms/prokash/pkg/publisher/media"
	repomemory "github.com/prokash-cms/prokash/pkg/publisher/repo/memory"
	storagememory "github.com/prokash-cms/prokash/pkg/publisher/storage/memory"
	"github.com/prokash-cms/prokash/pkg/publisher/urls"
)

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Meta    *api.Meta         `json:"meta"`
	Errors  map[string]string `json:"errors"`
}

type testServer struct {
	router http.Handler
	repo   *repomemory.Repository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	repo := repomemory.New()
	svc, err := publisher.New(publisher.WithRepository(repo))
	require.NoError(t, err)

	authn := auth.New([]byte("test-secret"), repo, svc, time.Hour)
	pipeline := media.NewPipeline(storagememory.New(), urls.NewBuilder("bucket", "s3.example.com"), 0)

	return &testServer{
		router: api.NewRouter(svc, authn, pipeline),
		repo:   repo,
	}
}

// do sends a JSON request and decodes the envelope.
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body: %s", rec.Body.String())
	return rec.Code, env
}

// login registers nothing; the account must already exist.
func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()

	code, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, code)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

// seedModerator creates a moderator account directly in the store.
func (s *testServer) seedModerator(t *testing.T, email, password string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, s.repo.CreateUser(t.Context(), &publisher.User{
		ID:           uuid.New(),
		Name:         "Moderator",
		Email:        email,
		PasswordHash: string(hash),
		Role:         publisher.RoleModerator,
		CreatedAt:    time.Now().UTC(),
	}))
}

func (s *testServer) seedCategory(t *testing.T) uuid.UUID {
	t.Helper()
	id := uuid.New()
	s.repo.SeedCategory(&publisher.Category{ID: id, NameEn: "Science", Slug: "science"})
	return id
}

func TestArticleLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	category := s.seedCategory(t)
	s.seedModerator(t, "mod@example.com", "moderator pass")

	_, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Author", "email": "author@example.com", "password": "author pass",
	})
	require.True(t, env.Success)

	authorToken := s.login(t, "author@example.com", "author pass")
	modToken := s.login(t, "mod@example.com", "moderator pass")

	var articleID, slug string

	t.Run("author creates a draft", func(t *testing.T) {
		code, env := s.do(t, http.MethodPost, "/api/v1/my/articles", authorToken, map[string]interface{}{
			"category_id": category,
			"translation": map[string]string{
				"locale":  "bn",
				"title":   "মহাকর্ষ তরঙ্গ",
				"content": "<p>LIGO সনাক্তকরণের গল্প।</p>",
			},
			"tags": []string{"#বিজ্ঞান"},
		})
		require.Equal(t, http.StatusCreated, code, "message: %s", env.Message)
		require.True(t, env.Success)

		var article struct {
			ID     string `json:"id"`
			Slug   string `json:"slug"`
			Status string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &article))
		assert.Equal(t, "draft", article.Status)
		articleID, slug = article.ID, article.Slug
	})

	t.Run("draft is invisible to the public", func(t *testing.T) {
		code, _ := s.do(t, http.MethodGet, "/api/v1/articles/"+slug, "", nil)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("author submits for review", func(t *testing.T) {
		code, env := s.do(t, http.MethodPost, "/api/v1/my/articles/"+articleID+"/submit", authorToken, nil)
		require.Equal(t, http.StatusOK, code, "message: %s", env.Message)
	})

	t.Run("the queue shows the submission to moderators only", func(t *testing.T) {
		code, _ := s.do(t, http.MethodGet, "/api/v1/moderation/queue", authorToken, nil)
		assert.Equal(t, http.StatusForbidden, code)

		code, env := s.do(t, http.MethodGet, "/api/v1/moderation/queue", modToken, nil)
		require.Equal(t, http.StatusOK, code)
		require.NotNil(t, env.Meta)
		assert.Equal(t, 1, env.Meta.Total)
		assert.Equal(t, 20, env.Meta.PerPage)
	})

	t.Run("rejecting without a reason fails", func(t *testing.T) {
		code, env := s.do(t, http.MethodPost, "/api/v1/moderation/"+articleID+"/reject", modToken, map[string]string{})
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.False(t, env.Success)
	})

	t.Run("approve and publish in one step", func(t *testing.T) {
		code, env := s.do(t, http.MethodPost, "/api/v1/moderation/"+articleID+"/approve", modToken, map[string]interface{}{
			"comment":             "ভাল লেখা",
			"publish_immediately": true,
		})
		require.Equal(t, http.StatusOK, code, "message: %s", env.Message)

		var article struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &article))
		assert.Equal(t, "published", article.Status)
	})

	t.Run("published article is public", func(t *testing.T) {
		code, env := s.do(t, http.MethodGet, "/api/v1/articles/"+slug, "", nil)
		require.Equal(t, http.StatusOK, code)
		require.True(t, env.Success)

		code, env = s.do(t, http.MethodGet, "/api/v1/articles", "", nil)
		require.Equal(t, http.StatusOK, code)
		require.NotNil(t, env.Meta)
		assert.Equal(t, 1, env.Meta.Total)
		assert.Equal(t, 12, env.Meta.PerPage)
	})

	t.Run("a second approve conflicts", func(t *testing.T) {
		code, _ := s.do(t, http.MethodPost, "/api/v1/moderation/"+articleID+"/approve", modToken, nil)
		assert.Equal(t, http.StatusConflict, code)
	})

	t.Run("the audit log is visible to moderators", func(t *testing.T) {
		code, env := s.do(t, http.MethodGet, "/api/v1/moderation/"+articleID+"/log", modToken, nil)
		require.Equal(t, http.StatusOK, code)

		var entries []struct {
			Action string `json:"action"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "published", entries[0].Action)
	})
}

func TestCreateArticleValidationOverHTTP(t *testing.T) {
	s := newTestServer(t)
	category := s.seedCategory(t)

	_, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Author", "email": "author@example.com", "password": "author pass",
	})
	require.True(t, env.Success)
	token := s.login(t, "author@example.com", "author pass")

	translation := map[string]string{"locale": "en", "title": "T", "content": "C"}

	t.Run("both wire formats at once is rejected", func(t *testing.T) {
		code, env := s.do(t, http.MethodPost, "/api/v1/my/articles", token, map[string]interface{}{
			"category_id":  category,
			"translation":  translation,
			"translations": []interface{}{translation},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		assert.False(t, env.Success)
		assert.Contains(t, env.Errors, "translations")
	})

	t.Run("neither wire format is rejected", func(t *testing.T) {
		code, _ := s.do(t, http.MethodPost, "/api/v1/my/articles", token, map[string]interface{}{
			"category_id": category,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, code)
	})

	t.Run("unauthenticated authoring is refused", func(t *testing.T) {
		code, env := s.do(t, http.MethodPost, "/api/v1/my/articles", "", map[string]interface{}{
			"category_id": category,
			"translation": translation,
		})
		assert.Equal(t, http.StatusForbidden, code)
		assert.False(t, env.Success)
	})

	t.Run("unknown article id is not found", func(t *testing.T) {
		code, _ := s.do(t, http.MethodGet, "/api/v1/my/articles/"+uuid.NewString(), token, nil)
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestMediaDownloadURLOverHTTP(t *testing.T) {
	s := newTestServer(t)

	_, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Reader", "email": "reader@example.com", "password": "reader pass",
	})
	require.True(t, env.Success)
	token := s.login(t, "reader@example.com", "reader pass")

	t.Run("resolves a stored path to a fetchable link", func(t *testing.T) {
		code, env := s.do(t, http.MethodGet, "/api/v1/media/download-url?path=articles/files/doc.pdf", token, nil)
		require.Equal(t, http.StatusOK, code)

		var data struct {
			URL string `json:"url"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, "https://bucket.s3.example.com/articles/files/doc.pdf", data.URL)
	})

	t.Run("a missing path is a validation error", func(t *testing.T) {
		code, _ := s.do(t, http.MethodGet, "/api/v1/media/download-url", token, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, code)
	})
}
