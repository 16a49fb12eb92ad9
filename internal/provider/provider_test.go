package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	ferrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
)

type stubProvider struct{ ns string }

func (s stubProvider) Namespace() string { return s.ns }

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(stubProvider{ns: "b"}))
	require.NoError(t, reg.Register(stubProvider{ns: "a"}))

	assert.Error(t, reg.Register(stubProvider{ns: "a"}))
	assert.Error(t, reg.Register(stubProvider{}))
	assert.Error(t, reg.Register(nil))

	assert.Equal(t, []string{"a", "b"}, reg.Namespaces())
	p, ok := reg.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", p.Namespace())
	assert.Len(t, reg.Templates(), 2)
}

func TestLoad(t *testing.T) {
	factories := []Factory{{
		Name: "stub",
		New:  func(context.Context, map[string]string) (Provider, error) { return stubProvider{ns: "stub"}, nil },
	}}

	reg, err := Load(context.Background(), []config.ProviderConfig{
		{Name: "stub", Enabled: true},
		{Name: "ghost", Enabled: false},
	}, factories)
	require.NoError(t, err)
	assert.Equal(t, []string{"stub"}, reg.Namespaces())

	_, err = Load(context.Background(), []config.ProviderConfig{{Name: "ghost", Enabled: true}}, factories)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryProvider))
}

func TestNotionRequiresAPIKey(t *testing.T) {
	t.Setenv(notionAPIKeyEnv, "")
	_, err := NewNotionFromOptions(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryProvider))

	t.Setenv(notionAPIKeyEnv, "from-env")
	p, err := NewNotionFromOptions(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env", p.(*Notion).apiKey)
}

const todoPage = `{"results":[
 {"type":"to_do","to_do":{"checked":false,"rich_text":[{"plain_text":"write docs"}]}},
 {"type":"to_do","to_do":{"checked":true,"rich_text":[{"plain_text":"ship"}]}},
 {"type":"paragraph","paragraph":{"rich_text":[{"plain_text":"ignored"}]}}
]}`

func TestNotionTodoListFromPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/blocks/page-1/children", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, notionDefaultVersion, r.Header.Get("Notion-Version"))
		_, _ = w.Write([]byte(todoPage))
	}))
	defer srv.Close()

	p, err := NewNotionFromOptions(context.Background(), map[string]string{"api_key": "secret", "base_url": srv.URL})
	require.NoError(t, err)
	n := p.(*Notion)

	open, err := n.TodoListFromPage("page-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"write docs"}, open)

	all, err := n.TodoListFromPage("page-1", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"write docs", "ship"}, all)
}

func TestNotionHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	p, err := NewNotionFromOptions(context.Background(), map[string]string{"api_key": "k", "base_url": srv.URL})
	require.NoError(t, err)

	_, err = p.(*Notion).Block("x")
	require.Error(t, err)
	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, ferrors.CategoryProvider, ce.Category())
	assert.Equal(t, "x", ce.Context()["block"])
}

func TestNotionRejectsBadBaseURL(t *testing.T) {
	_, err := NewNotionFromOptions(context.Background(), map[string]string{"api_key": "k", "base_url": "ftp://x"})
	assert.Error(t, err)
}

func TestNotionRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(todoPage))
	}))
	defer srv.Close()

	p, err := NewNotionFromOptions(context.Background(), map[string]string{
		"api_key":       "k",
		"base_url":      srv.URL,
		"retries":       "3",
		"retry_backoff": "fixed",
		"retry_initial": "1ms",
	})
	require.NoError(t, err)

	items, err := p.(*Notion).TodoListFromPage("page")
	require.NoError(t, err)
	assert.Equal(t, []string{"write docs"}, items)
	assert.Equal(t, 2, calls)
}

func TestNotionDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer srv.Close()

	p, err := NewNotionFromOptions(context.Background(), map[string]string{"api_key": "k", "base_url": srv.URL, "retry_initial": "1ms"})
	require.NoError(t, err)

	_, err = p.(*Notion).Block("x")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestNotionStopsRetryingWhenBuildIsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		cancel()
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, err := NewNotionFromOptions(ctx, map[string]string{
		"api_key":       "k",
		"base_url":      srv.URL,
		"retries":       "5",
		"retry_backoff": "fixed",
		"retry_initial": "1h",
		"retry_max":     "1h",
	})
	require.NoError(t, err)

	start := time.Now()
	_, err = p.(*Notion).Block("x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNotionRejectsBadRetryOptions(t *testing.T) {
	for key, value := range map[string]string{
		"retries":       "-1",
		"retry_backoff": "sometimes",
		"retry_initial": "soon",
		"retry_max":     "0s",
	} {
		_, err := NewNotionFromOptions(context.Background(), map[string]string{"api_key": "k", key: value})
		require.Error(t, err, key)
		assert.True(t, ferrors.HasCategory(err, ferrors.CategoryProvider), key)
	}
}
