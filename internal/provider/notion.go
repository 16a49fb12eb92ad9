package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/retry"
)

// NotionNamespace is the template namespace of the Notion provider.
const NotionNamespace = "notion"

const (
	notionDefaultBaseURL = "https://api.notion.com"
	notionDefaultVersion = "2022-06-28"
	notionAPIKeyEnv      = "NOTION_API_KEY"
	notionTimeout        = 10 * time.Second
	maxResponseBytes     = 5 * 1024 * 1024
)

// Notion reads blocks from the Notion API.
type Notion struct {
	apiKey  string
	baseURL string
	version string
	client  *http.Client
	retry   retry.Policy
	ctx     context.Context // build scope; cancels requests and backoff
}

// NewNotionFromOptions builds a Notion provider. Recognised options are
// api_key (falls back to $NOTION_API_KEY), base_url, version, and the retry
// settings retries, retry_backoff, retry_initial and retry_max.
func NewNotionFromOptions(ctx context.Context, options map[string]string) (Provider, error) {
	key := options["api_key"]
	if key == "" {
		key = os.Getenv(notionAPIKeyEnv)
	}
	if key == "" {
		return nil, ferrors.ProviderError("missing Notion API key").
			WithContext("provider", NotionNamespace).
			WithContext("env", notionAPIKeyEnv).
			Build()
	}

	n := &Notion{
		apiKey:  key,
		baseURL: notionDefaultBaseURL,
		version: notionDefaultVersion,
		client:  NewHTTPClient(),
		ctx:     ctx,
	}
	policy, err := retryPolicy(options)
	if err != nil {
		return nil, err
	}
	n.retry = policy
	if v := options["base_url"]; v != "" {
		u, err := url.Parse(v)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return nil, ferrors.ProviderError("invalid Notion base URL").
				WithContext("provider", NotionNamespace).
				WithContext("base_url", v).
				Build()
		}
		n.baseURL = strings.TrimSuffix(v, "/")
	}
	if v := options["version"]; v != "" {
		n.version = v
	}
	return n, nil
}

func retryPolicy(options map[string]string) (retry.Policy, error) {
	retries := -1
	if v := options["retries"]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return retry.Policy{}, invalidOption("retries", v)
		}
		retries = n
	}
	var durations [2]time.Duration
	for i, key := range []string{"retry_initial", "retry_max"} {
		v := options[key]
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return retry.Policy{}, invalidOption(key, v)
		}
		durations[i] = d
	}
	mode := retry.Mode("")
	if v := options["retry_backoff"]; v != "" {
		if mode = retry.ParseMode(v); mode == "" {
			return retry.Policy{}, invalidOption("retry_backoff", v)
		}
	}
	return retry.NewPolicy(mode, durations[0], durations[1], retries), nil
}

func invalidOption(key, value string) error {
	return ferrors.ProviderError("invalid Notion option").
		WithContext("provider", NotionNamespace).
		WithContext("option", key).
		WithContext("value", value).
		Build()
}

// Namespace implements Provider.
func (n *Notion) Namespace() string { return NotionNamespace }

// Block returns the children of a block or page. Network errors, 429 and 5xx
// responses are retried according to the provider's retry policy.
func (n *Notion) Block(id string) (map[string]any, error) {
	var out map[string]any
	err := n.retry.Do(n.ctx, func(ctx context.Context) error {
		var err error
		out, err = n.fetchBlock(ctx, id)
		return err
	})
	if err != nil {
		return nil, n.fail("fetch block", id, err)
	}
	return out, nil
}

func (n *Notion) fetchBlock(ctx context.Context, id string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, notionTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/v1/blocks/%s/children", n.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Notion-Version", n.version)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := fmt.Errorf("HTTP %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, statusErr
		}
		return nil, retry.Permanent(statusErr)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxResponseBytes {
		return nil, retry.Permanent(errors.New("response too large"))
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, retry.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return out, nil
}

// TodoList extracts the plain text of the to_do blocks in a Block response.
// Checked items are left out unless includeChecked is true.
func (n *Notion) TodoList(response map[string]any, includeChecked ...bool) []string {
	withChecked := len(includeChecked) > 0 && includeChecked[0]
	results, _ := response["results"].([]any)

	out := []string{}
	for _, r := range results {
		block, ok := r.(map[string]any)
		if !ok || block["type"] != "to_do" {
			continue
		}
		todo, _ := block["to_do"].(map[string]any)
		if checked, _ := todo["checked"].(bool); checked && !withChecked {
			continue
		}
		texts, _ := todo["rich_text"].([]any)
		for _, t := range texts {
			if rt, ok := t.(map[string]any); ok {
				s, _ := rt["plain_text"].(string)
				out = append(out, s)
			}
		}
	}
	return out
}

// TodoListFromPage fetches a page and returns its to-do items.
func (n *Notion) TodoListFromPage(id string, includeChecked ...bool) ([]string, error) {
	resp, err := n.Block(id)
	if err != nil {
		return nil, err
	}
	return n.TodoList(resp, includeChecked...), nil
}

func (n *Notion) fail(op, id string, err error) error {
	return ferrors.ProviderError("notion: "+op+" failed").
		WithCause(err).
		WithContext("provider", NotionNamespace).
		WithContext("block", id).
		Build()
}

// NewHTTPClient creates an HTTP client with safe defaults.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: notionTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) == 0 {
				return nil
			}
			if req.URL.Host != via[0].URL.Host {
				return errors.New("redirect to different host blocked")
			}
			if len(via) >= 5 {
				return errors.New("too many redirects")
			}
			return nil
		},
	}
}
