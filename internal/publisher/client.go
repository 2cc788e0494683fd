// Package publisher pushes finished chapters to a WordPress site running the
// crawler/v1 REST plugin.
package publisher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oukeidos/novtl/internal/apperrors"
	"github.com/oukeidos/novtl/internal/httpclient"
	"github.com/oukeidos/novtl/internal/logger"
	"github.com/tidwall/gjson"
)

const apiPrefix = "/wp-json/crawler/v1"

// Timeouts per call kind.
const (
	healthTimeout = 10 * time.Second
	lookupTimeout = 15 * time.Second
	createTimeout = 30 * time.Second
	bulkTimeout   = 60 * time.Second
)

// Client talks to one WordPress site.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New returns a client for baseURL authenticated with apiKey.
func New(baseURL, apiKey string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid WordPress URL %q", baseURL)
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("WordPress API key is required")
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, http: httpclient.GetDefaultClient()}, nil
}

// Story is the metadata sent when creating a story.
type Story struct {
	Title         string `json:"title"`
	Author        string `json:"author,omitempty"`
	Description   string `json:"description,omitempty"`
	SourceID      string `json:"source_id,omitempty"`
	SourceTitle   string `json:"source_title,omitempty"`
	TotalChapters int    `json:"total_chapters,omitempty"`
	CheckOnly     bool   `json:"check_only,omitempty"`
}

// Chapter is one translated chapter to publish.
type Chapter struct {
	StoryID           int64  `json:"story_id"`
	ChapterNumber     int    `json:"chapter_number"`
	Title             string `json:"title"`
	Content           string `json:"content"`
	TranslationMethod string `json:"translation_method,omitempty"`
}

// Ref identifies a created (or already existing) post.
type Ref struct {
	ID      int64
	Existed bool
}

// ChapterStatus summarizes what the site already has for a story. Known is
// false when the lookup failed and the caller should not trust the list.
type ChapterStatus struct {
	Known            bool
	ChaptersCount    int
	IsComplete       bool
	ExistingChapters []int
}

// Has reports whether chapter number n is already published.
func (s ChapterStatus) Has(n int) bool {
	for _, c := range s.ExistingChapters {
		if c == n {
			return true
		}
	}
	return false
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + apiPrefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, timeout time.Duration, method, path string, query url.Values, body any, auth bool) ([]byte, *http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := httpclient.NewJSONRequest(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return nil, nil, err
	}
	if auth {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	return httpclient.DoAndRead(c.http, req)
}

// Health checks the plugin endpoint and returns its JSON payload.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	body, resp, err := c.do(ctx, healthTimeout, http.MethodGet, "/health", nil, nil, false)
	if err != nil {
		return nil, apperrors.New(apperrors.KindTransient, "WordPress health check failed.", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("health check", resp.StatusCode)
	}
	out, ok := gjson.ParseBytes(body).Value().(map[string]any)
	if !ok {
		return nil, apperrors.New(apperrors.KindValidation, "WordPress health response was not a JSON object.", nil)
	}
	return out, nil
}

// CreateStory creates the story or returns the existing one.
func (c *Client) CreateStory(ctx context.Context, story Story) (Ref, error) {
	body, resp, err := c.do(ctx, createTimeout, http.MethodPost, "/story", nil, story, true)
	if err != nil {
		return Ref{}, apperrors.New(apperrors.KindTransient, "WordPress story request failed.", err)
	}
	if !httpclient.IsSuccess(resp) {
		return Ref{}, statusError("create story", resp.StatusCode)
	}
	res := gjson.ParseBytes(body)
	ref := Ref{ID: res.Get("story_id").Int(), Existed: res.Get("existed").Bool()}
	if ref.ID == 0 && !story.CheckOnly {
		return Ref{}, apperrors.New(apperrors.KindValidation, "WordPress did not return a story id.", nil)
	}
	return ref, nil
}

// ChapterStatus fetches the published chapter numbers of a story in one call.
// Failures degrade to an unknown status.
func (c *Client) ChapterStatus(ctx context.Context, storyID int64, totalChapters int) ChapterStatus {
	q := url.Values{"total_chapters": {strconv.Itoa(totalChapters)}}
	body, resp, err := c.do(ctx, lookupTimeout, http.MethodGet, fmt.Sprintf("/story/%d/chapters", storyID), q, nil, true)
	if err != nil || resp.StatusCode != http.StatusOK {
		logger.Warn("Chapter status lookup failed, falling back to per-chapter checks", "story", storyID)
		return ChapterStatus{}
	}
	res := gjson.ParseBytes(body)
	st := ChapterStatus{
		Known:         true,
		ChaptersCount: int(res.Get("chapters_count").Int()),
		IsComplete:    res.Get("is_complete").Bool(),
	}
	for _, n := range res.Get("existing_chapters").Array() {
		st.ExistingChapters = append(st.ExistingChapters, int(n.Int()))
	}
	return st
}

// ChapterExists checks a single chapter. Failures report false, so the
// chapter is translated again rather than skipped.
func (c *Client) ChapterExists(ctx context.Context, storyID int64, chapterNumber int) (bool, int64) {
	q := url.Values{
		"story_id":       {strconv.FormatInt(storyID, 10)},
		"chapter_number": {strconv.Itoa(chapterNumber)},
	}
	body, resp, err := c.do(ctx, healthTimeout, http.MethodGet, "/chapter/exists", q, nil, true)
	if err != nil || resp.StatusCode != http.StatusOK {
		return false, 0
	}
	res := gjson.ParseBytes(body)
	return res.Get("exists").Bool(), res.Get("chapter_id").Int()
}

// CreateChapter publishes one chapter.
func (c *Client) CreateChapter(ctx context.Context, ch Chapter) (Ref, error) {
	body, resp, err := c.do(ctx, createTimeout, http.MethodPost, "/chapter", nil, ch, true)
	if err != nil {
		return Ref{}, apperrors.New(apperrors.KindTransient, "WordPress chapter request failed.", err)
	}
	if !httpclient.IsSuccess(resp) {
		return Ref{}, statusError(fmt.Sprintf("create chapter %d", ch.ChapterNumber), resp.StatusCode)
	}
	res := gjson.ParseBytes(body)
	return Ref{ID: res.Get("chapter_id").Int(), Existed: res.Get("existed").Bool()}, nil
}

// CreateChaptersBulk publishes chapters in one call. chapters must be in
// reading order; results come back in the same order.
func (c *Client) CreateChaptersBulk(ctx context.Context, chapters []Chapter) ([]Ref, error) {
	if len(chapters) == 0 {
		return nil, nil
	}
	payload := struct {
		Chapters []Chapter `json:"chapters"`
	}{Chapters: chapters}
	body, resp, err := c.do(ctx, bulkTimeout, http.MethodPost, "/chapters/bulk", nil, payload, true)
	if err != nil {
		return nil, apperrors.New(apperrors.KindTransient, "WordPress bulk request failed.", err)
	}
	if !httpclient.IsSuccess(resp) {
		return nil, statusError("bulk chapter creation", resp.StatusCode)
	}
	results := gjson.GetBytes(body, "results").Array()
	if len(results) != len(chapters) {
		return nil, apperrors.New(apperrors.KindValidation,
			fmt.Sprintf("WordPress returned %d results for %d chapters.", len(results), len(chapters)), nil)
	}
	refs := make([]Ref, len(results))
	for i, r := range results {
		refs[i] = Ref{ID: r.Get("chapter_id").Int(), Existed: r.Get("existed").Bool()}
	}
	return refs, nil
}

func statusError(op string, status int) error {
	msg := fmt.Sprintf("WordPress %s failed (%d).", op, status)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperrors.New(apperrors.KindAuth, msg+" Please verify the WordPress API key.", nil)
	case status == http.StatusTooManyRequests:
		return apperrors.New(apperrors.KindRateLimit, msg, nil)
	case status >= 500:
		return apperrors.New(apperrors.KindTransient, msg, nil)
	case status == http.StatusBadRequest || status == http.StatusNotFound:
		return apperrors.New(apperrors.KindBadRequest, msg, nil)
	default:
		return apperrors.New(apperrors.KindFatal, msg, nil)
	}
}
