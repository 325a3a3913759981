package quran

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/tilawa/internal/domain"
)

const (
	defaultTimeout = 60 * time.Second

	// maxAttempts bounds the forced-refresh retry to a single repeat
	maxAttempts = 2
)

// ContentOptions selects the optional payloads requested with verses
type ContentOptions struct {
	Language     string
	Translations []int
	Words        bool
}

// Client implements domain.ContentSource for the Quran content API v4
type Client struct {
	baseURL    string
	clientID   string
	tokens     domain.TokenSource
	content    ContentOptions
	httpClient *http.Client
	logger     *slog.Logger
}

var _ domain.ContentSource = (*Client)(nil)

// NewClient creates a new content API client
func NewClient(baseURL, clientID string, tokens domain.TokenSource, content ContentOptions, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if content.Language == "" {
		content.Language = "en"
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		tokens:   tokens,
		content:  content,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Request performs an authenticated GET and decodes the body into T.
// Decode and validation failures are content-fetch failures.
func Request[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var out T
	body, err := c.doRequest(ctx, path, query)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("%w: failed to parse response from %s: %v", domain.ErrContentFetch, path, err)
	}
	if v, ok := any(out).(validator); ok {
		if err := v.Validate(); err != nil {
			return out, fmt.Errorf("%w: invalid response from %s: %v", domain.ErrContentFetch, path, err)
		}
	}
	return out, nil
}

// doRequest sends the request with the current token. An expired-token
// rejection forces one token refresh and one retry; everything else fails fast.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL = reqURL + "?" + query.Encode()
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		tok, err := c.tokens.GetToken(ctx, attempt > 0)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("x-auth-token", tok.AccessToken)
		req.Header.Set("x-client-id", c.clientID)

		c.logger.Debug("content request", "url", reqURL, "attempt", attempt)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Error("content request failed", "url", reqURL, "error", err)
			return nil, fmt.Errorf("%w: %w: %v", domain.ErrContentFetch, domain.ErrServerOffline, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrContentFetch, err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return body, nil
		}

		statusErr := &domain.StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}

		if isAuthStatus(resp.StatusCode) {
			if !isExpiredSignal(body) {
				c.logger.Error("content request unauthorized", "status", resp.StatusCode, "path", path)
				return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, statusErr)
			}
			if attempt+1 < maxAttempts {
				c.logger.Info("access token rejected as expired, refreshing", "path", path)
				continue
			}
			c.logger.Error("access token rejected after refresh", "status", resp.StatusCode, "path", path)
			return nil, fmt.Errorf("%w: %w: %w", domain.ErrUnauthorized, domain.ErrTokenExpired, statusErr)
		}

		c.logger.Error("content request error", "status", resp.StatusCode, "path", path, "body", statusErr.Body)
		return nil, statusErr
	}

	// Unreachable: the last attempt always returns
	return nil, fmt.Errorf("%w: %s", domain.ErrUnauthorized, path)
}

func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// isExpiredSignal reports whether an auth rejection body says the token expired
func isExpiredSignal(body []byte) bool {
	var errResp ErrorResponse
	text := string(body)
	if err := json.Unmarshal(body, &errResp); err == nil {
		text = strings.Join([]string{errResp.Message, errResp.Error, errResp.Type, errResp.ErrorDescription}, " ")
	}
	text = strings.ToLower(text)
	return strings.Contains(text, "expired") || strings.Contains(text, "invalid_token")
}

// GetChapters returns the full chapter catalog
func (c *Client) GetChapters(ctx context.Context) ([]domain.Chapter, error) {
	query := url.Values{}
	query.Set("language", c.content.Language)

	resp, err := Request[ChaptersResponse](ctx, c, "/chapters", query)
	if err != nil {
		return nil, err
	}
	return MapChapters(resp.Chapters), nil
}

// GetChapterInfo returns the long-form introduction of a chapter
func (c *Client) GetChapterInfo(ctx context.Context, chapterID int) (*domain.ChapterInfo, error) {
	query := url.Values{}
	query.Set("language", c.content.Language)

	resp, err := Request[ChapterInfoResponse](ctx, c, fmt.Sprintf("/chapters/%d/info", chapterID), query)
	if err != nil {
		return nil, err
	}
	return MapChapterInfo(resp.ChapterInfo), nil
}

// GetVerses returns one page of a chapter's verses with translations and words
func (c *Client) GetVerses(ctx context.Context, chapterID, page, perPage int) ([]domain.Verse, int, error) {
	query := c.pageQuery(page, perPage)
	query.Set("words", strconv.FormatBool(c.content.Words))
	query.Set("fields", "text_uthmani")
	if len(c.content.Translations) > 0 {
		query.Set("translations", joinInts(c.content.Translations))
	}
	if c.content.Words {
		query.Set("word_fields", "text_uthmani")
	}

	resp, err := Request[VersesResponse](ctx, c, fmt.Sprintf("/verses/by_chapter/%d", chapterID), query)
	if err != nil {
		return nil, 0, err
	}
	return MapVerses(resp.Verses), resp.Pagination.TotalRecords, nil
}

// GetTafsirs returns one page of a chapter's verses annotated with one tafsir resource
func (c *Client) GetTafsirs(ctx context.Context, chapterID, resourceID, page, perPage int) ([]domain.TafsirEntry, int, error) {
	query := c.pageQuery(page, perPage)
	query.Set("words", "false")
	query.Set("tafsirs", strconv.Itoa(resourceID))

	resp, err := Request[VersesResponse](ctx, c, fmt.Sprintf("/verses/by_chapter/%d", chapterID), query)
	if err != nil {
		return nil, 0, err
	}
	return MapTafsirs(resp.Verses, resourceID), resp.Pagination.TotalRecords, nil
}

// GetResources lists translation or tafsir resources
func (c *Client) GetResources(ctx context.Context, kind domain.ResourceKind) ([]domain.Resource, error) {
	query := url.Values{}
	query.Set("language", c.content.Language)

	switch kind {
	case domain.ResourceTafsir:
		resp, err := Request[ResourcesResponse](ctx, c, "/resources/tafsirs", query)
		if err != nil {
			return nil, err
		}
		return MapResources(resp.Tafsirs), nil
	case domain.ResourceTranslation:
		resp, err := Request[ResourcesResponse](ctx, c, "/resources/translations", query)
		if err != nil {
			return nil, err
		}
		return MapResources(resp.Translations), nil
	default:
		return nil, fmt.Errorf("unknown resource kind: %s", kind)
	}
}

// GetLanguages lists the languages offered by the API
func (c *Client) GetLanguages(ctx context.Context) ([]domain.Language, error) {
	resp, err := Request[LanguagesResponse](ctx, c, "/resources/languages", nil)
	if err != nil {
		return nil, err
	}
	return MapLanguages(resp.Languages), nil
}

// GetRecitations lists audio recitations
func (c *Client) GetRecitations(ctx context.Context) ([]domain.Recitation, error) {
	query := url.Values{}
	query.Set("language", c.content.Language)

	resp, err := Request[RecitationsResponse](ctx, c, "/resources/recitations", query)
	if err != nil {
		return nil, err
	}
	return MapRecitations(resp.Recitations), nil
}

func (c *Client) pageQuery(page, perPage int) url.Values {
	query := url.Values{}
	query.Set("language", c.content.Language)
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		query.Set("per_page", strconv.Itoa(perPage))
	}
	return query
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
