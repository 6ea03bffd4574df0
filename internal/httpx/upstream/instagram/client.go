package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseURL    = "https://graph.instagram.com"
	defaultAPIVersion = "v22.0"
	defaultTimeout    = 30 * time.Second

	// timestampLayout is the fixed offset-aware format the Graph API uses
	// for media and comment timestamps.
	timestampLayout = "2006-01-02T15:04:05-0700"
)

// Client is an Instagram Graph API client for analytics synchronization
type Client struct {
	baseURL    string
	apiVersion string
	httpClient *http.Client
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithAPIVersion sets the API version
func WithAPIVersion(version string) ClientOption {
	return func(c *Client) {
		c.apiVersion = version
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a new Instagram API client
func New(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		apiVersion: defaultAPIVersion,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an error from the Instagram API
type APIError struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
	FBTraceID    string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("instagram API error: %s (code: %d, subcode: %d)", e.Message, e.Code, e.ErrorSubcode)
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// ParseTimestamp parses a Graph API timestamp and normalizes it to UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", raw, err)
	}
	return t.UTC(), nil
}

// MediaItem is one entry of a media or story listing.
type MediaItem struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Permalink string `json:"permalink"`
}

// GetRecentMedia retrieves the most recent posts for the authenticated
// account, newest first.
// GET /me/media
func (c *Client) GetRecentMedia(ctx context.Context, accessToken string, limit int) ([]MediaItem, error) {
	endpoint := fmt.Sprintf("%s/%s/me/media", c.baseURL, c.apiVersion)

	params := url.Values{}
	params.Set("access_token", accessToken)
	params.Set("fields", "id,timestamp,permalink")
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var out struct {
		Data []MediaItem `json:"data"`
	}
	if err := c.get(ctx, endpoint+"?"+params.Encode(), &out); err != nil {
		return nil, err
	}

	return out.Data, nil
}

// InsightEntry is one metric of an insights payload. Values carries the
// lifetime aggregates; only the first value is meaningful for the metrics
// this client requests.
type InsightEntry struct {
	Name   string `json:"name"`
	Values []struct {
		Value int `json:"value"`
	} `json:"values"`
}

// First returns the first value of the entry, or zero when absent.
func (e InsightEntry) First() int {
	if len(e.Values) == 0 {
		return 0
	}
	return e.Values[0].Value
}

// GetMediaInsights retrieves the lifetime engagement metrics for a post.
//
// The returned entries are positional: indexes 0..3 correspond to likes,
// comments, saved and shares in that fixed order. An empty slice (no
// metrics available) is not an error.
// GET /{media-id}/insights
func (c *Client) GetMediaInsights(ctx context.Context, mediaID, accessToken string) ([]InsightEntry, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/insights", c.baseURL, c.apiVersion, mediaID)

	params := url.Values{}
	params.Set("access_token", accessToken)
	params.Set("metric", "likes,comments,saved,shares")
	params.Set("period", "lifetime")

	var out struct {
		Data []InsightEntry `json:"data"`
	}
	if err := c.get(ctx, endpoint+"?"+params.Encode(), &out); err != nil {
		return nil, err
	}

	return out.Data, nil
}

// GetMediaCaption retrieves the caption of a post.
// GET /{media-id}?fields=caption
func (c *Client) GetMediaCaption(ctx context.Context, mediaID, accessToken string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, c.apiVersion, mediaID)

	params := url.Values{}
	params.Set("access_token", accessToken)
	params.Set("fields", "caption")

	var out struct {
		Caption string `json:"caption"`
	}
	if err := c.get(ctx, endpoint+"?"+params.Encode(), &out); err != nil {
		return "", err
	}

	return out.Caption, nil
}

// CommentPageInput represents input for fetching one page of comment IDs.
// The first page is addressed by MediaID; subsequent pages use the opaque
// NextURL returned with the previous page, with no added params.
type CommentPageInput struct {
	MediaID     string
	AccessToken string
	Limit       int
	NextURL     string
}

// CommentPage is one page of comment IDs plus the cursor to the next page.
// Next is empty on the last page.
type CommentPage struct {
	IDs  []string
	Next string
}

// GetCommentPage retrieves one page of comment IDs for a post.
// GET /{media-id}/comments
func (c *Client) GetCommentPage(ctx context.Context, in CommentPageInput) (*CommentPage, error) {
	requestURL := in.NextURL
	if requestURL == "" {
		params := url.Values{}
		params.Set("access_token", in.AccessToken)
		params.Set("fields", "id")
		if in.Limit > 0 {
			params.Set("limit", strconv.Itoa(in.Limit))
		}
		requestURL = fmt.Sprintf("%s/%s/%s/comments?%s", c.baseURL, c.apiVersion, in.MediaID, params.Encode())
	}

	var out struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
		Paging struct {
			Next string `json:"next"`
		} `json:"paging"`
	}
	if err := c.get(ctx, requestURL, &out); err != nil {
		return nil, err
	}

	page := &CommentPage{Next: out.Paging.Next}
	for _, d := range out.Data {
		if d.ID != "" {
			page.IDs = append(page.IDs, d.ID)
		}
	}

	return page, nil
}

// Author identifies the author of a comment.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// CommentDetail is the full payload of a single comment. From is nil when
// the API omits the author block. The inline Replies block lists
// first-level reply comment IDs.
type CommentDetail struct {
	ID        string  `json:"id"`
	From      *Author `json:"from"`
	LikeCount int     `json:"like_count"`
	Text      string  `json:"text"`
	Timestamp string  `json:"timestamp"`
	Username  string  `json:"username"`
	ParentID  string  `json:"parent_id"`
	Replies   struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	} `json:"replies"`
}

// ReplyIDs returns the first-level reply IDs reported with the comment.
func (d *CommentDetail) ReplyIDs() []string {
	var ids []string
	for _, r := range d.Replies.Data {
		if r.ID != "" {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// GetCommentDetail retrieves a single comment with author, metrics and
// reply references.
// GET /{comment-id}
func (c *Client) GetCommentDetail(ctx context.Context, commentID, accessToken string) (*CommentDetail, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, c.apiVersion, commentID)

	params := url.Values{}
	params.Set("access_token", accessToken)
	params.Set("fields", "id,from,like_count,text,timestamp,replies,username,parent_id")

	var out CommentDetail
	if err := c.get(ctx, endpoint+"?"+params.Encode(), &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// BreakdownRow is one label/value pair of a demographic breakdown.
type BreakdownRow struct {
	Label string
	Value int
}

// GetAudienceBreakdown retrieves the engaged-audience demographics for an
// account along one dimension (country, city or age). An empty result is
// not an error: the platform reports nothing when no updated data is
// available for the timeframe.
// GET /{account-id}/insights
func (c *Client) GetAudienceBreakdown(ctx context.Context, accountID, accessToken, dimension string) ([]BreakdownRow, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/insights", c.baseURL, c.apiVersion, accountID)

	params := url.Values{}
	params.Set("access_token", accessToken)
	params.Set("metric", "engaged_audience_demographics")
	params.Set("metric_type", "total_value")
	params.Set("period", "lifetime")
	params.Set("timeframe", "this_month")
	params.Set("breakdown", dimension)

	var out struct {
		Data []struct {
			TotalValue struct {
				Breakdowns []struct {
					Results []struct {
						DimensionValues []string `json:"dimension_values"`
						Value           int      `json:"value"`
					} `json:"results"`
				} `json:"breakdowns"`
			} `json:"total_value"`
		} `json:"data"`
	}
	if err := c.get(ctx, endpoint+"?"+params.Encode(), &out); err != nil {
		return nil, err
	}

	if len(out.Data) == 0 || len(out.Data[0].TotalValue.Breakdowns) == 0 {
		return nil, nil
	}

	var rows []BreakdownRow
	for _, r := range out.Data[0].TotalValue.Breakdowns[0].Results {
		if len(r.DimensionValues) == 0 {
			continue
		}
		rows = append(rows, BreakdownRow{Label: r.DimensionValues[0], Value: r.Value})
	}

	return rows, nil
}

// GetActiveStories retrieves the currently active stories for the
// authenticated account.
// GET /me/stories
func (c *Client) GetActiveStories(ctx context.Context, accessToken string) ([]MediaItem, error) {
	endpoint := fmt.Sprintf("%s/%s/me/stories", c.baseURL, c.apiVersion)

	params := url.Values{}
	params.Set("access_token", accessToken)
	params.Set("fields", "id,timestamp,permalink")

	var out struct {
		Data []MediaItem `json:"data"`
	}
	if err := c.get(ctx, endpoint+"?"+params.Encode(), &out); err != nil {
		return nil, err
	}

	return out.Data, nil
}

// StoryMetrics holds the insight values for a single story. Story metrics
// are matched by name, unlike post insights which are positional.
type StoryMetrics struct {
	Views         int
	ProfileClicks int
	SwipesUp      int
	Replies       int
}

// GetStoryInsights retrieves the insight metrics for a story.
// GET /{story-id}/insights
func (c *Client) GetStoryInsights(ctx context.Context, storyID, accessToken string) (*StoryMetrics, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/insights", c.baseURL, c.apiVersion, storyID)

	params := url.Values{}
	params.Set("access_token", accessToken)
	params.Set("metric", "reach,replies,navigation,profile_visits")
	params.Set("period", "lifetime")

	var out struct {
		Data []InsightEntry `json:"data"`
	}
	if err := c.get(ctx, endpoint+"?"+params.Encode(), &out); err != nil {
		return nil, err
	}

	metrics := &StoryMetrics{}
	for _, e := range out.Data {
		switch e.Name {
		case "reach":
			metrics.Views = e.First()
		case "profile_visits":
			metrics.ProfileClicks = e.First()
		case "navigation":
			metrics.SwipesUp = e.First()
		case "replies":
			metrics.Replies = e.First()
		}
	}

	return metrics, nil
}

// get executes a GET request and decodes the response into out.
func (c *Client) get(ctx context.Context, requestURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	// The API reports failures both via status codes and via an error
	// object in an otherwise-200 body. Check the body first.
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
		return errResp.Error
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
