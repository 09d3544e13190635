package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/inovacc/gitlab-dumper/internal/model"
	"golang.org/x/oauth2"
)

// PrivateTokenHeader is the header GitLab reads personal access tokens from.
const PrivateTokenHeader = "PRIVATE-TOKEN"

// AuthMode selects how the credential is presented to the service.
type AuthMode int

const (
	AuthPrivateToken AuthMode = iota // PRIVATE-TOKEN header (default)
	AuthBearer                       // Authorization: Bearer via a static oauth2 token source
)

func (m AuthMode) String() string {
	switch m {
	case AuthBearer:
		return "bearer"
	default:
		return "private-token"
	}
}

// ParseAuthMode converts a string to an AuthMode.
func ParseAuthMode(s string) (AuthMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "private-token":
		return AuthPrivateToken, nil
	case "bearer":
		return AuthBearer, nil
	default:
		return AuthPrivateToken, fmt.Errorf("unknown auth mode %q (want private-token or bearer)", s)
	}
}

// Config contains the settings for a Client.
type Config struct {
	BaseURL string
	Token   string
	Auth    AuthMode

	// UserAgent is sent with every request when set.
	UserAgent string

	// Timeout bounds each request. Zero leaves the transport default (none).
	Timeout time.Duration

	// HTTPClient overrides the underlying client, mostly for tests.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// PageInfo carries the pagination headers returned with a listing.
type PageInfo struct {
	Page       int
	PerPage    int
	NextPage   int
	Total      int
	TotalPages int
}

// HasMore reports whether the service announced a further page.
func (p PageInfo) HasMore() bool {
	return p.NextPage > 0
}

// Client performs authenticated GET requests against the listing API.
type Client struct {
	baseURL string
	rest    *resty.Client
	logger  *slog.Logger
}

// NewClient creates a Client for the API rooted at cfg.BaseURL.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("API URL cannot be empty")
	}

	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", cfg.BaseURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid API URL %q: scheme must be http or https", cfg.BaseURL)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	var rest *resty.Client

	switch cfg.Auth {
	case AuthBearer:
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, hc)
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		rest = resty.NewWithClient(oauth2.NewClient(ctx, ts))
	default:
		rest = resty.NewWithClient(hc)
		rest.SetHeader(PrivateTokenHeader, cfg.Token)
	}

	rest.SetBaseURL(base)
	rest.SetHeader("Content-Type", "application/json")
	rest.SetHeader("Accept", "application/json")

	if cfg.UserAgent != "" {
		rest.SetHeader("User-Agent", cfg.UserAgent)
	}

	if cfg.Timeout > 0 {
		rest.SetTimeout(cfg.Timeout)
	}

	return &Client{
		baseURL: base,
		rest:    rest,
		logger:  logger,
	}, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListGroups returns one page of the groups listing. An empty slice marks the
// end of pagination.
func (c *Client) ListGroups(ctx context.Context, page, perPage int) ([]*model.Group, PageInfo, error) {
	query := url.Values{}
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("page", strconv.Itoa(page))

	var groups []*model.Group

	info, err := c.get(ctx, "groups", query, &groups)
	if err != nil {
		return nil, PageInfo{}, err
	}

	return groups, info, nil
}

// ListGroupProjects returns the projects of one group. The request is not
// paginated, so the service's default page size applies; PageInfo tells the
// caller whether entries were left out.
func (c *Client) ListGroupProjects(ctx context.Context, groupID model.ID) ([]*model.Project, PageInfo, error) {
	var projects []*model.Project

	info, err := c.get(ctx, "groups/"+url.PathEscape(groupID.String())+"/projects", nil, &projects)
	if err != nil {
		return nil, PageInfo{}, err
	}

	return projects, info, nil
}

func (c *Client) get(ctx context.Context, resource string, query url.Values, out any) (PageInfo, error) {
	fullURL := c.baseURL + "/" + resource
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req := c.rest.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParamsFromValues(query)
	}

	c.logger.Debug("api request", slog.String("url", fullURL))

	resp, err := req.Get("/" + resource)
	if err != nil {
		return PageInfo{}, &TransportError{URL: fullURL, Err: err}
	}

	if resp.StatusCode() != http.StatusOK {
		return PageInfo{}, &APIError{StatusCode: resp.StatusCode(), URL: fullURL}
	}

	body := resp.Body()
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return PageInfo{}, &TransportError{URL: fullURL, Err: fmt.Errorf("decode response: %w", err)}
		}
	}

	return parsePageInfo(resp.Header()), nil
}

func parsePageInfo(h http.Header) PageInfo {
	atoi := func(key string) int {
		n, err := strconv.Atoi(strings.TrimSpace(h.Get(key)))
		if err != nil {
			return 0
		}

		return n
	}

	return PageInfo{
		Page:       atoi("X-Page"),
		PerPage:    atoi("X-Per-Page"),
		NextPage:   atoi("X-Next-Page"),
		Total:      atoi("X-Total"),
		TotalPages: atoi("X-Total-Pages"),
	}
}
