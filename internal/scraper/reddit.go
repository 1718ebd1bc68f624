package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	redditTokenURL     = "https://www.reddit.com/api/v1/access_token"
	redditOAuthBaseURL = "https://oauth.reddit.com"
	redditPublicURL    = "https://www.reddit.com"
	maxListingBody     = 8 << 20
)

// Post - пост из листинга сабреддита.
type Post struct {
	Title    string `json:"title"`
	SelfText string `json:"selftext"`
	URL      string `json:"url"`
	Score    int    `json:"score"`
	Stickied bool   `json:"stickied"`
}

// PostSource отдает горячие посты сабреддита.
type PostSource interface {
	Hot(ctx context.Context, subreddit string, limit int) ([]Post, error)
}

// RedditConfig - параметры клиента Reddit.
type RedditConfig struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	Timeout      time.Duration
	// BaseURL и TokenURL переопределяют адреса Reddit (тесты).
	BaseURL  string
	TokenURL string
}

// RedditClient читает листинги Reddit. С client id использует app-only OAuth,
// без него - публичные .json листинги.
type RedditClient struct {
	http      *http.Client
	baseURL   string
	suffix    string
	userAgent string
	logger    *zap.Logger
}

var _ PostSource = (*RedditClient)(nil)

// userAgentTransport выставляет User-Agent, без которого Reddit отвечает 429.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(r)
}

func NewRedditClient(cfg RedditConfig, logger *zap.Logger) *RedditClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	uaClient := &http.Client{
		Timeout:   timeout,
		Transport: &userAgentTransport{base: http.DefaultTransport, userAgent: cfg.UserAgent},
	}

	c := &RedditClient{userAgent: cfg.UserAgent, logger: logger.Named("RedditClient")}

	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		tokenURL := redditTokenURL
		if cfg.TokenURL != "" {
			tokenURL = cfg.TokenURL
		}
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		// токен запрашивается тем же клиентом, чтобы ушел User-Agent
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, uaClient)
		c.http = cc.Client(ctx)
		c.http.Timeout = timeout
		c.baseURL = redditOAuthBaseURL
		c.logger.Info("Reddit: app-only OAuth")
	} else {
		c.http = uaClient
		c.baseURL = redditPublicURL
		c.suffix = ".json"
		c.logger.Info("Reddit: анонимный доступ к публичным листингам")
	}
	if cfg.BaseURL != "" {
		c.baseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	return c
}

type listing struct {
	Data struct {
		Children []struct {
			Data Post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (c *RedditClient) Hot(ctx context.Context, subreddit string, limit int) ([]Post, error) {
	endpoint := fmt.Sprintf("%s/r/%s/hot%s?limit=%d&raw_json=1", c.baseURL, url.PathEscape(subreddit), c.suffix, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch r/%s: %w", subreddit, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch r/%s: status %d: %s", subreddit, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var l listing
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxListingBody)).Decode(&l); err != nil {
		return nil, fmt.Errorf("decode r/%s listing: %w", subreddit, err)
	}

	posts := make([]Post, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		if child.Data.Stickied {
			continue
		}
		posts = append(posts, child.Data)
	}
	c.logger.Debug("Листинг получен", zap.String("subreddit", subreddit), zap.Int("posts", len(posts)))
	return posts, nil
}
