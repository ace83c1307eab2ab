package acl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

const (
	postsPath = "/posts"

	// DefaultPostsLimit is how many posts a fetch keeps.
	DefaultPostsLimit = 5

	pushTitle  = "quotes sync"
	pushUserID = 1
)

// postCategories is cycled by position to give each post a category.
var postCategories = []string{"Inspiration", "Life", "Motivation", "Wisdom", "Humor"}

// PostsSourceConfig configures a PostsSource.
type PostsSourceConfig struct {
	// Client's BaseURL points at the posts API.
	Client *clients.Client

	// Limit truncates the fetched list. Zero means DefaultPostsLimit.
	Limit int

	Logger *slog.Logger
}

// PostsSource is a ports.RemoteQuoteSource backed by a JSONPlaceholder-style
// posts API. Fetch reads GET /posts; Push creates a single post wrapping the
// local collection.
type PostsSource struct {
	BaseAdapter

	limit  int
	logger *slog.Logger
}

// NewPostsSource creates a posts source. It panics when Client is nil.
func NewPostsSource(cfg PostsSourceConfig) *PostsSource {
	if cfg.Client == nil {
		panic("acl: PostsSource requires a client")
	}

	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultPostsLimit
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &PostsSource{
		BaseAdapter: NewBaseAdapter(cfg.Client, cfg.Client.ServiceName()),
		limit:       limit,
		logger:      logger.With(slog.String("component", "acl.PostsSource")),
	}
}

// externalPost is the remote's record shape.
type externalPost struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// externalPushRequest wraps the local collection as a new post.
type externalPushRequest struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID int    `json:"userId"`
}

// Fetch implements ports.RemoteQuoteSource.
func (s *PostsSource) Fetch(ctx context.Context) ([]domain.Quote, error) {
	logger := logging.FromContextOr(ctx, s.logger)
	logger.Log(ctx, logging.LevelTrace, "fetching posts", slog.String("path", postsPath))

	body, err := s.Get(ctx, postsPath, "fetch posts")
	if err != nil {
		return nil, err
	}

	posts, err := DecodeResponse[[]externalPost](body)
	if err != nil {
		return nil, domain.NewUnavailableError(s.ServiceName(), err.Error())
	}

	items := *posts
	if len(items) > s.limit {
		items = items[:s.limit]
	}

	quotes, err := TranslateSlice(items, translatePost)
	if err != nil {
		return nil, domain.NewUnavailableError(s.ServiceName(), err.Error())
	}

	logger.DebugContext(ctx, "fetched remote snapshot",
		slog.Int("received", len(*posts)),
		slog.Int("kept", len(quotes)),
	)

	return quotes, nil
}

// Push implements ports.RemoteQuoteSource.
func (s *PostsSource) Push(ctx context.Context, quotes []domain.Quote) error {
	payload, err := json.Marshal(domain.CloneQuotes(quotes))
	if err != nil {
		return fmt.Errorf("encoding quotes: %w", err)
	}

	body, err := s.PostJSON(ctx, postsPath, externalPushRequest{
		Title:  pushTitle,
		Body:   string(payload),
		UserID: pushUserID,
	}, "push quotes")
	if err != nil {
		return err
	}

	_ = body.Close()

	logging.FromContextOr(ctx, s.logger).DebugContext(ctx, "pushed local snapshot", slog.Int("count", len(quotes)))

	return nil
}

// Name implements ports.HealthChecker.
func (s *PostsSource) Name() string {
	return s.ServiceName()
}

// Check implements ports.HealthChecker. An open breaker reports unhealthy
// without touching the network.
func (s *PostsSource) Check(ctx context.Context) error {
	if state := s.Client().CircuitState(); state == clients.StateOpen {
		return domain.NewUnavailableError(s.ServiceName(), "circuit breaker "+state.String())
	}

	body, err := s.Get(ctx, postsPath+"/1", "health check")
	if err != nil {
		return err
	}

	return body.Close()
}

// translatePost maps one post to a quote. The category is chosen by
// position so the same snapshot always translates the same way.
func translatePost(i int, p *externalPost) (domain.Quote, error) {
	q := domain.Quote{
		Text:     strings.TrimSpace(p.Title),
		Category: postCategories[i%len(postCategories)],
		Author:   "user-" + strconv.Itoa(p.UserID),
	}

	if err := q.Validate(); err != nil {
		return domain.Quote{}, err
	}

	return q, nil
}
