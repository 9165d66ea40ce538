package metadata

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Henry-Sarabia/igdb/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/nightfeed/horror-aggregator/internal/games"
)

const (
	// DefaultTokenURL is the Twitch endpoint issuing IGDB app access tokens
	DefaultTokenURL = "https://id.twitch.tv/oauth2/token"

	igdbProviderName = "igdb"
	searchLimit      = 10
)

var gameFields = []string{"id", "name", "summary", "first_release_date", "total_rating"}

// gameService is the part of the IGDB client used here
type gameService interface {
	Search(qry string, opts ...igdb.Option) ([]*igdb.Game, error)
	Get(id int, opts ...igdb.Option) (*igdb.Game, error)
}

// IGDBProvider implements Provider on top of the IGDB API
type IGDBProvider struct {
	games gameService
}

// IGDBOption configures NewIGDBProvider
type IGDBOption func(*igdbConfig)

type igdbConfig struct {
	tokenURL   string
	httpClient *http.Client
}

// WithTokenURL overrides the token endpoint
func WithTokenURL(u string) IGDBOption {
	return func(c *igdbConfig) {
		c.tokenURL = u
	}
}

// WithHTTPClient sets the base client for token requests and API calls
func WithHTTPClient(client *http.Client) IGDBOption {
	return func(c *igdbConfig) {
		c.httpClient = client
	}
}

// NewIGDBProvider authenticates with Twitch client credentials and returns a provider.
// The API client renews the app token whenever it nears expiry.
func NewIGDBProvider(ctx context.Context, clientID, clientSecret string, opts ...IGDBOption) (*IGDBProvider, error) {
	if clientID == "" || clientSecret == "" {
		return nil, ErrNotConfigured
	}

	cfg := &igdbConfig{
		tokenURL:   DefaultTokenURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	httpClient, token, err := newTokenClient(ctx, cfg, clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate with Twitch: %w", err)
	}

	client := igdb.NewClient(clientID, token.AccessToken, httpClient)
	return &IGDBProvider{games: client.Games}, nil
}

// newTokenClient returns a client that sets a fresh bearer token on every request,
// plus the first token so credentials are checked at startup
func newTokenClient(ctx context.Context, cfg *igdbConfig, clientID, clientSecret string) (*http.Client, *oauth2.Token, error) {
	creds := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     cfg.tokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	// refreshes outlive the startup context
	tokenCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, cfg.httpClient)
	source := oauth2.ReuseTokenSource(nil, creds.TokenSource(tokenCtx))

	token, err := source.Token()
	if err != nil {
		return nil, nil, err
	}

	client := oauth2.NewClient(tokenCtx, source)
	client.Timeout = cfg.httpClient.Timeout
	return client, token, nil
}

// Name returns the provider name
func (*IGDBProvider) Name() string {
	return igdbProviderName
}

// Search returns up to ten catalogue matches for query
func (p *IGDBProvider) Search(ctx context.Context, query string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	found, err := p.games.Search(query,
		igdb.SetFields(gameFields...),
		igdb.SetLimit(searchLimit),
	)
	if err != nil {
		if err == igdb.ErrNoResults {
			return []Record{}, nil
		}
		return nil, fmt.Errorf("igdb search: %w", err)
	}

	out := make([]Record, 0, len(found))
	for _, g := range found {
		if g == nil {
			continue
		}
		out = append(out, convertGame(g))
	}
	return out, nil
}

// Detail returns the record for an id of the form "igdb:<number>"
func (p *IGDBProvider) Detail(ctx context.Context, id string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	numericID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	g, err := p.games.Get(numericID, igdb.SetFields(gameFields...))
	if err != nil {
		if err == igdb.ErrNoResults {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("igdb get %d: %w", numericID, err)
	}
	if g == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	rec := convertGame(g)
	return &rec, nil
}

func parseID(id string) (int, error) {
	prefix, num, ok := strings.Cut(id, ":")
	if !ok || prefix != igdbProviderName {
		return 0, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	n, err := strconv.Atoi(num)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}
	return n, nil
}

// convertGame maps an IGDB game; total_rating (0-100) is scaled to 0-5
func convertGame(g *igdb.Game) Record {
	rec := Record{
		ID:          fmt.Sprintf("%s:%d", igdbProviderName, g.ID),
		Title:       g.Name,
		Description: g.Summary,
		Rating:      math.Round(math.Max(0, math.Min(100, g.TotalRating))/20*10) / 10,
		ReleaseDate: games.UnknownReleaseDate,
		Provider:    igdbProviderName,
	}
	if rec.Description == "" {
		rec.Description = games.UnknownDescription
	}
	if g.FirstReleaseDate != 0 {
		rec.ReleaseDate = time.Unix(int64(g.FirstReleaseDate), 0).UTC().Format("2006-01-02")
	}
	return rec
}
