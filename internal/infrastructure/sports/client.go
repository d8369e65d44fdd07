package sports

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	crerr "github.com/cockroachdb/errors"

	sonic "github.com/bytedance/sonic"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/tournament"
	"github.com/yared-ayele-debela/tournament-events/internal/platform/logging"
	"github.com/yared-ayele-debela/tournament-events/internal/platform/resilience"
	"github.com/yared-ayele-debela/tournament-events/internal/usecase"
)

const maxResponseBytes = 1 << 20

// Client is the read-only sibling-service collaborator used to enrich and
// validate event payloads. All callers treat its failures as degradation,
// never as a reason to abort an event, so the breaker protects the sibling
// without endangering the pipeline.
type Client struct {
	httpClient *http.Client
	baseURL    string
	breaker    *resilience.CircuitBreaker
	logger     *logging.Logger
}

func NewClient(httpClient *http.Client, baseURL string, breaker *resilience.CircuitBreaker, logger *logging.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		breaker:    breaker,
		logger:     logger,
	}
}

func (c *Client) GetMatch(ctx context.Context, id string) (tournament.Match, error) {
	var decoded matchResponse
	if err := c.getJSON(ctx, "/api/v1/matches/"+url.PathEscape(id), &decoded); err != nil {
		return tournament.Match{}, err
	}
	return tournament.Match{
		ID:           decoded.ID,
		TournamentID: decoded.TournamentID,
		HomeTeamID:   decoded.HomeTeamID,
		AwayTeamID:   decoded.AwayTeamID,
		Status:       decoded.Status,
	}, nil
}

func (c *Client) GetTeam(ctx context.Context, id string) (tournament.Team, error) {
	var decoded teamResponse
	if err := c.getJSON(ctx, "/api/v1/teams/"+url.PathEscape(id), &decoded); err != nil {
		return tournament.Team{}, err
	}
	return tournament.Team{ID: decoded.ID, Name: decoded.Name}, nil
}

func (c *Client) GetTournament(ctx context.Context, id string) (tournament.Tournament, error) {
	var decoded tournamentResponse
	if err := c.getJSON(ctx, "/api/v1/tournaments/"+url.PathEscape(id), &decoded); err != nil {
		return tournament.Tournament{}, err
	}
	return tournament.Tournament{
		ID:      decoded.ID,
		Name:    decoded.Name,
		Status:  tournament.NormalizeStatus(decoded.Status),
		TeamIDs: decoded.TeamIDs,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			return fmt.Errorf("%w: sports service circuit open", usecase.ErrDependencyUnavailable)
		}
	}

	err := c.doGetJSON(ctx, path, out)
	if c.breaker != nil {
		if err != nil {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	return err
}

func (c *Client) doGetJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return crerr.Wrap(err, "create sports request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return crerr.Wrap(err, "request sports service")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", usecase.ErrNotFound, path)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return crerr.Wrap(err, "read sports response")
	}
	if resp.StatusCode != http.StatusOK {
		return crerr.Newf("sports service returned status %d for %s", resp.StatusCode, path)
	}

	if err := sonic.Unmarshal(body, out); err != nil {
		return crerr.Wrap(err, "unmarshal sports response")
	}
	return nil
}

type matchResponse struct {
	ID           string `json:"id"`
	TournamentID string `json:"tournament_id"`
	HomeTeamID   string `json:"home_team_id"`
	AwayTeamID   string `json:"away_team_id"`
	Status       string `json:"status"`
}

type teamResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type tournamentResponse struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Status  string   `json:"status"`
	TeamIDs []string `json:"team_ids"`
}
