package yields

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoEndpoint is returned by a remote client with no URL configured.
var ErrNoEndpoint = errors.New("no endpoint configured")

const (
	defaultThetanutsVault = "idrx-covered-call"
	defaultAerodromePool  = "0x0000000000000000000000000000000000000000"
)

// RemoteFetcher reads a live APY from an external system.
type RemoteFetcher interface {
	FetchAPY(ctx context.Context) (float64, error)
}

// Remotes groups the live clients for each strategy. A nil entry means the
// strategy has no live source and always uses the fallback model.
type Remotes struct {
	Thetanuts RemoteFetcher
	Aerodrome RemoteFetcher
	Staking   RemoteFetcher
}

// RemoteConfig configures the live HTTP clients.
type RemoteConfig struct {
	ThetanutsURL string
	AerodromeURL string
	StakingURL   string
	Timeout      time.Duration
}

// NewRemotes builds HTTP clients for every configured endpoint.
func NewRemotes(cfg RemoteConfig) Remotes {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	return Remotes{
		Thetanuts: &ThetanutsClient{baseURL: cfg.ThetanutsURL, vault: defaultThetanutsVault, httpClient: client},
		Aerodrome: &AerodromeClient{endpoint: cfg.AerodromeURL, poolID: defaultAerodromePool, httpClient: client},
		Staking:   &StakingClient{url: cfg.StakingURL, httpClient: client},
	}
}

// ThetanutsClient reads the covered-call vault APY from the Thetanuts REST API.
type ThetanutsClient struct {
	baseURL    string
	vault      string
	httpClient *http.Client
}

type thetanutsVaultResponse struct {
	Vault           string  `json:"vault"`
	APY             float64 `json:"apy"`
	TVL             float64 `json:"tvl"`
	UtilizationRate float64 `json:"utilizationRate"`
}

// FetchAPY implements RemoteFetcher.
func (c *ThetanutsClient) FetchAPY(ctx context.Context) (float64, error) {
	if c.baseURL == "" {
		return 0, ErrNoEndpoint
	}
	url := strings.TrimRight(c.baseURL, "/") + "/vaults/" + c.vault

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	var vault thetanutsVaultResponse
	if err := doJSON(c.httpClient, req, &vault); err != nil {
		return 0, fmt.Errorf("fetch thetanuts vault: %w", err)
	}
	return vault.APY, nil
}

// AerodromeClient queries the Aerodrome subgraph for the IDRX/USDC pool APR.
type AerodromeClient struct {
	endpoint   string
	poolID     string
	httpClient *http.Client
}

const aerodromePoolQuery = `query GetPoolAPR($poolId: ID!) {
  pool(id: $poolId) {
    id
    token0 { symbol }
    token1 { symbol }
    apr
    tvlUSD
    volume24h
  }
}`

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type aerodromePoolResponse struct {
	Data struct {
		Pool *struct {
			ID     string  `json:"id"`
			APR    float64 `json:"apr"`
			TVLUSD float64 `json:"tvlUSD"`
		} `json:"pool"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchAPY implements RemoteFetcher.
func (c *AerodromeClient) FetchAPY(ctx context.Context) (float64, error) {
	if c.endpoint == "" {
		return 0, ErrNoEndpoint
	}

	body, err := json.Marshal(graphQLRequest{
		Query:     aerodromePoolQuery,
		Variables: map[string]any{"poolId": c.poolID},
	})
	if err != nil {
		return 0, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp aerodromePoolResponse
	if err := doJSON(c.httpClient, req, &resp); err != nil {
		return 0, fmt.Errorf("query aerodrome subgraph: %w", err)
	}
	if len(resp.Errors) > 0 {
		return 0, fmt.Errorf("aerodrome subgraph: %s", resp.Errors[0].Message)
	}
	if resp.Data.Pool == nil {
		return 0, fmt.Errorf("aerodrome pool %s not found", c.poolID)
	}
	return resp.Data.Pool.APR, nil
}

// StakingClient reads the staking contract state from a JSON gateway.
type StakingClient struct {
	url        string
	httpClient *http.Client
}

type stakingResponse struct {
	APY          float64 `json:"apy"`
	TotalStaked  string  `json:"totalStaked"`
	RewardRate   string  `json:"rewardRate"`
	LockupPeriod int     `json:"lockupPeriod"`
}

// FetchAPY implements RemoteFetcher.
func (c *StakingClient) FetchAPY(ctx context.Context) (float64, error) {
	if c.url == "" {
		return 0, ErrNoEndpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	var state stakingResponse
	if err := doJSON(c.httpClient, req, &state); err != nil {
		return 0, fmt.Errorf("fetch staking state: %w", err)
	}
	return state.APY, nil
}

func doJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
