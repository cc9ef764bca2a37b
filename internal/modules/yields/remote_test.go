package yields

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThetanutsClient_FetchAPY(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2/vaults/idrx-covered-call", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"vault":"IDRX-COVERED-CALL","apy":8.42,"tvl":1000000,"utilizationRate":0.85}`))
	}))
	defer server.Close()

	remotes := NewRemotes(RemoteConfig{ThetanutsURL: server.URL + "/v2/", Timeout: time.Second})
	apy, err := remotes.Thetanuts.FetchAPY(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 8.42, apy)
}

func TestAerodromeClient_FetchAPY(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req graphQLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Query, "pool(id: $poolId)")
		assert.Equal(t, defaultAerodromePool, req.Variables["poolId"])

		_, _ = w.Write([]byte(`{"data":{"pool":{"id":"0x0","apr":13.7,"tvlUSD":500000}}}`))
	}))
	defer server.Close()

	remotes := NewRemotes(RemoteConfig{AerodromeURL: server.URL})
	apy, err := remotes.Aerodrome.FetchAPY(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 13.7, apy)
}

func TestAerodromeClient_GraphQLErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"errors array", `{"errors":[{"message":"indexer unavailable"}]}`},
		{"missing pool", `{"data":{"pool":null}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewRemotes(RemoteConfig{AerodromeURL: server.URL}).Aerodrome.FetchAPY(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestStakingClient_FetchAPY(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"apy":15.1,"totalStaked":"1000000000","rewardRate":"150000","lockupPeriod":0}`))
	}))
	defer server.Close()

	apy, err := NewRemotes(RemoteConfig{StakingURL: server.URL}).Staking.FetchAPY(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 15.1, apy)
}

func TestRemoteClients_Failures(t *testing.T) {
	t.Run("no endpoint", func(t *testing.T) {
		remotes := NewRemotes(RemoteConfig{})
		for _, r := range []RemoteFetcher{remotes.Thetanuts, remotes.Aerodrome, remotes.Staking} {
			_, err := r.FetchAPY(context.Background())
			assert.ErrorIs(t, err, ErrNoEndpoint)
		}
	})

	t.Run("non-200", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := NewRemotes(RemoteConfig{StakingURL: server.URL}).Staking.FetchAPY(context.Background())
		assert.ErrorContains(t, err, "unexpected status 502")
	})

	t.Run("bad json", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer server.Close()

		_, err := NewRemotes(RemoteConfig{ThetanutsURL: server.URL}).Thetanuts.FetchAPY(context.Background())
		assert.ErrorContains(t, err, "unmarshal response")
	})
}
