// Package client implements the Remote Voting Service boundary: the Versus
// match/vote API plus the Warpcast identity endpoint it piggybacks on.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"versusbot.dev/wreck-league-go/internal/accounts"
	"versusbot.dev/wreck-league-go/internal/match"
	"versusbot.dev/wreck-league-go/internal/vote"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// frameClientFID identifies the Warpcast frame client in registration
	// payloads.
	frameClientFID = 9152

	notificationURL = "https://api.farcaster.xyz/v1/frame-notifications"
)

// Client talks to the Versus API and Warpcast. It implements vote.Service.
// All requests carry the per-call context plus the client-level timeout;
// callers treat every failure as recoverable.
type Client struct {
	httpClient   *http.Client
	versusBase   string
	warpcastBase string
	log          *logrus.Entry
}

var _ vote.Service = (*Client)(nil)

// New builds a client. timeout bounds every outbound call.
func New(versusBase, warpcastBase string, timeout time.Duration, log *logrus.Entry) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		versusBase:   versusBase,
		warpcastBase: warpcastBase,
		log:          log,
	}
}

// ResolveIdentity looks up the account's FID and username via Warpcast and
// stores them on the account.
func (c *Client) ResolveIdentity(ctx context.Context, acct *accounts.Account) error {
	p, err := c.fetchProfile(ctx, acct)
	if err != nil {
		return err
	}
	acct.SetIdentity(p.FID, p.Username)
	return nil
}

// CurrentMatch fetches the active match for the account. Returns
// vote.ErrNoMatch when the service has nothing to vote on.
func (c *Client) CurrentMatch(ctx context.Context, acct *accounts.Account) (match.Match, error) {
	if err := c.ensureIdentity(ctx, acct); err != nil {
		return match.Match{}, err
	}

	var resp matchDetailsResponse
	url := fmt.Sprintf("%s/v1/match/details?fId=%d", c.versusBase, acct.FID())
	if err := c.doJSON(ctx, http.MethodGet, url, acct.Token, nil, &resp); err != nil {
		return match.Match{}, err
	}

	if len(resp.Data.MatchData) == 0 {
		return match.Match{}, vote.ErrNoMatch
	}
	m := resp.Data.MatchData[0].toMatch()
	if m.ID == "" {
		return match.Match{}, vote.ErrNoMatch
	}
	return m, nil
}

// FuelBalance returns the account's fuel. A 404 means the account was never
// registered with the frame; registration is attempted once and the lookup
// retried.
func (c *Client) FuelBalance(ctx context.Context, acct *accounts.Account) (int, error) {
	if err := c.ensureIdentity(ctx, acct); err != nil {
		return 0, err
	}

	balance, err := c.fetchFuel(ctx, acct)
	if err == errUnregistered {
		c.log.WithField("fid", acct.FID()).Info("account not registered with frame, registering")
		if regErr := c.Register(ctx, acct); regErr != nil {
			return 0, fmt.Errorf("registration failed: %w", regErr)
		}
		balance, err = c.fetchFuel(ctx, acct)
	}
	return balance, err
}

var errUnregistered = fmt.Errorf("account not registered")

func (c *Client) fetchFuel(ctx context.Context, acct *accounts.Account) (int, error) {
	var resp userDataResponse
	url := fmt.Sprintf("%s/v1/user/data?fId=%d", c.versusBase, acct.FID())
	err := c.doJSON(ctx, http.MethodGet, url, acct.Token, nil, &resp)
	if err != nil {
		var httpErr *statusError
		if errors.As(err, &httpErr) && httpErr.code == http.StatusNotFound {
			return 0, errUnregistered
		}
		return 0, err
	}
	if resp.Data.FuelBalance < 0 {
		return 0, nil
	}
	return resp.Data.FuelBalance, nil
}

// ClaimFuelReward attempts the out-of-band fuel claim. The returned amount
// is best-effort; callers ignore failures.
func (c *Client) ClaimFuelReward(ctx context.Context, acct *accounts.Account) (int, error) {
	if err := c.ensureIdentity(ctx, acct); err != nil {
		return 0, err
	}

	var resp fuelRewardResponse
	url := fmt.Sprintf("%s/v1/user/fuelReward?fId=%d", c.versusBase, acct.FID())
	if err := c.doJSON(ctx, http.MethodPost, url, acct.Token, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Data.Fuel, nil
}

// SubmitVote spends fuelPoints on sideID in matchID.
func (c *Client) SubmitVote(ctx context.Context, acct *accounts.Account, matchID, sideID string, fuelPoints int) error {
	if fuelPoints < 1 {
		return fmt.Errorf("fuelPoints must be >= 1, got %d", fuelPoints)
	}
	if err := c.ensureIdentity(ctx, acct); err != nil {
		return err
	}

	body := predictRequest{
		FID:        acct.FID(),
		MechID:     sideID,
		MatchID:    matchID,
		FuelPoints: fuelPoints,
	}
	url := c.versusBase + "/v2/matches/predict"
	return c.doJSON(ctx, http.MethodPut, url, acct.Token, body, nil)
}

// Register adds the account's user to the Versus frame and wires up frame
// notifications. Notification setup failures are non-fatal.
func (c *Client) Register(ctx context.Context, acct *accounts.Account) error {
	p, err := c.fetchProfile(ctx, acct)
	if err != nil {
		return err
	}

	reg := registerRequest{
		User: registerUser{
			FID:         p.FID,
			Username:    p.Username,
			DisplayName: p.DisplayName,
			PFPURL:      p.PFP.URL,
		},
		Client: registerClient{
			ClientFID: frameClientFID,
			Added:     true,
			NotificationDetails: notificationDetails{
				Token: uuid.NewString(),
				URL:   notificationURL,
			},
		},
	}
	if err := c.doJSON(ctx, http.MethodPost, c.versusBase+"/v1/user/add", acct.Token, reg, nil); err != nil {
		return err
	}

	notif := notificationRequest{
		FID:       p.FID,
		ClientFID: frameClientFID,
		NotificationDetails: notificationDetails{
			Token: uuid.NewString(),
			URL:   notificationURL,
		},
	}
	if err := c.doJSON(ctx, http.MethodPost, c.versusBase+"/v1/user/notification", acct.Token, notif, nil); err != nil {
		c.log.WithError(err).Debug("notification setup failed")
	}
	return nil
}

func (c *Client) fetchProfile(ctx context.Context, acct *accounts.Account) (profile, error) {
	var resp meResponse
	if err := c.doJSON(ctx, http.MethodGet, c.warpcastBase+"/v2/me", acct.Token, nil, &resp); err != nil {
		return profile{}, err
	}
	if resp.Result.User.FID == 0 {
		return profile{}, fmt.Errorf("identity response carried no fid")
	}
	return resp.Result.User, nil
}

func (c *Client) ensureIdentity(ctx context.Context, acct *accounts.Account) error {
	if acct.Resolved() {
		return nil
	}
	return c.ResolveIdentity(ctx, acct)
}

// statusError carries a non-2xx response so callers can branch on the code.
type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("remote returned %d: %s", e.code, e.message)
	}
	return fmt.Sprintf("remote returned %d", e.code)
}

// doJSON performs one request with the standard headers and decodes the
// response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, url, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &statusError{code: resp.StatusCode}
		var apiErr apiError
		if data, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096)); readErr == nil {
			if json.Unmarshal(data, &apiErr) == nil {
				se.message = apiErr.Message
			}
		}
		return se
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
