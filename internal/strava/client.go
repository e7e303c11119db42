package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"reroute/internal/auth"
	"reroute/internal/domain"
)

const (
	BaseURL        = "https://www.strava.com/api/v3"
	requestTimeout = 10 * time.Second
)

// DefaultStreamKeys is the stream set the plan pipeline requests for recent
// activities.
var DefaultStreamKeys = []string{"time", "distance", "heartrate", "cadence", "watts", "moving"}

// Client is a Strava API client implementing domain.ActivityProvider. It
// looks up per-user credentials, refreshes tokens as needed and classifies
// API failures with the domain sentinel errors.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	oauthConfig *oauth2.Config
	creds       CredentialStore
	rateLimiter *RateLimiter
	sleep       func(time.Duration)

	mu      sync.Mutex
	sources map[int64]*auth.TokenSource
}

// NewClient creates a Strava client backed by the given credential store.
func NewClient(oauthConfig *oauth2.Config, creds CredentialStore) *Client {
	return &Client{
		baseURL:     BaseURL,
		httpClient:  &http.Client{Timeout: requestTimeout},
		oauthConfig: oauthConfig,
		creds:       creds,
		rateLimiter: NewRateLimiter(),
		sleep:       time.Sleep,
		sources:     make(map[int64]*auth.TokenSource),
	}
}

// RateLimitRemaining reports requests left in Strava's two quota windows.
func (c *Client) RateLimitRemaining() (short, daily int) {
	return c.rateLimiter.Remaining()
}

// ListActivities fetches a page of the user's activities, most recent first.
func (c *Client) ListActivities(ctx context.Context, userID int64, page, perPage int) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	var payload any
	if err := c.getJSON(ctx, userID, "/athlete/activities", params, &payload); err != nil {
		return nil, err
	}
	return asObjectList(payload), nil
}

// GetActivity fetches a single activity by id.
func (c *Client) GetActivity(ctx context.Context, userID, activityID int64, includeAllEfforts bool) (map[string]any, error) {
	params := url.Values{}
	params.Set("include_all_efforts", strconv.FormatBool(includeAllEfforts))

	var payload map[string]any
	path := fmt.Sprintf("/activities/%d", activityID)
	if err := c.getJSON(ctx, userID, path, params, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// GetActivityStreams fetches raw sample streams for an activity. With
// keyByType the result is keyed by stream name; otherwise Strava returns a
// list, which is re-keyed by each stream's type for a uniform shape.
func (c *Client) GetActivityStreams(ctx context.Context, userID, activityID int64, keys []string, keyByType bool) (map[string]any, error) {
	if len(keys) == 0 {
		keys = DefaultStreamKeys
	}
	params := url.Values{}
	params.Set("keys", strings.Join(keys, ","))
	params.Set("key_by_type", strconv.FormatBool(keyByType))

	var payload any
	path := fmt.Sprintf("/activities/%d/streams", activityID)
	if err := c.getJSON(ctx, userID, path, params, &payload); err != nil {
		return nil, err
	}
	return asStreamSet(payload), nil
}

// GetAthleteProfile fetches the authenticated athlete's profile.
func (c *Client) GetAthleteProfile(ctx context.Context, userID int64) (map[string]any, error) {
	var payload map[string]any
	if err := c.getJSON(ctx, userID, "/athlete", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// GetAthleteStats fetches the athlete's lifetime and recent totals.
func (c *Client) GetAthleteStats(ctx context.Context, userID int64) (map[string]any, error) {
	athleteID, err := c.athleteID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	path := fmt.Sprintf("/athletes/%d/stats", athleteID)
	if err := c.getJSON(ctx, userID, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// ListStarredSegments fetches a page of the user's starred segments.
func (c *Client) ListStarredSegments(ctx context.Context, userID int64, page, perPage int) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	var payload any
	if err := c.getJSON(ctx, userID, "/segments/starred", params, &payload); err != nil {
		return nil, err
	}
	return asObjectList(payload), nil
}

// ExploreSegments searches for popular segments inside a lat/lng bounds box.
func (c *Client) ExploreSegments(ctx context.Context, userID int64, bounds, activityType string) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("bounds", bounds)
	if activityType != "" {
		params.Set("activity_type", activityType)
	}

	var payload any
	if err := c.getJSON(ctx, userID, "/segments/explore", params, &payload); err != nil {
		return nil, err
	}
	if m, ok := payload.(map[string]any); ok {
		return asObjectList(m["segments"]), nil
	}
	return asObjectList(payload), nil
}

// GetSegment fetches a segment by id.
func (c *Client) GetSegment(ctx context.Context, userID, segmentID int64) (map[string]any, error) {
	var payload map[string]any
	path := fmt.Sprintf("/segments/%d", segmentID)
	if err := c.getJSON(ctx, userID, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// ListRoutes fetches the athlete's saved routes.
func (c *Client) ListRoutes(ctx context.Context, userID int64) ([]map[string]any, error) {
	athleteID, err := c.athleteID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var payload any
	path := fmt.Sprintf("/athletes/%d/routes", athleteID)
	if err := c.getJSON(ctx, userID, path, nil, &payload); err != nil {
		return nil, err
	}
	return asObjectList(payload), nil
}

// GetRoute fetches a route by id.
func (c *Client) GetRoute(ctx context.Context, userID, routeID int64) (map[string]any, error) {
	var payload map[string]any
	path := fmt.Sprintf("/routes/%d", routeID)
	if err := c.getJSON(ctx, userID, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// GetRouteStreams fetches distance/elevation streams for a route, keyed by
// stream type.
func (c *Client) GetRouteStreams(ctx context.Context, userID, routeID int64, keys []string) (map[string]any, error) {
	params := url.Values{}
	if len(keys) > 0 {
		params.Set("keys", strings.Join(keys, ","))
	}

	var payload any
	path := fmt.Sprintf("/routes/%d/streams", routeID)
	if err := c.getJSON(ctx, userID, path, params, &payload); err != nil {
		return nil, err
	}
	return asStreamSet(payload), nil
}

// tokenSource returns the cached per-user token source, creating one from
// the stored credential on first use. Refreshed tokens are written back to
// the store because Strava rotates refresh tokens.
func (c *Client) tokenSource(ctx context.Context, userID int64) (*auth.TokenSource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ts, ok := c.sources[userID]; ok {
		return ts, nil
	}

	cred, err := c.creds.CredentialForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotLinked) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: loading credential: %v", domain.ErrUpstream, err)
	}

	ts := auth.NewTokenSource(c.oauthConfig, cred.Token(), func(tok *oauth2.Token) error {
		return c.creds.SaveCredential(context.Background(), &Credential{
			UserID:       cred.UserID,
			AthleteID:    cred.AthleteID,
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
			TokenType:    tok.TokenType,
			Scope:        cred.Scope,
			ExpiresAt:    tok.Expiry,
		})
	})
	c.sources[userID] = ts
	return ts, nil
}

func (c *Client) athleteID(ctx context.Context, userID int64) (int64, error) {
	cred, err := c.creds.CredentialForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotLinked) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: loading credential: %v", domain.ErrUpstream, err)
	}
	if cred.AthleteID == 0 {
		return 0, fmt.Errorf("%w: athlete id missing from credential", domain.ErrUpstream)
	}
	return cred.AthleteID, nil
}

// getJSON performs an authenticated GET and decodes the response. On 401 it
// forces one token refresh and retries; on 429 it sleeps for Retry-After and
// retries once before giving up with ErrRateLimited.
func (c *Client) getJSON(ctx context.Context, userID int64, path string, params url.Values, out any) error {
	ts, err := c.tokenSource(ctx, userID)
	if err != nil {
		return err
	}

	tok, err := ts.Token(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	resp, err := c.do(ctx, tok.AccessToken, path, params)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", domain.ErrUpstream, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		ts.Invalidate()
		tok, err = ts.Token(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}
		resp, err = c.do(ctx, tok.AccessToken, path, params)
		if err != nil {
			return fmt.Errorf("%w: GET %s: %v", domain.ErrUpstream, path, err)
		}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := time.Second
		if s := resp.Header.Get("Retry-After"); s != "" {
			if secs, parseErr := strconv.ParseFloat(s, 64); parseErr == nil {
				retryAfter = time.Duration(secs * float64(time.Second))
			}
		}
		resp.Body.Close()
		c.sleep(retryAfter)
		resp, err = c.do(ctx, tok.AccessToken, path, params)
		if err != nil {
			return fmt.Errorf("%w: GET %s: %v", domain.ErrUpstream, path, err)
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			return fmt.Errorf("%w: GET %s", domain.ErrRateLimited, path)
		}
	}

	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decoding %s: %v", domain.ErrUpstream, path, err)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: GET %s", domain.ErrNotFound, path)
	default:
		return fmt.Errorf("%w: GET %s returned %d", domain.ErrUpstream, path, resp.StatusCode)
	}
}

func (c *Client) do(ctx context.Context, accessToken, path string, params url.Values) (*http.Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	c.rateLimiter.Observe(resp.Header)
	return resp, nil
}

// asObjectList narrows a decoded payload to a list of JSON objects,
// dropping anything else.
func asObjectList(payload any) []map[string]any {
	items, ok := payload.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

// asStreamSet normalizes a streams payload to a map keyed by stream type.
// Strava returns a keyed object with key_by_type and a list otherwise.
func asStreamSet(payload any) map[string]any {
	if m, ok := payload.(map[string]any); ok {
		return m
	}
	out := make(map[string]any)
	for _, item := range asObjectList(payload) {
		if typ, ok := item["type"].(string); ok {
			out[typ] = item
		}
	}
	return out
}
