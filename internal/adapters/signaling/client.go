// Package signaling speaks the vendor's request/response live view protocol.
package signaling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dkeye/liveview/internal/core"
	"github.com/dkeye/liveview/internal/domain"
	"github.com/rs/zerolog/log"
)

const maxResponseBody = 1 << 20

type Config struct {
	BaseURL        string
	HardwareHeader string
	Timeout        time.Duration
}

// Client implements core.Signaler over plain HTTP calls.
type Client struct {
	baseURL    string
	header     string
	tokens     core.TokenProvider
	httpClient *http.Client
}

var _ core.Signaler = (*Client)(nil)

func NewClient(cfg Config, tokens core.TokenProvider) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("signaling: base url is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("signaling: token provider is required")
	}
	if cfg.HardwareHeader == "" {
		cfg.HardwareHeader = DefaultHardwareHeader
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		header:     cfg.HardwareHeader,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *Client) StartSession(ctx context.Context, sid core.SessionID, deviceID domain.DeviceID, offerSDP string) (string, error) {
	req := startRequest{SessionID: sid, DeviceID: deviceID, SDP: offerSDP, Protocol: protocolWebRTC}
	if err := req.validate(); err != nil {
		return "", fmt.Errorf("signaling: start: %w", err)
	}

	status, body, err := c.do(ctx, http.MethodPost, pathStart, req)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		log.Warn().Str("module", "signaling").Str("sid", string(sid)).
			Int("status", status).Msg("start session rejected")
		return "", &SessionCreationError{StatusCode: status}
	}

	var resp startResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSessionResponse, err)
	}
	answer, err := resp.answer()
	if err != nil {
		return "", err
	}
	log.Info().Str("module", "signaling").Str("sid", string(sid)).
		Int64("device", int64(deviceID)).Msg("session started")
	return answer, nil
}

func (c *Client) ActivateDevice(ctx context.Context, sid core.SessionID) error {
	req := optionsRequest{SessionID: sid, Actions: []string{actionTurnOffStealth}}
	status, _, err := c.do(ctx, http.MethodPatch, pathOptions, req)
	if err != nil {
		log.Warn().Err(err).Str("module", "signaling").Str("sid", string(sid)).Msg("activate device")
		return err
	}
	if status < 200 || status > 299 {
		log.Warn().Str("module", "signaling").Str("sid", string(sid)).
			Int("status", status).Msg("activate device rejected")
		return fmt.Errorf("signaling: activate device: status %d", status)
	}
	return nil
}

func (c *Client) EndSession(ctx context.Context, sid core.SessionID) error {
	status, _, err := c.do(ctx, http.MethodPost, pathEnd, endRequest{SessionID: sid})
	if err != nil {
		log.Warn().Err(err).Str("module", "signaling").Str("sid", string(sid)).Msg("end session")
		return err
	}
	log.Debug().Str("module", "signaling").Str("sid", string(sid)).Int("status", status).Msg("session ended")
	return nil
}

// do sends one authenticated JSON request and returns the status and the raw body.
func (c *Client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	op := strings.TrimPrefix(path, "/")
	creds, err := c.tokens.Credentials(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("signaling: %s: credentials: %w", op, err)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("signaling: %s: encode: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return 0, nil, &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+creds.BearerToken)
	req.Header.Set(c.header, creds.HardwareID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return resp.StatusCode, nil, &NetworkError{Op: op, Err: err}
	}
	return resp.StatusCode, body, nil
}
