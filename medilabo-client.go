package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/medilabo/medilabo-cli/medilabo"
	"github.com/pquerna/otp/totp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"
)

var (
	ErrNotAuthenticated = errors.New("no session found, run 'medilabo login' first")
	ErrUnauthorized     = errors.New("session rejected by the gateway, run 'medilabo login' again")
	ErrForbidden        = errors.New("access denied by the gateway for the current user")
	ErrNotFound         = errors.New("resource not found")
	ErrLoginRejected    = errors.New("login rejected")
)

type MedilaboClient struct {
	BaseURL       string
	AlertPath     string
	TotpSecretKey string

	session    SessionStore
	httpClient *http.Client
}

func NewMedilaboClient(config Config, session SessionStore) (*MedilaboClient, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &MedilaboClient{
		BaseURL:       config.GatewayURL,
		AlertPath:     config.AlertPath,
		TotpSecretKey: config.TotpSecretKey,
		session:       session,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: config.HTTPTimeout,
		},
	}, nil
}

// Login exchanges credentials for a token and stores it. Nothing is stored
// unless the gateway answers with a success status and a non-empty token.
func (c *MedilaboClient) Login(ctx context.Context, username string, password string) error {
	request := medilabo.LoginRequest{
		Username: username,
		Password: password,
	}
	if c.TotpSecretKey != "" {
		code, err := totp.GenerateCode(c.TotpSecretKey, time.Now())
		if err != nil {
			return fmt.Errorf("failed to generate TOTP code: %w", err)
		}
		request.Code = code
	}

	status, body, err := c.send(ctx, http.MethodPost, "/utilisateur/login", nil, request, false)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		message := strings.TrimSpace(string(body))
		if message == "" {
			message = "invalid username or password"
		}
		return fmt.Errorf("%w: %s", ErrLoginRejected, message)
	}
	if status < 200 || status > 299 {
		return decodeError(status, body)
	}

	var response medilabo.LoginResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return fmt.Errorf("failed to decode login response: %w", err)
	}
	if !response.Succeeded() {
		return fmt.Errorf("%w: unexpected login response status '%s'", ErrLoginRejected, response.Status)
	}

	if err := c.session.Set(ctx, response.Token); err != nil {
		return err
	}
	log.Debugf("session token stored for user '%s'", username)
	return nil
}

func (c *MedilaboClient) Logout(ctx context.Context) error {
	return c.session.Clear(ctx)
}

func (c *MedilaboClient) doJSON(ctx context.Context, method string, path string, query url.Values, in interface{}, out interface{}) error {
	status, body, err := c.send(ctx, method, path, query, in, true)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return decodeError(status, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response of %s %s: %w", method, path, err)
	}
	return nil
}

func (c *MedilaboClient) doText(ctx context.Context, method string, path string, query url.Values) (string, error) {
	status, body, err := c.send(ctx, method, path, query, nil, true)
	if err != nil {
		return "", err
	}
	if status < 200 || status > 299 {
		return "", decodeError(status, body)
	}
	return strings.TrimSpace(string(body)), nil
}

func (c *MedilaboClient) send(ctx context.Context, method string, path string, query url.Values, in interface{}, authenticated bool) (int, []byte, error) {
	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to serialize request body for %s %s: %w", method, path, err)
		}
		payload = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request %s %s: %w", method, path, err)
	}
	requestID := uuid.New().String()
	request.Header.Set("X-Request-ID", requestID)
	request.Header.Set("Accept", "application/json, text/plain")
	if in != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		token, ok, err := c.session.Get(ctx)
		if err != nil {
			return 0, nil, err
		}
		if !ok {
			return 0, nil, ErrNotAuthenticated
		}
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to reach the MediLabo gateway (%s %s): %w", method, path, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response of %s %s: %w", method, path, err)
	}

	log.WithFields(log.Fields{
		"method":     method,
		"path":       path,
		"status":     response.StatusCode,
		"request_id": requestID,
	}).Debug("gateway call")

	return response.StatusCode, body, nil
}

func decodeError(status int, body []byte) error {
	switch status {
	case http.StatusBadRequest:
		if validationErr, ok := medilabo.DecodeValidationError(body); ok {
			return validationErr
		}
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		message := strings.TrimSpace(string(body))
		if message == "" {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %s", ErrNotFound, message)
	}
	return &medilabo.APIError{StatusCode: status, Body: strings.TrimSpace(string(body))}
}
