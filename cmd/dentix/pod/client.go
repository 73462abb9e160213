// Package pod talks to the user's Solid pod: authenticated file reads and
// writes against the pod's HTTP surface. Timeout and retry policy live here;
// callers treat the pod as a plain file store.
package pod

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// Session carries the authenticated identity used for pod access. The WebID
// is the root against which relative upload routes are resolved.
type Session struct {
	WebID string
	Token string
}

// Client reads and writes files on a pod over HTTP with retries.
type Client struct {
	http *http.Client
	log  zerolog.Logger
}

// NewClient creates a pod client with retry and timeout defaults.
func NewClient(log zerolog.Logger) *Client {
	jar, _ := cookiejar.New(nil)
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.Logger = nil
	retryClient.HTTPClient = &http.Client{
		Jar:     jar,
		Timeout: 60 * time.Second,
	}
	return &Client{
		http: retryClient.StandardClient(),
		log:  log,
	}
}

// GetFileText fetches a pod resource and returns its body as text.
func (c *Client) GetFileText(ctx context.Context, session *Session, resource string) (string, error) {
	if session == nil {
		return "", fmt.Errorf("no pod session")
	}

	target, err := resolveRoute(session, resource)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	c.signRequest(req, session)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to read pod file %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pod read %s returned %s", target, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read pod response body: %w", err)
	}
	return string(body), nil
}

// UploadFile writes content to the pod at the given route with the given
// content type.
func (c *Client) UploadFile(ctx context.Context, session *Session, content, contentType, route string) error {
	if session == nil {
		return fmt.Errorf("no pod session")
	}

	target, err := resolveRoute(session, route)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, strings.NewReader(content))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	c.signRequest(req, session)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload pod file %s: %w", target, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("pod upload %s returned %s", target, resp.Status)
	}

	c.log.Debug().Str("route", target).Str("contentType", contentType).Msg("Uploaded file to pod")
	return nil
}

func (c *Client) signRequest(req *http.Request, session *Session) {
	if session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+session.Token)
	}
}

// resolveRoute turns a relative route into an absolute URL rooted at the
// session's WebID origin. Absolute routes pass through unchanged.
func resolveRoute(session *Session, route string) (string, error) {
	if strings.HasPrefix(route, "http://") || strings.HasPrefix(route, "https://") {
		return route, nil
	}

	webid, err := url.Parse(session.WebID)
	if err != nil || webid.Host == "" {
		return "", fmt.Errorf("invalid webId %q in pod session", session.WebID)
	}
	return webid.Scheme + "://" + webid.Host + "/" + strings.TrimPrefix(route, "/"), nil
}

// ServerOf reports the pod server host for a session, for audit records.
func ServerOf(session *Session) string {
	if session == nil {
		return ""
	}
	if u, err := url.Parse(session.WebID); err == nil && u.Host != "" {
		return u.Scheme + "://" + u.Host
	}
	return session.WebID
}
