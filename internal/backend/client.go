// Package backend is HTTP client of kiosk server API.
// Every call goes through circuit breaker; caller decides safe default on error.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/juju/errors"
	"github.com/sony/gobreaker"

	"github.com/podline/kiosk/helpers"
	"github.com/podline/kiosk/log2"
)

const defaultTimeout = 5 * time.Second

type Client struct {
	base    *url.URL
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	log     *log2.Log
	timeout time.Duration
}

// StatusError is non-2xx response. 4xx do not count as breaker failures.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s %s status=%d body=%q", e.Method, e.Path, e.Code, e.Body)
}

func IsStatus(err error, code int) bool {
	se, ok := errors.Cause(err).(*StatusError)
	return ok && se.Code == code
}

// New client. transport may be nil for http.DefaultTransport.
func New(c Config, log *log2.Log, transport http.RoundTripper, onState StateFunc) (*Client, error) {
	raw := c.URL
	if raw == "" {
		raw = DefaultURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Annotatef(err, "backend url=%s", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.NotValidf("backend url=%s scheme", raw)
	}
	timeout := helpers.IntMillisecondDefault(c.TimeoutMs, defaultTimeout)
	self := &Client{
		base: u,
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			// login form answers with redirect to station page, we only need the status
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
		log:     log,
		timeout: timeout,
	}
	self.cb = newBreaker("backend", &c, log, onState)
	return self, nil
}

func (self *Client) BaseURL() string { return self.base.String() }

func (self *Client) URL(path string) string {
	u := *self.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

func (self *Client) BreakerState() gobreaker.State { return self.cb.State() }

type response struct {
	code int
	body []byte
	loc  string
}

// do sends request through breaker and reads whole body.
// Transport errors and 5xx are breaker failures.
func (self *Client) do(ctx context.Context, method, path, contentType string, body []byte) (*response, error) {
	result, err := self.cb.Execute(func() (interface{}, error) {
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, self.URL(path), rd)
		if err != nil {
			return nil, err
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("Accept", "application/json")
		resp, err := self.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		r := &response{code: resp.StatusCode, body: b, loc: resp.Header.Get("Location")}
		if r.code >= 500 {
			return nil, self.statusError(method, path, r)
		}
		return r, nil
	})
	if err != nil {
		return nil, errors.Annotatef(breakerError(err), "backend %s %s", method, path)
	}
	r := result.(*response)
	if r.code >= 400 {
		return r, self.statusError(method, path, r)
	}
	return r, nil
}

func (self *Client) statusError(method, path string, r *response) error {
	body := string(r.body)
	if len(body) > 200 {
		body = body[:200]
	}
	return &StatusError{Method: method, Path: path, Code: r.code, Body: body}
}

func (self *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	r, err := self.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return err
	}
	if r.code < 200 || r.code >= 300 {
		return errors.Trace(self.statusError(http.MethodGet, path, r))
	}
	if err := json.Unmarshal(r.body, out); err != nil {
		return errors.Annotatef(err, "backend GET %s decode", path)
	}
	return nil
}

func (self *Client) sendJSON(ctx context.Context, method, path string, in interface{}) error {
	var body []byte
	if in != nil {
		var err error
		if body, err = json.Marshal(in); err != nil {
			return errors.Annotatef(err, "backend %s %s encode", method, path)
		}
	}
	r, err := self.do(ctx, method, path, "application/json", body)
	if err != nil {
		return err
	}
	if r.code < 200 || r.code >= 300 {
		return errors.Trace(self.statusError(method, path, r))
	}
	return nil
}
