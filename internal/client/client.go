package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"gitlab.com/dirk.krummacker/person-palace/internal/logging"
	"gitlab.com/dirk.krummacker/person-palace/pkg/model"
)

// maxErrorBody limits how much of an error response is kept in a RequestError.
const maxErrorBody = 4096

// Client talks to the persons REST API below a fixed root URL. Every method performs exactly
// one HTTP round trip and never retries.
type Client struct {
	root string
	http *http.Client
	log  logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client, e.g. to set a timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger for request logging.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a client for the API below root, e.g. "http://localhost:8080".
func New(root string, opts ...Option) *Client {
	c := &Client{
		root: strings.TrimRight(root, "/"),
		http: http.DefaultClient,
		log:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns all persons in the order the server returns them.
func (c *Client) List(ctx context.Context) ([]model.Person, error) {
	body, err := c.do(ctx, OpFetch, http.MethodGet, "/persons", nil)
	if err != nil {
		return nil, err
	}
	var persons []model.Person
	if err := json.Unmarshal(body, &persons); err != nil {
		return nil, errors.Wrap(err, message(OpFetch))
	}
	if persons == nil {
		persons = []model.Person{}
	}
	return persons, nil
}

// Get returns the person with the given id.
func (c *Client) Get(ctx context.Context, id string) (model.Person, error) {
	var person model.Person
	body, err := c.do(ctx, OpFetch, http.MethodGet, "/persons/"+url.PathEscape(id), nil)
	if err != nil {
		return person, err
	}
	if err := json.Unmarshal(body, &person); err != nil {
		return person, errors.Wrap(err, message(OpFetch))
	}
	return person, nil
}

// Create creates a person and returns it including the identifier assigned by the server.
func (c *Client) Create(ctx context.Context, in model.PersonCreate) (model.Person, error) {
	var created model.Person
	body, err := c.do(ctx, OpCreate, http.MethodPost, "/persons", in)
	if err != nil {
		return created, err
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return created, errors.Wrap(err, message(OpCreate))
	}
	return created, nil
}

// Update changes the set fields of the person with the given id and returns the new version.
func (c *Client) Update(ctx context.Context, id string, in model.PersonUpdate) (model.Person, error) {
	var updated model.Person
	body, err := c.do(ctx, OpUpdate, http.MethodPut, "/persons/"+url.PathEscape(id), in)
	if err != nil {
		return updated, err
	}
	if err := json.Unmarshal(body, &updated); err != nil {
		return updated, errors.Wrap(err, message(OpUpdate))
	}
	return updated, nil
}

// Delete deletes the person with the given id.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, OpDelete, http.MethodDelete, "/persons/"+url.PathEscape(id), nil)
	return err
}

// do sends the request and returns the response body of a 2xx response. Any other status is
// turned into a RequestError.
func (c *Client) do(ctx context.Context, op string, method string, path string, payload interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, message(op))
		}
		bodyReader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.root+path, bodyReader)
	if err != nil {
		return nil, errors.Wrap(err, message(op))
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	before := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.log.WithFields(logrus.Fields{"op": op, "method": method, "path": path}).
			WithError(err).Debug("request failed")
		return nil, errors.Wrap(err, message(op))
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, message(op))
	}
	c.log.WithFields(logrus.Fields{
		"op":       op,
		"method":   method,
		"path":     path,
		"status":   res.StatusCode,
		"duration": time.Since(before),
	}).Debug("request done")

	if res.StatusCode < 200 || res.StatusCode > 299 {
		if len(resBody) > maxErrorBody {
			resBody = resBody[:maxErrorBody]
		}
		return nil, &RequestError{Op: op, StatusCode: res.StatusCode, Body: string(resBody)}
	}
	return resBody, nil
}
