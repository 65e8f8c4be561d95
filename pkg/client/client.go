// Package client is a Go client for the geoimg REST API.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/carlmjohnson/requests"
)

// APIError is a non-success response from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("geoimg: %d %s", e.StatusCode, e.Message)
}

// Image is a retrieved image with its coordinates
type Image struct {
	Data      []byte
	Latitude  float64
	Longitude float64
}

type uploadRequest struct {
	PNGBlob   string  `json:"pngBlob"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type uploadResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type imageResponse struct {
	PNGBlob   string  `json:"pngBlob"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client talks to one geoimg server
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for baseURL, e.g. "http://localhost:4000". A nil
// httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Upload stores image with its coordinates and returns the new id
func (c *Client) Upload(ctx context.Context, image []byte, lat, lon float64) (string, error) {
	var resp uploadResponse
	err := requests.
		URL(c.baseURL).
		Client(c.http).
		Path("/upload").
		BodyJSON(&uploadRequest{
			PNGBlob:   base64.StdEncoding.EncodeToString(image),
			Latitude:  lat,
			Longitude: lon,
		}).
		AddValidator(expectStatus(http.StatusCreated)).
		ToJSON(&resp).
		Fetch(ctx)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Fetch retrieves the image stored under id
func (c *Client) Fetch(ctx context.Context, id string) (*Image, error) {
	var resp imageResponse
	err := requests.
		URL(c.baseURL).
		Client(c.http).
		Pathf("/image/%s", id).
		AddValidator(expectStatus(http.StatusOK)).
		ToJSON(&resp).
		Fetch(ctx)
	if err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(resp.PNGBlob)
	if err != nil {
		return nil, fmt.Errorf("failed to decode pngBlob: %w", err)
	}
	return &Image{Data: data, Latitude: resp.Latitude, Longitude: resp.Longitude}, nil
}

// FetchRaw retrieves the JSON body served for id without decoding it
func (c *Client) FetchRaw(ctx context.Context, id string) ([]byte, error) {
	var buf bytes.Buffer
	err := requests.
		URL(c.baseURL).
		Client(c.http).
		Pathf("/image/%s", id).
		AddValidator(expectStatus(http.StatusOK)).
		ToBytesBuffer(&buf).
		Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Health returns nil when the server reports healthy
func (c *Client) Health(ctx context.Context) error {
	return requests.
		URL(c.baseURL).
		Client(c.http).
		Path("/health").
		AddValidator(expectStatus(http.StatusOK)).
		Fetch(ctx)
}

// expectStatus turns any other status into an *APIError carrying the server's message
func expectStatus(code int) requests.ResponseHandler {
	return func(res *http.Response) error {
		if res.StatusCode == code {
			return nil
		}
		apiErr := &APIError{StatusCode: res.StatusCode, Message: http.StatusText(res.StatusCode)}
		var body errorResponse
		if err := json.NewDecoder(res.Body).Decode(&body); err == nil && body.Error != "" {
			apiErr.Message = body.Error
		}
		return apiErr
	}
}
