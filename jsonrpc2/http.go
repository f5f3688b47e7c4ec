package jsonrpc2

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
)

const httpContentType = "application/json"

var _ Poster = &HTTPService{}

// HTTPService is a request/response Poster over HTTP POST. Both single and
// batched exchanges go through the same endpoint.
type HTTPService struct {
	HTTPClient http.Client

	// Endpoint is the HTTP URL to dial for RPC exchanges.
	Endpoint string
	// MaxContentLength is the response size limit (optional)
	MaxContentLength int64
}

// Post sends body and returns the reply body. Non-2xx statuses return
// *HTTPRequestError carrying the raw failure body.
func (service *HTTPService) Post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequest(http.MethodPost, service.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", httpContentType)
	req.Header.Set("Accept", httpContentType)
	req = req.WithContext(ctx)

	resp, err := service.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var r io.Reader = resp.Body
	if service.MaxContentLength > 0 {
		if resp.ContentLength > service.MaxContentLength {
			return nil, &HTTPRequestError{
				Status: resp.StatusCode,
				Reason: "response too large",
			}
		}
		r = io.LimitReader(resp.Body, service.MaxContentLength)
	}
	respBody, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPRequestError{
			Status: resp.StatusCode,
			Body:   respBody,
			Reason: fmt.Sprintf("bad status code: %d", resp.StatusCode),
		}
	}
	return respBody, nil
}
