// Package transport carries the opaque protocol blobs over HTTP. It has no
// cryptographic meaning: blob internals belong to the intersection engine
// and link level encryption is assumed supplied by the hosting environment.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/sharedview/sharedview/pkg/exchange"
	"github.com/sharedview/sharedview/pkg/log"
	"github.com/sharedview/sharedview/pkg/psi"
)

const (
	// SetupPath serves the responder's setup blob; the initiator
	// advertises its element count in CountHeader.
	SetupPath = "/setup"
	// RequestPath exchanges a request blob for a response blob.
	RequestPath = "/request"
	// QueryPath answers one incremental micro exchange; the element
	// index rides in the tile_idx query parameter and the canonical
	// bytes in the body.
	QueryPath = "/get_tile_intersection"

	// CountHeader advertises the initiator's element count on setup.
	CountHeader = "X-Element-Count"

	contentType = "application/octet-stream"
	queryParam  = "tile_idx"
)

// ErrStatus is triggered by any non success HTTP status; it aborts the
// whole session.
var ErrStatus = fmt.Errorf("unexpected status from the remote side")

// Client implements exchange.Transport against a responder's HTTP server.
type Client struct {
	base string
	hc   *http.Client
}

// NewClient returns a client for the responder at base, e.g.
// "http://127.0.0.1:6667".
func NewClient(base string) *Client {
	return &Client{base: base, hc: &http.Client{}}
}

// FetchSetup advertises countHint and retrieves the setup blob.
func (c *Client) FetchSetup(ctx context.Context, countHint int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+SetupPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(CountHeader, strconv.FormatInt(countHint, 10))
	return c.do(req, http.StatusOK)
}

// Exchange sends the request blob and retrieves the response blob.
func (c *Client) Exchange(ctx context.Context, request []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+RequestPath, bytes.NewReader(request))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return c.do(req, http.StatusOK)
}

// Query runs one micro exchange. A 200 carries the membership payload, a
// 204 is the explicit non-membership status; anything else, transport
// failures included, is an error that must abort the run.
func (c *Client) Query(ctx context.Context, index int64, canon []byte) ([]byte, bool, error) {
	url := fmt.Sprintf("%s%s?%s=%d", c.base, QueryPath, queryParam, index)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(canon))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, err
		}
		return payload, true, nil
	case http.StatusNoContent:
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("%w: %s on %s", ErrStatus, resp.Status, QueryPath)
	}
}

func (c *Client) do(req *http.Request, want int) ([]byte, error) {
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != want {
		return nil, fmt.Errorf("%w: %s on %s", ErrStatus, resp.Status, req.URL.Path)
	}
	return io.ReadAll(resp.Body)
}

// Server exposes one responder session over HTTP.
type Server struct {
	r *exchange.Responder
}

// NewServer wraps r.
func NewServer(r *exchange.Responder) *Server {
	return &Server{r: r}
}

// Handler returns the route table of the wire protocol.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(SetupPath, s.handleSetup)
	mux.HandleFunc(RequestPath, s.handleRequest)
	mux.HandleFunc(QueryPath, s.handleQuery)
	return mux
}

func (s *Server) handleSetup(w http.ResponseWriter, req *http.Request) {
	logger := log.GetLoggerFromContextWithName(req.Context(), "transport")
	if req.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// an absent or unparsable hint is not an error
	hint, _ := strconv.ParseInt(req.Header.Get(CountHeader), 10, 64)
	blob, err := s.r.ServeSetup(req.Context(), hint)
	if err != nil {
		logger.Error(err, "failed to serve setup")
		http.Error(w, "setup failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(blob)
}

func (s *Server) handleRequest(w http.ResponseWriter, req *http.Request) {
	logger := log.GetLoggerFromContextWithName(req.Context(), "transport")
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	request, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, "unreadable request", http.StatusBadRequest)
		return
	}
	response, err := s.r.ProcessRequest(req.Context(), request)
	if err != nil {
		logger.Error(err, "failed to process request")
		if errors.Is(err, exchange.ErrState) || errors.Is(err, psi.ErrMalformedRequest) || errors.Is(err, psi.ErrBadPoint) {
			http.Error(w, "bad request blob", http.StatusBadRequest)
		} else {
			http.Error(w, "request failed", http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(response)
}

func (s *Server) handleQuery(w http.ResponseWriter, req *http.Request) {
	logger := log.GetLoggerFromContextWithName(req.Context(), "transport")
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	index, err := strconv.ParseInt(req.URL.Query().Get(queryParam), 10, 64)
	if err != nil {
		http.Error(w, "bad tile index", http.StatusBadRequest)
		return
	}
	canon, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, "unreadable element", http.StatusBadRequest)
		return
	}
	payload, member, err := s.r.QueryElement(index, canon)
	if err != nil {
		if errors.Is(err, exchange.ErrIndexRange) {
			http.Error(w, "tile index out of range", http.StatusBadRequest)
			return
		}
		logger.Error(err, "failed to answer query")
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if !member {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(payload)
}
