package transport_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sharedview/sharedview/pkg/exchange"
	"github.com/sharedview/sharedview/pkg/psi"
	"github.com/sharedview/sharedview/pkg/segment"
	"github.com/sharedview/sharedview/pkg/transport"
)

func newServer(t *testing.T, content string) (*httptest.Server, *exchange.Responder) {
	t.Helper()
	responder, err := exchange.NewResponder(segment.SplitText(content, segment.Line), exchange.Config{})
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(transport.NewServer(responder).Handler())
	t.Cleanup(srv.Close)
	return srv, responder
}

func TestFullSessionOverHTTP(t *testing.T) {
	srv, _ := newServer(t, "B\nC\nD")

	initiator := exchange.NewInitiator(transport.NewClient(srv.URL), exchange.Config{Reveal: psi.RevealMembership})
	result, err := initiator.Intersect(context.Background(), segment.SplitText("A\nB\nC", segment.Line))
	if err != nil {
		t.Fatal(err)
	}
	if result.Size != 2 || len(result.Members) != 2 || result.Members[0] != 1 || result.Members[1] != 2 {
		t.Errorf("expected members [1 2], got size %d members %v", result.Size, result.Members)
	}
}

func TestIncrementalOverHTTP(t *testing.T) {
	srv, _ := newServer(t, "B\nC\nD")

	initiator := exchange.NewInitiator(transport.NewClient(srv.URL), exchange.Config{Reveal: psi.RevealMembership})
	result, err := initiator.IntersectIncremental(context.Background(), segment.SplitText("A\nB\nC", segment.Line))
	if err != nil {
		t.Fatal(err)
	}
	if result.Size != 2 || len(result.Members) != 2 || result.Members[0] != 1 || result.Members[1] != 2 {
		t.Errorf("expected members [1 2], got size %d members %v", result.Size, result.Members)
	}
}

func TestQueryStatuses(t *testing.T) {
	srv, _ := newServer(t, "A\nB")
	client := transport.NewClient(srv.URL)

	// member: 200 with a payload
	payload, member, err := client.Query(context.Background(), 0, []byte("A"))
	if err != nil || !member || len(payload) == 0 {
		t.Errorf("expected a membership payload, got %v %v %v", payload, member, err)
	}

	// non-member: the explicit 204 status, no error
	payload, member, err = client.Query(context.Background(), 0, []byte("Z"))
	if err != nil || member || payload != nil {
		t.Errorf("expected a plain non-membership, got %v %v %v", payload, member, err)
	}

	// an index past the responder's own count is still answered: it names
	// a position in the querying side's sequence, not the responder's
	payload, member, err = client.Query(context.Background(), 9, []byte("A"))
	if err != nil || !member || len(payload) == 0 {
		t.Errorf("expected a membership payload, got %v %v %v", payload, member, err)
	}

	// negative index: 400, surfaced as an error
	if _, _, err := client.Query(context.Background(), -1, []byte("A")); !errors.Is(err, transport.ErrStatus) {
		t.Errorf("expected ErrStatus, got %v", err)
	}
}

func TestBadTileIndexRejected(t *testing.T) {
	srv, _ := newServer(t, "A")

	resp, err := http.Post(srv.URL+transport.QueryPath+"?tile_idx=banana", "application/octet-stream", bytes.NewReader([]byte("A")))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRequestBeforeSetupRejected(t *testing.T) {
	srv, _ := newServer(t, "A")

	resp, err := http.Post(srv.URL+transport.RequestPath, "application/octet-stream", bytes.NewReader(make([]byte, psi.EncodedLen)))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSetupHintOptional(t *testing.T) {
	// a missing count hint degrades tuning but must never fail
	srv, _ := newServer(t, "A\nB")

	req, _ := http.NewRequest(http.MethodGet, srv.URL+transport.SetupPath, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 without a hint, got %d", resp.StatusCode)
	}
}

func TestMethodEnforcement(t *testing.T) {
	srv, _ := newServer(t, "A")

	resp, err := http.Post(srv.URL+transport.SetupPath, "application/octet-stream", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", resp.StatusCode)
	}
}
