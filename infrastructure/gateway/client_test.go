package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	domainGateway "github.com/wadesk/wadesk/domains/gateway"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

func TestSendTextFirstShapeWins(t *testing.T) {
	c := NewClient("https://gw.test", "main", "secret")

	var bodies []map[string]any
	c.httpClient = &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			raw, _ := io.ReadAll(req.Body)
			var payload map[string]any
			_ = json.Unmarshal(raw, &payload)
			bodies = append(bodies, payload)
			return jsonResponse(http.StatusOK, `{"key":{"id":"MSG-1"}}`), nil
		}),
	}

	resp, err := c.SendText(context.Background(), "+573001112222", "hola")
	if err != nil {
		t.Fatalf("SendText() unexpected error: %v", err)
	}
	if resp.MessageID != "MSG-1" {
		t.Fatalf("expected message id MSG-1, got %q", resp.MessageID)
	}
	if len(bodies) != 1 {
		t.Fatalf("expected exactly one attempt, got %d", len(bodies))
	}
	if bodies[0]["text"] != "hola" {
		t.Fatalf("first shape should be flat, got %#v", bodies[0])
	}
}

func TestSendTextFallsBackToNextShape(t *testing.T) {
	c := NewClient("https://gw.test", "main", "secret")

	var attempts int
	c.httpClient = &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			attempts++
			if attempts == 1 {
				return jsonResponse(http.StatusBadRequest, `{"error":"unknown field text"}`), nil
			}
			return jsonResponse(http.StatusCreated, `{"key":{"id":"MSG-2"}}`), nil
		}),
	}

	resp, err := c.SendText(context.Background(), "+573001112222", "hola")
	if err != nil {
		t.Fatalf("SendText() unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
	if resp.MessageID != "MSG-2" {
		t.Fatalf("unexpected message id %q", resp.MessageID)
	}
}

func TestSendMediaAllShapesFail(t *testing.T) {
	c := NewClient("https://gw.test", "main", "secret")

	var attempts int
	c.httpClient = &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			attempts++
			return jsonResponse(http.StatusInternalServerError, `{"error":"boom"}`), nil
		}),
	}

	_, err := c.SendMedia(context.Background(), domainGateway.SendMediaRequest{
		Number:    "+573001112222",
		MediaType: "image",
		MediaURL:  "https://gw.test/statics/media/x.jpg",
		Caption:   "hola",
	})
	if err == nil {
		t.Fatal("expected error when every shape fails")
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts (one per shape), got %d", attempts)
	}
}

func TestSendSetsAPIKeyHeader(t *testing.T) {
	c := NewClient("https://gw.test", "main", "secret")

	var gotKey, gotURL string
	c.httpClient = &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			gotKey = req.Header.Get("apikey")
			gotURL = req.URL.String()
			return jsonResponse(http.StatusOK, `{}`), nil
		}),
	}

	if _, err := c.SendText(context.Background(), "+573001112222", "hola"); err != nil {
		t.Fatalf("SendText() unexpected error: %v", err)
	}
	if gotKey != "secret" {
		t.Fatalf("apikey header not set, got %q", gotKey)
	}
	if gotURL != "https://gw.test/message/sendText/main" {
		t.Fatalf("unexpected URL %q", gotURL)
	}
}

func TestFetchGroupInfoTriesPathVariants(t *testing.T) {
	c := NewClient("https://gw.test", "main", "secret")

	var urls []string
	c.httpClient = &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			urls = append(urls, req.URL.Path)
			if len(urls) < 2 {
				return jsonResponse(http.StatusNotFound, `{}`), nil
			}
			return jsonResponse(http.StatusOK, `{"id":"123@g.us","subject":"Soporte","size":12}`), nil
		}),
	}

	info, err := c.FetchGroupInfo(context.Background(), "123@g.us")
	if err != nil {
		t.Fatalf("FetchGroupInfo() unexpected error: %v", err)
	}
	if info.Subject != "Soporte" || info.Size != 12 {
		t.Fatalf("unexpected group info: %#v", info)
	}
	if urls[0] == urls[1] {
		t.Fatalf("expected different path variants, got %v", urls)
	}
}

func TestFetchBase64EmptyContentIsError(t *testing.T) {
	c := NewClient("https://gw.test", "main", "secret")
	c.httpClient = &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, `{"mimetype":"image/jpeg"}`), nil
		}),
	}

	if _, err := c.FetchBase64(context.Background(), "MSG-1"); err == nil {
		t.Fatal("expected error when gateway returns no base64 payload")
	}
}
