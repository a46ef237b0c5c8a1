package main

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
)

func TestLazyProxyServesHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	builds := 0
	p := &lazyProxy{build: func() (*gin.Engine, error) {
		builds++
		r := gin.New()
		r.GET("/api/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
		return r, nil
	}}

	req := events.APIGatewayV2HTTPRequest{
		RawPath: "/api/health",
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{Method: http.MethodGet, Path: "/api/health"},
		},
	}
	for i := 0; i < 2; i++ {
		resp, err := p.handle(context.Background(), req)
		if err != nil {
			t.Fatalf("handle: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", resp.StatusCode, resp.Body)
		}
	}
	if builds != 1 {
		t.Fatalf("expected router to be built once, got %d", builds)
	}
}

func TestLazyProxyBootstrapFailure(t *testing.T) {
	p := &lazyProxy{build: func() (*gin.Engine, error) { return nil, errors.New("DATABASE_URL is required") }}
	resp, err := p.handle(context.Background(), events.APIGatewayV2HTTPRequest{})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}
