package metadata

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!doctype html>
<html><head>
<title>Page Title</title>
<meta property="og:title" content="OG Title">
<meta property="og:description" content="OG description">
<meta property="og:type" content="article">
<meta name="twitter:image" content="https://example.com/card.png">
<meta name="keywords" content="go,chat">
<meta name="author" content="Ada">
</head><body></body></html>`

func TestExtract(t *testing.T) {
	md := Extract("https://example.com/post", strings.NewReader(samplePage))

	assert.Equal(t, "Page Title", md.Title)
	assert.Equal(t, "OG description", md.Description)
	assert.Equal(t, "example.com", md.SiteName)
	assert.Equal(t, "https://example.com/card.png", md.Image)
	assert.Equal(t, "https://example.com/post", md.URL)
	assert.Equal(t, "article", md.Type)
	assert.Equal(t, "go,chat", md.Keywords)
	assert.Equal(t, "Ada", md.Author)
}

func TestHTMLExtractor_Fetch(t *testing.T) {
	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 3, 2))))

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(samplePage))
		case "/pic.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(img.Bytes())
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	h := NewHTMLExtractor(time.Second)
	h.http = srv.Client()

	results, err := h.Fetch(context.Background(), []string{srv.URL + "/page", srv.URL + "/pic.png", srv.URL + "/missing"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.NotNil(t, results[0].Metadata)
	assert.Equal(t, "Page Title", results[0].Metadata.Title)
	assert.Nil(t, results[0].MediaURL)

	media := results[1].MediaURL
	require.NotNil(t, media)
	assert.True(t, media.IsImage)
	assert.Equal(t, "pic.png", media.FileName)
	require.NotNil(t, media.Width)
	assert.Equal(t, 3, *media.Width)
	assert.Equal(t, 2, *media.Height)
}

func TestHTMLExtractor_RefusesLoopback(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	h := NewHTMLExtractor(time.Second)
	_, err := h.fetchOne(context.Background(), srv.URL+"/page")
	require.ErrorIs(t, err, errBlockedAddress)

	results, err := h.Fetch(context.Background(), []string{srv.URL + "/page"})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, hits.Load(), "loopback server must never be reached")
}

func TestIsPublicAddr(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"93.184.216.34", true},
		{"2606:4700::1111", true},
		{"127.0.0.1", false},
		{"::1", false},
		{"10.1.2.3", false},
		{"172.16.0.1", false},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"fe80::1", false},
		{"fd00::1", false},
		{"0.0.0.0", false},
		{"100.64.0.1", false},
		{"224.0.0.1", false},
		{"::ffff:127.0.0.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, isPublicAddr(netip.MustParseAddr(tt.addr)))
		})
	}
}
