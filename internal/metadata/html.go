package metadata

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/liventcord/LiventCord-sub002/internal/models"
	"golang.org/x/net/html"
)

const maxPageBytes = 2 << 20

// HTMLExtractor fetches pages itself and reads their <title> and <meta> tags.
// It stands in for the media worker when none is configured.
type HTMLExtractor struct {
	http *http.Client
}

// NewHTMLExtractor returns an extractor whose client only connects to public
// addresses. The check runs on the resolved address of every dial, redirects
// included.
func NewHTMLExtractor(timeout time.Duration) *HTMLExtractor {
	dialer := &net.Dialer{Timeout: timeout, Control: publicOnly}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	return &HTMLExtractor{http: &http.Client{Timeout: timeout, Transport: transport}}
}

var errBlockedAddress = errors.New("destination address is not public")

func publicOnly(_, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("parsing dial address %q: %w", address, err)
	}
	if !isPublicAddr(ap.Addr()) {
		return fmt.Errorf("%w: %s", errBlockedAddress, ap.Addr())
	}
	return nil
}

var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("100.64.0.0/10"), // carrier-grade NAT
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
}

func isPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsValid() || addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() || addr.IsMulticast() {
		return false
	}
	for _, p := range blockedPrefixes {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}

func (h *HTMLExtractor) Fetch(ctx context.Context, urls []string) ([]Result, error) {
	var results []Result
	for _, u := range urls {
		if !strings.HasPrefix(strings.ToLower(u), "https://") {
			continue
		}
		res, err := h.fetchOne(ctx, u)
		if err != nil {
			slog.Warn("fetching link metadata failed", "url", u, "error", err)
			continue
		}
		results = append(results, res)
	}
	return results, nil
}

func (h *HTMLExtractor) fetchOne(ctx context.Context, pageURL string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Result{}, err
	}
	resp, err := h.http.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	body := io.LimitReader(resp.Body, maxPageBytes)

	var res Result
	switch {
	case strings.Contains(contentType, "text/html"):
		res.Metadata = Extract(pageURL, body)
	case strings.HasPrefix(contentType, "image/"), strings.HasPrefix(contentType, "video/"):
		media := &models.MediaURL{
			URL:      pageURL,
			IsImage:  strings.HasPrefix(contentType, "image/"),
			IsVideo:  strings.HasPrefix(contentType, "video/"),
			FileName: fileName(resp, pageURL),
			FileSize: resp.ContentLength,
		}
		if media.IsImage {
			if cfg, _, err := image.DecodeConfig(body); err == nil {
				media.Width, media.Height = &cfg.Width, &cfg.Height
			}
		}
		res.MediaURL = media
	}
	return res, nil
}

// Extract reads link-preview fields from an HTML document.
func Extract(pageURL string, r io.Reader) *models.Metadata {
	doc, err := html.Parse(r)
	if err != nil {
		return &models.Metadata{}
	}

	tags := make(map[string]string)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil && tags["title"] == "" {
					tags["title"] = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				var property, name, content string
				for _, attr := range n.Attr {
					switch attr.Key {
					case "property":
						property = attr.Val
					case "name":
						name = attr.Val
					case "content":
						content = attr.Val
					}
				}
				if property != "" {
					tags[property] = content
				}
				if name != "" {
					tags[name] = content
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	var domain string
	if parsed, err := url.Parse(pageURL); err == nil {
		domain = parsed.Hostname()
	}
	return &models.Metadata{
		Title:       firstNonEmpty(tags["title"], tags["og:title"]),
		Description: firstNonEmpty(tags["description"], tags["og:description"]),
		SiteName:    firstNonEmpty(tags["og:site_name"], domain),
		Image:       firstNonEmpty(tags["og:image"], tags["twitter:image"]),
		URL:         firstNonEmpty(tags["og:url"], pageURL),
		Type:        tags["og:type"],
		Keywords:    tags["keywords"],
		Author:      tags["author"],
	}
}

func fileName(resp *http.Response, rawURL string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			return params["filename"]
		}
	}
	if parsed, err := url.Parse(rawURL); err == nil {
		if base := path.Base(parsed.Path); base != "/" && base != "." {
			return base
		}
	}
	return "file"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
