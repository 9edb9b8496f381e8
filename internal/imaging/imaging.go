// Package imaging fetches remote profile photos and crops them.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"
)

const (
	defaultTimeout = 10 * time.Second
	maxImageBytes  = 10 << 20 // 10 MB
	jpegQuality    = 90
)

var (
	ErrFetch   = errors.New("image could not be retrieved")
	ErrNotJPEG = errors.New("image is not a JPEG")
	ErrBadCrop = errors.New("crop box is outside the image")

	// ErrBlockedAddress is wrapped into ErrFetch when a URL resolves to a
	// loopback, private, link-local or otherwise non-public address.
	ErrBlockedAddress = errors.New("address is not publicly routable")
)

// Rect is a crop box in pixel coordinates. X1 and Y1 are exclusive.
type Rect struct {
	X0, Y0, X1, Y1 int
}

// Fetcher downloads images over HTTP.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher. A nil client selects one with a 10s timeout
// that only connects to public addresses, redirects included.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		dialer := &net.Dialer{Timeout: defaultTimeout, Control: publicOnly}
		client = &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				TLSHandshakeTimeout: defaultTimeout,
			},
		}
	}
	return &Fetcher{client: client}
}

// publicOnly is a net.Dialer Control hook. It runs after name resolution, so
// it sees the address actually being dialled.
func publicOnly(_, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	ip := ap.Addr().Unmap()
	if !ip.IsGlobalUnicast() || ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, ip)
	}
	return nil
}

// Fetch downloads url. Only http and https are allowed; any status other
// than 200 yields ErrFetch.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrFetch, req.URL.Scheme)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrFetch, maxImageBytes)
	}
	return data, nil
}

// CropJPEG decodes a JPEG, cuts out r and re-encodes the result as JPEG.
func CropJPEG(data []byte, r Rect) ([]byte, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || format != "jpeg" {
		return nil, ErrNotJPEG
	}

	if r.X0 < 0 || r.Y0 < 0 || r.X0 >= r.X1 || r.Y0 >= r.Y1 || r.X1 > cfg.Width || r.Y1 > cfg.Height {
		return nil, fmt.Errorf("%w: (%d,%d)-(%d,%d) in %dx%d", ErrBadCrop, r.X0, r.Y0, r.X1, r.Y1, cfg.Width, cfg.Height)
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrNotJPEG
	}

	sub, ok := img.(interface {
		SubImage(image.Rectangle) image.Image
	})
	if !ok {
		return nil, fmt.Errorf("cropping: unsupported image type %T", img)
	}
	b := img.Bounds()
	cropped := sub.SubImage(image.Rect(b.Min.X+r.X0, b.Min.Y+r.Y0, b.Min.X+r.X1, b.Min.Y+r.Y1))

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, cropped, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding cropped image: %w", err)
	}
	return buf.Bytes(), nil
}
