// Package commerce implements the typed HTTP client for the remote commerce
// service. The client is stateless: it holds only the service's base address
// and a transport. It performs no business validation, no retries, and no
// caching — callers own those policies.
//
// Failures are normalized into a two-way taxonomy: RemoteError for non-success
// responses with a decodable payload, TransportError for anything that could
// not complete or could not be decoded.
package commerce

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Options configures a Client.
type Options struct {
	// Timeout bounds a single request. Zero means no client-side timeout;
	// callers are then expected to bound calls via context.
	Timeout time.Duration
	// Transport overrides the underlying round tripper. When nil,
	// http.DefaultTransport wrapped with otelhttp instrumentation is used.
	Transport http.RoundTripper
	// TracerProvider and MeterProvider feed the otelhttp transport.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Client talks to the remote commerce service.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the service at baseURL (no trailing slash).
func New(baseURL string, opts Options) *Client {
	rt := opts.Transport
	if rt == nil {
		otelOpts := []otelhttp.Option{}
		if opts.TracerProvider != nil {
			otelOpts = append(otelOpts, otelhttp.WithTracerProvider(opts.TracerProvider))
		}
		if opts.MeterProvider != nil {
			otelOpts = append(otelOpts, otelhttp.WithMeterProvider(opts.MeterProvider))
		}
		rt = otelhttp.NewTransport(http.DefaultTransport, otelOpts...)
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Transport: rt,
			Timeout:   opts.Timeout,
		},
	}
}

// ListProducts fetches the full product catalog.
func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	err := c.do(ctx, "list_products", http.MethodGet, "/products", nil, func(d *jx.Decoder) error {
		v, err := decodeProducts(d)
		out = v
		return err
	})
	return out, err
}

// CreateCart creates a new remote cart owned by ownerID and returns it with
// its assigned identifier. Idempotency is not guaranteed by the service.
func (c *Client) CreateCart(ctx context.Context, ownerID string) (*Cart, error) {
	return c.cartCall(ctx, "create_cart", http.MethodPost, "/carts", encodeCreateCart(ownerID))
}

// FetchCart retrieves the cart with the given identifier.
func (c *Client) FetchCart(ctx context.Context, cartID string) (*Cart, error) {
	return c.cartCall(ctx, "fetch_cart", http.MethodGet, "/carts/"+cartID, nil)
}

// ReplaceItems overwrites the cart's full line item collection.
func (c *Client) ReplaceItems(ctx context.Context, cartID string, items []Item) (*Cart, error) {
	return c.cartCall(ctx, "replace_items", http.MethodPut, "/carts/"+cartID, encodeItems(items))
}

// MergeItems adds items to the cart. Quantities of items already present
// (same product and variant) are summed by the service.
func (c *Client) MergeItems(ctx context.Context, cartID string, items []Item) (*Cart, error) {
	return c.cartCall(ctx, "merge_items", http.MethodPatch, "/carts/"+cartID, encodeItems(items))
}

// DeleteCart removes the cart. The operation is idempotent; the service
// responds with an empty body.
func (c *Client) DeleteCart(ctx context.Context, cartID string) error {
	return c.do(ctx, "delete_cart", http.MethodDelete, "/carts/"+cartID, nil, nil)
}

// SubmitCheckout submits the cart for settlement and returns the tracking
// reference assigned by the service. Single use per cart.
func (c *Client) SubmitCheckout(ctx context.Context, cartID string, order CheckoutOrder) (string, error) {
	var tracking string
	err := c.do(ctx, "submit_checkout", http.MethodPost, "/checkout/"+cartID, encodeCheckoutOrder(order), func(d *jx.Decoder) error {
		v, err := decodeTrackingNumber(d)
		tracking = v
		return err
	})
	return tracking, err
}

// Ping checks that the service is reachable. Used by readiness probes.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", http.MethodGet, "/", nil, func(d *jx.Decoder) error {
		return d.Skip()
	})
}

func (c *Client) cartCall(ctx context.Context, op, method, path string, body []byte) (*Cart, error) {
	var cart Cart
	err := c.do(ctx, op, method, path, body, func(d *jx.Decoder) error {
		v, err := decodeCart(d)
		cart = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// do issues one request and decodes the response. A nil decode skips body
// handling entirely, which also covers empty-body success responses.
func (c *Client) do(ctx context.Context, op, method, path string, body []byte, decode func(*jx.Decoder) error) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("commerce.operation", op))

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &TransportError{Op: op, Err: errors.Wrap(err, "build request")}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: errors.Wrap(err, "read response")}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(op, resp.StatusCode, data)
	}

	if decode == nil || resp.StatusCode == http.StatusNoContent || len(data) == 0 {
		return nil
	}

	if err := decode(jx.DecodeBytes(data)); err != nil {
		return &TransportError{Op: op, Err: errors.Wrap(err, "decode response")}
	}
	return nil
}

// classify turns a non-success response into a RemoteError when the payload
// is decodable, falling back to TransportError when the body is malformed.
// An empty error body still classifies as a remote rejection: the status
// code alone is meaningful.
func classify(op string, status int, body []byte) error {
	if len(body) == 0 {
		return &RemoteError{Op: op, Status: status}
	}

	detail, err := decodeDetail(body)
	if err != nil {
		return &TransportError{Op: op, Err: errors.Wrapf(err, "decode error body (status %d)", status)}
	}
	return &RemoteError{Op: op, Status: status, Detail: detail}
}

// decodeDetail extracts the "detail" field from an error payload. The field
// may be a plain string or any JSON value; non-string values are kept raw.
func decodeDetail(body []byte) (string, error) {
	var detail string
	d := jx.DecodeBytes(body)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "detail" {
			return d.Skip()
		}
		if d.Next() == jx.String {
			v, err := d.Str()
			detail = v
			return err
		}
		raw, err := d.Raw()
		if err != nil {
			return err
		}
		detail = raw.String()
		return nil
	})
	if err != nil {
		return "", err
	}
	return detail, nil
}
