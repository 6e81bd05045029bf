// Package influx stores the demand series in an InfluxDB 2.x bucket.
package influx

import (
	"context"
	"fmt"
	"regexp"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// Measurement and field holding demand values.
const (
	Measurement = "demand"
	Field       = "demand_mw"
)

var bucketPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Client bundles the write and query APIs bound to one org and bucket.
type Client struct {
	client influxdb2.Client
	Write  api.WriteAPIBlocking
	Query  api.QueryAPI
	Bucket string
}

// NewClient connects to InfluxDB and waits up to timeout for it to report healthy.
func NewClient(ctx context.Context, url, token, org, bucket string, timeout time.Duration) (*Client, error) {
	if !bucketPattern.MatchString(bucket) {
		return nil, fmt.Errorf("invalid influx bucket name %q", bucket)
	}

	c := influxdb2.NewClient(url, token)

	deadline := time.Now().Add(timeout)
	for {
		health, err := c.Health(ctx)
		if err == nil && health.Status == "pass" {
			break
		}
		if time.Now().After(deadline) {
			c.Close()
			if err == nil {
				err = fmt.Errorf("status %s", health.Status)
			}
			return nil, fmt.Errorf("influxdb not healthy at %s: %w", url, err)
		}
		select {
		case <-ctx.Done():
			c.Close()
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}

	return &Client{
		client: c,
		Write:  c.WriteAPIBlocking(org, bucket),
		Query:  c.QueryAPI(org),
		Bucket: bucket,
	}, nil
}

// Close releases the underlying HTTP client.
func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}
