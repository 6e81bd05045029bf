package influx

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"uk-forecast-lab/internal/domain"
	"uk-forecast-lab/internal/storage"
)

const (
	testOrg    = "uk-forecast"
	testBucket = "demand"
	testToken  = "test-admin-token"
)

// setupTestBucket starts an InfluxDB 2.x container with an initialized org and bucket.
func setupTestBucket(t *testing.T) (*Client, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "influxdb:2.7-alpine",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "admin",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "admin-password",
			"DOCKER_INFLUXDB_INIT_ORG":         testOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      testBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": testToken,
		},
		WaitingFor: wait.ForHTTP("/health").
			WithPort("8086/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8086")
	require.NoError(t, err)

	client, err := NewClient(ctx, fmt.Sprintf("http://%s:%s", host, port.Port()), testToken, testOrg, testBucket, 30*time.Second)
	require.NoError(t, err)

	cleanup := func() {
		client.Close()
		_ = container.Terminate(ctx)
	}
	return client, cleanup
}

func TestRangeQuery(t *testing.T) {
	q := rangeQuery("demand", 1000, 2000)

	assert.Contains(t, q, `from(bucket: "demand")`)
	assert.Contains(t, q, "start: 1970-01-01T00:00:01Z")
	// stop is exclusive, so the inclusive end is pushed by one millisecond
	assert.Contains(t, q, "stop: 1970-01-01T00:00:02.001Z")
	assert.Contains(t, q, `r._field == "demand_mw"`)
}

func TestEdgeQuery(t *testing.T) {
	assert.True(t, strings.HasSuffix(edgeQuery("demand", "last"), "|> last()"))
	assert.True(t, strings.HasSuffix(edgeQuery("demand", "first"), "|> first()"))
}

func TestToPoints(t *testing.T) {
	points := toPoints([]*domain.DemandPoint{{TimestampMs: 1718461800000, Value: 28000.5}})
	require.Len(t, points, 1)

	p := points[0]
	assert.Equal(t, Measurement, p.Name())
	assert.Equal(t, int64(1718461800000), p.Time().UnixMilli())
	require.Len(t, p.FieldList(), 1)
	assert.Equal(t, Field, p.FieldList()[0].Key)
	assert.Equal(t, 28000.5, p.FieldList()[0].Value)
}

func TestNewClient_InvalidBucket(t *testing.T) {
	_, err := NewClient(context.Background(), "http://localhost:1", "", "org", `bad") |> drop(`, time.Millisecond)
	assert.Error(t, err)
}

func TestDemandTimeseriesStore_Integration(t *testing.T) {
	client, cleanup := setupTestBucket(t)
	defer cleanup()

	ctx := context.Background()
	store := NewDemandTimeseriesStore(client)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	var points []*domain.DemandPoint
	for i := 0; i < 6; i++ {
		points = append(points, &domain.DemandPoint{
			TimestampMs: base + int64(i)*int64(30*time.Minute/time.Millisecond),
			Value:       25000 + float64(i),
		})
	}
	require.NoError(t, store.InsertBulk(ctx, points))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, base, all[0].TimestampMs)
	assert.InDelta(t, 25005.0, all[5].Value, 1e-9)

	sub, err := store.GetByTimeRange(ctx, points[1].TimestampMs, points[3].TimestampMs)
	require.NoError(t, err)
	assert.Len(t, sub, 3)

	minTs, maxTs, err := store.GetGlobalTimeRange(ctx)
	require.NoError(t, err)
	assert.Equal(t, points[0].TimestampMs, minTs)
	assert.Equal(t, points[5].TimestampMs, maxTs)

	err = store.InsertBulk(ctx, points[2:3])
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}
