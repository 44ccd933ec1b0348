// Package influxstorage writes map summaries as InfluxDB points: one
// map_summary point per map and one side_summary point per side.
package influxstorage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/fates3gx/sdk/internal/storage"
	"github.com/fates3gx/sdk/pkg/core"
)

const (
	measurementMap  = "map_summary"
	measurementSide = "side_summary"
	writeTimeout    = 5 * time.Second
)

// PointWriter is the part of influx.Manager the backend needs.
type PointWriter interface {
	Connect(ctx context.Context) error
	WritePoint(ctx context.Context, bucket string, point *influxdb2_write.Point) error
	Close() error
}

// Backend implements storage.Backend for InfluxDB.
type Backend struct {
	w      PointWriter
	bucket string

	mu      sync.Mutex
	session *core.Session
}

// New creates a backend writing to bucket.
func New(w PointWriter, bucket string) *Backend {
	return &Backend{w: w, bucket: bucket}
}

func (b *Backend) Init() error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return b.w.Connect(ctx)
}

func (b *Backend) Close() error {
	return b.w.Close()
}

func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	b.session = s
	b.mu.Unlock()
	return nil
}

func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session == nil {
		return storage.ErrNoSession
	}
	b.session = nil
	return nil
}

// RecordMapSummary writes every point of s. All points are attempted even
// when one fails.
func (b *Backend) RecordMapSummary(s *core.MapSummary) error {
	b.mu.Lock()
	active := b.session != nil
	b.mu.Unlock()
	if !active {
		return storage.ErrNoSession
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var errs []error
	for _, p := range Points(s) {
		if err := b.w.WritePoint(ctx, b.bucket, p); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("influx map %d: %w", s.Generation, err)
	}
	return nil
}

// Points converts a summary into its InfluxDB points, timestamped at map end.
func Points(s *core.MapSummary) []*influxdb2_write.Point {
	ts := s.EndedAt
	gen := strconv.FormatUint(uint64(s.Generation), 10)

	points := make([]*influxdb2_write.Point, 0, 1+len(s.Sides))
	mp := influxdb2_write.NewPointWithMeasurement(measurementMap).
		AddTag("session", s.SessionID).
		AddTag("generation", gen).
		AddTag("endSide", s.EndSide.String()).
		AddField("seqRoot", s.SeqRoot.String()).
		AddField("totalTurns", int64(s.TotalTurns)).
		AddField("killEvents", int64(s.KillEvents)).
		AddField("units", int64(len(s.Units))).
		SetTime(ts)
	if !s.StartedAt.IsZero() {
		mp.AddField("durationSec", s.EndedAt.Sub(s.StartedAt).Seconds())
	}
	points = append(points, mp)

	for _, side := range s.Sides {
		points = append(points, influxdb2_write.NewPointWithMeasurement(measurementSide).
			AddTag("session", s.SessionID).
			AddTag("generation", gen).
			AddTag("side", side.Side.String()).
			AddField("turns", int64(side.Turns)).
			AddField("kills", int64(side.Kills)).
			AddField("hpEvents", int64(side.HpEvents)).
			AddField("damageDealt", side.DamageDealt).
			AddField("healingDone", side.HealingDone).
			AddField("rngCalls", int64(side.RngCalls)).
			AddField("hitAttempts", int64(side.HitAttempts)).
			AddField("hits", int64(side.Hits)).
			SetTime(ts))
	}
	return points
}
