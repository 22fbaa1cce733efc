package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/LanWatch/go-monitor/lanwatch"
	"github.com/LanWatch/go-monitor/lanwatch/postgres/models"
)

// TimeSeriesStore implements lanwatch.TimeSeries on the metric_points
// table. Good enough for a home network's write rate; the port exists so a
// dedicated TSDB can replace it without touching the core.
type TimeSeriesStore struct {
	db *gorm.DB
}

// NewTimeSeriesStore creates a TimeSeriesStore around an open connection.
func NewTimeSeriesStore(db *gorm.DB) *TimeSeriesStore {
	return &TimeSeriesStore{db: db}
}

// WritePoint appends one sample.
func (s *TimeSeriesStore) WritePoint(ctx context.Context, measurement string, tags map[string]string, fields map[string]any, ts time.Time) error {
	if ts.IsZero() {
		ts = time.Now()
	}
	row := models.MetricPoint{
		Measurement: measurement,
		Timestamp:   ts,
		Tags:        tagsToJSONB(tags),
		Fields:      models.JSONB(fields),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("write point %s: %w", measurement, err)
	}
	return nil
}

// RangeQuery returns points for measurement in (start, end], oldest first.
// Tag filtering happens in memory; tags are JSON-encoded and their
// predicates are not portable across the supported drivers.
func (s *TimeSeriesStore) RangeQuery(ctx context.Context, measurement string, start, end time.Time, tags map[string]string) ([]lanwatch.Point, error) {
	var rows []models.MetricPoint
	err := s.db.WithContext(ctx).
		Where("measurement = ? AND timestamp > ? AND timestamp <= ?", measurement, start, end).
		Order("timestamp ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("range query %s: %w", measurement, err)
	}

	points := make([]lanwatch.Point, 0, len(rows))
	for _, row := range rows {
		p := toDomainPoint(row)
		if !matchTags(p.Tags, tags) {
			continue
		}
		points = append(points, p)
	}
	return points, nil
}

// MostRecent returns the newest point not older than within, or
// lanwatch.ErrNoData.
func (s *TimeSeriesStore) MostRecent(ctx context.Context, measurement string, within time.Duration) (lanwatch.Point, error) {
	cutoff := time.Now().Add(-within)
	var row models.MetricPoint
	err := s.db.WithContext(ctx).
		Where("measurement = ? AND timestamp > ?", measurement, cutoff).
		Order("timestamp DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return lanwatch.Point{}, lanwatch.ErrNoData
	}
	if err != nil {
		return lanwatch.Point{}, fmt.Errorf("most recent %s: %w", measurement, err)
	}
	return toDomainPoint(row), nil
}

func tagsToJSONB(tags map[string]string) models.JSONB {
	if len(tags) == 0 {
		return nil
	}
	j := make(models.JSONB, len(tags))
	for k, v := range tags {
		j[k] = v
	}
	return j
}

func matchTags(have map[string]string, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}

func toDomainPoint(row models.MetricPoint) lanwatch.Point {
	p := lanwatch.Point{
		Measurement: row.Measurement,
		Fields:      map[string]any(row.Fields),
		Timestamp:   row.Timestamp,
	}
	if len(row.Tags) > 0 {
		p.Tags = make(map[string]string, len(row.Tags))
		for k, v := range row.Tags {
			if s, ok := v.(string); ok {
				p.Tags[k] = s
			}
		}
	}
	return p
}
