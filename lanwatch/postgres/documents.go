package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/LanWatch/go-monitor/lanwatch"
	"github.com/LanWatch/go-monitor/lanwatch/postgres/models"
)

// DocumentStore implements lanwatch.DocumentStore on a gorm database.
type DocumentStore struct {
	db *gorm.DB
}

// NewDocumentStore creates a DocumentStore around an open connection.
func NewDocumentStore(db *gorm.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// UpsertDevice creates or updates the registry row for d.MAC inside one
// transaction, so two concurrent scans of the same device cannot
// interleave their IP-history updates.
func (s *DocumentStore) UpsertDevice(ctx context.Context, d lanwatch.Device) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Device
		err := tx.Where("mac = ?", d.MAC).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = models.Device{
				MAC:        d.MAC,
				IP:         d.IP,
				Hostname:   d.Hostname,
				Vendor:     d.Vendor,
				DeviceType: d.DeviceType,
				ScanMethod: d.ScanMethod,
				FirstSeen:  d.FirstSeen,
				LastSeen:   d.LastSeen,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("create device %s: %w", d.MAC, err)
			}
		} else if err != nil {
			return fmt.Errorf("lookup device %s: %w", d.MAC, err)
		} else {
			updates := map[string]any{
				"ip":          d.IP,
				"hostname":    d.Hostname,
				"vendor":      d.Vendor,
				"device_type": d.DeviceType,
				"scan_method": d.ScanMethod,
				"first_seen":  d.FirstSeen,
				"last_seen":   d.LastSeen,
			}
			if err := tx.Model(&row).Updates(updates).Error; err != nil {
				return fmt.Errorf("update device %s: %w", d.MAC, err)
			}
		}

		for _, rec := range d.IPHistory {
			var ipRow models.DeviceIP
			err := tx.Where("device_id = ? AND ip = ?", row.ID, rec.IP).First(&ipRow).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ipRow = models.DeviceIP{
					DeviceID:  row.ID,
					IP:        rec.IP,
					FirstSeen: rec.FirstSeen,
					LastSeen:  rec.LastSeen,
				}
				if err := tx.Create(&ipRow).Error; err != nil {
					return fmt.Errorf("create ip history %s/%s: %w", d.MAC, rec.IP, err)
				}
			} else if err != nil {
				return fmt.Errorf("lookup ip history %s/%s: %w", d.MAC, rec.IP, err)
			} else if rec.LastSeen.After(ipRow.LastSeen) {
				if err := tx.Model(&ipRow).Update("last_seen", rec.LastSeen).Error; err != nil {
					return fmt.Errorf("update ip history %s/%s: %w", d.MAC, rec.IP, err)
				}
			}
		}

		return nil
	})
}

// GetDeviceByMAC returns the registry record for mac, including its full
// IP history. Returns lanwatch.ErrNotFound for unknown MACs.
func (s *DocumentStore) GetDeviceByMAC(ctx context.Context, mac string) (lanwatch.Device, error) {
	var row models.Device
	err := s.db.WithContext(ctx).Preload("IPHistory").Where("mac = ?", mac).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return lanwatch.Device{}, lanwatch.ErrNotFound
	}
	if err != nil {
		return lanwatch.Device{}, fmt.Errorf("lookup device %s: %w", mac, err)
	}
	return toDomainDevice(row), nil
}

// GetAllDevices returns every registry record.
func (s *DocumentStore) GetAllDevices(ctx context.Context) ([]lanwatch.Device, error) {
	var rows []models.Device
	if err := s.db.WithContext(ctx).Preload("IPHistory").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	devices := make([]lanwatch.Device, 0, len(rows))
	for _, row := range rows {
		devices = append(devices, toDomainDevice(row))
	}
	return devices, nil
}

// GetActiveDevices returns devices seen within the given window.
func (s *DocumentStore) GetActiveDevices(ctx context.Context, since time.Duration) ([]lanwatch.Device, error) {
	cutoff := time.Now().Add(-since)
	var rows []models.Device
	if err := s.db.WithContext(ctx).Preload("IPHistory").
		Where("last_seen > ?", cutoff).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list active devices: %w", err)
	}
	devices := make([]lanwatch.Device, 0, len(rows))
	for _, row := range rows {
		devices = append(devices, toDomainDevice(row))
	}
	return devices, nil
}

// CreateEvent appends a security event. A missing EventID is generated.
func (s *DocumentStore) CreateEvent(ctx context.Context, ev lanwatch.SecurityEvent) error {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	row := models.Event{
		EventID:    ev.EventID,
		Timestamp:  ev.Timestamp,
		EventType:  ev.EventType,
		Severity:   ev.Severity,
		SourceIP:   ev.SourceIP,
		SourceMAC:  ev.SourceMAC,
		TargetIP:   ev.TargetIP,
		TargetPort: ev.TargetPort,
		Message:    ev.Message,
		Details:    models.JSONB(ev.Details),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create event %s: %w", ev.EventType, err)
	}
	return nil
}

// QueryEvents returns events matching the filter, newest first.
func (s *DocumentStore) QueryEvents(ctx context.Context, f lanwatch.EventFilter, limit int) ([]lanwatch.SecurityEvent, error) {
	q := s.db.WithContext(ctx).Model(&models.Event{})
	if f.EventType != "" {
		q = q.Where("event_type = ?", f.EventType)
	}
	if f.Severity != "" {
		q = q.Where("severity = ?", f.Severity)
	}
	if f.SourceMAC != "" {
		q = q.Where("source_mac = ?", f.SourceMAC)
	}
	if !f.Since.IsZero() {
		q = q.Where("timestamp > ?", f.Since)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []models.Event
	if err := q.Order("timestamp DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}

	events := make([]lanwatch.SecurityEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, lanwatch.SecurityEvent{
			EventID:    row.EventID,
			EventType:  row.EventType,
			Severity:   row.Severity,
			Timestamp:  row.Timestamp,
			SourceIP:   row.SourceIP,
			SourceMAC:  row.SourceMAC,
			TargetIP:   row.TargetIP,
			TargetPort: row.TargetPort,
			Message:    row.Message,
			Details:    map[string]any(row.Details),
		})
	}
	return events, nil
}

func toDomainDevice(row models.Device) lanwatch.Device {
	d := lanwatch.Device{
		MAC:        row.MAC,
		IP:         row.IP,
		Hostname:   row.Hostname,
		Vendor:     row.Vendor,
		DeviceType: row.DeviceType,
		ScanMethod: row.ScanMethod,
		FirstSeen:  row.FirstSeen,
		LastSeen:   row.LastSeen,
	}
	for _, rec := range row.IPHistory {
		d.IPHistory = append(d.IPHistory, lanwatch.IPRecord{
			IP:        rec.IP,
			FirstSeen: rec.FirstSeen,
			LastSeen:  rec.LastSeen,
		})
	}
	return d
}
