package models

import (
	"time"

	"gorm.io/gorm"
)

// Device is the registry row for a host on the network, keyed by MAC.
type Device struct {
	gorm.Model
	MAC        string    `gorm:"column:mac;uniqueIndex;not null;size:17"`
	IP         string    `gorm:"column:ip;size:45"`
	Hostname   string    `gorm:"size:255"`
	Vendor     string    `gorm:"size:255"`
	DeviceType string    `gorm:"size:32"`
	ScanMethod string    `gorm:"size:32"`
	FirstSeen  time.Time `gorm:"not null"`
	LastSeen   time.Time `gorm:"not null;index"`
	IPHistory  []DeviceIP
}

// DeviceIP is one IP-history entry. A device has exactly one row per
// distinct IP; repeated sightings bump LastSeen.
type DeviceIP struct {
	gorm.Model
	DeviceID  uint      `gorm:"uniqueIndex:idx_device_ips_device_ip,priority:1"`
	IP        string    `gorm:"column:ip;size:45;uniqueIndex:idx_device_ips_device_ip,priority:2"`
	FirstSeen time.Time `gorm:"not null"`
	LastSeen  time.Time `gorm:"not null"`
}
