// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strconv"
)

const MaxDeviceNameLen = 64

var (
	ErrDeviceIDInvalid   = errors.New("device id must be positive")
	ErrDeviceNameTooLong = errors.New("device name too long")
)

type DeviceID int64

func (id DeviceID) String() string { return strconv.FormatInt(int64(id), 10) }

// ParseDeviceID accepts the decimal form used in URLs and config files.
func ParseDeviceID(s string) (DeviceID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, ErrDeviceIDInvalid
	}
	return DeviceID(v), nil
}

type DeviceKind string

const (
	DeviceKindCamera   DeviceKind = "camera"
	DeviceKindDoorbell DeviceKind = "doorbell"
	DeviceKindUnknown  DeviceKind = "unknown"
)

type Device struct {
	ID   DeviceID   `json:"id"`
	Name string     `json:"name"`
	Kind DeviceKind `json:"kind"`
}

// NewDevice is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewDevice(id DeviceID, name string, kind DeviceKind) (*Device, error) {
	if id <= 0 {
		return nil, ErrDeviceIDInvalid
	}
	if len(name) > MaxDeviceNameLen {
		return nil, ErrDeviceNameTooLong
	}
	if name == "" {
		name = "Camera " + id.String()
	}
	if kind == "" {
		kind = DeviceKindUnknown
	}
	return &Device{ID: id, Name: name, Kind: kind}, nil
}
