package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDevice(t *testing.T) {
	d, err := NewDevice(12345, "", "")
	require.NoError(t, err)
	assert.Equal(t, "Camera 12345", d.Name)
	assert.Equal(t, DeviceKindUnknown, d.Kind)

	_, err = NewDevice(0, "front", DeviceKindCamera)
	assert.ErrorIs(t, err, ErrDeviceIDInvalid)

	_, err = NewDevice(1, strings.Repeat("x", MaxDeviceNameLen+1), DeviceKindCamera)
	assert.ErrorIs(t, err, ErrDeviceNameTooLong)
}

func TestParseDeviceID(t *testing.T) {
	id, err := ParseDeviceID("12345")
	require.NoError(t, err)
	assert.Equal(t, DeviceID(12345), id)
	assert.Equal(t, "12345", id.String())

	_, err = ParseDeviceID("-3")
	assert.ErrorIs(t, err, ErrDeviceIDInvalid)

	_, err = ParseDeviceID("abc")
	assert.Error(t, err)
}
