package query

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clean-dependency-project/peardb/internal/catalog"
)

type mapLoader map[string]string

func (m mapLoader) Load(name string) ([]byte, error) {
	data, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", catalog.ErrNotFound, name)
	}
	return []byte(data), nil
}

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestCatalog_LoadDevices(t *testing.T) {
	var logs bytes.Buffer
	c := NewCatalog(mapLoader{
		"device_main": `[
			{"name": "iPhone 15", "key": "iPhone15,4", "identifier": "iPhone15,4", "type": "iPhone"},
			{"key": "broken"},
			{"name": "iPad Pro", "key": "iPad16,3", "type": "iPad Pro"}
		]`,
	}, testLogger(&logs))

	records, report := c.LoadDevices()
	require.NoError(t, report.Err)
	assert.Len(t, records, 2)
	assert.Equal(t, 2, report.Records)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, 1, report.Issues[0].Index)
	assert.Equal(t, 2, c.Devices.Len())

	out := logs.String()
	assert.Contains(t, out, "skipped malformed catalog element")
	assert.Contains(t, out, `"key":"broken"`)
	assert.Contains(t, out, `"field":"name"`)

	d, ok := c.Device("iPhone15,4")
	require.True(t, ok)
	assert.Equal(t, "iPhone 15", d.Name)
	_, ok = c.Device("Watch7,1")
	assert.False(t, ok)
}

func TestCatalog_EnvelopeFailureYieldsEmpty(t *testing.T) {
	var logs bytes.Buffer
	c := NewCatalog(mapLoader{
		"device_main": `[{"name": "iPhone 15", "key": "iPhone15,4"}]`,
		"ios_main":    `{"not": "an array"}`,
	}, testLogger(&logs))

	c.LoadAll()
	assert.Equal(t, 1, c.Devices.Len())

	c.Firmware.Replace([]catalog.FirmwareRecord{{OSStr: "iOS", Version: "1.0", Key: "stale"}})
	records, report := c.LoadFirmware()
	assert.Empty(t, records)
	assert.True(t, errors.Is(report.Err, catalog.ErrDecode))
	assert.Equal(t, 0, c.Firmware.Len(), "a failed load replaces the collection")
	assert.True(t, strings.Contains(logs.String(), "could not be decoded"))
}

func TestCatalog_MissingResourceYieldsEmpty(t *testing.T) {
	c := NewCatalog(mapLoader{}, testLogger(&bytes.Buffer{}))

	records, report := c.LoadDevices()
	assert.Empty(t, records)
	assert.True(t, errors.Is(report.Err, catalog.ErrNotFound))

	keys, report := c.LoadIndex("device_index")
	assert.Nil(t, keys)
	assert.Error(t, report.Err)
}

func TestCatalog_FirmwareFor(t *testing.T) {
	c := NewCatalog(mapLoader{
		"device_main": `[{"name": "iPhone 15", "key": "iPhone15,4", "identifier": "iPhone15,4"}]`,
		"ios_main": `[
			{"osStr": "iOS", "version": "17.3", "key": "a", "build": "21D50", "deviceMap": ["iPhone15,4"]},
			{"osStr": "iOS", "version": "17.4", "key": "b", "build": "21E219", "deviceMap": ["iPhone15,4"]},
			{"osStr": "iPadOS", "version": "17.4", "key": "c", "build": "21E219", "deviceMap": ["iPad16,3"]}
		]`,
		"device_index": `["iPhone15,4"]`,
	}, testLogger(&bytes.Buffer{}))
	c.LoadAll()

	d, ok := c.Device("iPhone15,4")
	require.True(t, ok)
	fws := c.FirmwareFor(d)
	require.Len(t, fws, 2)
	assert.Equal(t, "b", fws[0].Key)
	assert.Equal(t, "iOS", c.Firmware.Filter("iOS")[0].OSStr)

	keys, report := c.LoadIndex("device_index")
	require.NoError(t, report.Err)
	assert.Equal(t, []string{"iPhone15,4"}, keys)
}
