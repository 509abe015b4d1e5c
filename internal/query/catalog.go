package query

import (
	"log/slog"

	"github.com/clean-dependency-project/peardb/internal/appledb"
	"github.com/clean-dependency-project/peardb/internal/catalog"
)

// snippetLen caps the raw element included in decode warnings
const snippetLen = 256

// Loader reads cached resource bytes.
type Loader interface {
	Load(name string) ([]byte, error)
}

// Report describes the outcome of loading one resource. Err is set when the
// whole resource could not be used; Issues lists elements that were skipped.
type Report struct {
	Resource string
	Records  int
	Issues   []*catalog.DecodeError
	Err      error
}

// Catalog loads cached device and firmware documents into collections.
type Catalog struct {
	loader Loader
	logger *slog.Logger

	DeviceResource   string
	FirmwareResource string

	Devices  *Collection[catalog.DeviceRecord]
	Firmware *Collection[catalog.FirmwareRecord]
}

// NewCatalog creates a Catalog reading the default device and firmware resources.
func NewCatalog(loader Loader, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		loader:           loader,
		logger:           logger,
		DeviceResource:   appledb.ResourceDeviceMain,
		FirmwareResource: appledb.ResourceFirmwareMain,
		Devices:          NewCollection[catalog.DeviceRecord](),
		Firmware:         NewCollection[catalog.FirmwareRecord](),
	}
}

// LoadDevices replaces the device collection from the cache. It never fails:
// an unusable document yields an empty collection and a Report carrying the cause.
func (c *Catalog) LoadDevices() ([]catalog.DeviceRecord, Report) {
	return load(c, c.DeviceResource, catalog.DecodeDevices, c.Devices)
}

// LoadFirmware replaces the firmware collection from the cache with the same rules as LoadDevices.
func (c *Catalog) LoadFirmware() ([]catalog.FirmwareRecord, Report) {
	return load(c, c.FirmwareResource, catalog.DecodeFirmware, c.Firmware)
}

// LoadAll loads both collections.
func (c *Catalog) LoadAll() []Report {
	_, devices := c.LoadDevices()
	_, firmware := c.LoadFirmware()
	return []Report{devices, firmware}
}

// LoadIndex reads a key index resource. Failures yield an empty list.
func (c *Catalog) LoadIndex(name string) ([]string, Report) {
	report := Report{Resource: name}
	data, err := c.loader.Load(name)
	if err == nil {
		var keys []string
		if keys, err = catalog.DecodeIndex(name, data); err == nil {
			report.Records = len(keys)
			return keys, report
		}
	}
	report.Err = err
	c.logger.Warn("catalog index unavailable", "resource", name, "error", err)
	return nil, report
}

func load[T Entry](c *Catalog, name string, decode func(string, []byte) (catalog.Result[T], error), into *Collection[T]) ([]T, Report) {
	report := Report{Resource: name}

	data, err := c.loader.Load(name)
	if err != nil {
		report.Err = err
		c.logger.Warn("catalog resource unavailable", "resource", name, "error", err)
		into.Replace(nil)
		return nil, report
	}

	res, err := decode(name, data)
	if err != nil {
		report.Err = err
		c.logger.Error("catalog document could not be decoded", "resource", name, "error", err)
		into.Replace(nil)
		return nil, report
	}

	for _, issue := range res.Issues {
		c.logger.Warn("skipped malformed catalog element",
			"resource", name,
			"index", issue.Index,
			"key", issue.Key,
			"field", issue.Field,
			"error", issue.Err,
			"raw", issue.Snippet(snippetLen),
		)
	}

	report.Records = len(res.Records)
	report.Issues = res.Issues
	into.Replace(res.Records)
	c.logger.Debug("catalog resource loaded", "resource", name, "records", report.Records, "skipped", len(res.Issues))
	return res.Records, report
}

// Device looks up a device by key, then by hardware identifier.
func (c *Catalog) Device(ref string) (catalog.DeviceRecord, bool) {
	devices := c.Devices.All()
	for _, d := range devices {
		if d.Key == ref {
			return d, true
		}
	}
	for _, d := range devices {
		if d.Matches(ref) {
			return d, true
		}
	}
	return catalog.DeviceRecord{}, false
}

// FirmwareFor returns the loaded firmware that applies to d, newest first.
func (c *Catalog) FirmwareFor(d catalog.DeviceRecord) []catalog.FirmwareRecord {
	return catalog.FirmwareForDevice(c.Firmware.All(), d)
}
