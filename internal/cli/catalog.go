package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/clean-dependency-project/peardb/internal/catalog"
	"github.com/clean-dependency-project/peardb/internal/config"
	"github.com/clean-dependency-project/peardb/internal/fetch"
	"github.com/clean-dependency-project/peardb/internal/query"
	"github.com/clean-dependency-project/peardb/internal/upstream"
)

var (
	errDeviceNotFound  = errors.New("device not found in catalog")
	errUnknownCategory = errors.New("unknown category")
)

// StatusReport represents the snapshot state for JSON output
type StatusReport struct {
	CacheDir    string          `json:"cache_dir"`
	Resources   []string        `json:"resources"`
	LastRefresh *time.Time      `json:"last_refresh,omitempty"`
	Stale       bool            `json:"stale"`
	Devices     int             `json:"devices"`
	Firmware    int             `json:"firmware"`
	Issues      int             `json:"issues"`
	Upstream    *UpstreamReport `json:"upstream,omitempty"`
}

// UpstreamReport represents the source repository check for JSON output
type UpstreamReport struct {
	Repository string `json:"repository"`
	SHA        string `json:"sha"`
	Title      string `json:"title"`
	Author     string `json:"author,omitempty"`
	Date       string `json:"date,omitempty"`
	URL        string `json:"url,omitempty"`
	Previous   string `json:"previous,omitempty"`
	Changed    bool   `json:"changed"`
}

// DeviceView is a device record with its derived image address
type DeviceView struct {
	catalog.DeviceRecord
	Image string `json:"image"`
}

// initCommand implements the init command.
func initCommand(c *cli.Context) error {
	path := c.String("config")
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}
	if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.App.Writer, "wrote %s\n", path)
	return err
}

// refreshCommand implements the refresh command.
func refreshCommand(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer closeSession(s)

	unsubscribe := s.fetcher.Subscribe(func(p fetch.Progress) {
		if p.Active && p.Resource != "" {
			s.logger.Info("catalog resource downloaded",
				"resource", p.Resource,
				"done", p.Done,
				"total", p.Total,
				"progress", fmt.Sprintf("%.0f%%", p.Fraction*100))
		}
	})
	defer unsubscribe()

	if c.Bool("force") {
		err = s.fetcher.Refresh(c.Context)
	} else if !s.store.ShouldRefresh() {
		_, err = fmt.Fprintln(c.App.Writer, "catalog is up to date")
		return err
	} else {
		err = s.fetcher.EnsureFresh(c.Context)
	}
	if err != nil {
		s.logger.Error("catalog refresh failed", "error", err)
		return fmt.Errorf("catalog refresh failed: %w", err)
	}

	_, err = fmt.Fprintf(c.App.Writer, "refreshed %d resources into %s\n", len(s.store.Resources()), s.store.Dir())
	return err
}

// purgeCommand implements the purge command.
func purgeCommand(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer closeSession(s)

	if err := s.store.PurgeAll(); err != nil {
		s.logger.Error("catalog purge incomplete", "error", err)
		return fmt.Errorf("catalog purge incomplete: %w", err)
	}
	_, err = fmt.Fprintf(c.App.Writer, "purged %s\n", s.store.Dir())
	return err
}

// statusCommand implements the status command.
func statusCommand(c *cli.Context) error {
	output := c.String("output")
	if err := validateOutput(output); err != nil {
		return err
	}

	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer closeSession(s)

	report := StatusReport{
		CacheDir:  s.store.Dir(),
		Resources: s.store.Resources(),
		Stale:     s.store.ShouldRefresh(),
	}
	last, ok, err := s.store.LastRefresh()
	if err != nil {
		s.logger.Warn("last refresh timestamp unreadable", "error", err)
	}
	if ok {
		report.LastRefresh = &last
	}
	for _, r := range s.catalog.LoadAll() {
		report.Issues += len(r.Issues)
	}
	report.Devices = s.catalog.Devices.Len()
	report.Firmware = s.catalog.Firmware.Len()

	if c.Bool("upstream") {
		up, err := checkUpstream(c, s)
		if err != nil {
			s.logger.Error("upstream check failed", "error", err)
			return fmt.Errorf("upstream check failed: %w", err)
		}
		report.Upstream = up
	}

	if output == "json" {
		return writeJSON(c.App.Writer, report)
	}

	lastRefresh := "never"
	if report.LastRefresh != nil {
		lastRefresh = report.LastRefresh.Local().Format(time.RFC1123)
	}
	state := "fresh"
	if report.Stale {
		state = "stale"
	}
	fields := []field{
		{label("cache_dir"), report.CacheDir},
		{label("resources"), strings.Join(report.Resources, ", ")},
		{label("last_refresh"), lastRefresh},
		{label("state"), state},
		{label("devices"), fmt.Sprint(report.Devices)},
		{label("firmware"), fmt.Sprint(report.Firmware)},
		{label("skipped_records"), fmt.Sprint(report.Issues)},
	}
	if up := report.Upstream; up != nil {
		fields = append(fields,
			field{label("upstream"), up.Repository},
			field{label("latest_commit"), up.SHA[:min(len(up.SHA), 7)] + " " + up.Title},
			field{label("commit_date"), up.Date},
			field{label("new_since_last_check"), yesNo(up.Changed)},
		)
	}
	return writeFields(c.App.Writer, "Catalog", fields)
}

func checkUpstream(c *cli.Context, s *session) (*UpstreamReport, error) {
	client, err := upstream.NewClient(c.String("github-token"), s.cfg.Upstream.GitHubRepository)
	if err != nil {
		return nil, err
	}
	status, err := upstream.Check(c.Context, client, s.cfg.Upstream.Branch, s.db.Settings())
	if err != nil {
		return nil, err
	}
	s.logger.Debug("upstream checked",
		"repository", client.Repository(),
		"sha", status.Latest.ShortSHA(),
		"changed", status.Changed)

	report := &UpstreamReport{
		Repository: client.Repository(),
		SHA:        status.Latest.SHA,
		Title:      status.Latest.Title(),
		Author:     status.Latest.Author,
		URL:        status.Latest.URL,
		Previous:   status.Previous,
		Changed:    status.Changed,
	}
	if !status.Latest.Date.IsZero() {
		report.Date = status.Latest.Date.Format(time.RFC3339)
	}
	return report, nil
}

// devicesCommand implements the devices command.
func devicesCommand(c *cli.Context) error {
	output := c.String("output")
	if err := validateOutput(output); err != nil {
		return err
	}

	group := ""
	if raw := c.String("category"); raw != "" {
		category, err := categoryFilter(raw)
		if err != nil {
			return err
		}
		group = string(category)
	}

	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer closeSession(s)
	s.ensureCatalog(c)

	devices := s.catalog.Devices.Query(query.Criteria{Text: c.String("query"), Group: group})

	if output == "json" {
		views := make([]DeviceView, 0, len(devices))
		for _, d := range devices {
			views = append(views, DeviceView{DeviceRecord: d, Image: s.cfg.Catalog.ImageURL(d.Key)})
		}
		return writeJSON(c.App.Writer, views)
	}

	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		chip, _ := d.Chip()
		released, _ := d.ReleaseDate()
		rows = append(rows, []string{d.Name, d.Key, string(d.Category), chip, released})
	}
	return writeTable(c.App.Writer, []string{"NAME", "KEY", "CATEGORY", "CHIP", "RELEASED"}, rows, "no devices found")
}

// deviceCommand implements the device command.
func deviceCommand(c *cli.Context) error {
	output := c.String("output")
	if err := validateOutput(output); err != nil {
		return err
	}
	ref := c.Args().First()
	if ref == "" {
		return errors.New("device key is required")
	}

	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer closeSession(s)
	s.ensureCatalog(c)

	var d catalog.DeviceRecord
	if c.Bool("remote") {
		d, err = s.fetcher.Detail(c.Context, ref)
		if err != nil {
			s.logger.Error("device detail fetch failed", "key", ref, "error", err)
			return fmt.Errorf("failed to fetch device %s: %w", ref, err)
		}
	} else {
		var ok bool
		if d, ok = s.catalog.Device(ref); !ok {
			return fmt.Errorf("%w: %s", errDeviceNotFound, ref)
		}
	}
	firmware := s.catalog.FirmwareFor(d)

	if output == "json" {
		return writeJSON(c.App.Writer, struct {
			DeviceView
			Firmware []catalog.FirmwareRecord `json:"firmware"`
		}{
			DeviceView: DeviceView{DeviceRecord: d, Image: s.cfg.Catalog.ImageURL(d.Key)},
			Firmware:   firmware,
		})
	}

	chip, _ := d.Chip()
	chipID, _ := d.ChipID()
	released, _ := d.ReleaseDate()
	fields := []field{
		{label("key"), d.Key},
		{label("identifier"), strings.Join(d.Identifier, catalog.Separator)},
		{label("category"), string(d.Category)},
		{label("chip"), chip},
		{label("cpid"), chipID},
		{label("arch"), d.Arch},
		{label("board"), strings.Join(d.Board, catalog.Separator)},
		{label("model"), strings.Join(d.Model, catalog.Separator)},
		{label("released"), released},
	}
	for _, v := range d.Info {
		var parts []string
		if capacity, ok := v.Storage.Collapse(); ok {
			parts = append(parts, capacity)
		}
		if ram, ok := v.RAM.Collapse(); ok {
			parts = append(parts, "RAM "+ram)
		}
		fields = append(fields, field{v.Type, strings.Join(parts, "; ")})
	}
	fields = append(fields, field{label("image"), s.cfg.Catalog.ImageURL(d.Key)})
	if len(firmware) > 0 {
		fields = append(fields, field{label("latest_firmware"), firmwareLabel(firmware[0])})
		fields = append(fields, field{label("firmware_builds"), fmt.Sprint(len(firmware))})
	}
	return writeFields(c.App.Writer, d.Name, fields)
}

// firmwareCommand implements the firmware command.
func firmwareCommand(c *cli.Context) error {
	output := c.String("output")
	if err := validateOutput(output); err != nil {
		return err
	}

	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer closeSession(s)
	s.ensureCatalog(c)

	firmware := s.catalog.Firmware.Query(query.Criteria{Text: c.String("query"), Group: c.String("os")})
	if ref := c.String("device"); ref != "" {
		d, ok := s.catalog.Device(ref)
		if !ok {
			return fmt.Errorf("%w: %s", errDeviceNotFound, ref)
		}
		firmware = catalog.FirmwareForDevice(firmware, d)
	} else {
		catalog.SortFirmware(firmware)
	}

	if output == "json" {
		if firmware == nil {
			firmware = []catalog.FirmwareRecord{}
		}
		return writeJSON(c.App.Writer, firmware)
	}

	rows := make([][]string, 0, len(firmware))
	for _, f := range firmware {
		rows = append(rows, []string{f.DisplayName(), f.Build, f.Released, f.Key})
	}
	return writeTable(c.App.Writer, []string{"FIRMWARE", "BUILD", "RELEASED", "KEY"}, rows, "no firmware found")
}

// categoriesCommand implements the categories command.
func categoriesCommand(c *cli.Context) error {
	output := c.String("output")
	if err := validateOutput(output); err != nil {
		return err
	}

	categories := append(catalog.Categories(), catalog.Uncategorized)
	if c.Bool("common") {
		categories = catalog.CommonCategories()
	}

	if output == "json" {
		return writeJSON(c.App.Writer, categories)
	}
	for _, cat := range categories {
		if _, err := fmt.Fprintln(c.App.Writer, cat); err != nil {
			return err
		}
	}
	return nil
}

// categoryFilter resolves user input to a category. Text that names no category
// is an error rather than a match on the Uncategorized bucket.
func categoryFilter(raw string) (catalog.Category, error) {
	category := catalog.ParseCategory(raw)
	if category == catalog.Uncategorized && !strings.EqualFold(strings.TrimSpace(raw), string(catalog.Uncategorized)) {
		return "", fmt.Errorf("%w %q (see 'peardb categories')", errUnknownCategory, raw)
	}
	return category, nil
}

func firmwareLabel(f catalog.FirmwareRecord) string {
	name := f.DisplayName()
	if f.Build != "" {
		name += " (" + f.Build + ")"
	}
	return name
}
