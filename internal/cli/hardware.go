package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/clean-dependency-project/peardb/internal/bundle"
	"github.com/clean-dependency-project/peardb/internal/catalog"
	"github.com/clean-dependency-project/peardb/internal/storage"
)

var errHardwareIDRequired = errors.New("hardware id is required")

func passphraseFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "passphrase",
		Usage:    "passphrase protecting the bundle",
		EnvVars:  []string{"PEARDB_PASSPHRASE"},
		Required: true,
	}
}

func hardwareCommand() *cli.Command {
	return &cli.Command{
		Name:  "hardware",
		Usage: "Record the hardware you own",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a device, optionally filled in from the catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "device",
						Usage: "catalog device key or identifier to copy fields from",
					},
					&cli.StringFlag{
						Name:  "firmware",
						Usage: "catalog firmware key the device runs",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "device name (required without --device)",
					},
					&cli.StringFlag{Name: "serial", Usage: "serial number"},
					&cli.StringFlag{Name: "note", Usage: "free-form note"},
					&cli.BoolFlag{Name: "main", Usage: "mark as your main device"},
					outputFlag(),
				},
				Action: hardwareAdd,
			},
			{
				Name:   "list",
				Usage:  "List recorded hardware",
				Flags:  []cli.Flag{outputFlag()},
				Action: hardwareList,
			},
			{
				Name:      "show",
				Usage:     "Show one recorded device",
				ArgsUsage: "<id>",
				Flags:     []cli.Flag{outputFlag()},
				Action:    hardwareShow,
			},
			{
				Name:      "edit",
				Usage:     "Change fields of a recorded device",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "device name"},
					&cli.StringFlag{Name: "serial", Usage: "serial number"},
					&cli.StringFlag{Name: "note", Usage: "free-form note"},
					&cli.StringFlag{
						Name:  "firmware",
						Usage: "catalog firmware key the device now runs",
					},
					&cli.BoolFlag{Name: "main", Usage: "mark as your main device (--main=false clears it)"},
					outputFlag(),
				},
				Action: hardwareEdit,
			},
			{
				Name:      "delete",
				Usage:     "Delete a recorded device",
				ArgsUsage: "<id>",
				Action:    hardwareDelete,
			},
			{
				Name:  "export",
				Usage: "Write every recorded device to an encrypted bundle",
				Flags: []cli.Flag{
					passphraseFlag(),
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "bundle file (default stdout)",
					},
				},
				Action: hardwareExport,
			},
			{
				Name:      "import",
				Usage:     "Merge an encrypted bundle into the recorded hardware",
				ArgsUsage: "<file|->",
				Flags:     []cli.Flag{passphraseFlag()},
				Action:    hardwareImport,
			},
		},
	}
}

// hardwareAdd implements the hardware add command.
func hardwareAdd(c *cli.Context) error {
	output := c.String("output")
	if err := validateOutput(output); err != nil {
		return err
	}

	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer closeSession(s)

	var h storage.Hardware
	if ref := c.String("device"); ref != "" {
		s.ensureCatalog(c)
		d, ok := s.catalog.Device(ref)
		if !ok {
			return fmt.Errorf("%w: %s", errDeviceNotFound, ref)
		}
		fw, err := lookupFirmware(s, c.String("firmware"))
		if err != nil {
			return err
		}
		h = storage.NewHardwareFromCatalog(d, fw)
	} else if c.String("firmware") != "" {
		s.ensureCatalog(c)
		fw, err := lookupFirmware(s, c.String("firmware"))
		if err != nil {
			return err
		}
		h = storage.NewHardwareFromCatalog(catalog.DeviceRecord{}, fw)
	}
	if name := c.String("name"); name != "" {
		h.DeviceName = name
	}
	h.Serial = c.String("serial")
	h.Note = c.String("note")
	h.Main = c.Bool("main")

	if err := s.db.CreateHardware(&h); err != nil {
		s.logger.Error("failed to add hardware", "error", err)
		return err
	}
	s.logger.Info("hardware added", "id", h.ID, "device", h.DeviceName)
	return writeHardware(c, h, output)
}

// hardwareList implements the hardware list command.
func hardwareList(c *cli.Context) error {
	output := c.String("output")
	if err := validateOutput(output); err != nil {
		return err
	}

	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer closeSession(s)

	entries, err := s.db.ListHardware()
	if err != nil {
		return err
	}

	if output == "json" {
		if entries == nil {
			entries = []storage.Hardware{}
		}
		return writeJSON(c.App.Writer, entries)
	}

	rows := make([][]string, 0, len(entries))
	for _, h := range entries {
		marker := ""
		if h.Main {
			marker = "*"
		}
		rows = append(rows, []string{marker, h.ID, h.DeviceName, h.Type, osLabel(h)})
	}
	return writeTable(c.App.Writer, []string{"", "ID", "DEVICE", "TYPE", "OS"}, rows, "no hardware recorded")
}

// hardwareShow implements the hardware show command.
func hardwareShow(c *cli.Context) error {
	output := c.String("output")
	if err := validateOutput(output); err != nil {
		return err
	}
	id := c.Args().First()
	if id == "" {
		return errHardwareIDRequired
	}

	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer closeSession(s)

	h, err := s.db.GetHardware(id)
	if err != nil {
		return fmt.Errorf("hardware %s: %w", id, err)
	}
	return writeHardware(c, *h, output)
}

// hardwareEdit implements the hardware edit command. Only flags that are set change the entry.
func hardwareEdit(c *cli.Context) error {
	output := c.String("output")
	if err := validateOutput(output); err != nil {
		return err
	}
	id := c.Args().First()
	if id == "" {
		return errHardwareIDRequired
	}

	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer closeSession(s)

	h, err := s.db.GetHardware(id)
	if err != nil {
		return fmt.Errorf("hardware %s: %w", id, err)
	}

	if c.IsSet("name") {
		h.DeviceName = c.String("name")
	}
	if c.IsSet("serial") {
		h.Serial = c.String("serial")
	}
	if c.IsSet("note") {
		h.Note = c.String("note")
	}
	if c.IsSet("main") {
		h.Main = c.Bool("main")
	}
	if c.IsSet("firmware") {
		s.ensureCatalog(c)
		fw, err := lookupFirmware(s, c.String("firmware"))
		if err != nil {
			return err
		}
		h.OSFamily, h.OSVersion, h.Build = "", "", ""
		if fw != nil {
			h.OSFamily, h.OSVersion, h.Build = fw.OSStr, fw.Version, fw.Build
		}
	}

	if err := s.db.UpdateHardware(h); err != nil {
		s.logger.Error("failed to update hardware", "id", id, "error", err)
		return err
	}
	return writeHardware(c, *h, output)
}

// hardwareDelete implements the hardware delete command.
func hardwareDelete(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return errHardwareIDRequired
	}

	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer closeSession(s)

	if err := s.db.DeleteHardware(id); err != nil {
		return fmt.Errorf("hardware %s: %w", id, err)
	}
	_, err = fmt.Fprintf(c.App.Writer, "deleted %s\n", id)
	return err
}

// hardwareExport implements the hardware export command.
func hardwareExport(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer closeSession(s)

	armored, err := bundle.Export(s.db, c.String("passphrase"), time.Now())
	if err != nil {
		s.logger.Error("failed to export hardware", "error", err)
		return fmt.Errorf("failed to export hardware: %w", err)
	}

	path := c.String("out")
	if path == "" || path == "-" {
		_, err = io.WriteString(c.App.Writer, armored)
		return err
	}
	if err := os.WriteFile(path, []byte(armored), 0600); err != nil {
		return fmt.Errorf("failed to write bundle %s: %w", path, err)
	}
	s.logger.Info("hardware exported", "path", path)
	return nil
}

// hardwareImport implements the hardware import command.
func hardwareImport(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("bundle file is required (use - for stdin)")
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(c.App.Reader)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read bundle: %w", err)
	}

	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer closeSession(s)

	n, err := bundle.Import(s.db, string(data), c.String("passphrase"))
	if err != nil {
		s.logger.Error("failed to import hardware", "error", err)
		return fmt.Errorf("failed to import hardware: %w", err)
	}
	_, err = fmt.Fprintf(c.App.Writer, "imported %d devices\n", n)
	return err
}

// lookupFirmware finds a firmware record by key. An empty key returns nil.
func lookupFirmware(s *session, key string) (*catalog.FirmwareRecord, error) {
	if key == "" {
		return nil, nil
	}
	for _, f := range s.catalog.Firmware.All() {
		if f.Key == key {
			return &f, nil
		}
	}
	return nil, fmt.Errorf("firmware %s not found in catalog", key)
}

func writeHardware(c *cli.Context, h storage.Hardware, output string) error {
	if output == "json" {
		return writeJSON(c.App.Writer, h)
	}
	return writeFields(c.App.Writer, h.DeviceName, []field{
		{label("id"), h.ID},
		{label("main"), yesNo(h.Main)},
		{label("device_key"), h.DeviceKey},
		{label("identifier"), h.Identifier},
		{label("type"), h.Type},
		{label("chip"), h.Chip},
		{label("board"), h.Board},
		{label("serial"), h.Serial},
		{label("os"), osLabel(h)},
		{label("note"), h.Note},
		{label("added"), h.CreatedAt.Local().Format(time.RFC1123)},
	})
}

func osLabel(h storage.Hardware) string {
	parts := []string{h.OSFamily, h.OSVersion}
	if h.Build != "" {
		parts = append(parts, "("+h.Build+")")
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
