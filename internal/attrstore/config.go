package attrstore

import (
	"errors"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/disk"
	"github.com/sirupsen/logrus"
)

func (c *Config) checkConfig() error {
	if c.InMemory {
		return nil
	}
	if c.Path == "" {
		return errors.New("no path provided in configuration")
	}

	if err := os.MkdirAll(c.Path, 0o750); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	info, err := os.Stat(c.Path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("path is not a directory")
	}

	if c.MinimumFreeGB == 0 {
		return nil
	}
	usage, err := disk.Usage(c.Path)
	if err != nil {
		return fmt.Errorf("read disk usage: %w", err)
	}
	if usage.Free/(1024*1024*1024) < c.MinimumFreeGB {
		return errors.New("not enough space available on disk")
	}
	return nil
}

// logDiskUsage logs the state of the file system holding path.
func logDiskUsage(log *logrus.Logger, path string) error {
	usage, err := disk.Usage(path)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"Path":       path,
		"Filesystem": usage.Fstype,
		"Total (GB)": fmt.Sprintf("%.2f", float64(usage.Total)/1e9),
		"Used (GB)":  fmt.Sprintf("%.2f", float64(usage.Used)/1e9),
		"Free (GB)":  fmt.Sprintf("%.2f", float64(usage.Free)/1e9),
	}).Info("Disk Usage")
	return nil
}
