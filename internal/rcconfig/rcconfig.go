// Package rcconfig reads and rewrites rclone-style sectioned configuration
// text. Each section names one remote; the keys the service cares about are
// type, client_id, client_secret, and token.
package rcconfig

import (
	"bytes"
	"fmt"

	"gopkg.in/ini.v1"

	"github.com/ajithvnr2001/gdrive-aggregator/internal/domain"
)

// Config is a parsed configuration text holding named remote sections.
// It keeps the underlying file around so a single remote's token can be
// rewritten and the full text re-serialized.
type Config struct {
	file *ini.File
}

// Parse loads configuration text into a Config.
func Parse(text string) (*Config, error) {
	file, err := ini.Load([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &Config{file: file}, nil
}

// Remotes lists remote names in section order.
func (c *Config) Remotes() []string {
	var names []string
	for _, section := range c.file.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		names = append(names, section.Name())
	}
	return names
}

// Remote returns the named remote entry, reporting whether it exists.
func (c *Config) Remote(name string) (domain.Remote, bool) {
	if name == "" || !c.file.HasSection(name) {
		return domain.Remote{}, false
	}
	section := c.file.Section(name)
	return domain.Remote{
		Name:         name,
		Kind:         section.Key("type").String(),
		ClientID:     section.Key("client_id").String(),
		ClientSecret: section.Key("client_secret").String(),
		Token:        section.Key("token").String(),
	}, true
}

// SetToken replaces the token value of the named remote.
func (c *Config) SetToken(name, tokenJSON string) error {
	if !c.file.HasSection(name) {
		return fmt.Errorf("set token: %w", domain.ErrRemoteNotFound)
	}
	c.file.Section(name).Key("token").SetValue(tokenJSON)
	return nil
}

// Encode serializes the configuration back to text.
func (c *Config) Encode() (string, error) {
	var buf bytes.Buffer
	if _, err := c.file.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return buf.String(), nil
}
