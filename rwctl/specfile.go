package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/runweave-labs/runweave-go/rundb"
)

// fileConfig mirrors rundb.Config for the YAML config file. Durations are
// strings so "20s" style values work.
type fileConfig struct {
	URL           string `yaml:"url"`
	User          string `yaml:"user"`
	Password      string `yaml:"password"`
	Token         string `yaml:"token"`
	Timeout       string `yaml:"timeout"`
	WatchInterval string `yaml:"watch_interval"`
}

func loadFileConfig(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// overlay applies the file's set fields on top of cfg.
func (fc fileConfig) overlay(cfg rundb.Config) rundb.Config {
	if fc.URL != "" {
		cfg.BaseURL = fc.URL
	}
	if fc.User != "" {
		cfg.User = fc.User
	}
	if fc.Password != "" {
		cfg.Password = fc.Password
	}
	if fc.Token != "" {
		cfg.Token = fc.Token
	}
	if fc.Timeout != "" {
		if d, err := time.ParseDuration(fc.Timeout); err == nil {
			cfg.Timeout = d
		}
	}
	if fc.WatchInterval != "" {
		if d, err := time.ParseDuration(fc.WatchInterval); err == nil {
			cfg.WatchInterval = d
		}
	}
	return cfg
}

// loadSpecDoc reads a YAML or JSON document file. JSON parses as YAML, so
// one decoder covers both.
func loadSpecDoc(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// loadSpecJSON reads a YAML or JSON document file and re-encodes it as JSON.
func loadSpecJSON(path string) (json.RawMessage, error) {
	doc, err := loadSpecDoc(path)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", path, err)
	}
	return body, nil
}

// printDoc writes a JSON document indented for reading. Bodies that are not
// JSON pass through untouched.
func printDoc(w io.Writer, body []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		buf.Reset()
		buf.Write(body)
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}

// printJSON marshals v and writes it indented.
func printJSON(w io.Writer, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return printDoc(w, body)
}
