// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-getter/v2"
	"github.com/spf13/afero"
)

const (
	goGetterPathSeparator = "//"
	goGetterRefSeparator  = "?"
	minimumGetterParts    = 3 // scheme, host and path
)

var (
	// ErrGetConfigFile is returned when the YAML file cannot be fetched.
	ErrGetConfigFile = errors.New("could not get config file")
	// ErrParseConfigFile is returned when the YAML file is malformed.
	ErrParseConfigFile = errors.New("could not parse config file")
)

type yamlDatabase struct {
	URL      *string `yaml:"url"`
	User     *string `yaml:"user"`
	Password *string `yaml:"password"`
}

type yamlFile struct {
	Root          *string      `yaml:"root"`
	StopOnError   *bool        `yaml:"stop_on_error"`
	AutoConfirm   *bool        `yaml:"auto_confirm"`
	Database      yamlDatabase `yaml:"database"`
	Parallelism   *int         `yaml:"parallelism"`
	ScriptTimeout *string      `yaml:"script_timeout"`
	Grouping      *string      `yaml:"grouping"`
	Out           *string      `yaml:"out"`
}

// LoadYAML fetches src and decodes it into a layer. src is a local path or
// any go-getter source, e.g. "git::https://example.com/repo//rollout.yaml?ref=v1".
func LoadYAML(ctx context.Context, src string) (Layer, error) {
	data, err := fetch(ctx, src)
	if err != nil {
		return Layer{}, err
	}

	return ParseYAML(data)
}

// ParseYAML decodes a YAML document into a layer. Unknown keys are rejected.
func ParseYAML(data []byte) (Layer, error) {
	var f yamlFile
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.Strict()); err != nil {
		return Layer{}, errors.Join(ErrParseConfigFile, err)
	}

	l := Layer{
		Root:           f.Root,
		StopOnError:    f.StopOnError,
		AutoConfirm:    f.AutoConfirm,
		DatabaseURL:    f.Database.URL,
		User:           f.Database.User,
		Password:       f.Database.Password,
		MaxParallelism: f.Parallelism,
		Grouping:       f.Grouping,
		Out:            f.Out,
	}

	if f.ScriptTimeout != nil {
		d, err := time.ParseDuration(*f.ScriptTimeout)
		if err != nil {
			return Layer{}, errors.Join(ErrParseConfigFile, fmt.Errorf("script_timeout: %w", err))
		}

		l.ScriptTimeout = &d
	}

	return l, nil
}

// fetch reads src from FsFactory when it names an existing file there,
// otherwise it hands src to go-getter.
func fetch(ctx context.Context, src string) ([]byte, error) {
	if src == "" {
		return nil, ErrGetConfigFile
	}

	fsys := FsFactory()
	if ok, _ := afero.Exists(fsys, src); ok {
		data, err := afero.ReadFile(fsys, src)
		if err != nil {
			return nil, errors.Join(ErrGetConfigFile, err)
		}

		return data, nil
	}

	return getURL(ctx, src)
}

// getURL retrieves a single file using go-getter. go-getter fetches
// directories, so the file name is split off the source and read back
// from the download directory.
func getURL(ctx context.Context, url string) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "sqlroll-getter-*")
	if err != nil {
		return nil, errors.Join(ErrGetConfigFile, err)
	}

	defer os.RemoveAll(tmpDir) //nolint:errcheck

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Join(ErrGetConfigFile, err)
	}

	client := getter.Client{
		DisableSymlinks: true,
	}

	req := &getter.Request{
		Src:     url,
		Dst:     filepath.Join(tmpDir, "g"),
		Pwd:     wd,
		GetMode: getter.ModeDir,
	}

	var fileName string
	// https://github.com/hashicorp/go-getter/issues/98
	if ok, err := getter.Detect(req, &getter.FileGetter{}); !ok || err != nil {
		if err != nil {
			return nil, errors.Join(ErrGetConfigFile, err)
		}

		var newURL string

		newURL, fileName = splitFileNameFromGetterURL(url)
		if newURL == "" || fileName == "" {
			return nil, fmt.Errorf("%w: invalid URL format: %s", ErrGetConfigFile, url)
		}

		req.Src = newURL
	}

	if fileName == "" {
		req.Src = filepath.Dir(url)
		fileName = filepath.Base(url)
	}

	res, err := client.Get(ctx, req)
	if err != nil {
		return nil, errors.Join(ErrGetConfigFile, err)
	}

	data, err := os.ReadFile(filepath.Join(res.Dst, fileName))
	if err != nil {
		return nil, errors.Join(ErrGetConfigFile, err)
	}

	return data, nil
}

// splitFileNameFromGetterURL splits "scheme://host//dir/file?ref" into the
// directory source "scheme://host//dir?ref" and "file".
func splitFileNameFromGetterURL(url string) (string, string) {
	var ref string

	parts := strings.Split(url, goGetterPathSeparator)
	if len(parts) < minimumGetterParts {
		return "", ""
	}

	last := parts[len(parts)-1]
	if before, after, found := strings.Cut(last, goGetterRefSeparator); found {
		ref = after
		last = before
	}

	if filepath.Clean(last) == filepath.Dir(last) {
		return "", ""
	}

	fileName := filepath.Base(last)

	if dir := filepath.Dir(last); dir == "." {
		parts = parts[:len(parts)-1]
	} else {
		parts[len(parts)-1] = dir
	}

	newURL := strings.Join(parts, goGetterPathSeparator)
	if ref != "" {
		newURL += goGetterRefSeparator + ref
	}

	return newURL, fileName
}
