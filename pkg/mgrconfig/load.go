// Copyright 2015 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package mgrconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tracefuzz/tracefuzz/pkg/clangast"
	"github.com/tracefuzz/tracefuzz/pkg/config"
)

func LoadData(data []byte) (*Config, error) {
	cfg, err := LoadPartialData(data)
	if err != nil {
		return nil, err
	}
	if err := Complete(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadFile(filename string) (*Config, error) {
	cfg, err := LoadPartialFile(filename)
	if err != nil {
		return nil, err
	}
	if err := Complete(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadPartialData loads config without completing it, so that callers can override values.
func LoadPartialData(data []byte) (*Config, error) {
	cfg := DefaultValues()
	if err := config.LoadData(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadPartialFile(filename string) (*Config, error) {
	cfg := DefaultValues()
	if err := config.LoadFile(filename, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func DefaultValues() *Config {
	return &Config{
		Clang:   "clang",
		Timeout: 600,
	}
}

func Complete(cfg *Config) error {
	if cfg.Root == "" {
		return fmt.Errorf("config param root is empty")
	}
	if cfg.Workdir == "" {
		return fmt.Errorf("config param workdir is empty")
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("bad config param timeout: %v", cfg.Timeout)
	}
	var err error
	if cfg.Root, err = filepath.Abs(cfg.Root); err != nil {
		return err
	}
	if info, err := os.Stat(cfg.Root); err != nil || !info.IsDir() {
		return fmt.Errorf("bad config param root: %v is not a directory", cfg.Root)
	}
	if cfg.Workdir, err = filepath.Abs(cfg.Workdir); err != nil {
		return err
	}
	if cfg.Harvest.Root == "" {
		cfg.Harvest.Root = cfg.Root
	}
	if err := cfg.Harvest.Complete(); err != nil {
		return fmt.Errorf("bad config param harvest: %w", err)
	}
	if cfg.Program.Timeout == 0 {
		cfg.Program.Timeout = cfg.timeout()
	}
	// The program intercepts the harvested function.
	if cfg.Program.Symbol == "" {
		cfg.Program.Symbol = cfg.Harvest.Symbol
	}
	if err := cfg.Program.Complete(); err != nil {
		return fmt.Errorf("bad config param program: %w", err)
	}
	if cfg.Program.Symbol != cfg.Harvest.Symbol {
		return fmt.Errorf("program symbol %v does not match harvested symbol %v",
			cfg.Program.Symbol, cfg.Harvest.Symbol)
	}
	return nil
}

func (cfg *Config) timeout() time.Duration {
	return time.Duration(cfg.Timeout) * time.Second
}

// Parser returns the clang front end for the harvested tree.
func (cfg *Config) Parser() *clangast.Clang {
	return &clangast.Clang{
		Bin:     cfg.Clang,
		Dir:     cfg.Harvest.Root,
		Flags:   cfg.ClangFlags,
		Timeout: cfg.timeout(),
	}
}
