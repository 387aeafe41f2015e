// Copyright ©️ Lineage Project. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package blame

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/bmeddeb/lineage/modules/textdiff"
)

// fileConfig mirrors the [blame] table of a repository config file.
type fileConfig struct {
	Blame struct {
		Algorithm string `toml:"algorithm"`
		Since     string `toml:"since"`
	} `toml:"blame"`
}

// LoadOptions reads request defaults from a TOML config file:
//
//	[blame]
//	algorithm = "histogram"   # histogram | myers | onp | patience
//	since = "2020-01-01T00:00:00Z"
//
// Absent keys keep their zero values.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	opts := &Options{}
	if fc.Blame.Algorithm != "" {
		if opts.Algorithm, err = textdiff.AlgorithmFromName(fc.Blame.Algorithm); err != nil {
			return nil, err
		}
	}
	if fc.Blame.Since != "" {
		if opts.Since, err = time.Parse(time.RFC3339, fc.Blame.Since); err != nil {
			return nil, fmt.Errorf("parse %s: invalid since: %w", path, err)
		}
	}
	return opts, nil
}
