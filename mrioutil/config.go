/*
Copyright © 2023 the BoARIO-inputs authors.
This file is part of BoARIO-inputs.

BoARIO-inputs is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

BoARIO-inputs is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with BoARIO-inputs.  If not, see <http://www.gnu.org/licenses/>.
*/

package mrioutil

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// Log receives the progress messages emitted by this package.
var Log logrus.FieldLogger = logrus.StandardLogger()

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("mrioutil: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// setLogging sets the level and format of the standard logger.
func setLogging(level string) error {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("mrioutil: %v", err)
	}
	logrus.SetLevel(l)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

// inputs returns the local paths of the input files given by the named
// configuration variables, downloading them if needed. Environment
// variables in the paths are expanded.
func inputs(ctx context.Context, cfg *viper.Viper, names ...string) ([]string, error) {
	o := make([]string, len(names))
	for i, name := range names {
		p := os.ExpandEnv(cfg.GetString(name))
		if p == "" {
			continue
		}
		var err error
		if o[i], err = maybeDownload(ctx, p); err != nil {
			return nil, fmt.Errorf("%s: %v", name, err)
		}
	}
	return o, nil
}

// required returns an error naming the first empty configuration variable.
func required(cfg *viper.Viper, names ...string) error {
	for _, name := range names {
		if cfg.GetString(name) == "" {
			return fmt.Errorf("mrioutil: you need to specify the %s configuration variable", name)
		}
	}
	return nil
}

// checkOutputFile expands the environment variables in f and makes sure
// its directory exists. Blob storage paths are replaced by a local path
// registered with u for later upload.
func checkOutputFile(f string, u *uploader) (string, error) {
	if f == "" {
		return "", nil
	}
	f = os.ExpandEnv(f)
	if IsBlob(f) {
		return u.maybeUpload(f), nil
	}
	if err := os.MkdirAll(filepath.Dir(f), os.ModePerm); err != nil {
		return f, fmt.Errorf("mrioutil: creating output directory: %v", err)
	}
	return f, nil
}

// toIntSliceE reads an integer list set either in a configuration file
// or as a json list from the command line.
func toIntSliceE(s interface{}) ([]int, error) {
	str, ok := s.(string)
	if !ok {
		return cast.ToIntSliceE(s)
	}
	str = strings.TrimSpace(str)
	if str == "" || str == "[]" {
		return nil, nil
	}
	var o []int
	if err := json.Unmarshal([]byte(str), &o); err != nil {
		return nil, err
	}
	return o, nil
}
