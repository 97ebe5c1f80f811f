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
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-cloud/blob"
)

type uploader struct {
	// files is a set of file path pairs. The first of each pair
	// is a local file path and the second is a blob storage
	// path where it should be uploaded to.
	files [][2]string
	err   error
	dir   string
}

// maybeUpload checks whether the given output file path refers to
// a blob storage location. If it does, then a temporary file location
// is returned, which upload later copies to blob storage.
func (u *uploader) maybeUpload(path string) string {
	if u.err != nil || !IsBlob(path) {
		return path
	}
	if u.dir == "" {
		u.dir, u.err = os.MkdirTemp("", "boario")
		if u.err != nil {
			return path
		}
	}
	local := filepath.Join(u.dir, filepath.Base(path))
	u.files = append(u.files, [2]string{local, path})
	return local
}

// upload copies the local outputs to their blob storage locations.
// Outputs that were never written are skipped.
func (u *uploader) upload(ctx context.Context) error {
	if u.err != nil {
		return fmt.Errorf("mrioutil: preparing upload: %v", u.err)
	}
	for _, files := range u.files {
		if _, err := os.Stat(files[0]); os.IsNotExist(err) {
			continue
		}
		err := retry(ctx, files[1], func() error { return uploadFile(ctx, files[0], files[1]) })
		if err != nil {
			return fmt.Errorf("mrioutil: uploading '%s' to '%s': %v", files[0], files[1], err)
		}
		Log.WithField("url", files[1]).Info("uploaded output")
	}
	return nil
}

func uploadFile(ctx context.Context, local, remote string) error {
	r, err := os.Open(local)
	if err != nil {
		return permanent{err}
	}
	defer r.Close()
	u, err := url.Parse(remote)
	if err != nil {
		return permanent{err}
	}
	bucket, err := OpenBucket(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		return permanent{err}
	}
	w, err := bucket.NewWriter(ctx, strings.TrimPrefix(u.Path, "/"), &blob.WriterOptions{})
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
