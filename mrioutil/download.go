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
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cenkalti/backoff"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
	"github.com/google/go-cloud/blob/gcsblob"
	"github.com/google/go-cloud/blob/s3blob"
	"github.com/google/go-cloud/gcp"
	"github.com/sirupsen/logrus"
)

// Retry limits for transfers.
var (
	maxRetries   uint64 = 5
	maxRetryTime        = 2 * time.Minute
)

// maybeDownload checks if path is an existing local file. If not and
// it is a URL or a blob, it downloads it into a temporary directory and
// returns the path of the downloaded file. For shapefiles, the
// associated files are downloaded too and the path of the ".shp" file
// is returned. Other paths are returned unchanged.
func maybeDownload(ctx context.Context, path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return path, nil
	}
	switch {
	case strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://"):
		return download(ctx, path, fetchHTTP)
	case IsBlob(path):
		return download(ctx, path, fetchBlob)
	}
	return path, nil
}

// fetcher copies the file at the given location to w.
type fetcher func(ctx context.Context, location string, w io.Writer) error

func download(ctx context.Context, path string, fetch fetcher) (string, error) {
	dir, err := os.MkdirTemp("", "boario")
	if err != nil {
		return path, fmt.Errorf("mrioutil: creating temporary download directory: %v", err)
	}
	fnames := expandShp(path)
	for i, fname := range fnames {
		local := filepath.Join(dir, filepath.Base(fname))
		err := retry(ctx, fname, func() error {
			w, err := os.Create(local)
			if err != nil {
				return permanent{fmt.Errorf("creating file for download: %v", err)}
			}
			if err := fetch(ctx, fname, w); err != nil {
				w.Close()
				return err
			}
			return w.Close()
		})
		if err != nil && i > 0 && filepath.Ext(fname) == ".prj" {
			// Shapefiles without a projection are assumed to be in lon/lat.
			Log.WithField("file", fname).Warn("no projection file downloaded")
			os.Remove(local)
			continue
		}
		if err != nil {
			return path, fmt.Errorf("mrioutil: downloading %s: %v", fname, err)
		}
		Log.WithFields(logrus.Fields{"url": fname, "path": local}).Info("downloaded input")
	}
	return filepath.Join(dir, filepath.Base(fnames[0])), nil
}

// permanent marks an error that retrying cannot fix.
type permanent struct{ error }

// retry runs op with exponential backoff until it succeeds, fails with a
// permanent error or the retries are exhausted.
func retry(ctx context.Context, name string, op func() error) error {
	var perm error
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = maxRetryTime
	err := backoff.RetryNotify(
		func() error {
			err := op()
			if p, ok := err.(permanent); ok {
				perm = p.error
				return nil
			}
			return err
		},
		backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx),
		func(err error, d time.Duration) {
			Log.WithFields(logrus.Fields{"file": name, "error": err}).Warnf("transfer failed, retrying in %v", d)
		},
	)
	if perm != nil {
		return perm
	}
	return err
}

func fetchHTTP(ctx context.Context, location string, w io.Writer) error {
	req, err := http.NewRequest(http.MethodGet, location, nil)
	if err != nil {
		return permanent{err}
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%s: %s", location, resp.Status)
	case resp.StatusCode != http.StatusOK:
		return permanent{fmt.Errorf("%s: %s", location, resp.Status)}
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

func fetchBlob(ctx context.Context, location string, w io.Writer) error {
	u, err := url.Parse(location)
	if err != nil {
		return permanent{err}
	}
	bucket, err := OpenBucket(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		return permanent{err}
	}
	r, err := bucket.NewReader(ctx, strings.TrimPrefix(u.Path, "/"))
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = io.Copy(w, r)
	return err
}

// IsBlob returns whether the given filename represents a blob
// (i.e., if it starts with `gs://`, 's3://', or 'file://').
func IsBlob(path string) bool {
	return strings.HasPrefix(path, "gs://") || strings.HasPrefix(path, "s3://") || strings.HasPrefix(path, "file://")
}

// OpenBucket returns the blob storage bucket specified by bucketName,
// where bucketName must be in the format 'provider://name'. Even if name
// contains subdirectories, only the base directory name is used.
// The accepted providers are "file" for the local filesystem, "gs" for
// Google Cloud Storage and "s3" for AWS S3.
func OpenBucket(ctx context.Context, bucketName string) (*blob.Bucket, error) {
	u, err := url.Parse(bucketName)
	if err != nil {
		return nil, fmt.Errorf("mrioutil.OpenBucket: %v", err)
	}
	switch u.Scheme {
	case "file":
		return fileblob.NewBucket(u.Hostname())
	case "gs":
		return gsBucket(ctx, u.Hostname())
	case "s3":
		return s3Bucket(ctx, u.Hostname())
	default:
		return nil, fmt.Errorf("mrioutil.OpenBucket: invalid provider %s", u.Scheme)
	}
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, name, c)
}

// s3Bucket opens an s3 storage bucket using the AWS_REGION,
// AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY environment variables.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "eu-west-3"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s, err := session.NewSession(c)
	if err != nil {
		return nil, fmt.Errorf("mrioutil: opening AWS session: %v", err)
	}
	return s3blob.OpenBucket(ctx, s, name)
}

// expandShp returns the given file and its associated .dbf, .shx and
// .prj files if it has the .shp extension, and the given file otherwise.
func expandShp(filename string) []string {
	o := []string{filename}
	if filepath.Ext(filename) != ".shp" {
		return o
	}
	stem := strings.TrimSuffix(filename, ".shp")
	for _, ext := range []string{".dbf", ".shx", ".prj"} {
		o = append(o, stem+ext)
	}
	return o
}
