// Copyright 2020 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package altotxt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const qidConvert = "queueConvert"
const storageId = "storage"

// LocalConn is a simple implementation of the storage and queue
// interfaces that doesn't rely on any "cloud" services, instead doing
// everything on the local machine. This is particularly useful for
// testing, and is what the altotxt command uses by default.
type LocalConn struct {
	// these should be set before running Init(), or left to defaults
	TempDir string
	Logger  zerolog.Logger
}

// Init creates the storage directory if necessary
func (a *LocalConn) Init() error {
	var err error
	if a.TempDir == "" {
		a.TempDir = filepath.Join(os.TempDir(), "altotxt")
	}
	err = os.MkdirAll(a.TempDir, 0700)
	if err != nil {
		return fmt.Errorf("Error creating temporary directory: %w", err)
	}

	err = os.Mkdir(filepath.Join(a.TempDir, storageId), 0700)
	if err != nil && !os.IsExist(err) {
		return fmt.Errorf("Error creating storage directory: %w", err)
	}

	return nil
}

// CheckQueue checks for any messages in a queue. The first line of
// the queue file is returned; an empty Qmsg means the queue is empty.
func (a *LocalConn) CheckQueue(url string, timeout int64) (Qmsg, error) {
	f, err := os.Open(filepath.Join(a.TempDir, url))
	if err != nil {
		f, err = os.Create(filepath.Join(a.TempDir, url))
	}
	if err != nil {
		return Qmsg{}, err
	}
	defer f.Close()
	r := bufio.NewReader(f)
	s, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return Qmsg{}, err
	}
	s = strings.TrimRight(s, "\n")

	return Qmsg{Body: s, Handle: s}, nil
}

// QueueHeartbeat is a no-op with LocalConn
func (a *LocalConn) QueueHeartbeat(msg Qmsg, qurl string, duration int64) (Qmsg, error) {
	return Qmsg{}, nil
}

func (a *LocalConn) ConvertQueueId() string {
	return qidConvert
}

func (a *LocalConn) WIPStorageId() string {
	return storageId
}

func prefixwalker(dirpath string, prefix string, list *[]string) filepath.WalkFunc {
	return func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		n := filepath.ToSlash(strings.TrimPrefix(path, dirpath+string(filepath.Separator)))
		if strings.HasPrefix(n, prefix) {
			*list = append(*list, n)
		}
		return nil
	}
}

// ListObjects lists the keys in a bucket which start with prefix
func (a *LocalConn) ListObjects(bucket string, prefix string) ([]string, error) {
	var list []string
	err := filepath.Walk(filepath.Join(a.TempDir, bucket), prefixwalker(filepath.Join(a.TempDir, bucket), prefix, &list))
	return list, err
}

// DeleteObjects removes a list of keys from a bucket
func (a *LocalConn) DeleteObjects(bucket string, keys []string) error {
	for _, k := range keys {
		err := os.Remove(filepath.Join(a.TempDir, bucket, filepath.FromSlash(k)))
		if err != nil {
			return err
		}
	}
	return nil
}

// AddToQueue adds a message to a queue
func (a *LocalConn) AddToQueue(url string, msg string) error {
	f, err := os.OpenFile(filepath.Join(a.TempDir, url), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(msg + "\n")
	return err
}

// DelFromQueue deletes a message from a queue
func (a *LocalConn) DelFromQueue(url string, handle string) error {
	b, err := os.ReadFile(filepath.Join(a.TempDir, url))
	if err != nil {
		return err
	}
	s := string(b)

	i := strings.Index(s, handle+"\n")
	if i == -1 {
		return fmt.Errorf("Warning: %s not found in queue %s, so not deleted", handle, url)
	}

	// the '+1' is for the newline character
	complete := s[:i] + s[i+len(handle)+1:]

	return os.WriteFile(filepath.Join(a.TempDir, url), []byte(complete), 0644)
}

// Download just copies the file from TempDir/bucket/key to path
func (a *LocalConn) Download(bucket string, key string, path string) error {
	fin, err := os.Open(filepath.Join(a.TempDir, bucket, filepath.FromSlash(key)))
	if err != nil {
		return err
	}
	defer fin.Close()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, fin)
	return err
}

// Upload just copies the file from path to TempDir/bucket/key
func (a *LocalConn) Upload(bucket string, key string, path string) error {
	fin, err := os.Open(path)
	if err != nil {
		return err
	}
	defer fin.Close()

	dest := filepath.Join(a.TempDir, bucket, filepath.FromSlash(key))
	err = os.MkdirAll(filepath.Dir(dest), 0700)
	if err != nil {
		return fmt.Errorf("Error creating storage directory: %w", err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, fin)
	return err
}

func (a *LocalConn) GetLogger() zerolog.Logger {
	return a.Logger
}

// Log records an item with the Logger. Arguments are handled
// as with fmt.Println.
func (a *LocalConn) Log(v ...interface{}) {
	a.Logger.Info().Msg(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}
