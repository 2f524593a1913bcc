package supabase

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sc "github.com/supabase-community/storage-go"
)

const urlDuration = 6 * 3600 // 6 hours

var ErrBadImageFormat = errors.New("unsupported/bad image format")

var ImageMIMETypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"tiff": "image/tiff",
}

type ImageBucket struct {
	bucket_id string
	sc        *sc.Client
}

func contentTypeFor(filename string) (string, error) {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "jpg" {
		ext = "jpeg"
	}
	if ext == "tif" {
		ext = "tiff"
	}

	contentType, ok := ImageMIMETypes[ext]
	if !ok {
		return "", ErrBadImageFormat
	}

	return contentType, nil
}

func (b ImageBucket) UploadImage(filename string, buf []byte) (string, string, error) {
	contentType, err := contentTypeFor(filename)
	if err != nil {
		return "", "", err
	}

	newFilename := fmt.Sprintf("uploaded_%s", filename)
	options := sc.FileOptions{
		ContentType: &contentType,
	}

	_, err = b.sc.UploadFile(b.bucket_id, newFilename, bytes.NewReader(buf), options)
	if err != nil {
		return "", "", err
	}

	// Signed URL valid for urlDuration seconds.
	res, err := b.sc.CreateSignedUrl(b.bucket_id, newFilename, urlDuration)
	if err != nil {
		return "", "", err
	}

	return newFilename, res.SignedURL, nil
}

func (b ImageBucket) GetNewSignedImageURL(filename string, duration int) (string, error) {
	res, err := b.sc.CreateSignedUrl(b.bucket_id, filename, duration)
	if err != nil {
		return "", err
	}

	return res.SignedURL, nil
}

func (b ImageBucket) UpdateImage(filename string, buf []byte) error {
	contentType, err := contentTypeFor(filename)
	if err != nil {
		return err
	}

	options := sc.FileOptions{
		ContentType: &contentType,
	}

	_, err = b.sc.UpdateFile(b.bucket_id, filename, bytes.NewReader(buf), options)
	if err != nil {
		return err
	}

	return nil
}

func (b ImageBucket) StreamImage(filename string) ([]byte, error) {
	buf, err := b.sc.DownloadFile(b.bucket_id, filename)
	if err != nil {
		return nil, err
	}

	return buf, nil
}
