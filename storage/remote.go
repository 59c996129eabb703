package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"beatdrop/config"
	"beatdrop/logger"
	"beatdrop/slug"
)

// Remote serves tracks from a MinIO bucket under the fixed RemotePrefix.
// The canonical object key for a track is songs/<slug>/<filename>.
type Remote struct {
	client *minio.Client
	bucket string
	urlTTL time.Duration
}

// NewRemote connects to the configured MinIO endpoint and ensures the
// bucket exists.
func NewRemote(cfg *config.Config) (*Remote, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %q: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("creating bucket %q: %w", cfg.MinioBucket, err)
		}
		logger.Info("created bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &Remote{
		client: client,
		bucket: cfg.MinioBucket,
		urlTTL: cfg.UploadTokenTTL,
	}, nil
}

// Key returns the canonical object key for a track.
func Key(artist, filename string) string {
	return RemotePrefix + "/" + artist + "/" + filename
}

// ListArtists returns the slug of every artist prefix under songs/.
func (r *Remote) ListArtists(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var slugs []string
	for obj := range r.client.ListObjects(ctx, r.bucket, minio.ListObjectsOptions{
		Prefix: RemotePrefix + "/",
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		// Non-recursive listing yields artist prefixes as keys ending in "/".
		// Loose objects directly under songs/ are not artists.
		if !strings.HasSuffix(obj.Key, "/") {
			continue
		}
		name := strings.Trim(strings.TrimPrefix(obj.Key, RemotePrefix+"/"), "/")
		if name == "" || strings.Contains(name, "/") {
			continue
		}
		s := slug.Normalize(name)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		slugs = append(slugs, s)
	}
	return slugs, nil
}

// ListTracks returns the audio objects under the artist's prefix. An
// artist with no objects at all reports ErrNotFound.
func (r *Remote) ListTracks(ctx context.Context, artist string) ([]Entry, error) {
	prefix := RemotePrefix + "/" + artist + "/"
	found := false
	var tracks []Entry
	for obj := range r.client.ListObjects(ctx, r.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		found = true
		filename := strings.TrimPrefix(obj.Key, prefix)
		if strings.Contains(filename, "/") || !strings.HasSuffix(strings.ToLower(filename), AudioExt) {
			continue
		}
		tracks = append(tracks, Entry{
			Filename: filename,
			Size:     obj.Size,
			Path:     obj.Key,
			Remote:   true,
		})
	}
	if !found {
		return nil, ErrNotFound
	}
	return tracks, nil
}

// ListRootTracks returns audio objects sitting directly under songs/,
// outside any artist prefix.
func (r *Remote) ListRootTracks(ctx context.Context) ([]Entry, error) {
	prefix := RemotePrefix + "/"
	var tracks []Entry
	for obj := range r.client.ListObjects(ctx, r.bucket, minio.ListObjectsOptions{
		Prefix: prefix,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		filename := strings.TrimPrefix(obj.Key, prefix)
		if strings.HasSuffix(obj.Key, "/") || strings.Contains(filename, "/") {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(filename), AudioExt) {
			continue
		}
		tracks = append(tracks, Entry{
			Filename: filename,
			Size:     obj.Size,
			Path:     obj.Key,
			Remote:   true,
		})
	}
	return tracks, nil
}

// StatTrack returns the total size of the named track object.
func (r *Remote) StatTrack(ctx context.Context, artist, filename string) (int64, error) {
	stat, err := r.client.StatObject(ctx, r.bucket, Key(artist, filename), minio.StatObjectOptions{})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" || resp.StatusCode == 404 {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return stat.Size, nil
}

// Open returns a reader over [start, start+length) of the track plus its
// total size. length < 0 reads to the end of the object.
func (r *Remote) Open(ctx context.Context, artist, filename string, start, length int64) (io.ReadCloser, int64, error) {
	key := Key(artist, filename)

	size, err := r.StatTrack(ctx, artist, filename)
	if err != nil {
		return nil, 0, err
	}

	opts := minio.GetObjectOptions{}
	switch {
	case start == 0 && length < 0:
		// whole object
	case length < 0:
		if err := opts.SetRange(start, 0); err != nil {
			return nil, 0, err
		}
	default:
		if err := opts.SetRange(start, start+length-1); err != nil {
			return nil, 0, err
		}
	}

	obj, err := r.client.GetObject(ctx, r.bucket, key, opts)
	if err != nil {
		return nil, 0, err
	}
	return obj, size, nil
}

// DeleteArtist removes every object under the artist's prefix. A real
// removal error (not just an empty prefix) is surfaced to the caller.
func (r *Remote) DeleteArtist(ctx context.Context, artist string) (bool, error) {
	prefix := RemotePrefix + "/" + artist + "/"

	objectsCh := make(chan minio.ObjectInfo)
	listErr := make(chan error, 1)
	count := 0

	go func() {
		defer close(objectsCh)
		for obj := range r.client.ListObjects(ctx, r.bucket, minio.ListObjectsOptions{
			Prefix:    prefix,
			Recursive: true,
		}) {
			if obj.Err != nil {
				listErr <- obj.Err
				return
			}
			count++
			objectsCh <- obj
		}
		listErr <- nil
	}()

	for removeErr := range r.client.RemoveObjects(ctx, r.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if removeErr.Err != nil {
			return false, fmt.Errorf("removing %q: %w", removeErr.ObjectName, removeErr.Err)
		}
	}
	if err := <-listErr; err != nil {
		return false, err
	}
	return count > 0, nil
}

// PresignedGet returns a time-limited URL for downloading one object.
func (r *Remote) PresignedGet(ctx context.Context, key string) (string, error) {
	u, err := r.client.PresignedGetObject(ctx, r.bucket, key, r.urlTTL, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// PresignedPut returns a time-limited, single-object upload URL plus its
// expiry. This is the write credential handed to remote-mode uploaders.
func (r *Remote) PresignedPut(ctx context.Context, key string) (string, time.Time, error) {
	u, err := r.client.PresignedPutObject(ctx, r.bucket, key, r.urlTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	return u.String(), time.Now().Add(r.urlTTL), nil
}
