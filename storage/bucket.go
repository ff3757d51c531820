package storage

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// Property images live in a single public Supabase Storage bucket. Objects
// are keyed by timestamp plus a random suffix; the public URL embeds the
// bucket name, so the object path can be recovered from a stored URL.
const BucketName = "properties"

// ObjectStore is the object-storage surface the handlers use. Tests swap in
// a recording fake.
type ObjectStore interface {
	Upload(filename string, contentType string, content []byte) (string, error)
	Remove(publicURL string) error
}

var Bucket ObjectStore = &supabaseBucket{}

func InitializeBucket() {
	if os.Getenv("SUPABASE_URL") == "" || os.Getenv("SUPABASE_SERVICE_KEY") == "" {
		fmt.Println("Warning: SUPABASE_URL / SUPABASE_SERVICE_KEY not set, image uploads will fail")
	}
}

// supabaseBucket talks to the Supabase Storage HTTP API directly.
// Upload:  POST   {base}/storage/v1/object/{bucket}/{key}
// Delete:  DELETE {base}/storage/v1/object/{bucket}/{key}
// Public:  {base}/storage/v1/object/public/{bucket}/{key}
type supabaseBucket struct{}

func (s *supabaseBucket) Upload(filename string, contentType string, content []byte) (string, error) {
	base := os.Getenv("SUPABASE_URL")
	key := os.Getenv("SUPABASE_SERVICE_KEY")
	if base == "" || key == "" {
		return "", fmt.Errorf("object storage is not configured")
	}

	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", strings.TrimRight(base, "/"), BucketName, filename)

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", contentType)

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("failed to upload image: status %d: %s", res.StatusCode, string(body))
	}

	publicURL := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", strings.TrimRight(base, "/"), BucketName, filename)
	return publicURL, nil
}

func (s *supabaseBucket) Remove(publicURL string) error {
	base := os.Getenv("SUPABASE_URL")
	key := os.Getenv("SUPABASE_SERVICE_KEY")
	if base == "" || key == "" {
		return fmt.Errorf("object storage is not configured")
	}

	objectPath := ObjectPathFromURL(publicURL)
	if objectPath == "" {
		return fmt.Errorf("not a bucket URL: %s", publicURL)
	}

	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", strings.TrimRight(base, "/"), BucketName, objectPath)

	req, err := http.NewRequest(http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+key)

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("failed to delete image: status %d: %s", res.StatusCode, string(body))
	}

	return nil
}

// ObjectPathFromURL extracts the object key from a bucket public URL, e.g.
// https://xxx.supabase.co/storage/v1/object/public/properties/1234-abc.jpg
// yields "1234-abc.jpg". Returns "" for URLs outside the bucket.
func ObjectPathFromURL(publicURL string) string {
	u, err := url.Parse(publicURL)
	if err != nil {
		return ""
	}
	marker := "/object/public/" + BucketName + "/"
	i := strings.Index(u.Path, marker)
	if i == -1 {
		return ""
	}
	return u.Path[i+len(marker):]
}
