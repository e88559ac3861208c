package blob

import "context"

// Dummy keeps upload paths working without a configured bucket. The
// returned URL is synthetic and only suitable for development.
type Dummy struct{}

func (d *Dummy) Put(ctx context.Context, key string, data []byte, contentType string) (*Object, error) {
	return &Object{
		Key:      key,
		URL:      "memory://" + key,
		FileSize: int64(len(data)),
	}, nil
}
