package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/taskdeck/taskdeck/internal/model"
)

// JetStreamStore implements ObjectStore on a JetStream object store bucket.
type JetStreamStore struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	store  jetstream.ObjectStore
	bucket string
}

// NewJetStreamStore connects to NATS. Call Init before use.
func NewJetStreamStore(natsURL, bucket string) (*JetStreamStore, error) {
	conn, err := nats.Connect(natsURL, nats.Name("taskdeck-api"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &JetStreamStore{conn: conn, js: js, bucket: bucket}, nil
}

// Init opens the bucket, creating it on first run.
func (s *JetStreamStore) Init(ctx context.Context) error {
	store, err := s.js.ObjectStore(ctx, s.bucket)
	if err == nil {
		s.store = store
		return nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return fmt.Errorf("failed to open object store bucket: %w", err)
	}

	store, err = s.js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      s.bucket,
		Description: "User avatars",
	})
	if err != nil {
		return fmt.Errorf("failed to create object store bucket: %w", err)
	}

	s.store = store
	return nil
}

// Put stores an object, replacing any object with the same name.
func (s *JetStreamStore) Put(ctx context.Context, name string, data []byte, contentType string) (*ObjectInfo, error) {
	meta := jetstream.ObjectMeta{
		Name:    name,
		Headers: nats.Header{"Content-Type": []string{contentType}},
	}

	info, err := s.store.Put(ctx, meta, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("store object: %w: %w", model.ErrStoreUnavailable, err)
	}
	return toObjectInfo(info), nil
}

// Get reads an object and its metadata.
func (s *JetStreamStore) Get(ctx context.Context, name string) ([]byte, *ObjectInfo, error) {
	result, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, nil, objectErr("get object", err)
	}
	defer result.Close()

	data, err := io.ReadAll(result)
	if err != nil {
		return nil, nil, fmt.Errorf("read object data: %w", err)
	}

	info, err := result.Info()
	if err != nil {
		return nil, nil, fmt.Errorf("get object info: %w", err)
	}
	return data, toObjectInfo(info), nil
}

// GetInfo returns object metadata without the content.
func (s *JetStreamStore) GetInfo(ctx context.Context, name string) (*ObjectInfo, error) {
	info, err := s.store.GetInfo(ctx, name)
	if err != nil {
		return nil, objectErr("get object info", err)
	}
	return toObjectInfo(info), nil
}

// Delete removes an object.
func (s *JetStreamStore) Delete(ctx context.Context, name string) error {
	if err := s.store.Delete(ctx, name); err != nil {
		return objectErr("delete object", err)
	}
	return nil
}

// Ping reports whether the NATS connection is up.
func (s *JetStreamStore) Ping(context.Context) error {
	if !s.IsConnected() {
		return errors.New("nats: not connected")
	}
	return nil
}

// IsConnected returns whether the NATS connection is active.
func (s *JetStreamStore) IsConnected() bool {
	return s.conn != nil && s.conn.IsConnected()
}

// Close drains and closes the NATS connection.
func (s *JetStreamStore) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Drain()
}

func objectErr(op string, err error) error {
	if errors.Is(err, jetstream.ErrObjectNotFound) {
		return model.ErrObjectNotFound
	}
	return fmt.Errorf("%s: %w: %w", op, model.ErrStoreUnavailable, err)
}

func toObjectInfo(info *jetstream.ObjectInfo) *ObjectInfo {
	return &ObjectInfo{
		Name:        info.Name,
		Size:        info.Size,
		ContentType: contentType(info.Headers),
		ModTime:     info.ModTime,
	}
}

func contentType(headers nats.Header) string {
	if headers != nil {
		if ct := headers.Get("Content-Type"); ct != "" {
			return ct
		}
	}
	return defaultContentType
}
