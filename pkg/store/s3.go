package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/pico-voice/pico-skill/pkg/core/session"
)

// Namespaces under the configured prefix. Each user gets one JSON object
// per namespace.
const (
	nsPersist = "pico_persist"
	nsResults = "pico_notion"
	nsRAG     = "pico_rag"
)

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store implements Store on an S3 bucket.
type S3Store struct {
	api    S3API
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3Store creates a store over the given bucket and key prefix.
func NewS3Store(api S3API, bucket, prefix string) *S3Store {
	return &S3Store{api: api, bucket: bucket, prefix: prefix, now: time.Now}
}

func (s *S3Store) key(namespace, userID string) string {
	if userID == "" {
		userID = "anon"
	}
	return fmt.Sprintf("%s/%s/%s.json", s.prefix, namespace, userID)
}

// load reads and decodes one object. A missing key is not an error; out is
// left untouched and false is returned.
func (s *S3Store) load(ctx context.Context, key string, out any) (bool, error) {
	obj, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return false, nil
		}
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	defer obj.Body.Close()

	body, err := io.ReadAll(obj.Body)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *S3Store) save(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) LoadUserRecord(ctx context.Context, userID string) (map[string]any, error) {
	record := make(map[string]any)
	if _, err := s.load(ctx, s.key(nsPersist, userID), &record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *S3Store) SaveUserRecord(ctx context.Context, userID string, record map[string]any) error {
	return s.save(ctx, s.key(nsPersist, userID), record)
}

// resultsDoc is the stored shape for retained results.
type resultsDoc struct {
	Items []session.ResultItem `json:"items"`
	TS    int64                `json:"ts"`
}

func (s *S3Store) LoadResults(ctx context.Context, userID string) ([]session.ResultItem, error) {
	var doc resultsDoc
	if _, err := s.load(ctx, s.key(nsResults, userID), &doc); err != nil {
		return nil, err
	}
	return doc.Items, nil
}

func (s *S3Store) SaveResults(ctx context.Context, userID string, items []session.ResultItem) error {
	return s.save(ctx, s.key(nsResults, userID), resultsDoc{
		Items: items,
		TS:    s.now().Unix(),
	})
}

func (s *S3Store) LoadSnippets(ctx context.Context, userID string) ([]session.Snippet, error) {
	var items []session.Snippet
	if _, err := s.load(ctx, s.key(nsRAG, userID), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *S3Store) SaveSnippets(ctx context.Context, userID string, items []session.Snippet) error {
	return s.save(ctx, s.key(nsRAG, userID), items)
}
