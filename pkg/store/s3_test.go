package store

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/pico-voice/pico-skill/pkg/core/session"
)

// fakeS3 is an in-memory S3API.
type fakeS3 struct {
	objects map[string][]byte
	getErr  error
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	body, ok := f.objects[*params.Key]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(body)))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*params.Key] = body
	return &s3.PutObjectOutput{}, nil
}

func TestKeyLayout(t *testing.T) {
	t.Parallel()

	fake := newFakeS3()
	st := NewS3Store(fake, "bucket", "Media")
	ctx := context.Background()

	if err := st.SaveUserRecord(ctx, "amzn1.ask.account.X", map[string]any{"memo": "hi"}); err != nil {
		t.Fatalf("SaveUserRecord: %v", err)
	}
	if err := st.SaveResults(ctx, "amzn1.ask.account.X", nil); err != nil {
		t.Fatalf("SaveResults: %v", err)
	}
	if err := st.SaveSnippets(ctx, "amzn1.ask.account.X", nil); err != nil {
		t.Fatalf("SaveSnippets: %v", err)
	}

	for _, key := range []string{
		"Media/pico_persist/amzn1.ask.account.X.json",
		"Media/pico_notion/amzn1.ask.account.X.json",
		"Media/pico_rag/amzn1.ask.account.X.json",
	} {
		if _, ok := fake.objects[key]; !ok {
			t.Errorf("missing object at %q; have %v", key, keysOf(fake.objects))
		}
	}
}

func keysOf(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestEmptyUserIDFallsBackToAnon(t *testing.T) {
	t.Parallel()

	fake := newFakeS3()
	st := NewS3Store(fake, "bucket", "Media")

	if err := st.SaveUserRecord(context.Background(), "", map[string]any{"a": 1}); err != nil {
		t.Fatalf("SaveUserRecord: %v", err)
	}
	if _, ok := fake.objects["Media/pico_persist/anon.json"]; !ok {
		t.Errorf("anon fallback key missing; have %v", keysOf(fake.objects))
	}
}

func TestMissingObjectsAreZeroValuesNotErrors(t *testing.T) {
	t.Parallel()

	st := NewS3Store(newFakeS3(), "bucket", "Media")
	ctx := context.Background()

	rec, err := st.LoadUserRecord(ctx, "u")
	if err != nil {
		t.Fatalf("LoadUserRecord: %v", err)
	}
	if len(rec) != 0 {
		t.Errorf("record = %v, want empty", rec)
	}

	items, err := st.LoadResults(ctx, "u")
	if err != nil || items != nil {
		t.Errorf("LoadResults = %v, %v", items, err)
	}

	snips, err := st.LoadSnippets(ctx, "u")
	if err != nil || snips != nil {
		t.Errorf("LoadSnippets = %v, %v", snips, err)
	}
}

func TestRoundTrips(t *testing.T) {
	t.Parallel()

	st := NewS3Store(newFakeS3(), "bucket", "Media")
	ctx := context.Background()

	record := map[string]any{"memo": "牛乳を買う"}
	if err := st.SaveUserRecord(ctx, "u", record); err != nil {
		t.Fatalf("SaveUserRecord: %v", err)
	}
	got, err := st.LoadUserRecord(ctx, "u")
	if err != nil {
		t.Fatalf("LoadUserRecord: %v", err)
	}
	if got["memo"] != "牛乳を買う" {
		t.Errorf("record = %v", got)
	}

	items := []session.ResultItem{{ID: "p1", Title: "メモ", URL: "https://n/p1"}}
	if err := st.SaveResults(ctx, "u", items); err != nil {
		t.Fatalf("SaveResults: %v", err)
	}
	back, err := st.LoadResults(ctx, "u")
	if err != nil {
		t.Fatalf("LoadResults: %v", err)
	}
	if len(back) != 1 || back[0] != items[0] {
		t.Errorf("results = %+v", back)
	}

	snips := []session.Snippet{{Title: "t", URL: "u", Text: "x", TS: 123}}
	if err := st.SaveSnippets(ctx, "u", snips); err != nil {
		t.Fatalf("SaveSnippets: %v", err)
	}
	gotSnips, err := st.LoadSnippets(ctx, "u")
	if err != nil {
		t.Fatalf("LoadSnippets: %v", err)
	}
	if len(gotSnips) != 1 || gotSnips[0] != snips[0] {
		t.Errorf("snippets = %+v", gotSnips)
	}
}

func TestCorruptObjectSurfacesError(t *testing.T) {
	t.Parallel()

	fake := newFakeS3()
	fake.objects["Media/pico_persist/u.json"] = []byte("{not json")
	st := NewS3Store(fake, "bucket", "Media")

	if _, err := st.LoadUserRecord(context.Background(), "u"); err == nil {
		t.Errorf("corrupt object should error")
	}
}
