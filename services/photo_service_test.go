package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	puts      map[string][]byte
	deletes   []string
	putErr    error
	deleteErr error
	expires   time.Duration
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{puts: make(map[string][]byte)}
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts[*in.Key] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deletes = append(f.deletes, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeObjects) PresignGetObject(_ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://signed.example/" + *in.Key, Method: "GET"}, nil
}

func newPhotoEnv(t *testing.T) (*testEnv, *fakeObjects, *PhotoService) {
	env := newTestEnv(t)
	objects := newFakeObjects()
	svc := NewPhotoService(objects, objects, env.glyphs, "glyph-photos", "https://cdn.example/glyph-photos/")
	svc.now = env.clock.now
	return env, objects, svc
}

func TestPhotoKeyAndURL(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "abc_1700000000123.png", PhotoKey("abc", at, "png"))

	key, err := KeyFromURL("https://cdn.example/glyph-photos/abc_1.jpg?x=1")
	require.NoError(t, err)
	assert.Equal(t, "abc_1.jpg", key)

	_, err = KeyFromURL("https://cdn.example/")
	assert.ErrorIs(t, err, ErrInvalidPhoto)
}

func TestUploadGlyphPhoto(t *testing.T) {
	env, objects, svc := newPhotoEnv(t)
	ctx := context.Background()
	g := env.createGlyph(t, "author", nyc, "with photo")
	data := []byte("png bytes")

	updated, err := svc.UploadGlyphPhoto(ctx, "author", g.ID, bytes.NewReader(data), int64(len(data)), "image/png")
	require.NoError(t, err)

	key := PhotoKey(g.ID, env.clock.t, "png")
	assert.Equal(t, data, objects.puts[key])
	require.NotNil(t, updated.PhotoURL)
	assert.Equal(t, "https://cdn.example/glyph-photos/"+key, *updated.PhotoURL)

	env.clock.t = env.clock.t.Add(time.Second)
	_, err = svc.UploadGlyphPhoto(ctx, "author", g.ID, bytes.NewReader(data), int64(len(data)), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, []string{key}, objects.deletes, "previous photo removed")
}

func TestUploadGlyphPhotoRejects(t *testing.T) {
	env, objects, svc := newPhotoEnv(t)
	ctx := context.Background()
	g := env.createGlyph(t, "author", nyc, "with photo")
	data := []byte("x")

	_, err := svc.UploadGlyphPhoto(ctx, "author", g.ID, bytes.NewReader(data), MaxPhotoSize+1, "image/png")
	assert.ErrorIs(t, err, ErrInvalidPhoto)

	_, err = svc.UploadGlyphPhoto(ctx, "author", g.ID, bytes.NewReader(data), 1, "application/pdf")
	assert.ErrorIs(t, err, ErrInvalidPhoto)

	_, err = svc.UploadGlyphPhoto(ctx, "intruder", g.ID, bytes.NewReader(data), 1, "image/png")
	assert.ErrorIs(t, err, ErrNotOwner)

	objects.putErr = errors.New("bucket gone")
	_, err = svc.UploadGlyphPhoto(ctx, "author", g.ID, bytes.NewReader(data), 1, "image/png")
	assert.Error(t, err)

	assert.Empty(t, objects.puts)
	current, err := env.glyphs.GetGlyph(ctx, g.ID)
	require.NoError(t, err)
	assert.Nil(t, current.PhotoURL)
}

func TestSignedURLDefaultsExpiry(t *testing.T) {
	_, objects, svc := newPhotoEnv(t)

	url, err := svc.SignedURL(context.Background(), "k_1.webp", 0)
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/k_1.webp", url)
	assert.Equal(t, DefaultSignedURLTTL, objects.expires)
}

func TestGlyphPhotoURL(t *testing.T) {
	env, objects, svc := newPhotoEnv(t)
	ctx := context.Background()
	g := env.createGlyph(t, "author", nyc, "with photo")

	_, err := svc.GlyphPhotoURL(ctx, g.ID)
	assert.ErrorIs(t, err, ErrPhotoNotFound)

	data := []byte("webp")
	_, err = svc.UploadGlyphPhoto(ctx, "author", g.ID, bytes.NewReader(data), int64(len(data)), "image/webp")
	require.NoError(t, err)

	signed, err := svc.GlyphPhotoURL(ctx, g.ID)
	require.NoError(t, err)
	key := PhotoKey(g.ID, env.clock.t, "webp")
	assert.Equal(t, "https://signed.example/"+key, signed.URL)
	assert.Equal(t, env.clock.t.Add(DefaultSignedURLTTL), signed.ExpiresAt)
	assert.Equal(t, DefaultSignedURLTTL, objects.expires)
}

func TestDeleteGlyphPhoto(t *testing.T) {
	env, objects, svc := newPhotoEnv(t)
	ctx := context.Background()
	g := env.createGlyph(t, "author", nyc, "with photo")

	_, err := svc.DeleteGlyphPhoto(ctx, "author", g.ID)
	assert.ErrorIs(t, err, ErrPhotoNotFound)

	data := []byte("png")
	_, err = svc.UploadGlyphPhoto(ctx, "author", g.ID, bytes.NewReader(data), int64(len(data)), "image/png")
	require.NoError(t, err)
	key := PhotoKey(g.ID, env.clock.t, "png")

	_, err = svc.DeleteGlyphPhoto(ctx, "intruder", g.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	objects.deleteErr = errors.New("bucket gone")
	_, err = svc.DeleteGlyphPhoto(ctx, "author", g.ID)
	require.Error(t, err)
	current, err := env.glyphs.GetGlyph(ctx, g.ID)
	require.NoError(t, err)
	assert.NotNil(t, current.PhotoURL, "url kept when the object could not be removed")

	objects.deleteErr = nil
	updated, err := svc.DeleteGlyphPhoto(ctx, "author", g.ID)
	require.NoError(t, err)
	assert.Nil(t, updated.PhotoURL)
	assert.Equal(t, []string{key}, objects.deletes)
}
