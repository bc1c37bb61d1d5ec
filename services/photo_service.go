package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"glyphAPI/internal/types/glyph"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

const (
	MaxPhotoSize         = 5 << 20
	DefaultSignedURLTTL  = time.Hour
	photoUploadTimeLimit = 30 * time.Second
)

var photoExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ObjectStorage is the subset of *s3.Client used for glyph photos.
type ObjectStorage interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type ObjectPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type PhotoAttacher interface {
	GetGlyph(ctx context.Context, id string) (*glyph.Glyph, error)
	AttachPhoto(ctx context.Context, userID, id, photoURL string) (*glyph.Glyph, error)
	DetachPhoto(ctx context.Context, userID, id string) (*glyph.Glyph, error)
}

type S3Options struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// NewS3Client loads the default AWS chain, overriding credentials and the
// endpoint when given. A custom endpoint switches to path-style addressing.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	loaders := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

type PhotoService struct {
	storage       ObjectStorage
	presigner     ObjectPresigner
	glyphs        PhotoAttacher
	bucket        string
	publicBaseURL string
	now           func() time.Time
}

func NewPhotoService(storage ObjectStorage, presigner ObjectPresigner, glyphs PhotoAttacher, bucket, publicBaseURL string) *PhotoService {
	return &PhotoService{
		storage:       storage,
		presigner:     presigner,
		glyphs:        glyphs,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
	}
}

// PhotoKey names an upload as <glyphID>_<unix millis>.<ext>.
func PhotoKey(glyphID string, at time.Time, ext string) string {
	return fmt.Sprintf("%s_%d.%s", glyphID, at.UnixMilli(), ext)
}

// KeyFromURL returns the object key, the last path segment of photoURL.
func KeyFromURL(photoURL string) (string, error) {
	u, err := url.Parse(photoURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPhoto, err)
	}
	key := path.Base(u.Path)
	if key == "" || key == "." || key == "/" {
		return "", fmt.Errorf("%w: no object key in %q", ErrInvalidPhoto, photoURL)
	}
	return key, nil
}

func (s *PhotoService) UploadGlyphPhoto(ctx context.Context, userID, glyphID string, file io.Reader, size int64, contentType string) (*glyph.Glyph, error) {
	if size <= 0 || size > MaxPhotoSize {
		return nil, fmt.Errorf("%w: size must be between 1 byte and %d bytes", ErrInvalidPhoto, MaxPhotoSize)
	}
	ext, ok := photoExtensions[strings.ToLower(contentType)]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidPhoto, contentType)
	}

	g, err := s.glyphs.GetGlyph(ctx, glyphID)
	if err != nil {
		return nil, err
	}
	if !g.OwnedBy(userID) {
		return nil, ErrNotOwner
	}

	key := PhotoKey(glyphID, s.now(), ext)
	uploadCtx, cancel := context.WithTimeout(ctx, photoUploadTimeLimit)
	defer cancel()
	_, err = s.storage.PutObject(uploadCtx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          file,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload photo: %w", err)
	}

	updated, err := s.glyphs.AttachPhoto(ctx, userID, glyphID, s.publicBaseURL+"/"+key)
	if err != nil {
		s.deleteKey(ctx, key)
		return nil, err
	}
	if g.PhotoURL != nil {
		if oldKey, err := KeyFromURL(*g.PhotoURL); err == nil {
			s.deleteKey(ctx, oldKey)
		}
	}

	log.Info().Str("glyph_id", glyphID).Str("key", key).Int64("size", size).Msg("Glyph photo uploaded")
	return updated, nil
}

// DeleteGlyphPhoto removes the glyph's photo object and clears its photo URL.
func (s *PhotoService) DeleteGlyphPhoto(ctx context.Context, userID, glyphID string) (*glyph.Glyph, error) {
	g, err := s.glyphs.GetGlyph(ctx, glyphID)
	if err != nil {
		return nil, err
	}
	if !g.OwnedBy(userID) {
		return nil, ErrNotOwner
	}
	if g.PhotoURL == nil {
		return nil, ErrPhotoNotFound
	}
	key, err := KeyFromURL(*g.PhotoURL)
	if err != nil {
		return nil, err
	}

	_, err = s.storage.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete photo %s: %w", key, err)
	}

	updated, err := s.glyphs.DetachPhoto(ctx, userID, glyphID)
	if err != nil {
		return nil, err
	}
	log.Info().Str("glyph_id", glyphID).Str("key", key).Msg("Glyph photo deleted")
	return updated, nil
}

type SignedPhoto struct {
	GlyphID   string    `json:"glyph_id"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GlyphPhotoURL presigns a GET for the glyph's current photo.
func (s *PhotoService) GlyphPhotoURL(ctx context.Context, glyphID string) (*SignedPhoto, error) {
	g, err := s.glyphs.GetGlyph(ctx, glyphID)
	if err != nil {
		return nil, err
	}
	if g.PhotoURL == nil {
		return nil, ErrPhotoNotFound
	}
	key, err := KeyFromURL(*g.PhotoURL)
	if err != nil {
		return nil, err
	}

	signed, err := s.SignedURL(ctx, key, DefaultSignedURLTTL)
	if err != nil {
		return nil, err
	}
	return &SignedPhoto{GlyphID: g.ID, URL: signed, ExpiresAt: s.now().Add(DefaultSignedURLTTL)}, nil
}

// SignedURL presigns a GET for key. expiry <= 0 uses DefaultSignedURLTTL.
func (s *PhotoService) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = DefaultSignedURLTTL
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign photo %s: %w", key, err)
	}
	return req.URL, nil
}

func (s *PhotoService) deleteKey(ctx context.Context, key string) {
	_, err := s.storage.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to remove photo object")
	}
}
