package services

import "errors"

// Validation errors. Each is returned before any store call.
var (
	ErrInvalidCoordinate    = errors.New("invalid coordinate")
	ErrInvalidRadius        = errors.New("invalid radius")
	ErrInvalidText          = errors.New("invalid text")
	ErrInvalidCategory      = errors.New("invalid category")
	ErrInvalidRating        = errors.New("rating must be between 1 and 5")
	ErrInsufficientAccuracy = errors.New("gps accuracy is insufficient")
	ErrInvalidPhoto         = errors.New("invalid photo")
)

var (
	ErrGlyphNotFound   = errors.New("glyph not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrPhotoNotFound   = errors.New("glyph has no photo")
	ErrNotOwner        = errors.New("not the owner of this glyph")
	ErrOutOfRange      = errors.New("glyph is out of discovery range")
)

// IsValidation reports whether err is caused by bad caller input.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidCoordinate,
		ErrInvalidRadius,
		ErrInvalidText,
		ErrInvalidCategory,
		ErrInvalidRating,
		ErrInsufficientAccuracy,
		ErrInvalidPhoto,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
