package services

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

const shareLinkFormat = "glyph://glyph/%s"

type ShareCode struct {
	GlyphID      string `json:"glyph_id"`
	Link         string `json:"link"`
	QrCodeBase64 string `json:"qr_code_base64"`
}

type ShareService struct {
	glyphs ActiveGlyphLister
}

func NewShareService(glyphs ActiveGlyphLister) *ShareService {
	return &ShareService{glyphs: glyphs}
}

// ShareCode renders a PNG QR code of the glyph's deep link.
func (s *ShareService) ShareCode(ctx context.Context, glyphID string) (*ShareCode, error) {
	g, err := s.glyphs.GetGlyph(ctx, glyphID)
	if err != nil {
		return nil, err
	}

	link := fmt.Sprintf(shareLinkFormat, g.ID)
	pngBytes, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR png: %w", err)
	}

	return &ShareCode{
		GlyphID:      g.ID,
		Link:         link,
		QrCodeBase64: base64.StdEncoding.EncodeToString(pngBytes),
	}, nil
}
