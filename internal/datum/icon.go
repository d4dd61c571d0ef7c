package datum

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
)

// DefaultIconMaxBytes is the ceiling for stored icon images.
const DefaultIconMaxBytes = 40 * 1024

// JPEG qualities tried in order when compressing an icon picture.
var compressionQualities = []int{90, 80, 70, 60, 50, 40, 30, 20, 10, 5, 1}

// minIconSide stops downscaling before icons become unrecognisable.
const minIconSide = 16

// Icon is either an emoji or an image. A decoded Picture is compressed to
// JPEG when the icon is written; Data holds already stored bytes.
type Icon struct {
	Emoji   string
	Picture image.Image
	Data    []byte
}

// EmojiIcon returns an emoji icon.
func EmojiIcon(emoji string) *Icon {
	return &Icon{Emoji: emoji}
}

// PictureIcon returns an icon that will be compressed on write.
func PictureIcon(img image.Image) *Icon {
	return &Icon{Picture: img}
}

// ImageIcon returns an icon backed by already compressed image bytes.
func ImageIcon(data []byte) *Icon {
	return &Icon{Data: data}
}

// IsEmpty reports whether the icon carries neither emoji nor image.
func (i *Icon) IsEmpty() bool {
	return i == nil || (NonEmpty(i.Emoji) == "" && i.Picture == nil && len(i.Data) == 0)
}

// IsEmoji reports whether the icon is an emoji icon.
func (i *Icon) IsEmoji() bool {
	return i != nil && NonEmpty(i.Emoji) != ""
}

// Encode returns the stored form of the icon: an emoji, image bytes, or both
// empty for an empty icon. Pictures, and stored bytes larger than maxBytes,
// are compressed under maxBytes.
func (i *Icon) Encode(maxBytes int) (emoji string, data []byte, err error) {
	if i == nil {
		return "", nil, nil
	}
	if maxBytes <= 0 {
		maxBytes = DefaultIconMaxBytes
	}
	if e := NonEmpty(i.Emoji); e != "" {
		return e, nil, nil
	}
	if i.Picture != nil {
		data, err := CompressImage(i.Picture, maxBytes)
		if err != nil {
			return "", nil, err
		}
		return "", data, nil
	}
	if len(i.Data) > maxBytes {
		img, _, err := image.Decode(bytes.NewReader(i.Data))
		if err != nil {
			return "", nil, NewError("compress icon", ErrImageCouldntBeCompressedEnough, err)
		}
		data, err := CompressImage(img, maxBytes)
		if err != nil {
			return "", nil, err
		}
		return "", data, nil
	}
	if len(i.Data) > 0 {
		out := make([]byte, len(i.Data))
		copy(out, i.Data)
		return "", out, nil
	}
	return "", nil, nil
}

// Equal compares the stored forms of two icons. Pictures are not compared.
func (i *Icon) Equal(o *Icon) bool {
	if i.IsEmpty() || o.IsEmpty() {
		return i.IsEmpty() == o.IsEmpty()
	}
	if i.Picture != nil || o.Picture != nil {
		return false
	}
	return NonEmpty(i.Emoji) == NonEmpty(o.Emoji) && bytes.Equal(i.Data, o.Data)
}

// CompressImage encodes img as JPEG, lowering quality until the result fits
// in maxBytes. When even the lowest quality is too large the image is halved
// and the qualities are tried again, down to minIconSide pixels. It fails
// with ErrImageCouldntBeCompressedEnough when nothing fits.
func CompressImage(img image.Image, maxBytes int) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultIconMaxBytes
	}
	var buf bytes.Buffer
	for {
		for _, q := range compressionQualities {
			buf.Reset()
			if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
				return nil, NewError("compress icon", ErrImageCouldntBeCompressedEnough, err)
			}
			if buf.Len() <= maxBytes {
				return bytes.Clone(buf.Bytes()), nil
			}
		}
		b := img.Bounds()
		if b.Dx()/2 < minIconSide || b.Dy()/2 < minIconSide {
			break
		}
		img = halve(img)
	}
	return nil, NewError("compress icon", ErrImageCouldntBeCompressedEnough, nil)
}

// halve scales img to half its size, averaging each 2x2 block.
func halve(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx()/2, b.Dy()/2
	out := image.NewRGBA64(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, bl, a uint32
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					cr, cg, cb, ca := img.At(b.Min.X+2*x+dx, b.Min.Y+2*y+dy).RGBA()
					r, g, bl, a = r+cr, g+cg, bl+cb, a+ca
				}
			}
			out.SetRGBA64(x, y, color.RGBA64{R: uint16(r / 4), G: uint16(g / 4), B: uint16(bl / 4), A: uint16(a / 4)})
		}
	}
	return out
}
