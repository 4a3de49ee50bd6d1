package core

import (
	"encoding/binary"
	"image"
	"image/draw"
	_ "image/png"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
)

// AssetId names cursor pixel content. Identical pixels get the same id.
type AssetId string

var cursorNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("cursorrt:cursor"))

func contentId(pix []uint8, width, height uint32) AssetId {
	data := make([]byte, 8, 8+len(pix))
	binary.LittleEndian.PutUint32(data[0:], width)
	binary.LittleEndian.PutUint32(data[4:], height)
	data = append(data, pix...)
	return AssetId(uuid.NewSHA1(cursorNamespace, data).String())
}

// CursorImage holds RGBA8 texels in top-down row order.
type CursorImage struct {
	Id     AssetId
	Pix    []uint8
	Width  uint32
	Height uint32
	// Scale is stored size over decoded size, per axis.
	Scale   [2]float32
	Hotspot [2]float32
}

// LoadCursorImage decodes a PNG or BMP cursor sheet of columns x rows
// frames. When size > 0 every frame is scaled so its longer side is size
// pixels; any texels past the last whole frame are dropped.
func LoadCursorImage(path string, size, columns, rows int) (*CursorImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open cursor image")
	}
	defer f.Close()

	return DecodeCursorImage(f, size, columns, rows)
}

func DecodeCursorImage(r io.Reader, size, columns, rows int) (*CursorImage, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "decode cursor image")
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, errors.Errorf("cursor image (%s) is empty", format)
	}
	columns, rows = max(1, columns), max(1, rows)
	fw, fh := bounds.Dx()/columns, bounds.Dy()/rows
	if fw == 0 || fh == 0 {
		return nil, errors.Errorf("cursor image %dx%d too small for a %dx%d frame grid", bounds.Dx(), bounds.Dy(), columns, rows)
	}

	rgba := toRGBA(img)
	scale := [2]float32{1, 1}
	if size > 0 {
		tw, th := fitSize(fw, fh, size)
		rgba = scaleFrames(rgba, fw, fh, tw, th, columns, rows)
		scale = [2]float32{float32(tw) / float32(fw), float32(th) / float32(fh)}
	}

	b := rgba.Bounds()
	c := &CursorImage{
		Pix:    rgba.Pix,
		Width:  uint32(b.Dx()),
		Height: uint32(b.Dy()),
		Scale:  scale,
	}
	c.Id = contentId(c.Pix, c.Width, c.Height)
	return c, nil
}

// NewCursorImage wraps an existing RGBA image without copying its pixels.
func NewCursorImage(img *image.RGBA) *CursorImage {
	b := img.Bounds()
	c := &CursorImage{
		Pix:    img.Pix,
		Width:  uint32(b.Dx()),
		Height: uint32(b.Dy()),
		Scale:  [2]float32{1, 1},
	}
	c.Id = contentId(c.Pix, c.Width, c.Height)
	return c
}

// WithHotspot sets the hotspot from coordinates in the decoded (unscaled) image.
func (c *CursorImage) WithHotspot(x, y int) *CursorImage {
	c.Hotspot = [2]float32{float32(x) * c.Scale[0], float32(y) * c.Scale[1]}
	return c
}

// BottomUp returns the texels with rows reversed, the order sprite texture
// coordinates expect (v = 0 is the bottom row).
func (c *CursorImage) BottomUp() []uint8 {
	stride := int(c.Width) * 4
	out := make([]uint8, len(c.Pix))
	rows := int(c.Height)
	for y := 0; y < rows; y++ {
		copy(out[(rows-1-y)*stride:(rows-y)*stride], c.Pix[y*stride:(y+1)*stride])
	}
	return out
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// fitSize scales w x h so the longer side is size, keeping the aspect.
func fitSize(w, h, size int) (int, int) {
	if w >= h {
		return size, max(1, h*size/w)
	}
	return max(1, w*size/h), size
}

// scaleFrames resamples each fw x fh frame of src into a tw x th cell on its
// own, so no frame samples texels of its neighbours.
func scaleFrames(src *image.RGBA, fw, fh, tw, th, columns, rows int) *image.RGBA {
	if fw == tw && fh == th && src.Bounds().Dx() == fw*columns && src.Bounds().Dy() == fh*rows {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw*columns, th*rows))
	for r := 0; r < rows; r++ {
		for c := 0; c < columns; c++ {
			sr := image.Rect(c*fw, r*fh, (c+1)*fw, (r+1)*fh)
			dr := image.Rect(c*tw, r*th, (c+1)*tw, (r+1)*th)
			xdraw.CatmullRom.Scale(dst, dr, src, sr, xdraw.Src, nil)
		}
	}
	return dst
}
