// Package skybox decodes the background image and the six cube faces of a skybox into
// RGBA pixel buffers ready for upload.
package skybox

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-cad/common"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrUnsupportedImage is returned for background files that are not PNG or JPEG.
	ErrUnsupportedImage = errors.New("unsupported image format")

	// ErrMissingFace is returned when a skybox folder lacks one of the six faces.
	ErrMissingFace = errors.New("skybox face not found")
)

// FaceNames lists the cube faces in upload order: +X, -X, +Y, -Y, +Z, -Z.
var FaceNames = [6]string{"px", "nx", "py", "ny", "pz", "nz"}

// faceExtensions are tried in order when looking up a face file.
var faceExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".webp", ".tiff"}

// backgroundExtensions are the formats accepted for a flat background image.
var backgroundExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// Image is a decoded RGBA image, rows top to bottom unless it was flipped.
type Image struct {
	Width  int
	Height int
	Pixels []byte
}

// Cubemap holds six square faces of equal size in FaceNames order.
type Cubemap struct {
	Size  int
	Faces [6]*Image
}

// LoadImage decodes any registered format (PNG, JPEG, BMP, TIFF, WebP) into RGBA.
//
// Parameters:
//   - path: the image file
//   - flipY: true to reverse the row order
//
// Returns:
//   - *Image: the decoded image
//   - error: error if the file cannot be opened or decoded
func LoadImage(path string, flipY bool) (*Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image file %s: %w", path, err)
	}
	return toImage(img, flipY), nil
}

func toImage(img image.Image, flipY bool) *Image {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	out := &Image{Width: bounds.Dx(), Height: bounds.Dy(), Pixels: rgba.Pix}
	if flipY {
		out.flipY()
	}
	return out
}

func (im *Image) flipY() {
	stride := im.Width * 4
	row := make([]byte, stride)
	for top, bottom := 0, im.Height-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := im.Pixels[top*stride : (top+1)*stride]
		b := im.Pixels[bottom*stride : (bottom+1)*stride]
		copy(row, a)
		copy(a, b)
		copy(b, row)
	}
}

// resize scales im to size x size with bilinear filtering.
func (im *Image) resize(size int) *Image {
	src := &image.RGBA{Pix: im.Pixels, Stride: im.Width * 4, Rect: image.Rect(0, 0, im.Width, im.Height)}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return &Image{Width: size, Height: size, Pixels: dst.Pix}
}

// LoadBackground decodes a PNG or JPEG background image.
//
// Parameters:
//   - path: the image file
//
// Returns:
//   - *Image: the decoded image
//   - error: ErrUnsupportedImage for other extensions, or a decode error
func LoadBackground(path string) (*Image, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !backgroundExtensions[ext] {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedImage)
	}
	return LoadImage(path, false)
}

// FacePaths locates the six face files in dir. Each face is named after FaceNames with
// the first extension of .png, .jpg, .jpeg, .bmp, .webp or .tiff that exists.
//
// Parameters:
//   - dir: the skybox folder
//
// Returns:
//   - [6]string: face paths in +X, -X, +Y, -Y, +Z, -Z order
//   - error: ErrMissingFace naming the first face not found
func FacePaths(dir string) ([6]string, error) {
	var paths [6]string
	for i, name := range FaceNames {
		for _, ext := range faceExtensions {
			p := filepath.Join(dir, name+ext)
			if _, err := os.Stat(p); err == nil {
				paths[i] = p
				break
			}
		}
		if paths[i] == "" {
			return paths, fmt.Errorf("%s in %s: %w", name, dir, ErrMissingFace)
		}
	}
	return paths, nil
}

// LoadCubemap decodes six faces, flips each vertically, and scales every face to the
// size of the first face's shorter side so the cube is uniform.
//
// Parameters:
//   - paths: face files in +X, -X, +Y, -Y, +Z, -Z order
//
// Returns:
//   - *Cubemap: the decoded cube
//   - error: error naming the face that failed
func LoadCubemap(paths [6]string) (*Cubemap, error) {
	cm := &Cubemap{}
	for i, p := range paths {
		face, err := LoadImage(p, true)
		if err != nil {
			return nil, fmt.Errorf("face %s: %w", FaceNames[i], err)
		}
		if i == 0 {
			cm.Size = min(face.Width, face.Height)
		}
		if face.Width != cm.Size || face.Height != cm.Size {
			common.Logger().Debug("resizing skybox face", "face", FaceNames[i], "width", face.Width, "height", face.Height, "size", cm.Size)
			face = face.resize(cm.Size)
		}
		cm.Faces[i] = face
	}
	return cm, nil
}

// LoadCubemapDir is FacePaths followed by LoadCubemap.
//
// Parameters:
//   - dir: the skybox folder
//
// Returns:
//   - *Cubemap: the decoded cube
//   - error: ErrMissingFace or a decode error
func LoadCubemapDir(dir string) (*Cubemap, error) {
	paths, err := FacePaths(dir)
	if err != nil {
		return nil, err
	}
	return LoadCubemap(paths)
}
