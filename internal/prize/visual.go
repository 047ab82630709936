package prize

import (
	"bytes"
	"fmt"
)

// Visual is how a prize is drawn: either a short symbol (usually an emoji)
// or an uploaded image. Renderers switch on the concrete type.
type Visual interface {
	visual()
}

type Symbol struct {
	Code string
}

type Image struct {
	MIME string
	Data []byte
}

func (Symbol) visual() {}
func (Image) visual()  {}

// DefaultSymbol replaces an image when the player resets it.
var DefaultSymbol = Symbol{Code: "🎁"}

// Label is a short text form for plain-text surfaces.
func Label(v Visual) string {
	switch v := v.(type) {
	case Symbol:
		return v.Code
	case Image:
		return "[image]"
	default:
		return "?"
	}
}

// storable returns v if it can be written and read back, otherwise
// DefaultSymbol. Blank symbols and empty images are not storable.
func storable(v Visual) Visual {
	switch v := v.(type) {
	case Symbol:
		if v.Code != "" {
			return v
		}
	case Image:
		if len(v.Data) > 0 {
			return cloneVisual(v)
		}
	}
	return DefaultSymbol
}

func cloneVisual(v Visual) Visual {
	if img, ok := v.(Image); ok {
		img.Data = bytes.Clone(img.Data)
		return img
	}
	return v
}

// VisualDoc is the stored form of a Visual.
type VisualDoc struct {
	Kind string `json:"kind"`
	Code string `json:"code,omitempty"`
	MIME string `json:"mime,omitempty"`
	Data []byte `json:"data,omitempty"`
}

const (
	kindSymbol = "symbol"
	kindImage  = "image"
)

func EncodeVisual(v Visual) (VisualDoc, error) {
	switch v := v.(type) {
	case Symbol:
		return VisualDoc{Kind: kindSymbol, Code: v.Code}, nil
	case Image:
		return VisualDoc{Kind: kindImage, MIME: v.MIME, Data: v.Data}, nil
	default:
		return VisualDoc{}, fmt.Errorf("unsupported visual %T", v)
	}
}

func DecodeVisual(d VisualDoc) (Visual, error) {
	switch d.Kind {
	case kindSymbol:
		if d.Code == "" {
			return nil, fmt.Errorf("symbol visual without code")
		}
		return Symbol{Code: d.Code}, nil
	case kindImage:
		if len(d.Data) == 0 {
			return nil, fmt.Errorf("image visual without data")
		}
		return Image{MIME: d.MIME, Data: d.Data}, nil
	default:
		return nil, fmt.Errorf("unknown visual kind %q", d.Kind)
	}
}
