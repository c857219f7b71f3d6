package export

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

var (
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorRootFill = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorStroke   = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorFallback = color.RGBA{0x99, 0x99, 0x99, 0xff}
)

// namedBrushes covers the CSS names the editor hands out.
var namedBrushes = map[string]color.RGBA{
	"black":          {0x00, 0x00, 0x00, 0xff},
	"white":          {0xff, 0xff, 0xff, 0xff},
	"gray":           {0x80, 0x80, 0x80, 0xff},
	"lightgray":      {0xd3, 0xd3, 0xd3, 0xff},
	"skyblue":        {0x87, 0xce, 0xeb, 0xff},
	"lightblue":      {0xad, 0xd8, 0xe6, 0xff},
	"steelblue":      {0x46, 0x82, 0xb4, 0xff},
	"darkseagreen":   {0x8f, 0xbc, 0x8f, 0xff},
	"lightgreen":     {0x90, 0xee, 0x90, 0xff},
	"palevioletred":  {0xdb, 0x70, 0x93, 0xff},
	"coral":          {0xff, 0x7f, 0x50, 0xff},
	"orange":         {0xff, 0xa5, 0x00, 0xff},
	"gold":           {0xff, 0xd7, 0x00, 0xff},
	"khaki":          {0xf0, 0xe6, 0x8c, 0xff},
	"plum":           {0xdd, 0xa0, 0xdd, 0xff},
	"mediumpurple":   {0x93, 0x70, 0xdb, 0xff},
	"salmon":         {0xfa, 0x80, 0x72, 0xff},
	"tomato":         {0xff, 0x63, 0x47, 0xff},
	"cadetblue":      {0x5f, 0x9e, 0xa0, 0xff},
	"lightslategray": {0x77, 0x88, 0x99, 0xff},
}

// brushColor resolves a node brush: a CSS name from namedBrushes or a
// #rgb / #rrggbb literal. Anything else falls back to gray.
func brushColor(brush string) color.RGBA {
	b := strings.ToLower(strings.TrimSpace(brush))
	if c, ok := namedBrushes[b]; ok {
		return c
	}
	if c, ok := parseHex(b); ok {
		return c
	}
	return colorFallback
}

// BrushHex returns the #rrggbb form of a node brush.
func BrushHex(brush string) string {
	return css(brushColor(brush))
}

func parseHex(s string) (color.RGBA, bool) {
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, false
	}
	s = s[1:]
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xff}, true
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
