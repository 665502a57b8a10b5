package shared

import (
	"fmt"
	"strings"

	"github.com/hinshun/vt10x"
)

// vt10x attr constants (unexported in the package).
const (
	vtAttrReverse   = 1
	vtAttrUnderline = 2
	vtAttrBold      = 4
	vtAttrItalic    = 16
)

// RenderScreenANSI iterates over the vt10x cell grid and emits ANSI
// SGR-colored text. Trailing default-color spaces are stripped to avoid
// overflowing the viewport.
func RenderScreenANSI(vt vt10x.Terminal, rows, cols int) string {
	var sb strings.Builder
	sb.Grow(cols * rows * 3)

	for row := 0; row < rows; row++ {
		if row > 0 {
			sb.WriteByte('\n')
		}

		// Find last significant column (non-space or non-default attributes)
		lastCol := cols - 1
		for lastCol >= 0 {
			g := vt.Cell(lastCol, row)
			ch := g.Char
			if ch == 0 {
				ch = ' '
			}
			if ch != ' ' || g.FG != vt10x.DefaultFG || g.BG != vt10x.DefaultBG || g.Mode != 0 {
				break
			}
			lastCol--
		}

		var lastFG vt10x.Color = vt10x.DefaultFG
		var lastBG vt10x.Color = vt10x.DefaultBG
		var lastBold, lastItalic, lastUnderline, lastReverse bool
		inSGR := false

		for col := 0; col <= lastCol; col++ {
			g := vt.Cell(col, row)

			ch := g.Char
			if ch == 0 {
				ch = ' '
			}

			fg := g.FG
			bg := g.BG
			bold := g.Mode&vtAttrBold != 0
			italic := g.Mode&vtAttrItalic != 0
			underline := g.Mode&vtAttrUnderline != 0
			reverse := g.Mode&vtAttrReverse != 0

			if fg != lastFG || bg != lastBG || bold != lastBold || italic != lastItalic || underline != lastUnderline || reverse != lastReverse {
				sb.WriteString("\033[0")

				if bold {
					sb.WriteString(";1")
				}
				if italic {
					sb.WriteString(";3")
				}
				if underline {
					sb.WriteString(";4")
				}
				if reverse {
					sb.WriteString(";7")
				}

				if fg != vt10x.DefaultFG {
					writeSGRColor(&sb, fg, true)
				}
				if bg != vt10x.DefaultBG {
					writeSGRColor(&sb, bg, false)
				}

				sb.WriteByte('m')
				inSGR = true

				lastFG = fg
				lastBG = bg
				lastBold = bold
				lastItalic = italic
				lastUnderline = underline
				lastReverse = reverse
			}

			sb.WriteRune(ch)
		}

		if inSGR {
			sb.WriteString("\033[0m")
		}
	}

	return sb.String()
}

// writeSGRColor writes an SGR color parameter for the given vt10x color.
func writeSGRColor(sb *strings.Builder, c vt10x.Color, isFG bool) {
	idx := uint32(c)

	// Sentinel values (DefaultFG, DefaultBG, DefaultCursor) have bit 24 set — skip
	if idx >= 1<<24 {
		return
	}

	if idx < 8 {
		// Standard ANSI 0-7
		if isFG {
			fmt.Fprintf(sb, ";%d", 30+idx)
		} else {
			fmt.Fprintf(sb, ";%d", 40+idx)
		}
	} else if idx < 16 {
		// Bright ANSI 8-15
		if isFG {
			fmt.Fprintf(sb, ";%d", 90+idx-8)
		} else {
			fmt.Fprintf(sb, ";%d", 100+idx-8)
		}
	} else if idx < 256 {
		// 256-color palette
		if isFG {
			fmt.Fprintf(sb, ";38;5;%d", idx)
		} else {
			fmt.Fprintf(sb, ";48;5;%d", idx)
		}
	} else {
		// 24-bit RGB: value is r<<16 | g<<8 | b
		r := (idx >> 16) & 0xFF
		g := (idx >> 8) & 0xFF
		b := idx & 0xFF
		if isFG {
			fmt.Fprintf(sb, ";38;2;%d;%d;%d", r, g, b)
		} else {
			fmt.Fprintf(sb, ";48;2;%d;%d;%d", r, g, b)
		}
	}
}
