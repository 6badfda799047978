package export

import (
	"bytes"
	"fmt"

	"cryptoagent/internal/backtest"
	"cryptoagent/internal/core"
)

type Line struct{ X, Y float64 }

type Marker struct {
	X    float64
	Y    float64
	Kind string // buy | sell
}

// EquitySVG renders the equity curve with buy/sell markers at the candle
// index of each trade.
func EquitySVG(res backtest.Result, w, h int) []byte {
	line := make([]Line, 0, len(res.EquityCurve))
	for i, p := range res.EquityCurve {
		line = append(line, Line{X: float64(i), Y: p.Equity})
	}
	marks := make([]Marker, 0, len(res.Trades))
	for _, t := range res.Trades {
		if t.Index >= 0 && t.Index < len(res.EquityCurve) {
			marks = append(marks, Marker{
				X:    float64(t.Index),
				Y:    res.EquityCurve[t.Index].Equity,
				Kind: t.Action.String(),
			})
		}
	}
	return SimpleSVGChart(w, h, line, marks, fmt.Sprintf("Equity %s %s", res.Symbol, res.TF))
}

// SimpleSVGChart — очень простой генератор SVG (одна линия + маркеры)
func SimpleSVGChart(w, h int, line []Line, marks []Marker, title string) []byte {
	if w <= 0 {
		w = 900
	}
	if h <= 0 {
		h = 300
	}
	if len(line) == 0 {
		return []byte("<svg xmlns='http://www.w3.org/2000/svg'/>")
	}
	minx, maxx := line[0].X, line[len(line)-1].X
	miny, maxy := line[0].Y, line[0].Y
	for _, p := range line {
		if p.Y < miny {
			miny = p.Y
		}
		if p.Y > maxy {
			maxy = p.Y
		}
	}
	sx := float64(w-80) / (maxx - minx + 1e-9)
	sy := float64(h-60) / (maxy - miny + 1e-9)
	var b bytes.Buffer
	fmt.Fprintf(&b, "<svg xmlns='http://www.w3.org/2000/svg' width='%d' height='%d' viewBox='0 0 %d %d'>", w, h, w, h)
	b.WriteString("<rect width='100%' height='100%' fill='#0b0f17'/>")
	b.WriteString("<g transform='translate(40,20)'>")
	fmt.Fprintf(&b, "<line x1='0' y1='0' x2='0' y2='%d' stroke='#1f2837' />", h-60)
	fmt.Fprintf(&b, "<line x1='0' y1='%d' x2='%d' y2='%d' stroke='#1f2837' />", h-60, w-80, h-60)
	b.WriteString("<polyline fill='none' stroke='#59a6ff' stroke-width='1.5' points='")
	for i, p := range line {
		x := (p.X - minx) * sx
		y := float64(h-60) - (p.Y-miny)*sy
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.2f,%.2f", x, y)
	}
	b.WriteString("'/>")
	for _, m := range marks {
		x := (m.X - minx) * sx
		y := float64(h-60) - (m.Y-miny)*sy
		color := "#8bff9b"
		if m.Kind == core.Sell.String() {
			color = "#ff7a7a"
		}
		fmt.Fprintf(&b, "<circle cx='%.2f' cy='%.2f' r='3' fill='%s' />", x, y, color)
	}
	b.WriteString("</g>")
	fmt.Fprintf(&b, "<text x='16' y='18' fill='#e6edf3' font-family='Inter' font-size='14'>%s</text>", title)
	b.WriteString("</svg>")
	return b.Bytes()
}
