package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/flexsim/internal/analysis"
	"github.com/san-kum/flexsim/internal/store"
)

var bodyColors = []string{"#00d7af", "#ff87ff", "#5fff00", "#ffd700"}

// ParticlesToSVG draws a particle snapshot in the XY plane, one color per
// body. Static particles are drawn as squares.
func ParticlesToSVG(particles []store.ParticleRecord, width, height int) string {
	if len(particles) == 0 {
		return ""
	}

	points := make([]analysis.Point, len(particles))
	for i, p := range particles {
		points[i] = analysis.Point{X: float64(p.Position[0]), Y: float64(p.Position[1])}
	}
	minX, maxX, minY, maxY := analysis.Bounds(points)
	rangeX := maxX - minX
	rangeY := maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	colors := make(map[string]string)
	for i, p := range particles {
		color, ok := colors[p.Body]
		if !ok {
			color = bodyColors[len(colors)%len(bodyColors)]
			colors[p.Body] = color
		}
		x := (points[i].X - minX) / rangeX * float64(width)
		y := float64(height) - (points[i].Y-minY)/rangeY*float64(height)
		if p.Mass == 0 {
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="4" height="4" fill="%s"/>
`, x-2, y-2, color))
			continue
		}
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="2" fill="%s"/>
`, x, y, color))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// TrajectoryToSVG creates an SVG from trajectory data
func TrajectoryToSVG(points []analysis.Point, width, height int, strokeColor string) string {
	if len(points) < 2 {
		return ""
	}

	minX, maxX, minY, maxY := analysis.Bounds(points)
	rangeX := maxX - minX
	rangeY := maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, p := range points {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
