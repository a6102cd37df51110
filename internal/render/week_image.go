// Package render draws a tutor's weekly schedule grid as a PNG for clients
// that want an image instead of the JSON grid.
package render

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/uplearn/tutor-scheduler/internal/model"
)

const (
	imageWidth      = 1120
	imageHeight     = 860
	headerHeight    = 60
	leftLabelsWidth = 70
	dayPaddingX     = 4
	cellPaddingY    = 2
	cellRadius      = 4.0
	totalDays       = 7
	defaultMinHour  = 6
	defaultMaxHour  = 22
)

var (
	bgColor       = color.RGBA{245, 246, 248, 255}
	gridLineColor = color.NRGBA{150, 150, 150, 120}
	labelColor    = color.RGBA{80, 85, 90, 220}
	emptyColor    = color.NRGBA{232, 232, 232, 255}

	statusColors = map[string]color.Color{
		model.CellStatusAvailable:      color.RGBA{133, 193, 85, 220},  // green
		string(model.StatusPendiente):  color.RGBA{255, 214, 102, 255}, // amber
		string(model.StatusAceptado):   color.RGBA{255, 182, 193, 255}, // pink
		model.CellStatusActive:         color.RGBA{255, 140, 120, 255},
		string(model.StatusCancelado):  color.RGBA{158, 158, 158, 200},
		string(model.StatusFinalizada): color.RGBA{120, 170, 255, 255},
		string(model.StatusIncumplida): color.RGBA{220, 90, 90, 255},
	}
)

// WeekImage renders the 7×24 grid produced by the schedule composer. The
// vertical range is clamped to the hours that actually carry a status, so a
// tutor with afternoon availability does not get a strip of empty mornings.
func WeekImage(cells []model.ScheduleCell) ([]byte, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("empty schedule grid")
	}

	days := make([]string, 0, totalDays)
	seen := make(map[string]bool)
	minHour, maxHour := -1, -1
	byKey := make(map[string]model.ScheduleCell, len(cells))

	for _, cell := range cells {
		if !seen[cell.Date] {
			seen[cell.Date] = true
			days = append(days, cell.Date)
		}
		byKey[cell.Date+cell.Hour] = cell
		if cell.Status == "" {
			continue
		}
		h := hourOf(cell.Hour)
		if minHour == -1 || h < minHour {
			minHour = h
		}
		if h > maxHour {
			maxHour = h
		}
	}
	if minHour == -1 {
		minHour, maxHour = defaultMinHour, defaultMaxHour
	}
	hours := maxHour - minHour + 1

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dayWidth := float64(imageWidth-leftLabelsWidth) / float64(len(days))
	rowHeight := float64(imageHeight-headerHeight) / float64(hours)

	// Day headers.
	dc.SetColor(labelColor)
	for i, day := range days {
		x := float64(leftLabelsWidth) + dayWidth*float64(i) + dayWidth/2
		dc.DrawStringAnchored(day, x, headerHeight/2, 0.5, 0.5)
	}

	// Hour labels and row lines.
	for row := 0; row < hours; row++ {
		y := float64(headerHeight) + rowHeight*float64(row)
		dc.SetColor(labelColor)
		dc.DrawStringAnchored(fmt.Sprintf("%02d:00", minHour+row), leftLabelsWidth/2, y+rowHeight/2, 0.5, 0.5)
		dc.SetColor(gridLineColor)
		dc.DrawLine(leftLabelsWidth, y, imageWidth, y)
		dc.Stroke()
	}

	// Cells.
	for i, day := range days {
		for row := 0; row < hours; row++ {
			cell := byKey[day+fmt.Sprintf("%02d:00", minHour+row)]
			x := float64(leftLabelsWidth) + dayWidth*float64(i) + dayPaddingX
			y := float64(headerHeight) + rowHeight*float64(row) + cellPaddingY
			w := dayWidth - 2*dayPaddingX
			h := rowHeight - 2*cellPaddingY

			fill, ok := statusColors[cell.Status]
			if !ok {
				fill = emptyColor
			}
			dc.SetColor(fill)
			dc.DrawRoundedRectangle(x, y, w, h, cellRadius)
			dc.Fill()

			if cell.Status != "" {
				dc.SetColor(labelColor)
				dc.DrawStringAnchored(cell.Status, x+w/2, y+h/2, 0.5, 0.5)
			}
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode schedule image: %w", err)
	}
	return buf.Bytes(), nil
}

func hourOf(hhmm string) int {
	var h int
	fmt.Sscanf(hhmm, "%d", &h)
	return h
}
