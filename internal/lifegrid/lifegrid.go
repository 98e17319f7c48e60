// Package lifegrid renders the life calendar: one cell per week of the
// expectancy window, 52 columns wide, one row per year. Lived weeks are
// filled, future weeks are outlined only.
package lifegrid

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/m3rciful/lifeweeks/internal/lifecalc"
)

const (
	cellSize    = 10
	weeksPerRow = 52
	marginLeft  = 50
	marginTop   = 50
	// Trailing padding keeps the last labels inside the canvas.
	padRight  = 20
	padBottom = 20

	labelStep = 5
)

var (
	colorBackground = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	colorLived      = color.RGBA{R: 0xFF, A: 0xFF}
	colorOutline    = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
	colorLabel      = color.RGBA{A: 0xFF}
)

// Render produces the PNG life calendar for the given inputs. It is a pure
// function of its arguments: identical inputs yield byte-identical output.
func Render(birthdate time.Time, expectancyYears int, today time.Time) ([]byte, error) {
	if expectancyYears <= 0 {
		return nil, fmt.Errorf("lifegrid: expectancy must be positive, got %d", expectancyYears)
	}

	width := marginLeft + weeksPerRow*cellSize + padRight
	height := marginTop + expectancyYears*cellSize + padBottom

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)

	drawLabels(img, expectancyYears)

	weeksLived := lifecalc.WeeksLived(birthdate, today)
	for year := 0; year < expectancyYears; year++ {
		for week := 0; week < weeksPerRow; week++ {
			x := marginLeft + week*cellSize
			y := marginTop + year*cellSize
			cell := image.Rect(x, y, x+cellSize, y+cellSize)
			if year*weeksPerRow+week < weeksLived {
				fillRect(img, cell, colorLived)
			}
			strokeRect(img, cell, colorOutline)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("lifegrid: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawLabels(img *image.RGBA, expectancyYears int) {
	drawText(img, marginLeft, 18, "Weeks ->")
	// Vertical axis caption, one letter per line.
	for i, r := range "Age" {
		drawText(img, 8, marginTop+14+i*14, string(r))
	}
	drawText(img, 8, marginTop+14+4*14, "|")
	drawText(img, 8, marginTop+14+5*14, "v")

	for i := 0; i <= weeksPerRow; i += labelStep {
		drawText(img, marginLeft+i*cellSize, 38, strconv.Itoa(i))
	}
	for i := 0; i <= expectancyYears; i += labelStep {
		drawText(img, 24, marginTop+i*cellSize+8, strconv.Itoa(i))
	}
}

func drawText(img *image.RGBA, x, y int, text string) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(colorLabel),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func strokeRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}
