package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"strings"

	"github.com/disintegration/imaging"
)

// Engine recognizes text in a cropped zone image. Implementations wrap an
// external recognition tool; the review pipeline only needs the text back.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// TesseractEngine shells out to the tesseract binary, feeding the crop via
// stdin and reading plain text from stdout.
type TesseractEngine struct {
	binary string
}

func NewTesseractEngine(binary string) *TesseractEngine {
	if binary == "" {
		binary = "tesseract"
	}
	return &TesseractEngine{binary: binary}
}

func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image) (string, error) {
	var input bytes.Buffer
	if err := imaging.Encode(&input, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode crop: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.binary, "stdin", "stdout")
	cmd.Stdin = &input
	var output bytes.Buffer
	cmd.Stdout = &output

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return strings.TrimSpace(output.String()), nil
}
