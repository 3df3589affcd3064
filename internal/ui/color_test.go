package ui

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

// captureColorOutput captures output from the color package.
// The color package uses color.Output which defaults to os.Stdout.
func captureColorOutput(fn func()) string {
	oldNoColor := color.NoColor
	oldOutput := color.Output
	color.NoColor = true

	r, w, _ := os.Pipe()
	color.Output = w

	// Also redirect os.Stdout for fmt.Printf calls
	oldStdout := os.Stdout
	os.Stdout = w

	fn()

	w.Close()
	color.Output = oldOutput
	color.NoColor = oldNoColor
	os.Stdout = oldStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)
	r.Close()

	return buf.String()
}

func TestSuccess(t *testing.T) {
	output := captureColorOutput(func() {
		Success("hydrated %d clusters", 3)
	})
	assert.Contains(t, output, "✓ hydrated 3 clusters")
	assert.Contains(t, output, "\n")
}

func TestError(t *testing.T) {
	output := captureColorOutput(func() {
		Error("build failed for %s", "web-01")
	})
	assert.Contains(t, output, "✗ build failed for web-01")
}

func TestWarning(t *testing.T) {
	output := captureColorOutput(func() {
		Warning("overlay missing")
	})
	assert.Contains(t, output, "⚠ overlay missing")
}

func TestInfo(t *testing.T) {
	output := captureColorOutput(func() {
		Info("syncing repo")
	})
	assert.Contains(t, output, "syncing repo")
}

func TestStep(t *testing.T) {
	output := captureColorOutput(func() {
		Step(2, "merging %s", "base")
	})
	assert.Contains(t, output, "[2]")
	assert.Contains(t, output, "merging base")
}

func TestHeader(t *testing.T) {
	output := captureColorOutput(func() {
		Header("Fleet")
	})
	assert.Contains(t, output, "Fleet")
}

func TestDocksideHelpers(t *testing.T) {
	output := captureColorOutput(func() {
		Anchor("repo synced")
		Crane("building")
		Package("2 hydrated")
		Snapshot("snapshot-x")
		Mayday("batch aborted")
	})
	assert.Contains(t, output, "⚓ repo synced")
	assert.Contains(t, output, "building")
	assert.Contains(t, output, "📦 2 hydrated")
	assert.Contains(t, output, "📸 snapshot-x")
	assert.Contains(t, output, "🆘 batch aborted")
}
