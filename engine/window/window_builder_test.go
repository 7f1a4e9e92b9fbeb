package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEngineWindowDefaults(t *testing.T) {
	w := newEngineWindow()
	assert.Equal(t, "oxy-deferred", w.title)
	assert.Equal(t, DefaultWidth, w.width)
	assert.Equal(t, DefaultHeight, w.height)
	assert.Equal(t, DefaultMinWidth, w.minWidth)
	assert.Equal(t, DefaultMaxHeight, w.maxHeight)
}

func TestNewEngineWindowClampsSize(t *testing.T) {
	tests := []struct {
		name          string
		options       []WindowBuilderOption
		width, height int
	}{
		{"inside limits", []WindowBuilderOption{WithSize(800, 600)}, 800, 600},
		{"above max", []WindowBuilderOption{WithSize(5000, 3000)}, DefaultMaxWidth, DefaultMaxHeight},
		{"below min", []WindowBuilderOption{WithSize(100, 50)}, DefaultMinWidth, DefaultMinHeight},
		{"non-positive keeps default", []WindowBuilderOption{WithWidth(0), WithHeight(-5)}, DefaultWidth, DefaultHeight},
		{"custom limits", []WindowBuilderOption{WithSizeLimits(640, 480, 1024, 768), WithSize(1920, 1080)}, 1024, 768},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newEngineWindow(tt.options...)
			assert.Equal(t, tt.width, w.width)
			assert.Equal(t, tt.height, w.height)
		})
	}
}

func TestNewEngineWindowRaisesMaxToMin(t *testing.T) {
	w := newEngineWindow(WithMinWidth(2000), WithMaxWidth(1000), WithMinHeight(900), WithMaxHeight(800))
	assert.Equal(t, 2000, w.maxWidth)
	assert.Equal(t, 900, w.maxHeight)
	assert.Equal(t, 2000, w.width)
	assert.Equal(t, 900, w.height)
}
