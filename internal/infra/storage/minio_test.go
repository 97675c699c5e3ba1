package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", contentType("frames/abc/frame30.jpg"))
	assert.Equal(t, "image/jpeg", contentType("x.JPEG"))
	assert.Equal(t, "image/png", contentType("x.png"))
	assert.Equal(t, "application/json", contentType("report.json"))
	assert.Equal(t, "application/octet-stream", contentType("blob"))
}
