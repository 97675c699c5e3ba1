package submissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	for n := 0; n <= 15; n++ {
		detections := make([]Detection, n)
		want := 10 * n
		if want > 100 {
			want = 100
		}
		assert.Equal(t, want, Score(detections), "n=%d", n)
	}
}

func TestScoreNil(t *testing.T) {
	assert.Equal(t, 0, Score(nil))
}
