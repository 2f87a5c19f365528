package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Fingerprint(nil))

	a := Fingerprint([]byte{0x00, 0x20, 0x70, 0x47})
	b := Fingerprint([]byte{0x00, 0x20, 0x70, 0x47})
	c := Fingerprint([]byte{0x00, 0x20, 0x70, 0x48})
	assert.Equal(t, a, b)
	assert.False(t, Changed(a, b))
	assert.True(t, Changed(a, c))
}
