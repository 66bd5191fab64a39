package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	a := Fingerprint(1, 100, map[uint][2]string{
		2: {"Red", "#ff0000"},
		3: {"White", "#ffffff"},
	})
	b := Fingerprint(1, 100, map[uint][2]string{
		3: {"White", "#ffffff"},
		2: {"Red", "#ff0000"},
	})
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	otherProduct := Fingerprint(2, 100, map[uint][2]string{
		2: {"Red", "#ff0000"},
		3: {"White", "#ffffff"},
	})
	assert.NotEqual(t, a, otherProduct)

	otherValue := Fingerprint(1, 100, map[uint][2]string{
		2: {"Red", "#ff0001"},
		3: {"White", "#ffffff"},
	})
	assert.NotEqual(t, a, otherValue)

	newRevision := Fingerprint(1, 101, map[uint][2]string{
		2: {"Red", "#ff0000"},
		3: {"White", "#ffffff"},
	})
	assert.NotEqual(t, a, newRevision)
}
