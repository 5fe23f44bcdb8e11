package upload

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsAllowedTypes(t *testing.T) {
	for _, ct := range []string{"image/jpeg", "image/jpg", "image/png", "image/webp", "image/gif", "IMAGE/PNG; charset=binary"} {
		assert.NoError(t, Validate(ct, 1024), ct)
	}
}

func TestValidateRejectsOtherTypes(t *testing.T) {
	for _, ct := range []string{"", "image/svg+xml", "application/pdf", "text/plain", "image/avif"} {
		err := Validate(ct, 1024)
		require.Error(t, err, ct)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, KindUnsupportedType, verr.Kind)
		assert.True(t, errors.Is(err, ErrUnsupportedType))
	}
}

func TestValidateSizeBoundary(t *testing.T) {
	assert.NoError(t, Validate("image/png", MaxFileSize))

	err := Validate("image/png", MaxFileSize+1)
	require.Error(t, err)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, KindTooLarge, verr.Kind)
	assert.True(t, errors.Is(err, ErrFileTooLarge))
	assert.Equal(t, "File too large. Maximum size is 10MB.", err.Error())
}

func TestValidateRejectsEmpty(t *testing.T) {
	err := Validate("image/png", 0)
	assert.True(t, errors.Is(err, ErrEmptyFile))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "png", Extension("art.PNG", "image/png"))
	assert.Equal(t, "jpg", Extension("blob", "image/jpeg"))
	assert.Equal(t, "webp", Extension("", "image/webp"))
	assert.Equal(t, "bin", Extension("", ""))
	assert.Equal(t, "gif", Extension("weird.g i f", "image/gif"))
}
