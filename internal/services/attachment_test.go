package services

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"commentfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestInspect_Image(t *testing.T) {
	data := pngBytes(t, 3, 2)

	att, err := inspect(bytes.NewReader(data), "dot.png", int64(len(data)))
	require.NoError(t, err)

	assert.Equal(t, models.AttachmentImage, att.Type)
	assert.Equal(t, "dot.png", att.Name)
	assert.Equal(t, int64(len(data)), att.Size)
	assert.Equal(t, 3, att.Width)
	assert.Equal(t, 2, att.Height)
	assert.Empty(t, att.TextPreview)
	assert.Equal(t, ".png", att.Ext)
}

func TestInspect_ExtFollowsContent(t *testing.T) {
	data := pngBytes(t, 1, 1)

	att, err := inspect(bytes.NewReader(data), "shell.php", int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, ".png", att.Ext)
}

func TestInspect_ImageTooLarge(t *testing.T) {
	data := pngBytes(t, 1, 1)

	_, err := inspect(bytes.NewReader(data), "big.png", MaxImageSize+1)
	assert.ErrorIs(t, err, ErrAttachmentInvalid)
}

func TestInspect_Text(t *testing.T) {
	att, err := inspect(strings.NewReader("hello\nworld"), "notes.txt", 11)
	require.NoError(t, err)

	assert.Equal(t, models.AttachmentText, att.Type)
	assert.Equal(t, "hello\nworld", att.TextPreview)
	assert.Zero(t, att.Width)
	assert.Equal(t, ".txt", att.Ext)
}

func TestInspect_TextPreviewCountsCharacters(t *testing.T) {
	body := strings.Repeat("ж", 500)

	att, err := inspect(strings.NewReader(body), "ru.txt", int64(len(body)))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ж", textPreviewLength), att.TextPreview)
}

func TestInspect_TextTooLarge(t *testing.T) {
	body := strings.Repeat("a", MaxTextSize+1)

	_, err := inspect(strings.NewReader(body), "big.txt", int64(len(body)))
	assert.ErrorIs(t, err, ErrAttachmentInvalid)
}

func TestInspect_UnsupportedType(t *testing.T) {
	_, err := inspect(strings.NewReader("%PDF-1.4\n%âãÏÓ\n"), "doc.pdf", 16)
	assert.ErrorIs(t, err, ErrAttachmentInvalid)

	_, err = inspect(bytes.NewReader([]byte{0x00, 0x01, 0x02, 0xff}), "blob.bin", 4)
	assert.ErrorIs(t, err, ErrAttachmentInvalid)
}

func TestInspect_NameTruncated(t *testing.T) {
	name := strings.Repeat("n", 300) + ".txt"

	att, err := inspect(strings.NewReader("x"), name, 1)
	require.NoError(t, err)
	assert.Len(t, att.Name, maxAttachmentName)
}

func TestAttachment_ApplyNil(t *testing.T) {
	var att *Attachment
	c := models.Comment{}
	assert.NotPanics(t, func() { att.apply(&c) })
	assert.Empty(t, c.AttachmentType)
}
