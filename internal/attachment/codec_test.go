package attachment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 透明 PNG
const tinyPNGBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func TestDecodeDataURL(t *testing.T) {
	data, contentType, err := Decode("data:image/png;base64," + tinyPNGBase64)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.NotEmpty(t, data)
	// PNG 魔数
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data[:4])
}

func TestDecodeBarePayloadDefaultsToPNG(t *testing.T) {
	data, contentType, err := Decode(tinyPNGBase64)
	require.NoError(t, err)
	assert.Equal(t, DefaultContentType, contentType)
	assert.NotEmpty(t, data)
}

func TestDecodePreservesDeclaredType(t *testing.T) {
	_, contentType, err := Decode("data:image/jpeg;base64," + tinyPNGBase64)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", contentType)
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"非法base64":     "%%%not-base64%%%",
		"缺少逗号":         "data:image/png;base64",
		"非base64编码声明":  "data:image/png;utf8,hello",
		"前缀后非法base64": "data:image/png;base64,@@@@",
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := Decode(payload)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedPayload)
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	// 对 codec 自己产出的载荷，encode(decode(p)) == p
	original := Encode([]byte{0x89, 0x50, 0x4e, 0x47, 0x01, 0x02}, "image/png")

	data, contentType, err := Decode(original)
	require.NoError(t, err)
	assert.Equal(t, original, Encode(data, contentType))
}

func TestEncodeEmptyContentType(t *testing.T) {
	out := Encode([]byte{1, 2, 3}, "")
	assert.Contains(t, out, "data:image/png;base64,")
}
