package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHMAC(t *testing.T) {
	t.Parallel()
	expectedSHA256 := []byte{
		54, 68, 6, 12, 32, 158, 80, 22, 142, 8, 131, 111, 248, 145, 17, 202, 224,
		59, 135, 206, 11, 170, 154, 197, 183, 28, 150, 79, 168, 105, 62, 102,
	}
	expectedSHA512 := []byte{
		249, 212, 31, 38, 23, 3, 93, 220, 81, 209, 214, 112, 92, 75, 126, 40, 109,
		95, 247, 182, 210, 54, 217, 224, 199, 252, 129, 226, 97, 201, 245, 220, 37,
		201, 240, 15, 137, 236, 75, 6, 97, 12, 190, 31, 53, 153, 223, 17, 214, 11,
		153, 203, 49, 29, 158, 217, 204, 93, 179, 109, 140, 216, 202, 71,
	}

	sha256 := GetHMAC(HashSHA256, []byte("Hello,World"), []byte("1234"))
	if !bytes.Equal(sha256, expectedSHA256) {
		t.Errorf("GetHMAC error: Expected '%x'. Actual '%x'", expectedSHA256, sha256)
	}

	sha512 := GetHMAC(HashSHA512, []byte("Hello,World"), []byte("1234"))
	if !bytes.Equal(sha512, expectedSHA512) {
		t.Errorf("GetHMAC error: Expected '%x'. Actual '%x'", expectedSHA512, sha512)
	}
}

func TestHexEncodeToString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "31323334", HexEncodeToString([]byte("1234")))
}
