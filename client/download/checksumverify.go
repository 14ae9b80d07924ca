package download

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"
)

// checksumVerifier enables checksum validation of the downloaded file.
type checksumVerifier struct {
	hash     hash.Hash
	expected string
}

func (v *checksumVerifier) Write(p []byte) (int, error) {
	return v.hash.Write(p)
}

func (v *checksumVerifier) Verify() error {
	if v == nil {
		return nil
	}

	actual := hex.EncodeToString(v.hash.Sum(nil))
	if !strings.EqualFold(actual, v.expected) {
		return &Error{
			Err:    ErrChecksumMismatch,
			Detail: fmt.Sprintf("expected %s, got %s", v.expected, actual),
		}
	}

	return nil
}

// ParseChecksumHeader picks the strongest supported digest from a
// space separated "ALGO:hex" list such as "SHA1:ab12 MD5:cd34 ADLER32:ef".
// ok is false when no supported algorithm is present.
func ParseChecksumHeader(header string) (h hash.Hash, expected string, ok bool) {
	digests := make(map[string]string)
	for _, field := range strings.Fields(header) {
		algo, sum, found := strings.Cut(field, ":")
		if !found || sum == "" {
			continue
		}
		digests[strings.ToUpper(algo)] = sum
	}

	switch {
	case digests["SHA256"] != "":
		return sha256.New(), digests["SHA256"], true
	case digests["SHA1"] != "":
		return sha1.New(), digests["SHA1"], true
	case digests["MD5"] != "":
		return md5.New(), digests["MD5"], true
	}

	return nil, "", false
}
