package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
	"strings"

	"uk-forecast-lab/internal/domain"
)

// ComputeFeatureHash computes a deterministic fingerprint of a feature vector.
// Formula: SHA256(name1=bits1|name2=bits2|...) over the vector's order,
// where bits is the IEEE-754 bit pattern in hex, so -0 and 0 differ and every NaN
// payload hashes the same.
// Returns hex-encoded hash (64 characters).
func ComputeFeatureHash(v domain.FeatureVector) string {
	var b strings.Builder
	for i, name := range v.Names {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(name)
		b.WriteByte('=')

		var bits uint64
		if i < len(v.Values) {
			x := v.Values[i]
			if math.IsNaN(x) {
				x = math.NaN()
			}
			bits = math.Float64bits(x)
		}
		b.WriteString(strconv.FormatUint(bits, 16))
	}

	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:])
}

// ComputeSeriesVersion computes a fingerprint identifying a loaded series.
// Formula: SHA256(len|first_ts|last_ts|last_value_bits)
// Returns the first 16 hex characters.
func ComputeSeriesVersion(n int, firstMs, lastMs int64, lastValue float64) string {
	data := strconv.Itoa(n) + "|" +
		strconv.FormatInt(firstMs, 10) + "|" +
		strconv.FormatInt(lastMs, 10) + "|" +
		strconv.FormatUint(math.Float64bits(lastValue), 16)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:16]
}
