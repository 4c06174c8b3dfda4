package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hmacHex(secret, data string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

func flipHexChar(s string, i int) string {
	b := []byte(s)
	if b[i] == '0' {
		b[i] = '1'
	} else {
		b[i] = '0'
	}
	return string(b)
}

func TestVerify_Simple(t *testing.T) {
	header := "sha256=" + hmacHex("wh_secret", "hello")

	assert.True(t, Verify("wh_secret", []byte("hello"), header, SchemeSimple))
	assert.False(t, Verify("wh_secret", []byte("hello"), hmacHex("wh_secret", "hello"), SchemeSimple))
	assert.Equal(t, header, SignSimple("wh_secret", []byte("hello")))
}

func TestVerify_SimpleEveryFlippedCharFails(t *testing.T) {
	payload := []byte(`{"action":"opened"}`)
	header := SignSimple("wh_secret", payload)
	require.True(t, Verify("wh_secret", payload, header, SchemeSimple))

	for i := len(simplePrefix); i < len(header); i++ {
		assert.False(t, Verify("wh_secret", payload, flipHexChar(header, i), SchemeSimple), "position %d", i)
	}
}

func TestCheck_SimpleReasons(t *testing.T) {
	payload := []byte("hello")
	good := SignSimple("wh_secret", payload)

	tests := []struct {
		name   string
		secret string
		header string
		want   Reason
	}{
		{"valid", "wh_secret", good, ReasonNone},
		{"unset secret", "", good, ReasonConfigurationMissing},
		{"empty header", "wh_secret", "", ReasonMalformedHeader},
		{"missing prefix", "wh_secret", strings.TrimPrefix(good, "sha256="), ReasonMalformedHeader},
		{"sha1 prefix", "wh_secret", "sha1=" + strings.TrimPrefix(good, "sha256="), ReasonMalformedHeader},
		{"prefix only", "wh_secret", "sha256=", ReasonSignatureMismatch},
		{"non hex", "wh_secret", "sha256=zzzz", ReasonSignatureMismatch},
		{"uppercase hex", "wh_secret", "sha256=" + strings.ToUpper(strings.TrimPrefix(good, "sha256=")), ReasonSignatureMismatch},
		{"wrong secret", "other", good, ReasonSignatureMismatch},
		{"trailing data", "wh_secret", good + "00", ReasonSignatureMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Check(tt.secret, payload, tt.header, SchemeSimple)
			assert.Equal(t, tt.want == ReasonNone, result.Valid)
			assert.Equal(t, tt.want, result.Reason)
		})
	}
}

func TestVerify_Timestamped(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := "t=1000,v1=" + hmacHex("wh_secret", "1000."+string(payload))

	assert.True(t, Verify("wh_secret", payload, header, SchemeTimestamped))
	assert.Equal(t, header, SignTimestamped("wh_secret", payload, 1000))

	t.Run("altered timestamp", func(t *testing.T) {
		altered := strings.Replace(header, "t=1000", "t=1001", 1)
		assert.False(t, Verify("wh_secret", payload, altered, SchemeTimestamped))
	})

	t.Run("altered payload", func(t *testing.T) {
		assert.False(t, Verify("wh_secret", []byte(`{"id":"evt_2"}`), header, SchemeTimestamped))
	})

	t.Run("altered digest", func(t *testing.T) {
		assert.False(t, Verify("wh_secret", payload, flipHexChar(header, len(header)-1), SchemeTimestamped))
	})

	t.Run("unknown digest", func(t *testing.T) {
		result := Check("wh_secret", []byte("x"), "t=1000,v1=deadbeef", SchemeTimestamped)
		assert.False(t, result.Valid)
		assert.Equal(t, ReasonSignatureMismatch, result.Reason)
	})
}

func TestCheck_TimestampedHeaders(t *testing.T) {
	payload := []byte("x")
	digest := hmacHex("wh_secret", "1000.x")

	tests := []struct {
		name   string
		secret string
		header string
		want   Reason
	}{
		{"valid", "wh_secret", "t=1000,v1=" + digest, ReasonNone},
		{"order independent", "wh_secret", "v1=" + digest + ",t=1000", ReasonNone},
		{"v0 ignored", "wh_secret", "t=1000,v0=abc,v1=" + digest, ReasonNone},
		{"rotated secrets", "wh_secret", "t=1000,v1=deadbeef,v1=" + digest, ReasonNone},
		{"spaces around pairs", "wh_secret", "t=1000, v1=" + digest, ReasonNone},
		{"unset secret", "", "t=1000,v1=" + digest, ReasonConfigurationMissing},
		{"empty", "wh_secret", "", ReasonMalformedHeader},
		{"missing v1", "wh_secret", "t=1000", ReasonMalformedHeader},
		{"only v0", "wh_secret", "t=1000,v0=" + digest, ReasonMalformedHeader},
		{"missing t", "wh_secret", "v1=" + digest, ReasonMalformedHeader},
		{"empty t", "wh_secret", "t=,v1=" + digest, ReasonMalformedHeader},
		{"segment without equals", "wh_secret", "t=1000,v1=" + digest + ",garbage", ReasonMalformedHeader},
		{"timestamp with extra equals", "wh_secret", "t=1000=1,v1=" + digest, ReasonMalformedHeader},
		{"signature with extra equals", "wh_secret", "t=1000,v1=" + digest + "=", ReasonMalformedHeader},
		{"unknown key with extra equals", "wh_secret", "t=1000,v0=a=b,v1=" + digest, ReasonMalformedHeader},
		{"simple format", "wh_secret", "sha256=" + digest, ReasonMalformedHeader},
		{"just commas", "wh_secret", ",,,", ReasonMalformedHeader},
		{"non hex", "wh_secret", "t=1000,v1=not-hex!", ReasonSignatureMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Check(tt.secret, payload, tt.header, SchemeTimestamped)
			assert.Equal(t, tt.want == ReasonNone, result.Valid)
			assert.Equal(t, tt.want, result.Reason)
		})
	}
}

func TestCheck_NeverPanics(t *testing.T) {
	inputs := []string{
		"", "=", "==", ",", "t", "t=", "v1=", "sha256", "sha256=\x00\xff", "t=\xff,v1=\xfe",
		strings.Repeat("t=1,", 1000) + "v1=00", strings.Repeat("=", 4096),
	}
	for _, scheme := range []Scheme{SchemeSimple, SchemeTimestamped, Scheme("bogus")} {
		for _, header := range inputs {
			assert.NotPanics(t, func() {
				assert.False(t, Verify("wh_secret", []byte("payload"), header, scheme))
			})
		}
	}
}

func TestVerifier_Tolerance(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	payload := []byte(`{"id":"evt_1"}`)
	v := Verifier{Scheme: SchemeTimestamped, Tolerance: 5 * time.Minute, Now: func() time.Time { return now }}

	tests := []struct {
		name   string
		header string
		want   Reason
	}{
		{"fresh", SignTimestamped("whsec", payload, now.Add(-time.Minute).Unix()), ReasonNone},
		{"slightly in the future", SignTimestamped("whsec", payload, now.Add(30*time.Second).Unix()), ReasonNone},
		{"too old", SignTimestamped("whsec", payload, now.Add(-10*time.Minute).Unix()), ReasonTimestampOutOfTolerance},
		{"too far ahead", SignTimestamped("whsec", payload, now.Add(time.Hour).Unix()), ReasonTimestampOutOfTolerance},
		{"non numeric t", "t=soon,v1=" + hmacHex("whsec", "soon."+string(payload)), ReasonTimestampOutOfTolerance},
		{"bad digest reported before age", "t=1000,v1=deadbeef", ReasonSignatureMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.Check("whsec", payload, tt.header)
			assert.Equal(t, tt.want == ReasonNone, result.Valid)
			assert.Equal(t, tt.want, result.Reason)
		})
	}

	t.Run("zero tolerance keeps old timestamps valid", func(t *testing.T) {
		pure := Verifier{Scheme: SchemeTimestamped}
		assert.True(t, pure.Verify("whsec", payload, SignTimestamped("whsec", payload, 1000)))
	})

	t.Run("simple scheme ignores tolerance", func(t *testing.T) {
		simple := Verifier{Scheme: SchemeSimple, Tolerance: time.Second}
		assert.True(t, simple.Verify("whsec", payload, SignSimple("whsec", payload)))
	})

	t.Run("unset secret", func(t *testing.T) {
		assert.Equal(t, ReasonConfigurationMissing, v.Check("", payload, "t=1,v1=00").Reason)
	})
}

func TestParseTimestampedHeader(t *testing.T) {
	parsed, err := ParseTimestampedHeader("t=12,v1=aa,v0=bb,v1=cc")
	require.NoError(t, err)
	assert.Equal(t, "12", parsed.Timestamp)
	assert.Equal(t, []string{"aa", "cc"}, parsed.Signatures)

	_, err = ParseTimestampedHeader("t=12;v1=aa")
	assert.Error(t, err)
}

func TestParseScheme(t *testing.T) {
	s, err := ParseScheme(" Simple ")
	require.NoError(t, err)
	assert.Equal(t, SchemeSimple, s)

	s, err = ParseScheme("timestamped")
	require.NoError(t, err)
	assert.Equal(t, SchemeTimestamped, s)

	_, err = ParseScheme("sha1")
	assert.Error(t, err)
}

func TestSign(t *testing.T) {
	assert.Equal(t, SignSimple("k", []byte("p")), Sign(SchemeSimple, "k", []byte("p"), 99))
	assert.Equal(t, SignTimestamped("k", []byte("p"), 99), Sign(SchemeTimestamped, "k", []byte("p"), 99))
}

func TestResult_Err(t *testing.T) {
	assert.NoError(t, Result{Valid: true}.Err(HeaderGitHub))

	err := Result{Reason: ReasonSignatureMismatch}.Err(HeaderGitHub)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signature_mismatch")
	assert.Contains(t, err.Error(), HeaderGitHub)

	var verr *VerificationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, ReasonSignatureMismatch, verr.Reason)
}
