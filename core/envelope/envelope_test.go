package envelope

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/adbridge/core/dto"
)

const testSecret = "s3cret"

func TestDecodeRequest_Accepts(t *testing.T) {
	raw := []byte(`{"secret":"s3cret","command":"inter_ad_load","resourceRef":"unit-A"}`)

	req, ok := DecodeRequest(raw, testSecret)
	require.True(t, ok)
	require.Equal(t, dto.CommandLoad, req.Command)
	require.Equal(t, "unit-A", req.ResourceRef)
	require.Equal(t, testSecret, req.Secret)
}

func TestDecodeRequest_Rejects(t *testing.T) {
	cases := map[string]string{
		"not json":          `hello`,
		"array":             `["s3cret","inter_ad_load"]`,
		"string":            `"s3cret"`,
		"null":              `null`,
		"wrong secret":      `{"secret":"nope","command":"inter_ad_load"}`,
		"missing secret":    `{"command":"inter_ad_load"}`,
		"numeric command":   `{"secret":"s3cret","command":42}`,
		"missing command":   `{"secret":"s3cret","resourceRef":"unit-A"}`,
		"non-string secret": `{"secret":1,"command":"inter_ad_load"}`,
		"response envelope": `{"secret":"s3cret","command":"inter_ad_load","ok":true}`,
		"null ok":           `{"secret":"s3cret","command":"foo","ok":null}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := DecodeRequest([]byte(raw), testSecret)
			require.False(t, ok)
		})
	}
}

func TestDecodeRequest_EmptySecretNeverMatches(t *testing.T) {
	_, ok := DecodeRequest([]byte(`{"secret":"","command":"inter_ad_load"}`), "")
	require.False(t, ok)
}

func TestDecodeRequest_CoercesResourceRef(t *testing.T) {
	req, ok := DecodeRequest([]byte(`{"secret":"s3cret","command":"foo"}`), testSecret)
	require.True(t, ok)
	require.Equal(t, "", req.ResourceRef)
	require.Equal(t, "foo", req.Command)

	req, ok = DecodeRequest([]byte(`{"secret":"s3cret","command":"foo","resourceRef":123}`), testSecret)
	require.True(t, ok)
	require.Equal(t, "123", req.ResourceRef)

	req, ok = DecodeRequest([]byte(`{"secret":"s3cret","command":"foo","resourceRef":null}`), testSecret)
	require.True(t, ok)
	require.Equal(t, "", req.ResourceRef)
}

func TestDecodeResponse(t *testing.T) {
	resp, ok := DecodeResponse([]byte(`{"secret":"s3cret","command":"inter_ad_show","ok":true}`), testSecret)
	require.True(t, ok)
	require.Equal(t, dto.CommandShow, resp.Command)
	require.True(t, resp.OK)

	_, ok = DecodeResponse([]byte(`{"secret":"s3cret","command":"inter_ad_show","ok":"true"}`), testSecret)
	require.False(t, ok, "ok must be a boolean")

	_, ok = DecodeResponse([]byte(`{"secret":"s3cret","command":"inter_ad_show"}`), testSecret)
	require.False(t, ok, "ok is required")

	_, ok = DecodeResponse([]byte(`{"secret":"other","command":"inter_ad_show","ok":true}`), testSecret)
	require.False(t, ok)
}

func TestEncodeRequest_DecodesBack(t *testing.T) {
	raw, err := EncodeRequest(dto.Request{Secret: testSecret, Command: dto.CommandShow, ResourceRef: "ca-app-pub/1"})
	require.NoError(t, err)
	require.JSONEq(t, `{"secret":"s3cret","command":"inter_ad_show","resourceRef":"ca-app-pub/1"}`, string(raw))
}

func TestEncodeResponse(t *testing.T) {
	raw, err := EncodeResponse(dto.Response{Secret: testSecret, Command: dto.CommandLoad, OK: false})
	require.NoError(t, err)
	require.JSONEq(t, `{"secret":"s3cret","command":"inter_ad_load","ok":false}`, string(raw))
}
