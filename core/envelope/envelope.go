// Package envelope validates and builds the JSON envelopes carried by the bridge channel.
//
// Inbound messages that are not JSON objects, carry the wrong secret or have a
// malformed command are rejected silently: callers must not reply to them.
package envelope

import (
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/vadiminshakov/adbridge/core/dto"
)

// wire field names
const (
	fieldSecret      = "secret"
	fieldCommand     = "command"
	fieldResourceRef = "resourceRef"
	fieldOK          = "ok"
)

// DecodeRequest accepts a request envelope authenticated with secret.
func DecodeRequest(raw []byte, secret string) (dto.Request, bool) {
	msg, ok := parseAuthenticated(raw, secret)
	if !ok {
		return dto.Request{}, false
	}
	// a reply is never a request, even when it travels back on the same channel
	if msg.Get(fieldOK).Exists() {
		return dto.Request{}, false
	}

	return dto.Request{
		Secret:      secret,
		Command:     msg.Get(fieldCommand).Str,
		ResourceRef: coerceString(msg.Get(fieldResourceRef)),
	}, true
}

// DecodeResponse accepts a response envelope authenticated with secret.
func DecodeResponse(raw []byte, secret string) (dto.Response, bool) {
	msg, ok := parseAuthenticated(raw, secret)
	if !ok {
		return dto.Response{}, false
	}

	okField := msg.Get(fieldOK)
	if !okField.IsBool() {
		return dto.Response{}, false
	}

	return dto.Response{
		Secret:  secret,
		Command: msg.Get(fieldCommand).Str,
		OK:      okField.Bool(),
	}, true
}

// EncodeRequest builds {secret, command, resourceRef}.
func EncodeRequest(req dto.Request) ([]byte, error) {
	out, err := build([]byte("{}"), fieldSecret, req.Secret, fieldCommand, req.Command, fieldResourceRef, req.ResourceRef)
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}
	return out, nil
}

// EncodeResponse builds {secret, command, ok}.
func EncodeResponse(resp dto.Response) ([]byte, error) {
	out, err := build([]byte("{}"), fieldSecret, resp.Secret, fieldCommand, resp.Command, fieldOK, resp.OK)
	if err != nil {
		return nil, errors.Wrap(err, "encode response")
	}
	return out, nil
}

func parseAuthenticated(raw []byte, secret string) (gjson.Result, bool) {
	// an unconfigured secret authenticates nothing
	if secret == "" || !gjson.ValidBytes(raw) {
		return gjson.Result{}, false
	}

	msg := gjson.ParseBytes(raw)
	if !msg.IsObject() {
		return gjson.Result{}, false
	}

	token := msg.Get(fieldSecret)
	if token.Type != gjson.String || token.Str != secret {
		return gjson.Result{}, false
	}

	if msg.Get(fieldCommand).Type != gjson.String {
		return gjson.Result{}, false
	}

	return msg, true
}

// coerceString turns a missing or null ref into "" and stringifies scalars.
func coerceString(r gjson.Result) string {
	switch r.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return r.Str
	case gjson.False:
		return ""
	case gjson.Number:
		if r.Num == 0 {
			return ""
		}
		return r.Raw
	default:
		return r.Raw
	}
}

func build(doc []byte, kv ...interface{}) ([]byte, error) {
	var err error
	for i := 0; i+1 < len(kv); i += 2 {
		doc, err = sjson.SetBytes(doc, kv[i].(string), kv[i+1])
		if err != nil {
			return nil, err
		}
	}
	return doc, nil
}
