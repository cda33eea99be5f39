// Package extcrypto provides identifier and hashing functions in the
// extension namespace.
//
// Security note: MD5 and SHA-1 are provided for compatibility/fingerprinting only
// and should NOT be used for cryptographic security purposes.
package extcrypto

import (
	"context"
	"crypto/hmac"
	"crypto/md5"  //nolint:gosec // intentional: provided for non-security fingerprinting
	"crypto/sha1" //nolint:gosec // intentional
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/sandrolain/goxq/pkg/evaluator"
	"github.com/sandrolain/goxq/pkg/types"
)

// All returns all extended cryptographic function definitions.
func All() []evaluator.CustomFunctionDef {
	return []evaluator.CustomFunctionDef{
		UUID(),
		Hash(),
		HMAC(),
	}
}

// AllEntries returns all crypto function definitions as
// [evaluator.FunctionEntry], suitable for spreading into WithFunctions.
func AllEntries() []evaluator.FunctionEntry {
	all := All()
	out := make([]evaluator.FunctionEntry, len(all))
	for i, f := range all {
		out[i] = f
	}
	return out
}

// UUID returns the definition for ext:uuid(), a random version 4 UUID.
func UUID() evaluator.CustomFunctionDef {
	return evaluator.CustomFunctionDef{
		Name:      "uuid",
		Signature: "() as xs:string",
		Fn: func(_ context.Context, _ ...[]evaluator.Value) ([]evaluator.Value, error) {
			id, err := uuid.NewRandom()
			if err != nil {
				return nil, errors.Wrap(err, "ext:uuid")
			}
			return []evaluator.Value{evaluator.NewString(id.String())}, nil
		},
	}
}

// Hash returns the definition for ext:hash(str, algorithm).
// Supported algorithms: "md5", "sha1", "sha256", "sha384", "sha512".
// Returns a lowercase hex-encoded digest.
func Hash() evaluator.CustomFunctionDef {
	return evaluator.CustomFunctionDef{
		Name:      "hash",
		Signature: "(xs:string?, xs:string) as xs:string",
		Fn: func(_ context.Context, args ...[]evaluator.Value) ([]evaluator.Value, error) {
			newHash, err := hasher("ext:hash", args[1][0].String())
			if err != nil {
				return nil, err
			}
			h := newHash()
			h.Write([]byte(optional(args[0])))
			return []evaluator.Value{evaluator.NewString(hex.EncodeToString(h.Sum(nil)))}, nil
		},
	}
}

// HMAC returns the definition for ext:hmac(str, key, algorithm).
func HMAC() evaluator.CustomFunctionDef {
	return evaluator.CustomFunctionDef{
		Name:      "hmac",
		Signature: "(xs:string?, xs:string, xs:string) as xs:string",
		Fn: func(_ context.Context, args ...[]evaluator.Value) ([]evaluator.Value, error) {
			newHash, err := hasher("ext:hmac", args[2][0].String())
			if err != nil {
				return nil, err
			}
			mac := hmac.New(newHash, []byte(args[1][0].String()))
			mac.Write([]byte(optional(args[0])))
			return []evaluator.Value{evaluator.NewString(hex.EncodeToString(mac.Sum(nil)))}, nil
		},
	}
}

func optional(values []evaluator.Value) string {
	if len(values) == 0 {
		return ""
	}
	return values[0].String()
}

func hasher(fn, algorithm string) (func() hash.Hash, error) {
	switch strings.ToLower(algorithm) {
	case "md5":
		return md5.New, nil //nolint:gosec
	case "sha1":
		return sha1.New, nil //nolint:gosec
	case "sha256":
		return sha256.New, nil
	case "sha384":
		return sha512.New384, nil
	case "sha512":
		return sha512.New, nil
	default:
		return nil, types.Errorf(types.ErrInvalidOptionParameter,
			"%s: unsupported algorithm %q; use md5, sha1, sha256, sha384, or sha512", fn, algorithm)
	}
}
