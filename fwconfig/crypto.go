package fwconfig

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"reflect"
	"regexp"

	"golang.org/x/crypto/pbkdf2"
)

// encToken matches ENC(<base64>) tokens anywhere in a string value (spec
// §4.2 step 5).
var encToken = regexp.MustCompile(`ENC\(([^)]*)\)`)

// decryptTree walks the custom and framework sub-trees in place, replacing
// every ENC(...) token it finds with its plaintext. Salt must be exactly 16
// bytes (spec invariant); an empty salt is a no-op (no tokens are expected).
func decryptTree(tree *Tree, salt string) error {
	if salt == "" {
		return nil
	}
	if len(salt) != 16 {
		return fmt.Errorf("fw.adv.salt must be exactly 16 bytes, got %d", len(salt))
	}
	key := deriveKey(salt)
	if err := walkDecrypt(reflect.ValueOf(&tree.Custom).Elem(), key); err != nil {
		return err
	}
	return walkDecrypt(reflect.ValueOf(&tree.FW).Elem(), key)
}

// deriveKey derives a 32-byte AES-256 key from the 16-byte salt via PBKDF2,
// matching the symmetric-key-from-salt contract of spec §4.2 step 5.
func deriveKey(salt string) []byte {
	return pbkdf2.Key([]byte(salt), []byte(salt), 4096, 32, sha256.New)
}

func decryptValue(key []byte, token string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("decoding ENC token: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("building AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("building GCM mode: %w", err)
	}
	if len(raw) < gcm.NonceSize() {
		return "", fmt.Errorf("ENC token too short")
	}
	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypting ENC token: %w", err)
	}
	return string(plain), nil
}

func decryptString(key []byte, s string) (string, error) {
	var outerErr error
	replaced := encToken.ReplaceAllStringFunc(s, func(match string) string {
		sub := encToken.FindStringSubmatch(match)
		plain, err := decryptValue(key, sub[1])
		if err != nil {
			outerErr = err
			return match
		}
		return plain
	})
	if outerErr != nil {
		return "", outerErr
	}
	return replaced, nil
}

// walkDecrypt recurses through structs, maps, slices and pointers, rewriting
// every string field/value/element in place. Map values that are maps or
// structs are walked too; slice values held in a map are not walked.
func walkDecrypt(v reflect.Value, key []byte) error {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return walkDecrypt(v.Elem(), key)
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			f := v.Field(i)
			if !f.CanSet() {
				continue
			}
			if err := walkDecrypt(f, key); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		for _, mk := range v.MapKeys() {
			val := v.MapIndex(mk)
			if val.Kind() == reflect.String {
				decrypted, err := decryptString(key, val.String())
				if err != nil {
					return err
				}
				v.SetMapIndex(mk, reflect.ValueOf(decrypted).Convert(val.Type()))
				continue
			}
			if val.Kind() == reflect.Interface && val.Elem().Kind() == reflect.String {
				decrypted, err := decryptString(key, val.Elem().String())
				if err != nil {
					return err
				}
				v.SetMapIndex(mk, reflect.ValueOf(any(decrypted)))
				continue
			}
			if val.Kind() == reflect.Interface && !val.IsNil() {
				val = val.Elem()
			}
			if val.Kind() == reflect.Map || val.Kind() == reflect.Struct {
				cp := reflect.New(val.Type()).Elem()
				cp.Set(val)
				if err := walkDecrypt(cp, key); err != nil {
					return err
				}
				v.SetMapIndex(mk, cp)
			}
		}
		return nil
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := walkDecrypt(v.Index(i), key); err != nil {
				return err
			}
		}
		return nil
	case reflect.String:
		decrypted, err := decryptString(key, v.String())
		if err != nil {
			return err
		}
		v.SetString(decrypted)
		return nil
	default:
		return nil
	}
}
