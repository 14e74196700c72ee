package ccavenue

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// CCAvenue encrypts request/response payloads with AES-128-CBC. The AES key
// is the MD5 digest of the merchant's working key, the IV is the fixed byte
// sequence 0x00..0x0f, and ciphertext travels hex-encoded.
var iv = []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f}

func blockKey(workingKey string) []byte {
	sum := md5.Sum([]byte(workingKey))
	return sum[:]
}

// Encrypt encrypts plain text with the working key and returns hex ciphertext.
func Encrypt(plainText, workingKey string) (string, error) {
	block, err := aes.NewCipher(blockKey(workingKey))
	if err != nil {
		return "", err
	}

	padded := pad([]byte(plainText))
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	return hex.EncodeToString(out), nil
}

// Decrypt decodes hex ciphertext and decrypts it with the working key.
func Decrypt(cipherText, workingKey string) (string, error) {
	raw, err := hex.DecodeString(cipherText)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return "", fmt.Errorf("ciphertext length %d is not a multiple of the block size", len(raw))
	}

	block, err := aes.NewCipher(blockKey(workingKey))
	if err != nil {
		return "", err
	}

	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, raw)

	plain, err := unpad(out)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// pad appends PKCS#7 padding to a full block boundary.
func pad(data []byte) []byte {
	n := aes.BlockSize - len(data)%aes.BlockSize
	for i := 0; i < n; i++ {
		data = append(data, byte(n))
	}
	return data
}

func unpad(data []byte) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}
