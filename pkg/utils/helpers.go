package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LoadConfig reads an optional .env file and wires environment variables
// into viper so flags and env share one namespace.
func LoadConfig(path string) {
	if err := godotenv.Load(fmt.Sprintf("%s/.env", path)); err != nil {
		logrus.Debugf("[CONFIG] No .env file loaded: %v", err)
	}
	viper.AutomaticEnv()
}

// CreateFolder creates every given directory if it does not exist yet.
func CreateFolder(folders ...string) error {
	for _, folder := range folders {
		if err := os.MkdirAll(folder, 0755); err != nil {
			return fmt.Errorf("failed to create folder %s: %w", folder, err)
		}
	}
	return nil
}

// GetMessageDigestOrSignature computes the hex HMAC-SHA256 of the message,
// used for X-Hub-Signature-256 style webhook verification.
func GetMessageDigestOrSignature(message, key []byte) (string, error) {
	mac := hmac.New(sha256.New, key)
	if _, err := mac.Write(message); err != nil {
		return "", err
	}
	return hex.EncodeToString(mac.Sum(nil)), nil
}
