// Package keygen generates RSA key pairs for EC2 key pair import.
//
// EC2 accepts locally generated public keys via ImportKeyPair, which keeps
// the private key on the caller's machine instead of having AWS generate
// and return it. The private key is emitted in PEM-encoded PKCS#1 format,
// the public key in OpenSSH authorized_keys format.
package keygen

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// KeyPair holds an RSA key pair in ready-to-use formats.
type KeyPair struct {
	// PrivateKey is the RSA private key in PEM-encoded PKCS#1 format.
	PrivateKey []byte
	// PublicKey is the public key in OpenSSH authorized_keys format.
	PublicKey []byte
}

// Generate creates a new RSA key pair with the specified bit size.
// 2048 is the minimum EC2 accepts; 4096 for higher security margins.
func Generate(bits int) (*KeyPair, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA private key: %w", err)
	}

	if err := privateKey.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate RSA private key: %w", err)
	}

	privBlock := pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	}

	sshPub, err := ssh.NewPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH public key: %w", err)
	}

	return &KeyPair{
		PrivateKey: pem.EncodeToMemory(&privBlock),
		PublicKey:  ssh.MarshalAuthorizedKey(sshPub),
	}, nil
}

// WritePrivateKey writes the private key to path with owner-only read
// permissions, the mode SSH clients require.
func (kp *KeyPair) WritePrivateKey(path string) error {
	if err := os.WriteFile(path, kp.PrivateKey, 0o400); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	return nil
}
