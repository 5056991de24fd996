package tool

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	cryptorand "crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"time"

	"github.com/daikurogo/ipywidgets/types"
)

// GetOrCreateTLSCertFromConfig loads existing TLS certificate from config or generates a new one.
// Certificate content is stored in config's CertPEM and KeyPEM fields.
// Always work in tls method.
func GetOrCreateTLSCertFromConfig(cfg *types.AppConfig) (certDER []byte, keyDER []byte, err error) {
	// Try to load existing certificate from config
	if cfg.CertPEM != "" && cfg.KeyPEM != "" {
		certDER, keyDER, err = loadTLSCertFromPEM(cfg.CertPEM, cfg.KeyPEM)
		if err == nil {
			DefaultLogger.Infof("Loaded existing TLS certificate from config")
			return certDER, keyDER, nil
		}
		// Certificate expired or invalid, will regenerate
		DefaultLogger.Warnf("Certificate in config is invalid or expired: %v, regenerating...", err)
	}

	// Generate new certificate
	certDER, keyDER, err = generateTLSCert()
	if err != nil {
		return nil, nil, err
	}

	// Store certificate PEM in config
	cfg.CertPEM = string(pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: certDER,
	}))
	cfg.KeyPEM = string(pem.EncodeToMemory(&pem.Block{
		Type:  "EC PRIVATE KEY",
		Bytes: keyDER,
	}))

	DefaultLogger.Infof("TLS certificate generated and stored in config")
	return certDER, keyDER, nil
}

// loadTLSCertFromPEM loads TLS certificate and key from PEM strings.
// If certificate is expired, returns error.
func loadTLSCertFromPEM(certPEMStr, keyPEMStr string) (certDER []byte, keyDER []byte, err error) {
	// Decode PEM to DER
	certBlock, _ := pem.Decode([]byte(certPEMStr))
	if certBlock == nil {
		return nil, nil, fmt.Errorf("failed to decode certificate PEM")
	}

	keyBlock, _ := pem.Decode([]byte(keyPEMStr))
	if keyBlock == nil {
		return nil, nil, fmt.Errorf("failed to decode key PEM")
	}

	// Validate certificate is not expired
	cert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse certificate: %v", err)
	}

	if time.Now().After(cert.NotAfter) {
		return nil, nil, fmt.Errorf("certificate has expired")
	}

	return certBlock.Bytes, keyBlock.Bytes, nil
}

// generateTLSCert generates a new self-signed TLS certificate and private key.
func generateTLSCert() (certDER []byte, keyDER []byte, err error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), cryptorand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate ECDSA private key: %v", err)
	}

	cert := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName:   "ipywidgets-upload",
			Organization: []string{"ipywidgets-upload"},
		},
		NotBefore:   time.Now(),
		NotAfter:    time.Now().Add(time.Hour * 24 * 365), // 1 year validity
		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}

	certBytes, err := x509.CreateCertificate(cryptorand.Reader, &cert, &cert, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create certificate: %v", err)
	}

	privateKeyBytes, err := x509.MarshalECPrivateKey(privateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal ECDSA private key: %v", err)
	}

	return certBytes, privateKeyBytes, nil
}
