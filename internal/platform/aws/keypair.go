package aws

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/avelis/cloudlab/internal/util/keygen"
)

// ensureKeyPair imports an SSH key pair named keyName if it does not exist,
// generating the key material locally. The private key is written to
// privateKeyFile when set; an existing key pair is reused as is, since the
// private half only exists wherever it was first written.
func (c *Client) ensureKeyPair(ctx context.Context, keyName, privateKeyFile string) error {
	out, err := c.ec2.DescribeKeyPairs(ctx, &ec2.DescribeKeyPairsInput{
		KeyNames: []string{keyName},
	})
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("failed to describe key pair %s: %w", keyName, err)
	}
	if err == nil && len(out.KeyPairs) > 0 {
		return nil
	}

	pair, err := keygen.Generate(2048)
	if err != nil {
		return fmt.Errorf("failed to generate key pair %s: %w", keyName, err)
	}

	_, err = c.ec2.ImportKeyPair(ctx, &ec2.ImportKeyPairInput{
		KeyName:           aws.String(keyName),
		PublicKeyMaterial: pair.PublicKey,
		TagSpecifications: []ec2types.TagSpecification{tagSpec(ec2types.ResourceTypeKeyPair, keyName)},
	})
	if err != nil {
		if isDuplicate(err) {
			return nil
		}
		return fmt.Errorf("failed to import key pair %s: %w", keyName, err)
	}

	if privateKeyFile != "" {
		if err := pair.WritePrivateKey(privateKeyFile); err != nil {
			return fmt.Errorf("failed to write private key for %s: %w", keyName, err)
		}
		log.Printf("[aws] wrote private key for %s to %s", keyName, privateKeyFile)
	}
	return nil
}

// deleteKeyPair removes the imported key pair. Missing is success.
func (c *Client) deleteKeyPair(ctx context.Context, keyName string) error {
	_, err := c.ec2.DeleteKeyPair(ctx, &ec2.DeleteKeyPairInput{KeyName: aws.String(keyName)})
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("failed to delete key pair %s: %w", keyName, err)
	}
	return nil
}
