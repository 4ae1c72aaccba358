// Package config loads and validates the lab definition file.
//
// A lab is a named collection of networks, buckets and instances in one
// region. The definition is YAML; Specs flattens it into the ordered list
// of resource specs the workflow runner provisions.
package config

import (
	"fmt"
	"strings"

	"github.com/avelis/cloudlab/internal/workflow"
)

// Config is the root of a lab definition.
type Config struct {
	Name      string           `mapstructure:"name"`
	Region    string           `mapstructure:"region"`
	Networks  []NetworkConfig  `mapstructure:"networks"`
	Buckets   []BucketConfig   `mapstructure:"buckets"`
	Instances []InstanceConfig `mapstructure:"instances"`
}

// NetworkConfig describes one VPC and its subnet layout.
type NetworkConfig struct {
	Name           string   `mapstructure:"name"`
	CIDR           string   `mapstructure:"cidr"`
	PublicSubnets  []string `mapstructure:"public_subnets"`
	PrivateSubnets []string `mapstructure:"private_subnets"`
}

// BucketConfig describes one S3 bucket.
type BucketConfig struct {
	Name       string `mapstructure:"name"`
	Region     string `mapstructure:"region"`
	Versioning bool   `mapstructure:"versioning"`
}

// InstanceConfig describes one EC2 instance.
type InstanceConfig struct {
	Name           string `mapstructure:"name"`
	Type           string `mapstructure:"type"`
	AMI            string `mapstructure:"ami"`
	Network        string `mapstructure:"network"`
	KeyName        string `mapstructure:"key_name"`
	PrivateKeyFile string `mapstructure:"private_key_file"`
	UserData       string `mapstructure:"user_data"`
}

// Validate checks the definition for missing names, duplicate keys and
// dangling network references.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("lab name is required")
	}
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}

	seen := map[string]bool{}
	networks := map[string]bool{}

	for _, n := range c.Networks {
		if n.Name == "" {
			return fmt.Errorf("network name is required")
		}
		if seen[n.Name] {
			return fmt.Errorf("duplicate resource name %q", n.Name)
		}
		seen[n.Name] = true
		networks[n.Name] = true
	}
	for _, b := range c.Buckets {
		if b.Name == "" {
			return fmt.Errorf("bucket name is required")
		}
		if seen[b.Name] {
			return fmt.Errorf("duplicate resource name %q", b.Name)
		}
		seen[b.Name] = true
	}
	for _, i := range c.Instances {
		if i.Name == "" {
			return fmt.Errorf("instance name is required")
		}
		if seen[i.Name] {
			return fmt.Errorf("duplicate resource name %q", i.Name)
		}
		seen[i.Name] = true
		if i.Network != "" && !networks[i.Network] {
			return fmt.Errorf("instance %q references unknown network %q", i.Name, i.Network)
		}
	}
	return nil
}

// Specs flattens the definition into provisioning order: networks first,
// then buckets, then instances. The runner's cleanup registry reverses
// this order on teardown, so instances come down before their networks.
func (c *Config) Specs() []workflow.Spec {
	specs := make([]workflow.Spec, 0, len(c.Networks)+len(c.Buckets)+len(c.Instances))

	for _, n := range c.Networks {
		attrs := map[string]string{}
		if n.CIDR != "" {
			attrs["cidr"] = n.CIDR
		}
		if len(n.PublicSubnets) > 0 {
			attrs["public_subnets"] = strings.Join(n.PublicSubnets, ",")
		}
		if len(n.PrivateSubnets) > 0 {
			attrs["private_subnets"] = strings.Join(n.PrivateSubnets, ",")
		}
		specs = append(specs, workflow.Spec{Kind: workflow.KindNetwork, Key: n.Name, Attributes: attrs})
	}

	for _, b := range c.Buckets {
		attrs := map[string]string{}
		if b.Region != "" {
			attrs["region"] = b.Region
		}
		if b.Versioning {
			attrs["versioning"] = "true"
		}
		specs = append(specs, workflow.Spec{Kind: workflow.KindStorage, Key: b.Name, Attributes: attrs})
	}

	for _, i := range c.Instances {
		attrs := map[string]string{}
		if i.Type != "" {
			attrs["instance_type"] = i.Type
		}
		if i.AMI != "" {
			attrs["ami"] = i.AMI
		}
		if i.Network != "" {
			attrs["network"] = i.Network
		}
		if i.KeyName != "" {
			attrs["key_name"] = i.KeyName
		}
		if i.PrivateKeyFile != "" {
			attrs["private_key_file"] = i.PrivateKeyFile
		}
		if i.UserData != "" {
			attrs["user_data"] = i.UserData
		}
		specs = append(specs, workflow.Spec{Kind: workflow.KindCompute, Key: i.Name, Attributes: attrs})
	}

	return specs
}
