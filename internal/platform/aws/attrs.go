package aws

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/avelis/cloudlab/internal/workflow"
)

// Attribute names understood by this provider. The workflow core treats
// attributes as opaque; these constants are the provider's contract with
// the lab definition.
const (
	// AttrCIDR is a network's VPC CIDR block.
	AttrCIDR = "cidr"
	// AttrPublicSubnets is a comma-separated list of public subnet CIDRs.
	AttrPublicSubnets = "public_subnets"
	// AttrPrivateSubnets is a comma-separated list of private subnet CIDRs.
	AttrPrivateSubnets = "private_subnets"

	// AttrRegion is a bucket's region; defaults to the client region.
	AttrRegion = "region"
	// AttrVersioning enables bucket versioning when "true".
	AttrVersioning = "versioning"

	// AttrInstanceType is an instance's type; defaults to t2.micro.
	AttrInstanceType = "instance_type"
	// AttrAMI pins the image; unset means latest Amazon Linux 2023.
	AttrAMI = "ami"
	// AttrKeyName names the SSH key pair to import for the instance.
	AttrKeyName = "key_name"
	// AttrPrivateKeyFile is where the generated private key is written.
	AttrPrivateKeyFile = "private_key_file"
	// AttrUserData is a first-boot shell script for the instance.
	AttrUserData = "user_data"
	// AttrNetwork references the lab network (by natural key) an instance
	// launches into; unset means the account's default VPC.
	AttrNetwork = "network"
)

const (
	defaultVPCCIDR      = "10.0.0.0/16"
	defaultInstanceType = "t2.micro"
	managedByTagKey     = "ManagedBy"
	managedByTagValue   = "cloudlab"
)

// resourceTags builds the standard tag set for a resource: its Name (the
// natural key used for lookups) plus the ManagedBy marker.
func resourceTags(name string) []ec2types.Tag {
	return []ec2types.Tag{
		{Key: aws.String("Name"), Value: aws.String(name)},
		{Key: aws.String(managedByTagKey), Value: aws.String(managedByTagValue)},
	}
}

func tagSpec(resourceType ec2types.ResourceType, name string) ec2types.TagSpecification {
	return ec2types.TagSpecification{
		ResourceType: resourceType,
		Tags:         resourceTags(name),
	}
}

// nameFilters matches resources by Name tag and ManagedBy marker.
func nameFilters(name string) []ec2types.Filter {
	return []ec2types.Filter{
		{Name: aws.String("tag:Name"), Values: []string{name}},
		{Name: aws.String("tag:" + managedByTagKey), Values: []string{managedByTagValue}},
	}
}

func newHandle(id string, spec workflow.Spec, status workflow.Status) *workflow.Handle {
	return &workflow.Handle{ID: id, Kind: spec.Kind, Status: status, Spec: spec}
}
