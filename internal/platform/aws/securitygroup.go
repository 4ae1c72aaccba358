package aws

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/avelis/cloudlab/internal/util/retry"
)

// labIngressPorts are the ports opened to the world on every lab security
// group: SSH for access, HTTP/HTTPS for whatever the instance serves.
var labIngressPorts = []int32{22, 80, 443}

// ensureSecurityGroup finds or creates the security group for an instance
// inside vpcID and returns its ID. A fresh group gets the standard lab
// ingress rules.
func (c *Client) ensureSecurityGroup(ctx context.Context, name, vpcID string) (string, error) {
	out, err := c.ec2.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{
		Filters: append(nameFilters(name), vpcFilter(vpcID)...),
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe security groups: %w", err)
	}
	if len(out.SecurityGroups) > 0 {
		return aws.ToString(out.SecurityGroups[0].GroupId), nil
	}

	created, err := c.ec2.CreateSecurityGroup(ctx, &ec2.CreateSecurityGroupInput{
		GroupName:         aws.String(name),
		Description:       aws.String("cloudlab managed group for " + name),
		VpcId:             aws.String(vpcID),
		TagSpecifications: []ec2types.TagSpecification{tagSpec(ec2types.ResourceTypeSecurityGroup, name)},
	})
	if err != nil {
		if isDuplicate(err) {
			return c.securityGroupByName(ctx, name, vpcID)
		}
		return "", fmt.Errorf("failed to create security group %s: %w", name, err)
	}
	groupID := aws.ToString(created.GroupId)

	perms := make([]ec2types.IpPermission, 0, len(labIngressPorts))
	for _, port := range labIngressPorts {
		perms = append(perms, ec2types.IpPermission{
			IpProtocol: aws.String("tcp"),
			FromPort:   aws.Int32(port),
			ToPort:     aws.Int32(port),
			IpRanges:   []ec2types.IpRange{{CidrIp: aws.String("0.0.0.0/0")}},
		})
	}
	_, err = c.ec2.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
		GroupId:       aws.String(groupID),
		IpPermissions: perms,
	})
	if err != nil && !isDuplicate(err) {
		return "", fmt.Errorf("failed to authorize ingress on %s: %w", groupID, err)
	}

	return groupID, nil
}

func (c *Client) securityGroupByName(ctx context.Context, name, vpcID string) (string, error) {
	out, err := c.ec2.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{
		Filters: append(vpcFilter(vpcID), ec2types.Filter{
			Name:   aws.String("group-name"),
			Values: []string{name},
		}),
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe security group %s: %w", name, err)
	}
	if len(out.SecurityGroups) == 0 {
		return "", fmt.Errorf("security group %s not found in %s", name, vpcID)
	}
	return aws.ToString(out.SecurityGroups[0].GroupId), nil
}

// deleteSecurityGroups removes every non-default group in the VPC. Groups
// stay InUse while instances drain, so deletes are retried.
func (c *Client) deleteSecurityGroups(ctx context.Context, vpcID string) error {
	out, err := c.ec2.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{Filters: vpcFilter(vpcID)})
	if err != nil {
		return fmt.Errorf("failed to list security groups: %w", err)
	}
	for _, sg := range out.SecurityGroups {
		if aws.ToString(sg.GroupName) == "default" {
			continue // cannot be deleted, goes with the VPC
		}
		groupID := aws.ToString(sg.GroupId)
		log.Printf("[aws] deleting security group %s", groupID)

		err := retry.Do(ctx, func() error {
			_, err := c.ec2.DeleteSecurityGroup(ctx, &ec2.DeleteSecurityGroupInput{GroupId: aws.String(groupID)})
			if err != nil {
				if IsNotFound(err) {
					return nil
				}
				if isDependencyViolation(err) {
					return err
				}
				return retry.Fatal(err)
			}
			return nil
		},
			retry.WithMaxRetries(c.timeouts.RetryMaxAttempts),
			retry.WithInitialDelay(c.timeouts.RetryInitialDelay))
		if err != nil {
			return fmt.Errorf("failed to delete security group %s: %w", groupID, err)
		}
	}
	return nil
}
