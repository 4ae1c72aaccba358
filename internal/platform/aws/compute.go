package aws

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/avelis/cloudlab/internal/workflow"
)

// LookupInstance finds a non-terminated instance by Name tag. An existing
// instance whose type or pinned AMI differ from the spec is a conflict.
func (c *Client) LookupInstance(ctx context.Context, spec workflow.Spec) (*workflow.Handle, error) {
	inst, err := c.findInstance(ctx, spec.Key)
	if err != nil || inst == nil {
		return nil, err
	}

	wantType := spec.Attr(AttrInstanceType, defaultInstanceType)
	if string(inst.InstanceType) != wantType {
		return nil, &workflow.ConflictError{
			Key:    spec.Key,
			Reason: fmt.Sprintf("instance %s is %s, spec wants %s", aws.ToString(inst.InstanceId), inst.InstanceType, wantType),
		}
	}
	if wantAMI := spec.Attr(AttrAMI, ""); wantAMI != "" && aws.ToString(inst.ImageId) != wantAMI {
		return nil, &workflow.ConflictError{
			Key:    spec.Key,
			Reason: fmt.Sprintf("instance %s runs image %s, spec pins %s", aws.ToString(inst.InstanceId), aws.ToString(inst.ImageId), wantAMI),
		}
	}

	return newHandle(aws.ToString(inst.InstanceId), spec, instanceStatus(inst.State)), nil
}

// CreateInstance launches an EC2 instance: key pair imported, security
// group ensured, subnet resolved from the referenced lab network (or the
// default VPC when unset).
func (c *Client) CreateInstance(ctx context.Context, spec workflow.Spec) (*workflow.Handle, error) {
	keyName := spec.Attr(AttrKeyName, spec.Key+"-key")
	if err := c.ensureKeyPair(ctx, keyName, spec.Attr(AttrPrivateKeyFile, "")); err != nil {
		return nil, err
	}

	vpcID, subnetID, err := c.resolvePlacement(ctx, spec.Attr(AttrNetwork, ""))
	if err != nil {
		return nil, err
	}

	groupID, err := c.ensureSecurityGroup(ctx, spec.Key+"-sg", vpcID)
	if err != nil {
		return nil, err
	}

	imageID := spec.Attr(AttrAMI, "")
	if imageID == "" {
		imageID, err = c.latestAmazonLinuxAMI(ctx)
		if err != nil {
			return nil, err
		}
	}

	input := &ec2.RunInstancesInput{
		ImageId:           aws.String(imageID),
		InstanceType:      ec2types.InstanceType(spec.Attr(AttrInstanceType, defaultInstanceType)),
		KeyName:           aws.String(keyName),
		MinCount:          aws.Int32(1),
		MaxCount:          aws.Int32(1),
		SecurityGroupIds:  []string{groupID},
		TagSpecifications: []ec2types.TagSpecification{tagSpec(ec2types.ResourceTypeInstance, spec.Key)},
	}
	if subnetID != "" {
		input.SubnetId = aws.String(subnetID)
	}
	if userData := spec.Attr(AttrUserData, ""); userData != "" {
		input.UserData = aws.String(base64.StdEncoding.EncodeToString([]byte(userData)))
	}

	out, err := c.ec2.RunInstances(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to run instance %s: %w", spec.Key, err)
	}
	if len(out.Instances) == 0 {
		return nil, fmt.Errorf("RunInstances returned no instances for %s", spec.Key)
	}

	return newHandle(aws.ToString(out.Instances[0].InstanceId), spec, workflow.StatusPending), nil
}

// InstanceStatus maps the EC2 lifecycle to workflow statuses: running is
// ready, pending stays pending, terminating states count as deleted, and a
// stopped lab instance is failed (the runner never stops instances itself).
func (c *Client) InstanceStatus(ctx context.Context, instanceID string) (workflow.Status, error) {
	out, err := c.ec2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{instanceID}})
	if err != nil {
		if IsNotFound(err) {
			return workflow.StatusDeleted, nil
		}
		return "", fmt.Errorf("failed to describe instance %s: %w", instanceID, err)
	}
	for _, res := range out.Reservations {
		for _, inst := range res.Instances {
			return instanceStatus(inst.State), nil
		}
	}
	return workflow.StatusDeleted, nil
}

// DeleteInstance terminates the instance and removes its imported key
// pair. Termination is asynchronous; the VPC delete path retries around
// the draining window.
func (c *Client) DeleteInstance(ctx context.Context, handle *workflow.Handle) error {
	_, err := c.ec2.TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: []string{handle.ID}})
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("failed to terminate instance %s: %w", handle.ID, err)
	}

	keyName := handle.Spec.Attr(AttrKeyName, handle.Spec.Key+"-key")
	return c.deleteKeyPair(ctx, keyName)
}

func (c *Client) findInstance(ctx context.Context, name string) (*ec2types.Instance, error) {
	filters := append(nameFilters(name), ec2types.Filter{
		Name:   aws.String("instance-state-name"),
		Values: []string{"pending", "running", "stopping", "stopped", "shutting-down"},
	})
	out, err := c.ec2.DescribeInstances(ctx, &ec2.DescribeInstancesInput{Filters: filters})
	if err != nil {
		return nil, fmt.Errorf("failed to describe instances: %w", err)
	}
	for _, res := range out.Reservations {
		for i := range res.Instances {
			return &res.Instances[i], nil
		}
	}
	return nil, nil
}

// resolvePlacement maps a lab network reference to (vpcID, subnetID). The
// first public subnet in the named network wins; an empty reference means
// the account's default VPC with SDK-chosen subnet.
func (c *Client) resolvePlacement(ctx context.Context, network string) (string, string, error) {
	if network == "" {
		return c.defaultVPC(ctx)
	}

	vpcs, err := c.ec2.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{Filters: nameFilters(network)})
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve network %s: %w", network, err)
	}
	if len(vpcs.Vpcs) == 0 {
		return "", "", fmt.Errorf("network %s not found", network)
	}
	vpcID := aws.ToString(vpcs.Vpcs[0].VpcId)

	subnets, err := c.ec2.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{Filters: vpcFilter(vpcID)})
	if err != nil {
		return "", "", fmt.Errorf("failed to list subnets in %s: %w", vpcID, err)
	}
	for _, subnet := range subnets.Subnets {
		if aws.ToBool(subnet.MapPublicIpOnLaunch) {
			return vpcID, aws.ToString(subnet.SubnetId), nil
		}
	}
	if len(subnets.Subnets) > 0 {
		return vpcID, aws.ToString(subnets.Subnets[0].SubnetId), nil
	}
	return "", "", fmt.Errorf("network %s has no subnets", network)
}

func (c *Client) defaultVPC(ctx context.Context) (string, string, error) {
	out, err := c.ec2.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{
		Filters: []ec2types.Filter{{Name: aws.String("is-default"), Values: []string{"true"}}},
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to find default VPC: %w", err)
	}
	if len(out.Vpcs) == 0 {
		return "", "", fmt.Errorf("no default VPC in region %s", c.region)
	}
	return aws.ToString(out.Vpcs[0].VpcId), "", nil
}

// latestAmazonLinuxAMI resolves the newest Amazon Linux 2023 x86_64 image.
func (c *Client) latestAmazonLinuxAMI(ctx context.Context) (string, error) {
	out, err := c.ec2.DescribeImages(ctx, &ec2.DescribeImagesInput{
		Owners: []string{"amazon"},
		Filters: []ec2types.Filter{
			{Name: aws.String("name"), Values: []string{"al2023-ami-2023*-x86_64"}},
			{Name: aws.String("state"), Values: []string{"available"}},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to describe images: %w", err)
	}
	if len(out.Images) == 0 {
		return "", fmt.Errorf("no Amazon Linux 2023 image in region %s", c.region)
	}

	images := out.Images
	sort.Slice(images, func(i, j int) bool {
		return aws.ToString(images[i].CreationDate) > aws.ToString(images[j].CreationDate)
	})
	return aws.ToString(images[0].ImageId), nil
}

func instanceStatus(state *ec2types.InstanceState) workflow.Status {
	if state == nil {
		return workflow.StatusPending
	}
	switch state.Name {
	case ec2types.InstanceStateNameRunning:
		return workflow.StatusReady
	case ec2types.InstanceStateNamePending:
		return workflow.StatusPending
	case ec2types.InstanceStateNameShuttingDown, ec2types.InstanceStateNameTerminated:
		return workflow.StatusDeleted
	case ec2types.InstanceStateNameStopping, ec2types.InstanceStateNameStopped:
		return workflow.StatusFailed
	default:
		return workflow.StatusPending
	}
}
