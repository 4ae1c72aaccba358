package aws

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/avelis/cloudlab/internal/util/retry"
	"github.com/avelis/cloudlab/internal/workflow"
)

// LookupNetwork finds a VPC by Name tag. A match with a different CIDR
// block is a configuration conflict, not reuse.
func (c *Client) LookupNetwork(ctx context.Context, spec workflow.Spec) (*workflow.Handle, error) {
	out, err := c.ec2.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{Filters: nameFilters(spec.Key)})
	if err != nil {
		return nil, fmt.Errorf("failed to describe VPCs: %w", err)
	}
	if len(out.Vpcs) == 0 {
		return nil, nil
	}

	vpc := out.Vpcs[0]
	wantCIDR := spec.Attr(AttrCIDR, defaultVPCCIDR)
	if aws.ToString(vpc.CidrBlock) != wantCIDR {
		return nil, &workflow.ConflictError{
			Key:    spec.Key,
			Reason: fmt.Sprintf("VPC %s has CIDR %s, spec wants %s", aws.ToString(vpc.VpcId), aws.ToString(vpc.CidrBlock), wantCIDR),
		}
	}

	return newHandle(aws.ToString(vpc.VpcId), spec, vpcStatus(vpc.State)), nil
}

// CreateNetwork provisions the full lab topology for one network spec:
// the VPC with DNS support, an attached internet gateway, public and
// private subnets spread across availability zones, and a public route
// table with a default route through the gateway.
func (c *Client) CreateNetwork(ctx context.Context, spec workflow.Spec) (*workflow.Handle, error) {
	cidr := spec.Attr(AttrCIDR, defaultVPCCIDR)

	vpcOut, err := c.ec2.CreateVpc(ctx, &ec2.CreateVpcInput{
		CidrBlock:         aws.String(cidr),
		TagSpecifications: []ec2types.TagSpecification{tagSpec(ec2types.ResourceTypeVpc, spec.Key)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create VPC: %w", err)
	}
	vpcID := aws.ToString(vpcOut.Vpc.VpcId)

	// DNS support must be enabled before hostnames.
	for _, mod := range []*ec2.ModifyVpcAttributeInput{
		{VpcId: aws.String(vpcID), EnableDnsSupport: &ec2types.AttributeBooleanValue{Value: aws.Bool(true)}},
		{VpcId: aws.String(vpcID), EnableDnsHostnames: &ec2types.AttributeBooleanValue{Value: aws.Bool(true)}},
	} {
		if _, err := c.ec2.ModifyVpcAttribute(ctx, mod); err != nil {
			return nil, fmt.Errorf("failed to modify VPC attribute: %w", err)
		}
	}

	igwID, err := c.attachInternetGateway(ctx, spec.Key, vpcID)
	if err != nil {
		return nil, err
	}

	publicIDs, err := c.createSubnets(ctx, spec, vpcID, splitCIDRs(spec.Attr(AttrPublicSubnets, "")), true)
	if err != nil {
		return nil, err
	}
	if _, err := c.createSubnets(ctx, spec, vpcID, splitCIDRs(spec.Attr(AttrPrivateSubnets, "")), false); err != nil {
		return nil, err
	}

	if len(publicIDs) > 0 {
		if err := c.createPublicRouting(ctx, spec.Key, vpcID, igwID, publicIDs); err != nil {
			return nil, err
		}
	}

	return newHandle(vpcID, spec, workflow.StatusPending), nil
}

// NetworkStatus reports the VPC's lifecycle state.
func (c *Client) NetworkStatus(ctx context.Context, vpcID string) (workflow.Status, error) {
	out, err := c.ec2.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{VpcIds: []string{vpcID}})
	if err != nil {
		if IsNotFound(err) {
			return workflow.StatusDeleted, nil
		}
		return "", fmt.Errorf("failed to describe VPC %s: %w", vpcID, err)
	}
	if len(out.Vpcs) == 0 {
		return workflow.StatusDeleted, nil
	}
	return vpcStatus(out.Vpcs[0].State), nil
}

// DeleteNetwork tears the VPC interior down in dependency order: subnets,
// internet gateways (detach then delete), non-main route tables, non-default
// security groups, and finally the VPC itself. The VPC delete is retried
// while dependents (terminating instances) drain.
func (c *Client) DeleteNetwork(ctx context.Context, vpcID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Delete)
	defer cancel()

	if err := c.deleteSubnets(ctx, vpcID); err != nil {
		return err
	}
	if err := c.deleteInternetGateways(ctx, vpcID); err != nil {
		return err
	}
	if err := c.deleteRouteTables(ctx, vpcID); err != nil {
		return err
	}
	if err := c.deleteSecurityGroups(ctx, vpcID); err != nil {
		return err
	}

	return retry.Do(ctx, func() error {
		_, err := c.ec2.DeleteVpc(ctx, &ec2.DeleteVpcInput{VpcId: aws.String(vpcID)})
		if err != nil {
			if IsNotFound(err) {
				return nil
			}
			if isDependencyViolation(err) {
				return err // retryable
			}
			return retry.Fatal(fmt.Errorf("failed to delete VPC %s: %w", vpcID, err))
		}
		return nil
	},
		retry.WithMaxRetries(c.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(c.timeouts.RetryInitialDelay))
}

func (c *Client) attachInternetGateway(ctx context.Context, name, vpcID string) (string, error) {
	igwOut, err := c.ec2.CreateInternetGateway(ctx, &ec2.CreateInternetGatewayInput{
		TagSpecifications: []ec2types.TagSpecification{tagSpec(ec2types.ResourceTypeInternetGateway, name+"-igw")},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create internet gateway: %w", err)
	}
	igwID := aws.ToString(igwOut.InternetGateway.InternetGatewayId)

	_, err = c.ec2.AttachInternetGateway(ctx, &ec2.AttachInternetGatewayInput{
		InternetGatewayId: aws.String(igwID),
		VpcId:             aws.String(vpcID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to attach internet gateway: %w", err)
	}
	return igwID, nil
}

// createSubnets creates one subnet per CIDR, rotating through the region's
// availability zones. Public subnets auto-assign public IPs on launch.
func (c *Client) createSubnets(ctx context.Context, spec workflow.Spec, vpcID string, cidrs []string, public bool) ([]string, error) {
	if len(cidrs) == 0 {
		return nil, nil
	}

	zones, err := c.availabilityZones(ctx)
	if err != nil {
		return nil, err
	}

	role := "private"
	if public {
		role = "public"
	}

	ids := make([]string, 0, len(cidrs))
	for i, cidr := range cidrs {
		name := fmt.Sprintf("%s-%s-%d", spec.Key, role, i+1)
		out, err := c.ec2.CreateSubnet(ctx, &ec2.CreateSubnetInput{
			VpcId:             aws.String(vpcID),
			CidrBlock:         aws.String(cidr),
			AvailabilityZone:  aws.String(zones[i%len(zones)]),
			TagSpecifications: []ec2types.TagSpecification{tagSpec(ec2types.ResourceTypeSubnet, name)},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create subnet %s: %w", cidr, err)
		}
		subnetID := aws.ToString(out.Subnet.SubnetId)

		if public {
			_, err = c.ec2.ModifySubnetAttribute(ctx, &ec2.ModifySubnetAttributeInput{
				SubnetId:            aws.String(subnetID),
				MapPublicIpOnLaunch: &ec2types.AttributeBooleanValue{Value: aws.Bool(true)},
			})
			if err != nil {
				return nil, fmt.Errorf("failed to enable public IPs on subnet %s: %w", subnetID, err)
			}
		}
		ids = append(ids, subnetID)
	}
	return ids, nil
}

func (c *Client) createPublicRouting(ctx context.Context, name, vpcID, igwID string, subnetIDs []string) error {
	rtOut, err := c.ec2.CreateRouteTable(ctx, &ec2.CreateRouteTableInput{
		VpcId:             aws.String(vpcID),
		TagSpecifications: []ec2types.TagSpecification{tagSpec(ec2types.ResourceTypeRouteTable, name+"-public-rt")},
	})
	if err != nil {
		return fmt.Errorf("failed to create route table: %w", err)
	}
	rtID := aws.ToString(rtOut.RouteTable.RouteTableId)

	_, err = c.ec2.CreateRoute(ctx, &ec2.CreateRouteInput{
		RouteTableId:         aws.String(rtID),
		DestinationCidrBlock: aws.String("0.0.0.0/0"),
		GatewayId:            aws.String(igwID),
	})
	if err != nil {
		return fmt.Errorf("failed to create default route: %w", err)
	}

	for _, subnetID := range subnetIDs {
		_, err = c.ec2.AssociateRouteTable(ctx, &ec2.AssociateRouteTableInput{
			RouteTableId: aws.String(rtID),
			SubnetId:     aws.String(subnetID),
		})
		if err != nil {
			return fmt.Errorf("failed to associate route table with %s: %w", subnetID, err)
		}
	}
	return nil
}

func (c *Client) availabilityZones(ctx context.Context) ([]string, error) {
	out, err := c.ec2.DescribeAvailabilityZones(ctx, &ec2.DescribeAvailabilityZonesInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to describe availability zones: %w", err)
	}
	if len(out.AvailabilityZones) == 0 {
		return nil, fmt.Errorf("no availability zones in region %s", c.region)
	}
	zones := make([]string, 0, len(out.AvailabilityZones))
	for _, az := range out.AvailabilityZones {
		zones = append(zones, aws.ToString(az.ZoneName))
	}
	return zones, nil
}

func (c *Client) deleteSubnets(ctx context.Context, vpcID string) error {
	out, err := c.ec2.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{Filters: vpcFilter(vpcID)})
	if err != nil {
		return fmt.Errorf("failed to list subnets: %w", err)
	}
	for _, subnet := range out.Subnets {
		log.Printf("[aws] deleting subnet %s", aws.ToString(subnet.SubnetId))
		if _, err := c.ec2.DeleteSubnet(ctx, &ec2.DeleteSubnetInput{SubnetId: subnet.SubnetId}); err != nil && !IsNotFound(err) {
			return fmt.Errorf("failed to delete subnet %s: %w", aws.ToString(subnet.SubnetId), err)
		}
	}
	return nil
}

func (c *Client) deleteInternetGateways(ctx context.Context, vpcID string) error {
	out, err := c.ec2.DescribeInternetGateways(ctx, &ec2.DescribeInternetGatewaysInput{
		Filters: []ec2types.Filter{{Name: aws.String("attachment.vpc-id"), Values: []string{vpcID}}},
	})
	if err != nil {
		return fmt.Errorf("failed to list internet gateways: %w", err)
	}
	for _, igw := range out.InternetGateways {
		igwID := aws.ToString(igw.InternetGatewayId)
		log.Printf("[aws] detaching and deleting internet gateway %s", igwID)
		_, err := c.ec2.DetachInternetGateway(ctx, &ec2.DetachInternetGatewayInput{
			InternetGatewayId: aws.String(igwID),
			VpcId:             aws.String(vpcID),
		})
		if err != nil && !IsNotFound(err) {
			return fmt.Errorf("failed to detach internet gateway %s: %w", igwID, err)
		}
		if _, err := c.ec2.DeleteInternetGateway(ctx, &ec2.DeleteInternetGatewayInput{InternetGatewayId: aws.String(igwID)}); err != nil && !IsNotFound(err) {
			return fmt.Errorf("failed to delete internet gateway %s: %w", igwID, err)
		}
	}
	return nil
}

func (c *Client) deleteRouteTables(ctx context.Context, vpcID string) error {
	out, err := c.ec2.DescribeRouteTables(ctx, &ec2.DescribeRouteTablesInput{Filters: vpcFilter(vpcID)})
	if err != nil {
		return fmt.Errorf("failed to list route tables: %w", err)
	}
	for _, rt := range out.RouteTables {
		if isMainRouteTable(rt) {
			continue // deleted with the VPC
		}
		log.Printf("[aws] deleting route table %s", aws.ToString(rt.RouteTableId))
		if _, err := c.ec2.DeleteRouteTable(ctx, &ec2.DeleteRouteTableInput{RouteTableId: rt.RouteTableId}); err != nil && !IsNotFound(err) {
			return fmt.Errorf("failed to delete route table %s: %w", aws.ToString(rt.RouteTableId), err)
		}
	}
	return nil
}

func vpcFilter(vpcID string) []ec2types.Filter {
	return []ec2types.Filter{{Name: aws.String("vpc-id"), Values: []string{vpcID}}}
}

func isMainRouteTable(rt ec2types.RouteTable) bool {
	for _, assoc := range rt.Associations {
		if aws.ToBool(assoc.Main) {
			return true
		}
	}
	return false
}

func vpcStatus(state ec2types.VpcState) workflow.Status {
	switch state {
	case ec2types.VpcStateAvailable:
		return workflow.StatusReady
	case ec2types.VpcStatePending:
		return workflow.StatusPending
	default:
		return workflow.StatusPending
	}
}

func splitCIDRs(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
