package aws

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelis/cloudlab/internal/config"
	"github.com/avelis/cloudlab/internal/workflow"
)

func testTimeouts() *config.Timeouts {
	return &config.Timeouts{
		Create:            time.Second,
		Ready:             time.Second,
		Delete:            time.Second,
		PollInterval:      time.Millisecond,
		RetryMaxAttempts:  2,
		RetryInitialDelay: time.Millisecond,
	}
}

func testClient(ec2api EC2API, s3api S3API) *Client {
	return NewClientWithAPIs(ec2api, s3api, "us-east-1", testTimeouts())
}

func apiError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code}
}

func networkSpec(cidr string) workflow.Spec {
	attrs := map[string]string{}
	if cidr != "" {
		attrs[AttrCIDR] = cidr
	}
	return workflow.Spec{Kind: workflow.KindNetwork, Key: "lab-net", Attributes: attrs}
}

func TestLookupNetwork(t *testing.T) {
	t.Parallel()

	t.Run("absent network returns nil", func(t *testing.T) {
		t.Parallel()
		client := testClient(&MockEC2{}, &MockS3{})

		handle, err := client.LookupNetwork(context.Background(), networkSpec("10.0.0.0/16"))
		require.NoError(t, err)
		assert.Nil(t, handle)
	})

	t.Run("matching CIDR is reused", func(t *testing.T) {
		t.Parallel()
		mock := &MockEC2{
			DescribeVpcsFunc: func(_ context.Context, params *ec2.DescribeVpcsInput, _ ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error) {
				require.NotEmpty(t, params.Filters)
				return &ec2.DescribeVpcsOutput{Vpcs: []ec2types.Vpc{{
					VpcId:     aws.String("vpc-123"),
					CidrBlock: aws.String("10.0.0.0/16"),
					State:     ec2types.VpcStateAvailable,
				}}}, nil
			},
		}
		client := testClient(mock, &MockS3{})

		handle, err := client.LookupNetwork(context.Background(), networkSpec("10.0.0.0/16"))
		require.NoError(t, err)
		require.NotNil(t, handle)
		assert.Equal(t, "vpc-123", handle.ID)
		assert.Equal(t, workflow.StatusReady, handle.Status)
	})

	t.Run("CIDR mismatch is a conflict", func(t *testing.T) {
		t.Parallel()
		mock := &MockEC2{
			DescribeVpcsFunc: func(context.Context, *ec2.DescribeVpcsInput, ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error) {
				return &ec2.DescribeVpcsOutput{Vpcs: []ec2types.Vpc{{
					VpcId:     aws.String("vpc-123"),
					CidrBlock: aws.String("172.16.0.0/16"),
				}}}, nil
			},
		}
		client := testClient(mock, &MockS3{})

		_, err := client.LookupNetwork(context.Background(), networkSpec("10.0.0.0/16"))
		assert.True(t, workflow.IsConflict(err))
	})
}

func TestCreateNetwork(t *testing.T) {
	t.Parallel()

	var subnetCIDRs []string
	var publicModified, routeAssociations int

	mock := &MockEC2{
		CreateVpcFunc: func(_ context.Context, params *ec2.CreateVpcInput, _ ...func(*ec2.Options)) (*ec2.CreateVpcOutput, error) {
			assert.Equal(t, "10.0.0.0/16", aws.ToString(params.CidrBlock))
			return &ec2.CreateVpcOutput{Vpc: &ec2types.Vpc{VpcId: aws.String("vpc-new")}}, nil
		},
		CreateInternetGatewayFunc: func(context.Context, *ec2.CreateInternetGatewayInput, ...func(*ec2.Options)) (*ec2.CreateInternetGatewayOutput, error) {
			return &ec2.CreateInternetGatewayOutput{InternetGateway: &ec2types.InternetGateway{InternetGatewayId: aws.String("igw-1")}}, nil
		},
		DescribeAvailabilityZonesFunc: func(context.Context, *ec2.DescribeAvailabilityZonesInput, ...func(*ec2.Options)) (*ec2.DescribeAvailabilityZonesOutput, error) {
			return &ec2.DescribeAvailabilityZonesOutput{AvailabilityZones: []ec2types.AvailabilityZone{
				{ZoneName: aws.String("us-east-1a")},
				{ZoneName: aws.String("us-east-1b")},
			}}, nil
		},
		CreateSubnetFunc: func(_ context.Context, params *ec2.CreateSubnetInput, _ ...func(*ec2.Options)) (*ec2.CreateSubnetOutput, error) {
			subnetCIDRs = append(subnetCIDRs, aws.ToString(params.CidrBlock))
			return &ec2.CreateSubnetOutput{Subnet: &ec2types.Subnet{SubnetId: aws.String("subnet-" + aws.ToString(params.CidrBlock))}}, nil
		},
		ModifySubnetAttributeFunc: func(context.Context, *ec2.ModifySubnetAttributeInput, ...func(*ec2.Options)) (*ec2.ModifySubnetAttributeOutput, error) {
			publicModified++
			return &ec2.ModifySubnetAttributeOutput{}, nil
		},
		CreateRouteTableFunc: func(context.Context, *ec2.CreateRouteTableInput, ...func(*ec2.Options)) (*ec2.CreateRouteTableOutput, error) {
			return &ec2.CreateRouteTableOutput{RouteTable: &ec2types.RouteTable{RouteTableId: aws.String("rtb-1")}}, nil
		},
		CreateRouteFunc: func(_ context.Context, params *ec2.CreateRouteInput, _ ...func(*ec2.Options)) (*ec2.CreateRouteOutput, error) {
			assert.Equal(t, "0.0.0.0/0", aws.ToString(params.DestinationCidrBlock))
			assert.Equal(t, "igw-1", aws.ToString(params.GatewayId))
			return &ec2.CreateRouteOutput{}, nil
		},
		AssociateRouteTableFunc: func(context.Context, *ec2.AssociateRouteTableInput, ...func(*ec2.Options)) (*ec2.AssociateRouteTableOutput, error) {
			routeAssociations++
			return &ec2.AssociateRouteTableOutput{}, nil
		},
	}
	client := testClient(mock, &MockS3{})

	spec := workflow.Spec{
		Kind: workflow.KindNetwork,
		Key:  "lab-net",
		Attributes: map[string]string{
			AttrCIDR:           "10.0.0.0/16",
			AttrPublicSubnets:  "10.0.1.0/24,10.0.2.0/24",
			AttrPrivateSubnets: "10.0.10.0/24",
		},
	}

	handle, err := client.CreateNetwork(context.Background(), spec)
	require.NoError(t, err)

	assert.Equal(t, "vpc-new", handle.ID)
	assert.Equal(t, workflow.StatusPending, handle.Status)
	assert.Equal(t, []string{"10.0.1.0/24", "10.0.2.0/24", "10.0.10.0/24"}, subnetCIDRs)
	assert.Equal(t, 2, publicModified, "only public subnets map public IPs")
	assert.Equal(t, 2, routeAssociations, "only public subnets join the public route table")
}

func TestNetworkStatus(t *testing.T) {
	t.Parallel()

	t.Run("available is ready", func(t *testing.T) {
		t.Parallel()
		mock := &MockEC2{
			DescribeVpcsFunc: func(context.Context, *ec2.DescribeVpcsInput, ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error) {
				return &ec2.DescribeVpcsOutput{Vpcs: []ec2types.Vpc{{State: ec2types.VpcStateAvailable}}}, nil
			},
		}
		status, err := testClient(mock, &MockS3{}).NetworkStatus(context.Background(), "vpc-1")
		require.NoError(t, err)
		assert.Equal(t, workflow.StatusReady, status)
	})

	t.Run("missing VPC is deleted", func(t *testing.T) {
		t.Parallel()
		mock := &MockEC2{
			DescribeVpcsFunc: func(context.Context, *ec2.DescribeVpcsInput, ...func(*ec2.Options)) (*ec2.DescribeVpcsOutput, error) {
				return nil, apiError("InvalidVpcID.NotFound")
			},
		}
		status, err := testClient(mock, &MockS3{}).NetworkStatus(context.Background(), "vpc-gone")
		require.NoError(t, err)
		assert.Equal(t, workflow.StatusDeleted, status)
	})
}

func TestDeleteNetwork(t *testing.T) {
	t.Parallel()

	var order []string
	vpcDeleteAttempts := 0

	mock := &MockEC2{
		DescribeSubnetsFunc: func(context.Context, *ec2.DescribeSubnetsInput, ...func(*ec2.Options)) (*ec2.DescribeSubnetsOutput, error) {
			return &ec2.DescribeSubnetsOutput{Subnets: []ec2types.Subnet{{SubnetId: aws.String("subnet-1")}}}, nil
		},
		DeleteSubnetFunc: func(context.Context, *ec2.DeleteSubnetInput, ...func(*ec2.Options)) (*ec2.DeleteSubnetOutput, error) {
			order = append(order, "subnet")
			return &ec2.DeleteSubnetOutput{}, nil
		},
		DescribeInternetGatewaysFunc: func(context.Context, *ec2.DescribeInternetGatewaysInput, ...func(*ec2.Options)) (*ec2.DescribeInternetGatewaysOutput, error) {
			return &ec2.DescribeInternetGatewaysOutput{InternetGateways: []ec2types.InternetGateway{{InternetGatewayId: aws.String("igw-1")}}}, nil
		},
		DetachInternetGatewayFunc: func(context.Context, *ec2.DetachInternetGatewayInput, ...func(*ec2.Options)) (*ec2.DetachInternetGatewayOutput, error) {
			order = append(order, "igw-detach")
			return &ec2.DetachInternetGatewayOutput{}, nil
		},
		DeleteInternetGatewayFunc: func(context.Context, *ec2.DeleteInternetGatewayInput, ...func(*ec2.Options)) (*ec2.DeleteInternetGatewayOutput, error) {
			order = append(order, "igw-delete")
			return &ec2.DeleteInternetGatewayOutput{}, nil
		},
		DescribeRouteTablesFunc: func(context.Context, *ec2.DescribeRouteTablesInput, ...func(*ec2.Options)) (*ec2.DescribeRouteTablesOutput, error) {
			return &ec2.DescribeRouteTablesOutput{RouteTables: []ec2types.RouteTable{
				{RouteTableId: aws.String("rtb-main"), Associations: []ec2types.RouteTableAssociation{{Main: aws.Bool(true)}}},
				{RouteTableId: aws.String("rtb-public")},
			}}, nil
		},
		DeleteRouteTableFunc: func(_ context.Context, params *ec2.DeleteRouteTableInput, _ ...func(*ec2.Options)) (*ec2.DeleteRouteTableOutput, error) {
			assert.Equal(t, "rtb-public", aws.ToString(params.RouteTableId), "main route table is never deleted")
			order = append(order, "route-table")
			return &ec2.DeleteRouteTableOutput{}, nil
		},
		DescribeSecurityGroupsFunc: func(context.Context, *ec2.DescribeSecurityGroupsInput, ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
			return &ec2.DescribeSecurityGroupsOutput{SecurityGroups: []ec2types.SecurityGroup{
				{GroupId: aws.String("sg-default"), GroupName: aws.String("default")},
				{GroupId: aws.String("sg-lab"), GroupName: aws.String("lab-box-sg")},
			}}, nil
		},
		DeleteSecurityGroupFunc: func(_ context.Context, params *ec2.DeleteSecurityGroupInput, _ ...func(*ec2.Options)) (*ec2.DeleteSecurityGroupOutput, error) {
			assert.Equal(t, "sg-lab", aws.ToString(params.GroupId), "default group is never deleted")
			order = append(order, "security-group")
			return &ec2.DeleteSecurityGroupOutput{}, nil
		},
		DeleteVpcFunc: func(context.Context, *ec2.DeleteVpcInput, ...func(*ec2.Options)) (*ec2.DeleteVpcOutput, error) {
			vpcDeleteAttempts++
			if vpcDeleteAttempts == 1 {
				return nil, apiError("DependencyViolation")
			}
			order = append(order, "vpc")
			return &ec2.DeleteVpcOutput{}, nil
		},
	}
	client := testClient(mock, &MockS3{})

	require.NoError(t, client.DeleteNetwork(context.Background(), "vpc-1"))
	assert.Equal(t, []string{"subnet", "igw-detach", "igw-delete", "route-table", "security-group", "vpc"}, order)
	assert.Equal(t, 2, vpcDeleteAttempts, "dependency violation is retried")
}

func TestDeleteNetworkAlreadyGone(t *testing.T) {
	t.Parallel()

	mock := &MockEC2{
		DeleteVpcFunc: func(context.Context, *ec2.DeleteVpcInput, ...func(*ec2.Options)) (*ec2.DeleteVpcOutput, error) {
			return nil, apiError("InvalidVpcID.NotFound")
		},
	}
	client := testClient(mock, &MockS3{})

	assert.NoError(t, client.DeleteNetwork(context.Background(), "vpc-gone"))
}
