// Package aws implements the provisioning provider on top of the AWS SDK.
//
// It manages three resource shapes: networks (a VPC with internet gateway,
// subnets and route tables), storage (S3 buckets), and compute (EC2
// instances with an imported key pair and a security group). The
// workflow-facing surface is the Provider type; everything else is the
// per-resource ensure/lookup/status/delete plumbing it dispatches to.
//
// Resources are recognized across runs by their Name tag (networks,
// instances) or bucket name (storage), never by provider identifiers.
package aws
