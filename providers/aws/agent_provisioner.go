package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// ProvisionAgents provisions EC2 build agents and returns their instance IDs
func (c *Client) ProvisionAgents(
	ctx context.Context,
	amiID string,
	instanceType string,
	spot bool,
	count int,
) ([]string, error) {
	input := &ec2.RunInstancesInput{
		ImageId:      aws.String(amiID),
		InstanceType: types.InstanceType(instanceType),
		MinCount:     aws.Int32(int32(count)),
		MaxCount:     aws.Int32(int32(count)),
		UserData:     aws.String(agentUserDataScript()),
		TagSpecifications: []types.TagSpecification{
			{
				ResourceType: types.ResourceTypeInstance,
				Tags: []types.Tag{
					{
						Key:   aws.String("Name"),
						Value: aws.String(fmt.Sprintf("build-agent-%s", instanceType)),
					},
					{
						Key:   aws.String("ManagedBy"),
						Value: aws.String("ci-orchestrator"),
					},
				},
			},
		},
	}

	if spot {
		input.InstanceMarketOptions = &types.InstanceMarketOptionsRequest{
			MarketType: types.MarketTypeSpot,
			SpotOptions: &types.SpotMarketOptions{
				SpotInstanceType: types.SpotInstanceTypeOneTime,
			},
		}
	}

	result, err := c.ec2Client.RunInstances(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to provision agents: %w", err)
	}

	instanceIDs := make([]string, len(result.Instances))
	for i, instance := range result.Instances {
		instanceIDs[i] = *instance.InstanceId
	}

	return instanceIDs, nil
}

// TerminateAgents terminates the given build agent instances
func (c *Client) TerminateAgents(ctx context.Context, instanceIDs []string) error {
	if len(instanceIDs) == 0 {
		return nil
	}

	_, err := c.ec2Client.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: instanceIDs,
	})
	if err != nil {
		return fmt.Errorf("failed to terminate agents: %w", err)
	}
	return nil
}

// VerifyAMI verifies that an agent AMI exists and is available
func (c *Client) VerifyAMI(ctx context.Context, amiID string) (bool, error) {
	input := &ec2.DescribeImagesInput{
		ImageIds: []string{amiID},
		Filters: []types.Filter{
			{
				Name:   aws.String("state"),
				Values: []string{"available"},
			},
		},
	}

	result, err := c.ec2Client.DescribeImages(ctx, input)
	if err != nil {
		return false, err
	}

	return len(result.Images) > 0, nil
}

// agentUserDataScript returns the user data script that turns a fresh
// instance into a build agent
func agentUserDataScript() string {
	return `#!/bin/bash
set -e

# Update system
apt-get update -y

# Build toolchain
apt-get install -y git make gcc curl

# Agent working directory
mkdir -p /opt/build-agent/workspace
chmod 755 /opt/build-agent

# Log completion
echo "Agent initialization complete" >> /var/log/user-data.log
`
}
