package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	pricingtypes "github.com/aws/aws-sdk-go-v2/service/pricing/types"
)

// Client is the AWS provider client for the remote build agent pool
type Client struct {
	ec2Client     *ec2.Client
	pricingClient *pricing.Client
	region        string
}

// NewClient creates a new AWS client for the given region
func NewClient(ctx context.Context, region string) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}

	return &Client{
		ec2Client: ec2.NewFromConfig(cfg),
		// Pricing API lives in us-east-1 regardless of agent region
		pricingClient: pricing.NewFromConfig(cfg, func(o *pricing.Options) {
			o.Region = "us-east-1"
		}),
		region: region,
	}, nil
}

// OnDemandAgentPrice returns the hourly on-demand price for an agent
// instance type, falling back to a static table when the Pricing API is
// unavailable.
func (c *Client) OnDemandAgentPrice(ctx context.Context, instanceType string) (float64, error) {
	price, err := c.fetchOnDemandPrice(ctx, instanceType)
	if err == nil {
		return price, nil
	}

	if fallback, ok := staticAgentPrices[instanceType]; ok {
		return fallback, nil
	}
	return 0, fmt.Errorf("no price available for %s: %w", instanceType, err)
}

// fetchOnDemandPrice queries the AWS Pricing API for one instance type
func (c *Client) fetchOnDemandPrice(ctx context.Context, instanceType string) (float64, error) {
	input := &pricing.GetProductsInput{
		ServiceCode: aws.String("AmazonEC2"),
		MaxResults:  aws.Int32(1),
		Filters: []pricingtypes.Filter{
			{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("instanceType"), Value: aws.String(instanceType)},
			{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("regionCode"), Value: aws.String(c.region)},
			{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("operatingSystem"), Value: aws.String("Linux")},
			{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("tenancy"), Value: aws.String("Shared")},
			{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("preInstalledSw"), Value: aws.String("NA")},
			{Type: pricingtypes.FilterTypeTermMatch, Field: aws.String("capacitystatus"), Value: aws.String("Used")},
		},
	}

	result, err := c.pricingClient.GetProducts(ctx, input)
	if err != nil {
		return 0, err
	}
	if len(result.PriceList) == 0 {
		return 0, fmt.Errorf("no products returned for %s", instanceType)
	}

	return parseOnDemandPrice(result.PriceList[0])
}

// parseOnDemandPrice digs the USD-per-hour figure out of one price list
// document. The document nests offer terms under generated keys, so the
// walk iterates rather than indexes.
func parseOnDemandPrice(document string) (float64, error) {
	var product struct {
		Terms struct {
			OnDemand map[string]struct {
				PriceDimensions map[string]struct {
					PricePerUnit struct {
						USD string `json:"USD"`
					} `json:"pricePerUnit"`
				} `json:"priceDimensions"`
			} `json:"OnDemand"`
		} `json:"terms"`
	}

	if err := json.Unmarshal([]byte(document), &product); err != nil {
		return 0, fmt.Errorf("failed to parse price list document: %w", err)
	}

	for _, term := range product.Terms.OnDemand {
		for _, dimension := range term.PriceDimensions {
			var price float64
			if _, err := fmt.Sscanf(dimension.PricePerUnit.USD, "%f", &price); err == nil {
				return price, nil
			}
		}
	}

	return 0, fmt.Errorf("no on-demand price dimension found")
}

// staticAgentPrices covers the common agent instance types when the
// Pricing API cannot be reached
var staticAgentPrices = map[string]float64{
	"t3.medium":  0.0416,
	"t3.large":   0.0832,
	"c5.large":   0.085,
	"c5.xlarge":  0.17,
	"c5.2xlarge": 0.34,
	"m5.large":   0.096,
	"m5.xlarge":  0.192,
}
