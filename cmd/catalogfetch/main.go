// catalogfetch imports cloud-provider service offerings into the catalog
// document so stacks can reference managed services alongside hand-curated
// tools. Currently fetches the AWS service list from the Pricing API.
package main

import (
	"context"
	"flag"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	pricing "github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/stackdeck-app/stackdeck-backend/config"
	"github.com/stackdeck-app/stackdeck-backend/internal/bootstrap"
	"github.com/stackdeck-app/stackdeck-backend/internal/catalog"
)

func main() {
	maxServices := flag.Int("max", 2000, "maximum number of AWS services to import")
	rps := flag.Float64("rps", 4, "Pricing API request rate limit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	store, err := bootstrap.OpenStore(cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	repo := catalog.NewRepo(store)

	ctx := context.Background()
	awsConf, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion("us-east-1"))
	if err != nil {
		log.Fatalf("aws config load: %v", err)
	}
	client := pricing.NewFromConfig(awsConf)

	runID := uuid.New().String()
	log.Printf("catalog fetch %s starting: max=%d rps=%v", runID, *maxServices, *rps)

	tools, err := fetchAWSServices(ctx, client, *maxServices, rate.Limit(*rps))
	if err != nil {
		log.Fatalf("fetch failed: %v", err)
	}

	if err := repo.MergeTools(ctx, tools, []string{"aws"}); err != nil {
		log.Fatalf("catalog merge failed: %v", err)
	}
	log.Printf("catalog fetch %s done: %d services imported", runID, len(tools))
}

func fetchAWSServices(ctx context.Context, client *pricing.Client, maxServices int, limit rate.Limit) ([]catalog.Tool, error) {
	limiter := rate.NewLimiter(limit, 1)

	var tools []catalog.Tool
	var nextToken *string
	start := time.Now()

	for len(tools) < maxServices {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		out, err := client.DescribeServices(ctx, &pricing.DescribeServicesInput{
			MaxResults: aws.Int32(100),
			NextToken:  nextToken,
		})
		if err != nil {
			return nil, err
		}

		for _, svc := range out.Services {
			code := aws.ToString(svc.ServiceCode)
			if code == "" {
				continue
			}
			tools = append(tools, catalog.Tool{
				ID:        "aws-" + strings.ToLower(code),
				Name:      code,
				Category:  "cloud-service",
				Providers: []string{"aws"},
			})
			if len(tools) >= maxServices {
				break
			}
		}

		nextToken = out.NextToken
		if nextToken == nil {
			break
		}
	}

	log.Printf("fetched %d AWS services in %s", len(tools), time.Since(start).Round(time.Millisecond))
	return tools, nil
}
