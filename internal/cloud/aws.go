package cloud

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// bucketSizeWindow is how far back the adapter looks for a storage metric
// datapoint. S3 storage metrics are published daily, so two days guarantees
// at least one datapoint for any bucket that has metrics at all.
const bucketSizeWindow = 48 * time.Hour

// AWSProvider implements Provider against the AWS APIs: STS for identity,
// EC2/S3/RDS for enumeration, and CloudWatch for bucket sizes.
type AWSProvider struct {
	region      string
	callTimeout time.Duration

	stsClient *sts.Client
	ec2Client *ec2.Client
	s3Client  *s3.Client
	rdsClient *rds.Client
	cwClient  *cloudwatch.Client
}

// NewAWSProvider builds an adapter bound to a static credential pair and a
// region. Nothing is contacted until a call is made.
func NewAWSProvider(creds Credentials, region string, callTimeout time.Duration) *AWSProvider {
	provider := credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretKey, "")
	return &AWSProvider{
		region:      region,
		callTimeout: callTimeout,
		stsClient:   sts.New(sts.Options{Region: region, Credentials: provider}),
		ec2Client:   ec2.New(ec2.Options{Region: region, Credentials: provider}),
		s3Client:    s3.New(s3.Options{Region: region, Credentials: provider}),
		rdsClient:   rds.New(rds.Options{Region: region, Credentials: provider}),
		cwClient:    cloudwatch.New(cloudwatch.Options{Region: region, Credentials: provider}),
	}
}

// callCtx bounds a single provider API call. The network stack's defaults are
// not trusted to terminate a stuck call.
func (p *AWSProvider) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.callTimeout)
}

func (p *AWSProvider) TestConnection(ctx context.Context) (Identity, error) {
	callCtx, cancel := p.callCtx(ctx)
	defer cancel()

	out, err := p.stsClient.GetCallerIdentity(callCtx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return Identity{}, &ProviderError{Op: "get caller identity", Err: err}
	}

	return Identity{
		Account: aws.ToString(out.Account),
		UserID:  aws.ToString(out.UserId),
		ARN:     aws.ToString(out.Arn),
	}, nil
}

func (p *AWSProvider) ListComputeInstances(ctx context.Context) ([]ComputeInstance, error) {
	paginator := ec2.NewDescribeInstancesPaginator(p.ec2Client, &ec2.DescribeInstancesInput{})

	var instances []ComputeInstance
	for paginator.HasMorePages() {
		callCtx, cancel := p.callCtx(ctx)
		output, err := paginator.NextPage(callCtx)
		cancel()
		if err != nil {
			return nil, &ProviderError{Op: "describe instances", Err: err}
		}

		for _, reservation := range output.Reservations {
			for _, instance := range reservation.Instances {
				instances = append(instances, buildComputeInstance(instance))
			}
		}
	}

	return instances, nil
}

func buildComputeInstance(instance ec2types.Instance) ComputeInstance {
	ci := ComputeInstance{
		InstanceID:         aws.ToString(instance.InstanceId),
		InstanceType:       string(instance.InstanceType),
		Architecture:       string(instance.Architecture),
		LaunchTime:         instance.LaunchTime,
		SubnetID:           aws.ToString(instance.SubnetId),
		VPCID:              aws.ToString(instance.VpcId),
		PrivateIPAddress:   aws.ToString(instance.PrivateIpAddress),
		PublicIPAddress:    aws.ToString(instance.PublicIpAddress),
		PrivateDNSName:     aws.ToString(instance.PrivateDnsName),
		PublicDNSName:      aws.ToString(instance.PublicDnsName),
		KeyName:            aws.ToString(instance.KeyName),
		Platform:           aws.ToString(instance.PlatformDetails),
		EBSOptimized:       aws.ToBool(instance.EbsOptimized),
		RootDeviceType:     string(instance.RootDeviceType),
		VirtualizationType: string(instance.VirtualizationType),
		Tags:               convertEC2Tags(instance.Tags),
	}
	if instance.State != nil {
		ci.State = string(instance.State.Name)
		ci.StateCode = aws.ToInt32(instance.State.Code)
	}
	if instance.Placement != nil {
		ci.AvailabilityZone = aws.ToString(instance.Placement.AvailabilityZone)
	}
	if instance.IamInstanceProfile != nil {
		ci.IAMInstanceProfile = aws.ToString(instance.IamInstanceProfile.Arn)
	}
	if instance.Monitoring != nil {
		ci.Monitoring = string(instance.Monitoring.State)
	}
	for _, sg := range instance.SecurityGroups {
		ci.SecurityGroups = append(ci.SecurityGroups, SecurityGroup{
			GroupID:   aws.ToString(sg.GroupId),
			GroupName: aws.ToString(sg.GroupName),
		})
	}
	return ci
}

func convertEC2Tags(tags []ec2types.Tag) map[string]string {
	converted := make(map[string]string, len(tags))
	for _, tag := range tags {
		converted[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return converted
}

func (p *AWSProvider) ListStorageBuckets(ctx context.Context) ([]StorageBucket, error) {
	callCtx, cancel := p.callCtx(ctx)
	output, err := p.s3Client.ListBuckets(callCtx, &s3.ListBucketsInput{})
	cancel()
	if err != nil {
		return nil, &ProviderError{Op: "list buckets", Err: err}
	}

	var buckets []StorageBucket
	for _, bucket := range output.Buckets {
		name := aws.ToString(bucket.Name)

		sizeBytes, err := p.bucketSizeBytes(ctx, name)
		if err != nil {
			return nil, err
		}

		region := aws.ToString(bucket.BucketRegion)
		if region == "" {
			region = "global"
		}

		buckets = append(buckets, StorageBucket{
			Name:         name,
			CreationDate: bucket.CreationDate,
			Region:       region,
			SizeGB:       sizeBytes / (1 << 30),
			ARN:          "arn:aws:s3:::" + name,
		})
	}

	return buckets, nil
}

// bucketSizeBytes resolves an approximate bucket size from the most recent
// storage metric datapoint. No datapoint within the window means zero, not an
// error; the monitoring gap should not sink the whole scan.
func (p *AWSProvider) bucketSizeBytes(ctx context.Context, bucketName string) (float64, error) {
	callCtx, cancel := p.callCtx(ctx)
	defer cancel()

	now := time.Now()
	output, err := p.cwClient.GetMetricStatistics(callCtx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String("AWS/S3"),
		MetricName: aws.String("BucketSizeBytes"),
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String("BucketName"), Value: aws.String(bucketName)},
			{Name: aws.String("StorageType"), Value: aws.String("StandardStorage")},
		},
		StartTime:  aws.Time(now.Add(-bucketSizeWindow)),
		EndTime:    aws.Time(now),
		Period:     aws.Int32(86400),
		Statistics: []cwtypes.Statistic{cwtypes.StatisticAverage, cwtypes.StatisticMaximum},
	})
	if err != nil {
		return 0, &ProviderError{Op: fmt.Sprintf("get bucket size for %s", bucketName), Err: err}
	}

	datapoints := output.Datapoints
	if len(datapoints) == 0 {
		return 0, nil
	}
	// CloudWatch returns datapoints in no particular order.
	sort.Slice(datapoints, func(i, j int) bool {
		return aws.ToTime(datapoints[i].Timestamp).Before(aws.ToTime(datapoints[j].Timestamp))
	})
	return aws.ToFloat64(datapoints[len(datapoints)-1].Average), nil
}

func (p *AWSProvider) ListManagedDatabases(ctx context.Context) ([]DBInstance, error) {
	paginator := rds.NewDescribeDBInstancesPaginator(p.rdsClient, &rds.DescribeDBInstancesInput{})

	var instances []DBInstance
	for paginator.HasMorePages() {
		callCtx, cancel := p.callCtx(ctx)
		output, err := paginator.NextPage(callCtx)
		cancel()
		if err != nil {
			return nil, &ProviderError{Op: "describe db instances", Err: err}
		}

		for _, instance := range output.DBInstances {
			db := DBInstance{
				Identifier:       aws.ToString(instance.DBInstanceIdentifier),
				InstanceClass:    aws.ToString(instance.DBInstanceClass),
				Engine:           aws.ToString(instance.Engine),
				Status:           aws.ToString(instance.DBInstanceStatus),
				AllocatedStorage: aws.ToInt32(instance.AllocatedStorage),
				CreationDate:     instance.InstanceCreateTime,
				StorageType:      aws.ToString(instance.StorageType),
				Region:           p.region,
			}
			if instance.Endpoint != nil {
				db.Address = aws.ToString(instance.Endpoint.Address)
			}
			instances = append(instances, db)
		}
	}

	return instances, nil
}
