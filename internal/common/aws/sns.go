package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSAPI is the slice of the SNS client used here.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSClient struct {
	api SNSAPI
}

func NewSNSClient(cfg aws.Config) *SNSClient {
	return NewSNSClientWithAPI(sns.NewFromConfig(cfg))
}

func NewSNSClientWithAPI(api SNSAPI) *SNSClient {
	return &SNSClient{api: api}
}

// Publish posts to a topic with string message attributes and returns the
// SNS message id. SNS caps subjects at 100 characters.
func (s *SNSClient) Publish(ctx context.Context, topicARN, subject, message string, attrs map[string]string) (string, error) {
	if len(subject) > 100 {
		subject = subject[:100]
	}
	input := &sns.PublishInput{
		TopicArn: aws.String(topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	}
	if len(attrs) > 0 {
		input.MessageAttributes = make(map[string]types.MessageAttributeValue, len(attrs))
		for k, v := range attrs {
			input.MessageAttributes[k] = types.MessageAttributeValue{
				DataType:    aws.String("String"),
				StringValue: aws.String(v),
			}
		}
	}
	out, err := s.api.Publish(ctx, input)
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}
